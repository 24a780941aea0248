package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger() *Ledger {
	l := NewLedger(Pricing{InputPerToken: 0.001, OutputPerToken: 0.002})
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	return l
}

func TestLedger_FormattedIsHistoryThenCurrent(t *testing.T) {
	l := newTestLedger()
	l.AddCurrent(RoleUser, "first")
	l.AddCurrent(RoleAssistant, "reply")
	l.Fold()
	l.AddCurrent(RoleUser, "second")

	got := l.Formatted()
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "reply", got[1].Content)
	assert.Equal(t, "second", got[2].Content)
	assert.Len(t, l.History(), 2)
	assert.Len(t, l.Current(), 1)
}

func TestLedger_ReturnsCopies(t *testing.T) {
	l := newTestLedger()
	l.AddCurrent(RoleUser, "hello")
	l.Fold()

	h := l.History()
	h[0].Content = "mutated"

	assert.Equal(t, "hello", l.History()[0].Content)
	assert.Equal(t, "hello", l.Formatted()[0].Content)
}

func TestLedger_DiscardCurrent(t *testing.T) {
	l := newTestLedger()
	l.AddCurrent(RoleUser, "kept")
	l.Fold()
	l.AddCurrent(RoleUser, "dropped")

	l.DiscardCurrent()

	assert.Empty(t, l.Current())
	assert.Len(t, l.Formatted(), 1)
}

func TestLedger_Compact(t *testing.T) {
	l := newTestLedger()
	for _, c := range []string{"a", "b", "c", "d"} {
		l.AddCurrent(RoleUser, c)
	}
	l.Fold()

	l.Compact(3, "summary of a b c")

	h := l.History()
	require.Len(t, h, 2)
	assert.Equal(t, "summary of a b c", h[0].Content)
	assert.Equal(t, "d", h[1].Content)

	l.Compact(10, "ignored")
	assert.Len(t, l.History(), 2)
}

func TestLedger_RestoreAndClear(t *testing.T) {
	l := newTestLedger()
	l.AddCurrent(RoleUser, "pending")
	l.Restore([]Turn{{Role: RoleUser, Content: "old"}, {Role: RoleAssistant, Content: "older reply"}})

	assert.Empty(t, l.Current())
	assert.Len(t, l.History(), 2)

	l.RecordUsage(10, 10)
	l.Clear()
	assert.Empty(t, l.Formatted())
	assert.InDelta(t, 0.03, l.TotalCost(), 1e-9)
}

func TestLedger_RecordUsage(t *testing.T) {
	l := newTestLedger()

	l.RecordUsage(1000, 500)
	assert.Equal(t, 1000, l.MessageTokensSent())
	assert.Equal(t, 500, l.MessageTokensReceived())
	assert.InDelta(t, 2.0, l.MessageCost(), 1e-9)

	l.RecordUsage(100, 0)
	assert.InDelta(t, 0.1, l.MessageCost(), 1e-9)
	assert.InDelta(t, 2.1, l.TotalCost(), 1e-9)
}
