package model

import "time"

// Pricing is the per-token price of a model, in dollars.
type Pricing struct {
	InputPerToken  float64 `toml:"input_cost_per_token"`
	OutputPerToken float64 `toml:"output_cost_per_token"`
}

// Ledger is the conversation state of one session: the committed history,
// the in-flight exchange and running usage counters.
//
// Formatted always equals History followed by Current. Returned slices are
// copies; a turn cannot be modified once appended.
type Ledger struct {
	history []Turn
	current []Turn

	pricing Pricing

	totalCost             float64
	messageCost           float64
	messageTokensSent     int
	messageTokensReceived int

	now func() time.Time
}

// NewLedger returns an empty ledger.
func NewLedger(pricing Pricing) *Ledger {
	return &Ledger{pricing: pricing, now: time.Now}
}

// AddCurrent appends a turn to the in-flight exchange.
func (l *Ledger) AddCurrent(role Role, content string) Turn {
	t := Turn{Role: role, Content: content, Timestamp: l.now()}
	l.current = append(l.current, t)
	return t
}

// History returns a copy of the committed turns.
func (l *Ledger) History() []Turn {
	return append([]Turn(nil), l.history...)
}

// Current returns a copy of the in-flight exchange.
func (l *Ledger) Current() []Turn {
	return append([]Turn(nil), l.current...)
}

// Formatted returns history followed by the in-flight exchange.
func (l *Ledger) Formatted() []Turn {
	out := make([]Turn, 0, len(l.history)+len(l.current))
	out = append(out, l.history...)
	return append(out, l.current...)
}

// Fold moves the in-flight exchange into history.
func (l *Ledger) Fold() {
	l.history = append(l.history, l.current...)
	l.current = nil
}

// DiscardCurrent drops the in-flight exchange.
func (l *Ledger) DiscardCurrent() {
	l.current = nil
}

// Compact replaces the first n history turns with one summary turn. It is a
// no-op when n is out of range.
func (l *Ledger) Compact(n int, summary string) {
	if n <= 0 || n > len(l.history) {
		return
	}
	rest := l.history[n:]
	compacted := make([]Turn, 0, len(rest)+1)
	compacted = append(compacted, Turn{Role: RoleUser, Content: summary, Timestamp: l.now()})
	l.history = append(compacted, rest...)
}

// Restore replaces history with previously persisted turns and drops any
// in-flight exchange.
func (l *Ledger) Restore(turns []Turn) {
	l.history = append([]Turn(nil), turns...)
	l.current = nil
}

// Clear forgets the whole conversation. Cost counters are kept.
func (l *Ledger) Clear() {
	l.history = nil
	l.current = nil
}

// RecordUsage sets the counters of the latest reply and adds its cost to
// the session total.
func (l *Ledger) RecordUsage(sent, received int) {
	l.messageTokensSent = sent
	l.messageTokensReceived = received
	l.messageCost = float64(sent)*l.pricing.InputPerToken + float64(received)*l.pricing.OutputPerToken
	l.totalCost += l.messageCost
}

// TotalCost is the accumulated cost of the session.
func (l *Ledger) TotalCost() float64 { return l.totalCost }

// MessageCost is the cost of the latest reply.
func (l *Ledger) MessageCost() float64 { return l.messageCost }

// MessageTokensSent is the prompt size of the latest reply.
func (l *Ledger) MessageTokensSent() int { return l.messageTokensSent }

// MessageTokensReceived is the completion size of the latest reply.
func (l *Ledger) MessageTokensReceived() int { return l.messageTokensReceived }
