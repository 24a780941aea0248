// Package observability carries structured events out of the coding loop.
//
// Components receive an Observer at construction time and emit Events at
// the points worth recording (state transitions, retry attempts, file
// writes, commits). Observers decide where the events go: ZapObserver
// writes them to a zap logger, NoOpObserver drops them, MultiObserver fans
// out to several.
package observability

import (
	"context"
	"time"

	"go.uber.org/zap/zapcore"
)

// Level is the severity of an event.
type Level int

const (
	LevelVerbose Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the severity name.
func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ZapLevel maps the level onto zap's levels.
func (l Level) ZapLevel() zapcore.Level {
	switch l {
	case LevelVerbose:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// EventType names an event, e.g. "turn.state" or "client.retry".
type EventType string

const (
	EventTurnState      EventType = "turn.state"
	EventTurnFailed     EventType = "turn.failed"
	EventClientAttempt  EventType = "client.attempt"
	EventClientRetry    EventType = "client.retry"
	EventStreamComplete EventType = "stream.complete"
	EventApplyWrite     EventType = "apply.write"
	EventApplySkip      EventType = "apply.skip"
	EventCommitDone     EventType = "commit.done"
	EventCacheWarm      EventType = "cache.warm"
)

// Event is a single observation emitted by a component.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// Emit stamps and sends an event. A nil observer is ignored.
func Emit(ctx context.Context, obs Observer, typ EventType, level Level, source string, data map[string]any) {
	if obs == nil {
		return
	}
	obs.OnEvent(ctx, Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
