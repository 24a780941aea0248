package model

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCancelled reports a user interrupt. It is a normal exit, not a
	// failure.
	ErrCancelled = errors.New("interrupted")

	// ErrMalformedPayload reports a structured-call payload that is not
	// valid JSON.
	ErrMalformedPayload = errors.New("malformed function call payload")
)

// TransientError wraps a failure worth retrying: rate limits, 5xx replies,
// overloaded servers, dropped connections.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// ContextLengthError reports a prompt that exceeds the model's context
// window. It is never retried.
type ContextLengthError struct {
	Err error
}

func (e *ContextLengthError) Error() string {
	return fmt.Sprintf("context window exhausted: %v", e.Err)
}

func (e *ContextLengthError) Unwrap() error { return e.Err }

// ExhaustedError is returned when the retry budget is spent.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// IsCancelled reports whether err is a user interrupt or a cancelled context.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsContextLength reports whether err is a context window overflow.
func IsContextLength(err error) bool {
	var ce *ContextLengthError
	return errors.As(err, &ce)
}
