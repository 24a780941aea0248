package coder

import "time"

const (
	defaultInitialDelay = 125 * time.Millisecond
	defaultMaxDelay     = 60 * time.Second
)

// Backoff yields doubling retry delays starting at Initial. Next reports
// false, without a delay, once the next delay would exceed Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	next    time.Duration
}

// NewBackoff returns a backoff over [initial, max].
func NewBackoff(initial, max time.Duration) *Backoff {
	return &Backoff{Initial: initial, Max: max}
}

// Next returns the upcoming delay.
func (b *Backoff) Next() (time.Duration, bool) {
	if b.next == 0 {
		b.next = b.Initial
	}
	if b.next > b.Max {
		return 0, false
	}
	d := b.next
	b.next *= 2
	return d, true
}

// Delays lists every delay the backoff will produce.
func Delays(initial, max time.Duration) []time.Duration {
	var out []time.Duration
	b := NewBackoff(initial, max)
	for {
		d, ok := b.Next()
		if !ok {
			return out
		}
		out = append(out, d)
	}
}
