// Package backoff is a small stateful exponential backoff generator for
// long-running reconnect loops: the same doubling scheme a one-shot
// retry loop would use, reshaped into a reusable per-venue sequence
// generator.
package backoff

import "time"

// Backoff produces a doubling delay sequence starting at Initial,
// clamped at Max, reset back to Initial on success.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	current time.Duration
}

// New returns a Backoff starting at initial, clamped at max. A
// non-positive max disables clamping (not expected in normal use).
func New(initial, max time.Duration) *Backoff {
	return &Backoff{Initial: initial, Max: max}
}

// Next returns the next delay in the sequence and doubles the internal
// state for the following call.
func (b *Backoff) Next() time.Duration {
	if b.current <= 0 {
		b.current = b.Initial
	}
	delay := b.current
	b.current *= 2
	if b.Max > 0 && b.current > b.Max {
		b.current = b.Max
	}
	return delay
}

// Reset returns the sequence to Initial, to be called after a successful
// connection.
func (b *Backoff) Reset() {
	b.current = 0
}
