// Package retry implements the step attempt-loop's backoff policy (spec
// §4.7 step 3e): sleep min(2^attempt, 10) seconds between failed attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// CappedExponential implements backoff.BackOff with the spec's fixed
// formula rather than the library's default jittered exponential curve —
// attempt 0 waits 1s, attempt 1 waits 2s, ... capping at 10s.
type CappedExponential struct {
	attempt int
}

var _ backoff.BackOff = (*CappedExponential)(nil)

// New builds a fresh CappedExponential starting at attempt 0.
func New() *CappedExponential {
	return &CappedExponential{}
}

// NextBackOff returns the wait before the next attempt and advances the
// internal attempt counter.
func (c *CappedExponential) NextBackOff() time.Duration {
	seconds := 10
	if c.attempt < 4 { // 2^4 == 16 already exceeds the 10s cap
		seconds = 1 << c.attempt
	}
	c.attempt++
	return time.Duration(seconds) * time.Second
}

// Sleep waits for the backoff's next interval or ctx cancellation,
// whichever comes first.
func (c *CappedExponential) Sleep(ctx context.Context) error {
	timer := time.NewTimer(c.NextBackOff())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
