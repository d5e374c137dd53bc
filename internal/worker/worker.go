package worker

import (
	"context"
	"time"
)

// Action is one unit of work against the remote service, identified by the
// item it operates on. Attempt performs a single try; the Runner decides
// how many tries an action gets.
type Action interface {
	ID() string
	Attempt(ctx context.Context) error
}

// Outcome is the final result of processing one action, after retries.
// Failures never propagate as errors past this boundary; they are carried
// in Err so one item's failure cannot abort its batch.
type Outcome struct {
	ID  string
	Err error
}

// Failed reports whether the action exhausted its attempts.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Runner executes actions with bounded retry and exponential backoff. The
// retry policy lives here and only here: neither the HTTP client below nor
// the batch scheduler above retries anything.
type Runner struct {
	// MaxAttempts is the total number of tries per action.
	MaxAttempts int

	// Sleep is the backoff wait. Overridable for tests; nil means a real
	// timer honoring ctx cancellation.
	Sleep SleepFunc
}

// NewRunner returns a Runner making up to maxAttempts tries per action.
func NewRunner(maxAttempts int) *Runner {
	return &Runner{MaxAttempts: maxAttempts}
}

// Process runs the action until it succeeds or attempts are exhausted,
// waiting 2^attempt seconds after the attempt'th failure (2s, 4s, 8s, ...).
// No jitter, no cap: an item's worst case is bounded and predictable.
func (r *Runner) Process(ctx context.Context, a Action) Outcome {
	sleep := r.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if err := a.Attempt(ctx); err == nil {
			return Outcome{ID: a.ID()}
		} else {
			lastErr = err
		}

		if attempt < r.MaxAttempts {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if err := sleep(ctx, backoff); err != nil {
				// Cancelled mid-backoff; report the work's own error, not
				// the cancellation.
				return Outcome{ID: a.ID(), Err: lastErr}
			}
		}
	}

	return Outcome{ID: a.ID(), Err: lastErr}
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
