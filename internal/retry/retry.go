// Package retry runs startup operations with exponential backoff.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff describes how often and how long to wait between attempts.
type Backoff struct {
	Attempts   int           // total attempts, at least 1
	Initial    time.Duration // wait after the first failure
	Max        time.Duration // upper bound for a single wait
	Multiplier float64       // growth per attempt, 1 when unset
	Jitter     float64       // +/- fraction applied to each wait (0-1)

	// OnRetry is called before each wait with the attempt that failed.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Default is used for connecting to backing services at startup.
func Default() Backoff {
	return Backoff{
		Attempts:   5,
		Initial:    500 * time.Millisecond,
		Max:        10 * time.Second,
		Multiplier: 2,
		Jitter:     0.1,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(b.Initial) * math.Pow(mult, float64(attempt-1))
	if b.Max > 0 && wait > float64(b.Max) {
		wait = float64(b.Max)
	}
	if b.Jitter > 0 {
		wait += wait * b.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(wait)
}

// Do calls fn until it succeeds, the attempts run out or ctx is done. The
// last error from fn is returned.
func Do[T any](ctx context.Context, b Backoff, fn func() (T, error)) (T, error) {
	attempts := max(b.Attempts, 1)

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if result, err = fn(); err == nil {
			return result, nil
		}
		if attempt == attempts {
			break
		}

		wait := b.Delay(attempt)
		if b.OnRetry != nil {
			b.OnRetry(attempt, wait, err)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return result, ctx.Err()
		case <-t.C:
		}
	}
	return result, err
}
