package oracle

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RetryPolicy bounds how often and how patiently a batch is retried.
type RetryPolicy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	Multiplier  float64

	// Sleep waits for d or until ctx is done. Nil means a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Rand returns a value in [0,1). Nil means math/rand.
	Rand func() float64
}

// DefaultRetryPolicy is six attempts with backoff between one and twenty
// seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 6,
		MinBackoff:  time.Second,
		MaxBackoff:  20 * time.Second,
		Multiplier:  2,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.MinBackoff <= 0 {
		p.MinBackoff = d.MinBackoff
	}
	if p.MaxBackoff < p.MinBackoff {
		p.MaxBackoff = p.MinBackoff
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	if p.Rand == nil {
		p.Rand = lockedRand()
	}
	return p
}

// Backoff returns the wait before retry number attempt (1 for the first
// retry): uniform in [MinBackoff, min(MaxBackoff, MinBackoff*Multiplier^attempt)].
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	upper := float64(p.MinBackoff) * math.Pow(p.Multiplier, float64(attempt))
	if upper > float64(p.MaxBackoff) {
		upper = float64(p.MaxBackoff)
	}
	lower := float64(p.MinBackoff)
	return time.Duration(lower + p.Rand()*(upper-lower))
}

// Do runs op until it succeeds, returns a non-retryable error, the attempts
// run out or ctx is done. The last error is returned. onRetry, when set, is
// called before every wait.
func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error, retryable func(error) bool, onRetry func(attempt int, wait time.Duration, err error)) error {
	p = p.withDefaults()

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(attempt); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := p.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
		if sleepErr := p.Sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func lockedRand() func() float64 {
	var mu sync.Mutex
	r := rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- jitter only
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return r.Float64()
	}
}
