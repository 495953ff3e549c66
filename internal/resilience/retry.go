// Package resilience retries store writes that fail for transient reasons.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retries with exponential backoff and jitter.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Backoff is the delay before the first retry.
	Backoff time.Duration
	// MaxBackoff caps any single delay.
	MaxBackoff time.Duration
	// Jitter spreads each delay by ±Jitter of itself (0 disables).
	Jitter float64

	// Retryable decides whether an error is worth another try. Nil means
	// IsTransient.
	Retryable func(error) bool
}

// DefaultPolicy suits local database writes: a few quick retries.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Backoff:    50 * time.Millisecond,
		MaxBackoff: time.Second,
		Jitter:     0.25,
	}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = 50 * time.Millisecond
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = p.Backoff
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Do runs fn until it succeeds, fails permanently, runs out of attempts, or
// ctx ends. It returns the last error. op names the operation in logs.
func Do(ctx context.Context, p Policy, op string, fn func(context.Context) error) error {
	p = p.normalized()

	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt == p.Attempts-1 {
			return err
		}

		zap.L().Warn("resilience: retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.Backoff) * math.Pow(2, float64(attempt))
	if d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
