// Package retry wraps statistic fetches against eventually-consistent
// API endpoints. GitHub computes some aggregates asynchronously and
// signals "not ready yet"; everything else is a real failure and must
// propagate immediately.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gitbadges/gitbadges/internal/domain"
)

// Policy configures the backoff behavior. The zero value is not
// usable; start from DefaultPolicy.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// Multiplier scales the delay after every attempt.
	Multiplier float64
}

// DefaultPolicy matches the upstream recommendation for the
// contributor statistics endpoint: three retries at 5s, 10s, 20s.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, Delay: 5 * time.Second, Multiplier: 2}
}

// backoff returns the wait before retry number attempt (0-based).
func (p Policy) backoff(attempt int) time.Duration {
	return time.Duration(float64(p.Delay) * math.Pow(p.Multiplier, float64(attempt)))
}

// Do executes fn, retrying per the policy while it fails with
// domain.ErrNotReady. Any other error returns immediately after one
// invocation; exhausting the retries returns the last error. The wait
// between attempts is interrupted by ctx cancellation.
func Do[T any](ctx context.Context, logger *logrus.Logger, p Policy, description string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			logger.Debugf("got %s", description)
			return result, nil
		}
		if !errors.Is(err, domain.ErrNotReady) {
			logger.WithError(err).Errorf("%s failed", description)
			return zero, err
		}
		if attempt >= p.MaxRetries {
			logger.WithError(err).Errorf("%s failed after %d attempts", description, attempt+1)
			return zero, err
		}

		wait := p.backoff(attempt)
		logger.Warnf("%s is still being computed, waiting %s (attempt %d/%d)", description, wait, attempt+1, p.MaxRetries+1)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}
}
