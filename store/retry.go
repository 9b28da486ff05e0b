package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yeremiapane/restaurant-floor/apperror"
)

// RetryPolicy bounds how often a transient store failure is retried.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// policy is exhausted. The last error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	b := backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !apperror.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
