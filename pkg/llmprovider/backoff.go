package llmprovider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// completionBackoff builds the exponential backoff policy spec §4.C
// mandates for retriable completion errors: factor 60s, cap 60s, 600s
// overall deadline.
func completionBackoff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 60 * time.Second
	b.MaxInterval = 60 * time.Second
	b.MaxElapsedTime = 600 * time.Second
	b.Multiplier = 2
	return backoff.WithContext(b, ctx)
}

// withCompletionRetry retries fn under the standard completion backoff
// policy, stopping immediately on a non-retriable classified error.
func withCompletionRetry(ctx context.Context, fn func() error) error {
	policy := completionBackoff(ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		kind := Classify(err, 0)
		if !kind.IsRetriable() {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// embeddingBackoff implements the empty-embedding retry policy from spec
// §4.C: up to 3 attempts, 1s/2s/4s.
func embeddingBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 4 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, 2) // 3 total attempts: 1 initial + 2 retries
}
