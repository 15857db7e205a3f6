package credential

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"credchain/internal/apperr"
)

// retryRead runs a read-only ledger call with bounded exponential backoff.
// Only transport failures are retried; validation, policy and not-found
// errors abort immediately. Transactions never go through here, a
// resubmitted transaction is not idempotent at the nonce layer.
func retryRead[T any](ctx context.Context, maxRetries uint64, op func(context.Context) (T, error)) (T, error) {
	var out T

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	err := backoff.Retry(func() error {
		v, err := op(ctx)
		if err != nil {
			if apperr.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = v
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))

	return out, err
}
