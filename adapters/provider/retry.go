package provider

import (
	"context"
	"errors"
	"time"

	"github.com/layer-3/custos/core"
)

// retryPolicy is the one retry configuration applied to provider
// calls. Idempotent reads may retry on any transport-level failure;
// non-idempotent creations retry only on timeout, because a timeout
// does not say whether the provider's side effect completed — the
// orchestrator's fallback-recovery step owns that case, not blind
// re-invocation. Application-level (4xx) errors are never retried.
type retryPolicy struct {
	maxAttempts int
	backoff     time.Duration
	idempotent  bool
}

var (
	readRetryPolicy   = retryPolicy{maxAttempts: 3, backoff: 250 * time.Millisecond, idempotent: true}
	createRetryPolicy = retryPolicy{maxAttempts: 2, backoff: 250 * time.Millisecond}
)

func (p retryPolicy) do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return classifyTransport(ctx.Err())
			case <-time.After(p.backoff):
			}
		}
		if err = op(); err == nil {
			return nil
		}
		if !p.retryable(err) {
			return err
		}
	}
	return err
}

func (p retryPolicy) retryable(err error) bool {
	var perr *core.ProviderError
	if !errors.As(err, &perr) {
		return false
	}
	if errors.Is(perr.Err, context.Canceled) {
		return false
	}
	switch perr.Kind {
	case core.ErrorTimeout:
		return true
	case core.ErrorTransport:
		return p.idempotent
	default:
		return false
	}
}
