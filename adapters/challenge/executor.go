package challenge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/layer-3/custos/core"
)

// DefaultCeremonyTimeout bounds one ceremony. It is deliberately long:
// the ceremony may involve the end user typing a PIN.
const DefaultCeremonyTimeout = 45 * time.Second

// Executor adapts the callback-style secure module into a single
// awaitable call with outcome classification. It is a pure translation
// layer: no side effects, no internal retries.
type Executor struct {
	module  SecureModule
	timeout time.Duration
}

// NewExecutor creates an executor over the given secure module. A
// non-positive timeout falls back to DefaultCeremonyTimeout.
func NewExecutor(module SecureModule, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultCeremonyTimeout
	}
	return &Executor{module: module, timeout: timeout}
}

// Execute runs the challenge ceremony and classifies its outcome. An
// error is returned only when the ceremony's completion signal never
// arrived (timeout or cancellation); a reported module error becomes
// an advisory or fatal outcome, never a Go error.
func (e *Executor) Execute(ctx context.Context, token core.AccessToken, challengeID string) (core.ChallengeOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type reply struct {
		result map[string]any
		err    *ExecutionError
	}

	// Buffered, and guarded by once: a late or duplicate callback after
	// the deadline must not leak a goroutine or panic.
	replies := make(chan reply, 1)
	var once sync.Once
	go e.module.Execute(token.Token, token.EncryptionKey, challengeID, func(result map[string]any, execErr *ExecutionError) {
		once.Do(func() {
			replies <- reply{result: result, err: execErr}
		})
	})

	select {
	case <-ctx.Done():
		return core.ChallengeOutcome{}, fmt.Errorf("challenge %s ceremony: %w", challengeID, ctx.Err())
	case r := <-replies:
		if r.err == nil {
			return core.ChallengeOutcome{Kind: core.OutcomeSuccess, Result: r.result}, nil
		}
		return core.ChallengeOutcome{
			Kind:    Classify(r.err.Code, r.err.Message),
			Code:    r.err.Code,
			Message: r.err.Message,
			Result:  r.result,
		}, nil
	}
}
