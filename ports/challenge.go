package ports

import (
	"context"

	"github.com/layer-3/custos/core"
)

// ChallengeExecutor drives a provider challenge ceremony to
// completion. Execute consumes the challenge exactly once and never
// retries internally; retry of a consumed challenge is the
// orchestrator's decision.
type ChallengeExecutor interface {
	Execute(ctx context.Context, token core.AccessToken, challengeID string) (core.ChallengeOutcome, error)
}
