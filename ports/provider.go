package ports

import (
	"context"

	"github.com/layer-3/custos/core"
)

// UserResult is the outcome of bootstrapping an identity with the
// provider.
type UserResult struct {
	ProviderUserID string
	Exists         bool
}

// WalletRequestResult is the single normalized shape for every wallet
// response envelope the provider is known to return: a wallet created
// directly, a wallet list returned after a challenge, or a demand for
// a challenge ceremony.
type WalletRequestResult struct {
	Wallet            *core.Wallet
	ChallengeID       string
	RequiresChallenge bool
}

// Provider is the custodial wallet provider's REST surface. All
// methods carry bounded timeouts and surface *core.ProviderError on
// failure; implementations must not touch the credential store.
type Provider interface {
	// CreateOrInitializeUser registers the identity with the provider.
	// An identity that already exists is reported via Exists, not as an
	// error.
	CreateOrInitializeUser(ctx context.Context, identity core.Identity) (UserResult, error)

	// GetUserToken acquires a fresh short-lived session token for the
	// identity.
	GetUserToken(ctx context.Context, identity core.Identity) (core.AccessToken, error)

	// InitializeUser runs the provider's initialize step for an
	// existing identity. It may return a challenge id when a security
	// setup ceremony is still pending.
	InitializeUser(ctx context.Context, identity core.Identity, token core.AccessToken) (string, error)

	// CreateWallet requests wallet creation under a client-generated
	// idempotency key.
	CreateWallet(ctx context.Context, identity core.Identity, token core.AccessToken, idempotencyKey string) (WalletRequestResult, error)

	// ListUserWallets returns the identity's wallets. Used both as
	// steady-state lookup and as the fallback-recovery probe after an
	// ambiguous failure.
	ListUserWallets(ctx context.Context, identity core.Identity) ([]core.Wallet, error)

	// GetChallengeStatus reports the provider-side view of a
	// challenge. Corroboration only; the workflow never depends on it.
	GetChallengeStatus(ctx context.Context, challengeID string) (core.Challenge, error)
}
