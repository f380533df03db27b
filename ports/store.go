package ports

import (
	"context"

	"github.com/layer-3/custos/core"
)

// CredentialStore persists provider credentials per identity. Pure
// key-value persistence with no business logic; writes for the same
// identity are serialized by the session guard's mutual exclusion.
type CredentialStore interface {
	// Get returns the stored record for the identity. An unknown
	// identity yields an empty record, not an error.
	Get(ctx context.Context, identity core.Identity) (core.Credentials, error)

	// Put updates the stored record. Partial updates are supported: a
	// nil token or wallet leaves the stored value untouched.
	Put(ctx context.Context, identity core.Identity, token *core.AccessToken, wallet *core.Wallet) error
}
