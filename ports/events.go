package ports

import (
	"context"

	"github.com/layer-3/custos/core"
)

// EventPublisher notifies the rest of the marketplace about
// provisioning outcomes.
type EventPublisher interface {
	PublishWalletProvisioned(ctx context.Context, identity core.Identity, wallet core.Wallet) error
}
