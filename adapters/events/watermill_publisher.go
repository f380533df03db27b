package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/layer-3/custos/core"
	"github.com/layer-3/custos/ports"
)

// WalletProvisionedEvent notifies the marketplace that an identity now
// has a usable wallet.
type WalletProvisionedEvent struct {
	Identity   string `json:"identity"`
	WalletID   string `json:"wallet_id"`
	Address    string `json:"address"`
	Blockchain string `json:"blockchain"`
}

// WatermillPublisher implements the EventPublisher interface using
// Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     "custody.wallet.provisioned",
	}
}

// PublishWalletProvisioned publishes a wallet-provisioned event.
func (p *WatermillPublisher) PublishWalletProvisioned(ctx context.Context, identity core.Identity, wallet core.Wallet) error {
	event := WalletProvisionedEvent{
		Identity:   string(identity),
		WalletID:   wallet.ID,
		Address:    wallet.Address,
		Blockchain: wallet.Blockchain,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(wallet.ID, payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
