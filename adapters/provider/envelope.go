package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/layer-3/custos/core"
	"github.com/layer-3/custos/ports"
)

// walletEnvelope covers every response shape the provider has been
// observed to return from wallet-affecting calls: a bare wallet
// object, a wallet list, or a challenge demand. Some deployments also
// wrap the payload in a "data" object. The provider does not commit to
// one schema, so this type absorbs all of them.
type walletEnvelope struct {
	Data              *walletEnvelope `json:"data,omitempty"`
	Wallet            *walletPayload  `json:"wallet,omitempty"`
	Wallets           []walletPayload `json:"wallets,omitempty"`
	ChallengeID       string          `json:"challengeId,omitempty"`
	RequiresChallenge bool            `json:"requiresChallenge,omitempty"`
}

type walletPayload struct {
	ID         string           `json:"id"`
	Address    string           `json:"address"`
	Blockchain string           `json:"blockchain"`
	CreateDate time.Time        `json:"createDate"`
	Balances   []balancePayload `json:"balances,omitempty"`
}

type balancePayload struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// unwrap peels the optional "data" wrapper.
func (e *walletEnvelope) unwrap() *walletEnvelope {
	if e.Data != nil {
		return e.Data.unwrap()
	}
	return e
}

// normalize merges the envelope variants into the single result shape
// the orchestrator consumes.
func (e *walletEnvelope) normalize() (ports.WalletRequestResult, error) {
	inner := e.unwrap()

	payload := inner.Wallet
	if payload == nil && len(inner.Wallets) > 0 {
		payload = &inner.Wallets[0]
	}

	if payload != nil {
		wallet, err := payload.toWallet()
		if err != nil {
			return ports.WalletRequestResult{}, err
		}
		return ports.WalletRequestResult{Wallet: &wallet}, nil
	}

	if inner.ChallengeID != "" {
		return ports.WalletRequestResult{
			ChallengeID:       inner.ChallengeID,
			RequiresChallenge: true,
		}, nil
	}

	return ports.WalletRequestResult{RequiresChallenge: inner.RequiresChallenge}, nil
}

// normalizeList extracts all wallets from a list response.
func (e *walletEnvelope) normalizeList() ([]core.Wallet, error) {
	inner := e.unwrap()

	payloads := inner.Wallets
	if len(payloads) == 0 && inner.Wallet != nil {
		payloads = []walletPayload{*inner.Wallet}
	}

	wallets := make([]core.Wallet, 0, len(payloads))
	for _, p := range payloads {
		wallet, err := p.toWallet()
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	return wallets, nil
}

// toWallet validates and converts a provider wallet payload. A payload
// without an id is a data-integrity failure; the workflow must never
// proceed with a null identifier.
func (p walletPayload) toWallet() (core.Wallet, error) {
	if strings.TrimSpace(p.ID) == "" {
		return core.Wallet{}, fmt.Errorf("wallet payload: %w", core.ErrMissingWalletID)
	}

	address := p.Address
	if common.IsHexAddress(address) {
		// Checksum-normalize EVM addresses; other chains pass through.
		address = common.HexToAddress(address).Hex()
	}

	wallet := core.Wallet{
		ID:         p.ID,
		Address:    address,
		Blockchain: p.Blockchain,
		CreatedAt:  p.CreateDate,
	}
	for _, b := range p.Balances {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			// Balances are display data here; a malformed amount must
			// not block provisioning.
			continue
		}
		wallet.Balances = append(wallet.Balances, core.Balance{Currency: b.Currency, Amount: amount})
	}
	return wallet, nil
}
