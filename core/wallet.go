package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity is the external account key at the custodial provider,
// typically the user's email address. It never changes once a
// provisioning workflow has started.
type Identity string

// Wallet is a provisioned custodial wallet. Once it exists it is
// immutable from this service's point of view; balance movements and
// transaction signing belong to other services.
type Wallet struct {
	ID         string
	Address    string
	Blockchain string
	CreatedAt  time.Time
	Balances   []Balance
}

// Balance is an amount the provider reports alongside a wallet in its
// list endpoint.
type Balance struct {
	Currency string
	Amount   decimal.Decimal
}

// AccessToken is a provider-issued bearer credential scoped to one
// identity. The provider enforces a validity window of a few minutes,
// shorter than typical UI think-time, so callers must re-acquire a
// token immediately before any sensitive call instead of reusing one
// from an earlier step.
type AccessToken struct {
	Token         string
	EncryptionKey string
	IssuedAt      time.Time
}

// Credentials is the persisted record for one identity. Either field
// may be absent; the record is rebuildable from the provider.
type Credentials struct {
	Token  *AccessToken
	Wallet *Wallet
}
