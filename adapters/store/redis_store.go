package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/layer-3/custos/core"
	"github.com/layer-3/custos/ports"
)

// RedisStore is a Redis implementation of the CredentialStore
// interface. Entries are a flat map keyed by identity; no schema
// versioning, records are rebuildable from the provider.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis credential store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "custos:credentials:",
	}
}

type credentialRecord struct {
	Token         string        `json:"token,omitempty"`
	EncryptionKey string        `json:"encryption_key,omitempty"`
	TokenIssuedAt *time.Time    `json:"token_issued_at,omitempty"`
	Wallet        *walletRecord `json:"wallet,omitempty"`
}

type walletRecord struct {
	ID         string          `json:"id"`
	Address    string          `json:"address"`
	Blockchain string          `json:"blockchain"`
	CreatedAt  time.Time       `json:"created_at"`
	Balances   []balanceRecord `json:"balances,omitempty"`
}

type balanceRecord struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// Get returns the stored record for the identity. A missing key yields
// an empty record.
func (s *RedisStore) Get(ctx context.Context, identity core.Identity) (core.Credentials, error) {
	raw, err := s.client.Get(ctx, s.prefix+string(identity)).Result()
	if err == redis.Nil {
		return core.Credentials{}, nil
	}
	if err != nil {
		return core.Credentials{}, fmt.Errorf("get credentials: %w", core.ErrStoreOperationFailed)
	}

	var record credentialRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return core.Credentials{}, fmt.Errorf("decode credentials: %w", core.ErrStoreOperationFailed)
	}
	return record.toCredentials(), nil
}

// Put merges the non-nil fields into the stored record. Writes for the
// same identity are serialized by the session guard, so read-modify-
// write is safe here.
func (s *RedisStore) Put(ctx context.Context, identity core.Identity, token *core.AccessToken, wallet *core.Wallet) error {
	current, err := s.Get(ctx, identity)
	if err != nil {
		return err
	}

	if token != nil {
		current.Token = token
	}
	if wallet != nil {
		current.Wallet = wallet
	}

	payload, err := json.Marshal(fromCredentials(current))
	if err != nil {
		return fmt.Errorf("encode credentials: %w", core.ErrStoreOperationFailed)
	}

	if err := s.client.Set(ctx, s.prefix+string(identity), payload, 0).Err(); err != nil {
		return fmt.Errorf("put credentials: %w", core.ErrStoreOperationFailed)
	}
	return nil
}

func (r credentialRecord) toCredentials() core.Credentials {
	var creds core.Credentials
	if r.Token != "" {
		token := core.AccessToken{Token: r.Token, EncryptionKey: r.EncryptionKey}
		if r.TokenIssuedAt != nil {
			token.IssuedAt = *r.TokenIssuedAt
		}
		creds.Token = &token
	}
	if r.Wallet != nil {
		wallet := core.Wallet{
			ID:         r.Wallet.ID,
			Address:    r.Wallet.Address,
			Blockchain: r.Wallet.Blockchain,
			CreatedAt:  r.Wallet.CreatedAt,
		}
		for _, b := range r.Wallet.Balances {
			wallet.Balances = append(wallet.Balances, core.Balance{Currency: b.Currency, Amount: b.Amount})
		}
		creds.Wallet = &wallet
	}
	return creds
}

func fromCredentials(creds core.Credentials) credentialRecord {
	var record credentialRecord
	if creds.Token != nil {
		record.Token = creds.Token.Token
		record.EncryptionKey = creds.Token.EncryptionKey
		issuedAt := creds.Token.IssuedAt
		record.TokenIssuedAt = &issuedAt
	}
	if creds.Wallet != nil {
		record.Wallet = &walletRecord{
			ID:         creds.Wallet.ID,
			Address:    creds.Wallet.Address,
			Blockchain: creds.Wallet.Blockchain,
			CreatedAt:  creds.Wallet.CreatedAt,
		}
		for _, b := range creds.Wallet.Balances {
			record.Wallet.Balances = append(record.Wallet.Balances, balanceRecord{Currency: b.Currency, Amount: b.Amount})
		}
	}
	return record
}

var _ ports.CredentialStore = (*RedisStore)(nil)
