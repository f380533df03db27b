package store

import (
	"context"
	"sync"

	"github.com/layer-3/custos/core"
	"github.com/layer-3/custos/ports"
)

// MemoryStore is an in-memory implementation of the CredentialStore
// interface, for tests and local runs.
type MemoryStore struct {
	records map[core.Identity]core.Credentials
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[core.Identity]core.Credentials),
	}
}

// Get returns the stored record for the identity. Unknown identities
// yield an empty record.
func (s *MemoryStore) Get(ctx context.Context, identity core.Identity) (core.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.records[identity], nil
}

// Put merges the non-nil fields into the stored record.
func (s *MemoryStore) Put(ctx context.Context, identity core.Identity, token *core.AccessToken, wallet *core.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[identity]
	if token != nil {
		record.Token = token
	}
	if wallet != nil {
		record.Wallet = wallet
	}
	s.records[identity] = record
	return nil
}

var _ ports.CredentialStore = (*MemoryStore)(nil)
