package service

import (
	"sync"

	"github.com/layer-3/custos/core"
)

// SessionGuard admits at most one provisioning workflow per identity.
// Two concurrent state machines against the same provider account
// would interleave token acquisition and wallet creation, so the
// second caller is rejected rather than queued.
type SessionGuard struct {
	mu       sync.Mutex
	inFlight map[core.Identity]struct{}
}

// NewSessionGuard creates a new session guard.
func NewSessionGuard() *SessionGuard {
	return &SessionGuard{
		inFlight: make(map[core.Identity]struct{}),
	}
}

// Acquire reserves the identity for one workflow. The caller must
// Release the lease on any terminal state, DONE or FATAL alike.
func (g *SessionGuard) Acquire(identity core.Identity) (*Lease, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.inFlight[identity]; held {
		return nil, core.ErrProvisioningInProgress
	}
	g.inFlight[identity] = struct{}{}
	return &Lease{guard: g, identity: identity}, nil
}

// InFlight reports whether a workflow is currently active for the
// identity.
func (g *SessionGuard) InFlight(identity core.Identity) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, held := g.inFlight[identity]
	return held
}

// Lease is a held reservation for one identity.
type Lease struct {
	guard    *SessionGuard
	identity core.Identity
	once     sync.Once
}

// Release frees the identity for a future workflow. Safe to call more
// than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.guard.mu.Lock()
		delete(l.guard.inFlight, l.identity)
		l.guard.mu.Unlock()
	})
}
