package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/custos/core"
)

func TestSessionGuard_RejectsSecondAcquire(t *testing.T) {
	guard := NewSessionGuard()

	lease, err := guard.Acquire("user@example.com")
	require.NoError(t, err)
	require.NotNil(t, lease)

	_, err = guard.Acquire("user@example.com")
	assert.ErrorIs(t, err, core.ErrProvisioningInProgress)

	// A different identity is unaffected.
	other, err := guard.Acquire("other@example.com")
	require.NoError(t, err)
	other.Release()

	lease.Release()

	lease, err = guard.Acquire("user@example.com")
	require.NoError(t, err)
	lease.Release()
}

func TestSessionGuard_ReleaseIsIdempotent(t *testing.T) {
	guard := NewSessionGuard()

	lease, err := guard.Acquire("user@example.com")
	require.NoError(t, err)

	lease.Release()
	lease.Release()

	assert.False(t, guard.InFlight("user@example.com"))
}

func TestSessionGuard_ConcurrentAcquireAdmitsOne(t *testing.T) {
	guard := NewSessionGuard()

	const callers = 16
	var wg sync.WaitGroup
	admitted := make(chan *Lease, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lease, err := guard.Acquire("user@example.com"); err == nil {
				admitted <- lease
			}
		}()
	}
	wg.Wait()
	close(admitted)

	var leases []*Lease
	for lease := range admitted {
		leases = append(leases, lease)
	}
	require.Len(t, leases, 1)
	leases[0].Release()
}
