package locking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infrastructure/locking"
)

func TestAcquire_WhenKeyFree_ShouldHandOutLease(t *testing.T) {
	svc := locking.NewMemoryLockService()

	handle, err := svc.Acquire(context.Background(), "payment:confirm:p1", time.Minute)

	require.NoError(t, err)
	require.NotNil(t, handle)
}

func TestAcquire_WhenKeyHeld_ShouldFailFast(t *testing.T) {
	svc := locking.NewMemoryLockService()

	_, err := svc.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	_, err = svc.Acquire(context.Background(), "k", time.Minute)
	require.ErrorIs(t, err, contracts.ErrLockUnavailable)
}

func TestAcquire_ForDifferentKeys_ShouldNotInterfere(t *testing.T) {
	svc := locking.NewMemoryLockService()

	_, err := svc.Acquire(context.Background(), "payment:confirm:p1", time.Minute)
	require.NoError(t, err)

	_, err = svc.Acquire(context.Background(), "payment:confirm:p2", time.Minute)
	require.NoError(t, err)
}

func TestRelease_ShouldFreeTheKey(t *testing.T) {
	svc := locking.NewMemoryLockService()

	handle, err := svc.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	handle.Release()

	_, err = svc.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)
}

func TestAcquire_WhenLeaseExpired_ShouldGrantToNewCaller(t *testing.T) {
	svc := locking.NewMemoryLockService()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	stale, err := svc.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	fresh, err := svc.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	// Releasing the stale handle must not free the new holder's lease.
	stale.Release()
	_, err = svc.Acquire(context.Background(), "k", time.Minute)
	require.ErrorIs(t, err, contracts.ErrLockUnavailable)
}
