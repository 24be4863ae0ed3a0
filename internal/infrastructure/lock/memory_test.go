package lock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-core-square-layer/internal/domain"
)

func TestMemorySyncLockSingleFlight(t *testing.T) {
	l := NewMemorySyncLock()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "tenant-1", domain.SyncTypeCatalog)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "tenant-1", domain.SyncTypeCatalog)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	release()

	release2, err := l.Acquire(ctx, "tenant-1", domain.SyncTypeCatalog)
	require.NoError(t, err)
	release2()
}

func TestMemorySyncLockIndependentScopes(t *testing.T) {
	l := NewMemorySyncLock()
	ctx := context.Background()

	releaseCatalog, err := l.Acquire(ctx, "tenant-1", domain.SyncTypeCatalog)
	require.NoError(t, err)
	defer releaseCatalog()

	// Same tenant, different type.
	releaseInventory, err := l.Acquire(ctx, "tenant-1", domain.SyncTypeInventory)
	require.NoError(t, err)
	defer releaseInventory()

	// Different tenant, same type.
	releaseOther, err := l.Acquire(ctx, "tenant-2", domain.SyncTypeCatalog)
	require.NoError(t, err)
	defer releaseOther()
}

func TestMemorySyncLockReleaseIsIdempotent(t *testing.T) {
	l := NewMemorySyncLock()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "tenant-1", domain.SyncTypeCatalog)
	require.NoError(t, err)
	release()
	release()

	_, err = l.Acquire(ctx, "tenant-1", domain.SyncTypeCatalog)
	assert.NoError(t, err)
}

func TestMemorySyncLockUnderContention(t *testing.T) {
	l := NewMemorySyncLock()
	ctx := context.Background()

	var wg sync.WaitGroup
	acquired := 0
	var mu sync.Mutex

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(ctx, "tenant-1", domain.SyncTypeCatalog); err == nil {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired, "exactly one concurrent caller may win the lock")
}
