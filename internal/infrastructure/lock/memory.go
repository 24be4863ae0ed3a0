// Package lock provides the per-tenant, per-sync-type single-flight locks the
// orchestrator acquires before touching the provider.
package lock

import (
	"context"
	"sync"

	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/ports"
)

// MemorySyncLock serializes syncs within a single process. Locks are scoped
// to tenant+type, so one tenant's catalog sync never blocks another tenant,
// nor that tenant's inventory sync.
type MemorySyncLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemorySyncLock creates an in-process sync lock.
func NewMemorySyncLock() *MemorySyncLock {
	return &MemorySyncLock{held: make(map[string]struct{})}
}

var _ ports.SyncLock = (*MemorySyncLock)(nil)

// Acquire takes the lock for tenant+type or returns ErrSyncInProgress.
func (l *MemorySyncLock) Acquire(_ context.Context, tenantID string, syncType domain.SyncType) (func(), error) {
	key := tenantID + ":" + string(syncType)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, inFlight := l.held[key]; inFlight {
		return nil, domain.ErrSyncInProgress
	}
	l.held[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return release, nil
}
