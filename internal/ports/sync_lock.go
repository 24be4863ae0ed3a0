package ports

import (
	"context"

	"commerce-core-square-layer/internal/domain"
)

// SyncLock serializes sync runs so at most one runs per tenant and sync type.
// Acquire returns domain.ErrSyncInProgress when the lock is already held; the
// returned release function must be called on every exit path.
type SyncLock interface {
	Acquire(ctx context.Context, tenantID string, syncType domain.SyncType) (release func(), err error)
}
