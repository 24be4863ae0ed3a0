package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/ports"
)

// RedisSyncLock serializes syncs across processes using SET NX with a TTL.
// The TTL is a safety valve: a crashed process loses its lock once the TTL
// lapses instead of wedging the tenant forever.
type RedisSyncLock struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisSyncLock creates a Redis-backed sync lock. The TTL should exceed
// the orchestrator's run timeout.
func NewRedisSyncLock(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisSyncLock {
	return &RedisSyncLock{client: client, ttl: ttl, logger: logger}
}

var _ ports.SyncLock = (*RedisSyncLock)(nil)

// Acquire takes the distributed lock for tenant+type or returns
// ErrSyncInProgress when another process holds it.
func (l *RedisSyncLock) Acquire(ctx context.Context, tenantID string, syncType domain.SyncType) (func(), error) {
	key := fmt.Sprintf("sync-lock:%s:%s", tenantID, syncType)

	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSyncInProgress
	}

	release := func() {
		// Release must work even when the run's context was cancelled.
		if err := l.client.Del(context.Background(), key).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("Failed to release sync lock, TTL will reclaim it")
		}
	}
	return release, nil
}
