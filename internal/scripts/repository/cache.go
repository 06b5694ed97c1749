package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace_backend/internal/scripts/domain"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	snapshotKeyPrefix  = "booking:script:"
	defaultSnapshotTTL = 24 * time.Hour
)

// CachedSnapshots serves script versions from Redis in front of a slower
// SnapshotReader. Versions never change once written, so entries only expire
// to bound memory. Concurrent misses for the same key share one load.
type CachedSnapshots struct {
	next  SnapshotReader
	rdb   redis.Cmdable
	ttl   time.Duration
	group singleflight.Group
	log   *logger.Logger
}

type cachedSnapshot struct {
	Version int           `json:"version"`
	Steps   []domain.Step `json:"steps"`
}

// NewCachedSnapshots wraps next with a Redis read-through cache.
func NewCachedSnapshots(next SnapshotReader, rdb redis.Cmdable, ttl time.Duration, log *logger.Logger) *CachedSnapshots {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &CachedSnapshots{next: next, rdb: rdb, ttl: ttl, log: log}
}

var _ SnapshotReader = (*CachedSnapshots)(nil)

func snapshotKey(businessID uuid.UUID, version int) string {
	return fmt.Sprintf("%s%s:v%d", snapshotKeyPrefix, businessID, version)
}

// GetSnapshot returns the cached version or loads and caches it. Redis
// failures degrade to a direct read.
func (c *CachedSnapshots) GetSnapshot(ctx context.Context, businessID uuid.UUID, version int) (domain.Snapshot, error) {
	key := snapshotKey(businessID, version)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cachedSnapshot
		if decodeErr := json.Unmarshal(raw, &entry); decodeErr == nil {
			return domain.NewSnapshot(businessID, entry.Version, entry.Steps), nil
		}
		c.log.Warn("discarding undecodable script cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("script cache read failed", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		snap, loadErr := c.next.GetSnapshot(ctx, businessID, version)
		if loadErr != nil {
			return domain.Snapshot{}, loadErr
		}
		c.store(ctx, key, snap)
		return snap, nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return v.(domain.Snapshot), nil
}

func (c *CachedSnapshots) store(ctx context.Context, key string, snap domain.Snapshot) {
	payload, err := json.Marshal(cachedSnapshot{Version: snap.Version(), Steps: snap.Steps()})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("script cache write failed", "key", key, "error", err)
	}
}
