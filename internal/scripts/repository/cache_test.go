package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marketplace_backend/internal/scripts/domain"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type countingSnapshots struct {
	calls atomic.Int32
	delay time.Duration
	steps []domain.Step
}

func (c *countingSnapshots) GetSnapshot(_ context.Context, businessID uuid.UUID, version int) (domain.Snapshot, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.steps == nil {
		return domain.Snapshot{}, apperr.NotFound("script version not found")
	}
	return domain.NewSnapshot(businessID, version, c.steps), nil
}

func newCache(t *testing.T, next SnapshotReader) (*CachedSnapshots, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCachedSnapshots(next, rdb, time.Minute, logger.Discard()), mr
}

func TestCachedSnapshotsReadThrough(t *testing.T) {
	source := &countingSnapshots{steps: []domain.Step{{ID: "a", Kind: domain.KindText, Prompt: "A?"}}}
	cache, mr := newCache(t, source)
	ctx := context.Background()
	businessID := uuid.New()

	first, err := cache.GetSnapshot(ctx, businessID, 2)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := cache.GetSnapshot(ctx, businessID, 2)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	if source.calls.Load() != 1 {
		t.Fatalf("expected one source read, got %d", source.calls.Load())
	}
	if second.Version() != 2 || second.Len() != first.Len() {
		t.Fatalf("cached snapshot mismatch: %d/%d", second.Version(), second.Len())
	}
	if !mr.Exists(snapshotKey(businessID, 2)) {
		t.Fatal("expected key to be written")
	}
	if ttl := mr.TTL(snapshotKey(businessID, 2)); ttl != time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}

func TestCachedSnapshotsCollapsesConcurrentMisses(t *testing.T) {
	source := &countingSnapshots{
		delay: 50 * time.Millisecond,
		steps: []domain.Step{{ID: "a", Kind: domain.KindText, Prompt: "A?"}},
	}
	cache, _ := newCache(t, source)
	businessID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetSnapshot(context.Background(), businessID, 1); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()

	if source.calls.Load() != 1 {
		t.Fatalf("expected a single shared load, got %d", source.calls.Load())
	}
}

func TestCachedSnapshotsDoesNotCacheMisses(t *testing.T) {
	source := &countingSnapshots{}
	cache, mr := newCache(t, source)
	businessID := uuid.New()

	_, err := cache.GetSnapshot(context.Background(), businessID, 9)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if mr.Exists(snapshotKey(businessID, 9)) {
		t.Fatal("missing versions must not be cached")
	}
}

func TestCachedSnapshotsFallsBackWhenRedisDown(t *testing.T) {
	source := &countingSnapshots{steps: []domain.Step{{ID: "a", Kind: domain.KindText, Prompt: "A?"}}}
	cache, mr := newCache(t, source)
	mr.Close()

	snap, err := cache.GetSnapshot(context.Background(), uuid.New(), 1)
	if err != nil {
		t.Fatalf("expected fallback read, got %v", err)
	}
	if snap.Len() != 1 {
		t.Fatalf("unexpected snapshot length %d", snap.Len())
	}
}
