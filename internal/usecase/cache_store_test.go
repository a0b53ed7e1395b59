package usecase

import (
	"context"
	"testing"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheStore(repo *memCacheRepo, now *time.Time) *CacheStore {
	store := NewCacheStore(repo, 7*24*time.Hour, logger.NewNopLogger(), newTestMetrics())
	store.now = func() time.Time { return *now }
	return store
}

func sampleDocument(q entity.Query) *entity.AggregatedDocument {
	doc := BuildSafeDocument(q, SafeStageSynthesis, fixedNow)
	doc.Decision.Recommendation = entity.RecommendationConditional
	doc.Metadata.GeneratedAt = "2026-05-01T10:00:00Z"
	return doc
}

func TestCacheStore_MissThenHit(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)
	ctx := context.Background()
	q := gibraltarQuery()

	_, ok := store.Lookup(ctx, q)
	assert.False(t, ok)

	store.Store(ctx, q, sampleDocument(q))
	require.Equal(t, 1, repo.count())

	now = fixedNow.Add(25*time.Hour + 50*time.Minute)
	doc, ok := store.Lookup(ctx, q)
	require.True(t, ok)
	assert.True(t, doc.Metadata.CacheUsed)
	assert.Equal(t, 25, doc.Metadata.CacheAgeHours)
	assert.Equal(t, now.UTC().Format(time.RFC3339), doc.Metadata.GeneratedAt)
	assert.Equal(t, entity.RecommendationConditional, doc.Decision.Recommendation)

	stored, err := repo.Get(ctx, q.CacheKey())
	require.NoError(t, err)
	assert.False(t, stored.Payload.Metadata.CacheUsed)
	assert.Equal(t, "2026-05-01T10:00:00Z", stored.Payload.Metadata.GeneratedAt)
}

func TestCacheStore_KeyNormalization(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)
	ctx := context.Background()

	q1 := entity.Query{Port: "Monaco", ArrivalDate: "2026-07-01", ActivityType: "Private", YachtFlag: "Malta"}
	q2 := entity.Query{Port: " monaco ", ArrivalDate: "2026-08-15", ActivityType: "private", YachtFlag: "MALTA "}

	store.Store(ctx, q1, sampleDocument(q1))

	_, ok := store.Lookup(ctx, q2)
	assert.True(t, ok)
	assert.Equal(t, 1, repo.count())
}

func TestCacheStore_ExpiredEntryIsDeleted(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)
	ctx := context.Background()
	q := gibraltarQuery()

	store.Store(ctx, q, sampleDocument(q))

	now = fixedNow.Add(7*24*time.Hour + time.Minute)
	_, ok := store.Lookup(ctx, q)
	assert.False(t, ok)
	assert.Equal(t, 0, repo.count())
}

func TestCacheStore_EntryAtExactTTLIsFresh(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)
	ctx := context.Background()
	q := gibraltarQuery()

	store.Store(ctx, q, sampleDocument(q))

	now = fixedNow.Add(7 * 24 * time.Hour)
	doc, ok := store.Lookup(ctx, q)
	require.True(t, ok)
	assert.Equal(t, 168, doc.Metadata.CacheAgeHours)
}

func TestCacheStore_ReadErrorIsMiss(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)
	repo.getErr = errBackendDown

	doc, ok := store.Lookup(context.Background(), gibraltarQuery())
	assert.False(t, ok)
	assert.Nil(t, doc)
}

func TestCacheStore_WriteErrorIsSwallowed(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)
	repo.putErr = errBackendDown
	q := gibraltarQuery()

	assert.NotPanics(t, func() { store.Store(context.Background(), q, sampleDocument(q)) })
	assert.Equal(t, 0, repo.count())
}

func TestCacheStore_StoreOverwrites(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)
	ctx := context.Background()
	q := gibraltarQuery()

	store.Store(ctx, q, sampleDocument(q))

	now = fixedNow.Add(2 * time.Hour)
	second := sampleDocument(q)
	second.Decision.Recommendation = entity.RecommendationGo
	store.Store(ctx, q, second)

	doc, ok := store.Lookup(ctx, q)
	require.True(t, ok)
	assert.Equal(t, entity.RecommendationGo, doc.Decision.Recommendation)
	assert.Equal(t, 0, doc.Metadata.CacheAgeHours)
}

func TestCacheStore_InvalidatePurgeAndStats(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)
	ctx := context.Background()

	old := entity.Query{Port: "Antibes", ActivityType: "private", YachtFlag: "UK"}
	fresh := entity.Query{Port: "Monaco", ActivityType: "charter", YachtFlag: "Malta"}
	gone := gibraltarQuery()

	store.Store(ctx, old, sampleDocument(old))
	now = fixedNow.Add(8 * 24 * time.Hour)
	store.Store(ctx, fresh, sampleDocument(fresh))
	store.Store(ctx, gone, sampleDocument(gone))

	require.NoError(t, store.Invalidate(ctx, gone))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ValidEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
	assert.Equal(t, 168.0, stats.TTLHours)

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEntries)
	require.Len(t, stats.Entries, 1)
	assert.Equal(t, fresh.CacheKey(), stats.Entries[0].Key)
}

func TestCacheStore_SweeperStopsOnCancel(t *testing.T) {
	repo := newMemCacheRepo()
	now := fixedNow
	store := newTestCacheStore(repo, &now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.StartSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
