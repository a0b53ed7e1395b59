package usecase

import (
	"context"
	"fmt"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"
	"portcall-service/pkg/logger"
	"portcall-service/pkg/metrics"
)

// CacheStats summarises the stored entries
type CacheStats struct {
	TotalEntries   int            `json:"total_entries"`
	ValidEntries   int            `json:"valid_entries"`
	ExpiredEntries int            `json:"expired_entries"`
	TotalSizeBytes int            `json:"total_size_bytes"`
	TTLHours       float64        `json:"ttl_hours"`
	Entries        []CacheSummary `json:"entries"`
}

// CacheSummary describes one stored entry
type CacheSummary struct {
	Key      string  `json:"key"`
	Port     string  `json:"port"`
	AgeHours float64 `json:"age_hours"`
	Expired  bool    `json:"expired"`
	Size     int     `json:"size_bytes"`
}

// CacheStore keeps aggregated documents for a fixed TTL
type CacheStore struct {
	repo    repository.CacheRepository
	ttl     time.Duration
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewCacheStore creates a new cache store
func NewCacheStore(
	repo repository.CacheRepository,
	ttl time.Duration,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *CacheStore {
	return &CacheStore{
		repo:    repo,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// TTL returns the configured time to live
func (c *CacheStore) TTL() time.Duration {
	return c.ttl
}

// Lookup returns a served copy of a fresh entry for q.
// Expired entries are deleted on read. Backend errors count as a miss.
func (c *CacheStore) Lookup(ctx context.Context, q entity.Query) (*entity.AggregatedDocument, bool) {
	key := q.CacheKey()

	entry, err := c.repo.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed, treating as miss", "key", key, "error", err)
		c.metrics.ErrorsCount.WithLabelValues("cache_read").Inc()
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	if entry == nil || entry.Payload == nil {
		c.logger.Debug("Cache miss", "key", key)
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	now := c.now()
	age := entry.Age(now)
	if age > c.ttl {
		c.logger.Info("Cache entry expired", "key", key, "ageHours", age.Hours())
		if err := c.repo.Delete(ctx, key); err != nil {
			c.logger.Warn("Failed to delete expired cache entry", "key", key, "error", err)
		} else {
			c.metrics.CacheEvictions.Inc()
		}
		c.metrics.CacheLookups.WithLabelValues("expired").Inc()
		return nil, false
	}

	doc := entry.Payload.Clone()
	doc.Metadata.GeneratedAt = now.UTC().Format(time.RFC3339)
	doc.Metadata.CacheUsed = true
	doc.Metadata.CacheAgeHours = ageHours(age)

	c.logger.Info("Cache hit", "key", key, "ageHours", doc.Metadata.CacheAgeHours)
	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return doc, true
}

// Store writes doc for q, replacing any previous entry. Failures are logged and swallowed.
func (c *CacheStore) Store(ctx context.Context, q entity.Query, doc *entity.AggregatedDocument) {
	if doc == nil {
		return
	}
	key := q.CacheKey()

	entry := &entity.CacheEntry{
		Key:                 key,
		Port:                q.Port,
		ActivityType:        q.ActivityType,
		YachtFlag:           q.YachtFlag,
		StoredAtEpochMillis: c.now().UnixMilli(),
		Payload:             doc.Clone(),
	}

	if err := c.repo.Put(ctx, entry); err != nil {
		c.logger.Error("Failed to store cache entry", "key", key, "error", err)
		c.metrics.ErrorsCount.WithLabelValues("cache_write").Inc()
		return
	}
	c.logger.Info("Cache entry stored", "key", key)
}

// Invalidate deletes the entry for q
func (c *CacheStore) Invalidate(ctx context.Context, q entity.Query) error {
	key := q.CacheKey()
	if err := c.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", key, err)
	}
	c.logger.Info("Cache entry invalidated", "key", key)
	return nil
}

// PurgeExpired deletes every entry older than the TTL and returns how many were removed
func (c *CacheStore) PurgeExpired(ctx context.Context) (int, error) {
	entries, err := c.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}

	now := c.now()
	removed := 0
	for _, entry := range entries {
		if entry.Age(now) <= c.ttl {
			continue
		}
		if err := c.repo.Delete(ctx, entry.Key); err != nil {
			c.logger.Warn("Failed to purge cache entry", "key", entry.Key, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		c.metrics.CacheEvictions.Add(float64(removed))
		c.logger.Info("Expired cache entries purged", "count", removed)
	}
	return removed, nil
}

// Stats reports entry counts, ages and sizes
func (c *CacheStore) Stats(ctx context.Context) (*CacheStats, error) {
	entries, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}

	now := c.now()
	stats := &CacheStats{
		TTLHours: c.ttl.Hours(),
		Entries:  make([]CacheSummary, 0, len(entries)),
	}
	for _, entry := range entries {
		age := entry.Age(now)
		expired := age > c.ttl

		stats.TotalEntries++
		stats.TotalSizeBytes += entry.SizeBytes
		if expired {
			stats.ExpiredEntries++
		} else {
			stats.ValidEntries++
		}

		stats.Entries = append(stats.Entries, CacheSummary{
			Key:      entry.Key,
			Port:     entry.Port,
			AgeHours: float64(int(age.Hours()*10)) / 10,
			Expired:  expired,
			Size:     entry.SizeBytes,
		})
	}
	return stats, nil
}

// StartSweeper purges expired entries every interval until ctx is done
func (c *CacheStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.PurgeExpired(ctx); err != nil {
				c.logger.Error("Cache sweep failed", "error", err)
				c.metrics.ErrorsCount.WithLabelValues("cache_sweep").Inc()
			}
		case <-ctx.Done():
			c.logger.Info("Cache sweeper stopped")
			return
		}
	}
}

// ageHours floors the age to whole hours
func ageHours(age time.Duration) int {
	if age < 0 {
		return 0
	}
	return int(age / time.Hour)
}
