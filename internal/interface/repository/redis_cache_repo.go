package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const redisCachePrefix = "portcall:cache:"

// RedisCacheRepository implements the CacheRepository interface on redis hashes
type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository creates a new redis cache repository
func NewRedisCacheRepository(client *redis.Client) repository.CacheRepository {
	return &RedisCacheRepository{
		client: client,
	}
}

func redisCacheKey(key string) string {
	return redisCachePrefix + key
}

// Get finds a cache entry by key
func (r *RedisCacheRepository) Get(ctx context.Context, key string) (*entity.CacheEntry, error) {
	fields, err := r.client.HGetAll(ctx, redisCacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fieldsToCacheEntry(key, fields)
}

// Put writes the entry, replacing any previous one for the same key
func (r *RedisCacheRepository) Put(ctx context.Context, entry *entity.CacheEntry) error {
	payload, err := encodePayload(entry.Payload)
	if err != nil {
		return err
	}

	redisKey := redisCacheKey(entry.Key)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, redisKey)
	pipe.HSet(ctx, redisKey, map[string]interface{}{
		"port":                entry.Port,
		"activityType":        entry.ActivityType,
		"yachtFlag":           entry.YachtFlag,
		"storedAtEpochMillis": entry.StoredAtEpochMillis,
		"payload":             payload,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for key
func (r *RedisCacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisCacheKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// List returns every cache entry found under the cache prefix
func (r *RedisCacheRepository) List(ctx context.Context) ([]*entity.CacheEntry, error) {
	var entries []*entity.CacheEntry

	iter := r.client.Scan(ctx, 0, redisCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()
		key := redisKey[len(redisCachePrefix):]

		fields, err := r.client.HGetAll(ctx, redisKey).Result()
		if err != nil && !isWrongType(err) {
			return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
		}
		if err == nil && len(fields) == 0 {
			// expired or deleted since the scan
			continue
		}
		entry, err := fieldsToCacheEntry(key, fields)
		if err != nil {
			stored, _ := strconv.ParseInt(fields["storedAtEpochMillis"], 10, 64)
			entry = &entity.CacheEntry{Key: key, StoredAtEpochMillis: stored, SizeBytes: len(fields["payload"])}
		}
		entries = append(entries, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cache entries: %w", err)
	}

	return entries, nil
}

// isWrongType reports a key under the cache prefix that is not a hash.
// Such keys are listed without a payload so a purge can remove them.
func isWrongType(err error) bool {
	return strings.HasPrefix(err.Error(), "WRONGTYPE")
}

func fieldsToCacheEntry(key string, fields map[string]string) (*entity.CacheEntry, error) {
	stored, err := strconv.ParseInt(fields["storedAtEpochMillis"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid storedAtEpochMillis for %s: %w", key, err)
	}
	payload, err := decodePayload(fields["payload"])
	if err != nil {
		return nil, err
	}
	return &entity.CacheEntry{
		Key:                 key,
		Port:                fields["port"],
		ActivityType:        fields["activityType"],
		YachtFlag:           fields["yachtFlag"],
		StoredAtEpochMillis: stored,
		Payload:             payload,
		SizeBytes:           len(fields["payload"]),
	}, nil
}
