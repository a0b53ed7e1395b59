package repository

import (
	"context"

	"portcall-service/internal/domain/entity"
)

// CacheRepository defines the backing storage of the aggregation cache
type CacheRepository interface {
	// Get returns (nil, nil) when no entry exists for key
	Get(ctx context.Context, key string) (*entity.CacheEntry, error)
	Put(ctx context.Context, entry *entity.CacheEntry) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*entity.CacheEntry, error)
}
