package repository

import (
	"context"
	"fmt"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCacheRepository implements the CacheRepository interface
type MongoCacheRepository struct {
	collection *mongo.Collection
}

// cacheDocument is the stored form of a cache entry; the payload is kept as JSON text
type cacheDocument struct {
	Key                 string `bson:"_id"`
	Port                string `bson:"port"`
	ActivityType        string `bson:"activityType"`
	YachtFlag           string `bson:"yachtFlag"`
	StoredAtEpochMillis int64  `bson:"storedAtEpochMillis"`
	Payload             string `bson:"payload"`
}

// NewMongoCacheRepository creates a new MongoDB cache repository
func NewMongoCacheRepository(db *mongo.Database) repository.CacheRepository {
	collection := db.Collection("port_cache")

	// Index on storage time for expiry scans
	storedAtIndex := mongo.IndexModel{
		Keys: bson.M{"storedAtEpochMillis": 1},
	}
	collection.Indexes().CreateOne(context.Background(), storedAtIndex)

	return &MongoCacheRepository{
		collection: collection,
	}
}

// Get finds a cache entry by key
func (r *MongoCacheRepository) Get(ctx context.Context, key string) (*entity.CacheEntry, error) {
	var doc cacheDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return toCacheEntry(&doc)
}

// Put writes the entry, replacing any previous one for the same key
func (r *MongoCacheRepository) Put(ctx context.Context, entry *entity.CacheEntry) error {
	payload, err := encodePayload(entry.Payload)
	if err != nil {
		return err
	}

	doc := cacheDocument{
		Key:                 entry.Key,
		Port:                entry.Port,
		ActivityType:        entry.ActivityType,
		YachtFlag:           entry.YachtFlag,
		StoredAtEpochMillis: entry.StoredAtEpochMillis,
		Payload:             payload,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.Key}, doc, opts); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for key; deleting a missing key is not an error
func (r *MongoCacheRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// List returns every cache entry, oldest first
func (r *MongoCacheRepository) List(ctx context.Context) ([]*entity.CacheEntry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "storedAtEpochMillis", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*entity.CacheEntry
	for cursor.Next(ctx) {
		var doc cacheDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		entry, err := toCacheEntry(&doc)
		if err != nil {
			// Unreadable payloads are listed without a payload so they can still be purged
			entry = &entity.CacheEntry{Key: doc.Key, StoredAtEpochMillis: doc.StoredAtEpochMillis, SizeBytes: len(doc.Payload)}
		}
		entries = append(entries, entry)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func toCacheEntry(doc *cacheDocument) (*entity.CacheEntry, error) {
	payload, err := decodePayload(doc.Payload)
	if err != nil {
		return nil, err
	}
	return &entity.CacheEntry{
		Key:                 doc.Key,
		Port:                doc.Port,
		ActivityType:        doc.ActivityType,
		YachtFlag:           doc.YachtFlag,
		StoredAtEpochMillis: doc.StoredAtEpochMillis,
		Payload:             payload,
		SizeBytes:           len(doc.Payload),
	}, nil
}
