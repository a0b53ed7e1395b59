package repository

import (
	"context"
	"testing"
	"time"

	"portcall-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// newMockMongoRepo answers the index creation done by the constructor
// and clears the recorded events
func newMockMongoRepo(mt *mtest.T) *MongoCacheRepository {
	mt.AddMockResponses(mtest.CreateSuccessResponse())
	repo := NewMongoCacheRepository(mt.DB).(*MongoCacheRepository)
	mt.ClearEvents()
	return repo
}

func cacheNamespace(mt *mtest.T) string {
	return mt.DB.Name() + ".port_cache"
}

func storedDocument(mt *mtest.T, entry *entity.CacheEntry) bson.D {
	payload, err := encodePayload(entry.Payload)
	require.NoError(mt, err)
	return bson.D{
		{Key: "_id", Value: entry.Key},
		{Key: "port", Value: entry.Port},
		{Key: "activityType", Value: entry.ActivityType},
		{Key: "yachtFlag", Value: entry.YachtFlag},
		{Key: "storedAtEpochMillis", Value: entry.StoredAtEpochMillis},
		{Key: "payload", Value: payload},
	}
}

func TestMongoCacheRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get missing returns nil", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cacheNamespace(mt), mtest.FirstBatch))

		entry, err := repo.Get(ctx, "monaco_private_malta")
		require.NoError(mt, err)
		assert.Nil(mt, entry)
	})

	mt.Run("get decodes stored entry", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		want := sampleEntry("monaco_private_malta", time.UnixMilli(7000))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cacheNamespace(mt), mtest.FirstBatch, storedDocument(mt, want)))

		got, err := repo.Get(ctx, want.Key)
		require.NoError(mt, err)
		require.NotNil(mt, got)
		assert.Equal(mt, "Monaco", got.Port)
		assert.Equal(mt, int64(7000), got.StoredAtEpochMillis)
		require.NotNil(mt, got.Payload)
		assert.Equal(mt, entity.RecommendationGo, got.Payload.Decision.Recommendation)
		assert.Positive(mt, got.SizeBytes)
	})

	mt.Run("get reports server errors", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11600,
			Name:    "InterruptedAtShutdown",
			Message: "interrupted at shutdown",
		}))

		entry, err := repo.Get(ctx, "monaco_private_malta")
		assert.Error(mt, err)
		assert.Nil(mt, entry)
	})

	mt.Run("put upserts by key", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		require.NoError(mt, repo.Put(ctx, sampleEntry("monaco_private_malta", time.UnixMilli(1000))))
		require.NoError(mt, repo.Put(ctx, sampleEntry("monaco_private_malta", time.UnixMilli(2000))))

		for _, storedAt := range []int64{1000, 2000} {
			evt := mt.GetStartedEvent()
			require.NotNil(mt, evt)
			assert.Equal(mt, "update", evt.CommandName)

			upsert, ok := evt.Command.Lookup("updates", "0", "upsert").BooleanOK()
			assert.True(mt, ok && upsert)
			id, ok := evt.Command.Lookup("updates", "0", "q", "_id").StringValueOK()
			assert.True(mt, ok)
			assert.Equal(mt, "monaco_private_malta", id)
			stored, ok := evt.Command.Lookup("updates", "0", "u", "storedAtEpochMillis").Int64OK()
			assert.True(mt, ok)
			assert.Equal(mt, storedAt, stored)
		}
	})

	mt.Run("put reports write errors", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "document failed validation",
		}))

		err := repo.Put(ctx, sampleEntry("monaco_private_malta", time.UnixMilli(1000)))
		assert.Error(mt, err)
	})

	mt.Run("delete by key", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Delete(ctx, "monaco_private_malta"))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "delete", evt.CommandName)
	})

	mt.Run("list keeps corrupt payloads for purge", func(mt *mtest.T) {
		repo := newMockMongoRepo(mt)
		good := storedDocument(mt, sampleEntry("monaco_private_malta", time.UnixMilli(3000)))
		corrupt := bson.D{
			{Key: "_id", Value: "broken_private_malta"},
			{Key: "storedAtEpochMillis", Value: int64(5000)},
			{Key: "payload", Value: "{not json"},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cacheNamespace(mt), mtest.FirstBatch, good, corrupt))

		entries, err := repo.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, entries, 2)

		assert.Equal(mt, "monaco_private_malta", entries[0].Key)
		assert.NotNil(mt, entries[0].Payload)

		assert.Equal(mt, "broken_private_malta", entries[1].Key)
		assert.Equal(mt, int64(5000), entries[1].StoredAtEpochMillis)
		assert.Nil(mt, entries[1].Payload)
	})
}
