package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/testutil"
)

type persistProbe struct {
	ID      string `bson:"_id"`
	Version int64  `bson:"version"`
	Value   string `bson:"value"`
}

func TestInsertNewRejectsDuplicateID(t *testing.T) {
	testutil.WithAutoDB(t, func(client *mongo.Client, dbName string) {
		ctx := context.Background()
		coll := client.Database(dbName).Collection("persist_probe")

		require.NoError(t, insertNew(ctx, coll, persistProbe{ID: "a", Value: "one"}))
		err := insertNew(ctx, coll, persistProbe{ID: "a", Value: "two"})
		require.Error(t, err)
		assert.True(t, jobstoreerr.IsAlreadyExists(err))
	})
}

func TestCasUpdateRejectsStaleVersion(t *testing.T) {
	testutil.WithAutoDB(t, func(client *mongo.Client, dbName string) {
		ctx := context.Background()
		coll := client.Database(dbName).Collection("persist_probe")
		require.NoError(t, insertNew(ctx, coll, persistProbe{ID: "b", Value: "one"}))

		ok, err := casUpdate(ctx, coll, "b", 0, bson.M{"$set": bson.M{"value": "two"}})
		require.NoError(t, err)
		assert.True(t, ok)

		// Same (now stale) expected version must lose the race.
		ok, err = casUpdate(ctx, coll, "b", 0, bson.M{"$set": bson.M{"value": "three"}})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := findByID[persistProbe](ctx, coll, "b")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "two", got.Value)
		assert.Equal(t, int64(1), got.Version)
	})
}

func TestCasDeleteRejectsStaleVersion(t *testing.T) {
	testutil.WithAutoDB(t, func(client *mongo.Client, dbName string) {
		ctx := context.Background()
		coll := client.Database(dbName).Collection("persist_probe")
		require.NoError(t, insertNew(ctx, coll, persistProbe{ID: "c", Value: "one"}))

		ok, err := casDelete(ctx, coll, "c", 5)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = casDelete(ctx, coll, "c", 0)
		require.NoError(t, err)
		assert.True(t, ok)

		exists, err := existsByID(ctx, coll, "c")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestUpsertReplaceOverwritesExisting(t *testing.T) {
	testutil.WithAutoDB(t, func(client *mongo.Client, dbName string) {
		ctx := context.Background()
		coll := client.Database(dbName).Collection("persist_probe")

		require.NoError(t, upsertReplace(ctx, coll, "d", persistProbe{ID: "d", Value: "one"}))
		require.NoError(t, upsertReplace(ctx, coll, "d", persistProbe{ID: "d", Value: "two"}))

		got, err := findByID[persistProbe](ctx, coll, "d")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "two", got.Value)
	})
}

func TestFindByIDReturnsNilForMissingDocument(t *testing.T) {
	testutil.WithAutoDB(t, func(client *mongo.Client, dbName string) {
		ctx := context.Background()
		coll := client.Database(dbName).Collection("persist_probe")

		got, err := findByID[persistProbe](ctx, coll, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
