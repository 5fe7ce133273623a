package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
)

// insertNew inserts a brand-new document. A duplicate _id surfaces as
// ObjectAlreadyExists (spec.md §7): storing with replace=false when the id
// is already taken.
func insertNew(ctx context.Context, coll *mongo.Collection, doc any) error {
	_, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	return nil
}

// upsertReplace overwrites whatever document (if any) currently has this
// id. Used by the explicit replace=true administrative Store* operations;
// it intentionally does not participate in the trigger state machine's
// optimistic-concurrency protocol, since those callers are not racing a
// concurrent scheduler instance over the same document's lifecycle.
func upsertReplace(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	opts := options.Replace().SetUpsert(true)
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	return nil
}

// casUpdate applies update (a $set/$inc-style update document) only if the
// document still has expectedVersion. matched=false is the concurrency-loss
// signal and each caller decides what to do with it: the Store's retried
// operations and Fire return a ConcurrencyConflict so the Retry Wrapper
// rereads fresh state and replays the whole operation; acquisition and
// misfire reconciliation skip the trigger; Complete's state updates and
// recovery's trigger release ignore it.
func casUpdate(ctx context.Context, coll *mongo.Collection, id string, expectedVersion int64, update bson.M) (bool, error) {
	filter := bson.M{"_id": id, "version": expectedVersion}
	withVersionBump := bson.M{}
	for k, v := range update {
		if k == "$inc" {
			continue
		}
		withVersionBump[k] = v
	}
	if inc, ok := update["$inc"].(bson.M); ok {
		inc["version"] = 1
		withVersionBump["$inc"] = inc
	} else {
		withVersionBump["$inc"] = bson.M{"version": 1}
	}

	res, err := coll.UpdateOne(ctx, filter, withVersionBump)
	if err != nil {
		return false, jobstoreerr.MapMongoError(err)
	}
	return res.MatchedCount == 1, nil
}

// casDelete deletes a document only if it still has expectedVersion.
func casDelete(ctx context.Context, coll *mongo.Collection, id string, expectedVersion int64) (bool, error) {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id, "version": expectedVersion})
	if err != nil {
		return false, jobstoreerr.MapMongoError(err)
	}
	return res.DeletedCount == 1, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, jobstoreerr.MapMongoError(err)
	}
	return res.DeletedCount == 1, nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var out T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, jobstoreerr.MapMongoError(err)
	}
	return &out, nil
}

func existsByID(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, jobstoreerr.MapMongoError(err)
	}
	return n > 0, nil
}
