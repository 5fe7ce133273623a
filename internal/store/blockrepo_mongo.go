package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/model"
)

// mongoBlockRepository is the clustered Block Repository variant: one
// BlockedJob document per (scheduler, jobId), visible to every scheduler
// instance sharing the database (spec.md §4.3).
type mongoBlockRepository struct {
	coll         *mongo.Collection
	instanceName string
}

var _ blockRepository = (*mongoBlockRepository)(nil)

func (r *mongoBlockRepository) Block(ctx context.Context, jobID string) error {
	doc := model.BlockedJob{
		ID:        model.BlockedJobID(r.instanceName, jobID),
		Scheduler: r.instanceName,
		JobID:     jobID,
	}
	err := upsertReplace(ctx, r.coll, doc.ID, doc)
	if err != nil {
		return err
	}
	return nil
}

func (r *mongoBlockRepository) Release(ctx context.Context, jobID string) error {
	_, err := deleteByID(ctx, r.coll, model.BlockedJobID(r.instanceName, jobID))
	return err
}

func (r *mongoBlockRepository) ReleaseAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"scheduler": r.instanceName})
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	return nil
}

func (r *mongoBlockRepository) IsBlocked(ctx context.Context, jobID string) (bool, error) {
	return existsByID(ctx, r.coll, model.BlockedJobID(r.instanceName, jobID))
}

func (r *mongoBlockRepository) ListBlocked(ctx context.Context) ([]string, error) {
	cur, err := r.coll.Find(ctx, bson.M{"scheduler": r.instanceName})
	if err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc model.BlockedJob
		if decodeErr := cur.Decode(&doc); decodeErr != nil {
			return nil, jobstoreerr.MapMongoError(decodeErr)
		}
		out = append(out, doc.JobID)
	}
	if err := cur.Err(); err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	return out, nil
}
