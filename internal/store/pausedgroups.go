package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/model"
)

// pausedGroupRegistry persists paused trigger-group and job-group markers
// and answers the O(1) existence checks probed on every trigger creation
// and state change (spec.md §4.3).
type pausedGroupRegistry struct {
	triggerGroups *mongo.Collection
	jobGroups     *mongo.Collection
	cache         *pausedGroupCache
	instanceName  string
}

func (r *pausedGroupRegistry) IsTriggerGroupPaused(ctx context.Context, group string) (bool, error) {
	id := model.PausedTriggerGroupID(r.instanceName, group)
	return r.exists(ctx, r.triggerGroups, id)
}

func (r *pausedGroupRegistry) IsJobGroupPaused(ctx context.Context, group string) (bool, error) {
	id := model.PausedJobGroupID(r.instanceName, group)
	return r.exists(ctx, r.jobGroups, id)
}

func (r *pausedGroupRegistry) exists(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	if cached, found := r.cache.Get(ctx, id); found {
		return cached, nil
	}
	found, err := existsByID(ctx, coll, id)
	if err != nil {
		return false, err
	}
	r.cache.Set(ctx, id, found)
	return found, nil
}

func (r *pausedGroupRegistry) PauseTriggerGroup(ctx context.Context, group string) error {
	id := model.PausedTriggerGroupID(r.instanceName, group)
	doc := model.PausedTriggerGroup{ID: id, Scheduler: r.instanceName, Group: group}
	if err := upsertReplace(ctx, r.triggerGroups, id, doc); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, id)
	return nil
}

func (r *pausedGroupRegistry) ResumeTriggerGroup(ctx context.Context, group string) error {
	id := model.PausedTriggerGroupID(r.instanceName, group)
	if _, err := deleteByID(ctx, r.triggerGroups, id); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, id)
	return nil
}

func (r *pausedGroupRegistry) PauseJobGroup(ctx context.Context, group string) error {
	id := model.PausedJobGroupID(r.instanceName, group)
	doc := model.PausedJobGroup{ID: id, Scheduler: r.instanceName, Group: group}
	if err := upsertReplace(ctx, r.jobGroups, id, doc); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, id)
	return nil
}

func (r *pausedGroupRegistry) ResumeJobGroup(ctx context.Context, group string) error {
	id := model.PausedJobGroupID(r.instanceName, group)
	if _, err := deleteByID(ctx, r.jobGroups, id); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, id)
	return nil
}

// ListPausedTriggerGroups returns every currently paused trigger-group name
// for this scheduler instance.
func (r *pausedGroupRegistry) ListPausedTriggerGroups(ctx context.Context) ([]string, error) {
	cur, err := r.triggerGroups.Find(ctx, bson.M{"scheduler": r.instanceName})
	if err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc model.PausedTriggerGroup
		if decodeErr := cur.Decode(&doc); decodeErr != nil {
			return nil, jobstoreerr.MapMongoError(decodeErr)
		}
		out = append(out, doc.Group)
	}
	if err := cur.Err(); err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	return out, nil
}

// initialTriggerState resolves the state a newly created trigger should start
// in: PausedAndBlocked when its trigger or job group is paused and its job is
// blocked, otherwise Paused, otherwise Blocked, otherwise Waiting
// (spec.md §4.3).
func initialTriggerState(triggerGroupPaused, jobGroupPaused, jobBlocked bool) model.TriggerState {
	paused := triggerGroupPaused || jobGroupPaused
	switch {
	case paused && jobBlocked:
		return model.TriggerStatePausedAndBlocked
	case paused:
		return model.TriggerStatePaused
	case jobBlocked:
		return model.TriggerStateBlocked
	default:
		return model.TriggerStateWaiting
	}
}
