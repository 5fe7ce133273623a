package store

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/model"
)

// recoveryCoordinator runs the crash recovery sequence on SchedulerStarted
// (spec.md §4.8): triggers left Acquired or Blocked by a process that died
// mid-fire are released back to Waiting, orphaned Complete triggers (and
// their non-durable jobs) are cleaned up, and every job that requested
// recovery gets its triggers' first-fire-time recomputed.
type recoveryCoordinator struct {
	cols         *collections
	blocks       blockRepository
	pausedGroups *pausedGroupRegistry
	ids          ids
	logger       *slog.Logger
}

// Recover executes the sequence. Every failure is wrapped as a
// ConfigurationFailure, matching spec.md §7's guidance that recovery
// failures should read as "Couldn't recover jobs".
func (r *recoveryCoordinator) Recover(ctx context.Context, now time.Time) error {
	stuck, err := r.findRecoverableTriggers(ctx)
	if err != nil {
		return jobstoreerr.WrapConfiguration(err, "couldn't recover jobs: loading triggers")
	}

	var inFlight, completed []model.Trigger
	for _, t := range stuck {
		if t.State == model.TriggerStateComplete {
			completed = append(completed, t)
		} else {
			inFlight = append(inFlight, t)
		}
	}

	recoveredJobs := make(map[string]struct{})
	for _, t := range inFlight {
		if err := r.releaseStuckTrigger(ctx, t); err != nil {
			return jobstoreerr.WrapConfiguration(err, "couldn't recover jobs: releasing trigger "+t.ID)
		}
		recoveredJobs[t.JobID] = struct{}{}
	}

	if err := r.blocks.ReleaseAll(ctx); err != nil {
		return jobstoreerr.WrapConfiguration(err, "couldn't recover jobs: clearing stale block state")
	}
	if err := r.clearOrphanedBlockMarkers(ctx); err != nil {
		return jobstoreerr.WrapConfiguration(err, "couldn't recover jobs: clearing orphaned block markers")
	}
	if err := r.restoreBlockedSiblings(ctx, recoveredJobs); err != nil {
		return jobstoreerr.WrapConfiguration(err, "couldn't recover jobs: restoring blocked siblings")
	}

	for _, t := range completed {
		if err := r.retireCompletedTrigger(ctx, t); err != nil {
			return jobstoreerr.WrapConfiguration(err, "couldn't recover jobs: retiring completed trigger "+t.ID)
		}
	}

	if err := r.recomputeRequestsRecoveryJobs(ctx, now); err != nil {
		return jobstoreerr.WrapConfiguration(err, "couldn't recover jobs: recomputing first-fire times")
	}

	r.logger.Info("recovery complete", "triggersReleased", len(inFlight), "triggersRetired", len(completed))
	return nil
}

// findRecoverableTriggers loads every trigger of this scheduler left in
// Acquired, Blocked or Complete: the three states a crashed instance can
// leave behind that recovery must reconcile (spec.md §4.8 step 1).
func (r *recoveryCoordinator) findRecoverableTriggers(ctx context.Context) ([]model.Trigger, error) {
	filter := bson.M{
		"scheduler": r.ids.instanceName,
		"state": bson.M{"$in": []model.TriggerState{
			model.TriggerStateAcquired, model.TriggerStateBlocked, model.TriggerStateComplete,
		}},
	}
	cur, err := r.cols.triggers.Find(ctx, filter)
	if err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	defer cur.Close(ctx)

	var out []model.Trigger
	for cur.Next(ctx) {
		var t model.Trigger
		if err := cur.Decode(&t); err != nil {
			return nil, jobstoreerr.MapMongoError(err)
		}
		out = append(out, t)
	}
	return out, cur.Err()
}

// releaseStuckTrigger transitions an Acquired or Blocked trigger back to
// Waiting (spec.md §4.8 step 2), respecting whatever pause state its
// group is currently in rather than assuming it's unpaused.
func (r *recoveryCoordinator) releaseStuckTrigger(ctx context.Context, t model.Trigger) error {
	job, err := findByID[model.Job](ctx, r.cols.jobs, t.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		_, err := deleteByID(ctx, r.cols.triggers, t.ID)
		return err
	}

	triggerGroupPaused, err := r.pausedGroups.IsTriggerGroupPaused(ctx, t.Group)
	if err != nil {
		return err
	}
	jobGroupPaused, err := r.pausedGroups.IsJobGroupPaused(ctx, job.Group)
	if err != nil {
		return err
	}
	newState := initialTriggerState(triggerGroupPaused, jobGroupPaused, false)

	update := bson.M{"$set": bson.M{
		"state":          newState,
		"fireInstanceId": "",
	}}
	_, err = casUpdate(ctx, r.cols.triggers, t.ID, t.Version, update)
	return err
}

// clearOrphanedBlockMarkers drops every persisted Block Repository entry
// for this scheduler: a process that died mid-execution left jobs marked
// blocked with nobody left to release them, so recovery starts from a
// clean slate (spec.md §4.8 step 3) and restoreBlockedSiblings re-derives
// the siblings that should come back off Blocked/PausedAndBlocked.
func (r *recoveryCoordinator) clearOrphanedBlockMarkers(ctx context.Context) error {
	_, err := r.cols.blockedJobs.DeleteMany(ctx, bson.M{"scheduler": r.ids.instanceName})
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	return nil
}

// restoreBlockedSiblings flips any sibling trigger left Blocked or
// PausedAndBlocked back to Waiting/Paused for every exclusive job whose
// in-flight trigger was just released: with that trigger reset, nothing
// is left executing the job.
func (r *recoveryCoordinator) restoreBlockedSiblings(ctx context.Context, jobIDs map[string]struct{}) error {
	for jobID := range jobIDs {
		job, err := findByID[model.Job](ctx, r.cols.jobs, jobID)
		if err != nil {
			return err
		}
		if job == nil || !job.ConcurrentExecutionDisallowed {
			continue
		}
		if _, err := r.cols.triggers.UpdateMany(ctx,
			bson.M{"jobId": jobID, "state": model.TriggerStateBlocked},
			bson.M{"$set": bson.M{"state": model.TriggerStateWaiting}, "$inc": bson.M{"version": 1}},
		); err != nil {
			return jobstoreerr.MapMongoError(err)
		}
		if _, err := r.cols.triggers.UpdateMany(ctx,
			bson.M{"jobId": jobID, "state": model.TriggerStatePausedAndBlocked},
			bson.M{"$set": bson.M{"state": model.TriggerStatePaused}, "$inc": bson.M{"version": 1}},
		); err != nil {
			return jobstoreerr.MapMongoError(err)
		}
	}
	return nil
}

// retireCompletedTrigger deletes a Complete trigger and, if its job still
// exists, is non-durable, and no other trigger references it, deletes the
// job too (spec.md §4.8 step 4: cleaning up non-durable orphan jobs).
func (r *recoveryCoordinator) retireCompletedTrigger(ctx context.Context, t model.Trigger) error {
	if _, err := deleteByID(ctx, r.cols.triggers, t.ID); err != nil {
		return err
	}

	job, err := findByID[model.Job](ctx, r.cols.jobs, t.JobID)
	if err != nil || job == nil || job.Durable {
		return err
	}
	remaining, err := r.cols.triggers.CountDocuments(ctx, bson.M{"jobId": t.JobID})
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	if remaining > 0 {
		return nil
	}
	_, err = deleteByID(ctx, r.cols.jobs, t.JobID)
	return err
}

// recomputeRequestsRecoveryJobs finds every job scheduler-wide with
// requests-recovery set and recomputes the first-fire-time of each of its
// surviving triggers as an immediate replay, independent of whether that
// job happened to have a trigger in the stuck set (spec.md §4.8 step 5).
// Calendars are opaque to the store (see model.Calendar), so "calendar
// honoring the computation" reduces to passing the existing schedule
// through unchanged; the store doesn't reinterpret exclusion days itself.
func (r *recoveryCoordinator) recomputeRequestsRecoveryJobs(ctx context.Context, now time.Time) error {
	cur, err := r.cols.jobs.Find(ctx, bson.M{
		"scheduler":        r.ids.instanceName,
		"requestsRecovery": true,
	})
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	defer cur.Close(ctx)

	var jobs []model.Job
	for cur.Next(ctx) {
		var j model.Job
		if err := cur.Decode(&j); err != nil {
			return jobstoreerr.MapMongoError(err)
		}
		jobs = append(jobs, j)
	}
	if err := cur.Err(); err != nil {
		return jobstoreerr.MapMongoError(err)
	}

	for _, job := range jobs {
		if err := r.recomputeJobTriggers(ctx, job, now); err != nil {
			return err
		}
	}
	return nil
}

func (r *recoveryCoordinator) recomputeJobTriggers(ctx context.Context, job model.Job, now time.Time) error {
	cur, err := r.cols.triggers.Find(ctx, bson.M{
		"jobId": job.ID,
		"state": bson.M{"$nin": []model.TriggerState{model.TriggerStateComplete, model.TriggerStateError}},
	})
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	defer cur.Close(ctx)

	var triggers []model.Trigger
	for cur.Next(ctx) {
		var t model.Trigger
		if err := cur.Decode(&t); err != nil {
			return jobstoreerr.MapMongoError(err)
		}
		triggers = append(triggers, t)
	}
	if err := cur.Err(); err != nil {
		return jobstoreerr.MapMongoError(err)
	}

	for _, t := range triggers {
		t.SetNextFireTime(&now)
		update := bson.M{"$set": bson.M{
			"nextFireTime":      t.NextFireTime,
			"nextFireTimeTicks": t.NextFireTimeTicks,
		}}
		if _, err := casUpdate(ctx, r.cols.triggers, t.ID, t.Version, update); err != nil {
			return err
		}
	}
	return nil
}
