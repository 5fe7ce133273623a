package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/model"
)

// fireProtocol implements the Fire & Complete Protocol (spec.md §4.7):
// moving an Acquired trigger into Executing, and later reconciling the
// runtime's completion instruction back into the trigger/job state.
type fireProtocol struct {
	cols   *collections
	blocks blockRepository
}

// Fire reloads a trigger's job and block status (spec.md §4.7's "job
// blocked" / "job deleted" outcomes, each returned as its own FireOutcome
// rather than a silent drop), advances its schedule the same way a
// successful fire does (`Triggered(calendar)`), transitions it to
// Executing, and computes the bundle the runtime needs to actually invoke
// the job. A lost CAS is reported as a ConcurrencyConflict so the Retry
// Wrapper replays the call; any non-Fired outcome carries a nil bundle and
// a nil error, since it isn't a failure.
func (p *fireProtocol) Fire(ctx context.Context, t model.Trigger, now time.Time) (model.FireOutcome, *model.FiredTriggerBundle, error) {
	job, err := findByID[model.Job](ctx, p.cols.jobs, t.JobID)
	if err != nil {
		return "", nil, err
	}
	if job == nil {
		if err := p.blocks.Release(ctx, t.JobID); err != nil {
			return "", nil, err
		}
		return model.FireOutcomeJobDeleted, nil, nil
	}
	blocked, err := p.blocks.IsBlocked(ctx, job.ID)
	if err != nil {
		return "", nil, err
	}
	if blocked {
		return model.FireOutcomeJobBlocked, nil, nil
	}

	var cal *model.Calendar
	if t.CalendarName != nil {
		calID := ids{instanceName: t.Scheduler}.calendar(*t.CalendarName)
		cal, err = findByID[model.Calendar](ctx, p.cols.calendars, calID)
		if err != nil {
			return "", nil, err
		}
	}

	previous := t.NextFireTime
	scheduledFireTime := int64(0)
	if previous != nil {
		scheduledFireTime = previous.UnixNano()
	}
	next, err := advanceSchedule(&t, now)
	if err != nil {
		return "", nil, jobstoreerr.WrapConfiguration(err, "couldn't advance trigger's schedule on fire")
	}
	t.PreviousFireTime = previous
	t.SetNextFireTime(next)

	update := bson.M{"$set": bson.M{
		"state":             model.TriggerStateExecuting,
		"previousFireTime":  t.PreviousFireTime,
		"nextFireTime":      t.NextFireTime,
		"nextFireTimeTicks": t.NextFireTimeTicks,
	}}
	ok, err := casUpdate(ctx, p.cols.triggers, t.ID, t.Version, update)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, jobstoreerr.Concurrencyf("trigger %s changed concurrently", t.ID)
	}

	bundle := &model.FiredTriggerBundle{
		Job:      *job,
		Trigger:  t,
		Calendar: cal,
		FireTime: now.UnixNano(),
	}
	if t.PreviousFireTime != nil {
		ticks := t.PreviousFireTime.UnixNano()
		bundle.PreviousFireTime = &ticks
	}
	if t.NextFireTime != nil {
		bundle.NextFireTime = new(int64)
		*bundle.NextFireTime = t.NextFireTimeTicks
	}
	bundle.ScheduledFireTime = scheduledFireTime

	if job.ConcurrentExecutionDisallowed {
		if err := p.blocks.Block(ctx, job.ID); err != nil {
			return "", nil, err
		}
		if _, err := p.cols.triggers.UpdateMany(ctx,
			bson.M{"jobId": job.ID, "state": model.TriggerStateWaiting},
			bson.M{"$set": bson.M{"state": model.TriggerStateBlocked}, "$inc": bson.M{"version": 1}},
		); err != nil {
			return "", nil, jobstoreerr.MapMongoError(err)
		}
		if _, err := p.cols.triggers.UpdateMany(ctx,
			bson.M{"jobId": job.ID, "state": model.TriggerStatePaused},
			bson.M{"$set": bson.M{"state": model.TriggerStatePausedAndBlocked}, "$inc": bson.M{"version": 1}},
		); err != nil {
			return "", nil, jobstoreerr.MapMongoError(err)
		}
	}

	return model.FireOutcomeFired, bundle, nil
}

// Complete applies the runtime's completion instruction for a fired
// trigger (spec.md §4.7): unconditionally releasing any block the job
// held, persisting the runtime's in-memory job data if the job asked for
// that, and processing the instruction. inMemory is the runtime's own
// trigger object, consulted only for the DeleteTrigger no-future-fire
// check; t is the freshly reloaded stored trigger every mutation applies
// to. Returns whether the caller should signal a scheduling change.
func (p *fireProtocol) Complete(ctx context.Context, t, inMemory model.Trigger, jobDetail model.Job, instruction model.CompletionInstruction) (bool, error) {
	job, err := findByID[model.Job](ctx, p.cols.jobs, t.JobID)
	if err != nil {
		return false, err
	}

	if job != nil {
		if err := p.unblockJob(ctx, job.ID); err != nil {
			return false, err
		}
		if job.PersistJobDataAfterExecution {
			if err := p.persistJobData(ctx, job.ID, jobDetail.Data); err != nil {
				return false, err
			}
		}
	}

	switch instruction {
	case model.InstructionNoInstruction, model.InstructionReExecuteJob:
		if err := p.setState(ctx, t, model.TriggerStateWaiting); err != nil {
			return false, err
		}
		return false, nil
	case model.InstructionDeleteTrigger:
		signal := !(inMemory.NextFireTime == nil && t.NextFireTime == nil)
		if _, err := deleteByID(ctx, p.cols.triggers, t.ID); err != nil {
			return false, err
		}
		if err := p.deleteOrphanedJob(ctx, t.JobID); err != nil {
			return false, err
		}
		return signal, nil
	case model.InstructionSetTriggerComplete:
		if err := p.setState(ctx, t, model.TriggerStateComplete); err != nil {
			return false, err
		}
		return true, nil
	case model.InstructionSetTriggerError:
		if err := p.setState(ctx, t, model.TriggerStateError); err != nil {
			return false, err
		}
		return true, nil
	case model.InstructionSetAllJobTriggersComplete:
		if err := p.setAllJobTriggersState(ctx, t.JobID, model.TriggerStateComplete); err != nil {
			return false, err
		}
		return true, nil
	case model.InstructionSetAllJobTriggersError:
		if err := p.setAllJobTriggersState(ctx, t.JobID, model.TriggerStateError); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, jobstoreerr.Unreachablef("unknown completion instruction %v for trigger %s", instruction, t.ID)
	}
}

func (p *fireProtocol) persistJobData(ctx context.Context, jobID string, data map[string]any) error {
	_, err := p.cols.jobs.UpdateOne(ctx,
		bson.M{"_id": jobID},
		bson.M{"$set": bson.M{"data": data}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	return nil
}

// deleteOrphanedJob removes a job once its last trigger has just been
// deleted, provided it still exists and isn't durable (spec.md §4.7's
// delete-cascade, shared by both DeleteTrigger branches).
func (p *fireProtocol) deleteOrphanedJob(ctx context.Context, jobID string) error {
	job, err := findByID[model.Job](ctx, p.cols.jobs, jobID)
	if err != nil || job == nil || job.Durable {
		return err
	}
	remaining, err := p.cols.triggers.CountDocuments(ctx, bson.M{"jobId": jobID})
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	if remaining > 0 {
		return nil
	}
	_, err = deleteByID(ctx, p.cols.jobs, jobID)
	return err
}

func (p *fireProtocol) setState(ctx context.Context, t model.Trigger, state model.TriggerState) error {
	update := bson.M{"$set": bson.M{"state": state}}
	_, err := casUpdate(ctx, p.cols.triggers, t.ID, t.Version, update)
	return err
}

func (p *fireProtocol) setAllJobTriggersState(ctx context.Context, jobID string, state model.TriggerState) error {
	_, err := p.cols.triggers.UpdateMany(ctx,
		bson.M{"jobId": jobID},
		bson.M{"$set": bson.M{"state": state}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	return nil
}

// unblockJob unconditionally releases any block this job holds in the
// repository and restores any sibling trigger left Blocked/PausedAndBlocked
// (spec.md §4.7: release happens regardless of whether other triggers for
// the job are still in flight).
func (p *fireProtocol) unblockJob(ctx context.Context, jobID string) error {
	if err := p.blocks.Release(ctx, jobID); err != nil {
		return err
	}
	_, err := p.cols.triggers.UpdateMany(ctx,
		bson.M{"jobId": jobID, "state": model.TriggerStateBlocked},
		bson.M{"$set": bson.M{"state": model.TriggerStateWaiting}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	_, err = p.cols.triggers.UpdateMany(ctx,
		bson.M{"jobId": jobID, "state": model.TriggerStatePausedAndBlocked},
		bson.M{"$set": bson.M{"state": model.TriggerStatePaused}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return jobstoreerr.MapMongoError(err)
	}
	return nil
}
