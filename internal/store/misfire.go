package store

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/model"
	"github.com/ravenjobstore/store/internal/ports"
)

// misfireReconciler scans for triggers whose next fire time has fallen
// further behind than the configured threshold and brings each back in
// line, honoring its MisfireInstruction (spec.md §4.5).
type misfireReconciler struct {
	cols         *collections
	instanceName string
	threshold    time.Duration
	logger       *slog.Logger
}

// reconcileOne applies misfire handling to a single trigger already loaded
// from the database, returning the (possibly unchanged) trigger and whether
// it should be persisted. IgnoreMisfirePolicy and triggers within the
// threshold are left untouched.
func (m *misfireReconciler) reconcileOne(t *model.Trigger, now time.Time) (changed bool, err error) {
	if t.MisfireInstruction == model.MisfireInstructionIgnorePolicy {
		return false, nil
	}
	if t.NextFireTime == nil {
		return false, nil
	}
	if now.Sub(*t.NextFireTime) <= m.threshold {
		return false, nil
	}

	switch t.Schedule.Tag {
	case model.ScheduleSimple:
		return m.reconcileSimple(t, now)
	default:
		return m.reconcileByAdvancing(t, now)
	}
}

// reconcileByAdvancing is the smart-policy default shared by Cron,
// CalendarInterval and DailyTimeInterval schedules: recompute the next fire
// time strictly after now, skipping every missed occurrence.
func (m *misfireReconciler) reconcileByAdvancing(t *model.Trigger, now time.Time) (bool, error) {
	next, err := advanceSchedule(t, now)
	if err != nil {
		return false, jobstoreerr.WrapConfiguration(err, "couldn't recompute misfired trigger's next fire time")
	}
	prev := t.NextFireTime
	t.PreviousFireTime = prev
	t.SetNextFireTime(next)
	if next == nil {
		t.State = model.TriggerStateComplete
	}
	return true, nil
}

// reconcileSimple honors the Smart Policy used for Simple schedules: a
// finite RepeatCount schedule that has now run out of time simply
// completes; an unbounded one fires immediately (now), not at the next
// would-be tick, so catch-up doesn't accumulate.
func (m *misfireReconciler) reconcileSimple(t *model.Trigger, now time.Time) (bool, error) {
	s := t.Schedule.Simple
	if s == nil {
		return false, jobstoreerr.Unreachablef("trigger %s tagged Simple with no payload", t.ID)
	}
	if s.RepeatCount >= 0 && s.TimesTriggered > s.RepeatCount {
		prev := t.NextFireTime
		t.PreviousFireTime = prev
		t.SetNextFireTime(nil)
		t.State = model.TriggerStateComplete
		return true, nil
	}
	prev := t.NextFireTime
	t.PreviousFireTime = prev
	t.SetNextFireTime(&now)
	return true, nil
}

// Run scans every Waiting trigger past the misfire threshold, reconciles
// it, and persists the result under optimistic concurrency control,
// skipping (not failing) any trigger that lost a concurrent CAS race —
// another instance or a subsequent Acquire already moved it on.
func (m *misfireReconciler) Run(ctx context.Context, now time.Time, signaler ports.Signaler) (int, error) {
	cutoff := now.Add(-m.threshold)
	filter := bson.M{
		"scheduler":          m.instanceName,
		"state":              model.TriggerStateWaiting,
		"nextFireTimeTicks":  bson.M{"$gt": 0, "$lt": cutoff.UnixNano()},
		"misfireInstruction": bson.M{"$ne": model.MisfireInstructionIgnorePolicy},
	}
	cur, err := m.cols.triggers.Find(ctx, filter)
	if err != nil {
		return 0, jobstoreerr.MapMongoError(err)
	}
	defer cur.Close(ctx)

	reconciled := 0
	for cur.Next(ctx) {
		var t model.Trigger
		if err := cur.Decode(&t); err != nil {
			return reconciled, jobstoreerr.MapMongoError(err)
		}
		if signaler != nil {
			signaler.NotifyTriggerListenersMisfired(ctx, t)
		}

		changed, rerr := m.reconcileOne(&t, now)
		if rerr != nil {
			m.logger.Warn("misfire reconciliation failed for trigger", "trigger", t.ID, "error", rerr)
			continue
		}
		if !changed {
			continue
		}

		update := bson.M{"$set": bson.M{
			"state":             t.State,
			"nextFireTime":      t.NextFireTime,
			"nextFireTimeTicks": t.NextFireTimeTicks,
			"previousFireTime":  t.PreviousFireTime,
		}}
		ok, uerr := casUpdate(ctx, m.cols.triggers, t.ID, t.Version, update)
		if uerr != nil {
			return reconciled, uerr
		}
		if ok {
			reconciled++
			if t.State == model.TriggerStateComplete && signaler != nil {
				signaler.NotifySchedulerListenersFinalized(ctx, t)
			}
		}
	}
	if err := cur.Err(); err != nil {
		return reconciled, jobstoreerr.MapMongoError(err)
	}
	return reconciled, nil
}
