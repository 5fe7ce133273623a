// Package ports declares the external collaborators the job store core
// consumes but does not implement: the scheduler runtime's type loader and
// its signaler for scheduling-change and listener notifications. Both are
// supplied to Store.Initialize by the hosting process.
package ports

import (
	"context"

	"github.com/ravenjobstore/store/internal/model"
)

// TypeLoader resolves a job's stable type identifier to whatever the
// runtime needs to instantiate it. The store treats JobType as an opaque
// string and never calls this itself outside of existence validation hooks
// a runtime may choose to wire in.
type TypeLoader interface {
	Resolve(ctx context.Context, jobType string) error
}

// Signaler is the fire-and-forget notification surface back to the
// scheduler runtime. Every method must return quickly: the store does not
// await slow listener chains on its hot paths (spec.md §9).
type Signaler interface {
	// SignalSchedulingChange notifies the runtime that it should re-evaluate
	// its next wakeup time. candidate is nil when the caller has no specific
	// next-fire hint to offer.
	SignalSchedulingChange(ctx context.Context, candidate *int64)

	// NotifyTriggerListenersMisfired fires when the Misfire Reconciler
	// detects a missed fire time, before it advances the schedule.
	NotifyTriggerListenersMisfired(ctx context.Context, trigger model.Trigger)

	// NotifySchedulerListenersFinalized fires when a trigger's schedule has
	// no further fire times and the trigger is finalized to Complete.
	NotifySchedulerListenersFinalized(ctx context.Context, trigger model.Trigger)

	// NotifySchedulerListenersJobDeleted fires when RemoveTrigger removes the
	// last trigger of a non-durable job and deletes the job. Jobs deleted by
	// the completion protocol's DeleteTrigger cascade or by recovery are
	// removed without this notification.
	NotifySchedulerListenersJobDeleted(ctx context.Context, key model.JobKey)
}
