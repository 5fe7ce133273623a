package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ravenjobstore/store/internal/model"
)

// TestTriggersFiredReturnsFiredBundle exercises the successful path of
// spec.md §4.7: an Acquired trigger fires, advances its schedule, and the
// result carries the bundle the runtime needs to invoke the job.
func TestTriggersFiredReturnsFiredBundle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	_, trig := testJobAndTrigger(t, ctx, s, "fire-job", "fire-trig", now.Add(-time.Second), false)
	acquired, err := s.AcquireNextTriggers(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, acquired, 1)
	assert.Equal(t, trig.Key(), acquired[0].Key())

	results, err := s.TriggersFired(ctx, acquired)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, model.FireOutcomeFired, results[0].Outcome)
	require.NotNil(t, results[0].Bundle)
	assert.Equal(t, trig.Key(), results[0].Bundle.Trigger.Key())

	stored, err := s.RetrieveTrigger(ctx, trig.Key())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.TriggerStateExecuting, stored.State)
}

// TestTriggersFiredReportsNotAcquired covers the "not acquired" sentinel:
// a trigger handed in that isn't actually sitting in Acquired state (it was
// never acquired at all here) must come back as its own outcome, not a
// silent drop from the result slice.
func TestTriggersFiredReportsNotAcquired(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	_, trig := testJobAndTrigger(t, ctx, s, "never-acquired-job", "never-acquired-trig", now.Add(time.Minute), false)

	results, err := s.TriggersFired(ctx, []model.Trigger{trig})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.FireOutcomeNotAcquired, results[0].Outcome)
	assert.Nil(t, results[0].Bundle)
}

// TestTriggersFiredReportsJobBlocked covers the "job blocked" outcome: a
// second trigger of a concurrency-disallowed job whose sibling is already
// executing comes back blocked rather than firing twice.
func TestTriggersFiredReportsJobBlocked(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	job := model.Job{
		Name:                          "blocked-job",
		Group:                         "DEFAULT",
		JobType:                       "test-job",
		Durable:                       true,
		ConcurrentExecutionDisallowed: true,
	}
	require.NoError(t, s.StoreJob(ctx, job, false))

	trig1 := model.Trigger{
		Name: "blocked-trig-1", Group: "DEFAULT", JobName: job.Name, JobGroup: "DEFAULT",
		Priority: model.DefaultPriority,
		Schedule: model.ScheduleOptions{Tag: model.ScheduleSimple, Simple: &model.SimpleSchedule{RepeatCount: -1, RepeatInterval: time.Minute}},
	}
	fireAt1 := now.Add(-time.Second)
	trig1.SetNextFireTime(&fireAt1)
	require.NoError(t, s.StoreTrigger(ctx, trig1, false))

	acquired, err := s.AcquireNextTriggers(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, acquired, 1)

	results, err := s.TriggersFired(ctx, acquired)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, model.FireOutcomeFired, results[0].Outcome)

	// Now that the job is blocked, a sibling trigger presented as Acquired
	// directly (bypassing acquisition, since the real acquisition engine
	// already excludes it) must come back JobBlocked rather than fired.
	trig2 := model.Trigger{
		Name: "blocked-trig-2", Group: "DEFAULT", JobName: job.Name, JobGroup: "DEFAULT",
		Priority: model.DefaultPriority,
		Schedule: model.ScheduleOptions{Tag: model.ScheduleSimple, Simple: &model.SimpleSchedule{RepeatCount: -1, RepeatInterval: time.Minute}},
	}
	fireAt2 := now.Add(-time.Second)
	trig2.SetNextFireTime(&fireAt2)
	require.NoError(t, s.StoreTrigger(ctx, trig2, false))
	stored2, err := s.RetrieveTrigger(ctx, trig2.Key())
	require.NoError(t, err)
	require.NotNil(t, stored2)
	// StoreTrigger is not racing acquisition here, so force it into Acquired
	// to simulate the narrow window where a CAS race could leave it there
	// right as the job becomes blocked.
	ok, err := casUpdate(ctx, s.cols.triggers, stored2.ID, stored2.Version, bson.M{"$set": bson.M{"state": model.TriggerStateAcquired}})
	require.NoError(t, err)
	require.True(t, ok)
	stored2, err = s.RetrieveTrigger(ctx, trig2.Key())
	require.NoError(t, err)

	results2, err := s.TriggersFired(ctx, []model.Trigger{*stored2})
	require.NoError(t, err)
	require.Len(t, results2, 1)
	assert.Equal(t, model.FireOutcomeJobBlocked, results2[0].Outcome)
	assert.Nil(t, results2[0].Bundle)
}

// TestTriggersFiredReportsJobDeleted covers the "job deleted" outcome: the
// job backing an Acquired trigger was removed before the fire ran.
func TestTriggersFiredReportsJobDeleted(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	_, trig := testJobAndTrigger(t, ctx, s, "deleted-job", "deleted-job-trig", now.Add(-time.Second), false)
	acquired, err := s.AcquireNextTriggers(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, acquired, 1)

	_, err = s.cols.jobs.DeleteOne(ctx, bson.M{"_id": acquired[0].JobID})
	require.NoError(t, err)

	results, err := s.TriggersFired(ctx, acquired)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.FireOutcomeJobDeleted, results[0].Outcome)
	assert.Nil(t, results[0].Bundle)
}
