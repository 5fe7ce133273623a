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

// TestRecoverResetsAcquiredToWaiting exercises spec.md §4.8 step 2: a
// trigger left Acquired by a process that died mid-fire comes back to
// Waiting the next time recovery runs (on SchedulerStarted here).
func TestRecoverResetsAcquiredToWaiting(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	_, trig := testJobAndTrigger(t, ctx, s, "recover-job", "recover-trig", now.Add(-time.Second), false)
	acquired, err := s.AcquireNextTriggers(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, acquired, 1)

	stuck, err := s.RetrieveTrigger(ctx, trig.Key())
	require.NoError(t, err)
	require.Equal(t, model.TriggerStateAcquired, stuck.State)

	require.NoError(t, s.SchedulerStarted(ctx))

	recovered, err := s.RetrieveTrigger(ctx, trig.Key())
	require.NoError(t, err)
	require.NotNil(t, recovered)
	assert.Equal(t, model.TriggerStateWaiting, recovered.State)
	assert.Empty(t, recovered.FireInstanceID)
}

// TestRecoverRetiresCompletedTriggerAndOrphanedJob exercises spec.md §4.8
// step 4: a Complete trigger left behind is deleted, and its non-durable
// job is cleaned up once it has no remaining triggers.
func TestRecoverRetiresCompletedTriggerAndOrphanedJob(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	job := model.Job{
		Name:    "orphan-job",
		Group:   "DEFAULT",
		JobType: "test-job",
		Durable: false,
	}
	require.NoError(t, s.StoreJob(ctx, job, false))

	trig := model.Trigger{
		Name: "orphan-trig", Group: "DEFAULT", JobName: job.Name, JobGroup: "DEFAULT",
		Priority: model.DefaultPriority,
		Schedule: model.ScheduleOptions{Tag: model.ScheduleSimple, Simple: &model.SimpleSchedule{RepeatCount: -1, RepeatInterval: time.Minute}},
	}
	fireAt := now
	trig.SetNextFireTime(&fireAt)
	require.NoError(t, s.StoreTrigger(ctx, trig, false))

	stored, err := s.RetrieveTrigger(ctx, trig.Key())
	require.NoError(t, err)
	_, err = s.cols.triggers.UpdateOne(ctx, bson.M{"_id": stored.ID}, bson.M{"$set": bson.M{"state": model.TriggerStateComplete}})
	require.NoError(t, err)

	require.NoError(t, s.SchedulerStarted(ctx))

	gone, err := s.RetrieveTrigger(ctx, trig.Key())
	require.NoError(t, err)
	assert.Nil(t, gone)

	jobGone, err := s.RetrieveJob(ctx, job.Key())
	require.NoError(t, err)
	assert.Nil(t, jobGone)
}
