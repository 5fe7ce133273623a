package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenjobstore/store/internal/model"
)

// TestAcquireNextTriggersRespectsTimeWindow exercises the noLaterThan +
// timeWindow upperLimit (spec.md §4.6): a trigger due just past noLaterThan
// but inside the window is acquired; one past the window is left Waiting.
func TestAcquireNextTriggersRespectsTimeWindow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	_, inWindow := testJobAndTrigger(t, ctx, s, "job-in-window", "trig-in-window", now.Add(30*time.Second), false)
	_, outOfWindow := testJobAndTrigger(t, ctx, s, "job-out-of-window", "trig-out-of-window", now.Add(5*time.Minute), false)

	acquired, err := s.AcquireNextTriggers(ctx, now, 10, time.Minute)
	require.NoError(t, err)

	var gotKeys []model.TriggerKey
	for _, trig := range acquired {
		gotKeys = append(gotKeys, trig.Key())
	}
	assert.Contains(t, gotKeys, inWindow.Key())
	assert.NotContains(t, gotKeys, outOfWindow.Key())

	stillWaiting, err := s.RetrieveTrigger(ctx, outOfWindow.Key())
	require.NoError(t, err)
	require.NotNil(t, stillWaiting)
	assert.Equal(t, model.TriggerStateWaiting, stillWaiting.State)

	nowAcquired, err := s.RetrieveTrigger(ctx, inWindow.Key())
	require.NoError(t, err)
	require.NotNil(t, nowAcquired)
	assert.Equal(t, model.TriggerStateAcquired, nowAcquired.State)
}

// TestAcquireNextTriggersExcludesSecondTriggerForConcurrencyDisallowedJob
// exercises spec.md §4.6 step 4: a concurrency-disallowed job contributes
// at most one trigger to a single acquisition batch.
func TestAcquireNextTriggersExcludesSecondTriggerForConcurrencyDisallowedJob(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	job := model.Job{
		Name:                          "exclusive-job",
		Group:                         "DEFAULT",
		JobType:                       "test-job",
		Durable:                       true,
		ConcurrentExecutionDisallowed: true,
	}
	require.NoError(t, s.StoreJob(ctx, job, false))

	for _, name := range []string{"trig-a", "trig-b"} {
		trig := model.Trigger{
			Name:     name,
			Group:    "DEFAULT",
			JobName:  job.Name,
			JobGroup: "DEFAULT",
			Priority: model.DefaultPriority,
			Schedule: model.ScheduleOptions{
				Tag:    model.ScheduleSimple,
				Simple: &model.SimpleSchedule{RepeatCount: -1, RepeatInterval: time.Minute},
			},
		}
		fireAt := now.Add(-time.Second)
		trig.SetNextFireTime(&fireAt)
		require.NoError(t, s.StoreTrigger(ctx, trig, false))
	}

	acquired, err := s.AcquireNextTriggers(ctx, now, 10, time.Hour)
	require.NoError(t, err)
	assert.Len(t, acquired, 1)
}
