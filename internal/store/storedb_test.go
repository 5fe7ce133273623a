package store

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ravenjobstore/store/config"
	"github.com/ravenjobstore/store/internal/model"
	"github.com/ravenjobstore/store/internal/ports"
	"github.com/ravenjobstore/store/internal/testutil"
)

// newTestStore dials the local test document database (internal/testutil),
// wires a Store against a throwaway database, and initializes it with fake
// external collaborators. It returns the store and the recording signaler
// wired into it.
func newTestStore(t *testing.T) (*Store, *ports.RecordingSignaler) {
	t.Helper()

	var st *Store
	var signaler *ports.RecordingSignaler
	testutil.WithAutoDB(t, func(client *mongo.Client, dbName string) {
		cfg := &config.StoreConfig{
			Database:                 dbName,
			InstanceName:             "test-instance",
			ConcurrencyErrorRetries:  5,
			SecondsToWaitForIndexing: 0,
			MisfireThreshold:         time.Minute,
			ThreadPoolSize:           4,
		}
		st = New(client, cfg, discardLogger())
		signaler = &ports.RecordingSignaler{}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.Initialize(ctx, &ports.FakeTypeLoader{}, signaler); err != nil {
			t.Fatalf("initialize store: %v", err)
		}
	})
	return st, signaler
}

// testJobAndTrigger builds a durable job and a Waiting trigger due to fire
// at fireAt, stores both, and returns them with store-assigned ids filled
// in.
func testJobAndTrigger(t *testing.T, ctx context.Context, s *Store, jobName, triggerName string, fireAt time.Time, concurrentDisallowed bool) (model.Job, model.Trigger) {
	t.Helper()

	job := model.Job{
		Name:                          jobName,
		Group:                         "DEFAULT",
		JobType:                       "test-job",
		Durable:                       true,
		ConcurrentExecutionDisallowed: concurrentDisallowed,
	}
	if err := s.StoreJob(ctx, job, false); err != nil {
		t.Fatalf("store job %s: %v", jobName, err)
	}

	trig := model.Trigger{
		Name:     triggerName,
		Group:    "DEFAULT",
		JobName:  jobName,
		JobGroup: "DEFAULT",
		Priority: model.DefaultPriority,
		Schedule: model.ScheduleOptions{
			Tag:    model.ScheduleSimple,
			Simple: &model.SimpleSchedule{RepeatCount: -1, RepeatInterval: time.Minute},
		},
	}
	trig.SetNextFireTime(&fireAt)
	if err := s.StoreTrigger(ctx, trig, false); err != nil {
		t.Fatalf("store trigger %s: %v", triggerName, err)
	}

	loadedJob, err := s.RetrieveJob(ctx, job.Key())
	if err != nil || loadedJob == nil {
		t.Fatalf("retrieve job %s: %v", jobName, err)
	}
	loadedTrig, err := s.RetrieveTrigger(ctx, trig.Key())
	if err != nil || loadedTrig == nil {
		t.Fatalf("retrieve trigger %s: %v", triggerName, err)
	}
	return *loadedJob, *loadedTrig
}
