// Command jobstore-demo wires a Store to a document database and drives a
// handful of operations end to end: storing a job and a cron trigger,
// acquiring it once it is due, and firing it. It exists to exercise the
// module's public surface, not as a production scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ravenjobstore/store"
	"github.com/ravenjobstore/store/internal/bootstrap"
)

type noopSignaler struct{}

func (noopSignaler) SignalSchedulingChange(ctx context.Context, candidate *int64)           {}
func (noopSignaler) NotifyTriggerListenersMisfired(ctx context.Context, t jobstore.Trigger)  {}
func (noopSignaler) NotifySchedulerListenersFinalized(ctx context.Context, t jobstore.Trigger) {}
func (noopSignaler) NotifySchedulerListenersJobDeleted(ctx context.Context, k jobstore.JobKey) {}

type noopTypeLoader struct{}

func (noopTypeLoader) Resolve(ctx context.Context, jobType string) error { return nil }

func main() {
	demoCron := pflag.String("cron", "*/5 * * * *", "cron expression for the demo trigger")
	pflag.Parse()

	logger := bootstrap.InitLogger()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.ServerURLs[0]))
	if err != nil {
		logger.Error("connect to document database", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	st := jobstore.New(client, &cfg, logger)
	if err := st.Initialize(ctx, noopTypeLoader{}, noopSignaler{}); err != nil {
		logger.Error("initialize store", "error", err)
		os.Exit(1)
	}
	if err := st.SchedulerStarted(ctx); err != nil {
		logger.Error("scheduler started", "error", err)
		os.Exit(1)
	}
	defer st.Shutdown(ctx)

	job := jobstore.Job{Name: "demo-job", Group: "DEFAULT", JobType: "demo"}
	trig := jobstore.Trigger{
		Name:     "demo-trigger",
		Group:    "DEFAULT",
		JobName:  job.Name,
		JobGroup: job.Group,
		Schedule: jobstore.ScheduleOptions{
			Tag:  "Cron",
			Cron: &jobstore.CronSchedule{CronExpression: *demoCron, TimeZone: "UTC"},
		},
	}
	sched, err := cron.ParseStandard(*demoCron)
	if err != nil {
		logger.Error("parse cron expression", "error", err)
		os.Exit(1)
	}
	first := sched.Next(time.Now())
	trig.SetNextFireTime(&first)

	if err := st.StoreJobAndTrigger(ctx, job, trig, true); err != nil {
		logger.Error("store job and trigger", "error", err)
		os.Exit(1)
	}

	batch, err := st.AcquireNextTriggers(ctx, time.Now(), 10, time.Hour)
	if err != nil {
		logger.Error("acquire triggers", "error", err)
		os.Exit(1)
	}

	fmt.Printf("acquired %d trigger(s)\n", len(batch))
	if len(batch) == 0 {
		return
	}

	results, err := st.TriggersFired(ctx, batch)
	if err != nil {
		logger.Error("fire triggers", "error", err)
		os.Exit(1)
	}

	fired := 0
	for _, r := range results {
		if r.Outcome != jobstore.FireOutcomeFired {
			logger.Info("trigger not fired", "outcome", r.Outcome)
			continue
		}
		b := r.Bundle
		fired++
		fmt.Printf("fired %s.%s for job %s.%s\n", b.Trigger.Group, b.Trigger.Name, b.Job.Group, b.Job.Name)
		if err := st.TriggeredJobComplete(ctx, b.Trigger, b.Job, jobstore.NoInstruction); err != nil {
			logger.Error("complete trigger", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("demo run complete", "fired", fired, slog.String("instance", cfg.InstanceName))
}
