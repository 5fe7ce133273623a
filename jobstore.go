// Package jobstore is a persistent, optionally clustered job-store backend
// for a generic job-scheduler runtime, backed by a document database. It
// implements the trigger state machine, misfire reconciliation, candidate
// acquisition, the fire/complete protocol and crash recovery described in
// the package's design documents; the runtime that drives job execution is
// an external collaborator.
package jobstore

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ravenjobstore/store/config"
	"github.com/ravenjobstore/store/internal/model"
	"github.com/ravenjobstore/store/internal/ports"
	"github.com/ravenjobstore/store/internal/store"
)

// Store is the public job store handle. See internal/store.Store for the
// full operation surface; this package only re-exports the constructor and
// the types a hosting process needs to reference.
type Store = store.Store

// Config is the store's environment-driven configuration.
type Config = config.StoreConfig

// TypeLoader and Signaler are the external collaborators Initialize wires
// in: the runtime's job-type resolver and its fire-and-forget notification
// surface.
type TypeLoader = ports.TypeLoader
type Signaler = ports.Signaler

// Re-exported domain types callers build requests with.
type (
	Job                       = model.Job
	Trigger                   = model.Trigger
	Calendar                  = model.Calendar
	JobKey                    = model.JobKey
	TriggerKey                = model.TriggerKey
	GroupMatcher              = model.GroupMatcher
	ScheduleOptions           = model.ScheduleOptions
	CronSchedule              = model.CronSchedule
	SimpleSchedule            = model.SimpleSchedule
	CalendarIntervalSchedule  = model.CalendarIntervalSchedule
	DailyTimeIntervalSchedule = model.DailyTimeIntervalSchedule
	TimeOfDay                 = model.TimeOfDay
	ExternalTriggerState      = model.ExternalTriggerState
	CompletionInstruction     = model.CompletionInstruction
	FiredTriggerBundle        = model.FiredTriggerBundle
	FireResult                = model.FireResult
	FireOutcome               = model.FireOutcome
)

// Per-trigger TriggersFired outcomes (spec.md §4.7).
const (
	FireOutcomeFired       = model.FireOutcomeFired
	FireOutcomeNotAcquired = model.FireOutcomeNotAcquired
	FireOutcomeJobBlocked  = model.FireOutcomeJobBlocked
	FireOutcomeJobDeleted  = model.FireOutcomeJobDeleted
)

// Group matcher constructors.
var (
	GroupEquals     = model.GroupEquals
	GroupStartsWith = model.GroupStartsWith
	GroupEndsWith   = model.GroupEndsWith
	GroupContains   = model.GroupContains
	GroupAnything   = model.GroupAnything
)

// Completion instruction constants.
const (
	NoInstruction            = model.InstructionNoInstruction
	ReExecuteJob             = model.InstructionReExecuteJob
	SetTriggerComplete       = model.InstructionSetTriggerComplete
	SetTriggerError          = model.InstructionSetTriggerError
	SetAllJobTriggersComplete = model.InstructionSetAllJobTriggersComplete
	SetAllJobTriggersError   = model.InstructionSetAllJobTriggersError
	DeleteTrigger            = model.InstructionDeleteTrigger
)

// New constructs a Store bound to an already-connected Mongo client.
func New(client *mongo.Client, cfg *Config, logger *slog.Logger) *Store {
	return store.New(client, cfg, logger)
}
