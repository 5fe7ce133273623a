package model

// Calendar wraps an opaque, runtime-defined calendar value (holiday lists,
// exclusion windows, and so on). The store never interprets the payload; it
// only (de)serializes it.
type Calendar struct {
	ID          string         `bson:"_id"                json:"id"`
	Version     int64          `bson:"version"            json:"version"`
	Name        string         `bson:"name"               json:"name"`
	Scheduler   string         `bson:"scheduler"          json:"scheduler"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Data        map[string]any `bson:"data,omitempty"     json:"data,omitempty"`
}

// SchedulerLifecycleState is the lifecycle of a Scheduler Record.
type SchedulerLifecycleState string

const (
	SchedulerUnknown  SchedulerLifecycleState = "Unknown"
	SchedulerStarted  SchedulerLifecycleState = "Started"
	SchedulerPaused   SchedulerLifecycleState = "Paused"
	SchedulerResumed  SchedulerLifecycleState = "Resumed"
	SchedulerShutdown SchedulerLifecycleState = "Shutdown"
)

// SchedulerRecord is the one-per-InstanceName control document.
type SchedulerRecord struct {
	ID               string                  `bson:"_id"              json:"id"`
	Version          int64                   `bson:"version"          json:"version"`
	InstanceName     string                  `bson:"instanceName"     json:"instanceName"`
	LastCheckinTime  int64                   `bson:"lastCheckinTime"  json:"lastCheckinTime"`
	CheckinInterval  int64                   `bson:"checkinInterval"  json:"checkinInterval"`
	State            SchedulerLifecycleState `bson:"state"            json:"state"`
}

// PausedTriggerGroup marks a trigger-group as paused.
type PausedTriggerGroup struct {
	ID        string `bson:"_id"       json:"id"`
	Scheduler string `bson:"scheduler" json:"scheduler"`
	Group     string `bson:"group"     json:"group"`
}

// PausedJobGroup marks a job-group as paused.
type PausedJobGroup struct {
	ID        string `bson:"_id"       json:"id"`
	Scheduler string `bson:"scheduler" json:"scheduler"`
	Group     string `bson:"group"     json:"group"`
}

// BlockedJob marks a job as currently executing with concurrent execution
// disallowed (clustered/persisted Block Repository variant).
type BlockedJob struct {
	ID        string `bson:"_id"       json:"id"`
	Scheduler string `bson:"scheduler" json:"scheduler"`
	JobID     string `bson:"jobId"     json:"jobId"`
}

// FiredTriggerBundle is handed to the runtime by TriggersFired: the job
// detail, the advanced trigger, the resolved calendar, and the relevant
// fire-time bookkeeping.
type FiredTriggerBundle struct {
	Job              Job
	Trigger          Trigger
	Calendar         *Calendar
	FireTime         int64
	ScheduledFireTime int64
	PreviousFireTime *int64
	NextFireTime     *int64
}

// FireOutcome is the per-trigger result of TriggersFired (spec.md §4.7):
// every trigger handed in produces exactly one of these, never a silent
// drop, so the runtime can tell a clean skip from an actual fire.
type FireOutcome string

const (
	FireOutcomeFired       FireOutcome = "Fired"
	FireOutcomeNotAcquired FireOutcome = "NotAcquired"
	FireOutcomeJobBlocked  FireOutcome = "JobBlocked"
	FireOutcomeJobDeleted  FireOutcome = "JobDeleted"
)

// FireResult pairs a trigger's outcome with its bundle, which is non-nil
// only when Outcome is FireOutcomeFired.
type FireResult struct {
	Outcome FireOutcome
	Bundle  *FiredTriggerBundle
}
