package model

import "time"

// Trigger is the persistent representation of a schedule attached to a job.
type Trigger struct {
	ID                string         `bson:"_id"                         json:"id"`
	Version           int64          `bson:"version"                     json:"version"`
	Name              string         `bson:"name"                        json:"name"`
	Group             string         `bson:"group"                       json:"group"`
	JobName           string         `bson:"jobName"                     json:"jobName"`
	JobGroup          string         `bson:"jobGroup"                    json:"jobGroup"`
	JobID             string         `bson:"jobId"                       json:"jobId"`
	Scheduler         string         `bson:"scheduler"                   json:"scheduler"`
	State             TriggerState   `bson:"state"                       json:"state"`
	Description       string         `bson:"description,omitempty"       json:"description,omitempty"`
	CalendarName      *string        `bson:"calendarName,omitempty"       json:"calendarName,omitempty"`
	Data              map[string]any `bson:"data,omitempty"              json:"data,omitempty"`
	FireInstanceID    string         `bson:"fireInstanceId,omitempty"    json:"fireInstanceId,omitempty"`
	MisfireInstruction MisfireInstruction `bson:"misfireInstruction"     json:"misfireInstruction"`
	StartTime         time.Time      `bson:"startTime"                   json:"startTime"`
	EndTime           *time.Time     `bson:"endTime,omitempty"           json:"endTime,omitempty"`
	NextFireTime      *time.Time     `bson:"nextFireTime,omitempty"      json:"nextFireTime,omitempty"`
	PreviousFireTime  *time.Time     `bson:"previousFireTime,omitempty"  json:"previousFireTime,omitempty"`
	NextFireTimeTicks int64          `bson:"nextFireTimeTicks"           json:"nextFireTimeTicks"`
	Priority          int            `bson:"priority"                    json:"priority"`
	HasMillisecondPrecision bool     `bson:"hasMillisecondPrecision"     json:"hasMillisecondPrecision"`
	Schedule          ScheduleOptions `bson:"schedule"                   json:"schedule"`
}

// Key returns the logical TriggerKey for this trigger.
func (t Trigger) Key() TriggerKey {
	return TriggerKey{Name: t.Name, Group: t.Group}
}

// JobKey returns the logical JobKey of the job this trigger fires.
func (t Trigger) JobKey() JobKey {
	return JobKey{Name: t.JobName, Group: t.JobGroup}
}

// SetNextFireTime updates both the timestamp and its indexable tick
// representation, keeping them from drifting apart.
func (t *Trigger) SetNextFireTime(when *time.Time) {
	t.NextFireTime = when
	if when == nil {
		t.NextFireTimeTicks = 0
		return
	}
	t.NextFireTimeTicks = when.UTC().UnixNano()
}

// DefaultPriority is applied when a caller does not set a priority.
const DefaultPriority = 5
