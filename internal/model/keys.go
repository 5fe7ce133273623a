// Package model defines the persistent entities of the job store: jobs,
// triggers, calendars, paused-group markers and the scheduler record.
package model

import "fmt"

// JobKey identifies a job by name and group within a scheduler instance.
type JobKey struct {
	Name  string
	Group string
}

// String renders the key in "group.name" form, matching the convention used
// for log messages and error text throughout the store.
func (k JobKey) String() string {
	return fmt.Sprintf("%s.%s", k.Group, k.Name)
}

// TriggerKey identifies a trigger by name and group within a scheduler
// instance.
type TriggerKey struct {
	Name  string
	Group string
}

func (k TriggerKey) String() string {
	return fmt.Sprintf("%s.%s", k.Group, k.Name)
}

// JobID derives the deterministic document id for a job: this makes
// existence checks and cross-instance coordination collision-free and lets
// a retried write rediscover the same document after a concurrency
// conflict.
func JobID(instanceName string, key JobKey) string {
	return fmt.Sprintf("%s/%s/%s", instanceName, key.Group, key.Name)
}

// TriggerID derives the deterministic document id for a trigger.
func TriggerID(instanceName string, key TriggerKey) string {
	return fmt.Sprintf("%s/%s/%s", instanceName, key.Group, key.Name)
}

// CalendarID derives the deterministic document id for a calendar.
func CalendarID(instanceName, name string) string {
	return fmt.Sprintf("%s/calendars/%s", instanceName, name)
}

// PausedTriggerGroupID derives the document id for a paused trigger-group
// marker.
func PausedTriggerGroupID(instanceName, group string) string {
	return fmt.Sprintf("T%s#%s", instanceName, group)
}

// PausedJobGroupID derives the document id for a paused job-group marker.
func PausedJobGroupID(instanceName, group string) string {
	return fmt.Sprintf("J%s#%s", instanceName, group)
}

// BlockedJobID derives the document id for a persisted block marker.
func BlockedJobID(instanceName, jobID string) string {
	return fmt.Sprintf("B%s#%s", instanceName, jobID)
}
