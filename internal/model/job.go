package model

// Job is the persistent representation of a unit of work the scheduler
// runtime can instantiate and run. The runtime resolves JobType to a
// concrete handler; the store never interprets it.
type Job struct {
	ID                          string         `bson:"_id"                             json:"id"`
	Version                     int64          `bson:"version"                         json:"version"`
	Name                        string         `bson:"name"                            json:"name"`
	Group                       string         `bson:"group"                           json:"group"`
	Scheduler                   string         `bson:"scheduler"                       json:"scheduler"`
	Description                 string         `bson:"description,omitempty"           json:"description,omitempty"`
	JobType                     string         `bson:"jobType"                         json:"jobType"`
	Durable                     bool           `bson:"durable"                         json:"durable"`
	ConcurrentExecutionDisallowed bool         `bson:"concurrentExecutionDisallowed"   json:"concurrentExecutionDisallowed"`
	PersistJobDataAfterExecution bool         `bson:"persistJobDataAfterExecution"    json:"persistJobDataAfterExecution"`
	RequestsRecovery            bool           `bson:"requestsRecovery"                json:"requestsRecovery"`
	Data                        map[string]any `bson:"data,omitempty"                  json:"data,omitempty"`
}

// Key returns the logical JobKey for this job.
func (j Job) Key() JobKey {
	return JobKey{Name: j.Name, Group: j.Group}
}
