package store

import "github.com/ravenjobstore/store/internal/model"

// ids binds the deterministic id derivations in internal/model to this
// store's configured InstanceName, so callers never have to thread the
// instance name through by hand.
type ids struct {
	instanceName string
}

func (i ids) job(key model.JobKey) string            { return model.JobID(i.instanceName, key) }
func (i ids) trigger(key model.TriggerKey) string     { return model.TriggerID(i.instanceName, key) }
func (i ids) calendar(name string) string             { return model.CalendarID(i.instanceName, name) }
func (i ids) pausedTriggerGroup(group string) string  { return model.PausedTriggerGroupID(i.instanceName, group) }
func (i ids) pausedJobGroup(group string) string      { return model.PausedJobGroupID(i.instanceName, group) }
func (i ids) blockedJob(jobID string) string          { return model.BlockedJobID(i.instanceName, jobID) }
