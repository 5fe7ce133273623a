package store

import "github.com/ravenjobstore/store/internal/model"

// pauseTransition is the Trigger State Machine's reaction to a pause
// request (spec.md §4.3). States outside {Waiting, Blocked, Paused,
// PausedAndBlocked} are left untouched: pausing never interrupts a trigger
// already Acquired or Executing.
func pauseTransition(s model.TriggerState) model.TriggerState {
	switch s {
	case model.TriggerStateWaiting:
		return model.TriggerStatePaused
	case model.TriggerStateBlocked:
		return model.TriggerStatePausedAndBlocked
	default:
		return s
	}
}

// resumeTransition is the inverse of pauseTransition.
func resumeTransition(s model.TriggerState) model.TriggerState {
	switch s {
	case model.TriggerStatePaused:
		return model.TriggerStateWaiting
	case model.TriggerStatePausedAndBlocked:
		return model.TriggerStateBlocked
	default:
		return s
	}
}

// blockTransition reacts to the Block Repository marking the trigger's job
// as currently executing with concurrent execution disallowed.
func blockTransition(s model.TriggerState) model.TriggerState {
	switch s {
	case model.TriggerStateWaiting:
		return model.TriggerStateBlocked
	case model.TriggerStatePaused:
		return model.TriggerStatePausedAndBlocked
	default:
		return s
	}
}

// unblockTransition is the inverse of blockTransition, applied when the
// Block Repository releases the job.
func unblockTransition(s model.TriggerState) model.TriggerState {
	switch s {
	case model.TriggerStateBlocked:
		return model.TriggerStateWaiting
	case model.TriggerStatePausedAndBlocked:
		return model.TriggerStatePaused
	default:
		return s
	}
}

// acquirable reports whether s is a state the Acquisition Engine may select
// a trigger from.
func acquirable(s model.TriggerState) bool {
	return s == model.TriggerStateWaiting
}
