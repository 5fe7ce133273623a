package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ravenjobstore/store/internal/model"
)

func TestPauseResumeTransition(t *testing.T) {
	cases := []struct {
		state  model.TriggerState
		paused model.TriggerState
	}{
		{model.TriggerStateWaiting, model.TriggerStatePaused},
		{model.TriggerStateBlocked, model.TriggerStatePausedAndBlocked},
		{model.TriggerStateAcquired, model.TriggerStateAcquired},
		{model.TriggerStateExecuting, model.TriggerStateExecuting},
		{model.TriggerStateComplete, model.TriggerStateComplete},
		{model.TriggerStateError, model.TriggerStateError},
	}
	for _, c := range cases {
		assert.Equal(t, c.paused, pauseTransition(c.state))
		if c.paused != c.state {
			assert.Equal(t, c.state, resumeTransition(c.paused))
		}
	}
}

func TestBlockUnblockTransition(t *testing.T) {
	cases := []struct {
		state   model.TriggerState
		blocked model.TriggerState
	}{
		{model.TriggerStateWaiting, model.TriggerStateBlocked},
		{model.TriggerStatePaused, model.TriggerStatePausedAndBlocked},
		{model.TriggerStateAcquired, model.TriggerStateAcquired},
		{model.TriggerStateComplete, model.TriggerStateComplete},
	}
	for _, c := range cases {
		assert.Equal(t, c.blocked, blockTransition(c.state))
		if c.blocked != c.state {
			assert.Equal(t, c.state, unblockTransition(c.blocked))
		}
	}
}

func TestAcquirable(t *testing.T) {
	for _, s := range []model.TriggerState{
		model.TriggerStateBlocked, model.TriggerStatePaused, model.TriggerStatePausedAndBlocked,
		model.TriggerStateAcquired, model.TriggerStateExecuting, model.TriggerStateComplete, model.TriggerStateError,
	} {
		assert.False(t, acquirable(s), "acquirable(%v)", s)
	}
	assert.True(t, acquirable(model.TriggerStateWaiting))
}
