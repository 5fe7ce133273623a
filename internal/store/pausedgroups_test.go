package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialTriggerState(t *testing.T) {
	cases := []struct {
		name                                            string
		triggerGroupPaused, jobGroupPaused, jobBlocked bool
		want                                            string
	}{
		{"nothing set", false, false, false, "Waiting"},
		{"trigger group paused", true, false, false, "Paused"},
		{"job group paused", false, true, false, "Paused"},
		{"blocked only", false, false, true, "Blocked"},
		{"paused and blocked via trigger group", true, false, true, "PausedAndBlocked"},
		{"paused and blocked via job group", false, true, true, "PausedAndBlocked"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := initialTriggerState(tc.triggerGroupPaused, tc.jobGroupPaused, tc.jobBlocked)
			assert.Equal(t, tc.want, string(got))
		})
	}
}
