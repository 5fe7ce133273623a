package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupMatcherMatches(t *testing.T) {
	cases := []struct {
		name    string
		matcher GroupMatcher
		group   string
		want    bool
	}{
		{"equality match", GroupEquals("known"), "known", true},
		{"equality mismatch", GroupEquals("known"), "unknown", false},
		{"starts with", GroupStartsWith("team-"), "team-alpha", true},
		{"ends with", GroupEndsWith("-alpha"), "team-alpha", true},
		{"contains", GroupContains("eam-al"), "team-alpha", true},
		{"anything", GroupAnything(), "whatever", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.matcher.Matches(tc.group))
		})
	}
}

func TestGroupMatcherIndexFriendly(t *testing.T) {
	assert.True(t, GroupEquals("x").IndexFriendly())
	assert.False(t, GroupContains("x").IndexFriendly())
}
