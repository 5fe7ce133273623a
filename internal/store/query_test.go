package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenjobstore/store/internal/model"
)

func TestGroupFilterContainsIsNotIndexFriendly(t *testing.T) {
	_, ok := groupFilter("group", model.GroupContains("x"))
	assert.False(t, ok)
}

func TestGroupFilterEquality(t *testing.T) {
	filter, ok := groupFilter("group", model.GroupEquals("known"))
	require.True(t, ok)
	assert.Equal(t, "known", filter["group"])
}
