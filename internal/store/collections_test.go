package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ravenjobstore/store/config"
)

func TestCollectionNameWithoutPrefix(t *testing.T) {
	cfg := &config.StoreConfig{}
	assert.Equal(t, collJobs, cfg.CollectionName(collJobs))
	assert.Equal(t, collTriggers, cfg.CollectionName(collTriggers))
}

func TestCollectionNameWithPrefix(t *testing.T) {
	cfg := &config.StoreConfig{CollectionPrefix: "tenant-a"}
	assert.Equal(t, "tenant-a/"+collJobs, cfg.CollectionName(collJobs))
	assert.Equal(t, "tenant-a/"+collCalendars, cfg.CollectionName(collCalendars))
}
