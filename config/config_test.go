package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDefaultsClusteredRetries(t *testing.T) {
	c := StoreConfig{Clustered: true}
	c.Sanitize()
	assert.Equal(t, 100, c.ConcurrencyErrorRetries)
}

func TestSanitizeDefaultsNonClusteredRetries(t *testing.T) {
	c := StoreConfig{}
	c.Sanitize()
	assert.Equal(t, 5, c.ConcurrencyErrorRetries)
}

func TestCollectionNameWithPrefix(t *testing.T) {
	c := StoreConfig{CollectionPrefix: "tenant-a"}
	assert.Equal(t, "tenant-a/triggers", c.CollectionName("triggers"))
}

func TestCollectionNameWithoutPrefix(t *testing.T) {
	c := StoreConfig{}
	assert.Equal(t, "triggers", c.CollectionName("triggers"))
}
