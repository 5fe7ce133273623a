package jobstoreerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := WrapConfiguration(cause, "couldn't recover jobs")

	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "couldn't recover jobs: boom", wrapped.Error())
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsAlreadyExists(AlreadyExistsf("job %s exists", "x")))
	assert.True(t, IsConcurrency(Concurrencyf("conflict")))
	assert.False(t, IsConcurrency(JobPersistencef("corrupt")))
}

func TestWrapConfigurationNil(t *testing.T) {
	assert.Nil(t, WrapConfiguration(nil, "x"))
}
