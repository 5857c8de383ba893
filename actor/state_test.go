package actor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateLatchesOnce(t *testing.T) {
	var s state
	assert.Equal(t, Running, s.load())
	assert.False(t, s.poisoned())
	assert.NoError(t, s.err())

	first := errors.New("first failure")
	require.True(t, s.poison(first))
	assert.Equal(t, Poisoned, s.load())
	require.ErrorIs(t, s.err(), first)

	// Only the first failure is retained.
	require.False(t, s.poison(errors.New("second failure")))
	require.ErrorIs(t, s.err(), first)
}

func TestActorStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "poisoned", Poisoned.String())
}
