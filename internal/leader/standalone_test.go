package leader

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandaloneGate(t *testing.T) {
	t.Parallel()

	gate := NewStandaloneGate("test-role")
	assert.False(t, gate.IsLeader(), "not leader before registration")

	require.NoError(t, gate.TryAcquire(context.Background()))
	assert.True(t, gate.IsLeader())

	require.NoError(t, gate.TryAcquire(context.Background()), "second registration is a no-op")
	assert.True(t, gate.IsLeader())

	require.NoError(t, gate.Close())
	assert.False(t, gate.IsLeader(), "not leader after close")
}

func TestNewIdentity(t *testing.T) {
	t.Parallel()

	first := NewIdentity()
	second := NewIdentity()

	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "_")
	assert.False(t, strings.HasPrefix(first, "_"))
}
