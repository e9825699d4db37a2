package leader

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileGate_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewFileGate("role", "", time.Second)
	assert.Error(t, err)

	_, err = NewFileGate("role", filepath.Join(t.TempDir(), "leader.lock"), 0)
	assert.Error(t, err)
}

func TestFileGate_SingleHolder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "leader.lock")

	first, err := NewFileGate("role", path, 20*time.Millisecond)
	require.NoError(t, err)
	second, err := NewFileGate("role", path, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = first.Close()
		_ = second.Close()
	})

	assert.False(t, first.IsLeader(), "not leader before registration")

	require.NoError(t, first.TryAcquire(ctx))
	assert.True(t, first.IsLeader())

	require.NoError(t, second.TryAcquire(ctx))
	assert.False(t, second.IsLeader(), "lock is already held")

	// Releasing the lock hands the role over to the waiting candidate
	require.NoError(t, first.Close())
	assert.False(t, first.IsLeader())

	assert.Eventually(t, second.IsLeader, 2*time.Second, 10*time.Millisecond)
}

func TestFileGate_CloseWhileWaiting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leader.lock")

	holder, err := NewFileGate("role", path, 20*time.Millisecond)
	require.NoError(t, err)
	waiter, err := NewFileGate("role", path, 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, holder.TryAcquire(ctx))
	require.NoError(t, waiter.TryAcquire(ctx))

	require.NoError(t, waiter.Close())
	assert.False(t, waiter.IsLeader())
	assert.True(t, holder.IsLeader())

	require.NoError(t, holder.Close())
}
