package leader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// fileGate holds the role while it owns an exclusive lock on a shared file.
// Only processes on the same host (or sharing a filesystem with working locks) compete.
type fileGate struct {
	role        string
	lock        *flock.Flock
	retryPeriod time.Duration

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFileGate creates a gate backed by an exclusive lock on path
func NewFileGate(role, path string, retryPeriod time.Duration) (Gate, error) {
	if path == "" {
		return nil, fmt.Errorf("lock file path is required")
	}
	if retryPeriod <= 0 {
		return nil, fmt.Errorf("retry period must be positive")
	}
	return &fileGate{
		role:        role,
		lock:        flock.New(filepath.Clean(path)),
		retryPeriod: retryPeriod,
	}, nil
}

// TryAcquire attempts the lock once; when another process holds it, a
// background loop keeps trying every retry period
func (g *fileGate) TryAcquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(g.lock.Path()), 0750); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := g.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", g.lock.Path(), err)
	}

	g.started = true
	if locked {
		slog.Info("Acquired leadership", "role", g.role, "lock", g.lock.Path())
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.waitForLock(loopCtx)
	return nil
}

func (g *fileGate) waitForLock(ctx context.Context) {
	defer close(g.done)

	ticker := time.NewTicker(g.retryPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			locked, err := g.lock.TryLock()
			if err != nil {
				slog.Warn("Failed to try lock", "role", g.role, "lock", g.lock.Path(), "error", err)
				continue
			}
			if locked {
				slog.Info("Acquired leadership", "role", g.role, "lock", g.lock.Path())
				return
			}
		}
	}
}

func (g *fileGate) IsLeader() bool {
	return g.lock.Locked()
}

// Close stops waiting for the lock and releases it when held
func (g *fileGate) Close() error {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	if err := g.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", g.lock.Path(), err)
	}
	return nil
}
