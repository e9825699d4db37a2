package leader

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// standaloneGate is the leader as soon as it is registered. It is meant for a
// single instance deployment or local development.
type standaloneGate struct {
	role     string
	acquired atomic.Bool
	closed   atomic.Bool
}

// NewStandaloneGate creates a gate that is always leader once acquired
func NewStandaloneGate(role string) Gate {
	return &standaloneGate{role: role}
}

func (g *standaloneGate) TryAcquire(_ context.Context) error {
	if g.acquired.CompareAndSwap(false, true) {
		slog.Info("Running standalone, assuming leadership", "role", g.role)
	}
	return nil
}

func (g *standaloneGate) IsLeader() bool {
	return g.acquired.Load() && !g.closed.Load()
}

func (g *standaloneGate) Close() error {
	g.closed.Store(true)
	return nil
}
