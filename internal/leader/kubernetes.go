package leader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"
)

// KubernetesGateConfig tunes the coordination.k8s.io Lease election
type KubernetesGateConfig struct {
	Role          string
	Namespace     string
	Identity      string
	LeaseDuration time.Duration
	RenewDeadline time.Duration
	RetryPeriod   time.Duration
}

// kubernetesGate competes for a Lease object named after the role
type kubernetesGate struct {
	cfg     KubernetesGateConfig
	elector *leaderelection.LeaderElector
	leading atomic.Bool

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewKubernetesGate creates a gate backed by a Lease in the given namespace
func NewKubernetesGate(client kubernetes.Interface, cfg KubernetesGateConfig) (Gate, error) {
	if client == nil {
		return nil, fmt.Errorf("kubernetes client is required")
	}
	if cfg.Role == "" {
		return nil, fmt.Errorf("role is required")
	}
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if cfg.Identity == "" {
		cfg.Identity = NewIdentity()
	}

	g := &kubernetesGate{cfg: cfg}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      cfg.Role,
			Namespace: cfg.Namespace,
		},
		Client: client.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: cfg.Identity,
		},
	}

	elector, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
		Lock:            lock,
		LeaseDuration:   cfg.LeaseDuration,
		RenewDeadline:   cfg.RenewDeadline,
		RetryPeriod:     cfg.RetryPeriod,
		ReleaseOnCancel: true,
		Name:            cfg.Role,
		Callbacks: leaderelection.LeaderCallbacks{
			OnStartedLeading: func(_ context.Context) {
				g.leading.Store(true)
				slog.Info("Acquired leadership", "role", cfg.Role, "identity", cfg.Identity)
			},
			OnStoppedLeading: func() {
				if g.leading.Swap(false) {
					slog.Warn("Lost leadership", "role", cfg.Role, "identity", cfg.Identity)
				}
			},
			OnNewLeader: func(identity string) {
				if identity != cfg.Identity {
					slog.Debug("Observed leader", "role", cfg.Role, "leader", identity)
				}
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create leader elector: %w", err)
	}
	g.elector = elector
	return g, nil
}

// TryAcquire starts the election loop. The loop re-enters the election after
// every lost term until Close is called.
func (g *kubernetesGate) TryAcquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g.started = true
	g.cancel = cancel
	g.done = make(chan struct{})

	go func() {
		defer close(g.done)
		for runCtx.Err() == nil {
			g.elector.Run(runCtx)
		}
	}()
	return nil
}

func (g *kubernetesGate) IsLeader() bool {
	return g.leading.Load() && g.elector.IsLeader()
}

// Close cancels the election; the Lease is released on the way out
func (g *kubernetesGate) Close() error {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
