package leader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces the lease keys written by the Redis gate
const DefaultRedisKeyPrefix = "thv-bucket-sync:leader:"

const (
	// renewScript extends the lease only when it is still owned by the caller
	renewScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

	// releaseScript deletes the lease only when it is still owned by the caller
	releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`
)

// RedisClient is the subset of the go-redis client used by the gate
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisGateConfig tunes the lease held in Redis
type RedisGateConfig struct {
	Role          string
	Identity      string
	KeyPrefix     string
	LeaseDuration time.Duration
	RenewDeadline time.Duration
	RetryPeriod   time.Duration
}

// redisGate holds the role through a key with a TTL. The key value is the
// candidate identity so only the owner can renew or release it.
type redisGate struct {
	client RedisClient
	cfg    RedisGateConfig
	key    string
	now    func() time.Time

	mu      sync.Mutex
	leading bool
	expiry  time.Time
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRedisGate creates a gate that competes for a lease key in Redis
func NewRedisGate(client RedisClient, cfg RedisGateConfig) (Gate, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Role == "" {
		return nil, fmt.Errorf("role is required")
	}
	if cfg.Identity == "" {
		cfg.Identity = NewIdentity()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultRedisKeyPrefix
	}
	if err := validateTimings(cfg.LeaseDuration, cfg.RenewDeadline, cfg.RetryPeriod); err != nil {
		return nil, err
	}
	return &redisGate{
		client: client,
		cfg:    cfg,
		key:    cfg.KeyPrefix + cfg.Role,
		now:    time.Now,
	}, nil
}

// TryAcquire makes a single attempt to reach Redis and start competing.
// An unreachable server is reported so the caller can retry registration.
func (g *redisGate) TryAcquire(ctx context.Context) error {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	if _, err := g.attempt(ctx); err != nil {
		return fmt.Errorf("failed to register for role %s: %w", g.cfg.Role, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g.started = true
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.run(loopCtx)
	return nil
}

func (g *redisGate) run(ctx context.Context) {
	defer close(g.done)

	ticker := time.NewTicker(g.cfg.RetryPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.RenewDeadline)
			if _, err := g.attempt(attemptCtx); err != nil && ctx.Err() == nil {
				slog.Warn("Leader lease attempt failed", "role", g.cfg.Role, "error", err)
			}
			cancel()
		}
	}
}

// attempt renews the lease when held, or tries to take it otherwise
func (g *redisGate) attempt(ctx context.Context) (bool, error) {
	g.mu.Lock()
	leading := g.leading
	g.mu.Unlock()

	started := g.now()
	var (
		acquired bool
		err      error
	)
	if leading {
		acquired, err = g.renew(ctx)
	} else {
		acquired, err = g.client.SetNX(ctx, g.key, g.cfg.Identity, g.cfg.LeaseDuration).Result()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		// Local expiry keeps IsLeader honest while Redis is unreachable
		return false, err
	}
	if acquired {
		if !g.leading {
			slog.Info("Acquired leadership", "role", g.cfg.Role, "identity", g.cfg.Identity)
		}
		g.leading = true
		g.expiry = started.Add(g.cfg.LeaseDuration)
		return true, nil
	}
	if g.leading {
		slog.Warn("Lost leadership", "role", g.cfg.Role, "identity", g.cfg.Identity)
	}
	g.leading = false
	return false, nil
}

func (g *redisGate) renew(ctx context.Context) (bool, error) {
	n, err := g.client.Eval(ctx, renewScript, []string{g.key},
		g.cfg.Identity, g.cfg.LeaseDuration.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (g *redisGate) IsLeader() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leading && g.now().Before(g.expiry)
}

// Close stops competing and deletes the lease key when still owned
func (g *redisGate) Close() error {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	g.mu.Lock()
	leading := g.leading
	g.leading = false
	g.mu.Unlock()

	if !leading {
		return nil
	}

	ctx, cancelRelease := context.WithTimeout(context.Background(), g.cfg.RenewDeadline)
	defer cancelRelease()
	if err := g.client.Eval(ctx, releaseScript, []string{g.key}, g.cfg.Identity).Err(); err != nil &&
		!errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release role %s: %w", g.cfg.Role, err)
	}
	slog.Info("Released leadership", "role", g.cfg.Role)
	return nil
}

// validateTimings mirrors the constraints client-go applies to lease timings
func validateTimings(leaseDuration, renewDeadline, retryPeriod time.Duration) error {
	if retryPeriod <= 0 {
		return fmt.Errorf("retry period must be positive")
	}
	if renewDeadline <= time.Duration(1.2*float64(retryPeriod)) {
		return fmt.Errorf("renew deadline must be greater than 1.2 times the retry period")
	}
	if leaseDuration <= renewDeadline {
		return fmt.Errorf("lease duration must be greater than the renew deadline")
	}
	return nil
}
