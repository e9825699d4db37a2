package leader

import (
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/stacklok/toolhive-bucket-sync/internal/config"
)

// New builds the gate selected by the leader configuration
func New(cfg *config.LeaderConfig) (Gate, error) {
	if cfg == nil {
		return nil, fmt.Errorf("leader config is required")
	}

	role := cfg.GetRole()
	identity := NewIdentity()

	switch cfg.Type {
	case config.LeaderTypeStandalone:
		return NewStandaloneGate(role), nil

	case config.LeaderTypeFile:
		if cfg.File == nil {
			return nil, fmt.Errorf("file leader config is required")
		}
		return NewFileGate(role, cfg.File.Path, cfg.GetRetryPeriod())

	case config.LeaderTypeRedis:
		return newRedisGateFromConfig(cfg, role, identity)

	case config.LeaderTypeKubernetes:
		client, err := newKubernetesClient(cfg.Kubernetes)
		if err != nil {
			return nil, err
		}
		return NewKubernetesGate(client, KubernetesGateConfig{
			Role:          role,
			Namespace:     cfg.Kubernetes.GetNamespace(),
			Identity:      identity,
			LeaseDuration: cfg.GetLeaseDuration(),
			RenewDeadline: cfg.GetRenewDeadline(),
			RetryPeriod:   cfg.GetRetryPeriod(),
		})

	default:
		return nil, fmt.Errorf("unsupported leader type: %q", cfg.Type)
	}
}

func newRedisGateFromConfig(cfg *config.LeaderConfig, role, identity string) (Gate, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis leader config is required")
	}
	password, err := cfg.Redis.GetPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis password: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Username: cfg.Redis.Username,
		Password: password,
		DB:       cfg.Redis.DB,
	})

	gate, err := NewRedisGate(client, RedisGateConfig{
		Role:          role,
		Identity:      identity,
		KeyPrefix:     cfg.Redis.KeyPrefix,
		LeaseDuration: cfg.GetLeaseDuration(),
		RenewDeadline: cfg.GetRenewDeadline(),
		RetryPeriod:   cfg.GetRetryPeriod(),
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &closingGate{Gate: gate, closer: client}, nil
}

func newKubernetesClient(cfg *config.KubernetesLeaderConfig) (kubernetes.Interface, error) {
	var (
		restConfig *rest.Config
		err        error
	)
	if cfg != nil && cfg.Kubeconfig != "" {
		restConfig, err = clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
	} else {
		restConfig, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
	}

	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return client, nil
}

// closingGate closes the backend client after the gate itself
type closingGate struct {
	Gate
	closer io.Closer
}

func (c *closingGate) Close() error {
	return errors.Join(c.Gate.Close(), c.closer.Close())
}
