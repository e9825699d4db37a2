package leader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-bucket-sync/internal/config"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *config.LeaderConfig
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "leader config is required"},
		{name: "standalone", cfg: &config.LeaderConfig{Type: config.LeaderTypeStandalone}},
		{name: "file", cfg: &config.LeaderConfig{
			Type: config.LeaderTypeFile,
			File: &config.FileLeaderConfig{Path: filepath.Join(t.TempDir(), "leader.lock")},
		}},
		{name: "file without path config", cfg: &config.LeaderConfig{Type: config.LeaderTypeFile},
			wantErr: "file leader config is required"},
		{name: "redis", cfg: &config.LeaderConfig{
			Type:  config.LeaderTypeRedis,
			Redis: &config.RedisLeaderConfig{Address: "127.0.0.1:6379"},
		}},
		{name: "redis without config", cfg: &config.LeaderConfig{Type: config.LeaderTypeRedis},
			wantErr: "redis leader config is required"},
		{name: "kubernetes with missing kubeconfig", cfg: &config.LeaderConfig{
			Type:       config.LeaderTypeKubernetes,
			Kubernetes: &config.KubernetesLeaderConfig{Kubeconfig: filepath.Join(t.TempDir(), "missing")},
		}, wantErr: "failed to load kubernetes config"},
		{name: "unsupported", cfg: &config.LeaderConfig{Type: "zookeeper"}, wantErr: "unsupported leader type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gate, err := New(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, gate)
			assert.False(t, gate.IsLeader())
			assert.NoError(t, gate.Close())
		})
	}
}
