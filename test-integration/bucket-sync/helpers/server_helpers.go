// Package helpers provides utilities for the bucket synchronizer integration tests.
package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	"github.com/stacklok/toolhive-bucket-sync/internal/api"
	syncapp "github.com/stacklok/toolhive-bucket-sync/internal/app"
	"github.com/stacklok/toolhive-bucket-sync/internal/app/storage"
	"github.com/stacklok/toolhive-bucket-sync/internal/config"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
	pkgsync "github.com/stacklok/toolhive-bucket-sync/internal/sync"
)

// ServerTestHelper manages the synchronizer lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	httpClient *http.Client
	app        *syncapp.SyncApp
	port       int
}

// NewServerTestHelper creates a new server test helper
func NewServerTestHelper(ctx context.Context, configPath string, port int) *ServerTestHelper {
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", port),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		port: port,
	}
}

// FreePort returns a TCP port that was free when the function returned
func FreePort() int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = l.Close()
	}()
	return l.Addr().(*net.TCPAddr).Port
}

// Migrate creates the tables of the configured stores, like the migrate command
func (s *ServerTestHelper) Migrate() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	factory, err := storage.NewStorageFactory(s.ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create storage factory: %w", err)
	}
	defer factory.Cleanup()

	return factory.Migrate(s.ctx, false)
}

// StartServer starts the synchronizer programmatically
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := syncapp.NewSyncApp(s.ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithAddress(fmt.Sprintf("127.0.0.1:%d", s.port)),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	s.app = app

	// Start the server in a goroutine (non-blocking)
	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the synchronizer
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		err := s.app.Stop(5 * time.Second)
		s.app = nil
		return err
	}
	return nil
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/health")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 200*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// GetStatus returns the last cycle status, or nil while no cycle has run
func (s *ServerTestHelper) GetStatus() (*status.CycleStatus, error) {
	resp, err := s.httpClient.Get(s.baseURL + "/status")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var cycle status.CycleStatus
	if err := json.NewDecoder(resp.Body).Decode(&cycle); err != nil {
		return nil, err
	}
	return &cycle, nil
}

// GetPlan returns the pending plan
func (s *ServerTestHelper) GetPlan() (*pkgsync.Plan, error) {
	resp, err := s.httpClient.Get(s.baseURL + "/plan")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var plan pkgsync.Plan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetReadiness returns the readiness report
func (s *ServerTestHelper) GetReadiness() (*api.ReadinessResponse, error) {
	resp, err := s.httpClient.Get(s.baseURL + "/readiness")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var readiness api.ReadinessResponse
	if err := json.NewDecoder(resp.Body).Decode(&readiness); err != nil {
		return nil, err
	}
	return &readiness, nil
}

// WaitForCycle waits until a finished cycle with the given phase is reported
func (s *ServerTestHelper) WaitForCycle(phase status.CyclePhase, timeout time.Duration) *status.CycleStatus {
	var cycle *status.CycleStatus
	gomega.Eventually(func() (status.CyclePhase, error) {
		var err error
		cycle, err = s.GetStatus()
		if err != nil || cycle == nil {
			return "", err
		}
		return cycle.Phase, nil
	}, timeout, 200*time.Millisecond).Should(gomega.Equal(phase))
	return cycle
}
