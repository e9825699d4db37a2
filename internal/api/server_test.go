package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bucket-sync/internal/api"
	leadermocks "github.com/stacklok/toolhive-bucket-sync/internal/leader/mocks"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
	pkgsync "github.com/stacklok/toolhive-bucket-sync/internal/sync"
	syncmocks "github.com/stacklok/toolhive-bucket-sync/internal/sync/mocks"
)

type fixedCycles struct {
	cycle *status.CycleStatus
}

func (f fixedCycles) LastCycle() *status.CycleStatus {
	return f.cycle
}

func serve(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	// No expectations needed - health check doesn't consult the gate
	server := api.NewServer(fixedCycles{}, leadermocks.NewMockGate(ctrl))

	rr := serve(t, server, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	for _, isLeader := range []bool{true, false} {
		ctrl := gomock.NewController(t)
		gate := leadermocks.NewMockGate(ctrl)
		gate.EXPECT().IsLeader().Return(isLeader)

		server := api.NewServer(fixedCycles{}, gate, api.WithRole("sources"))
		rr := serve(t, server, "/readiness")

		assert.Equal(t, http.StatusOK, rr.Code)
		var response api.ReadinessResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, api.ReadinessResponse{Status: "ready", Role: "sources", Leader: isLeader}, response)
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	gate := leadermocks.NewMockGate(ctrl)

	rr := serve(t, api.NewServer(fixedCycles{}, gate), "/status")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "no reconciliation cycle has run yet")

	finished := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	cycle := &status.CycleStatus{
		Phase:      status.CyclePhasePartial,
		Message:    "Applied 3 changes, 1 failed",
		Created:    2,
		Updated:    1,
		Failed:     1,
		FinishedAt: &finished,
	}
	rr = serve(t, api.NewServer(fixedCycles{cycle: cycle}, gate), "/status")
	require.Equal(t, http.StatusOK, rr.Code)

	var response status.CycleStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, status.CyclePhasePartial, response.Phase)
	assert.Equal(t, 1, response.Failed)
	assert.Equal(t, 2, response.Created)
}

func TestPlanEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		plan       *pkgsync.Plan
		syncErr    *pkgsync.Error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "pending changes",
			plan:       &pkgsync.Plan{Create: []string{"A"}, Delete: []string{"C"}, Update: []string{}},
			wantStatus: http.StatusOK,
			wantBody:   `{"create":["A"],"delete":["C"],"update":[]}`,
		},
		{
			name: "index failure",
			syncErr: &pkgsync.Error{
				Err:     errors.New("connection refused"),
				Message: "failed to list sources: connection refused",
				Stage:   pkgsync.StageSourceIndex,
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"failed to list sources: connection refused"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			manager := syncmocks.NewMockManager(ctrl)
			manager.EXPECT().Plan(gomock.Any()).Return(tt.plan, tt.syncErr)

			server := api.NewServer(fixedCycles{}, leadermocks.NewMockGate(ctrl), api.WithPlanner(manager))
			rr := serve(t, server, "/plan")

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestPlanEndpoint_NotMountedWithoutPlanner(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	rr := serve(t, api.NewServer(fixedCycles{}, leadermocks.NewMockGate(ctrl)), "/plan")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("sync_leader 1\n"))
	})
	server := api.NewServer(fixedCycles{}, leadermocks.NewMockGate(ctrl), api.WithMetricsHandler(metrics))

	rr := serve(t, server, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sync_leader 1\n", rr.Body.String())
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	rr := serve(t, api.NewServer(fixedCycles{}, leadermocks.NewMockGate(ctrl)), "/version")
	assert.Equal(t, http.StatusOK, rr.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Contains(t, response, "version")
	assert.Contains(t, response, "commit")
	assert.Contains(t, response, "build_date")
	assert.Contains(t, response, "go_version")
	assert.Contains(t, response, "platform")
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	server := api.NewServer(fixedCycles{}, leadermocks.NewMockGate(ctrl), api.WithMiddlewares(api.LoggingMiddleware))
	rr := serve(t, server, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
}
