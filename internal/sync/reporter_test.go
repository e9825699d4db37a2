package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
	sourcemocks "github.com/stacklok/toolhive-bucket-sync/internal/sources/mocks"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
)

func TestReporter_Report(t *testing.T) {
	t.Parallel()

	ok := status.Succeeded(fixedNow, status.OperationUpdateBucketStatus, "suspended set to false")
	bad := status.Failed(fixedNow, status.OperationUpdateBucket, errors.New("deadlock detected"))

	tests := []struct {
		name       string
		result     Result
		writeErr   error
		wantWrite  bool
		wantStatus string
	}{
		{
			name:       "successful create",
			result:     Result{ID: "a", Action: ActionCreate, Outcomes: []status.Outcome{ok}},
			wantWrite:  true,
			wantStatus: records.HarvestStatusSuccess,
		},
		{
			name:       "partially failed update",
			result:     Result{ID: "a", Action: ActionUpdate, Outcomes: []status.Outcome{ok, bad}},
			wantWrite:  true,
			wantStatus: records.HarvestStatusError,
		},
		{
			name:       "write failure is swallowed",
			result:     Result{ID: "a", Action: ActionUpdate, Outcomes: []status.Outcome{ok}},
			writeErr:   errors.New("source db read-only"),
			wantWrite:  true,
			wantStatus: records.HarvestStatusSuccess,
		},
		{
			name:   "delete is not reported",
			result: Result{ID: "a", Action: ActionDelete, Outcomes: []status.Outcome{ok}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			src := sourcemocks.NewMockStore(ctrl)

			if tt.wantWrite {
				src.EXPECT().UpdateStatus(gomock.Any(), tt.result.ID, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, st records.SourceStatus) error {
						assert.Equal(t, tt.wantStatus, st.HarvestStatus)
						assert.Contains(t, st.HarvestMessage, "[Sun, 03 Mar 2024 12:00:00 GMT] Bucket synchronization:")
						return tt.writeErr
					})
			} else {
				src.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			}

			NewReporter(src, fixedNow).Report(context.Background(), tt.result)
		})
	}
}
