package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
	sourcemocks "github.com/stacklok/toolhive-bucket-sync/internal/sources/mocks"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
	writermocks "github.com/stacklok/toolhive-bucket-sync/internal/sync/writer/mocks"
	"github.com/stacklok/toolhive-bucket-sync/internal/translate"
	translatemocks "github.com/stacklok/toolhive-bucket-sync/internal/translate/mocks"
)

var fixedNow = time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func bucketFor(id string, suspended bool) *records.TargetRecord {
	return &records.TargetRecord{
		ID:        id,
		FullName:  "bucket/" + id,
		Suspended: suspended,
		Modified:  at(10),
	}
}

func operations(outcomes []status.Outcome) []string {
	ops := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		ops = append(ops, o.Operation)
	}
	return ops
}

func TestExecutor_FailureIsolation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := sourcemocks.NewMockStore(ctrl)
	w := writermocks.NewMockBucketWriter(ctrl)
	tr := translatemocks.NewMockTranslator(ctrl)

	for _, id := range []string{"a", "b", "c"} {
		src.EXPECT().Get(gomock.Any(), id).Return(&records.SourceRecord{ID: id}, nil)
	}
	tr.EXPECT().Translate(gomock.Any()).DoAndReturn(func(s *records.SourceRecord) (*records.TargetRecord, error) {
		if s.ID == "b" {
			return nil, &translate.Error{SourceID: "b", Field: "created", Err: errors.New("bad date")}
		}
		return bucketFor(s.ID, false), nil
	}).Times(3)
	w.EXPECT().StoreStatus(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	w.EXPECT().StoreBucket(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	exec := NewExecutor(src, w, tr, WithClock(fixedClock))
	results := exec.Execute(context.Background(), &Plan{Create: []string{"a", "b", "c"}})

	require.Len(t, results, 3)
	succeeded, failed := 0, 0
	for _, r := range results {
		assert.Equal(t, ActionCreate, r.Action)
		if r.Success() {
			succeeded++
			continue
		}
		failed++
		assert.Equal(t, "b", r.ID)
		assert.Equal(t, []string{status.OperationTranslate}, operations(r.Outcomes))
		assert.ErrorIs(t, r.Outcomes[0].Detail.(error), translate.ErrTranslation)
	}
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
}

func TestExecutor_CreateWritesStatusBeforeBucket(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := sourcemocks.NewMockStore(ctrl)
	w := writermocks.NewMockBucketWriter(ctrl)
	tr := translatemocks.NewMockTranslator(ctrl)

	bucket := bucketFor("a", true)
	src.EXPECT().Get(gomock.Any(), "a").Return(&records.SourceRecord{ID: "a"}, nil)
	tr.EXPECT().Translate(gomock.Any()).Return(bucket, nil)
	gomock.InOrder(
		w.EXPECT().StoreStatus(gomock.Any(), &records.TargetStatusRecord{ID: "a", BucketPath: "bucket/a", Suspended: true}).Return(nil),
		w.EXPECT().StoreBucket(gomock.Any(), bucket).Return(nil),
	)

	results := NewExecutor(src, w, tr, WithClock(fixedClock)).
		Execute(context.Background(), &Plan{Create: []string{"a"}})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success())
	assert.Equal(t, []string{status.OperationStoreBucketStatus, status.OperationCreateBucket},
		operations(results[0].Outcomes))
	assert.Equal(t, "suspended set to true", results[0].Outcomes[0].Message)
}

func TestExecutor_CreateStatusFailureSkipsBucket(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := sourcemocks.NewMockStore(ctrl)
	w := writermocks.NewMockBucketWriter(ctrl)
	tr := translatemocks.NewMockTranslator(ctrl)

	src.EXPECT().Get(gomock.Any(), "a").Return(&records.SourceRecord{ID: "a"}, nil)
	tr.EXPECT().Translate(gomock.Any()).Return(bucketFor("a", false), nil)
	w.EXPECT().StoreStatus(gomock.Any(), gomock.Any()).Return(errors.New("status table locked"))
	w.EXPECT().StoreBucket(gomock.Any(), gomock.Any()).Times(0)

	results := NewExecutor(src, w, tr).Execute(context.Background(), &Plan{Create: []string{"a"}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success())
	assert.Equal(t, []string{status.OperationStoreBucketStatus}, operations(results[0].Outcomes))
	assert.Contains(t, results[0].Outcomes[0].Message, "status table locked")
}

func TestExecutor_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		suspendedErr  error
		storeErr      error
		wantSuccess   bool
		wantFailedOps []string
	}{
		{name: "both writes succeed", wantSuccess: true},
		{name: "status flag failure still replaces bucket", suspendedErr: errors.New("boom"),
			wantFailedOps: []string{status.OperationUpdateBucketStatus}},
		{name: "bucket failure", storeErr: errors.New("boom"),
			wantFailedOps: []string{status.OperationUpdateBucket}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			src := sourcemocks.NewMockStore(ctrl)
			w := writermocks.NewMockBucketWriter(ctrl)
			tr := translatemocks.NewMockTranslator(ctrl)

			bucket := bucketFor("a", true)
			src.EXPECT().Get(gomock.Any(), "a").Return(&records.SourceRecord{ID: "a"}, nil)
			tr.EXPECT().Translate(gomock.Any()).Return(bucket, nil)
			gomock.InOrder(
				w.EXPECT().UpdateSuspended(gomock.Any(), "a", true).Return(tt.suspendedErr),
				w.EXPECT().StoreBucket(gomock.Any(), bucket).Return(tt.storeErr),
			)

			results := NewExecutor(src, w, tr).Execute(context.Background(), &Plan{Update: []string{"a"}})

			require.Len(t, results, 1)
			assert.Equal(t, ActionUpdate, results[0].Action)
			assert.Equal(t, tt.wantSuccess, results[0].Success())
			assert.Equal(t,
				[]string{status.OperationUpdateBucketStatus, status.OperationUpdateBucket},
				operations(results[0].Outcomes))

			var failedOps []string
			for _, o := range results[0].Outcomes {
				if !o.Success {
					failedOps = append(failedOps, o.Operation)
				}
			}
			assert.Equal(t, tt.wantFailedOps, failedOps)
		})
	}
}

func TestExecutor_DeleteAndFetchFailures(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := sourcemocks.NewMockStore(ctrl)
	w := writermocks.NewMockBucketWriter(ctrl)
	tr := translatemocks.NewMockTranslator(ctrl)

	src.EXPECT().Get(gomock.Any(), "gone").Return(nil, errors.New("connection reset"))
	w.EXPECT().DeleteBucket(gomock.Any(), "old").Return(nil)
	w.EXPECT().DeleteBucket(gomock.Any(), "broken").Return(errors.New("constraint violation"))

	results := NewExecutor(src, w, tr).Execute(context.Background(), &Plan{
		Delete: []string{"broken", "old"},
		Update: []string{"gone"},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "broken", results[0].ID)
	assert.False(t, results[0].Success())
	assert.Equal(t, "old", results[1].ID)
	assert.True(t, results[1].Success())
	assert.Equal(t, "gone", results[2].ID)
	assert.Equal(t, []string{status.OperationFetchSource}, operations(results[2].Outcomes))
}

func TestExecutor_RecoversPanics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := sourcemocks.NewMockStore(ctrl)
	w := writermocks.NewMockBucketWriter(ctrl)
	tr := translatemocks.NewMockTranslator(ctrl)

	src.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string) (*records.SourceRecord, error) {
			return &records.SourceRecord{ID: id}, nil
		}).Times(2)
	tr.EXPECT().Translate(gomock.Any()).DoAndReturn(func(s *records.SourceRecord) (*records.TargetRecord, error) {
		if s.ID == "bad" {
			panic("nil map write")
		}
		return bucketFor(s.ID, false), nil
	}).Times(2)
	w.EXPECT().StoreStatus(gomock.Any(), gomock.Any()).Return(nil)
	w.EXPECT().StoreBucket(gomock.Any(), gomock.Any()).Return(nil)

	results := NewExecutor(src, w, tr, WithClock(fixedClock)).
		Execute(context.Background(), &Plan{Create: []string{"bad", "good"}})

	require.Len(t, results, 2)
	assert.False(t, results[0].Success())
	assert.Contains(t, results[0].Outcomes[0].Message, "panic")
	assert.True(t, results[1].Success())
}

func TestExecutor_HandlersSeeEveryResult(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := sourcemocks.NewMockStore(ctrl)
	w := writermocks.NewMockBucketWriter(ctrl)
	tr := translatemocks.NewMockTranslator(ctrl)

	w.EXPECT().DeleteBucket(gomock.Any(), gomock.Any()).Return(nil).Times(5)

	var (
		mu   stdsync.Mutex
		seen []string
	)
	handler := func(_ context.Context, r Result) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.ID)
	}

	NewExecutor(src, w, tr).Execute(context.Background(),
		&Plan{Delete: []string{"1", "2", "3", "4", "5"}}, handler)

	assert.ElementsMatch(t, []string{"1", "2", "3", "4", "5"}, seen)
}

// slowTranslator tracks how many translations run at the same time
type slowTranslator struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowTranslator) Translate(src *records.SourceRecord) (*records.TargetRecord, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return bucketFor(src.ID, false), nil
}

func TestExecutor_Concurrency(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := sourcemocks.NewMockStore(ctrl)
	w := writermocks.NewMockBucketWriter(ctrl)

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%02d", i)
	}
	src.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string) (*records.SourceRecord, error) {
			return &records.SourceRecord{ID: id}, nil
		}).Times(len(ids))
	w.EXPECT().StoreStatus(gomock.Any(), gomock.Any()).Return(nil).Times(len(ids))
	w.EXPECT().StoreBucket(gomock.Any(), gomock.Any()).Return(nil).Times(len(ids))

	tr := &slowTranslator{}
	results := NewExecutor(src, w, tr, WithConcurrency(3)).
		Execute(context.Background(), &Plan{Create: ids})

	require.Len(t, results, len(ids))
	assert.LessOrEqual(t, tr.peak.Load(), int32(3))
	for i, r := range results {
		assert.Equal(t, ids[i], r.ID)
		assert.True(t, r.Success())
	}
}

func TestExecutor_EmptyPlan(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	exec := NewExecutor(sourcemocks.NewMockStore(ctrl), writermocks.NewMockBucketWriter(ctrl),
		translatemocks.NewMockTranslator(ctrl))

	assert.Empty(t, exec.Execute(context.Background(), &Plan{}))
	assert.Empty(t, exec.Execute(context.Background(), nil))
}

func TestResult_Success(t *testing.T) {
	t.Parallel()

	ok := status.Succeeded(fixedNow, status.OperationCreateBucket, "created")
	bad := status.Failed(fixedNow, status.OperationStoreBucketStatus, errors.New("x"))

	assert.True(t, Result{}.Success())
	assert.True(t, Result{Outcomes: []status.Outcome{ok, ok}}.Success())
	assert.False(t, Result{Outcomes: []status.Outcome{ok, bad}}.Success())
	assert.True(t, strings.HasPrefix(bad.Line(), "[2024-03-03T12:00:00Z]"))
}
