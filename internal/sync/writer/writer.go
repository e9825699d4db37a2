// Package writer contains the BucketWriter interface and implementations
package writer

import (
	"context"
	"errors"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

//go:generate mockgen -destination=mocks/mock_bucket_writer.go -package=mocks -source=writer.go BucketWriter

// ErrNotFound is returned when a bucket id does not exist in the management store
var ErrNotFound = errors.New("bucket not found")

// ErrNotOwned is returned when a bucket id is taken by a bucket the synchronizer did not create
var ErrNotOwned = errors.New("bucket is not owned by the synchronizer")

// BucketWriter defines the target store operations needed to apply a reconciliation plan.
// Only buckets created by the synchronizer are in scope.
type BucketWriter interface {
	// ListIndex returns the id and last-modified time of every in-scope bucket
	ListIndex(ctx context.Context) (records.TargetIndex, error)

	// StoreBucket creates or replaces a bucket
	StoreBucket(ctx context.Context, bucket *records.TargetRecord) error

	// DeleteBucket removes a bucket and its status record
	DeleteBucket(ctx context.Context, id string) error

	// StoreStatus creates or replaces the status record of a bucket
	StoreStatus(ctx context.Context, st *records.TargetStatusRecord) error

	// UpdateSuspended sets the suspended flag on the status record of a bucket
	UpdateSuspended(ctx context.Context, id string, suspended bool) error
}
