// Package sources provides access to the legacy source store.
//
// The synchronizer only reads source documents and annotates them with a
// status block; it never creates, deletes or otherwise changes them.
package sources

import (
	"context"
	"errors"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

// DefaultExtractType is the extract type of sources that carry a bucket definition
const DefaultExtractType = "V2DataBucket"

// ErrNotFound is returned when a source id does not exist or is out of scope
var ErrNotFound = errors.New("source not found")

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store is the source store as seen by the synchronizer
type Store interface {
	// ListIndex returns the id and raw last-modified timestamp of every in-scope source
	ListIndex(ctx context.Context) (records.SourceIndex, error)

	// Get returns the full source record for an id
	Get(ctx context.Context, id string) (*records.SourceRecord, error)

	// UpdateStatus writes the status block onto a source record
	UpdateStatus(ctx context.Context, id string, st records.SourceStatus) error
}
