package writer

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

// MemoryWriter is an in-memory BucketWriter, used for tests and dry runs
type MemoryWriter struct {
	mu       sync.RWMutex
	buckets  map[string]records.TargetRecord
	statuses map[string]records.TargetStatusRecord
}

var _ BucketWriter = (*MemoryWriter)(nil)

// NewMemoryWriter creates an empty in-memory writer
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{
		buckets:  make(map[string]records.TargetRecord),
		statuses: make(map[string]records.TargetStatusRecord),
	}
}

// ListIndex returns the id and modified time of every bucket
func (m *MemoryWriter) ListIndex(_ context.Context) (records.TargetIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	index := make(records.TargetIndex, len(m.buckets))
	for id, b := range m.buckets {
		index[id] = b.Modified
	}
	return index, nil
}

// StoreBucket stores a copy of the bucket, replacing any previous one
func (m *MemoryWriter) StoreBucket(_ context.Context, bucket *records.TargetRecord) error {
	if bucket == nil || bucket.ID == "" {
		return fmt.Errorf("bucket id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket.ID] = cloneBucket(*bucket)
	return nil
}

// DeleteBucket removes a bucket and its status record
func (m *MemoryWriter) DeleteBucket(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.buckets, id)
	delete(m.statuses, id)
	return nil
}

// StoreStatus stores a copy of the status record
func (m *MemoryWriter) StoreStatus(_ context.Context, st *records.TargetStatusRecord) error {
	if st == nil || st.ID == "" {
		return fmt.Errorf("bucket status id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[st.ID] = *st
	return nil
}

// UpdateSuspended sets the suspended flag, creating the status record when missing
func (m *MemoryWriter) UpdateSuspended(_ context.Context, id string, suspended bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.statuses[id]
	st.ID = id
	st.Suspended = suspended
	m.statuses[id] = st
	return nil
}

// Bucket returns a copy of a stored bucket
func (m *MemoryWriter) Bucket(id string) (records.TargetRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[id]
	if !ok {
		return records.TargetRecord{}, false
	}
	return cloneBucket(b), true
}

// Status returns a copy of a stored status record
func (m *MemoryWriter) Status(id string) (records.TargetStatusRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[id]
	return st, ok
}

// IDs returns the sorted ids of every stored bucket
func (m *MemoryWriter) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.buckets))
}

func cloneBucket(b records.TargetRecord) records.TargetRecord {
	b.Tags = slices.Clone(b.Tags)
	b.AccessRights = maps.Clone(b.AccessRights)
	b.Definition = slices.Clone(b.Definition)
	return b
}
