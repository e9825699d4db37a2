package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

// MemoryStore is an in-memory Store, used for tests and local dry runs
type MemoryStore struct {
	mu       sync.RWMutex
	sources  map[string]records.SourceRecord
	statuses map[string]records.SourceStatus
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sources:  make(map[string]records.SourceRecord),
		statuses: make(map[string]records.SourceStatus),
	}
}

// Put adds or replaces a source record
func (m *MemoryStore) Put(src records.SourceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[src.ID] = src
}

// Remove deletes a source record and its status
func (m *MemoryStore) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sources, id)
	delete(m.statuses, id)
}

// Status returns the last status written for an id
func (m *MemoryStore) Status(id string) (records.SourceStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[id]
	return st, ok
}

// ListIndex returns the id and timestamp of every stored source
func (m *MemoryStore) ListIndex(_ context.Context) (records.SourceIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	index := make(records.SourceIndex, len(m.sources))
	for id, src := range m.sources {
		index[id] = src.Modified
	}
	return index, nil
}

// Get returns a copy of the source record for an id
func (m *MemoryStore) Get(_ context.Context, id string) (*records.SourceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src, ok := m.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	src.Payload = append([]byte(nil), src.Payload...)
	return &src, nil
}

// UpdateStatus records the status block for an existing source
func (m *MemoryStore) UpdateStatus(_ context.Context, id string, st records.SourceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.statuses[id] = st
	return nil
}

// LoadDocuments seeds the store from a JSON file holding an array of legacy
// source documents. Each document needs a "key"; "modified" is copied as the
// raw timestamp.
func (m *MemoryStore) LoadDocuments(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read source documents from %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("source documents in %s are not valid JSON", path)
	}

	docs := gjson.ParseBytes(data)
	if !docs.IsArray() {
		return fmt.Errorf("source documents in %s must be a JSON array", path)
	}

	var loadErr error
	docs.ForEach(func(i, doc gjson.Result) bool {
		key := doc.Get("key").String()
		if key == "" {
			loadErr = fmt.Errorf("document %d in %s has no key", i.Int(), path)
			return false
		}
		m.Put(records.SourceRecord{
			ID:       key,
			Modified: doc.Get("modified").String(),
			Payload:  []byte(doc.Raw),
		})
		return true
	})
	return loadErr
}
