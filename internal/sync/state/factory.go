package state

import (
	"fmt"

	"github.com/stacklok/toolhive-bucket-sync/internal/config"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
)

// NewStatusPersistence creates the cycle status store selected by sync.statusStore.
//
// For file storage, it returns a store writing JSON files under the data
// directory. For database storage, it returns a store writing to PostgreSQL
// through db, which must not be nil.
func NewStatusPersistence(cfg *config.Config, db Querier) (status.Persistence, error) {
	switch cfg.Sync.GetStatusStore() {
	case config.StatusStoreDatabase:
		if db == nil {
			return nil, fmt.Errorf("database pool is required when the status store is database")
		}
		return NewDBStatusPersistence(db), nil
	case config.StatusStoreFile:
		return status.NewFileStatusPersistence(cfg.GetDataDir()), nil
	default:
		return nil, fmt.Errorf("unsupported status store: %q", cfg.Sync.StatusStore)
	}
}
