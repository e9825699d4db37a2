package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go Persistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "cycle-status.json"
)

// Persistence defines the interface for cycle status persistence
type Persistence interface {
	// SaveStatus saves the status of the last cycle for a role
	SaveStatus(ctx context.Context, role string, status *CycleStatus) error

	// LoadStatus loads the status of the last cycle for a role
	// Returns an empty CycleStatus if nothing was saved yet
	LoadStatus(ctx context.Context, role string) (*CycleStatus, error)
}

// fileStatusPersistence implements Persistence using local filesystem
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence
// basePath is the base directory where per-role status files will be stored
func NewFileStatusPersistence(basePath string) Persistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

// SaveStatus saves the cycle status to a JSON file in a role-specific directory
func (f *fileStatusPersistence) SaveStatus(_ context.Context, role string, status *CycleStatus) error {
	roleDir := filepath.Join(f.basePath, role)
	if err := os.MkdirAll(roleDir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory for role '%s': %w", role, err)
	}

	filePath := filepath.Join(roleDir, StatusFileName)

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data for role '%s': %w", role, err)
	}

	// Write to temporary file first, then rename
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file for role '%s': %w", role, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file for role '%s': %w", role, err)
	}

	return nil
}

// LoadStatus loads the cycle status from a JSON file for a role
func (f *fileStatusPersistence) LoadStatus(_ context.Context, role string) (*CycleStatus, error) {
	filePath := filepath.Join(f.basePath, role, StatusFileName)

	// #nosec G304 -- filePath is built from the configured data directory and role name
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &CycleStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for role '%s': %w", role, err)
	}

	var status CycleStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for role '%s': %w", role, err)
	}

	return &status, nil
}
