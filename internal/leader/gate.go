// Package leader provides leader election gates that decide which synchronizer
// instance in a cluster is allowed to apply changes.
//
// A Gate is registered once with TryAcquire and then queried with IsLeader on
// every reconciliation tick. IsLeader reflects the live state of the underlying
// election and reports false whenever that state is unknown.
package leader

import (
	"context"
	"os"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mock_gate.go -package=mocks -source=gate.go Gate

// Gate is the leader election contract used by the coordinator
type Gate interface {
	// TryAcquire registers this process as a candidate for the role. It does not
	// wait for leadership. Calling it again after a successful registration is a no-op.
	TryAcquire(ctx context.Context) error

	// IsLeader reports whether this process currently holds the role
	IsLeader() bool

	// Close withdraws the candidacy and releases the role when held
	Close() error
}

// NewIdentity returns a candidate identity unique to this process
func NewIdentity() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "_" + uuid.NewString()
}
