package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/stacklok/toolhive-bucket-sync/internal/sources"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
)

// Reporter writes the status block of each created or updated id back onto
// its source record
type Reporter struct {
	sources   sources.Store
	cycleTime time.Time
}

// NewReporter creates a Reporter whose status blocks are stamped with cycleTime
func NewReporter(src sources.Store, cycleTime time.Time) *Reporter {
	return &Reporter{sources: src, cycleTime: cycleTime}
}

// Report writes the status of one id. A deleted id has no source record left,
// so nothing is written for it. Write failures are logged and not returned:
// the next cycle derives the same status again.
func (r *Reporter) Report(ctx context.Context, result Result) {
	if result.Action == ActionDelete {
		return
	}

	st := status.SourceStatusFor(r.cycleTime, result.Outcomes)
	if err := r.sources.UpdateStatus(ctx, result.ID, st); err != nil {
		slog.Warn("Failed to write status back to source",
			"id", result.ID,
			"action", result.Action,
			"harvestStatus", st.HarvestStatus,
			"error", err)
		return
	}

	slog.Debug("Wrote status back to source", "id", result.ID, "harvestStatus", st.HarvestStatus)
}
