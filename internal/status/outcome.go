// Package status provides per-operation outcomes, the status block written back
// to source records, and persistence of the last reconciliation cycle.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

// OutcomeSource identifies the synchronizer in status lines
const OutcomeSource = "BucketSync"

// Operation names recorded on outcomes
const (
	OperationFetchSource        = "fetchSource"
	OperationTranslate          = "translate"
	OperationStoreBucketStatus  = "storeBucketStatus"
	OperationUpdateBucketStatus = "updateBucketStatus"
	OperationCreateBucket       = "createBucket"
	OperationUpdateBucket       = "updateBucket"
	OperationDeleteBucket       = "deleteBucket"
)

// Outcome is the result of a single operation on one id
type Outcome struct {
	Time      time.Time
	Source    string
	Operation string
	Success   bool
	Message   string
	Detail    any
}

// Succeeded builds a successful outcome
func Succeeded(now time.Time, operation, message string) Outcome {
	return Outcome{Time: now, Source: OutcomeSource, Operation: operation, Success: true, Message: message}
}

// Failed builds a failed outcome from an error
func Failed(now time.Time, operation string, err error) Outcome {
	return Outcome{Time: now, Source: OutcomeSource, Operation: operation, Success: false, Message: err.Error(), Detail: err}
}

// Line formats the outcome as a single status line
func (o Outcome) Line() string {
	level := "INFO"
	if !o.Success {
		level = "ERROR"
	}
	return fmt.Sprintf("[%s] %s (%s): %s: %s", o.Time.UTC().Format(time.RFC3339), o.Source, o.Operation, level, o.Message)
}

// Merge folds outcomes for one id: success is the logical AND of all outcomes
// and messages are joined with newlines
func Merge(outcomes []Outcome) (bool, string) {
	success := true
	lines := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		success = success && o.Success
		lines = append(lines, o.Line())
	}
	return success, strings.Join(lines, "\n")
}

// statusBlockTimeFormat renders the cycle time in GMT, e.g. "Tue, 03 Mar 2015 12:46:33 GMT"
const statusBlockTimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// SourceStatusFor builds the status block written back to a source record
func SourceStatusFor(cycleTime time.Time, outcomes []Outcome) records.SourceStatus {
	success, block := Merge(outcomes)
	if block == "" {
		block = "(no messages)"
	}

	harvestStatus := records.HarvestStatusSuccess
	if !success {
		harvestStatus = records.HarvestStatusError
	}

	return records.SourceStatus{
		HarvestStatus:  harvestStatus,
		HarvestMessage: fmt.Sprintf("[%s] Bucket synchronization:\n%s", cycleTime.UTC().Format(statusBlockTimeFormat), block),
	}
}
