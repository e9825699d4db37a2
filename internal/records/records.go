// Package records defines the record types exchanged between the legacy source
// store and the bucket management store.
package records

import "time"

const (
	// HarvestStatusSuccess is written back when every operation for a source succeeded
	HarvestStatusSuccess = "success"

	// HarvestStatusError is written back when at least one operation for a source failed
	HarvestStatusError = "error"
)

// SourceRecord is a legacy source document as stored in the source store.
// It is read and status-annotated by the synchronizer, never otherwise mutated.
type SourceRecord struct {
	// ID is the legacy source key
	ID string

	// Modified is the raw last-modified timestamp. Several legacy encodings exist.
	Modified string

	// Payload is the full JSON document consumed by the translator
	Payload []byte
}

// SourceStatus is the status block written back onto a source record
type SourceStatus struct {
	HarvestStatus  string `json:"harvest_status"`
	HarvestMessage string `json:"harvest_message"`
}

// TargetRecord is a bucket in the management store, derived 1:1 from a SourceRecord
type TargetRecord struct {
	ID           string
	FullName     string
	DisplayName  string
	Description  string
	OwnerID      string
	Tags         []string
	AccessRights map[string]string
	Suspended    bool
	Created      time.Time
	Modified     time.Time

	// Definition is the raw bucket definition carried by the source pipeline
	Definition []byte
}

// TargetStatusRecord holds operational flags for a bucket, independent of
// the bucket record lifecycle
type TargetStatusRecord struct {
	ID         string
	BucketPath string
	Suspended  bool
}

// StatusFor builds the status record matching a translated bucket
func StatusFor(bucket *TargetRecord) *TargetStatusRecord {
	return &TargetStatusRecord{
		ID:         bucket.ID,
		BucketPath: bucket.FullName,
		Suspended:  bucket.Suspended,
	}
}

// SourceIndex maps source ids to their raw last-modified timestamps
type SourceIndex map[string]string

// TargetIndex maps bucket ids to their last-modified time
type TargetIndex map[string]time.Time
