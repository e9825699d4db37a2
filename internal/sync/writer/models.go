package writer

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

// OriginLegacySync marks buckets owned by the synchronizer
const OriginLegacySync = "legacy-sync"

// Bucket is the persisted form of a bucket
type Bucket struct {
	ID           string         `gorm:"primaryKey;type:text"`
	Origin       string         `gorm:"type:text;index;not null"`
	FullName     string         `gorm:"type:text;not null"`
	DisplayName  string         `gorm:"type:text"`
	Description  string         `gorm:"type:text"`
	OwnerID      string         `gorm:"type:text"`
	Tags         datatypes.JSON `gorm:"not null"`
	AccessRights datatypes.JSON `gorm:"not null"`
	Suspended    bool           `gorm:"not null;default:false"`
	Definition   datatypes.JSON
	Created      time.Time `gorm:"not null"`
	Modified     time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time
}

// TableName returns the bucket table name
func (Bucket) TableName() string {
	return "data_buckets"
}

// BucketStatus is the persisted form of a bucket status record
type BucketStatus struct {
	ID         string `gorm:"primaryKey;type:text"`
	BucketPath string `gorm:"type:text"`
	Suspended  bool   `gorm:"not null;default:false"`
	UpdatedAt  time.Time
}

// TableName returns the bucket status table name
func (BucketStatus) TableName() string {
	return "data_bucket_status"
}

func bucketFromRecord(r *records.TargetRecord) (*Bucket, error) {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	rights := r.AccessRights
	if rights == nil {
		rights = map[string]string{}
	}
	rightsJSON, err := json.Marshal(rights)
	if err != nil {
		return nil, fmt.Errorf("failed to encode access rights: %w", err)
	}

	var definition datatypes.JSON
	if len(r.Definition) > 0 {
		definition = datatypes.JSON(r.Definition)
	}

	return &Bucket{
		ID:           r.ID,
		Origin:       OriginLegacySync,
		FullName:     r.FullName,
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		OwnerID:      r.OwnerID,
		Tags:         datatypes.JSON(tagsJSON),
		AccessRights: datatypes.JSON(rightsJSON),
		Suspended:    r.Suspended,
		Definition:   definition,
		Created:      r.Created.UTC(),
		Modified:     r.Modified.UTC(),
	}, nil
}

func (b *Bucket) toRecord() (*records.TargetRecord, error) {
	r := &records.TargetRecord{
		ID:          b.ID,
		FullName:    b.FullName,
		DisplayName: b.DisplayName,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		Suspended:   b.Suspended,
		Created:     b.Created,
		Modified:    b.Modified,
		Definition:  []byte(b.Definition),
	}
	if err := json.Unmarshal(b.Tags, &r.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of bucket %s: %w", b.ID, err)
	}
	if err := json.Unmarshal(b.AccessRights, &r.AccessRights); err != nil {
		return nil, fmt.Errorf("failed to decode access rights of bucket %s: %w", b.ID, err)
	}
	return r, nil
}
