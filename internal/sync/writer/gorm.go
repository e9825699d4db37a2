package writer

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

var bucketColumns = []string{
	"origin", "full_name", "display_name", "description", "owner_id", "tags",
	"access_rights", "suspended", "definition", "created", "modified", "updated_at",
}

// GormWriter is a BucketWriter persisting buckets through gorm
type GormWriter struct {
	db *gorm.DB
}

var _ BucketWriter = (*GormWriter)(nil)

// NewGormWriter creates a new GormWriter with the given database handle.
// The caller is responsible for closing the database when done.
func NewGormWriter(db *gorm.DB) (*GormWriter, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm database is required")
	}
	return &GormWriter{db: db}, nil
}

// Migrate creates or updates the bucket tables
func (w *GormWriter) Migrate(ctx context.Context) error {
	if err := w.db.WithContext(ctx).AutoMigrate(&Bucket{}, &BucketStatus{}); err != nil {
		return fmt.Errorf("failed to migrate bucket tables: %w", err)
	}
	return nil
}

// ListIndex returns the id and modified time of every bucket owned by the synchronizer
func (w *GormWriter) ListIndex(ctx context.Context) (records.TargetIndex, error) {
	var rows []Bucket
	err := w.db.WithContext(ctx).
		Model(&Bucket{}).
		Select("id", "modified").
		Where("origin = ?", OriginLegacySync).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	index := make(records.TargetIndex, len(rows))
	for _, row := range rows {
		index[row.ID] = row.Modified
	}
	return index, nil
}

// StoreBucket inserts the bucket or replaces every column of an existing one.
// A bucket with the same id but another origin is left untouched and
// ErrNotOwned is returned.
func (w *GormWriter) StoreBucket(ctx context.Context, bucket *records.TargetRecord) error {
	if bucket == nil || bucket.ID == "" {
		return fmt.Errorf("bucket id is required")
	}

	row, err := bucketFromRecord(bucket)
	if err != nil {
		return err
	}

	res := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: Bucket{}.TableName(), Name: "origin"}, Value: OriginLegacySync},
		}},
		DoUpdates: clause.AssignmentColumns(bucketColumns),
	}).Create(row)
	if res.Error != nil {
		return fmt.Errorf("failed to store bucket %s: %w", bucket.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotOwned, bucket.ID)
	}
	return nil
}

// DeleteBucket removes a bucket owned by the synchronizer along with its status record
func (w *GormWriter) DeleteBucket(ctx context.Context, id string) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND origin = ?", id, OriginLegacySync).Delete(&Bucket{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete bucket %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err := tx.Where("id = ?", id).Delete(&BucketStatus{}).Error; err != nil {
			return fmt.Errorf("failed to delete status of bucket %s: %w", id, err)
		}
		return nil
	})
}

// StoreStatus inserts or replaces a bucket status record
func (w *GormWriter) StoreStatus(ctx context.Context, st *records.TargetStatusRecord) error {
	if st == nil || st.ID == "" {
		return fmt.Errorf("bucket status id is required")
	}

	row := &BucketStatus{ID: st.ID, BucketPath: st.BucketPath, Suspended: st.Suspended}
	err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"bucket_path", "suspended", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to store status of bucket %s: %w", st.ID, err)
	}
	return nil
}

// UpdateSuspended sets the suspended flag, creating the status record when missing
func (w *GormWriter) UpdateSuspended(ctx context.Context, id string, suspended bool) error {
	row := &BucketStatus{ID: id, Suspended: suspended}
	err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"suspended", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to update suspended flag of bucket %s: %w", id, err)
	}
	return nil
}

// GetBucket returns a bucket by id
func (w *GormWriter) GetBucket(ctx context.Context, id string) (*records.TargetRecord, error) {
	var row Bucket
	err := w.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get bucket %s: %w", id, err)
	}
	return row.toRecord()
}

// GetStatus returns the status record of a bucket
func (w *GormWriter) GetStatus(ctx context.Context, id string) (*records.TargetStatusRecord, error) {
	var row BucketStatus
	err := w.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get status of bucket %s: %w", id, err)
	}
	return &records.TargetStatusRecord{ID: row.ID, BucketPath: row.BucketPath, Suspended: row.Suspended}, nil
}
