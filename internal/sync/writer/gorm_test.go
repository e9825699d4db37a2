package writer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

func setupGormWriter(t *testing.T) (*GormWriter, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	w, err := NewGormWriter(db)
	require.NoError(t, err)
	require.NoError(t, w.Migrate(context.Background()))
	return w, db
}

func testBucket(id string, modified time.Time) *records.TargetRecord {
	return &records.TargetRecord{
		ID:           id,
		FullName:     "/buckets" + id,
		DisplayName:  "Bucket " + id,
		Description:  "synced from legacy",
		OwnerID:      "owner-1",
		Tags:         []string{"alpha", "beta"},
		AccessRights: map[string]string{"community-1": "rw"},
		Created:      modified.Add(-time.Hour),
		Modified:     modified,
		Definition:   []byte(`{"full_name":"/buckets` + id + `"}`),
	}
}

func TestNewGormWriter_RequiresDB(t *testing.T) {
	t.Parallel()

	_, err := NewGormWriter(nil)
	require.Error(t, err)
}

func TestGormWriter_StoreAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w, db := setupGormWriter(t)
	t1 := time.Date(2015, time.March, 3, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	require.NoError(t, w.StoreBucket(ctx, testBucket("/a", t1)))
	require.NoError(t, w.StoreBucket(ctx, testBucket("/b", t2)))

	// Buckets created outside the synchronizer are out of scope
	require.NoError(t, db.Create(&Bucket{
		ID:           "/manual",
		Origin:       "user",
		FullName:     "/manual",
		Tags:         []byte(`[]`),
		AccessRights: []byte(`{}`),
		Created:      t1,
		Modified:     t1,
	}).Error)

	index, err := w.ListIndex(ctx)
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.True(t, index["/a"].Equal(t1))
	assert.True(t, index["/b"].Equal(t2))
	assert.NotContains(t, index, "/manual")

	got, err := w.GetBucket(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "/buckets/a", got.FullName)
	assert.Equal(t, []string{"alpha", "beta"}, got.Tags)
	assert.Equal(t, map[string]string{"community-1": "rw"}, got.AccessRights)
	assert.JSONEq(t, `{"full_name":"/buckets/a"}`, string(got.Definition))
}

func TestGormWriter_StoreBucketReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w, _ := setupGormWriter(t)
	t1 := time.Date(2015, time.March, 3, 12, 0, 0, 0, time.UTC)

	require.NoError(t, w.StoreBucket(ctx, testBucket("/a", t1)))

	replacement := testBucket("/a", t1.Add(time.Hour))
	replacement.DisplayName = "Renamed"
	replacement.Tags = []string{"gamma"}
	replacement.AccessRights = map[string]string{}
	replacement.Suspended = true
	require.NoError(t, w.StoreBucket(ctx, replacement))

	got, err := w.GetBucket(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.DisplayName)
	assert.Equal(t, []string{"gamma"}, got.Tags)
	assert.Empty(t, got.AccessRights)
	assert.True(t, got.Suspended)
	assert.True(t, got.Modified.Equal(t1.Add(time.Hour)))
}

func TestGormWriter_StoreBucketLeavesForeignBucket(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w, db := setupGormWriter(t)
	t1 := time.Date(2015, time.March, 3, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&Bucket{
		ID:           "/manual",
		Origin:       "user",
		FullName:     "/manual",
		DisplayName:  "Hand made",
		Tags:         []byte(`[]`),
		AccessRights: []byte(`{}`),
		Created:      t1,
		Modified:     t1,
	}).Error)

	err := w.StoreBucket(ctx, testBucket("/manual", t1.Add(time.Hour)))
	require.ErrorIs(t, err, ErrNotOwned)

	var row Bucket
	require.NoError(t, db.Where("id = ?", "/manual").First(&row).Error)
	assert.Equal(t, "user", row.Origin)
	assert.Equal(t, "Hand made", row.DisplayName)
	assert.True(t, row.Modified.Equal(t1))

	index, err := w.ListIndex(ctx)
	require.NoError(t, err)
	assert.NotContains(t, index, "/manual")
}

func TestGormWriter_DeleteBucket(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w, _ := setupGormWriter(t)
	now := time.Date(2015, time.March, 3, 12, 0, 0, 0, time.UTC)

	bucket := testBucket("/a", now)
	require.NoError(t, w.StoreBucket(ctx, bucket))
	require.NoError(t, w.StoreStatus(ctx, records.StatusFor(bucket)))

	require.NoError(t, w.DeleteBucket(ctx, "/a"))

	_, err := w.GetBucket(ctx, "/a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = w.GetStatus(ctx, "/a")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, w.DeleteBucket(ctx, "/a"), ErrNotFound)
}

func TestGormWriter_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w, _ := setupGormWriter(t)

	require.NoError(t, w.StoreStatus(ctx, &records.TargetStatusRecord{ID: "/a", BucketPath: "/buckets/a"}))
	require.NoError(t, w.UpdateSuspended(ctx, "/a", true))

	st, err := w.GetStatus(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "/buckets/a", st.BucketPath)
	assert.True(t, st.Suspended)

	require.NoError(t, w.UpdateSuspended(ctx, "/a", false))
	st, err = w.GetStatus(ctx, "/a")
	require.NoError(t, err)
	assert.False(t, st.Suspended)

	// Missing status records are created
	require.NoError(t, w.UpdateSuspended(ctx, "/b", true))
	st, err = w.GetStatus(ctx, "/b")
	require.NoError(t, err)
	assert.True(t, st.Suspended)

	assert.Error(t, w.StoreStatus(ctx, &records.TargetStatusRecord{}))
}
