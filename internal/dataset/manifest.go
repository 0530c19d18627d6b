package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spinlytics/casino-analytics/internal/repo"
	"github.com/spinlytics/casino-analytics/pkg/db/models"
	"github.com/spinlytics/casino-analytics/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Manifest persists dataset descriptors next to the cache so restarts and
// sibling instances can tell a populated entry from a half-finished one.
type Manifest struct {
	repo.Base
}

func NewManifest(db *gorm.DB) *Manifest {
	return &Manifest{Base: repo.NewBase(db)}
}

// LatestCached returns the most recent record with cached status for the
// named dataset, or nil when none exists.
func (m *Manifest) LatestCached(ctx context.Context, name string) (*models.DatasetRecord, error) {
	var rec models.DatasetRecord
	err := m.DB(ctx).
		Where("name = ? AND status = ?", name, enums.DatasetStatusCached).
		Order("fetched_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Record upserts the descriptor for one dataset version in the given
// lifecycle state. FetchedAt is only stamped once the copy is cached.
func (m *Manifest) Record(ctx context.Context, d Descriptor, status enums.DatasetStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid dataset status %q", status)
	}
	rec := models.DatasetRecord{
		ID:        uuid.New(),
		Name:      d.Name,
		Version:   d.Version,
		RemoteRef: d.RemoteRef,
		LocalPath: d.LocalPath,
		Checksum:  d.Checksum,
		SizeBytes: d.SizeBytes,
		Status:    status,
	}
	if status == enums.DatasetStatusCached {
		now := time.Now().UTC()
		rec.FetchedAt = &now
	}
	return m.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}, {Name: "version"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"remote_ref", "local_path", "checksum", "size_bytes", "status", "fetched_at", "updated_at",
			}),
		}).
		Create(&rec).Error
}

// ToDescriptor converts a manifest row back into the pipeline's descriptor.
func ToDescriptor(rec *models.DatasetRecord) Descriptor {
	d := Descriptor{
		Name:      rec.Name,
		Version:   rec.Version,
		RemoteRef: rec.RemoteRef,
		LocalPath: rec.LocalPath,
		Checksum:  rec.Checksum,
		SizeBytes: rec.SizeBytes,
	}
	if rec.FetchedAt != nil {
		d.FetchedAt = *rec.FetchedAt
	}
	return d
}
