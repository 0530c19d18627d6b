package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/spinlytics/casino-analytics/pkg/enums"
)

// DatasetRecord is the manifest entry for one cached dataset version.
// Immutable once status reaches cached; force refresh writes a new row.
type DatasetRecord struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name      string              `gorm:"column:name;not null;index:idx_dataset_name_version,unique,priority:1"`
	Version   string              `gorm:"column:version;not null;index:idx_dataset_name_version,unique,priority:2"`
	RemoteRef string              `gorm:"column:remote_ref;not null"`
	LocalPath string              `gorm:"column:local_path;not null"`
	Checksum  string              `gorm:"column:checksum;not null"`
	SizeBytes int64               `gorm:"column:size_bytes;not null;default:0"`
	Status    enums.DatasetStatus `gorm:"column:status;not null;default:'fetching'"`
	FetchedAt *time.Time          `gorm:"column:fetched_at"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the manifest table name.
func (DatasetRecord) TableName() string {
	return "dataset_records"
}
