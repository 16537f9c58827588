package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncRunKind represents the kind of synchronization pass
type SyncRunKind string

const (
	SyncRunFull      SyncRunKind = "FULL"
	SyncRunDiscovery SyncRunKind = "DISCOVERY"
	SyncRunRefresh   SyncRunKind = "REFRESH"
)

// SyncRunStatus represents the status of a sync run
type SyncRunStatus string

const (
	SyncRunStarted   SyncRunStatus = "STARTED"
	SyncRunCompleted SyncRunStatus = "COMPLETED"
	SyncRunFailed    SyncRunStatus = "FAILED"
)

// SyncStats aggregates the item-level outcome counters of one pass
type SyncStats struct {
	ItemsSeen    int `json:"itemsSeen"`
	ItemsCreated int `json:"itemsCreated"`
	ItemsUpdated int `json:"itemsUpdated"`
	ItemsRetired int `json:"itemsRetired"`
	Errors       int `json:"errors"`
}

// SyncRun is one execution record of a synchronization pass for one supplier.
// Immutable once it reaches COMPLETED or FAILED.
type SyncRun struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index:idx_sync_runs_supplier" json:"supplierId"`

	Kind   SyncRunKind   `gorm:"type:varchar(50);not null;default:'FULL'" json:"kind"`
	Status SyncRunStatus `gorm:"type:varchar(50);not null;default:'STARTED';index:idx_sync_runs_status" json:"status"`

	ItemsSeen    int `gorm:"default:0" json:"itemsSeen"`
	ItemsCreated int `gorm:"default:0" json:"itemsCreated"`
	ItemsUpdated int `gorm:"default:0" json:"itemsUpdated"`
	ItemsRetired int `gorm:"default:0" json:"itemsRetired"`
	Errors       int `gorm:"default:0" json:"errors"`

	DurationSeconds int    `gorm:"default:0" json:"durationSeconds"`
	ErrorDetail     string `gorm:"type:text" json:"errorDetail,omitempty"`
	Stats           JSONB  `gorm:"type:jsonb;default:'{}'" json:"stats,omitempty"`

	StartedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP;index:idx_sync_runs_started" json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Relationships
	Supplier *SupplierAccount `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName specifies the table name for SyncRun
func (SyncRun) TableName() string {
	return "sync_runs"
}

// ApplyStats copies the counters into both the flat columns and the stats blob
func (r *SyncRun) ApplyStats(stats SyncStats) {
	r.ItemsSeen = stats.ItemsSeen
	r.ItemsCreated = stats.ItemsCreated
	r.ItemsUpdated = stats.ItemsUpdated
	r.ItemsRetired = stats.ItemsRetired
	r.Errors = stats.Errors
	r.Stats = JSONB{
		"itemsSeen":    stats.ItemsSeen,
		"itemsCreated": stats.ItemsCreated,
		"itemsUpdated": stats.ItemsUpdated,
		"itemsRetired": stats.ItemsRetired,
		"errors":       stats.Errors,
	}
}

// IsTerminal reports whether the run has reached a final status
func (r *SyncRun) IsTerminal() bool {
	return r.Status == SyncRunCompleted || r.Status == SyncRunFailed
}
