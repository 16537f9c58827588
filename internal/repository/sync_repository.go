package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dropshipping-service/internal/models"
)

// SyncRepository handles sync run database operations
type SyncRepository struct {
	db *gorm.DB
}

// NewSyncRepository creates a new sync repository
func NewSyncRepository(db *gorm.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

// CreateRun persists a new sync run record
func (r *SyncRepository) CreateRun(ctx context.Context, run *models.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// UpdateRun persists changes to a sync run record
func (r *SyncRepository) UpdateRun(ctx context.Context, run *models.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// GetLastRun returns the most recent run for a supplier, or (nil, nil)
// when none exists
func (r *SyncRepository) GetLastRun(ctx context.Context, supplierID uuid.UUID) (*models.SyncRun, error) {
	var run models.SyncRun
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns retrieves recent runs for a supplier with pagination
func (r *SyncRepository) ListRuns(ctx context.Context, supplierID uuid.UUID, opts ListOptions) ([]models.SyncRun, int64, error) {
	var runs []models.SyncRun
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SyncRun{}).Where("supplier_id = ?", supplierID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}
	if err := query.Order("started_at DESC").Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// CountFailedSince counts failed runs for a supplier after the cutoff
func (r *SyncRepository) CountFailedSince(ctx context.Context, supplierID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SyncRun{}).
		Where("supplier_id = ? AND status = ? AND started_at >= ?", supplierID, models.SyncRunFailed, since).
		Count(&count).Error
	return count, err
}

// HasCompletedSince reports whether any run completed for a supplier after the cutoff
func (r *SyncRepository) HasCompletedSince(ctx context.Context, supplierID uuid.UUID, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SyncRun{}).
		Where("supplier_id = ? AND status = ? AND started_at >= ?", supplierID, models.SyncRunCompleted, since).
		Count(&count).Error
	return count > 0, err
}

// DeleteOlderThan purges run records past the retention window
func (r *SyncRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&models.SyncRun{})
	return result.RowsAffected, result.Error
}
