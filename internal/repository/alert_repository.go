package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dropshipping-service/internal/models"
)

// DedupWindow suppresses duplicate alerts raised within this span
const DedupWindow = time.Hour

// AlertRepository handles system alert database operations
type AlertRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db, now: time.Now}
}

// CreateIfNew persists the alert unless an unread alert with the same type and
// title was created within the dedup window. Returns true when a row was written.
func (r *AlertRepository) CreateIfNew(ctx context.Context, alert *models.SystemAlert) (bool, error) {
	var last models.SystemAlert
	err := r.db.WithContext(ctx).
		Where("type = ? AND title = ? AND read = ?", alert.Type, alert.Title, false).
		Order("created_at DESC").
		First(&last).Error
	switch {
	case err == nil:
		if suppressesDuplicate(last.CreatedAt, r.now()) {
			return false, nil
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return false, err
	}
	return true, nil
}

// suppressesDuplicate reports whether an unread alert created at createdAt
// still blocks a same-type, same-title alert at now
func suppressesDuplicate(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < DedupWindow
}

// AlertFilter narrows alert listings
type AlertFilter struct {
	UnreadOnly bool
	Type       models.AlertType
	Severity   models.AlertSeverity
	SupplierID *uuid.UUID
}

// List retrieves alerts with filters and pagination
func (r *AlertRepository) List(ctx context.Context, filter AlertFilter, opts ListOptions) ([]models.SystemAlert, int64, error) {
	var alerts []models.SystemAlert
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SystemAlert{})
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// CountUnread counts unread alerts
func (r *AlertRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SystemAlert{}).
		Where("read = ?", false).
		Count(&count).Error
	return count, err
}

// MarkRead flags one alert as read
func (r *AlertRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.SystemAlert{}).
		Where("id = ?", id).
		UpdateColumn("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flags every unread alert as read
func (r *AlertRepository) MarkAllRead(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.SystemAlert{}).
		Where("read = ?", false).
		UpdateColumn("read", true)
	return result.RowsAffected, result.Error
}

// DeleteReadOlderThan purges read alerts past the retention window
func (r *AlertRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&models.SystemAlert{})
	return result.RowsAffected, result.Error
}
