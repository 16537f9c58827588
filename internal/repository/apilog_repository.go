package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dropshipping-service/internal/models"
)

// ApiLogRepository handles API call log database operations
type ApiLogRepository struct {
	db *gorm.DB
}

// NewApiLogRepository creates a new API log repository
func NewApiLogRepository(db *gorm.DB) *ApiLogRepository {
	return &ApiLogRepository{db: db}
}

// LogCall persists one API call record
func (r *ApiLogRepository) LogCall(ctx context.Context, log *models.ApiCallLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// List retrieves call logs for a supplier with pagination
func (r *ApiLogRepository) List(ctx context.Context, supplierID uuid.UUID, opts ListOptions) ([]models.ApiCallLog, int64, error) {
	var logs []models.ApiCallLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ApiCallLog{}).Where("supplier_id = ?", supplierID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CallStats aggregates API health over a window
type CallStats struct {
	Total        int64
	Errors       int64
	AvgLatencyMs float64
}

// StatsSince computes call volume, error count and mean latency after the cutoff
func (r *ApiLogRepository) StatsSince(ctx context.Context, since time.Time) (*CallStats, error) {
	stats := &CallStats{}

	base := r.db.WithContext(ctx).Model(&models.ApiCallLog{}).Where("created_at >= ?", since)
	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("error_message <> '' OR status_code >= 400").
		Count(&stats.Errors).Error; err != nil {
		return nil, err
	}

	var avg *float64
	if err := base.Session(&gorm.Session{}).
		Select("AVG(latency_ms)").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AvgLatencyMs = *avg
	}
	return stats, nil
}

// DeleteOlderThan purges call logs past the retention window
func (r *ApiLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ApiCallLog{})
	return result.RowsAffected, result.Error
}
