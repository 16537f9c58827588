package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dropshipping-service/internal/models"
)

// SupplierRepository handles supplier account database operations
type SupplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Create persists a new supplier account
func (r *SupplierRepository) Create(ctx context.Context, supplier *models.SupplierAccount) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// GetSupplier retrieves a supplier account by ID
func (r *SupplierRepository) GetSupplier(ctx context.Context, id uuid.UUID) (*models.SupplierAccount, error) {
	var supplier models.SupplierAccount
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// List retrieves supplier accounts with pagination
func (r *SupplierRepository) List(ctx context.Context, opts ListOptions) ([]models.SupplierAccount, int64, error) {
	var suppliers []models.SupplierAccount
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SupplierAccount{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}
	if err := query.Order("created_at DESC").Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}
	return suppliers, total, nil
}

// ListActive retrieves all active supplier accounts
func (r *SupplierRepository) ListActive(ctx context.Context) ([]models.SupplierAccount, error) {
	var suppliers []models.SupplierAccount
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("display_name").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Update persists changes to a supplier account
func (r *SupplierRepository) Update(ctx context.Context, supplier *models.SupplierAccount) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// Delete removes a supplier account
func (r *SupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.SupplierAccount{}, "id = ?", id).Error
}

// IncrementRequests atomically bumps today's request counter
func (r *SupplierRepository) IncrementRequests(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.SupplierAccount{}).
		Where("id = ?", id).
		UpdateColumn("requests_today", gorm.Expr("requests_today + 1")).Error
}

// ResetDailyCounters zeroes every account's request counter. Runs once per day
// from the cleanup pass.
func (r *SupplierRepository) ResetDailyCounters(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.SupplierAccount{}).
		Where("requests_today > 0").
		UpdateColumn("requests_today", 0)
	return result.RowsAffected, result.Error
}

// UpdateLastSync stamps the supplier's last successful sync time
func (r *SupplierRepository) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.SupplierAccount{}).
		Where("id = ?", id).
		UpdateColumn("last_sync_at", at).Error
}
