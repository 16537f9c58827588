package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dropshipping-service/internal/models"
)

// CatalogRepository handles external catalog database operations
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateItem creates a new catalog item
func (r *CatalogRepository) CreateItem(ctx context.Context, item *models.ExternalCatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetItemByID retrieves a catalog item by ID
func (r *CatalogRepository) GetItemByID(ctx context.Context, id uuid.UUID) (*models.ExternalCatalogItem, error) {
	var item models.ExternalCatalogItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByExternalID retrieves a catalog item by its supplier-scoped external
// ID. Returns (nil, nil) when the item is unknown.
func (r *CatalogRepository) GetItemByExternalID(ctx context.Context, supplierID uuid.UUID, externalID string) (*models.ExternalCatalogItem, error) {
	var item models.ExternalCatalogItem
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND external_id = ?", supplierID, externalID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem persists changes to a catalog item
func (r *CatalogRepository) UpdateItem(ctx context.Context, item *models.ExternalCatalogItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// CatalogFilter narrows catalog listings
type CatalogFilter struct {
	SupplierID    *uuid.UUID
	Category      string
	AvailableOnly bool
	PromotedOnly  bool
}

// ListItems retrieves catalog items with filters and pagination
func (r *CatalogRepository) ListItems(ctx context.Context, filter CatalogFilter, opts ListOptions) ([]models.ExternalCatalogItem, int64, error) {
	var items []models.ExternalCatalogItem
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ExternalCatalogItem{})
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Category != "" {
		query = query.Where("external_category = ?", filter.Category)
	}
	if filter.AvailableOnly {
		query = query.Where("available = ?", true)
	}
	if filter.PromotedOnly {
		query = query.Where("local_product_id IS NOT NULL")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}
	if err := query.Order("refreshed_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListStaleItems retrieves available items not refreshed since the cutoff
func (r *CatalogRepository) ListStaleItems(ctx context.Context, supplierID uuid.UUID, cutoff time.Time, limit int) ([]models.ExternalCatalogItem, error) {
	var items []models.ExternalCatalogItem
	query := r.db.WithContext(ctx).
		Where("supplier_id = ? AND available = ? AND refreshed_at < ?", supplierID, true, cutoff).
		Order("refreshed_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkUnavailable flags an item as unavailable without deleting it
func (r *CatalogRepository) MarkUnavailable(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.ExternalCatalogItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"available": false, "external_stock": 0}).Error
}

// FindSourcesForProduct lists available catalog items backing a local product,
// cheapest supplier cost first
func (r *CatalogRepository) FindSourcesForProduct(ctx context.Context, localProductID uuid.UUID) ([]models.ExternalCatalogItem, error) {
	var items []models.ExternalCatalogItem
	err := r.db.WithContext(ctx).
		Where("local_product_id = ? AND available = ?", localProductID, true).
		Order("supplier_cost ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CountBySupplier returns total, available and stale item counts for one supplier
func (r *CatalogRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID, staleCutoff time.Time) (total, available, stale int64, err error) {
	base := r.db.WithContext(ctx).Model(&models.ExternalCatalogItem{}).Where("supplier_id = ?", supplierID)

	if err = base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return
	}
	if err = base.Session(&gorm.Session{}).Where("available = ?", true).Count(&available).Error; err != nil {
		return
	}
	err = base.Session(&gorm.Session{}).Where("refreshed_at < ?", staleCutoff).Count(&stale).Error
	return
}

// DeleteUnavailableOlderThan purges items that have sat unavailable and
// unpromoted past the grace period
func (r *CatalogRepository) DeleteUnavailableOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("available = ? AND local_product_id IS NULL AND refreshed_at < ?", false, cutoff).
		Delete(&models.ExternalCatalogItem{})
	return result.RowsAffected, result.Error
}
