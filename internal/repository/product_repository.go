package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dropshipping-service/internal/models"
)

// ProductRepository handles the promoted local product rows this service owns
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create persists a new local product
func (r *ProductRepository) Create(ctx context.Context, product *models.LocalProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID retrieves a local product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LocalProduct, error) {
	var product models.LocalProduct
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdatePricing refreshes the sale and purchase price of a promoted product
func (r *ProductRepository) UpdatePricing(ctx context.Context, id uuid.UUID, salePrice, purchasePrice float64) error {
	return r.db.WithContext(ctx).Model(&models.LocalProduct{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sale_price":     salePrice,
			"purchase_price": purchasePrice,
		}).Error
}

// Deactivate takes a promoted product off sale
func (r *ProductRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.LocalProduct{}).
		Where("id = ?", id).
		UpdateColumn("active", false).Error
}
