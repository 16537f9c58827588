package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dropshipping-service/internal/models"
)

// OrderRepository handles local order and supplier order database operations
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// OrderTx is the slice of order operations available inside a transaction
type OrderTx interface {
	CreateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error
	UpdateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error
	ListLegsByLocalOrder(ctx context.Context, localOrderID uuid.UUID) ([]models.SupplierOrder, error)
	UpdateLocalOrderStatus(ctx context.Context, id uuid.UUID, status models.LocalOrderStatus) error
}

// Transaction runs fn against a transactional copy of the repository
func (r *OrderRepository) Transaction(ctx context.Context, fn func(tx OrderTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&OrderRepository{db: tx})
	})
}

// GetLocalOrder retrieves a local order with its lines
func (r *OrderRepository) GetLocalOrder(ctx context.Context, id uuid.UUID) (*models.LocalOrder, error) {
	var order models.LocalOrder
	if err := r.db.WithContext(ctx).Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersAwaitingDispatch lists confirmed local orders that have
// dropshipping lines but no supplier legs yet
func (r *OrderRepository) ListOrdersAwaitingDispatch(ctx context.Context, limit int) ([]models.LocalOrder, error) {
	var orders []models.LocalOrder
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("status = ?", models.LocalOrderConfirmed).
		Where("NOT EXISTS (SELECT 1 FROM supplier_orders so WHERE so.local_order_id = local_orders.id)").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateLocalOrderStatus persists the aggregate status of a local order
func (r *OrderRepository) UpdateLocalOrderStatus(ctx context.Context, id uuid.UUID, status models.LocalOrderStatus) error {
	return r.db.WithContext(ctx).Model(&models.LocalOrder{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// CreateSupplierOrder persists a new supplier order leg
func (r *OrderRepository) CreateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetSupplierOrder retrieves a supplier order leg by ID
func (r *OrderRepository) GetSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	var order models.SupplierOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateSupplierOrder persists changes to a supplier order leg
func (r *OrderRepository) UpdateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// ListActiveSupplierOrders lists legs that have not reached a terminal state
func (r *OrderRepository) ListActiveSupplierOrders(ctx context.Context) ([]models.SupplierOrder, error) {
	var orders []models.SupplierOrder
	err := r.db.WithContext(ctx).
		Where("external_status NOT IN ?", []models.SupplierOrderStatus{
			models.OrderDelivered, models.OrderCancelled, models.OrderReturned,
		}).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListLegsByLocalOrder lists all supplier legs of one local order
func (r *OrderRepository) ListLegsByLocalOrder(ctx context.Context, localOrderID uuid.UUID) ([]models.SupplierOrder, error) {
	var orders []models.SupplierOrder
	err := r.db.WithContext(ctx).
		Where("local_order_id = ?", localOrderID).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListDelayedSupplierOrders lists non-terminal legs whose estimated delivery
// date has passed
func (r *OrderRepository) ListDelayedSupplierOrders(ctx context.Context, now time.Time) ([]models.SupplierOrder, error) {
	var orders []models.SupplierOrder
	err := r.db.WithContext(ctx).
		Where("estimated_delivery_at IS NOT NULL AND estimated_delivery_at < ?", now).
		Where("external_status NOT IN ?", []models.SupplierOrderStatus{
			models.OrderDelivered, models.OrderCancelled, models.OrderReturned,
		}).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CountDelayed counts currently delayed non-terminal legs
func (r *OrderRepository) CountDelayed(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SupplierOrder{}).
		Where("estimated_delivery_at IS NOT NULL AND estimated_delivery_at < ?", now).
		Where("external_status NOT IN ?", []models.SupplierOrderStatus{
			models.OrderDelivered, models.OrderCancelled, models.OrderReturned,
		}).
		Count(&count).Error
	return count, err
}

// AvgDeliveryDays computes the mean ship-to-door time of legs delivered after
// the cutoff. Returns 0 when no legs qualify.
func (r *OrderRepository) AvgDeliveryDays(ctx context.Context, since time.Time) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).Model(&models.SupplierOrder{}).
		Select("AVG(EXTRACT(EPOCH FROM (delivered_at - shipped_at)) / 86400)").
		Where("external_status = ? AND delivered_at >= ? AND shipped_at IS NOT NULL", models.OrderDelivered, since).
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

// ListSupplierOrders retrieves supplier legs with pagination
func (r *OrderRepository) ListSupplierOrders(ctx context.Context, opts ListOptions) ([]models.SupplierOrder, int64, error) {
	var orders []models.SupplierOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SupplierOrder{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
