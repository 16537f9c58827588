package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/models"
	"dropshipping-service/internal/repository"
)

// SupplierStore is the supplier persistence surface services depend on
type SupplierStore interface {
	GetSupplier(ctx context.Context, id uuid.UUID) (*models.SupplierAccount, error)
	ListActive(ctx context.Context) ([]models.SupplierAccount, error)
	UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
	ResetDailyCounters(ctx context.Context) (int64, error)
}

// CatalogStore is the catalog persistence surface services depend on
type CatalogStore interface {
	CreateItem(ctx context.Context, item *models.ExternalCatalogItem) error
	GetItemByID(ctx context.Context, id uuid.UUID) (*models.ExternalCatalogItem, error)
	GetItemByExternalID(ctx context.Context, supplierID uuid.UUID, externalID string) (*models.ExternalCatalogItem, error)
	UpdateItem(ctx context.Context, item *models.ExternalCatalogItem) error
	ListStaleItems(ctx context.Context, supplierID uuid.UUID, cutoff time.Time, limit int) ([]models.ExternalCatalogItem, error)
	MarkUnavailable(ctx context.Context, id uuid.UUID) error
	FindSourcesForProduct(ctx context.Context, localProductID uuid.UUID) ([]models.ExternalCatalogItem, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID, staleCutoff time.Time) (total, available, stale int64, err error)
	DeleteUnavailableOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProductStore is the promoted-product persistence surface services depend on
type ProductStore interface {
	Create(ctx context.Context, product *models.LocalProduct) error
	UpdatePricing(ctx context.Context, id uuid.UUID, salePrice, purchasePrice float64) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// SyncStore is the sync run persistence surface services depend on
type SyncStore interface {
	CreateRun(ctx context.Context, run *models.SyncRun) error
	UpdateRun(ctx context.Context, run *models.SyncRun) error
	CountFailedSince(ctx context.Context, supplierID uuid.UUID, since time.Time) (int64, error)
	HasCompletedSince(ctx context.Context, supplierID uuid.UUID, since time.Time) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderStore is the order persistence surface services depend on
type OrderStore interface {
	Transaction(ctx context.Context, fn func(tx repository.OrderTx) error) error
	GetLocalOrder(ctx context.Context, id uuid.UUID) (*models.LocalOrder, error)
	ListOrdersAwaitingDispatch(ctx context.Context, limit int) ([]models.LocalOrder, error)
	UpdateLocalOrderStatus(ctx context.Context, id uuid.UUID, status models.LocalOrderStatus) error
	CreateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error
	GetSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	UpdateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error
	ListActiveSupplierOrders(ctx context.Context) ([]models.SupplierOrder, error)
	ListLegsByLocalOrder(ctx context.Context, localOrderID uuid.UUID) ([]models.SupplierOrder, error)
	ListDelayedSupplierOrders(ctx context.Context, now time.Time) ([]models.SupplierOrder, error)
	CountDelayed(ctx context.Context, now time.Time) (int64, error)
	AvgDeliveryDays(ctx context.Context, since time.Time) (float64, error)
}

// AlertStore is the alert persistence surface services depend on
type AlertStore interface {
	CreateIfNew(ctx context.Context, alert *models.SystemAlert) (bool, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ApiLogStore is the call-log surface services depend on
type ApiLogStore interface {
	StatsSince(ctx context.Context, since time.Time) (*repository.CallStats, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AdapterProvider builds a live adapter for a supplier account
type AdapterProvider interface {
	AdapterFor(account *models.SupplierAccount) (adapters.SupplierAdapter, error)
}

// RegistryProvider adapts the adapter registry to the AdapterProvider interface
type RegistryProvider struct {
	Registry *adapters.Registry
	Gate     *adapters.RequestGate
}

// AdapterFor builds an adapter for the given account from the registry
func (p *RegistryProvider) AdapterFor(account *models.SupplierAccount) (adapters.SupplierAdapter, error) {
	return p.Registry.New(account, p.Gate)
}

// Notifier delivers customer-facing order notifications
type Notifier interface {
	NotifyConfirmed(ctx context.Context, order *models.LocalOrder, legs []*models.SupplierOrder) error
	NotifyShipped(ctx context.Context, order *models.LocalOrder, leg *models.SupplierOrder) error
	NotifyDelayed(ctx context.Context, order *models.LocalOrder, leg *models.SupplierOrder) error
}
