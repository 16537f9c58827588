package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/models"
	"dropshipping-service/internal/repository"
)

// MockSupplierStore is a mock implementation of SupplierStore
type MockSupplierStore struct {
	mock.Mock
}

var _ SupplierStore = (*MockSupplierStore)(nil)

func (m *MockSupplierStore) GetSupplier(ctx context.Context, id uuid.UUID) (*models.SupplierAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupplierAccount), args.Error(1)
}

func (m *MockSupplierStore) ListActive(ctx context.Context) ([]models.SupplierAccount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.SupplierAccount), args.Error(1)
}

func (m *MockSupplierStore) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSupplierStore) ResetDailyCounters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockCatalogStore is a mock implementation of CatalogStore
type MockCatalogStore struct {
	mock.Mock
}

var _ CatalogStore = (*MockCatalogStore)(nil)

func (m *MockCatalogStore) CreateItem(ctx context.Context, item *models.ExternalCatalogItem) error {
	args := m.Called(ctx, item)
	if args.Error(0) == nil && item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCatalogStore) GetItemByID(ctx context.Context, id uuid.UUID) (*models.ExternalCatalogItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExternalCatalogItem), args.Error(1)
}

func (m *MockCatalogStore) GetItemByExternalID(ctx context.Context, supplierID uuid.UUID, externalID string) (*models.ExternalCatalogItem, error) {
	args := m.Called(ctx, supplierID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExternalCatalogItem), args.Error(1)
}

func (m *MockCatalogStore) UpdateItem(ctx context.Context, item *models.ExternalCatalogItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCatalogStore) ListStaleItems(ctx context.Context, supplierID uuid.UUID, cutoff time.Time, limit int) ([]models.ExternalCatalogItem, error) {
	args := m.Called(ctx, supplierID, cutoff, limit)
	return args.Get(0).([]models.ExternalCatalogItem), args.Error(1)
}

func (m *MockCatalogStore) MarkUnavailable(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogStore) FindSourcesForProduct(ctx context.Context, localProductID uuid.UUID) ([]models.ExternalCatalogItem, error) {
	args := m.Called(ctx, localProductID)
	return args.Get(0).([]models.ExternalCatalogItem), args.Error(1)
}

func (m *MockCatalogStore) CountBySupplier(ctx context.Context, supplierID uuid.UUID, staleCutoff time.Time) (int64, int64, int64, error) {
	args := m.Called(ctx, supplierID, staleCutoff)
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}

func (m *MockCatalogStore) DeleteUnavailableOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductStore is a mock implementation of ProductStore
type MockProductStore struct {
	mock.Mock
}

var _ ProductStore = (*MockProductStore)(nil)

func (m *MockProductStore) Create(ctx context.Context, product *models.LocalProduct) error {
	args := m.Called(ctx, product)
	if args.Error(0) == nil && product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockProductStore) UpdatePricing(ctx context.Context, id uuid.UUID, salePrice, purchasePrice float64) error {
	args := m.Called(ctx, id, salePrice, purchasePrice)
	return args.Error(0)
}

func (m *MockProductStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSyncStore is a mock implementation of SyncStore
type MockSyncStore struct {
	mock.Mock
}

var _ SyncStore = (*MockSyncStore)(nil)

func (m *MockSyncStore) CreateRun(ctx context.Context, run *models.SyncRun) error {
	args := m.Called(ctx, run)
	if args.Error(0) == nil && run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockSyncStore) UpdateRun(ctx context.Context, run *models.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSyncStore) CountFailedSince(ctx context.Context, supplierID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, supplierID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSyncStore) HasCompletedSince(ctx context.Context, supplierID uuid.UUID, since time.Time) (bool, error) {
	args := m.Called(ctx, supplierID, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockSyncStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockAlertStore is a mock implementation of AlertStore
type MockAlertStore struct {
	mock.Mock
}

var _ AlertStore = (*MockAlertStore)(nil)

func (m *MockAlertStore) CreateIfNew(ctx context.Context, alert *models.SystemAlert) (bool, error) {
	args := m.Called(ctx, alert)
	return args.Bool(0), args.Error(1)
}

func (m *MockAlertStore) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderStore is a mock implementation of OrderStore
type MockOrderStore struct {
	mock.Mock
}

var _ OrderStore = (*MockOrderStore)(nil)

// Transaction records the call and runs fn against the mock itself, so the
// per-method expectations cover the transactional path too
func (m *MockOrderStore) Transaction(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockOrderStore) GetLocalOrder(ctx context.Context, id uuid.UUID) (*models.LocalOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LocalOrder), args.Error(1)
}

func (m *MockOrderStore) ListOrdersAwaitingDispatch(ctx context.Context, limit int) ([]models.LocalOrder, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.LocalOrder), args.Error(1)
}

func (m *MockOrderStore) UpdateLocalOrderStatus(ctx context.Context, id uuid.UUID, status models.LocalOrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderStore) CreateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil && order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockOrderStore) GetSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupplierOrder), args.Error(1)
}

func (m *MockOrderStore) UpdateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderStore) ListActiveSupplierOrders(ctx context.Context) ([]models.SupplierOrder, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.SupplierOrder), args.Error(1)
}

func (m *MockOrderStore) ListLegsByLocalOrder(ctx context.Context, localOrderID uuid.UUID) ([]models.SupplierOrder, error) {
	args := m.Called(ctx, localOrderID)
	return args.Get(0).([]models.SupplierOrder), args.Error(1)
}

func (m *MockOrderStore) ListDelayedSupplierOrders(ctx context.Context, now time.Time) ([]models.SupplierOrder, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]models.SupplierOrder), args.Error(1)
}

func (m *MockOrderStore) CountDelayed(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderStore) AvgDeliveryDays(ctx context.Context, since time.Time) (float64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(float64), args.Error(1)
}

// MockApiLogStore is a mock implementation of ApiLogStore
type MockApiLogStore struct {
	mock.Mock
}

var _ ApiLogStore = (*MockApiLogStore)(nil)

func (m *MockApiLogStore) StatsSince(ctx context.Context, since time.Time) (*repository.CallStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CallStats), args.Error(1)
}

func (m *MockApiLogStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

var _ Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifyConfirmed(ctx context.Context, order *models.LocalOrder, legs []*models.SupplierOrder) error {
	args := m.Called(ctx, order, legs)
	return args.Error(0)
}

func (m *MockNotifier) NotifyShipped(ctx context.Context, order *models.LocalOrder, leg *models.SupplierOrder) error {
	args := m.Called(ctx, order, leg)
	return args.Error(0)
}

func (m *MockNotifier) NotifyDelayed(ctx context.Context, order *models.LocalOrder, leg *models.SupplierOrder) error {
	args := m.Called(ctx, order, leg)
	return args.Error(0)
}

// MockAdapter is a mock implementation of adapters.SupplierAdapter
type MockAdapter struct {
	mock.Mock
}

var _ adapters.SupplierAdapter = (*MockAdapter)(nil)

func (m *MockAdapter) GetType() models.SupplierType {
	args := m.Called()
	return args.Get(0).(models.SupplierType)
}

func (m *MockAdapter) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAdapter) SearchProducts(ctx context.Context, opts *adapters.SearchOptions) (*adapters.ProductsPage, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapters.ProductsPage), args.Error(1)
}

func (m *MockAdapter) GetProduct(ctx context.Context, externalID string) (*adapters.NormalizedProduct, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapters.NormalizedProduct), args.Error(1)
}

func (m *MockAdapter) GetAvailability(ctx context.Context, externalID string) (*adapters.Availability, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapters.Availability), args.Error(1)
}

func (m *MockAdapter) GetCategories(ctx context.Context) ([]adapters.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]adapters.Category), args.Error(1)
}

func (m *MockAdapter) PlaceOrder(ctx context.Context, req *adapters.OrderRequest) (*adapters.OrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapters.OrderResult), args.Error(1)
}

func (m *MockAdapter) GetOrderStatus(ctx context.Context, externalOrderID string) (*adapters.OrderStatusInfo, error) {
	args := m.Called(ctx, externalOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapters.OrderStatusInfo), args.Error(1)
}

func (m *MockAdapter) GetTracking(ctx context.Context, externalOrderID string) (*adapters.TrackingInfo, error) {
	args := m.Called(ctx, externalOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapters.TrackingInfo), args.Error(1)
}

func (m *MockAdapter) CancelOrder(ctx context.Context, externalOrderID string) error {
	args := m.Called(ctx, externalOrderID)
	return args.Error(0)
}

// staticProvider returns the same adapter for every account
type staticProvider struct {
	adapter adapters.SupplierAdapter
}

func (p *staticProvider) AdapterFor(account *models.SupplierAccount) (adapters.SupplierAdapter, error) {
	return p.adapter, nil
}

// failingProvider fails every adapter build
type failingProvider struct {
	err error
}

func (p *failingProvider) AdapterFor(account *models.SupplierAccount) (adapters.SupplierAdapter, error) {
	return nil, p.err
}
