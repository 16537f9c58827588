package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/models"
)

type syncFixture struct {
	suppliers *MockSupplierStore
	catalog   *MockCatalogStore
	products  *MockProductStore
	syncs     *MockSyncStore
	alerts    *MockAlertStore
	adapter   *MockAdapter
	service   *SyncService
	supplier  *models.SupplierAccount
}

func newSyncFixture(t *testing.T) *syncFixture {
	f := &syncFixture{
		suppliers: new(MockSupplierStore),
		catalog:   new(MockCatalogStore),
		products:  new(MockProductStore),
		syncs:     new(MockSyncStore),
		alerts:    new(MockAlertStore),
		adapter:   new(MockAdapter),
	}
	f.service = NewSyncService(
		f.suppliers, f.catalog, f.products, f.syncs, f.alerts,
		&staticProvider{adapter: f.adapter}, zap.NewNop(),
	)
	f.supplier = &models.SupplierAccount{
		ID:                uuid.New(),
		DisplayName:       "Test Supplier",
		SupplierType:      models.SupplierAliexpress,
		IsActive:          true,
		DailyRequestLimit: 1000,
	}
	f.suppliers.On("GetSupplier", mock.Anything, f.supplier.ID).Return(f.supplier, nil)
	f.syncs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	f.syncs.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	return f
}

func TestDiscoveryIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	f.suppliers.On("UpdateLastSync", mock.Anything, f.supplier.ID, mock.Anything).Return(nil)

	page := &adapters.ProductsPage{
		Products: []adapters.NormalizedProduct{
			{ExternalID: "P1", Title: "Widget", Cost: 10, Stock: 5, Available: true},
			{ExternalID: "P2", Title: "Gadget", Cost: 20, Stock: 3, Available: true},
		},
		HasMore: false,
	}
	f.adapter.On("SearchProducts", mock.Anything, mock.Anything).Return(page, nil)

	// First run: nothing known, both products create rows
	f.catalog.On("GetItemByExternalID", mock.Anything, f.supplier.ID, "P1").Return(nil, nil).Once()
	f.catalog.On("GetItemByExternalID", mock.Anything, f.supplier.ID, "P2").Return(nil, nil).Once()
	created := 0
	f.catalog.On("CreateItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created++
	}).Return(nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunDiscovery)
	assert.NoError(t, err)
	assert.Equal(t, 2, created)

	// Second run over the same index: both known, zero creates
	f.catalog.On("GetItemByExternalID", mock.Anything, f.supplier.ID, "P1").
		Return(&models.ExternalCatalogItem{ID: uuid.New(), ExternalID: "P1"}, nil).Once()
	f.catalog.On("GetItemByExternalID", mock.Anything, f.supplier.ID, "P2").
		Return(&models.ExternalCatalogItem{ID: uuid.New(), ExternalID: "P2"}, nil).Once()
	f.catalog.On("UpdateItem", mock.Anything, mock.Anything).Return(nil)

	err = f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunDiscovery)
	assert.NoError(t, err)
	assert.Equal(t, 2, created)
}

func TestDiscoveryAppliesMarginAndFilters(t *testing.T) {
	f := newSyncFixture(t)
	f.suppliers.On("UpdateLastSync", mock.Anything, f.supplier.ID, mock.Anything).Return(nil)
	f.supplier.SetConfig(models.SupplierConfig{MarginPercent: 50, MinPrice: 5})

	page := &adapters.ProductsPage{
		Products: []adapters.NormalizedProduct{
			{ExternalID: "CHEAP", Cost: 2, Available: true},
			{ExternalID: "OK", Cost: 10, Available: true},
		},
	}
	f.adapter.On("SearchProducts", mock.Anything, mock.Anything).Return(page, nil)
	f.catalog.On("GetItemByExternalID", mock.Anything, f.supplier.ID, "OK").Return(nil, nil)

	var stored *models.ExternalCatalogItem
	f.catalog.On("CreateItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.ExternalCatalogItem)
	}).Return(nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunDiscovery)
	assert.NoError(t, err)

	// The item below MinPrice never reaches the catalog
	f.catalog.AssertNotCalled(t, "GetItemByExternalID", mock.Anything, f.supplier.ID, "CHEAP")
	assert.NotNil(t, stored)
	assert.Equal(t, 15.0, stored.ResalePrice)
	assert.Equal(t, 50.0, stored.MarginPercent)
}

func TestRefreshRepricesAndAlertsOnBigMove(t *testing.T) {
	f := newSyncFixture(t)
	f.suppliers.On("UpdateLastSync", mock.Anything, f.supplier.ID, mock.Anything).Return(nil)

	item := models.ExternalCatalogItem{
		ID:           uuid.New(),
		SupplierID:   f.supplier.ID,
		ExternalID:   "P1",
		Title:        "Widget",
		SupplierCost: 100,
		ResalePrice:  130,
		Available:    true,
	}
	f.catalog.On("ListStaleItems", mock.Anything, f.supplier.ID, mock.Anything, mock.Anything).
		Return([]models.ExternalCatalogItem{item}, nil)
	f.adapter.On("GetAvailability", mock.Anything, "P1").
		Return(&adapters.Availability{Available: true, Stock: 7, Cost: 111}, nil)

	var updated *models.ExternalCatalogItem
	f.catalog.On("UpdateItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*models.ExternalCatalogItem)
	}).Return(nil)

	var alert *models.SystemAlert
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		alert = args.Get(1).(*models.SystemAlert)
	}).Return(true, nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunRefresh)
	assert.NoError(t, err)

	// An 11% move raises the alert and repricing preserves the 30% margin
	assert.NotNil(t, alert)
	assert.Equal(t, models.AlertPriceChange, alert.Type)
	assert.NotNil(t, updated)
	assert.Equal(t, 111.0, updated.SupplierCost)
	assert.Equal(t, 144.30, updated.ResalePrice)
}

func TestRefreshSmallMoveDoesNotAlert(t *testing.T) {
	f := newSyncFixture(t)
	f.suppliers.On("UpdateLastSync", mock.Anything, f.supplier.ID, mock.Anything).Return(nil)

	item := models.ExternalCatalogItem{
		ID:           uuid.New(),
		SupplierID:   f.supplier.ID,
		ExternalID:   "P1",
		SupplierCost: 100,
		ResalePrice:  130,
		Available:    true,
	}
	f.catalog.On("ListStaleItems", mock.Anything, f.supplier.ID, mock.Anything, mock.Anything).
		Return([]models.ExternalCatalogItem{item}, nil)
	f.adapter.On("GetAvailability", mock.Anything, "P1").
		Return(&adapters.Availability{Available: true, Stock: 7, Cost: 109}, nil)
	f.catalog.On("UpdateItem", mock.Anything, mock.Anything).Return(nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunRefresh)
	assert.NoError(t, err)

	// 9% stays under the threshold: repriced but silent
	f.alerts.AssertNotCalled(t, "CreateIfNew", mock.Anything, mock.Anything)
}

func TestRetirementNeverDeletes(t *testing.T) {
	f := newSyncFixture(t)
	f.suppliers.On("UpdateLastSync", mock.Anything, f.supplier.ID, mock.Anything).Return(nil)

	localProductID := uuid.New()
	dead := models.ExternalCatalogItem{
		ID:             uuid.New(),
		SupplierID:     f.supplier.ID,
		ExternalID:     "GONE",
		Title:          "Dead Product",
		Available:      true,
		LocalProductID: &localProductID,
	}

	f.adapter.On("SearchProducts", mock.Anything, mock.Anything).
		Return(&adapters.ProductsPage{}, nil)
	f.catalog.On("ListStaleItems", mock.Anything, f.supplier.ID, mock.Anything, mock.Anything).
		Return([]models.ExternalCatalogItem{dead}, nil)
	f.adapter.On("GetAvailability", mock.Anything, "GONE").
		Return(nil, adapters.ErrNotFound)
	f.catalog.On("MarkUnavailable", mock.Anything, dead.ID).Return(nil)
	f.products.On("Deactivate", mock.Anything, localProductID).Return(nil)
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).Return(true, nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunFull)
	assert.NoError(t, err)

	// Flagged and cascaded, but the row survives
	f.catalog.AssertCalled(t, "MarkUnavailable", mock.Anything, dead.ID)
	f.products.AssertCalled(t, "Deactivate", mock.Anything, localProductID)
}

func TestFailedRunDoesNotAdvanceLastSync(t *testing.T) {
	f := newSyncFixture(t)

	f.adapter.On("SearchProducts", mock.Anything, mock.Anything).
		Return(nil, errors.New("gateway timeout"))

	var finalized *models.SyncRun
	f.syncs.ExpectedCalls = nil
	f.syncs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	f.syncs.On("UpdateRun", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		finalized = args.Get(1).(*models.SyncRun)
	}).Return(nil)

	var alert *models.SystemAlert
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		alert = args.Get(1).(*models.SystemAlert)
	}).Return(true, nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunDiscovery)
	assert.Error(t, err)

	assert.NotNil(t, finalized)
	assert.Equal(t, models.SyncRunFailed, finalized.Status)
	assert.Contains(t, finalized.ErrorDetail, "gateway timeout")
	f.suppliers.AssertNotCalled(t, "UpdateLastSync", mock.Anything, mock.Anything, mock.Anything)

	// The failure surfaces as a sync_failed alert pointing back at the run
	assert.NotNil(t, alert)
	assert.Equal(t, models.AlertSyncFailed, alert.Type)
	assert.Equal(t, models.SeverityError, alert.Severity)
	assert.Equal(t, finalized.ID.String(), alert.Payload["runId"])
}

func TestAdapterBuildFailureRecordsFailedRun(t *testing.T) {
	f := newSyncFixture(t)
	f.service.provider = &failingProvider{err: errors.New("no credentials")}

	var finalized *models.SyncRun
	f.syncs.ExpectedCalls = nil
	f.syncs.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	f.syncs.On("UpdateRun", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		finalized = args.Get(1).(*models.SyncRun)
	}).Return(nil)
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).Return(true, nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunFull)
	assert.Error(t, err)

	// Even with no adapter to run, the failed run row lands for monitoring
	assert.NotNil(t, finalized)
	assert.Equal(t, models.SyncRunFailed, finalized.Status)
	assert.Contains(t, finalized.ErrorDetail, "build adapter")
	f.alerts.AssertNumberOfCalls(t, "CreateIfNew", 1)
}

func TestRunAllPausesBetweenSuppliers(t *testing.T) {
	f := newSyncFixture(t)
	f.service.SetSupplierPause(30 * time.Millisecond)

	// Inactive suppliers fail fast, leaving only the pause between them
	first := models.SupplierAccount{ID: uuid.New(), DisplayName: "First"}
	second := models.SupplierAccount{ID: uuid.New(), DisplayName: "Second"}
	f.suppliers.On("ListActive", mock.Anything).
		Return([]models.SupplierAccount{first, second}, nil)
	f.suppliers.On("GetSupplier", mock.Anything, first.ID).Return(&first, nil)
	f.suppliers.On("GetSupplier", mock.Anything, second.ID).Return(&second, nil)

	start := time.Now()
	err := f.service.RunAll(context.Background(), models.SyncRunFull)
	assert.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestDiscoveryIteratesAllowedCategories(t *testing.T) {
	f := newSyncFixture(t)
	f.suppliers.On("UpdateLastSync", mock.Anything, f.supplier.ID, mock.Anything).Return(nil)
	f.supplier.SetConfig(models.SupplierConfig{AllowedCategories: []string{"toys", "garden"}})

	var searched []string
	f.adapter.On("SearchProducts", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			opts := args.Get(1).(*adapters.SearchOptions)
			searched = append(searched, opts.Category)
		}).
		Return(&adapters.ProductsPage{}, nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunDiscovery)
	assert.NoError(t, err)
	assert.Equal(t, []string{"toys", "garden"}, searched)
}

func TestBudgetExhaustionAbortsRefresh(t *testing.T) {
	f := newSyncFixture(t)

	items := []models.ExternalCatalogItem{
		{ID: uuid.New(), SupplierID: f.supplier.ID, ExternalID: "A", Available: true},
		{ID: uuid.New(), SupplierID: f.supplier.ID, ExternalID: "B", Available: true},
	}
	f.catalog.On("ListStaleItems", mock.Anything, f.supplier.ID, mock.Anything, mock.Anything).
		Return(items, nil)
	f.adapter.On("GetAvailability", mock.Anything, "A").
		Return(nil, adapters.ErrRateLimitExceeded)
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).Return(true, nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunRefresh)
	assert.ErrorIs(t, err, adapters.ErrRateLimitExceeded)

	// The second item is never probed once the budget is gone
	f.adapter.AssertNotCalled(t, "GetAvailability", mock.Anything, "B")
}

func TestAutoPromoteCreatesLocalProduct(t *testing.T) {
	f := newSyncFixture(t)
	f.suppliers.On("UpdateLastSync", mock.Anything, f.supplier.ID, mock.Anything).Return(nil)
	f.supplier.SetConfig(models.SupplierConfig{AutoPromote: true})

	page := &adapters.ProductsPage{
		Products: []adapters.NormalizedProduct{
			{ExternalID: "P1", Title: "Widget", Cost: 10, Stock: 4, Available: true},
		},
	}
	f.adapter.On("SearchProducts", mock.Anything, mock.Anything).Return(page, nil)
	f.catalog.On("GetItemByExternalID", mock.Anything, f.supplier.ID, "P1").Return(nil, nil)
	f.catalog.On("CreateItem", mock.Anything, mock.Anything).Return(nil)
	f.catalog.On("UpdateItem", mock.Anything, mock.Anything).Return(nil)

	var product *models.LocalProduct
	f.products.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		product = args.Get(1).(*models.LocalProduct)
	}).Return(nil)

	err := f.service.RunSupplier(context.Background(), f.supplier.ID, models.SyncRunDiscovery)
	assert.NoError(t, err)

	assert.NotNil(t, product)
	assert.Equal(t, "Widget", product.Name)
	assert.Equal(t, 13.0, product.SalePrice)
	assert.True(t, product.IsDropshipping)
}
