package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/models"
)

type orderFixture struct {
	orders    *MockOrderStore
	catalog   *MockCatalogStore
	suppliers *MockSupplierStore
	alerts    *MockAlertStore
	adapter   *MockAdapter
	notifier  *MockNotifier
	svc       *OrderService
	now       time.Time
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:    new(MockOrderStore),
		catalog:   new(MockCatalogStore),
		suppliers: new(MockSupplierStore),
		alerts:    new(MockAlertStore),
		adapter:   new(MockAdapter),
		notifier:  new(MockNotifier),
		now:       time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewOrderService(
		f.orders, f.catalog, f.suppliers, f.alerts,
		&staticProvider{adapter: f.adapter},
		f.notifier, zap.NewNop(),
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestDispatchPicksCheapestSufficientSource(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	supplierID := uuid.New()
	productID := uuid.New()
	order := &models.LocalOrder{
		ID:            uuid.New(),
		Status:        models.LocalOrderConfirmed,
		CustomerEmail: "buyer@example.com",
		Lines: []models.LocalOrderLine{
			{ID: uuid.New(), LocalProductID: productID, Quantity: 3},
		},
	}

	// Cheapest source cannot cover the quantity; the next one can
	cheapLowStock := models.ExternalCatalogItem{
		ID: uuid.New(), SupplierID: supplierID, ExternalID: "CHEAP",
		SupplierCost: 5.00, ExternalStock: 1, Available: true,
	}
	pricierInStock := models.ExternalCatalogItem{
		ID: uuid.New(), SupplierID: supplierID, ExternalID: "STOCKED",
		SupplierCost: 7.00, ExternalStock: 10, Available: true,
	}

	f.orders.On("GetLocalOrder", mock.Anything, order.ID).Return(order, nil)
	f.catalog.On("FindSourcesForProduct", mock.Anything, productID).
		Return([]models.ExternalCatalogItem{cheapLowStock, pricierInStock}, nil)
	f.suppliers.On("GetSupplier", mock.Anything, supplierID).
		Return(&models.SupplierAccount{ID: supplierID, DisplayName: "Test"}, nil)

	f.adapter.On("PlaceOrder", mock.Anything, mock.Anything).
		Return(&adapters.OrderResult{
			ExternalOrderID:       "EXT-1",
			ItemCost:              21.00,
			ShippingCost:          5.99,
			TotalCost:             26.99,
			EstimatedDeliveryDays: 12,
		}, nil)

	var leg *models.SupplierOrder
	f.orders.On("CreateSupplierOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			leg = args.Get(1).(*models.SupplierOrder)
		}).Return(nil)
	f.orders.On("ListLegsByLocalOrder", mock.Anything, order.ID).
		Return([]models.SupplierOrder{{ExternalStatus: models.OrderPending}}, nil)
	f.orders.On("UpdateLocalOrderStatus", mock.Anything, order.ID, models.LocalOrderProcessing).Return(nil)
	f.orders.On("Transaction", mock.Anything).Return(nil)
	f.notifier.On("NotifyConfirmed", mock.Anything, order, mock.Anything).Return(nil)

	err := f.svc.Dispatch(ctx, order.ID)
	assert.NoError(t, err)

	req := f.adapter.Calls[0].Arguments.Get(1).(*adapters.OrderRequest)
	assert.Equal(t, "STOCKED", req.Items[0].ExternalID)
	assert.Equal(t, 3, req.Items[0].Quantity)

	assert.NotNil(t, leg)
	assert.Equal(t, pricierInStock.ID, leg.CatalogItemID)
	assert.Equal(t, "EXT-1", leg.ExternalOrderID)
	assert.Equal(t, models.OrderPending, leg.ExternalStatus)
	assert.Equal(t, 26.99, leg.TotalCost)
	wantETA := f.now.AddDate(0, 0, 12)
	assert.Equal(t, wantETA, *leg.EstimatedDeliveryAt)

	// Legs and aggregate status land through the transaction, then one
	// confirmation goes out
	f.orders.AssertNumberOfCalls(t, "Transaction", 1)
	f.notifier.AssertNumberOfCalls(t, "NotifyConfirmed", 1)
}

func TestDispatchLineFailureDoesNotBlockOthers(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	supplierID := uuid.New()
	orphanProduct := uuid.New()
	sourcedProduct := uuid.New()
	order := &models.LocalOrder{
		ID: uuid.New(),
		Lines: []models.LocalOrderLine{
			{ID: uuid.New(), LocalProductID: orphanProduct, Quantity: 1},
			{ID: uuid.New(), LocalProductID: sourcedProduct, Quantity: 1},
		},
	}

	f.orders.On("GetLocalOrder", mock.Anything, order.ID).Return(order, nil)
	f.catalog.On("FindSourcesForProduct", mock.Anything, orphanProduct).
		Return([]models.ExternalCatalogItem{}, nil)
	f.catalog.On("FindSourcesForProduct", mock.Anything, sourcedProduct).
		Return([]models.ExternalCatalogItem{{
			ID: uuid.New(), SupplierID: supplierID, ExternalID: "OK",
			SupplierCost: 4.00, ExternalStock: 5, Available: true,
		}}, nil)
	f.suppliers.On("GetSupplier", mock.Anything, supplierID).
		Return(&models.SupplierAccount{ID: supplierID}, nil)
	f.adapter.On("PlaceOrder", mock.Anything, mock.Anything).
		Return(&adapters.OrderResult{ExternalOrderID: "EXT-2", TotalCost: 4.00}, nil)
	f.orders.On("CreateSupplierOrder", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("ListLegsByLocalOrder", mock.Anything, order.ID).
		Return([]models.SupplierOrder{{ExternalStatus: models.OrderPending}}, nil)
	f.orders.On("UpdateLocalOrderStatus", mock.Anything, order.ID, models.LocalOrderProcessing).Return(nil)
	f.orders.On("Transaction", mock.Anything).Return(nil)
	f.notifier.On("NotifyConfirmed", mock.Anything, order, mock.Anything).Return(nil)

	var alert *models.SystemAlert
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			alert = args.Get(1).(*models.SystemAlert)
		}).Return(true, nil)

	err := f.svc.Dispatch(ctx, order.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 lines failed")

	// The healthy line was still placed and the aggregate still recomputed
	f.orders.AssertNumberOfCalls(t, "CreateSupplierOrder", 1)
	f.orders.AssertCalled(t, "UpdateLocalOrderStatus", mock.Anything, order.ID, models.LocalOrderProcessing)

	// The failed line left an order_error alert behind
	f.alerts.AssertNumberOfCalls(t, "CreateIfNew", 1)
	assert.NotNil(t, alert)
	assert.Equal(t, models.AlertOrderError, alert.Type)
	assert.Equal(t, models.SeverityError, alert.Severity)
	assert.Equal(t, order.ID.String(), alert.Payload["orderId"])
	assert.Equal(t, order.Lines[0].ID.String(), alert.Payload["lineId"])
}

func TestDispatchWithNoPlacedLegsSkipsPersistAndNotify(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	orphanProduct := uuid.New()
	order := &models.LocalOrder{
		ID: uuid.New(),
		Lines: []models.LocalOrderLine{
			{ID: uuid.New(), LocalProductID: orphanProduct, Quantity: 1},
		},
	}

	f.orders.On("GetLocalOrder", mock.Anything, order.ID).Return(order, nil)
	f.catalog.On("FindSourcesForProduct", mock.Anything, orphanProduct).
		Return([]models.ExternalCatalogItem{}, nil)
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).Return(true, nil)

	err := f.svc.Dispatch(ctx, order.ID)
	assert.Error(t, err)

	f.orders.AssertNotCalled(t, "Transaction", mock.Anything)
	f.notifier.AssertNotCalled(t, "NotifyConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyTransitionStampsShippedOnce(t *testing.T) {
	f := newOrderFixture()

	earlier := f.now.Add(-48 * time.Hour)
	leg := &models.SupplierOrder{
		ExternalStatus: models.OrderProcessing,
		ShippedAt:      &earlier,
	}

	err := f.svc.ApplyTransition(leg, models.OrderShipped)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderShipped, leg.ExternalStatus)
	// An existing stamp is never overwritten
	assert.Equal(t, earlier, *leg.ShippedAt)
	assert.Len(t, leg.TrackingLog, 1)
	entry := leg.TrackingLog[0].(map[string]interface{})
	assert.Equal(t, "shipped", entry["status"])
}

func TestApplyTransitionDeliveredBackfillsShipped(t *testing.T) {
	f := newOrderFixture()

	leg := &models.SupplierOrder{ExternalStatus: models.OrderProcessing}
	err := f.svc.ApplyTransition(leg, models.OrderDelivered)
	assert.NoError(t, err)
	assert.Equal(t, f.now, *leg.ShippedAt)
	assert.Equal(t, f.now, *leg.DeliveredAt)
}

func TestApplyTransitionRejectsBackwardMove(t *testing.T) {
	f := newOrderFixture()

	leg := &models.SupplierOrder{ExternalStatus: models.OrderShipped}
	err := f.svc.ApplyTransition(leg, models.OrderProcessing)
	assert.Error(t, err)
	assert.Equal(t, models.OrderShipped, leg.ExternalStatus)
	assert.Empty(t, leg.TrackingLog)
}

func TestAdvanceOrdersPromotesAggregate(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	supplierID := uuid.New()
	localOrderID := uuid.New()
	leg := models.SupplierOrder{
		ID:              uuid.New(),
		LocalOrderID:    localOrderID,
		SupplierID:      supplierID,
		ExternalOrderID: "EXT-3",
		ExternalStatus:  models.OrderProcessing,
	}

	f.orders.On("ListActiveSupplierOrders", mock.Anything).
		Return([]models.SupplierOrder{leg}, nil)
	f.suppliers.On("GetSupplier", mock.Anything, supplierID).
		Return(&models.SupplierAccount{ID: supplierID}, nil)
	f.adapter.On("GetOrderStatus", mock.Anything, "EXT-3").
		Return(&adapters.OrderStatusInfo{
			Status:         models.OrderShipped,
			Carrier:        "DHL",
			TrackingNumber: "TRACK123",
		}, nil)

	var updated *models.SupplierOrder
	f.orders.On("UpdateSupplierOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*models.SupplierOrder)
		}).Return(nil)
	f.orders.On("ListLegsByLocalOrder", mock.Anything, localOrderID).
		Return([]models.SupplierOrder{{ExternalStatus: models.OrderShipped}}, nil)
	f.orders.On("UpdateLocalOrderStatus", mock.Anything, localOrderID, models.LocalOrderShipped).Return(nil)

	err := f.svc.AdvanceOrders(ctx)
	assert.NoError(t, err)

	assert.NotNil(t, updated)
	assert.Equal(t, models.OrderShipped, updated.ExternalStatus)
	assert.Equal(t, "DHL", updated.Carrier)
	assert.Equal(t, "TRACK123", updated.TrackingNumber)
	assert.Equal(t, f.now, *updated.ShippedAt)
	f.orders.AssertCalled(t, "UpdateLocalOrderStatus", mock.Anything, localOrderID, models.LocalOrderShipped)
}

func TestAdvanceOrdersIgnoresRepeatedStatus(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	supplierID := uuid.New()
	leg := models.SupplierOrder{
		ID:              uuid.New(),
		LocalOrderID:    uuid.New(),
		SupplierID:      supplierID,
		ExternalOrderID: "EXT-4",
		ExternalStatus:  models.OrderShipped,
	}

	f.orders.On("ListActiveSupplierOrders", mock.Anything).
		Return([]models.SupplierOrder{leg}, nil)
	f.suppliers.On("GetSupplier", mock.Anything, supplierID).
		Return(&models.SupplierAccount{ID: supplierID}, nil)
	f.adapter.On("GetOrderStatus", mock.Anything, "EXT-4").
		Return(&adapters.OrderStatusInfo{Status: models.OrderShipped}, nil)

	err := f.svc.AdvanceOrders(ctx)
	assert.NoError(t, err)

	f.orders.AssertNotCalled(t, "UpdateSupplierOrder", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "UpdateLocalOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackingNotificationsSendExactlyOnce(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	localOrderID := uuid.New()
	order := &models.LocalOrder{ID: localOrderID, CustomerEmail: "buyer@example.com"}

	notified := f.now.Add(-time.Hour)
	fresh := models.SupplierOrder{
		ID: uuid.New(), LocalOrderID: localOrderID,
		ExternalStatus: models.OrderShipped, TrackingNumber: "NEW123",
	}
	alreadySent := models.SupplierOrder{
		ID: uuid.New(), LocalOrderID: localOrderID,
		ExternalStatus: models.OrderShipped, TrackingNumber: "OLD456",
		TrackingNotifiedAt: &notified,
	}
	noTracking := models.SupplierOrder{
		ID: uuid.New(), LocalOrderID: localOrderID,
		ExternalStatus: models.OrderShipped,
	}

	f.orders.On("ListActiveSupplierOrders", mock.Anything).
		Return([]models.SupplierOrder{fresh, alreadySent, noTracking}, nil)
	f.orders.On("GetLocalOrder", mock.Anything, localOrderID).Return(order, nil)
	f.notifier.On("NotifyShipped", mock.Anything, order, mock.Anything).Return(nil)

	var stamped *models.SupplierOrder
	f.orders.On("UpdateSupplierOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			stamped = args.Get(1).(*models.SupplierOrder)
		}).Return(nil)

	err := f.svc.SendTrackingNotifications(ctx)
	assert.NoError(t, err)

	f.notifier.AssertNumberOfCalls(t, "NotifyShipped", 1)
	assert.NotNil(t, stamped)
	assert.Equal(t, fresh.ID, stamped.ID)
	assert.Equal(t, f.now, *stamped.TrackingNotifiedAt)
}

func TestDelayNotificationsSendExactlyOnce(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	localOrderID := uuid.New()
	order := &models.LocalOrder{ID: localOrderID, CustomerEmail: "buyer@example.com"}
	eta := f.now.Add(-72 * time.Hour)
	notified := f.now.Add(-24 * time.Hour)

	fresh := models.SupplierOrder{
		ID: uuid.New(), LocalOrderID: localOrderID,
		ExternalStatus: models.OrderShipped, EstimatedDeliveryAt: &eta,
	}
	alreadySent := models.SupplierOrder{
		ID: uuid.New(), LocalOrderID: localOrderID,
		ExternalStatus: models.OrderShipped, EstimatedDeliveryAt: &eta,
		DelayNotifiedAt: &notified,
	}

	f.orders.On("ListDelayedSupplierOrders", mock.Anything, f.now).
		Return([]models.SupplierOrder{fresh, alreadySent}, nil)
	f.orders.On("GetLocalOrder", mock.Anything, localOrderID).Return(order, nil)
	f.notifier.On("NotifyDelayed", mock.Anything, order, mock.Anything).Return(nil)
	f.orders.On("UpdateSupplierOrder", mock.Anything, mock.Anything).Return(nil)

	var alert *models.SystemAlert
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			alert = args.Get(1).(*models.SystemAlert)
		}).Return(true, nil)

	err := f.svc.SendDelayNotifications(ctx)
	assert.NoError(t, err)

	f.notifier.AssertNumberOfCalls(t, "NotifyDelayed", 1)
	f.orders.AssertNumberOfCalls(t, "UpdateSupplierOrder", 1)

	// The unnotified leg raises a delivery_delay alert; the stamped one does not
	f.alerts.AssertNumberOfCalls(t, "CreateIfNew", 1)
	assert.NotNil(t, alert)
	assert.Equal(t, models.AlertDeliveryDelay, alert.Type)
	assert.Equal(t, models.SeverityWarning, alert.Severity)
	assert.Equal(t, fresh.ID.String(), alert.Payload["supplierOrderId"])
}

func TestDelayNotificationFailureLeavesStampUnset(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	localOrderID := uuid.New()
	order := &models.LocalOrder{ID: localOrderID}
	eta := f.now.Add(-time.Hour)
	leg := models.SupplierOrder{
		ID: uuid.New(), LocalOrderID: localOrderID,
		ExternalStatus: models.OrderProcessing, EstimatedDeliveryAt: &eta,
	}

	f.orders.On("ListDelayedSupplierOrders", mock.Anything, f.now).
		Return([]models.SupplierOrder{leg}, nil)
	f.orders.On("GetLocalOrder", mock.Anything, localOrderID).Return(order, nil)
	f.notifier.On("NotifyDelayed", mock.Anything, order, mock.Anything).
		Return(assert.AnError)
	f.alerts.On("CreateIfNew", mock.Anything, mock.Anything).Return(true, nil)

	err := f.svc.SendDelayNotifications(ctx)
	assert.NoError(t, err)

	// A failed send must stay eligible for the next pass
	f.orders.AssertNotCalled(t, "UpdateSupplierOrder", mock.Anything, mock.Anything)
}
