package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/metrics"
	"dropshipping-service/internal/models"
	"dropshipping-service/internal/repository"
)

const dispatchBatchLimit = 50

// OrderService drives the supplier-side fulfillment of local orders: placing
// supplier legs, advancing their state machine, and sending customer
// notifications exactly once.
type OrderService struct {
	orders    OrderStore
	catalog   CatalogStore
	suppliers SupplierStore
	alerts    AlertStore
	provider  AdapterProvider
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	orders OrderStore,
	catalog CatalogStore,
	suppliers SupplierStore,
	alerts AlertStore,
	provider AdapterProvider,
	notifier Notifier,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		catalog:   catalog,
		suppliers: suppliers,
		alerts:    alerts,
		provider:  provider,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// DispatchPending places supplier legs for every confirmed order that has none yet
func (s *OrderService) DispatchPending(ctx context.Context) error {
	orders, err := s.orders.ListOrdersAwaitingDispatch(ctx, dispatchBatchLimit)
	if err != nil {
		return fmt.Errorf("list orders awaiting dispatch: %w", err)
	}
	for i := range orders {
		if err := s.Dispatch(ctx, orders[i].ID); err != nil {
			s.logger.Error("dispatch failed",
				zap.String("order_id", orders[i].ID.String()), zap.Error(err))
		}
	}
	return nil
}

// Dispatch places one supplier leg per dropshipping line of the order,
// sourcing each line from the cheapest available catalog item. A failed line
// does not block the remaining lines; the placed legs and the aggregate
// status land in one transaction.
func (s *OrderService) Dispatch(ctx context.Context, localOrderID uuid.UUID) error {
	order, err := s.orders.GetLocalOrder(ctx, localOrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	var legs []*models.SupplierOrder
	var failed int
	for i := range order.Lines {
		line := &order.Lines[i]
		leg, err := s.placeLine(ctx, order, line)
		if err != nil {
			failed++
			s.logger.Error("failed to dispatch order line",
				zap.String("order_id", order.ID.String()),
				zap.String("line_id", line.ID.String()),
				zap.Error(err))
			raiseAlert(ctx, s.alerts, s.logger, &models.SystemAlert{
				Type:     models.AlertOrderError,
				Title:    fmt.Sprintf("Dispatch failed for order %s line %s", order.ID, line.ID),
				Message:  err.Error(),
				Severity: models.SeverityError,
				Payload: models.JSONB{
					"orderId": order.ID.String(),
					"lineId":  line.ID.String(),
				},
			})
			continue
		}
		legs = append(legs, leg)
	}

	if len(legs) > 0 {
		err := s.orders.Transaction(ctx, func(tx repository.OrderTx) error {
			for _, leg := range legs {
				if err := tx.CreateSupplierOrder(ctx, leg); err != nil {
					return fmt.Errorf("persist supplier order: %w", err)
				}
			}
			all, err := tx.ListLegsByLocalOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			statuses := make([]models.SupplierOrderStatus, 0, len(all))
			for i := range all {
				statuses = append(statuses, all[i].ExternalStatus)
			}
			return tx.UpdateLocalOrderStatus(ctx, order.ID, models.AggregateOrderStatus(statuses))
		})
		if err != nil {
			return fmt.Errorf("persist dispatch: %w", err)
		}
		for range legs {
			metrics.OrdersDispatched.Inc()
		}
		if err := s.notifier.NotifyConfirmed(ctx, order, legs); err != nil {
			s.logger.Error("confirmation notification failed",
				zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed to dispatch", failed, len(order.Lines))
	}
	return nil
}

// placeLine sources and places one order line against the supplier. The
// returned leg is not yet persisted.
func (s *OrderService) placeLine(ctx context.Context, order *models.LocalOrder, line *models.LocalOrderLine) (*models.SupplierOrder, error) {
	sources, err := s.catalog.FindSourcesForProduct(ctx, line.LocalProductID)
	if err != nil {
		return nil, fmt.Errorf("find sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no available supplier for product %s", line.LocalProductID)
	}

	// Sources arrive cheapest-first; take the first that can cover the quantity
	var item *models.ExternalCatalogItem
	for i := range sources {
		if sources[i].ExternalStock >= line.Quantity {
			item = &sources[i]
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("no supplier has %d units of product %s", line.Quantity, line.LocalProductID)
	}

	supplier, err := s.suppliers.GetSupplier(ctx, item.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("load supplier: %w", err)
	}
	adapter, err := s.provider.AdapterFor(supplier)
	if err != nil {
		return nil, fmt.Errorf("build adapter: %w", err)
	}

	result, err := adapter.PlaceOrder(ctx, &adapters.OrderRequest{
		Items: []adapters.OrderItem{{
			ExternalID: item.ExternalID,
			Quantity:   line.Quantity,
			UnitCost:   item.SupplierCost,
		}},
		Shipping: adapters.ShippingAddress{
			Name:       order.CustomerName,
			Address:    order.ShippingAddress,
			City:       order.ShippingCity,
			Country:    order.ShippingCountry,
			PostalCode: order.ShippingPostalCode,
		},
		CustomerEmail: order.CustomerEmail,
		Reference:     order.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("place supplier order: %w", err)
	}

	now := s.now()
	leg := &models.SupplierOrder{
		LocalOrderID:      order.ID,
		SupplierID:        item.SupplierID,
		CatalogItemID:     item.ID,
		ExternalOrderID:   result.ExternalOrderID,
		ExternalStatus:    models.OrderPending,
		ExternalOrderedAt: &now,
		ItemCost:          result.ItemCost,
		ShippingCost:      result.ShippingCost,
		TotalCost:         result.TotalCost,
	}
	if result.EstimatedDeliveryDays > 0 {
		eta := now.AddDate(0, 0, result.EstimatedDeliveryDays)
		leg.EstimatedDeliveryAt = &eta
	}

	s.logger.Info("supplier order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("external_order_id", result.ExternalOrderID),
		zap.String("supplier", supplier.DisplayName),
		zap.Float64("total_cost", result.TotalCost))
	return leg, nil
}

// AdvanceOrders polls every non-terminal supplier leg and applies forward
// status transitions reported by the supplier
func (s *OrderService) AdvanceOrders(ctx context.Context) error {
	legs, err := s.orders.ListActiveSupplierOrders(ctx)
	if err != nil {
		return fmt.Errorf("list active supplier orders: %w", err)
	}

	for i := range legs {
		if err := s.advanceLeg(ctx, &legs[i]); err != nil {
			s.logger.Error("failed to advance supplier order",
				zap.String("supplier_order_id", legs[i].ID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *OrderService) advanceLeg(ctx context.Context, leg *models.SupplierOrder) error {
	supplier, err := s.suppliers.GetSupplier(ctx, leg.SupplierID)
	if err != nil {
		return fmt.Errorf("load supplier: %w", err)
	}
	adapter, err := s.provider.AdapterFor(supplier)
	if err != nil {
		return fmt.Errorf("build adapter: %w", err)
	}

	info, err := adapter.GetOrderStatus(ctx, leg.ExternalOrderID)
	if err != nil {
		return fmt.Errorf("query order status: %w", err)
	}

	if info.Carrier != "" {
		leg.Carrier = info.Carrier
	}
	if info.TrackingNumber != "" {
		leg.TrackingNumber = info.TrackingNumber
	}

	if !leg.ExternalStatus.CanTransitionTo(info.Status) {
		if leg.Carrier != "" || leg.TrackingNumber != "" {
			return s.orders.UpdateSupplierOrder(ctx, leg)
		}
		return nil
	}

	if err := s.ApplyTransition(leg, info.Status); err != nil {
		return err
	}
	if err := s.orders.UpdateSupplierOrder(ctx, leg); err != nil {
		return fmt.Errorf("persist supplier order: %w", err)
	}
	return s.recomputeAggregate(ctx, leg.LocalOrderID)
}

// ApplyTransition moves a leg to the next status, stamping the shipping and
// delivery timestamps the new state implies. Already-set stamps are kept.
func (s *OrderService) ApplyTransition(leg *models.SupplierOrder, next models.SupplierOrderStatus) error {
	if !leg.ExternalStatus.CanTransitionTo(next) {
		return fmt.Errorf("illegal transition %s -> %s", leg.ExternalStatus, next)
	}

	now := s.now()
	switch next {
	case models.OrderShipped:
		if leg.ShippedAt == nil {
			leg.ShippedAt = &now
		}
	case models.OrderDelivered:
		if leg.ShippedAt == nil {
			leg.ShippedAt = &now
		}
		if leg.DeliveredAt == nil {
			leg.DeliveredAt = &now
		}
	}

	leg.TrackingLog = append(leg.TrackingLog, map[string]interface{}{
		"timestamp": now.Format(time.RFC3339),
		"status":    string(next),
	})
	leg.ExternalStatus = next
	return nil
}

// recomputeAggregate rolls the leg states up into the parent order status
func (s *OrderService) recomputeAggregate(ctx context.Context, localOrderID uuid.UUID) error {
	legs, err := s.orders.ListLegsByLocalOrder(ctx, localOrderID)
	if err != nil {
		return err
	}
	statuses := make([]models.SupplierOrderStatus, 0, len(legs))
	for i := range legs {
		statuses = append(statuses, legs[i].ExternalStatus)
	}
	return s.orders.UpdateLocalOrderStatus(ctx, localOrderID, models.AggregateOrderStatus(statuses))
}

// SendTrackingNotifications tells customers about newly shipped legs. Each
// leg notifies at most once, recorded on its tracking-notified stamp.
func (s *OrderService) SendTrackingNotifications(ctx context.Context) error {
	legs, err := s.orders.ListActiveSupplierOrders(ctx)
	if err != nil {
		return fmt.Errorf("list active supplier orders: %w", err)
	}

	for i := range legs {
		leg := &legs[i]
		if leg.ExternalStatus != models.OrderShipped || leg.TrackingNumber == "" || leg.TrackingNotifiedAt != nil {
			continue
		}
		order, err := s.orders.GetLocalOrder(ctx, leg.LocalOrderID)
		if err != nil {
			s.logger.Error("failed to load order for tracking notification",
				zap.String("supplier_order_id", leg.ID.String()), zap.Error(err))
			continue
		}
		if err := s.notifier.NotifyShipped(ctx, order, leg); err != nil {
			s.logger.Error("tracking notification failed",
				zap.String("supplier_order_id", leg.ID.String()), zap.Error(err))
			continue
		}
		now := s.now()
		leg.TrackingNotifiedAt = &now
		if err := s.orders.UpdateSupplierOrder(ctx, leg); err != nil {
			s.logger.Error("failed to stamp tracking notification",
				zap.String("supplier_order_id", leg.ID.String()), zap.Error(err))
		}
	}
	return nil
}

// SendDelayNotifications tells customers about legs past their estimated
// delivery date. Each leg notifies at most once.
func (s *OrderService) SendDelayNotifications(ctx context.Context) error {
	legs, err := s.orders.ListDelayedSupplierOrders(ctx, s.now())
	if err != nil {
		return fmt.Errorf("list delayed supplier orders: %w", err)
	}

	for i := range legs {
		leg := &legs[i]
		if leg.DelayNotifiedAt != nil {
			continue
		}
		raiseAlert(ctx, s.alerts, s.logger, &models.SystemAlert{
			SupplierID: &leg.SupplierID,
			Type:       models.AlertDeliveryDelay,
			Title:      fmt.Sprintf("Delivery delayed for order %s leg %s", leg.LocalOrderID, leg.ID),
			Message:    fmt.Sprintf("Supplier order %s passed its estimated delivery date", leg.ExternalOrderID),
			Severity:   models.SeverityWarning,
			Payload: models.JSONB{
				"orderId":             leg.LocalOrderID.String(),
				"supplierOrderId":     leg.ID.String(),
				"estimatedDeliveryAt": leg.EstimatedDeliveryAt,
			},
		})
		order, err := s.orders.GetLocalOrder(ctx, leg.LocalOrderID)
		if err != nil {
			s.logger.Error("failed to load order for delay notification",
				zap.String("supplier_order_id", leg.ID.String()), zap.Error(err))
			continue
		}
		if err := s.notifier.NotifyDelayed(ctx, order, leg); err != nil {
			s.logger.Error("delay notification failed",
				zap.String("supplier_order_id", leg.ID.String()), zap.Error(err))
			continue
		}
		now := s.now()
		leg.DelayNotifiedAt = &now
		if err := s.orders.UpdateSupplierOrder(ctx, leg); err != nil {
			s.logger.Error("failed to stamp delay notification",
				zap.String("supplier_order_id", leg.ID.String()), zap.Error(err))
		}
	}
	return nil
}

// RefreshTracking pulls carrier movement for shipped legs into the tracking log
func (s *OrderService) RefreshTracking(ctx context.Context, legID uuid.UUID) error {
	leg, err := s.orders.GetSupplierOrder(ctx, legID)
	if err != nil {
		return err
	}
	supplier, err := s.suppliers.GetSupplier(ctx, leg.SupplierID)
	if err != nil {
		return err
	}
	adapter, err := s.provider.AdapterFor(supplier)
	if err != nil {
		return err
	}

	info, err := adapter.GetTracking(ctx, leg.ExternalOrderID)
	if err != nil {
		return fmt.Errorf("query tracking: %w", err)
	}

	if info.Carrier != "" {
		leg.Carrier = info.Carrier
	}
	if info.TrackingNumber != "" {
		leg.TrackingNumber = info.TrackingNumber
	}
	if info.EstimatedDeliveryAt != nil {
		leg.EstimatedDeliveryAt = info.EstimatedDeliveryAt
	}
	for _, ev := range info.Events {
		raw, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		leg.TrackingLog = append(leg.TrackingLog, m)
	}
	return s.orders.UpdateSupplierOrder(ctx, leg)
}
