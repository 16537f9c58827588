package services

import (
	"context"

	"go.uber.org/zap"

	"dropshipping-service/internal/models"
)

// LogNotifier records customer notifications in the service log. Wire a real
// mail gateway behind the Notifier interface to deliver them.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyConfirmed records an order confirmation for the customer
func (n *LogNotifier) NotifyConfirmed(ctx context.Context, order *models.LocalOrder, legs []*models.SupplierOrder) error {
	n.logger.Info("order confirmation notification",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_email", order.CustomerEmail),
		zap.Int("supplier_legs", len(legs)))
	return nil
}

// NotifyShipped records a shipment notification for the customer
func (n *LogNotifier) NotifyShipped(ctx context.Context, order *models.LocalOrder, leg *models.SupplierOrder) error {
	n.logger.Info("shipment notification",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_email", order.CustomerEmail),
		zap.String("carrier", leg.Carrier),
		zap.String("tracking_number", leg.TrackingNumber),
		zap.String("tracking_url", leg.TrackingURL()))
	return nil
}

// NotifyDelayed records a delay notification for the customer
func (n *LogNotifier) NotifyDelayed(ctx context.Context, order *models.LocalOrder, leg *models.SupplierOrder) error {
	n.logger.Info("delay notification",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_email", order.CustomerEmail),
		zap.Timep("estimated_delivery_at", leg.EstimatedDeliveryAt))
	return nil
}
