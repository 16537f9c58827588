package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dropshipping-service/internal/metrics"
	"dropshipping-service/internal/models"
)

// Health thresholds. Checks raise alerts only when a measurement crosses its bound.
const (
	SyncStaleAfter         = 48 * time.Hour
	BudgetWarnPercent      = 90.0
	FailedRunWindow        = 24 * time.Hour
	StaleItemsWarnPercent  = 20.0
	AvailabilityWarnFloor  = 50.0
	DelayedOrdersWarnCount = 10
	SlowDeliveryWarnDays   = 21.0
	ApiErrorWarnPercent    = 10.0
	ApiLatencyWarnMs       = 5000.0

	deliveryStatsWindow = 30 * 24 * time.Hour
)

// MonitoringService sweeps supplier, catalog, order and API health and raises
// deduplicated alerts for anything out of bounds
type MonitoringService struct {
	suppliers SupplierStore
	catalog   CatalogStore
	syncs     SyncStore
	orders    OrderStore
	apiLogs   ApiLogStore
	alerts    AlertStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewMonitoringService creates a new monitoring service
func NewMonitoringService(
	suppliers SupplierStore,
	catalog CatalogStore,
	syncs SyncStore,
	orders OrderStore,
	apiLogs ApiLogStore,
	alerts AlertStore,
	logger *zap.Logger,
) *MonitoringService {
	return &MonitoringService{
		suppliers: suppliers,
		catalog:   catalog,
		syncs:     syncs,
		orders:    orders,
		apiLogs:   apiLogs,
		alerts:    alerts,
		logger:    logger,
		now:       time.Now,
	}
}

// RunChecks executes every health check once. Check failures are logged and
// do not stop the remaining checks.
func (s *MonitoringService) RunChecks(ctx context.Context) error {
	suppliers, err := s.suppliers.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active suppliers: %w", err)
	}

	for i := range suppliers {
		sup := &suppliers[i]
		s.checkSyncStaleness(ctx, sup)
		s.checkBudget(ctx, sup)
		s.checkFailedRuns(ctx, sup)
		s.checkCatalogHealth(ctx, sup)
	}

	s.checkDelayedOrders(ctx)
	s.checkDeliveryTimes(ctx)
	s.checkApiHealth(ctx)
	return nil
}

func (s *MonitoringService) checkSyncStaleness(ctx context.Context, sup *models.SupplierAccount) {
	if sup.LastSyncAt != nil && s.now().Sub(*sup.LastSyncAt) <= SyncStaleAfter {
		return
	}
	s.raise(ctx, &models.SystemAlert{
		SupplierID: &sup.ID,
		Type:       models.AlertSyncStale,
		Title:      fmt.Sprintf("No recent sync for %s", sup.DisplayName),
		Message:    fmt.Sprintf("Supplier %s has not completed a sync in over %v", sup.DisplayName, SyncStaleAfter),
		Severity:   models.SeverityWarning,
	})
}

func (s *MonitoringService) checkBudget(ctx context.Context, sup *models.SupplierAccount) {
	used := sup.BudgetUsedPercent()
	if used <= BudgetWarnPercent {
		return
	}
	s.raise(ctx, &models.SystemAlert{
		SupplierID: &sup.ID,
		Type:       models.AlertBudgetNearLimit,
		Title:      fmt.Sprintf("Request budget nearly exhausted for %s", sup.DisplayName),
		Message: fmt.Sprintf("%s has used %.0f%% of its daily request budget (%d/%d)",
			sup.DisplayName, used, sup.RequestsToday, sup.DailyRequestLimit),
		Severity: models.SeverityWarning,
		Payload:  models.JSONB{"usedPercent": used},
	})
}

func (s *MonitoringService) checkFailedRuns(ctx context.Context, sup *models.SupplierAccount) {
	since := s.now().Add(-FailedRunWindow)

	failed, err := s.syncs.CountFailedSince(ctx, sup.ID, since)
	if err != nil {
		s.logger.Error("failed-run check errored", zap.Error(err))
		return
	}
	if failed == 0 {
		return
	}

	severity := models.SeverityError
	ok, err := s.syncs.HasCompletedSince(ctx, sup.ID, since)
	if err != nil {
		s.logger.Error("completed-run check errored", zap.Error(err))
		return
	}
	// No successful run alongside the failures means the supplier is dark
	if !ok {
		severity = models.SeverityCritical
	}

	s.raise(ctx, &models.SystemAlert{
		SupplierID: &sup.ID,
		Type:       models.AlertSyncFailed,
		Title:      fmt.Sprintf("Sync failures for %s", sup.DisplayName),
		Message:    fmt.Sprintf("%d sync runs failed for %s in the last %v", failed, sup.DisplayName, FailedRunWindow),
		Severity:   severity,
		Payload:    models.JSONB{"failedRuns": failed},
	})
}

func (s *MonitoringService) checkCatalogHealth(ctx context.Context, sup *models.SupplierAccount) {
	staleCutoff := s.now().Add(-SyncStaleAfter)
	total, available, stale, err := s.catalog.CountBySupplier(ctx, sup.ID, staleCutoff)
	if err != nil {
		s.logger.Error("catalog health check errored", zap.Error(err))
		return
	}
	if total == 0 {
		return
	}

	stalePct := float64(stale) / float64(total) * 100
	if stalePct > StaleItemsWarnPercent {
		s.raise(ctx, &models.SystemAlert{
			SupplierID: &sup.ID,
			Type:       models.AlertCatalogStale,
			Title:      fmt.Sprintf("Catalog going stale for %s", sup.DisplayName),
			Message:    fmt.Sprintf("%.0f%% of %s items have not been refreshed recently", stalePct, sup.DisplayName),
			Severity:   models.SeverityWarning,
			Payload:    models.JSONB{"stalePercent": stalePct, "total": total},
		})
	}

	availPct := float64(available) / float64(total) * 100
	if availPct < AvailabilityWarnFloor {
		s.raise(ctx, &models.SystemAlert{
			SupplierID: &sup.ID,
			Type:       models.AlertLowAvailability,
			Title:      fmt.Sprintf("Low catalog availability for %s", sup.DisplayName),
			Message:    fmt.Sprintf("Only %.0f%% of %s items are still available", availPct, sup.DisplayName),
			Severity:   models.SeverityWarning,
			Payload:    models.JSONB{"availablePercent": availPct, "total": total},
		})
	}
}

func (s *MonitoringService) checkDelayedOrders(ctx context.Context) {
	delayed, err := s.orders.CountDelayed(ctx, s.now())
	if err != nil {
		s.logger.Error("delayed-order check errored", zap.Error(err))
		return
	}
	if delayed <= DelayedOrdersWarnCount {
		return
	}
	s.raise(ctx, &models.SystemAlert{
		Type:     models.AlertOrdersDelayed,
		Title:    "Supplier orders running late",
		Message:  fmt.Sprintf("%d supplier orders are past their estimated delivery date", delayed),
		Severity: models.SeverityWarning,
		Payload:  models.JSONB{"delayed": delayed},
	})
}

func (s *MonitoringService) checkDeliveryTimes(ctx context.Context) {
	avg, err := s.orders.AvgDeliveryDays(ctx, s.now().Add(-deliveryStatsWindow))
	if err != nil {
		s.logger.Error("delivery-time check errored", zap.Error(err))
		return
	}
	if avg <= SlowDeliveryWarnDays {
		return
	}
	s.raise(ctx, &models.SystemAlert{
		Type:     models.AlertSlowDelivery,
		Title:    "Average delivery time too high",
		Message:  fmt.Sprintf("Mean ship-to-door time is %.1f days over the last 30 days", avg),
		Severity: models.SeverityWarning,
		Payload:  models.JSONB{"avgDays": avg},
	})
}

func (s *MonitoringService) checkApiHealth(ctx context.Context) {
	stats, err := s.apiLogs.StatsSince(ctx, s.now().Add(-24*time.Hour))
	if err != nil {
		s.logger.Error("api health check errored", zap.Error(err))
		return
	}
	if stats.Total == 0 {
		return
	}

	errPct := float64(stats.Errors) / float64(stats.Total) * 100
	if errPct > ApiErrorWarnPercent {
		s.raise(ctx, &models.SystemAlert{
			Type:     models.AlertAPIErrorRate,
			Title:    "Supplier API error rate elevated",
			Message:  fmt.Sprintf("%.1f%% of %d supplier API calls failed in the last 24h", errPct, stats.Total),
			Severity: models.SeverityError,
			Payload:  models.JSONB{"errorPercent": errPct, "calls": stats.Total},
		})
	}

	if stats.AvgLatencyMs > ApiLatencyWarnMs {
		s.raise(ctx, &models.SystemAlert{
			Type:     models.AlertAPILatency,
			Title:    "Supplier API latency elevated",
			Message:  fmt.Sprintf("Mean supplier API latency is %.0fms over the last 24h", stats.AvgLatencyMs),
			Severity: models.SeverityWarning,
			Payload:  models.JSONB{"avgLatencyMs": stats.AvgLatencyMs},
		})
	}
}

func (s *MonitoringService) raise(ctx context.Context, alert *models.SystemAlert) {
	created, err := s.alerts.CreateIfNew(ctx, alert)
	if err != nil {
		s.logger.Error("failed to raise alert", zap.String("type", string(alert.Type)), zap.Error(err))
		return
	}
	if created {
		metrics.AlertsRaised.WithLabelValues(string(alert.Type)).Inc()
		s.logger.Warn("alert raised",
			zap.String("type", string(alert.Type)),
			zap.String("severity", string(alert.Severity)),
			zap.String("title", alert.Title))
	}
}
