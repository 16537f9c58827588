package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retention windows for the nightly cleanup pass
const (
	ApiLogRetention     = 30 * 24 * time.Hour
	SyncRunRetention    = 90 * 24 * time.Hour
	ReadAlertRetention  = 90 * 24 * time.Hour
	DeadItemGracePeriod = 180 * 24 * time.Hour
)

// CleanupService purges expired rows and resets the daily request counters
type CleanupService struct {
	suppliers SupplierStore
	catalog   CatalogStore
	syncs     SyncStore
	alerts    AlertStore
	apiLogs   ApiLogStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(
	suppliers SupplierStore,
	catalog CatalogStore,
	syncs SyncStore,
	alerts AlertStore,
	apiLogs ApiLogStore,
	logger *zap.Logger,
) *CleanupService {
	return &CleanupService{
		suppliers: suppliers,
		catalog:   catalog,
		syncs:     syncs,
		alerts:    alerts,
		apiLogs:   apiLogs,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the retention purges and counter reset. Individual purge
// failures are logged and do not stop the rest.
func (s *CleanupService) Run(ctx context.Context) error {
	now := s.now()

	if n, err := s.apiLogs.DeleteOlderThan(ctx, now.Add(-ApiLogRetention)); err != nil {
		s.logger.Error("api log purge failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("purged api call logs", zap.Int64("rows", n))
	}

	if n, err := s.syncs.DeleteOlderThan(ctx, now.Add(-SyncRunRetention)); err != nil {
		s.logger.Error("sync run purge failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("purged sync runs", zap.Int64("rows", n))
	}

	if n, err := s.alerts.DeleteReadOlderThan(ctx, now.Add(-ReadAlertRetention)); err != nil {
		s.logger.Error("alert purge failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("purged read alerts", zap.Int64("rows", n))
	}

	// Unavailable, never-promoted items are the only catalog rows ever deleted
	if n, err := s.catalog.DeleteUnavailableOlderThan(ctx, now.Add(-DeadItemGracePeriod)); err != nil {
		s.logger.Error("dead item purge failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("purged dead catalog items", zap.Int64("rows", n))
	}

	n, err := s.suppliers.ResetDailyCounters(ctx)
	if err != nil {
		s.logger.Error("daily counter reset failed", zap.Error(err))
		return err
	}
	s.logger.Info("reset daily request counters", zap.Int64("suppliers", n))
	return nil
}
