package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/metrics"
	"dropshipping-service/internal/models"
	"dropshipping-service/internal/pricing"
)

const (
	// RefreshAfter is the staleness bound that puts an item into the refresh phase
	RefreshAfter = 24 * time.Hour

	// RetireAfter is how long an item may go unrefreshed before the retirement probe
	RetireAfter = 7 * 24 * time.Hour

	// PriceAlertThresholdPercent triggers a price_change alert on moves strictly above it
	PriceAlertThresholdPercent = 10.0

	defaultMaxItemsPerSync = 100
	refreshBatchLimit      = 200
	retireBatchLimit       = 100

	// defaultSupplierPause spaces out suppliers in RunAll so their request
	// bursts do not overlap
	defaultSupplierPause = 5 * time.Second
)

// SyncService runs the catalog synchronization passes: discovery of new
// products, refresh of stale ones, and retirement of products the supplier
// no longer carries.
type SyncService struct {
	suppliers SupplierStore
	catalog   CatalogStore
	products  ProductStore
	syncs     SyncStore
	alerts    AlertStore
	provider  AdapterProvider
	logger    *zap.Logger
	now       func() time.Time

	// Service-wide cap for suppliers without their own MaxItemsPerSync
	maxItemsPerRun int

	// Pause between suppliers in RunAll
	supplierPause time.Duration
}

// NewSyncService creates a new sync service
func NewSyncService(
	suppliers SupplierStore,
	catalog CatalogStore,
	products ProductStore,
	syncs SyncStore,
	alerts AlertStore,
	provider AdapterProvider,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		suppliers:      suppliers,
		catalog:        catalog,
		products:       products,
		syncs:          syncs,
		alerts:         alerts,
		provider:       provider,
		logger:         logger,
		now:            time.Now,
		maxItemsPerRun: defaultMaxItemsPerSync,
		supplierPause:  defaultSupplierPause,
	}
}

// SetMaxItemsPerRun overrides the default per-run discovery cap
func (s *SyncService) SetMaxItemsPerRun(n int) {
	if n > 0 {
		s.maxItemsPerRun = n
	}
}

// SetSupplierPause overrides the pause between suppliers in RunAll
func (s *SyncService) SetSupplierPause(d time.Duration) {
	if d >= 0 {
		s.supplierPause = d
	}
}

// RunAll synchronizes every active supplier. A failure on one supplier does
// not stop the others.
func (s *SyncService) RunAll(ctx context.Context, kind models.SyncRunKind) error {
	suppliers, err := s.suppliers.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active suppliers: %w", err)
	}

	var failed int
	for i := range suppliers {
		if i > 0 && s.supplierPause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.supplierPause):
			}
		}
		if err := s.RunSupplier(ctx, suppliers[i].ID, kind); err != nil {
			failed++
			s.logger.Error("supplier sync failed",
				zap.String("supplier_id", suppliers[i].ID.String()),
				zap.String("supplier", suppliers[i].DisplayName),
				zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d supplier syncs failed", failed, len(suppliers))
	}
	return nil
}

// RunSupplier executes one sync run for one supplier. The run record captures
// outcome counters; the supplier's last-sync stamp only advances on success.
func (s *SyncService) RunSupplier(ctx context.Context, supplierID uuid.UUID, kind models.SyncRunKind) error {
	supplier, err := s.suppliers.GetSupplier(ctx, supplierID)
	if err != nil {
		return fmt.Errorf("load supplier: %w", err)
	}
	if !supplier.IsActive {
		return fmt.Errorf("supplier %s is inactive", supplier.DisplayName)
	}

	start := s.now()
	run := &models.SyncRun{
		SupplierID: supplierID,
		Kind:       kind,
		Status:     models.SyncRunStarted,
		StartedAt:  start,
	}
	if err := s.syncs.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("create sync run: %w", err)
	}

	// Even an adapter that cannot be built leaves a failed run behind, so
	// the failed-run monitoring check sees it
	var stats models.SyncStats
	var syncErr error
	adapter, err := s.provider.AdapterFor(supplier)
	if err != nil {
		syncErr = fmt.Errorf("build adapter: %w", err)
	} else {
		stats, syncErr = s.runPhases(ctx, supplier, adapter, kind)
	}

	finished := s.now()
	run.ApplyStats(stats)
	run.DurationSeconds = int(finished.Sub(start).Seconds())
	run.CompletedAt = &finished
	metrics.SyncDuration.Observe(finished.Sub(start).Seconds())

	if syncErr != nil {
		run.Status = models.SyncRunFailed
		run.ErrorDetail = syncErr.Error()
		metrics.SyncRunsTotal.WithLabelValues("failed").Inc()
		if err := s.syncs.UpdateRun(ctx, run); err != nil {
			s.logger.Error("failed to finalize sync run", zap.Error(err))
		}
		s.raiseAlert(ctx, &models.SystemAlert{
			SupplierID: &supplier.ID,
			Type:       models.AlertSyncFailed,
			Title:      fmt.Sprintf("Sync failed for %s", supplier.DisplayName),
			Message:    syncErr.Error(),
			Severity:   models.SeverityError,
			Payload: models.JSONB{
				"runId": run.ID.String(),
				"kind":  string(kind),
			},
		})
		return syncErr
	}

	run.Status = models.SyncRunCompleted
	metrics.SyncRunsTotal.WithLabelValues("completed").Inc()
	if err := s.syncs.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("finalize sync run: %w", err)
	}
	if err := s.suppliers.UpdateLastSync(ctx, supplierID, finished); err != nil {
		return fmt.Errorf("stamp last sync: %w", err)
	}

	s.logger.Info("sync run completed",
		zap.String("supplier", supplier.DisplayName),
		zap.String("kind", string(kind)),
		zap.Int("seen", stats.ItemsSeen),
		zap.Int("created", stats.ItemsCreated),
		zap.Int("updated", stats.ItemsUpdated),
		zap.Int("retired", stats.ItemsRetired),
		zap.Int("errors", stats.Errors))
	return nil
}

func (s *SyncService) runPhases(ctx context.Context, supplier *models.SupplierAccount, adapter adapters.SupplierAdapter, kind models.SyncRunKind) (models.SyncStats, error) {
	stats := models.SyncStats{}

	if kind == models.SyncRunFull || kind == models.SyncRunDiscovery {
		if err := s.discover(ctx, supplier, adapter, &stats); err != nil {
			return stats, fmt.Errorf("discovery: %w", err)
		}
	}
	if kind == models.SyncRunFull || kind == models.SyncRunRefresh {
		if err := s.refresh(ctx, supplier, adapter, &stats); err != nil {
			return stats, fmt.Errorf("refresh: %w", err)
		}
	}
	if kind == models.SyncRunFull {
		if err := s.retire(ctx, supplier, adapter, &stats); err != nil {
			return stats, fmt.Errorf("retirement: %w", err)
		}
	}
	return stats, nil
}

// discover pages through the supplier's index, one pass per allowed
// category, and creates catalog rows for products that pass the account's
// filters. Re-running discovery over the same index creates nothing new.
func (s *SyncService) discover(ctx context.Context, supplier *models.SupplierAccount, adapter adapters.SupplierAdapter, stats *models.SyncStats) error {
	cfg := supplier.GetConfig()
	maxItems := cfg.MaxItemsPerSync
	if maxItems <= 0 {
		maxItems = s.maxItemsPerRun
	}

	categories := cfg.AllowedCategories
	if len(categories) == 0 {
		categories = []string{""}
	}

	seen := 0
	for _, category := range categories {
		opts := &adapters.SearchOptions{
			Category:  category,
			MinPrice:  cfg.MinPrice,
			MaxPrice:  cfg.MaxPrice,
			MinRating: cfg.MinRating,
			Page:      1,
		}

		for {
			page, err := adapter.SearchProducts(ctx, opts)
			if err != nil {
				return err
			}

			for i := range page.Products {
				if seen >= maxItems {
					return nil
				}
				p := &page.Products[i]
				seen++
				stats.ItemsSeen++

				if !pricing.PassesFilters(p, cfg) {
					continue
				}
				if err := s.upsertDiscovered(ctx, supplier, p, cfg, stats); err != nil {
					stats.Errors++
					s.logger.Warn("failed to store discovered product",
						zap.String("external_id", p.ExternalID), zap.Error(err))
				}
			}

			if !page.HasMore || seen >= maxItems {
				break
			}
			opts.Page++
		}
		if seen >= maxItems {
			return nil
		}
	}
	return nil
}

func (s *SyncService) upsertDiscovered(ctx context.Context, supplier *models.SupplierAccount, p *adapters.NormalizedProduct, cfg models.SupplierConfig, stats *models.SyncStats) error {
	existing, err := s.catalog.GetItemByExternalID(ctx, supplier.ID, p.ExternalID)
	if err != nil {
		return err
	}

	if existing != nil {
		// Known product: touch freshness and stock, never duplicate
		existing.ExternalStock = p.Stock
		existing.Available = p.Available
		existing.RefreshedAt = s.now()
		if err := s.catalog.UpdateItem(ctx, existing); err != nil {
			return err
		}
		stats.ItemsUpdated++
		metrics.ItemsSynced.WithLabelValues("updated").Inc()
		return nil
	}

	margin := supplier.MarginPercent()
	item := &models.ExternalCatalogItem{
		SupplierID:       supplier.ID,
		ExternalID:       p.ExternalID,
		Title:            p.Title,
		Description:      p.Description,
		SupplierCost:     p.Cost,
		ResalePrice:      pricing.ResalePrice(p.Cost, margin),
		MarginPercent:    margin,
		Available:        p.Available,
		ExternalStock:    p.Stock,
		ImageURL:         p.ImageURL,
		ExternalCategory: p.Category,
		Weight:           p.Weight,
		ShippingDaysMin:  p.ShippingDaysMin,
		ShippingDaysMax:  p.ShippingDaysMax,
		Rating:           p.Rating,
		ReviewCount:      p.ReviewCount,
		SourceURL:        p.SourceURL,
		RefreshedAt:      s.now(),
	}
	for _, img := range p.ExtraImages {
		item.ExtraImages = append(item.ExtraImages, img)
	}
	if p.RawData != nil {
		item.RawData = models.JSONB(p.RawData)
	}
	if p.Dimensions != nil {
		item.Dimensions = models.JSONB(p.Dimensions)
	}

	if err := s.catalog.CreateItem(ctx, item); err != nil {
		return err
	}
	stats.ItemsCreated++
	metrics.ItemsSynced.WithLabelValues("created").Inc()

	if cfg.AutoPromote {
		if err := s.Promote(ctx, item); err != nil {
			s.logger.Warn("auto-promotion failed",
				zap.String("item_id", item.ID.String()), zap.Error(err))
		}
	}
	return nil
}

// Promote creates a sellable local product backed by the catalog item
func (s *SyncService) Promote(ctx context.Context, item *models.ExternalCatalogItem) error {
	if item.LocalProductID != nil {
		return nil
	}
	product := &models.LocalProduct{
		Name:           item.Title,
		Description:    item.Description,
		SalePrice:      item.ResalePrice,
		PurchasePrice:  item.SupplierCost,
		Active:         item.Available,
		IsDropshipping: true,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return fmt.Errorf("create local product: %w", err)
	}
	item.LocalProductID = &product.ID
	return s.catalog.UpdateItem(ctx, item)
}

// refresh re-probes items unrefreshed for longer than RefreshAfter, repricing
// on cost moves while preserving each item's margin
func (s *SyncService) refresh(ctx context.Context, supplier *models.SupplierAccount, adapter adapters.SupplierAdapter, stats *models.SyncStats) error {
	cutoff := s.now().Add(-RefreshAfter)
	items, err := s.catalog.ListStaleItems(ctx, supplier.ID, cutoff, refreshBatchLimit)
	if err != nil {
		return err
	}

	for i := range items {
		item := &items[i]
		if err := s.refreshItem(ctx, supplier, adapter, item, stats); err != nil {
			if errors.Is(err, adapters.ErrRateLimitExceeded) {
				return err
			}
			stats.Errors++
			s.logger.Warn("failed to refresh item",
				zap.String("item_id", item.ID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *SyncService) refreshItem(ctx context.Context, supplier *models.SupplierAccount, adapter adapters.SupplierAdapter, item *models.ExternalCatalogItem, stats *models.SyncStats) error {
	avail, err := adapter.GetAvailability(ctx, item.ExternalID)
	if err != nil {
		if errors.Is(err, adapters.ErrNotFound) {
			return s.retireItem(ctx, supplier, item, stats)
		}
		return err
	}

	if !avail.Available {
		return s.retireItem(ctx, supplier, item, stats)
	}

	if avail.Cost > 0 && avail.Cost != item.SupplierCost {
		change := pricing.ChangePercent(item.SupplierCost, avail.Cost)
		if change > PriceAlertThresholdPercent {
			s.raiseAlert(ctx, &models.SystemAlert{
				SupplierID: &supplier.ID,
				Type:       models.AlertPriceChange,
				Title:      fmt.Sprintf("Price moved %.1f%% on %s", change, item.Title),
				Message: fmt.Sprintf("Supplier cost changed from %.2f to %.2f (%.1f%%) for item %s",
					item.SupplierCost, avail.Cost, change, item.ExternalID),
				Severity: models.SeverityWarning,
				Payload: models.JSONB{
					"itemId":  item.ID.String(),
					"oldCost": item.SupplierCost,
					"newCost": avail.Cost,
					"percent": change,
				},
			})
		}
		item.ResalePrice = pricing.Reprice(item, avail.Cost)
		item.SupplierCost = avail.Cost
		item.MarginPercent = item.CurrentMargin()

		if item.LocalProductID != nil {
			if err := s.products.UpdatePricing(ctx, *item.LocalProductID, item.ResalePrice, item.SupplierCost); err != nil {
				s.logger.Warn("failed to propagate price to local product",
					zap.String("item_id", item.ID.String()), zap.Error(err))
			}
		}
	}

	item.ExternalStock = avail.Stock
	item.Available = true
	item.RefreshedAt = s.now()
	if err := s.catalog.UpdateItem(ctx, item); err != nil {
		return err
	}
	stats.ItemsUpdated++
	metrics.ItemsSynced.WithLabelValues("refreshed").Inc()
	return nil
}

// retire probes items unrefreshed for longer than RetireAfter and marks the
// dead ones unavailable. Rows are never deleted here; order history keeps
// pointing at them.
func (s *SyncService) retire(ctx context.Context, supplier *models.SupplierAccount, adapter adapters.SupplierAdapter, stats *models.SyncStats) error {
	cutoff := s.now().Add(-RetireAfter)
	items, err := s.catalog.ListStaleItems(ctx, supplier.ID, cutoff, retireBatchLimit)
	if err != nil {
		return err
	}

	for i := range items {
		item := &items[i]
		avail, err := adapter.GetAvailability(ctx, item.ExternalID)
		if err != nil {
			if errors.Is(err, adapters.ErrRateLimitExceeded) {
				return err
			}
			if !errors.Is(err, adapters.ErrNotFound) {
				stats.Errors++
				continue
			}
		}
		if err == nil && avail.Available {
			item.ExternalStock = avail.Stock
			item.RefreshedAt = s.now()
			if updErr := s.catalog.UpdateItem(ctx, item); updErr != nil {
				stats.Errors++
			}
			continue
		}
		if err := s.retireItem(ctx, supplier, item, stats); err != nil {
			stats.Errors++
		}
	}
	return nil
}

func (s *SyncService) retireItem(ctx context.Context, supplier *models.SupplierAccount, item *models.ExternalCatalogItem, stats *models.SyncStats) error {
	if err := s.catalog.MarkUnavailable(ctx, item.ID); err != nil {
		return err
	}
	if item.LocalProductID != nil {
		if err := s.products.Deactivate(ctx, *item.LocalProductID); err != nil {
			s.logger.Warn("failed to deactivate promoted product",
				zap.String("item_id", item.ID.String()), zap.Error(err))
		}
	}
	stats.ItemsRetired++
	metrics.ItemsSynced.WithLabelValues("retired").Inc()

	s.raiseAlert(ctx, &models.SystemAlert{
		SupplierID: &supplier.ID,
		Type:       models.AlertProductUnavailable,
		Title:      fmt.Sprintf("Product no longer available: %s", item.Title),
		Message:    fmt.Sprintf("Item %s from %s was marked unavailable", item.ExternalID, supplier.DisplayName),
		Severity:   models.SeverityWarning,
		Payload:    models.JSONB{"itemId": item.ID.String()},
	})
	return nil
}

func (s *SyncService) raiseAlert(ctx context.Context, alert *models.SystemAlert) {
	raiseAlert(ctx, s.alerts, s.logger, alert)
}

// raiseAlert writes a deduplicated alert; failures are logged, never surfaced
func raiseAlert(ctx context.Context, alerts AlertStore, logger *zap.Logger, alert *models.SystemAlert) {
	created, err := alerts.CreateIfNew(ctx, alert)
	if err != nil {
		logger.Error("failed to raise alert", zap.String("type", string(alert.Type)), zap.Error(err))
		return
	}
	if created {
		metrics.AlertsRaised.WithLabelValues(string(alert.Type)).Inc()
	}
}
