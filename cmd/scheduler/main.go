// The scheduler binary runs the periodic maintenance passes. Each subcommand
// is one cron entry point: sync, orders, notify, monitor, cleanup.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/adapters/aliexpress"
	"dropshipping-service/internal/adapters/cjdropshipping"
	"dropshipping-service/internal/config"
	"dropshipping-service/internal/database"
	"dropshipping-service/internal/models"
	"dropshipping-service/internal/repository"
	"dropshipping-service/internal/services"
)

type app struct {
	db      *gorm.DB
	logger  *zap.Logger
	sync    *services.SyncService
	orders  *services.OrderService
	monitor *services.MonitoringService
	cleanup *services.CleanupService
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := database.Connect(cfg.Database.DSN(), cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Warn("auto-migration failed", zap.Error(err))
	}

	supplierRepo := repository.NewSupplierRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	productRepo := repository.NewProductRepository(db)
	syncRepo := repository.NewSyncRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	apiLogRepo := repository.NewApiLogRepository(db)

	gate := adapters.NewRequestGate(supplierRepo, apiLogRepo, logger)
	if cfg.Sync.DelayMaxMs > 0 {
		gate.SetDelay(
			time.Duration(cfg.Sync.DelayMinMs)*time.Millisecond,
			time.Duration(cfg.Sync.DelayMaxMs)*time.Millisecond,
		)
	}
	registry := adapters.NewRegistry()
	registry.Register(models.SupplierAliexpress, aliexpress.New)
	registry.Register(models.SupplierCJDropshipping, cjdropshipping.New)
	provider := &services.RegistryProvider{Registry: registry, Gate: gate}

	syncService := services.NewSyncService(supplierRepo, catalogRepo, productRepo, syncRepo, alertRepo, provider, logger)
	syncService.SetMaxItemsPerRun(cfg.Sync.MaxItemsPerRun)
	if cfg.Sync.SupplierPauseMs > 0 {
		syncService.SetSupplierPause(time.Duration(cfg.Sync.SupplierPauseMs) * time.Millisecond)
	}

	return &app{
		db:     db,
		logger: logger,
		sync:   syncService,
		orders: services.NewOrderService(orderRepo, catalogRepo, supplierRepo, alertRepo, provider, services.NewLogNotifier(logger), logger),
		monitor: services.NewMonitoringService(
			supplierRepo, catalogRepo, syncRepo, orderRepo, apiLogRepo, alertRepo, logger),
		cleanup: services.NewCleanupService(
			supplierRepo, catalogRepo, syncRepo, alertRepo, apiLogRepo, logger),
	}, nil
}

func run(fn func(a *app, ctx context.Context) error) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			log.Printf("setup failed: %v", err)
			os.Exit(1)
		}
		defer a.logger.Sync()

		if err := fn(a, cmd.Context()); err != nil {
			a.logger.Error("run failed", zap.Error(err))
			os.Exit(1)
		}
	}
}

func main() {
	root := &cobra.Command{
		Use:   "scheduler",
		Short: "Dropshipping maintenance scheduler",
	}

	var kind, supplier string
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize supplier catalogs",
		Run: run(func(a *app, ctx context.Context) error {
			if supplier != "" {
				id, err := uuid.Parse(supplier)
				if err != nil {
					return fmt.Errorf("invalid supplier id %q: %w", supplier, err)
				}
				return a.sync.RunSupplier(ctx, id, models.SyncRunKind(kind))
			}
			return a.sync.RunAll(ctx, models.SyncRunKind(kind))
		}),
	}
	syncCmd.Flags().StringVar(&kind, "kind", string(models.SyncRunFull), "sync kind: FULL, DISCOVERY or REFRESH")
	syncCmd.Flags().StringVar(&supplier, "supplier", "", "sync only this supplier id")

	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "Dispatch pending orders and advance supplier legs",
		Run: run(func(a *app, ctx context.Context) error {
			if err := a.orders.DispatchPending(ctx); err != nil {
				return err
			}
			return a.orders.AdvanceOrders(ctx)
		}),
	}

	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Send tracking and delay notifications",
		Run: run(func(a *app, ctx context.Context) error {
			if err := a.orders.SendTrackingNotifications(ctx); err != nil {
				return err
			}
			return a.orders.SendDelayNotifications(ctx)
		}),
	}

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run health checks and raise alerts",
		Run: run(func(a *app, ctx context.Context) error {
			return a.monitor.RunChecks(ctx)
		}),
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge expired rows and reset daily request counters",
		Run: run(func(a *app, ctx context.Context) error {
			return a.cleanup.Run(ctx)
		}),
	}

	root.AddCommand(syncCmd, ordersCmd, notifyCmd, monitorCmd, cleanupCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
