package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/adapters/aliexpress"
	"dropshipping-service/internal/adapters/cjdropshipping"
	"dropshipping-service/internal/config"
	"dropshipping-service/internal/database"
	"dropshipping-service/internal/handlers"
	"dropshipping-service/internal/middleware"
	"dropshipping-service/internal/models"
	"dropshipping-service/internal/repository"
	"dropshipping-service/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.Database.DSN(), cfg.Environment)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Warn("auto-migration failed", zap.Error(err))
	}

	// Repositories
	supplierRepo := repository.NewSupplierRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	productRepo := repository.NewProductRepository(db)
	syncRepo := repository.NewSyncRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	apiLogRepo := repository.NewApiLogRepository(db)

	// Adapters
	gate := adapters.NewRequestGate(supplierRepo, apiLogRepo, logger)
	registry := adapters.NewRegistry()
	registry.Register(models.SupplierAliexpress, aliexpress.New)
	registry.Register(models.SupplierCJDropshipping, cjdropshipping.New)
	provider := &services.RegistryProvider{Registry: registry, Gate: gate}

	// Services
	syncService := services.NewSyncService(supplierRepo, catalogRepo, productRepo, syncRepo, alertRepo, provider, logger)
	orderService := services.NewOrderService(orderRepo, catalogRepo, supplierRepo, alertRepo, provider, services.NewLogNotifier(logger), logger)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	supplierHandler := handlers.NewSupplierHandler(supplierRepo, provider)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, syncService)
	syncHandler := handlers.NewSyncHandler(syncRepo, syncService)
	orderHandler := handlers.NewOrderHandler(orderRepo, orderService)
	alertHandler := handlers.NewAlertHandler(alertRepo)
	apiLogHandler := handlers.NewApiLogHandler(apiLogRepo)
	dashboardHandler := handlers.NewDashboardHandler(supplierRepo, catalogRepo, orderRepo, alertRepo, apiLogRepo)

	router := setupRouter(cfg, healthHandler, supplierHandler, catalogHandler, syncHandler, orderHandler, alertHandler, apiLogHandler, dashboardHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("dropshipping service starting",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	supplierHandler *handlers.SupplierHandler,
	catalogHandler *handlers.CatalogHandler,
	syncHandler *handlers.SyncHandler,
	orderHandler *handlers.OrderHandler,
	alertHandler *handlers.AlertHandler,
	apiLogHandler *handlers.ApiLogHandler,
	dashboardHandler *handlers.DashboardHandler,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(middleware.SecurityHeaders())

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(middleware.CORS(origins))
	router.Use(middleware.RateLimit(20, 40))

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/dashboard", dashboardHandler.Summary)

		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("", supplierHandler.List)
			suppliers.POST("", supplierHandler.Create)
			suppliers.GET("/:id", supplierHandler.Get)
			suppliers.PATCH("/:id", supplierHandler.Update)
			suppliers.DELETE("/:id", supplierHandler.Delete)
			suppliers.POST("/:id/test", supplierHandler.TestConnection)
			suppliers.GET("/:id/sync-runs", syncHandler.ListRuns)
			suppliers.POST("/:id/sync", syncHandler.TriggerRun)
			suppliers.GET("/:id/api-logs", apiLogHandler.List)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/items", catalogHandler.List)
			catalog.GET("/items/:id", catalogHandler.Get)
			catalog.POST("/items/:id/promote", catalogHandler.Promote)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("/supplier-orders", orderHandler.ListSupplierOrders)
			orders.GET("/supplier-orders/:id", orderHandler.GetSupplierOrder)
			orders.POST("/supplier-orders/:id/tracking/refresh", orderHandler.RefreshTracking)
			orders.POST("/:id/dispatch", orderHandler.Dispatch)
		}

		alerts := v1.Group("/alerts")
		{
			alerts.GET("", alertHandler.List)
			alerts.GET("/unread-count", alertHandler.UnreadCount)
			alerts.POST("/:id/read", alertHandler.MarkRead)
			alerts.POST("/read-all", alertHandler.MarkAllRead)
		}
	}

	return router
}
