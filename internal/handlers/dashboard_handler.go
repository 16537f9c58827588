package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dropshipping-service/internal/repository"
)

// DashboardHandler serves the operator dashboard summary
type DashboardHandler struct {
	suppliers *repository.SupplierRepository
	catalog   *repository.CatalogRepository
	orders    *repository.OrderRepository
	alerts    *repository.AlertRepository
	apiLogs   *repository.ApiLogRepository
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	suppliers *repository.SupplierRepository,
	catalog *repository.CatalogRepository,
	orders *repository.OrderRepository,
	alerts *repository.AlertRepository,
	apiLogs *repository.ApiLogRepository,
) *DashboardHandler {
	return &DashboardHandler{
		suppliers: suppliers,
		catalog:   catalog,
		orders:    orders,
		alerts:    alerts,
		apiLogs:   apiLogs,
	}
}

// Summary returns per-supplier catalog/budget state plus the global
// fulfillment, alert and API counters for the last 24 hours
func (h *DashboardHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now()
	staleCutoff := now.Add(-24 * time.Hour)

	active, err := h.suppliers.ListActive(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	supplierRows := make([]gin.H, 0, len(active))
	for i := range active {
		s := &active[i]
		total, available, stale, err := h.catalog.CountBySupplier(ctx, s.ID, staleCutoff)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		supplierRows = append(supplierRows, gin.H{
			"id":                s.ID,
			"displayName":       s.DisplayName,
			"supplierType":      s.SupplierType,
			"lastSyncAt":        s.LastSyncAt,
			"budgetUsedPercent": s.BudgetUsedPercent(),
			"catalogItems":      total,
			"availableItems":    available,
			"staleItems":        stale,
		})
	}

	delayed, err := h.orders.CountDelayed(ctx, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	avgDelivery, err := h.orders.AvgDeliveryDays(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	unread, err := h.alerts.CountUnread(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stats, err := h.apiLogs.StatsSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suppliers":       supplierRows,
		"delayedOrders":   delayed,
		"avgDeliveryDays": avgDelivery,
		"unreadAlerts":    unread,
		"apiCalls": gin.H{
			"total":        stats.Total,
			"errors":       stats.Errors,
			"avgLatencyMs": stats.AvgLatencyMs,
		},
	})
}
