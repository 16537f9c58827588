package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dropshipping-service/internal/repository"
	"dropshipping-service/internal/services"
)

// OrderHandler handles supplier order endpoints
type OrderHandler struct {
	orders  *repository.OrderRepository
	service *services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *repository.OrderRepository, service *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders, service: service}
}

// ListSupplierOrders returns supplier order legs with pagination
func (h *OrderHandler) ListSupplierOrders(c *gin.Context) {
	orders, total, err := h.orders.ListSupplierOrders(c.Request.Context(), listOptions(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "total": total})
}

// GetSupplierOrder returns one supplier order leg
func (h *OrderHandler) GetSupplierOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	order, err := h.orders.GetSupplierOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

// Dispatch places supplier legs for one local order
func (h *OrderHandler) Dispatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Dispatch(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dispatched"})
}

// RefreshTracking pulls fresh carrier movement for one supplier leg
func (h *OrderHandler) RefreshTracking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.RefreshTracking(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.GetSupplierOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}
