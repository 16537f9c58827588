package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dropshipping-service/internal/models"
	"dropshipping-service/internal/repository"
	"dropshipping-service/internal/services"
)

// SupplierHandler handles supplier account endpoints
type SupplierHandler struct {
	suppliers *repository.SupplierRepository
	provider  services.AdapterProvider
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(suppliers *repository.SupplierRepository, provider services.AdapterProvider) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers, provider: provider}
}

// CreateSupplierRequest is the payload for registering a supplier account
type CreateSupplierRequest struct {
	DisplayName       string                `json:"displayName" binding:"required"`
	SupplierType      models.SupplierType   `json:"supplierType" binding:"required"`
	APIKey            string                `json:"apiKey" binding:"required"`
	APISecret         string                `json:"apiSecret"`
	DailyRequestLimit int                   `json:"dailyRequestLimit"`
	Config            models.SupplierConfig `json:"config"`
}

// List returns supplier accounts with pagination
func (h *SupplierHandler) List(c *gin.Context) {
	opts := listOptions(c)
	suppliers, total, err := h.suppliers.List(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": suppliers, "total": total})
}

// Create registers a new supplier account
func (h *SupplierHandler) Create(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	supplier := &models.SupplierAccount{
		DisplayName:  req.DisplayName,
		SupplierType: req.SupplierType,
		APIKey:       req.APIKey,
		APISecret:    req.APISecret,
		IsActive:     true,
	}
	if req.DailyRequestLimit > 0 {
		supplier.DailyRequestLimit = req.DailyRequestLimit
	} else {
		supplier.DailyRequestLimit = 1000
	}
	supplier.SetConfig(req.Config)

	if err := h.suppliers.Create(c.Request.Context(), supplier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": supplier})
}

// Get returns a single supplier account
func (h *SupplierHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	supplier, err := h.suppliers.GetSupplier(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": supplier})
}

// UpdateSupplierRequest is the payload for updating a supplier account
type UpdateSupplierRequest struct {
	DisplayName       *string                `json:"displayName"`
	APIKey            *string                `json:"apiKey"`
	APISecret         *string                `json:"apiSecret"`
	IsActive          *bool                  `json:"isActive"`
	DailyRequestLimit *int                   `json:"dailyRequestLimit"`
	Config            *models.SupplierConfig `json:"config"`
}

// Update modifies a supplier account
func (h *SupplierHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	supplier, err := h.suppliers.GetSupplier(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
		return
	}

	if req.DisplayName != nil {
		supplier.DisplayName = *req.DisplayName
	}
	if req.APIKey != nil {
		supplier.APIKey = *req.APIKey
	}
	if req.APISecret != nil {
		supplier.APISecret = *req.APISecret
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	if req.DailyRequestLimit != nil {
		supplier.DailyRequestLimit = *req.DailyRequestLimit
	}
	if req.Config != nil {
		supplier.SetConfig(*req.Config)
	}

	if err := h.suppliers.Update(c.Request.Context(), supplier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": supplier})
}

// Delete removes a supplier account
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "supplier deleted"})
}

// TestConnection verifies the supplier credentials against the live API
func (h *SupplierHandler) TestConnection(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	supplier, err := h.suppliers.GetSupplier(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
		return
	}

	adapter, err := h.provider.AdapterFor(supplier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := adapter.TestConnection(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "failed", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listOptions parses common pagination query params
func listOptions(c *gin.Context) repository.ListOptions {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}
