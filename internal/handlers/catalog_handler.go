package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dropshipping-service/internal/repository"
	"dropshipping-service/internal/services"
)

// CatalogHandler handles external catalog read and promotion endpoints
type CatalogHandler struct {
	catalog *repository.CatalogRepository
	sync    *services.SyncService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *repository.CatalogRepository, sync *services.SyncService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, sync: sync}
}

// List returns catalog items with filters and pagination
func (h *CatalogHandler) List(c *gin.Context) {
	filter := repository.CatalogFilter{
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
		PromotedOnly:  c.Query("promoted") == "true",
	}
	if raw := c.Query("supplierId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplierId"})
			return
		}
		filter.SupplierID = &id
	}

	items, total, err := h.catalog.ListItems(c.Request.Context(), filter, listOptions(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": total})
}

// Get returns a single catalog item
func (h *CatalogHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	item, err := h.catalog.GetItemByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "catalog item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

// Promote creates a sellable local product backed by the catalog item
func (h *CatalogHandler) Promote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	item, err := h.catalog.GetItemByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "catalog item not found"})
		return
	}
	if item.LocalProductID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "item already promoted", "localProductId": item.LocalProductID})
		return
	}

	if err := h.sync.Promote(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": item})
}
