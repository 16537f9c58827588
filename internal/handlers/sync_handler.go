package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dropshipping-service/internal/models"
	"dropshipping-service/internal/repository"
	"dropshipping-service/internal/services"
)

// SyncHandler handles sync run endpoints
type SyncHandler struct {
	syncs   *repository.SyncRepository
	service *services.SyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncs *repository.SyncRepository, service *services.SyncService) *SyncHandler {
	return &SyncHandler{syncs: syncs, service: service}
}

// ListRuns returns recent sync runs for a supplier
func (h *SyncHandler) ListRuns(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier id"})
		return
	}

	runs, total, err := h.syncs.ListRuns(c.Request.Context(), supplierID, listOptions(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs, "total": total})
}

// TriggerRun starts a synchronous sync run for one supplier
func (h *SyncHandler) TriggerRun(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier id"})
		return
	}

	kind := models.SyncRunKind(c.DefaultQuery("kind", string(models.SyncRunFull)))
	switch kind {
	case models.SyncRunFull, models.SyncRunDiscovery, models.SyncRunRefresh:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
		return
	}

	if err := h.service.RunSupplier(c.Request.Context(), supplierID, kind); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
