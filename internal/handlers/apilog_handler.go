package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dropshipping-service/internal/repository"
)

// ApiLogHandler handles API call log read endpoints
type ApiLogHandler struct {
	logs *repository.ApiLogRepository
}

// NewApiLogHandler creates a new API log handler
func NewApiLogHandler(logs *repository.ApiLogRepository) *ApiLogHandler {
	return &ApiLogHandler{logs: logs}
}

// List returns call logs for one supplier
func (h *ApiLogHandler) List(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier id"})
		return
	}

	logs, total, err := h.logs.List(c.Request.Context(), supplierID, listOptions(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs, "total": total})
}
