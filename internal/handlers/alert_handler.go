package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dropshipping-service/internal/models"
	"dropshipping-service/internal/repository"
)

// AlertHandler handles system alert endpoints
type AlertHandler struct {
	alerts *repository.AlertRepository
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts *repository.AlertRepository) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List returns alerts with filters and pagination
func (h *AlertHandler) List(c *gin.Context) {
	filter := repository.AlertFilter{
		UnreadOnly: c.Query("unread") == "true",
		Type:       models.AlertType(c.Query("type")),
		Severity:   models.AlertSeverity(c.Query("severity")),
	}
	if raw := c.Query("supplierId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplierId"})
			return
		}
		filter.SupplierID = &id
	}

	alerts, total, err := h.alerts.List(c.Request.Context(), filter, listOptions(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts, "total": total})
}

// UnreadCount returns the number of unread alerts
func (h *AlertHandler) UnreadCount(c *gin.Context) {
	count, err := h.alerts.CountUnread(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead flags one alert as read
func (h *AlertHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.alerts.MarkRead(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// MarkAllRead flags every unread alert as read
func (h *AlertHandler) MarkAllRead(c *gin.Context) {
	count, err := h.alerts.MarkAllRead(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": count})
}
