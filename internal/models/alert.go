package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertType identifies the condition an alert reports on
type AlertType string

const (
	AlertSyncStale          AlertType = "sync_stale"
	AlertSyncFailed         AlertType = "sync_failed"
	AlertBudgetNearLimit    AlertType = "budget_near_limit"
	AlertPriceChange        AlertType = "price_change"
	AlertProductUnavailable AlertType = "product_unavailable"
	AlertCatalogStale       AlertType = "catalog_stale"
	AlertLowAvailability    AlertType = "low_availability"
	AlertOrderError         AlertType = "order_error"
	AlertDeliveryDelay      AlertType = "delivery_delay"
	AlertOrdersDelayed      AlertType = "orders_delayed"
	AlertSlowDelivery       AlertType = "slow_delivery"
	AlertAPIErrorRate       AlertType = "api_error_rate"
	AlertAPILatency         AlertType = "api_latency"
)

// AlertSeverity orders alert importance
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityError    AlertSeverity = "error"
	SeverityCritical AlertSeverity = "critical"
)

// SystemAlert is a deduplicated operational alert. A new alert with the same
// (type, title) as an unread one created within the last hour is suppressed.
type SystemAlert struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SupplierID *uuid.UUID `gorm:"type:uuid;index:idx_alerts_supplier" json:"supplierId,omitempty"`

	Type     AlertType     `gorm:"type:varchar(100);not null;index:idx_alerts_type" json:"type"`
	Title    string        `gorm:"type:varchar(500);not null" json:"title"`
	Message  string        `gorm:"type:text" json:"message,omitempty"`
	Severity AlertSeverity `gorm:"type:varchar(50);not null;default:'info'" json:"severity"`

	Read    bool  `gorm:"default:false;index:idx_alerts_read" json:"read"`
	Payload JSONB `gorm:"type:jsonb;default:'{}'" json:"payload,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_alerts_created" json:"createdAt"`

	// Relationships
	Supplier *SupplierAccount `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName specifies the table name for SystemAlert
func (SystemAlert) TableName() string {
	return "system_alerts"
}
