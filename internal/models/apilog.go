package models

import (
	"time"

	"github.com/google/uuid"
)

// ApiCallLog records one outbound supplier API request, successful or not.
// Rows older than the retention window are purged by the cleanup pass.
type ApiCallLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index:idx_api_logs_supplier" json:"supplierId"`

	Endpoint string `gorm:"type:varchar(500);not null" json:"endpoint"`
	Method   string `gorm:"type:varchar(10);not null;default:'GET'" json:"method"`

	// Truncated request/response snapshots for debugging
	Request  JSONB `gorm:"type:jsonb;default:'{}'" json:"request,omitempty"`
	Response JSONB `gorm:"type:jsonb;default:'{}'" json:"response,omitempty"`

	StatusCode   int    `gorm:"default:0;index:idx_api_logs_status" json:"statusCode"`
	LatencyMs    int64  `gorm:"default:0" json:"latencyMs"`
	ErrorMessage string `gorm:"type:text" json:"errorMessage,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_api_logs_created" json:"createdAt"`

	// Relationships
	Supplier *SupplierAccount `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName specifies the table name for ApiCallLog
func (ApiCallLog) TableName() string {
	return "api_call_logs"
}

// IsError reports whether the call failed at the HTTP or transport level
func (l *ApiCallLog) IsError() bool {
	return l.ErrorMessage != "" || l.StatusCode >= 400
}
