package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SupplierType represents the supported dropshipping supplier platforms
type SupplierType string

const (
	SupplierAliexpress     SupplierType = "ALIEXPRESS"
	SupplierCJDropshipping SupplierType = "CJ_DROPSHIPPING"
)

// SupplierConfig is the typed shape of the SupplierAccount configuration column.
// Zero values mean "not configured"; MarginPercent falls back to DefaultMarginPercent.
type SupplierConfig struct {
	MarginPercent     float64  `json:"marginPercent,omitempty"`
	MinPrice          float64  `json:"minPrice,omitempty"`
	MaxPrice          float64  `json:"maxPrice,omitempty"`
	AllowedCategories []string `json:"allowedCategories,omitempty"`
	MaxItemsPerSync   int      `json:"maxItemsPerSync,omitempty"`
	MinRating         float64  `json:"minRating,omitempty"`
	AutoPromote       bool     `json:"autoPromote,omitempty"`
}

// DefaultMarginPercent is applied when a supplier has no configured margin.
const DefaultMarginPercent = 30.0

// SupplierAccount represents one external dropshipping supplier integration
type SupplierAccount struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DisplayName  string       `gorm:"type:varchar(255);not null" json:"displayName"`
	SupplierType SupplierType `gorm:"type:varchar(50);not null;index:idx_suppliers_type" json:"supplierType"`

	// Credential pair for the supplier API
	APIKey    string `gorm:"type:varchar(255)" json:"-"`
	APISecret string `gorm:"type:varchar(255)" json:"-"`

	// Sync/pricing configuration (see SupplierConfig)
	Config JSONB `gorm:"type:jsonb;default:'{}'" json:"config"`

	IsActive bool `gorm:"default:true;index:idx_suppliers_active" json:"isActive"`

	// Daily request budget accounting
	DailyRequestLimit int `gorm:"default:1000" json:"dailyRequestLimit"`
	RequestsToday     int `gorm:"default:0" json:"requestsToday"`

	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	CatalogItems []ExternalCatalogItem `gorm:"foreignKey:SupplierID" json:"catalogItems,omitempty"`
	SyncRuns     []SyncRun             `gorm:"foreignKey:SupplierID" json:"syncRuns,omitempty"`
}

// TableName specifies the table name for SupplierAccount
func (SupplierAccount) TableName() string {
	return "supplier_accounts"
}

// GetConfig decodes the configuration column into its typed shape
func (s *SupplierAccount) GetConfig() SupplierConfig {
	cfg := SupplierConfig{}
	if s.Config == nil {
		return cfg
	}
	raw, err := json.Marshal(s.Config)
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(raw, &cfg)
	return cfg
}

// SetConfig encodes a typed configuration into the JSONB column
func (s *SupplierAccount) SetConfig(cfg SupplierConfig) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	m := JSONB{}
	_ = json.Unmarshal(raw, &m)
	s.Config = m
}

// MarginPercent returns the configured margin or the default
func (s *SupplierAccount) MarginPercent() float64 {
	cfg := s.GetConfig()
	if cfg.MarginPercent > 0 {
		return cfg.MarginPercent
	}
	return DefaultMarginPercent
}

// HasBudget reports whether the account may issue another request today
func (s *SupplierAccount) HasBudget() bool {
	return s.IsActive && s.RequestsToday < s.DailyRequestLimit
}

// BudgetUsedPercent returns how much of the daily budget has been consumed
func (s *SupplierAccount) BudgetUsedPercent() float64 {
	if s.DailyRequestLimit <= 0 {
		return 0
	}
	return float64(s.RequestsToday) / float64(s.DailyRequestLimit) * 100
}
