package models

import (
	"time"

	"github.com/google/uuid"
)

// ExternalCatalogItem mirrors one supplier product. (SupplierID, ExternalID) is unique;
// items are flagged unavailable rather than deleted when the supplier drops them.
type ExternalCatalogItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_supplier_external,priority:1;index:idx_catalog_supplier" json:"supplierId"`
	ExternalID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_catalog_supplier_external,priority:2" json:"externalId"`

	Title       string `gorm:"type:varchar(500);not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Pricing: resale price is derived from supplier cost via the stored margin
	SupplierCost  float64 `gorm:"type:numeric(12,2);not null" json:"supplierCost"`
	ResalePrice   float64 `gorm:"type:numeric(12,2);not null" json:"resalePrice"`
	MarginPercent float64 `gorm:"type:numeric(6,2)" json:"marginPercent"`

	Available     bool `gorm:"default:true;index:idx_catalog_available" json:"available"`
	ExternalStock int  `gorm:"default:0" json:"externalStock"`

	ImageURL    string     `gorm:"type:varchar(1000)" json:"imageUrl,omitempty"`
	ExtraImages JSONBArray `gorm:"type:jsonb;default:'[]'" json:"extraImages,omitempty"`

	ExternalCategory string  `gorm:"type:varchar(255);index:idx_catalog_category" json:"externalCategory,omitempty"`
	Weight           float64 `gorm:"type:numeric(10,3)" json:"weight"`
	Dimensions       JSONB   `gorm:"type:jsonb;default:'{}'" json:"dimensions,omitempty"`

	ShippingDaysMin int `gorm:"default:7" json:"shippingDaysMin"`
	ShippingDaysMax int `gorm:"default:15" json:"shippingDaysMax"`

	Rating      float64 `gorm:"type:numeric(4,2)" json:"rating"`
	ReviewCount int     `gorm:"default:0" json:"reviewCount"`

	SourceURL string `gorm:"type:varchar(1000)" json:"sourceUrl,omitempty"`
	RawData   JSONB  `gorm:"type:jsonb;default:'{}'" json:"rawData,omitempty"`

	// Link to the promoted sellable product, if any
	LocalProductID *uuid.UUID `gorm:"type:uuid;index:idx_catalog_local_product" json:"localProductId,omitempty"`

	RefreshedAt time.Time `gorm:"index:idx_catalog_refreshed" json:"refreshedAt"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`

	// Relationships
	Supplier *SupplierAccount `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName specifies the table name for ExternalCatalogItem
func (ExternalCatalogItem) TableName() string {
	return "external_catalog_items"
}

// CurrentMargin computes the effective margin from the stored prices. Falls back to
// the persisted MarginPercent when the cost is zero.
func (i *ExternalCatalogItem) CurrentMargin() float64 {
	if i.SupplierCost > 0 {
		return (i.ResalePrice - i.SupplierCost) / i.SupplierCost * 100
	}
	return i.MarginPercent
}

// InStock reports whether the item can currently be ordered
func (i *ExternalCatalogItem) InStock() bool {
	return i.Available && i.ExternalStock > 0
}

// LocalProduct is the sellable-catalog mirror a catalog item can be promoted into.
// The storefront owns the rest of its columns; this service only drives price,
// availability and the dropshipping flag.
type LocalProduct struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"type:varchar(500);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	SalePrice     float64 `gorm:"type:numeric(12,2);not null" json:"salePrice"`
	PurchasePrice float64 `gorm:"type:numeric(12,2)" json:"purchasePrice"`

	Active         bool `gorm:"default:true" json:"active"`
	IsDropshipping bool `gorm:"default:false" json:"isDropshipping"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for LocalProduct
func (LocalProduct) TableName() string {
	return "local_products"
}
