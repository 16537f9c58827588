package models

import (
	"time"

	"github.com/google/uuid"
)

// SupplierOrderStatus is the supplier-side fulfillment lifecycle.
// Forward path: PENDING → PROCESSING → SHIPPED → DELIVERED.
// CANCELLED and RETURNED are reachable sideways from any non-terminal state.
type SupplierOrderStatus string

const (
	OrderPending    SupplierOrderStatus = "pending"
	OrderProcessing SupplierOrderStatus = "processing"
	OrderShipped    SupplierOrderStatus = "shipped"
	OrderDelivered  SupplierOrderStatus = "delivered"
	OrderCancelled  SupplierOrderStatus = "cancelled"
	OrderReturned   SupplierOrderStatus = "returned"
)

var orderStatusRank = map[SupplierOrderStatus]int{
	OrderPending:    0,
	OrderProcessing: 1,
	OrderShipped:    2,
	OrderDelivered:  3,
}

// IsTerminal reports whether the status ends the lifecycle
func (s SupplierOrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled || s == OrderReturned
}

// CanTransitionTo enforces forward-only movement along the lifecycle. Side
// transitions into cancelled/returned are allowed from any non-terminal state.
func (s SupplierOrderStatus) CanTransitionTo(next SupplierOrderStatus) bool {
	if s == next || s.IsTerminal() {
		return false
	}
	if next == OrderCancelled || next == OrderReturned {
		return true
	}
	from, okFrom := orderStatusRank[s]
	to, okTo := orderStatusRank[next]
	return okFrom && okTo && to > from
}

// TrackingEvent is one entry of the append-only tracking log
type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// SupplierOrder tracks one supplier-side fulfillment leg of one local order line
type SupplierOrder struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	LocalOrderID  uuid.UUID `gorm:"type:uuid;not null;index:idx_supplier_orders_local" json:"localOrderId"`
	SupplierID    uuid.UUID `gorm:"type:uuid;not null;index:idx_supplier_orders_supplier" json:"supplierId"`
	CatalogItemID uuid.UUID `gorm:"type:uuid;not null" json:"catalogItemId"`

	ExternalOrderID string              `gorm:"type:varchar(255)" json:"externalOrderId,omitempty"`
	ExternalStatus  SupplierOrderStatus `gorm:"type:varchar(50);not null;default:'pending';index:idx_supplier_orders_status" json:"externalStatus"`

	Carrier        string `gorm:"type:varchar(100)" json:"carrier,omitempty"`
	TrackingNumber string `gorm:"type:varchar(255)" json:"trackingNumber,omitempty"`

	ExternalOrderedAt   *time.Time `json:"externalOrderedAt,omitempty"`
	ShippedAt           *time.Time `json:"shippedAt,omitempty"`
	EstimatedDeliveryAt *time.Time `gorm:"index:idx_supplier_orders_eta" json:"estimatedDeliveryAt,omitempty"`
	DeliveredAt         *time.Time `json:"deliveredAt,omitempty"`

	ItemCost     float64 `gorm:"type:numeric(12,2)" json:"itemCost"`
	ShippingCost float64 `gorm:"type:numeric(12,2)" json:"shippingCost"`
	TotalCost    float64 `gorm:"type:numeric(12,2)" json:"totalCost"`

	// Append-only log of carrier/state events
	TrackingLog JSONBArray `gorm:"type:jsonb;default:'[]'" json:"trackingLog,omitempty"`

	// Exactly-once notification markers (replaces the old notes-substring scheme)
	TrackingNotifiedAt *time.Time `json:"trackingNotifiedAt,omitempty"`
	DelayNotifiedAt    *time.Time `json:"delayNotifiedAt,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	LocalOrder  *LocalOrder          `gorm:"foreignKey:LocalOrderID" json:"localOrder,omitempty"`
	Supplier    *SupplierAccount     `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CatalogItem *ExternalCatalogItem `gorm:"foreignKey:CatalogItemID" json:"catalogItem,omitempty"`
}

// TableName specifies the table name for SupplierOrder
func (SupplierOrder) TableName() string {
	return "supplier_orders"
}

// IsDelayed reports whether the estimated delivery date has passed while the
// leg is still non-terminal
func (o *SupplierOrder) IsDelayed(now time.Time) bool {
	if o.EstimatedDeliveryAt == nil || o.ExternalStatus.IsTerminal() {
		return false
	}
	return now.After(*o.EstimatedDeliveryAt)
}

// TrackingURL builds a carrier tracking link when the carrier is known
func (o *SupplierOrder) TrackingURL() string {
	if o.TrackingNumber == "" {
		return ""
	}
	switch o.Carrier {
	case "DHL":
		return "https://www.dhl.com/track?tracking-id=" + o.TrackingNumber
	case "FedEx":
		return "https://www.fedex.com/track?tracknumber=" + o.TrackingNumber
	case "UPS":
		return "https://www.ups.com/track?tracknum=" + o.TrackingNumber
	case "USPS":
		return "https://tools.usps.com/go/TrackConfirmAction?qtc_tLabels1=" + o.TrackingNumber
	default:
		return ""
	}
}

// LocalOrderStatus is the storefront-facing aggregate status of a customer order
type LocalOrderStatus string

const (
	LocalOrderConfirmed  LocalOrderStatus = "confirmed"
	LocalOrderProcessing LocalOrderStatus = "processing"
	LocalOrderShipped    LocalOrderStatus = "shipped"
	LocalOrderDelivered  LocalOrderStatus = "delivered"
)

// AggregateOrderStatus combines the supplier-leg states into the parent order
// status: any pending/processing leg keeps the order processing, uniform
// shipped/delivered promote it, anything mixed stays processing.
func AggregateOrderStatus(legs []SupplierOrderStatus) LocalOrderStatus {
	if len(legs) == 0 {
		return LocalOrderProcessing
	}
	allShipped := true
	allDelivered := true
	for _, s := range legs {
		if s == OrderPending || s == OrderProcessing {
			return LocalOrderProcessing
		}
		if s != OrderShipped {
			allShipped = false
		}
		if s != OrderDelivered {
			allDelivered = false
		}
	}
	if allDelivered {
		return LocalOrderDelivered
	}
	if allShipped {
		return LocalOrderShipped
	}
	return LocalOrderProcessing
}

// LocalOrder is the minimal mirror of a confirmed storefront order needed for
// dispatch and aggregate status updates. The storefront owns the full row.
type LocalOrder struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Status        LocalOrderStatus `gorm:"type:varchar(50);not null;default:'confirmed'" json:"status"`
	CustomerName  string           `gorm:"type:varchar(255)" json:"customerName"`
	CustomerEmail string           `gorm:"type:varchar(255);not null" json:"customerEmail"`

	ShippingAddress    string `gorm:"type:varchar(500)" json:"shippingAddress,omitempty"`
	ShippingCity       string `gorm:"type:varchar(255)" json:"shippingCity,omitempty"`
	ShippingCountry    string `gorm:"type:varchar(100)" json:"shippingCountry,omitempty"`
	ShippingPostalCode string `gorm:"type:varchar(50)" json:"shippingPostalCode,omitempty"`

	Total float64 `gorm:"type:numeric(12,2)" json:"total"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Lines []LocalOrderLine `gorm:"foreignKey:LocalOrderID" json:"lines,omitempty"`
}

// TableName specifies the table name for LocalOrder
func (LocalOrder) TableName() string {
	return "local_orders"
}

// LocalOrderLine is one product line of a local order
type LocalOrderLine struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	LocalOrderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_order_lines_order" json:"localOrderId"`
	LocalProductID uuid.UUID `gorm:"type:uuid;not null" json:"localProductId"`
	Quantity       int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice      float64   `gorm:"type:numeric(12,2)" json:"unitPrice"`
}

// TableName specifies the table name for LocalOrderLine
func (LocalOrderLine) TableName() string {
	return "local_order_lines"
}
