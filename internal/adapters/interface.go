package adapters

import (
	"context"
	"time"

	"dropshipping-service/internal/models"
)

// SupplierAdapter defines the interface that all supplier adapters must implement
type SupplierAdapter interface {
	// GetType returns the supplier platform type
	GetType() models.SupplierType

	// TestConnection verifies the credentials work against the live API
	TestConnection(ctx context.Context) error

	// Products
	SearchProducts(ctx context.Context, opts *SearchOptions) (*ProductsPage, error)
	GetProduct(ctx context.Context, externalID string) (*NormalizedProduct, error)
	GetAvailability(ctx context.Context, externalID string) (*Availability, error)
	GetCategories(ctx context.Context) ([]Category, error)

	// Orders
	PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error)
	GetOrderStatus(ctx context.Context, externalOrderID string) (*OrderStatusInfo, error)
	GetTracking(ctx context.Context, externalOrderID string) (*TrackingInfo, error)
	CancelOrder(ctx context.Context, externalOrderID string) error
}

// SearchOptions contains catalog search filters and pagination
type SearchOptions struct {
	Query     string
	Category  string
	MinPrice  float64
	MaxPrice  float64
	MinRating float64
	Page      int
	PageSize  int
}

// ProductsPage contains one page of normalized products
type ProductsPage struct {
	Products []NormalizedProduct
	Page     int
	HasMore  bool
	Total    int
}

// NormalizedProduct is the supplier-neutral product shape every adapter
// maps its platform payloads into
type NormalizedProduct struct {
	ExternalID  string                 `json:"externalId"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Cost        float64                `json:"cost"`
	Currency    string                 `json:"currency,omitempty"`
	Stock       int                    `json:"stock"`
	Available   bool                   `json:"available"`
	ImageURL    string                 `json:"imageUrl,omitempty"`
	ExtraImages []string               `json:"extraImages,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Weight      float64                `json:"weight,omitempty"`
	Dimensions  map[string]interface{} `json:"dimensions,omitempty"`

	ShippingDaysMin int `json:"shippingDaysMin,omitempty"`
	ShippingDaysMax int `json:"shippingDaysMax,omitempty"`

	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`

	SourceURL string                 `json:"sourceUrl,omitempty"`
	RawData   map[string]interface{} `json:"rawData,omitempty"`
}

// Availability is the lightweight stock/price probe result
type Availability struct {
	Available bool    `json:"available"`
	Stock     int     `json:"stock"`
	Cost      float64 `json:"cost"`
}

// Category is one entry of a supplier's category tree
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// OrderItem is one line of an outbound supplier order
type OrderItem struct {
	ExternalID string  `json:"externalId"`
	Quantity   int     `json:"quantity"`
	UnitCost   float64 `json:"unitCost"`
}

// ShippingAddress is the destination of an outbound supplier order
type ShippingAddress struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone,omitempty"`
}

// OrderRequest is an outbound order placed against the supplier
type OrderRequest struct {
	Items         []OrderItem     `json:"items"`
	Shipping      ShippingAddress `json:"shipping"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	Reference     string          `json:"reference,omitempty"`
}

// OrderResult is the supplier's acknowledgement of a placed order
type OrderResult struct {
	ExternalOrderID       string  `json:"externalOrderId"`
	ItemCost              float64 `json:"itemCost"`
	ShippingCost          float64 `json:"shippingCost"`
	TotalCost             float64 `json:"totalCost"`
	EstimatedDeliveryDays int     `json:"estimatedDeliveryDays"`
}

// OrderStatusInfo is the supplier-side view of an order's progress
type OrderStatusInfo struct {
	Status         models.SupplierOrderStatus `json:"status"`
	Carrier        string                     `json:"carrier,omitempty"`
	TrackingNumber string                     `json:"trackingNumber,omitempty"`
	ShippedAt      *time.Time                 `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time                 `json:"deliveredAt,omitempty"`
}

// TrackingInfo is the carrier-level movement detail of a shipped order
type TrackingInfo struct {
	Carrier             string                 `json:"carrier,omitempty"`
	TrackingNumber      string                 `json:"trackingNumber,omitempty"`
	EstimatedDeliveryAt *time.Time             `json:"estimatedDeliveryAt,omitempty"`
	Events              []models.TrackingEvent `json:"events,omitempty"`
}
