package aliexpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/models"
)

const (
	gatewayURL = "https://api-sg.aliexpress.com/sync"

	// The gateway stops returning useful pages well before its advertised
	// depth; cap paging to keep budget consumption bounded.
	maxPages = 50

	defaultPageSize = 50

	// The gateway throttles aggressively; one request every two seconds
	// stays well inside its per-app allowance
	requestInterval = 2 * time.Second
)

// Client implements SupplierAdapter for the AliExpress open platform
type Client struct {
	httpClient *http.Client
	gate       *adapters.RequestGate
	retrier    *adapters.Retrier
	limiter    *rate.Limiter
	account    *models.SupplierAccount
	appKey     string
	appSecret  string
	baseURL    string
}

// New creates an adapter bound to one supplier account
func New(account *models.SupplierAccount, gate *adapters.RequestGate) (adapters.SupplierAdapter, error) {
	if account.APIKey == "" || account.APISecret == "" {
		return nil, fmt.Errorf("aliexpress account %s: %w", account.DisplayName, adapters.ErrAuthFailed)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		gate:       gate,
		retrier:    adapters.NewRetrier(nil),
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		account:    account,
		appKey:     account.APIKey,
		appSecret:  account.APISecret,
		baseURL:    gatewayURL,
	}, nil
}

// GetType returns the supplier platform type
func (c *Client) GetType() models.SupplierType {
	return models.SupplierAliexpress
}

// SetBaseURL overrides the gateway endpoint, used by tests
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// TestConnection verifies the credentials against the category endpoint
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.GetCategories(ctx)
	return err
}

// call signs and posts one gateway request through the budget gate
func (c *Client) call(ctx context.Context, method string, business map[string]string) (map[string]interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := commonParams(c.appKey, method, time.Now())
	for k, v := range business {
		params[k] = v
	}
	params["sign"] = Sign(c.appSecret, params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	var parsed map[string]interface{}
	_, err := c.gate.Do(ctx, c.account.ID, method, http.MethodPost, func(ctx context.Context) (*adapters.CallResult, error) {
		res := &adapters.CallResult{Request: requestSnapshot(business, method)}

		var lastBody []byte
		retryErr := c.retrier.Do(ctx, method, func(ctx context.Context) (int, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
			if err != nil {
				return 0, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return 0, fmt.Errorf("%w: %v", adapters.ErrSupplierUnavailable, err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return resp.StatusCode, err
			}
			res.StatusCode = resp.StatusCode
			lastBody = body

			if resp.StatusCode != http.StatusOK {
				return resp.StatusCode, &adapters.APIError{
					StatusCode: resp.StatusCode,
					Endpoint:   method,
					Message:    string(body),
				}
			}
			return resp.StatusCode, nil
		})
		if retryErr != nil {
			return res, retryErr
		}

		if err := json.Unmarshal(lastBody, &parsed); err != nil {
			return res, fmt.Errorf("parse %s response: %w", method, err)
		}
		res.Response = models.JSONB(parsed)

		if errResp, ok := parsed["error_response"].(map[string]interface{}); ok {
			msg, _ := errResp["msg"].(string)
			return res, &adapters.APIError{StatusCode: http.StatusOK, Endpoint: method, Message: msg}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func requestSnapshot(business map[string]string, method string) models.JSONB {
	snap := models.JSONB{"method": method}
	for k, v := range business {
		snap[k] = v
	}
	return snap
}

// SearchProducts queries the affiliate product index
func (c *Client) SearchProducts(ctx context.Context, opts *adapters.SearchOptions) (*adapters.ProductsPage, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	if page > maxPages {
		return &adapters.ProductsPage{Page: page, HasMore: false}, nil
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	business := map[string]string{
		"page_no":   strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	}
	if opts.Query != "" {
		business["keywords"] = opts.Query
	}
	if opts.Category != "" {
		business["category_ids"] = opts.Category
	}
	if opts.MinPrice > 0 {
		business["min_sale_price"] = strconv.FormatFloat(opts.MinPrice, 'f', 2, 64)
	}
	if opts.MaxPrice > 0 {
		business["max_sale_price"] = strconv.FormatFloat(opts.MaxPrice, 'f', 2, 64)
	}

	parsed, err := c.call(ctx, "aliexpress.affiliate.product.query", business)
	if err != nil {
		return nil, err
	}

	items, total := extractProducts(parsed)
	products := make([]adapters.NormalizedProduct, 0, len(items))
	for _, raw := range items {
		products = append(products, convertProduct(raw))
	}

	return &adapters.ProductsPage{
		Products: products,
		Page:     page,
		HasMore:  page < maxPages && page*pageSize < total,
		Total:    total,
	}, nil
}

// GetProduct fetches one product's detail
func (c *Client) GetProduct(ctx context.Context, externalID string) (*adapters.NormalizedProduct, error) {
	parsed, err := c.call(ctx, "aliexpress.affiliate.productdetail.get", map[string]string{
		"product_ids": externalID,
	})
	if err != nil {
		return nil, err
	}

	items, _ := extractProducts(parsed)
	if len(items) == 0 {
		return nil, fmt.Errorf("product %s: %w", externalID, adapters.ErrNotFound)
	}
	p := convertProduct(items[0])
	return &p, nil
}

// GetAvailability probes current stock and cost for one product
func (c *Client) GetAvailability(ctx context.Context, externalID string) (*adapters.Availability, error) {
	p, err := c.GetProduct(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return &adapters.Availability{
		Available: p.Available && p.Stock > 0,
		Stock:     p.Stock,
		Cost:      p.Cost,
	}, nil
}

// GetCategories fetches the top-level category tree
func (c *Client) GetCategories(ctx context.Context) ([]adapters.Category, error) {
	parsed, err := c.call(ctx, "aliexpress.affiliate.category.get", map[string]string{})
	if err != nil {
		return nil, err
	}

	var cats []adapters.Category
	walk(parsed, "categories", func(raw map[string]interface{}) {
		cats = append(cats, adapters.Category{
			ID:       stringValue(raw, "category_id"),
			Name:     stringValue(raw, "category_name"),
			ParentID: stringValue(raw, "parent_category_id"),
		})
	})
	return cats, nil
}

// PlaceOrder creates a supplier order. The open platform offers no live order
// placement for this credential tier, so the order leg runs in sandbox mode
// with deterministic cost math.
func (c *Client) PlaceOrder(ctx context.Context, req *adapters.OrderRequest) (*adapters.OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order has no items: %w", adapters.ErrValidationFailed)
	}

	var itemCost float64
	units := 0
	for _, item := range req.Items {
		itemCost += item.UnitCost * float64(item.Quantity)
		units += item.Quantity
	}
	shippingCost := 5.99 + 1.50*float64(units-1)

	return &adapters.OrderResult{
		ExternalOrderID:       "AE-" + strings.ToUpper(uuid.NewString()[:12]),
		ItemCost:              round2(itemCost),
		ShippingCost:          round2(shippingCost),
		TotalCost:             round2(itemCost + shippingCost),
		EstimatedDeliveryDays: 12,
	}, nil
}

// GetOrderStatus reports the supplier-side state of a placed order.
// Sandbox orders stay in processing until the carrier feed takes over.
func (c *Client) GetOrderStatus(ctx context.Context, externalOrderID string) (*adapters.OrderStatusInfo, error) {
	if externalOrderID == "" {
		return nil, adapters.ErrNotFound
	}
	return &adapters.OrderStatusInfo{Status: models.OrderProcessing}, nil
}

// GetTracking returns carrier movement for a sandbox order
func (c *Client) GetTracking(ctx context.Context, externalOrderID string) (*adapters.TrackingInfo, error) {
	if externalOrderID == "" {
		return nil, adapters.ErrNotFound
	}
	return &adapters.TrackingInfo{}, nil
}

// CancelOrder cancels a sandbox order
func (c *Client) CancelOrder(ctx context.Context, externalOrderID string) error {
	if externalOrderID == "" {
		return adapters.ErrNotFound
	}
	return nil
}

// extractProducts digs the product list and total count out of the nested
// resp_result envelope
func extractProducts(parsed map[string]interface{}) ([]map[string]interface{}, int) {
	var items []map[string]interface{}
	total := 0

	walk(parsed, "products", func(raw map[string]interface{}) {
		items = append(items, raw)
	})
	if result := dig(parsed, "resp_result", "result"); result != nil {
		if t, ok := result["total_record_count"].(float64); ok {
			total = int(t)
		}
	}
	if total == 0 {
		total = len(items)
	}
	return items, total
}

func convertProduct(raw map[string]interface{}) adapters.NormalizedProduct {
	cost := floatValue(raw, "target_sale_price")
	if cost == 0 {
		cost = floatValue(raw, "sale_price")
	}
	stock := int(floatValue(raw, "stock"))

	var extra []string
	if imgs, ok := raw["product_small_image_urls"].(map[string]interface{}); ok {
		if list, ok := imgs["string"].([]interface{}); ok {
			for _, u := range list {
				if s, ok := u.(string); ok {
					extra = append(extra, s)
				}
			}
		}
	}

	return adapters.NormalizedProduct{
		ExternalID:      stringValue(raw, "product_id"),
		Title:           stringValue(raw, "product_title"),
		Cost:            cost,
		Currency:        stringValue(raw, "target_sale_price_currency"),
		Stock:           stock,
		Available:       stock > 0,
		ImageURL:        stringValue(raw, "product_main_image_url"),
		ExtraImages:     extra,
		Category:        stringValue(raw, "first_level_category_name"),
		ShippingDaysMin: 7,
		ShippingDaysMax: 15,
		Rating:          floatValue(raw, "evaluate_rate"),
		ReviewCount:     int(floatValue(raw, "lastest_volume")),
		SourceURL:       stringValue(raw, "product_detail_url"),
		RawData:         raw,
	}
}

// walk visits every object under any array field named key, at any depth
func walk(node interface{}, key string, visit func(map[string]interface{})) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, child := range v {
			if k == key {
				collect(child, visit)
				continue
			}
			walk(child, key, visit)
		}
	case []interface{}:
		for _, child := range v {
			walk(child, key, visit)
		}
	}
}

func collect(node interface{}, visit func(map[string]interface{})) {
	switch v := node.(type) {
	case map[string]interface{}:
		// Envelope style: {"product": [...]}
		for _, child := range v {
			collect(child, visit)
		}
	case []interface{}:
		for _, child := range v {
			if m, ok := child.(map[string]interface{}); ok {
				visit(m)
			}
		}
	}
}

func dig(m map[string]interface{}, path ...string) map[string]interface{} {
	cur := m
	for _, p := range path {
		next, ok := cur[p].(map[string]interface{})
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func stringValue(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func floatValue(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		s := strings.TrimSuffix(v, "%")
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	return 0
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
