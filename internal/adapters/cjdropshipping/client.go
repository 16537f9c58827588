package cjdropshipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/models"
)

const (
	defaultBaseURL = "https://developers.cjdropshipping.com/api2.0/v1"

	// The platform rejects pageSize above 100
	maxPageSize = 100

	// One request per second keeps the token under the platform's QPS cap
	requestInterval = time.Second
)

// Client implements SupplierAdapter for CJDropshipping
type Client struct {
	httpClient *http.Client
	gate       *adapters.RequestGate
	retrier    *adapters.Retrier
	limiter    *rate.Limiter
	account    *models.SupplierAccount
	token      string
	baseURL    string
}

// New creates an adapter bound to one supplier account. CJ authenticates with
// a single access token carried in a request header.
func New(account *models.SupplierAccount, gate *adapters.RequestGate) (adapters.SupplierAdapter, error) {
	if account.APIKey == "" {
		return nil, fmt.Errorf("cjdropshipping account %s: %w", account.DisplayName, adapters.ErrAuthFailed)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		gate:       gate,
		retrier:    adapters.NewRetrier(nil),
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		account:    account,
		token:      account.APIKey,
		baseURL:    defaultBaseURL,
	}, nil
}

// GetType returns the supplier platform type
func (c *Client) GetType() models.SupplierType {
	return models.SupplierCJDropshipping
}

// SetBaseURL overrides the API endpoint, used by tests
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// TestConnection verifies the token against the settings endpoint
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodGet, "/setting/get", nil, nil)
	return err
}

type envelope struct {
	Code    int             `json:"code"`
	Result  bool            `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call performs one authenticated request through the budget gate
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var data json.RawMessage

	_, err := c.gate.Do(ctx, c.account.ID, path, method, func(ctx context.Context) (*adapters.CallResult, error) {
		res := &adapters.CallResult{Request: models.JSONB{"path": path}}

		var payload []byte
		if body != nil {
			var err error
			payload, err = json.Marshal(body)
			if err != nil {
				return res, err
			}
			res.Request["body"] = string(payload)
		}

		fullURL := c.baseURL + path
		if len(query) > 0 {
			fullURL += "?" + query.Encode()
			res.Request["query"] = query.Encode()
		}

		var lastBody []byte
		retryErr := c.retrier.Do(ctx, path, func(ctx context.Context) (int, error) {
			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
			if err != nil {
				return 0, err
			}
			req.Header.Set("CJ-Access-Token", c.token)
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return 0, fmt.Errorf("%w: %v", adapters.ErrSupplierUnavailable, err)
			}
			defer resp.Body.Close()

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return resp.StatusCode, err
			}
			res.StatusCode = resp.StatusCode
			lastBody = b

			if resp.StatusCode == http.StatusUnauthorized {
				return resp.StatusCode, adapters.ErrAuthFailed
			}
			if resp.StatusCode != http.StatusOK {
				return resp.StatusCode, &adapters.APIError{
					StatusCode: resp.StatusCode,
					Endpoint:   path,
					Message:    string(b),
				}
			}
			return resp.StatusCode, nil
		})
		if retryErr != nil {
			return res, retryErr
		}

		var env envelope
		if err := json.Unmarshal(lastBody, &env); err != nil {
			return res, fmt.Errorf("parse %s response: %w", path, err)
		}
		res.Response = models.JSONB{"code": env.Code, "message": env.Message}

		if !env.Result {
			return res, &adapters.APIError{StatusCode: env.Code, Endpoint: path, Message: env.Message}
		}
		data = env.Data
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

type cjProduct struct {
	PID           string  `json:"pid"`
	ProductName   string  `json:"productNameEn"`
	Description   string  `json:"description"`
	SellPrice     float64 `json:"sellPrice"`
	ProductImage  string  `json:"productImage"`
	CategoryName  string  `json:"categoryName"`
	ProductWeight float64 `json:"productWeight"`
	ListedNum     int     `json:"listedNum"`
	ProductUnit   string  `json:"productUnit"`
	SourceFrom    int     `json:"sourceFrom"`
}

type productListData struct {
	PageNum  int         `json:"pageNum"`
	PageSize int         `json:"pageSize"`
	Total    int         `json:"total"`
	List     []cjProduct `json:"list"`
}

// SearchProducts pages through the product index
func (c *Client) SearchProducts(ctx context.Context, opts *adapters.SearchOptions) (*adapters.ProductsPage, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := url.Values{}
	query.Set("pageNum", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if opts.Query != "" {
		query.Set("productNameEn", opts.Query)
	}
	if opts.Category != "" {
		query.Set("categoryId", opts.Category)
	}
	if opts.MinPrice > 0 {
		query.Set("minPrice", strconv.FormatFloat(opts.MinPrice, 'f', 2, 64))
	}
	if opts.MaxPrice > 0 {
		query.Set("maxPrice", strconv.FormatFloat(opts.MaxPrice, 'f', 2, 64))
	}

	data, err := c.call(ctx, http.MethodGet, "/product/list", query, nil)
	if err != nil {
		return nil, err
	}

	var listData productListData
	if err := json.Unmarshal(data, &listData); err != nil {
		return nil, fmt.Errorf("parse product list: %w", err)
	}

	products := make([]adapters.NormalizedProduct, 0, len(listData.List))
	for _, p := range listData.List {
		products = append(products, convertProduct(p))
	}

	return &adapters.ProductsPage{
		Products: products,
		Page:     page,
		HasMore:  page*pageSize < listData.Total,
		Total:    listData.Total,
	}, nil
}

// GetProduct fetches one product's detail by platform ID
func (c *Client) GetProduct(ctx context.Context, externalID string) (*adapters.NormalizedProduct, error) {
	query := url.Values{}
	query.Set("pid", externalID)

	data, err := c.call(ctx, http.MethodGet, "/product/query", query, nil)
	if err != nil {
		return nil, err
	}

	var p cjProduct
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse product detail: %w", err)
	}
	if p.PID == "" {
		return nil, fmt.Errorf("product %s: %w", externalID, adapters.ErrNotFound)
	}
	out := convertProduct(p)
	return &out, nil
}

// GetAvailability probes warehouse stock for one product
func (c *Client) GetAvailability(ctx context.Context, externalID string) (*adapters.Availability, error) {
	query := url.Values{}
	query.Set("pid", externalID)

	data, err := c.call(ctx, http.MethodGet, "/product/stock/queryByPid", query, nil)
	if err != nil {
		return nil, err
	}

	var stocks []struct {
		StorageNum int     `json:"storageNum"`
		SellPrice  float64 `json:"sellPrice"`
	}
	if err := json.Unmarshal(data, &stocks); err != nil {
		return nil, fmt.Errorf("parse stock response: %w", err)
	}

	total := 0
	cost := 0.0
	for _, s := range stocks {
		total += s.StorageNum
		if cost == 0 && s.SellPrice > 0 {
			cost = s.SellPrice
		}
	}
	return &adapters.Availability{Available: total > 0, Stock: total, Cost: cost}, nil
}

// GetCategories fetches the category tree
func (c *Client) GetCategories(ctx context.Context) ([]adapters.Category, error) {
	data, err := c.call(ctx, http.MethodGet, "/product/getCategory", nil, nil)
	if err != nil {
		return nil, err
	}

	var tree []struct {
		CategoryFirstID   string `json:"categoryFirstId"`
		CategoryFirstName string `json:"categoryFirstName"`
	}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}

	cats := make([]adapters.Category, 0, len(tree))
	for _, node := range tree {
		cats = append(cats, adapters.Category{ID: node.CategoryFirstID, Name: node.CategoryFirstName})
	}
	return cats, nil
}

// PlaceOrder creates a fulfillment order on the platform
func (c *Client) PlaceOrder(ctx context.Context, req *adapters.OrderRequest) (*adapters.OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order has no items: %w", adapters.ErrValidationFailed)
	}

	type cjOrderProduct struct {
		VID      string `json:"vid"`
		Quantity int    `json:"quantity"`
	}
	orderProducts := make([]cjOrderProduct, 0, len(req.Items))
	for _, item := range req.Items {
		orderProducts = append(orderProducts, cjOrderProduct{VID: item.ExternalID, Quantity: item.Quantity})
	}

	body := map[string]interface{}{
		"orderNumber":          req.Reference,
		"shippingCustomerName": req.Shipping.Name,
		"shippingAddress":      req.Shipping.Address,
		"shippingCity":         req.Shipping.City,
		"shippingProvince":     req.Shipping.Province,
		"shippingCountry":      req.Shipping.Country,
		"shippingZip":          req.Shipping.PostalCode,
		"shippingPhone":        req.Shipping.Phone,
		"products":             orderProducts,
	}

	data, err := c.call(ctx, http.MethodPost, "/shopping/order/createOrder", nil, body)
	if err != nil {
		return nil, err
	}

	var created struct {
		OrderID       string  `json:"orderId"`
		ProductAmount float64 `json:"productAmount"`
		PostageAmount float64 `json:"postageAmount"`
		OrderAmount   float64 `json:"orderAmount"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("parse order response: %w", err)
	}

	return &adapters.OrderResult{
		ExternalOrderID:       created.OrderID,
		ItemCost:              created.ProductAmount,
		ShippingCost:          created.PostageAmount,
		TotalCost:             created.OrderAmount,
		EstimatedDeliveryDays: 15,
	}, nil
}

var statusMap = map[string]models.SupplierOrderStatus{
	"CREATED":   models.OrderPending,
	"IN_CART":   models.OrderPending,
	"UNPAID":    models.OrderPending,
	"UNSHIPPED": models.OrderProcessing,
	"SHIPPED":   models.OrderShipped,
	"DELIVERED": models.OrderDelivered,
	"CANCELLED": models.OrderCancelled,
}

// GetOrderStatus reports the platform-side state of a placed order
func (c *Client) GetOrderStatus(ctx context.Context, externalOrderID string) (*adapters.OrderStatusInfo, error) {
	query := url.Values{}
	query.Set("orderId", externalOrderID)

	data, err := c.call(ctx, http.MethodGet, "/shopping/order/getOrderDetail", query, nil)
	if err != nil {
		return nil, err
	}

	var detail struct {
		OrderStatus  string `json:"orderStatus"`
		LogisticName string `json:"logisticName"`
		TrackNumber  string `json:"trackNumber"`
	}
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("parse order detail: %w", err)
	}

	status, ok := statusMap[detail.OrderStatus]
	if !ok {
		status = models.OrderProcessing
	}
	return &adapters.OrderStatusInfo{
		Status:         status,
		Carrier:        detail.LogisticName,
		TrackingNumber: detail.TrackNumber,
	}, nil
}

// GetTracking returns the carrier movement log for a shipped order
func (c *Client) GetTracking(ctx context.Context, externalOrderID string) (*adapters.TrackingInfo, error) {
	query := url.Values{}
	query.Set("orderId", externalOrderID)

	data, err := c.call(ctx, http.MethodGet, "/logistic/trackInfo", query, nil)
	if err != nil {
		return nil, err
	}

	var track struct {
		LogisticName string `json:"logisticName"`
		TrackNumber  string `json:"trackNumber"`
		DeliveryDay  string `json:"deliveryDay"`
		TrackDetails []struct {
			Date    string `json:"date"`
			Status  string `json:"trackStatus"`
			Address string `json:"address"`
		} `json:"trackDetails"`
	}
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("parse tracking response: %w", err)
	}

	info := &adapters.TrackingInfo{
		Carrier:        track.LogisticName,
		TrackingNumber: track.TrackNumber,
	}
	if track.DeliveryDay != "" {
		if eta, err := time.Parse("2006-01-02", track.DeliveryDay); err == nil {
			info.EstimatedDeliveryAt = &eta
		}
	}
	for _, d := range track.TrackDetails {
		ts, _ := time.Parse("2006-01-02 15:04:05", d.Date)
		info.Events = append(info.Events, models.TrackingEvent{
			Timestamp: ts,
			Status:    d.Status,
			Location:  d.Address,
		})
	}
	return info, nil
}

// CancelOrder cancels an unshipped platform order
func (c *Client) CancelOrder(ctx context.Context, externalOrderID string) error {
	body := map[string]interface{}{"orderId": externalOrderID}
	_, err := c.call(ctx, http.MethodDelete, "/shopping/order/deleteOrder", nil, body)
	return err
}

func convertProduct(p cjProduct) adapters.NormalizedProduct {
	return adapters.NormalizedProduct{
		ExternalID:      p.PID,
		Title:           p.ProductName,
		Description:     p.Description,
		Cost:            p.SellPrice,
		Currency:        "USD",
		Stock:           p.ListedNum,
		Available:       p.ListedNum > 0,
		ImageURL:        p.ProductImage,
		Category:        p.CategoryName,
		Weight:          p.ProductWeight,
		ShippingDaysMin: 8,
		ShippingDaysMax: 20,
		SourceURL:       "https://cjdropshipping.com/product/" + p.PID + ".html",
	}
}
