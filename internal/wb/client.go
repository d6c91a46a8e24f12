// Package wb talks to the Wildberries seller APIs. If WB changes an
// endpoint, only this package needs to be updated; the rest of the system
// consumes the Client interface.
package wb

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sergeigeyn/WB-Repricer/internal/config"
)

const (
	defaultBaseURL = "https://suppliers-api.wildberries.ru"

	// WB statistics endpoints expect dateFrom in this layout (MSK, no zone).
	dateFromLayout = "2006-01-02T15:04:05"
)

// Photo is one image attached to a product card.
type Photo struct {
	Big string `json:"big"`
}

// CardSize carries the barcodes of one size of a card.
type CardSize struct {
	Skus []string `json:"skus"`
}

// Card is a product card from the Content API.
type Card struct {
	NmID        int64      `json:"nmID"`
	VendorCode  string     `json:"vendorCode"`
	Brand       string     `json:"brand"`
	SubjectName string     `json:"subjectName"`
	Title       string     `json:"title"`
	Photos      []Photo    `json:"photos"`
	Sizes       []CardSize `json:"sizes"`
}

// GoodSize is the price information of one size of a good.
type GoodSize struct {
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
}

// Good is a priced product from the Discounts and Prices API.
type Good struct {
	NmID  int64      `json:"nmID"`
	Sizes []GoodSize `json:"sizes"`
}

// StockItem is one warehouse stock line from the Statistics API.
type StockItem struct {
	NmID          int64  `json:"nmId"`
	WarehouseID   int64  `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	Quantity      int    `json:"quantity"`
}

// Order is one order line from the Statistics API.
type Order struct {
	NmID       int64   `json:"nmId"`
	Date       string  `json:"date"`
	TotalPrice float64 `json:"totalPrice"`
	Spp        float64 `json:"spp"`
	IsCancel   bool    `json:"isCancel"`
}

// Sale is one sale or return line from the Statistics API.
type Sale struct {
	NmID     int64  `json:"nmId"`
	Date     string `json:"date"`
	IsReturn bool   `json:"isReturn"`
}

// Client is the WB API surface the collector needs.
type Client interface {
	GetCards() ([]Card, error)
	GetGoods() ([]Good, error)
	GetStocks(dateFrom time.Time) ([]StockItem, error)
	GetOrders(dateFrom time.Time) ([]Order, error)
	GetSales(dateFrom time.Time) ([]Sale, error)
}

// RestClient is the real WB API client.
type RestClient struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ Client = (*RestClient)(nil)

// NewRestClient creates a WB API client for one seller account key.
func NewRestClient(cfg *config.WB, apiKey string, logger *zap.Logger) *RestClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", apiKey)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:  client,
		apiKey:  apiKey,
		logger:  logger,
		limiter: limiter,
	}
}

// doRequest executes a request with rate limiting and bounded retries on
// throttling and server errors.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing WB request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("WB request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetCards fetches the account's product cards from the Content API.
func (c *RestClient) GetCards() ([]Card, error) {
	type cardsResponse struct {
		Cards []Card `json:"cards"`
	}

	body := map[string]any{
		"settings": map[string]any{
			"cursor": map[string]any{"limit": 1000},
			"filter": map[string]any{"withPhoto": -1},
		},
	}
	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&cardsResponse{})

	resp, err := c.doRequest(context.Background(), "POST", "/content/v2/get/cards/list", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}

	return resp.Result().(*cardsResponse).Cards, nil
}

// GetGoods fetches current prices from the Discounts and Prices API.
func (c *RestClient) GetGoods() ([]Good, error) {
	type goodsData struct {
		ListGoods []Good `json:"listGoods"`
	}
	type goodsResponse struct {
		Data goodsData `json:"data"`
	}

	req := c.client.R().
		SetQueryParam("limit", "1000").
		SetResult(&goodsResponse{})

	resp, err := c.doRequest(context.Background(), "GET", "/api/v2/list/goods/filter", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get goods: %w", err)
	}

	return resp.Result().(*goodsResponse).Data.ListGoods, nil
}

// GetStocks fetches warehouse stock lines from the Statistics API. The
// endpoint returns every line changed since dateFrom; passing a zero-ish
// date gives the full picture across FBO and FBS warehouses.
func (c *RestClient) GetStocks(dateFrom time.Time) ([]StockItem, error) {
	var stocks []StockItem

	req := c.client.R().
		SetQueryParam("dateFrom", dateFrom.Format(dateFromLayout)).
		SetResult(&stocks)

	resp, err := c.doRequest(context.Background(), "GET", "/api/v1/supplier/stocks", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get stocks: %w", err)
	}

	return *resp.Result().(*[]StockItem), nil
}

// GetOrders fetches orders since dateFrom from the Statistics API.
func (c *RestClient) GetOrders(dateFrom time.Time) ([]Order, error) {
	var orders []Order

	req := c.client.R().
		SetQueryParam("dateFrom", dateFrom.Format(dateFromLayout)).
		SetResult(&orders)

	resp, err := c.doRequest(context.Background(), "GET", "/api/v1/supplier/orders", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	return *resp.Result().(*[]Order), nil
}

// GetSales fetches sales and returns since dateFrom from the Statistics API.
func (c *RestClient) GetSales(dateFrom time.Time) ([]Sale, error) {
	var sales []Sale

	req := c.client.R().
		SetQueryParam("dateFrom", dateFrom.Format(dateFromLayout)).
		SetResult(&sales)

	resp, err := c.doRequest(context.Background(), "GET", "/api/v1/supplier/sales", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales: %w", err)
	}

	return *resp.Result().(*[]Sale), nil
}
