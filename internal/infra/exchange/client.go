package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tdvu/marketsnap/internal/metrics"
)

// Config holds exchange API connection configuration.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Client talks to the marketplace REST API. All list endpoints are cursor
// paginated: a response carries the next cursor and a remaining flag.
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

// NewClient creates a new exchange API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	return &Client{
		baseURL:  trimTrailingSlash(cfg.BaseURL),
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// AssetsQuery filters the assets endpoint.
type AssetsQuery struct {
	Collection      string
	Cursor          string
	UpdatedMinEpoch int64
}

// ListAssets fetches one page of assets.
func (c *Client) ListAssets(ctx context.Context, q AssetsQuery) (*AssetsPage, error) {
	params := url.Values{}
	params.Set("page_size", strconv.Itoa(c.pageSize))
	if q.Collection != "" {
		params.Set("collection", q.Collection)
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	if q.UpdatedMinEpoch > 0 {
		params.Set("updated_min_timestamp", strconv.FormatInt(q.UpdatedMinEpoch, 10))
	}

	var page AssetsPage
	if err := c.get(ctx, "assets", "/v1/assets", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// OrdersQuery filters the orders endpoint. Proto narrows results to sell
// orders for a single item template; CheapestFirst asks the API to sort by
// ascending buy quantity so the first record is the floor.
type OrdersQuery struct {
	Collection    string
	Status        string
	Proto         int64
	Cursor        string
	CheapestFirst bool
	PageSize      int
}

// ListOrders fetches one page of orders.
func (c *Client) ListOrders(ctx context.Context, q OrdersQuery) (*OrdersPage, error) {
	params := url.Values{}
	size := q.PageSize
	if size <= 0 {
		size = c.pageSize
	}
	params.Set("page_size", strconv.Itoa(size))
	if q.Collection != "" {
		params.Set("sell_token_address", q.Collection)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Proto > 0 {
		params.Set("sell_metadata", fmt.Sprintf(`{"proto":["%d"]}`, q.Proto))
	}
	if q.CheapestFirst {
		params.Set("order_by", "buy_quantity")
		params.Set("direction", "asc")
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}

	var page OrdersPage
	if err := c.get(ctx, "orders", "/v1/orders", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TradesQuery filters the trades endpoint.
type TradesQuery struct {
	Collection   string
	Cursor       string
	MinTimestamp int64
}

// ListTrades fetches one page of trades.
func (c *Client) ListTrades(ctx context.Context, q TradesQuery) (*TradesPage, error) {
	params := url.Values{}
	params.Set("page_size", strconv.Itoa(c.pageSize))
	if q.Collection != "" {
		params.Set("party_b_token_address", q.Collection)
	}
	if q.MinTimestamp > 0 {
		params.Set("min_timestamp", strconv.FormatInt(q.MinTimestamp, 10))
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}

	var page TradesPage
	if err := c.get(ctx, "trades", "/v1/trades", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Ping checks that the API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("page_size", "1")
	var page AssetsPage
	return c.get(ctx, "assets", "/v1/assets", params, &page)
}

// Close cleans up idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	metrics.APIRequestsTotal.WithLabelValues(endpoint).Inc()

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "request").Inc()
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "network").Inc()
		return fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	// Throttle detection: the API answers bursts with 429 or 403.
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "throttle").Inc()
		return &StatusError{Code: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "read").Inc()
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "http").Inc()
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, "decode").Inc()
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}
