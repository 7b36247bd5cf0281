package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tdvu/marketsnap/internal/metrics"
)

func TestListOrdersPagination(t *testing.T) {
	// Mock Server: two pages of orders
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			http.Error(w, "invalid path", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("status") != "active" {
			t.Errorf("expected status=active, got %q", r.URL.Query().Get("status"))
		}

		var page OrdersPage
		if r.URL.Query().Get("cursor") == "" {
			page = OrdersPage{
				Records:   []OrderRecord{{ID: 1, Status: "active"}},
				Cursor:    "next",
				Remaining: 1,
			}
		} else {
			page = OrdersPage{
				Records:   []OrderRecord{{ID: 2, Status: "active"}},
				Cursor:    "",
				Remaining: 0,
			}
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})

	first, err := c.ListOrders(context.Background(), OrdersQuery{Status: "active"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.HasMore() {
		t.Fatal("first page should report more results")
	}
	if len(first.Records) != 1 || first.Records[0].ID != 1 {
		t.Fatalf("unexpected first page: %+v", first.Records)
	}

	second, err := c.ListOrders(context.Background(), OrdersQuery{Status: "active", Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.HasMore() {
		t.Fatal("second page should be the last")
	}
	if len(second.Records) != 1 || second.Records[0].ID != 2 {
		t.Fatalf("unexpected second page: %+v", second.Records)
	}
}

func TestListOrdersProtoFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sell_metadata"); got != `{"proto":["712"]}` {
			t.Errorf("sell_metadata = %q", got)
		}
		if r.URL.Query().Get("order_by") != "buy_quantity" {
			t.Errorf("order_by = %q", r.URL.Query().Get("order_by"))
		}
		if r.URL.Query().Get("page_size") != "1" {
			t.Errorf("page_size = %q", r.URL.Query().Get("page_size"))
		}
		_ = json.NewEncoder(w).Encode(OrdersPage{})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	_, err := c.ListOrders(context.Background(), OrdersQuery{
		Proto:         712,
		CheapestFirst: true,
		PageSize:      1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRateLimitReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	_, err := c.ListAssets(context.Background(), AssetsQuery{})
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error %T, want *StatusError", err)
	}
	if statusErr.Code != http.StatusTooManyRequests {
		t.Errorf("Code = %d, want 429", statusErr.Code)
	}
	if statusErr.RetryAfter != "30" {
		t.Errorf("RetryAfter = %q, want %q", statusErr.RetryAfter, "30")
	}
}

func TestForbiddenIsThrottle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	_, err := c.ListAssets(context.Background(), AssetsQuery{})
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error %T, want *StatusError", err)
	}
	if statusErr.Code != http.StatusForbidden {
		t.Errorf("Code = %d, want 403", statusErr.Code)
	}
	if statusErr.RetryAfter != "5" {
		t.Errorf("RetryAfter = %q, want %q", statusErr.RetryAfter, "5")
	}
	if ClassifyError(err) != ActionRetry {
		t.Error("403 must classify as retryable")
	}
}

func TestRequestAccounting(t *testing.T) {
	fail := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(TradesPage{})
	}))
	defer server.Close()

	requestsBefore := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("trades"))
	errorsBefore := testutil.ToFloat64(metrics.APIErrorsTotal.WithLabelValues("trades", "http"))

	c := NewClient(Config{BaseURL: server.URL})
	if _, err := c.ListTrades(context.Background(), TradesQuery{}); err == nil {
		t.Fatal("expected error from 500 response")
	}
	fail = false
	if _, err := c.ListTrades(context.Background(), TradesQuery{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	requests := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("trades")) - requestsBefore
	if requests != 2 {
		t.Errorf("requests recorded = %v, want 2", requests)
	}
	httpErrors := testutil.ToFloat64(metrics.APIErrorsTotal.WithLabelValues("trades", "http")) - errorsBefore
	if httpErrors != 1 {
		t.Errorf("http errors recorded = %v, want 1", httpErrors)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		expect ErrorAction
	}{
		{&StatusError{Code: http.StatusTooManyRequests}, ActionRetry},
		{&StatusError{Code: http.StatusForbidden}, ActionRetry},
		{&StatusError{Code: http.StatusInternalServerError}, ActionRetry},
		{&StatusError{Code: http.StatusBadGateway}, ActionRetry},
		{&StatusError{Code: http.StatusBadRequest}, ActionFatal},
		{&StatusError{Code: http.StatusUnauthorized}, ActionFatal},
		{&StatusError{Code: http.StatusNotFound}, ActionFatal},
		{errors.New("connection reset by peer"), ActionRetry},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.expect {
			t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}
