package wb

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a test server and a RestClient pointed at it.
func setupTestServer(handler http.Handler) (*RestClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().
		SetBaseURL(server.URL).
		SetHeader("Authorization", "test_api_key")

	rc := &RestClient{
		client:  client,
		apiKey:  "test_api_key",
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1), // allow all requests in tests
	}

	return rc, server
}

func TestGetCards(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/content/v2/get/cards/list", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "test_api_key", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"cards": [
				{"nmID": 100001, "vendorCode": "ART-0001", "brand": "BrandAlpha",
				 "subjectName": "Shoes", "title": "Sneakers",
				 "photos": [{"big": "https://img.example/1.jpg"}],
				 "sizes": [{"skus": ["2000000000017"]}]}
			]}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		cards, err := rc.GetCards()

		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, int64(100001), cards[0].NmID)
		assert.Equal(t, "ART-0001", cards[0].VendorCode)
		assert.Equal(t, "https://img.example/1.jpg", cards[0].Photos[0].Big)
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors": ["invalid token"]}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		_, err := rc.GetCards()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get cards")
	})
}

func TestGetGoods(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/list/goods/filter", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"listGoods": [
			{"nmID": 100001, "sizes": [{"price": 2000, "discountedPrice": 1500}]}
		]}}`))
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	goods, err := rc.GetGoods()

	require.NoError(t, err)
	require.Len(t, goods, 1)
	assert.Equal(t, 2000.0, goods[0].Sizes[0].Price)
	assert.Equal(t, 1500.0, goods[0].Sizes[0].DiscountedPrice)
}

func TestGetStocks(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/supplier/stocks", r.URL.Path)
		assert.Equal(t, "2026-08-01T00:00:00", r.URL.Query().Get("dateFrom"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"nmId": 100001, "warehouseId": 507, "warehouseName": "Koledino", "quantity": 42}
		]`))
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	stocks, err := rc.GetStocks(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, 42, stocks[0].Quantity)
	assert.Equal(t, "Koledino", stocks[0].WarehouseName)
}

func TestGetOrdersAndSales(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/supplier/orders":
			_, _ = w.Write([]byte(`[
				{"nmId": 100001, "date": "2026-08-25T10:00:00Z", "totalPrice": 1500, "isCancel": false},
				{"nmId": 100001, "date": "2026-08-25T11:00:00Z", "totalPrice": 1500, "isCancel": true}
			]`))
		case "/api/v1/supplier/sales":
			_, _ = w.Write([]byte(`[
				{"nmId": 100001, "date": "2026-08-26T10:00:00Z", "isReturn": true}
			]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	orders, err := rc.GetOrders(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, orders[1].IsCancel)

	sales, err := rc.GetSales(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.True(t, sales[0].IsReturn)
}

func TestDoRequest_RetriesOnServerError(t *testing.T) {
	attempts := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	rc, server := setupTestServer(handler)
	defer server.Close()

	_, err := rc.GetOrders(time.Now())

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestMockClient(t *testing.T) {
	mock := NewMockClient()

	cards, err := mock.GetCards()
	require.NoError(t, err)
	assert.Len(t, cards, 50)
	assert.Equal(t, int64(100001), cards[0].NmID)

	goods, err := mock.GetGoods()
	require.NoError(t, err)
	assert.Len(t, goods, 50)
	for _, good := range goods {
		require.Len(t, good.Sizes, 1)
		assert.Greater(t, good.Sizes[0].Price, 0.0)
		assert.Less(t, good.Sizes[0].DiscountedPrice, good.Sizes[0].Price)
	}

	orders, err := mock.GetOrders(time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.NotEmpty(t, orders)
}
