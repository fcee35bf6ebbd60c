package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{name: "valid config", config: &Config{BaseURL: "https://shop.example.com/"}},
		{name: "missing base url", config: &Config{}, wantErr: ErrConfigMissingBaseURL},
		{name: "relative base url", config: &Config{BaseURL: "shop.example.com"}, wantErr: ErrConfigInvalidBaseURL},
		{name: "unsupported scheme", config: &Config{BaseURL: "ftp://shop.example.com"}, wantErr: ErrConfigInvalidBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://shop.example.com", tt.config.BaseURL)
			assert.Equal(t, DefaultAPIVersion, tt.config.APIVersion)
			assert.Equal(t, DefaultPerPage, tt.config.PerPage)
			assert.Equal(t, DefaultMaxPages, tt.config.MaxPages)
			assert.Equal(t, DefaultTimeoutSeconds, tt.config.TimeoutSeconds)
		})
	}

	t.Run("clamps an oversized page", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://shop.example.com", PerPage: 500}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultPerPage, cfg.PerPage)
	})

	t.Run("builds endpoints", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://shop.example.com"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://shop.example.com/wp-json/wc/v3/products/7", cfg.endpoint("products/7"))
	})
}

// ---------------------------------------------------------------------------
// Client Tests
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &Config{
		BaseURL:        server.URL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		PerPage:        2,
		MaxPages:       5,
	}
	for _, m := range mutate {
		m(cfg)
	}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func orderJSON(id int64, productID int64) string {
	return fmt.Sprintf(`{
		"id": %d,
		"number": "%d",
		"order_key": "wc_order_%d",
		"status": "processing",
		"date_created_gmt": "2026-09-01T10:00:00",
		"total": "19.99",
		"customer_id": 3,
		"customer_note": "",
		"billing": {"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"},
		"shipping": {"first_name": "Ada", "last_name": "Lovelace", "address_1": "12 Analytical Row"},
		"line_items": [{"id": %d, "name": "Cool Hat", "product_id": %d, "quantity": 1, "total": "19.99", "price": 19.99}]
	}`, id, id, id, id*10, productID)
}

func TestClient_FetchOrders(t *testing.T) {
	since := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	t.Run("follows pagination and authenticates", func(t *testing.T) {
		var requested []string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "ck_test", user)
			assert.Equal(t, "cs_test", pass)
			assert.Equal(t, "2", r.URL.Query().Get("per_page"))
			assert.Equal(t, "2026-08-20T00:00:00Z", r.URL.Query().Get("after"))

			page := r.URL.Query().Get("page")
			requested = append(requested, page)
			w.Header().Set(totalPagesHeader, "2")
			switch page {
			case "1":
				fmt.Fprintf(w, "[%s,%s]", orderJSON(1, 501), orderJSON(2, 502))
			default:
				fmt.Fprintf(w, "[%s]", orderJSON(3, 501))
			}
		})

		batch, err := client.FetchOrders(context.Background(), since)

		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, requested)
		assert.Empty(t, batch.Rejected)
		orders := batch.Orders
		require.Len(t, orders, 3)
		assert.Equal(t, int64(1), orders[0].ID)
		assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), orders[0].DateCreated)
		assert.Equal(t, "Ada", orders[0].Billing.FirstName)
		require.Len(t, orders[0].LineItems, 1)
		assert.Equal(t, int64(501), orders[0].LineItems[0].ProductID)
		assert.Equal(t, "19.99", orders[0].LineItems[0].Price)
	})

	t.Run("stops at the page cap", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set(totalPagesHeader, "50")
			fmt.Fprintf(w, "[%s]", orderJSON(int64(calls), 501))
		}, func(c *Config) { c.MaxPages = 3 })

		batch, err := client.FetchOrders(context.Background(), since)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Len(t, batch.Orders, 3)
	})

	t.Run("sends credentials in the query string when configured", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _, ok := r.BasicAuth()
			assert.False(t, ok)
			assert.Equal(t, "ck_test", r.URL.Query().Get("consumer_key"))
			assert.Equal(t, "cs_test", r.URL.Query().Get("consumer_secret"))
			fmt.Fprint(w, "[]")
		}, func(c *Config) { c.QueryStringAuth = true })

		batch, err := client.FetchOrders(context.Background(), since)

		require.NoError(t, err)
		assert.Empty(t, batch.Orders)
		assert.Zero(t, batch.Len())
	})

	rejectCases := []struct {
		name          string
		bad           string
		wantOID       int64
		wantProductID int64
		wantReason    string
	}{
		{"non-positive product id", orderJSON(2, 0), 2, 0, "product_id 0"},
		{"bad total", `{"id":2,"number":"2","date_created_gmt":"2026-09-01T10:00:00","total":"abc"}`, 2, 0, "total"},
		{"bad date", `{"id":2,"number":"2","date_created_gmt":"yesterday","total":"1.00"}`, 2, 0, "date_created_gmt"},
		{"bad line price", `{"id":2,"number":"2","date_created_gmt":"2026-09-01T10:00:00","total":"1.00",` +
			`"line_items":[{"id":20,"product_id":502,"quantity":1,"total":"1.00","price":"n/a"}]}`, 2, 502, "price"},
	}
	for _, tc := range rejectCases {
		t.Run("keeps valid orders next to "+tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, "[%s,%s]", orderJSON(1, 501), tc.bad)
			})

			batch, err := client.FetchOrders(context.Background(), since)

			require.NoError(t, err)
			require.Len(t, batch.Orders, 1)
			assert.Equal(t, int64(1), batch.Orders[0].ID)
			assert.Equal(t, int64(501), batch.Orders[0].LineItems[0].ProductID)
			require.Len(t, batch.Rejected, 1)
			rejected := batch.Rejected[0]
			assert.Equal(t, tc.wantOID, rejected.OID)
			assert.Equal(t, "2", rejected.Number)
			assert.Equal(t, tc.wantProductID, rejected.ProductID)
			assert.Contains(t, rejected.Reason, tc.wantReason)
			assert.Equal(t, 2, batch.Len())
		})
	}

	errorCases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusBadGateway, `{}`, mirror.ErrRemoteUnavailable},
		{"unauthorized", http.StatusUnauthorized, `{"code":"woocommerce_rest_cannot_view"}`, mirror.ErrRemoteRequestFailed},
		{"malformed body", http.StatusOK, `{"not":"a list"}`, mirror.ErrRemoteInvalidResponse},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})

			batch, err := client.FetchOrders(context.Background(), since)

			assert.Nil(t, batch)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, err := NewClient(&Config{BaseURL: url})
		require.NoError(t, err)

		_, err = client.FetchOrders(context.Background(), since)
		assert.ErrorIs(t, err, mirror.ErrRemoteUnavailable)
	})
}

func TestClient_FetchProductByID(t *testing.T) {
	t.Run("fetches and trims a product", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/wp-json/wc/v3/products/501", r.URL.Path)
			fmt.Fprint(w, `{
				"id": 501,
				"name": "Cool Hat",
				"slug": "cool-hat",
				"sku": "HAT-1",
				"price": "19.99",
				"stock_status": "instock",
				"images": [{"id": 9, "src": "https://shop.example.com/hat.png", "name": "hat", "alt": "A hat", "date_created": "2026-01-01T00:00:00"}]
			}`)
		})

		product, err := client.FetchProductByID(context.Background(), 501)

		require.NoError(t, err)
		assert.Equal(t, int64(501), product.ID)
		assert.Equal(t, "cool-hat", product.Slug)
		assert.Equal(t, []mirror.Image{{ID: 9, Src: "https://shop.example.com/hat.png", Name: "hat", Alt: "A hat"}}, product.Images)
	})

	t.Run("accepts an empty price", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": 7, "name": "Variable Tee", "price": ""}`)
		})

		product, err := client.FetchProductByID(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, "", product.Price)
		assert.Empty(t, product.Images)
	})

	t.Run("maps a missing product to a failed request", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":"woocommerce_rest_product_invalid_id"}`)
		})

		_, err := client.FetchProductByID(context.Background(), 404)

		assert.ErrorIs(t, err, mirror.ErrRemoteRequestFailed)
	})

	t.Run("rejects a payload without an id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"name": "Ghost"}`)
		})

		_, err := client.FetchProductByID(context.Background(), 5)

		assert.ErrorIs(t, err, mirror.ErrRemoteInvalidResponse)
	})

	t.Run("rejects a non-positive id without a request", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("unexpected request")
		})

		_, err := client.FetchProductByID(context.Background(), 0)

		assert.ErrorIs(t, err, mirror.ErrRemoteRequestFailed)
	})
}

func TestFlexDecimal(t *testing.T) {
	var item wooLineItem
	require.NoError(t, jsonUnmarshal(`{"total":"10.50","price":5.25}`, &item))
	assert.Equal(t, flexDecimal("10.50"), item.Total)
	assert.Equal(t, flexDecimal("5.25"), item.Price)

	require.Error(t, jsonUnmarshal(`{"price":true}`, &item))
}

func TestParseTotalPages(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, 1, parseTotalPages(h))
	h.Set(totalPagesHeader, "x")
	assert.Equal(t, 1, parseTotalPages(h))
	h.Set(totalPagesHeader, strconv.Itoa(4))
	assert.Equal(t, 4, parseTotalPages(h))
}

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
