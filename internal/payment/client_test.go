package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abarbosa/loja-virtual/internal/order/domain"
)

func testOrder() *domain.Order {
	return &domain.Order{
		ID:             uuid.New(),
		CustomerName:   "Maria Silva",
		ShippingCost:   22.1,
		ShippingMethod: "PAC",
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Caneca", Quantity: 2, UnitPrice: 39.9},
		},
	}
}

func TestCreatePreference(t *testing.T) {
	order := testOrder()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, order.ID.String(), req["order_id"])

		// order lines plus the shipping line
		items := req["items"].([]interface{})
		assert.Len(t, items, 2)

		json.NewEncoder(w).Encode(Preference{ID: "pref-9", RedirectURL: "https://pay.example/pref-9"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "token-123", time.Second)

	pref, err := gw.CreatePreference(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "pref-9", pref.ID)
	assert.Equal(t, "https://pay.example/pref-9", pref.RedirectURL)
}

func TestCreatePreference_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "token-123", time.Second)

	_, err := gw.CreatePreference(context.Background(), testOrder())
	assert.ErrorContains(t, err, "status 502")
}

func TestCreatePreference_IncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Preference{ID: "pref-9"}) // missing redirect
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "token-123", time.Second)

	_, err := gw.CreatePreference(context.Background(), testOrder())
	assert.ErrorContains(t, err, "incomplete preference")
}
