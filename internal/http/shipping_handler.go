package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	cartservice "github.com/abarbosa/loja-virtual/internal/cart/service"
	"github.com/abarbosa/loja-virtual/internal/shipping"
)

type ShippingHandler struct {
	resolver *shipping.Resolver
	carts    *cartservice.CartService
	timeout  time.Duration
}

func NewShippingHandler(resolver *shipping.Resolver, carts *cartservice.CartService, timeout time.Duration) *ShippingHandler {
	return &ShippingHandler{
		resolver: resolver,
		carts:    carts,
		timeout:  timeout,
	}
}

// GET /api/v1/shipping/quote?cep=01310100
//
// Quotes against the current session cart. Cheap to re-run; the client is
// expected to debounce CEP input, the resolver itself does not care.
func (h *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cep := r.URL.Query().Get("cep")
	if cep == "" {
		respondError(w, http.StatusBadRequest, "missing_cep", "cep query parameter is required")
		return
	}

	sessionID := getSessionID(r.Context())
	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}
	if len(cart.Items) == 0 {
		respondError(w, http.StatusBadRequest, "empty_cart", "cannot quote shipping for an empty cart")
		return
	}

	quote, err := h.resolver.QuoteFor(ctx, cep, cart.Items)
	if errors.Is(err, shipping.ErrInvalidCEP) {
		respondError(w, http.StatusBadRequest, "invalid_cep", "cep must be 8 digits")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to quote shipping")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}
