package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	cartdomain "github.com/abarbosa/loja-virtual/internal/cart/domain"
	cartrepo "github.com/abarbosa/loja-virtual/internal/cart/repository"
	cartservice "github.com/abarbosa/loja-virtual/internal/cart/service"
	"github.com/abarbosa/loja-virtual/internal/pricing"
)

type CartHandler struct {
	carts   *cartservice.CartService
	timeout time.Duration
}

func NewCartHandler(carts *cartservice.CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type PricedLineDTO struct {
	ProductID          int64   `json:"product_id"`
	ProductName        string  `json:"product_name"`
	UnitPrice          float64 `json:"unit_price"`
	EffectiveUnitPrice float64 `json:"effective_unit_price"`
	Quantity           int     `json:"quantity"`
	LineSubtotal       float64 `json:"line_subtotal"`
	DiscountApplied    bool    `json:"discount_applied"`
}

type CartResponseDTO struct {
	SessionID string          `json:"session_id"`
	Items     []PricedLineDTO `json:"items"`
	Subtotal  float64         `json:"subtotal"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(sessionID, cart.Items))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 999 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 999")
		return
	}

	err := h.carts.AddItem(ctx, sessionID, req.ProductID, req.Quantity)
	switch {
	case errors.Is(err, cartservice.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	case errors.Is(err, cartservice.ErrInvalidQuantity):
		respondError(w, http.StatusConflict, "out_of_stock", "product is out of stock")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}

	h.respondWithCart(ctx, w, http.StatusCreated, sessionID)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 999 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 999")
		return
	}

	err := h.carts.UpdateQuantity(ctx, sessionID, productID, req.Quantity)
	switch {
	case errors.Is(err, cartrepo.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "item not in cart")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update quantity")
		return
	}

	h.respondWithCart(ctx, w, http.StatusOK, sessionID)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	err := h.carts.RemoveItem(ctx, sessionID, productID)
	switch {
	case errors.Is(err, cartrepo.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "not_found", "cart is empty")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item")
		return
	}

	h.respondWithCart(ctx, w, http.StatusOK, sessionID)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	if err := h.carts.ClearCart(ctx, sessionID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) respondWithCart(ctx context.Context, w http.ResponseWriter, status int, sessionID string) {
	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}
	respondJSON(w, status, toCartResponse(sessionID, cart.Items))
}

func toCartResponse(sessionID string, items []cartdomain.CartItem) CartResponseDTO {
	priced, subtotal := pricing.PriceAll(items)

	dto := CartResponseDTO{
		SessionID: sessionID,
		Items:     make([]PricedLineDTO, len(priced)),
		Subtotal:  subtotal,
	}
	for i, line := range priced {
		dto.Items[i] = PricedLineDTO{
			ProductID:          line.Line.ProductID,
			ProductName:        line.Line.ProductName,
			UnitPrice:          line.Line.UnitPrice,
			EffectiveUnitPrice: line.EffectiveUnitPrice,
			Quantity:           line.Line.Quantity,
			LineSubtotal:       line.LineSubtotal,
			DiscountApplied:    line.DiscountApplied,
		}
	}
	return dto
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productIDStr := chi.URLParam(r, "product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
