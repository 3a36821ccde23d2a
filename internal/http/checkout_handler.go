package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	catalogrepo "github.com/abarbosa/loja-virtual/internal/catalog/repository"
	checkoutservice "github.com/abarbosa/loja-virtual/internal/checkout/service"
	orderdomain "github.com/abarbosa/loja-virtual/internal/order/domain"
	orderrepo "github.com/abarbosa/loja-virtual/internal/order/repository"
	"github.com/abarbosa/loja-virtual/internal/shipping"
)

type CheckoutHandler struct {
	checkout *checkoutservice.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout *checkoutservice.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type AddressDTO struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	CEP        string `json:"cep,omitempty"`
}

type CheckoutRequestDTO struct {
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Address       AddressDTO      `json:"address"`
	Shipping      shipping.Option `json:"shipping"`
}

type CheckoutResponseDTO struct {
	OrderID            string `json:"order_id"`
	PaymentRedirectURL string `json:"payment_redirect_url,omitempty"`
	Warning            string `json:"warning,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CustomerName == "" {
		respondError(w, http.StatusBadRequest, "missing_customer_name", "customer_name is required")
		return
	}

	result, err := h.checkout.Checkout(ctx, &checkoutservice.CheckoutRequest{
		SessionID:     sessionID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address: orderdomain.Address{
			Street:     req.Address.Street,
			Number:     req.Address.Number,
			Complement: req.Address.Complement,
			City:       req.Address.City,
			State:      req.Address.State,
			CEP:        req.Address.CEP,
		},
		SelectedShipping: req.Shipping,
	})

	var stockErr *catalogrepo.InsufficientStockError
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
			OrderID:            result.OrderID.String(),
			PaymentRedirectURL: result.PaymentRedirectURL,
		})
	case errors.Is(err, checkoutservice.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, checkoutservice.ErrMissingStreet),
		errors.Is(err, checkoutservice.ErrMissingStreetNumber):
		respondError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   stockErr.Error(),
			Code:    "insufficient_stock",
			Details: stockErr.ProductName,
		})
	case errors.Is(err, checkoutservice.ErrPaymentRequestFailed):
		// order persisted, reservation held; the buyer retries the handoff
		respondJSON(w, http.StatusAccepted, CheckoutResponseDTO{
			OrderID: result.OrderID.String(),
			Warning: "pedido criado, mas o pagamento não pôde ser iniciado; tente novamente",
		})
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}

// POST /api/v1/orders/{order_id}/payment
func (h *CheckoutHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	result, err := h.checkout.RetryPayment(ctx, orderID)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, CheckoutResponseDTO{
			OrderID:            result.OrderID.String(),
			PaymentRedirectURL: result.PaymentRedirectURL,
		})
	case errors.Is(err, orderrepo.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, checkoutservice.ErrOrderNotPayable):
		respondError(w, http.StatusConflict, "not_payable", "order is not waiting for payment")
	case errors.Is(err, checkoutservice.ErrPaymentRequestFailed):
		respondError(w, http.StatusBadGateway, "payment_unavailable", "payment gateway is unavailable")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "payment retry failed")
	}
}
