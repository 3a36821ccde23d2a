package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abarbosa/loja-virtual/internal/events"
	orderdomain "github.com/abarbosa/loja-virtual/internal/order/domain"
	"github.com/abarbosa/loja-virtual/internal/order/export"
	orderrepo "github.com/abarbosa/loja-virtual/internal/order/repository"
	orderservice "github.com/abarbosa/loja-virtual/internal/order/service"
)

type AdminHandler struct {
	orders    *orderservice.OrderService
	bus       *events.Bus
	staleness time.Duration
	timeout   time.Duration
}

func NewAdminHandler(orders *orderservice.OrderService, bus *events.Bus, staleness, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		orders:    orders,
		bus:       bus,
		staleness: staleness,
		timeout:   timeout,
	}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type UpdateTrackingRequestDTO struct {
	TrackingCode string `json:"tracking_code"`
}

type RestockResponseDTO struct {
	Restored int `json:"restored"`
}

// GET /api/v1/admin/orders?status=pago&customer=maria
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter := orderrepo.ListFilter{
		Status:   orderdomain.Status(r.URL.Query().Get("status")),
		Customer: r.URL.Query().Get("customer"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	orders, err := h.orders.ListOrders(ctx, filter)
	if errors.Is(err, orderservice.ErrUnknownStatus) {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown status filter")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/admin/orders/{order_id}
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if errors.Is(err, orderrepo.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// PATCH /api/v1/admin/orders/{order_id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.orders.UpdateStatus(ctx, orderID, orderdomain.Status(req.Status))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, orderservice.ErrUnknownStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", fmt.Sprintf("unknown status %q", req.Status))
	case errors.Is(err, orderservice.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, orderrepo.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, orderrepo.ErrStatusConflict):
		respondError(w, http.StatusConflict, "stale_status", "order changed concurrently, reload and retry")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update status")
	}
}

// PATCH /api/v1/admin/orders/{order_id}/tracking
func (h *AdminHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req UpdateTrackingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.orders.SetTrackingCode(ctx, orderID, req.TrackingCode)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, orderservice.ErrEmptyTrackingCode):
		respondError(w, http.StatusBadRequest, "invalid_tracking", "tracking_code is required")
	case errors.Is(err, orderrepo.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update tracking")
	}
}

// POST /api/v1/admin/orders/restock
//
// Manual trigger of the stock reconciler.
func (h *AdminHandler) RestoreStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	restored, err := h.orders.RestoreAbandonedStock(ctx, h.staleness)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to restore stock")
		return
	}

	respondJSON(w, http.StatusOK, RestockResponseDTO{Restored: restored})
}

// GET /api/v1/admin/orders/export
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, orderrepo.ListFilter{
		Status: orderdomain.Status(r.URL.Query().Get("status")),
	})
	if errors.Is(err, orderservice.ErrUnknownStatus) {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown status filter")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="pedidos-%s.csv"`, time.Now().Format("2006-01-02")))

	if err := export.WriteOrdersCSV(w, orders); err != nil {
		// headers already sent, nothing to do but log via the export error path
		return
	}
}

// GET /api/v1/admin/events
//
// Server-sent events feed of order changes; disconnecting unsubscribes.
func (h *AdminHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case event, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return uuid.Nil, false
	}
	return orderID, true
}
