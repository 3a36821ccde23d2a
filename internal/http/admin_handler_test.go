package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abarbosa/loja-virtual/internal/events"
	orderdomain "github.com/abarbosa/loja-virtual/internal/order/domain"
	orderrepo "github.com/abarbosa/loja-virtual/internal/order/repository"
	orderservice "github.com/abarbosa/loja-virtual/internal/order/service"
)

type orderRepoMock struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*orderdomain.Order
	restored int
}

func newOrderRepoMock(orders ...*orderdomain.Order) *orderRepoMock {
	m := &orderRepoMock{orders: make(map[uuid.UUID]*orderdomain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *orderRepoMock) CreateOrderReservingStock(ctx context.Context, order *orderdomain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *orderRepoMock) GetOrderByID(ctx context.Context, id uuid.UUID) (*orderdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, orderrepo.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *orderRepoMock) ListOrders(ctx context.Context, filter orderrepo.ListFilter) ([]*orderdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*orderdomain.Order
	for _, order := range m.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		copied := *order
		out = append(out, &copied)
	}
	return out, nil
}

func (m *orderRepoMock) UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target orderdomain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return orderrepo.ErrOrderNotFound
	}
	if order.Status != expected {
		return orderrepo.ErrStatusConflict
	}
	order.Status = target
	return nil
}

func (m *orderRepoMock) SetTrackingCode(ctx context.Context, id uuid.UUID, trackingCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return orderrepo.ErrOrderNotFound
	}
	order.TrackingCode = trackingCode
	return nil
}

func (m *orderRepoMock) SetPaymentPreference(ctx context.Context, id uuid.UUID, preferenceID string) error {
	return nil
}

func (m *orderRepoMock) RestoreAbandonedStock(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restored, nil
}

func newAdminRouter(repo *orderRepoMock) http.Handler {
	svc := orderservice.NewOrderService(repo, events.NewBus())
	handler := NewAdminHandler(svc, events.NewBus(), 24*time.Hour, 5*time.Second)

	r := chi.NewRouter()
	r.Get("/orders", handler.ListOrders)
	r.Get("/orders/export", handler.ExportCSV)
	r.Post("/orders/restock", handler.RestoreStock)
	r.Get("/orders/{order_id}", handler.GetOrder)
	r.Patch("/orders/{order_id}/status", handler.UpdateStatus)
	r.Patch("/orders/{order_id}/tracking", handler.UpdateTracking)
	return r
}

func paidOrder() *orderdomain.Order {
	return &orderdomain.Order{
		ID:            uuid.New(),
		CustomerName:  "Maria Silva",
		CustomerPhone: "11 99999-0000",
		Total:         120.5,
		Status:        orderdomain.StatusPaid,
		CreatedAt:     time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
	}
}

func TestListOrders_FilterByStatus(t *testing.T) {
	waiting := paidOrder()
	waiting.Status = orderdomain.StatusWaitingPayment
	repo := newOrderRepoMock(paidOrder(), waiting)
	router := newAdminRouter(repo)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/orders?status=pago", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response []orderdomain.Order
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(response))
	}
	if response[0].Status != orderdomain.StatusPaid {
		t.Errorf("Expected status pago, got %s", response[0].Status)
	}
}

func TestListOrders_UnknownStatus(t *testing.T) {
	router := newAdminRouter(newOrderRepoMock())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/orders?status=despachado", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "invalid_status" {
		t.Errorf("Expected error code 'invalid_status', got '%s'", response.Code)
	}
}

func TestUpdateStatus_Success(t *testing.T) {
	order := paidOrder()
	repo := newOrderRepoMock(order)
	router := newAdminRouter(repo)

	body := bytes.NewBufferString(`{"status":"em_separacao"}`)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("PATCH", "/orders/"+order.ID.String()+"/status", body))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("Expected status code %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if repo.orders[order.ID].Status != orderdomain.StatusPicking {
		t.Errorf("Expected order moved to em_separacao, got %s", repo.orders[order.ID].Status)
	}
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	order := paidOrder()
	router := newAdminRouter(newOrderRepoMock(order))

	// pago cannot jump straight to entregue
	body := bytes.NewBufferString(`{"status":"entregue"}`)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("PATCH", "/orders/"+order.ID.String()+"/status", body))

	if recorder.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "invalid_transition" {
		t.Errorf("Expected error code 'invalid_transition', got '%s'", response.Code)
	}
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	router := newAdminRouter(newOrderRepoMock())

	body := bytes.NewBufferString(`{"status":"pago"}`)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("PATCH", "/orders/"+uuid.NewString()+"/status", body))

	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestUpdateStatus_BadOrderID(t *testing.T) {
	router := newAdminRouter(newOrderRepoMock())

	body := bytes.NewBufferString(`{"status":"pago"}`)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("PATCH", "/orders/not-a-uuid/status", body))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestUpdateTracking_Success(t *testing.T) {
	order := paidOrder()
	repo := newOrderRepoMock(order)
	router := newAdminRouter(repo)

	body := bytes.NewBufferString(`{"tracking_code":"BR123456789"}`)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("PATCH", "/orders/"+order.ID.String()+"/tracking", body))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("Expected status code %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if repo.orders[order.ID].TrackingCode != "BR123456789" {
		t.Errorf("Expected tracking code persisted, got %q", repo.orders[order.ID].TrackingCode)
	}
}

func TestUpdateTracking_Empty(t *testing.T) {
	order := paidOrder()
	router := newAdminRouter(newOrderRepoMock(order))

	body := bytes.NewBufferString(`{"tracking_code":""}`)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("PATCH", "/orders/"+order.ID.String()+"/tracking", body))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestRestoreStock_ReportsCount(t *testing.T) {
	repo := newOrderRepoMock()
	repo.restored = 3
	router := newAdminRouter(repo)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/orders/restock", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response RestockResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Restored != 3 {
		t.Errorf("Expected 3 restored orders, got %d", response.Restored)
	}
}

func TestExportCSV_Headers(t *testing.T) {
	router := newAdminRouter(newOrderRepoMock(paidOrder()))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/orders/export", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected text/csv content type, got %q", ct)
	}
	if cd := recorder.Header().Get("Content-Disposition"); !strings.Contains(cd, "pedidos-") {
		t.Errorf("Expected attachment filename, got %q", cd)
	}

	body := recorder.Body.String()
	if !strings.HasPrefix(body, "\xEF\xBB\xBF") {
		t.Error("Expected CSV body to start with UTF-8 BOM")
	}
	if !strings.Contains(body, "Maria Silva") {
		t.Error("Expected exported order in CSV body")
	}
}
