package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/abarbosa/loja-virtual/internal/cart/domain"
	catalogdomain "github.com/abarbosa/loja-virtual/internal/catalog/domain"
	catalogrepo "github.com/abarbosa/loja-virtual/internal/catalog/repository"
	orderdomain "github.com/abarbosa/loja-virtual/internal/order/domain"
	orderrepo "github.com/abarbosa/loja-virtual/internal/order/repository"
	"github.com/abarbosa/loja-virtual/internal/payment"
)

type mockCartStore struct {
	mu      sync.Mutex
	carts   map[string]*cartdomain.Cart
	cleared []string
	getErr  error
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]*cartdomain.Cart)}
}

func (m *mockCartStore) GetCart(_ context.Context, sessionID string) (*cartdomain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if cart, ok := m.carts[sessionID]; ok {
		return cart, nil
	}
	return &cartdomain.Cart{SessionID: sessionID}, nil
}

func (m *mockCartStore) ClearCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	m.cleared = append(m.cleared, sessionID)
	return nil
}

type mockCatalog struct {
	mu       sync.Mutex
	products map[int64]*catalogdomain.Product
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, catalogrepo.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockCatalog) GetProducts(_ context.Context, ids []int64) (map[int64]*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]*catalogdomain.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

// mockOrderStore reproduces the conditional-decrement contract of the real
// repository: the reservation fails atomically when any line lacks stock.
type mockOrderStore struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*orderdomain.Order
	catalog   *mockCatalog
	createErr error
}

func newMockOrderStore(catalog *mockCatalog) *mockOrderStore {
	return &mockOrderStore{
		orders:  make(map[uuid.UUID]*orderdomain.Order),
		catalog: catalog,
	}
}

func (m *mockOrderStore) CreateOrderReservingStock(_ context.Context, order *orderdomain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}

	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()
	for _, item := range order.Items {
		p, ok := m.catalog.products[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			available := 0
			if ok {
				available = p.Stock
			}
			return &catalogrepo.InsufficientStockError{
				ProductName: item.ProductName,
				Available:   available,
			}
		}
	}
	for _, item := range order.Items {
		m.catalog.products[item.ProductID].Stock -= item.Quantity
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderStore) GetOrderByID(_ context.Context, id uuid.UUID) (*orderdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, orderrepo.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *mockOrderStore) ListOrders(context.Context, orderrepo.ListFilter) ([]*orderdomain.Order, error) {
	return nil, nil
}

func (m *mockOrderStore) UpdateStatusFrom(_ context.Context, id uuid.UUID, expected, target orderdomain.Status) error {
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

func (m *mockOrderStore) SetTrackingCode(_ context.Context, id uuid.UUID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.orders[id]; ok {
		order.TrackingCode = code
		return nil
	}
	return orderrepo.ErrOrderNotFound
}

func (m *mockOrderStore) SetPaymentPreference(_ context.Context, id uuid.UUID, prefID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.orders[id]; ok {
		order.PaymentPreferenceID = prefID
		return nil
	}
	return orderrepo.ErrOrderNotFound
}

func (m *mockOrderStore) RestoreAbandonedStock(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	restored := 0
	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()
	for _, order := range m.orders {
		if order.Status != orderdomain.StatusWaitingPayment || !order.CreatedAt.Before(olderThan) {
			continue
		}
		order.Status = orderdomain.StatusCancelled
		for _, item := range order.Items {
			if p, ok := m.catalog.products[item.ProductID]; ok {
				p.Stock += item.Quantity
			}
		}
		restored++
	}
	return restored, nil
}

type mockGateway struct {
	mu    sync.Mutex
	pref  *payment.Preference
	err   error
	calls int
}

func (m *mockGateway) CreatePreference(_ context.Context, _ *orderdomain.Order) (*payment.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.pref != nil {
		return m.pref, nil
	}
	return &payment.Preference{ID: "pref-1", RedirectURL: "https://pay.example/pref-1"}, nil
}
