package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	catalogrepo "github.com/abarbosa/loja-virtual/internal/catalog/repository"
	"github.com/abarbosa/loja-virtual/internal/order/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateOrderReservingStock(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (id, buyer_id, customer_name, customer_phone,
	            street, number, complement, city, state, cep,
	            subtotal, shipping_cost, shipping_method, total, status,
	            payment_preference_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())`

	_, insertErr := tx.ExecContext(ctx, query,
		order.ID,
		order.BuyerID,
		order.CustomerName,
		order.CustomerPhone,
		order.Address.Street,
		order.Address.Number,
		order.Address.Complement,
		order.Address.City,
		order.Address.State,
		order.Address.CEP,
		order.Subtotal,
		order.ShippingCost,
		order.ShippingMethod,
		order.Total,
		order.Status,
		order.PaymentPreferenceID,
	)
	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
	              VALUES ($1, $2, $3, $4, $5)`

	// The decrement only happens when enough stock remains, so two
	// concurrent checkouts can never drive the counter negative.
	reserveQuery := `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`

	for _, item := range order.Items {
		if _, e2 := tx.ExecContext(ctx, itemQuery,
			order.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice); e2 != nil {
			return fmt.Errorf("insert order item: %w", e2)
		}

		res, e2 := tx.ExecContext(ctx, reserveQuery, item.ProductID, item.Quantity)
		if e2 != nil {
			return fmt.Errorf("reserve stock for product %d: %w", item.ProductID, e2)
		}
		affected, e2 := res.RowsAffected()
		if e2 != nil {
			return fmt.Errorf("reserve stock rows affected: %w", e2)
		}
		if affected == 0 {
			available := 0
			_ = tx.QueryRowContext(ctx,
				`SELECT stock FROM products WHERE id = $1`, item.ProductID).Scan(&available)
			return &catalogrepo.InsufficientStockError{
				ProductName: item.ProductName,
				Available:   available,
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

const orderColumns = `id, buyer_id, customer_name, customer_phone,
	       street, number, complement, city, state, cep,
	       subtotal, shipping_cost, shipping_method, total, status,
	       tracking_code, payment_preference_id, created_at, updated_at`

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *Repository) ListOrders(ctx context.Context, filter ListFilter) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []interface{}
	where := ""

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if filter.Customer != "" {
		args = append(args, "%"+filter.Customer+"%")
		if where == "" {
			where = fmt.Sprintf(" WHERE customer_name ILIKE $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND customer_name ILIKE $%d", len(args))
		}
	}
	query += where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

func (r *Repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target domain.Status) error {
	query := `UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	res, err := r.db.ExecContext(ctx, query, id, expected, target)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if affected == 0 {
		if exists, e2 := r.orderExists(ctx, id); e2 == nil && !exists {
			return ErrOrderNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *Repository) SetTrackingCode(ctx context.Context, id uuid.UUID, trackingCode string) error {
	query := `UPDATE orders SET tracking_code = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, trackingCode)
	if err != nil {
		return fmt.Errorf("update tracking code: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repository) SetPaymentPreference(ctx context.Context, id uuid.UUID, preferenceID string) error {
	query := `UPDATE orders SET payment_preference_id = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, preferenceID)
	if err != nil {
		return fmt.Errorf("update payment preference: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repository) RestoreAbandonedStock(ctx context.Context, olderThan time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Row locks keep a concurrent payment confirmation for the same order
	// waiting until the reclaim decision is committed.
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM orders
		 WHERE status = $1 AND created_at < $2
		 FOR UPDATE`,
		domain.StatusWaitingPayment, olderThan)
	if err != nil {
		return 0, fmt.Errorf("query abandoned orders: %w", err)
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan abandoned order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	restored := 0
	for _, id := range ids {
		res, e2 := tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW()
			 WHERE id = $1 AND status = $3`,
			id, domain.StatusCancelled, domain.StatusWaitingPayment)
		if e2 != nil {
			return 0, fmt.Errorf("cancel abandoned order %s: %w", id, e2)
		}
		affected, e2 := res.RowsAffected()
		if e2 != nil {
			return 0, fmt.Errorf("cancel rows affected: %w", e2)
		}
		if affected == 0 {
			continue // paid in the meantime, leave its reservation alone
		}

		if _, e2 := tx.ExecContext(ctx,
			`UPDATE products p SET stock = p.stock + oi.quantity
			 FROM order_items oi
			 WHERE oi.order_id = $1 AND oi.product_id = p.id`,
			id); e2 != nil {
			return 0, fmt.Errorf("restore stock for order %s: %w", id, e2)
		}
		restored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stock restore: %w", err)
	}
	return restored, nil
}

func (r *Repository) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, product_name, quantity, unit_price
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func (r *Repository) orderExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.BuyerID,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.Address.Street,
		&order.Address.Number,
		&order.Address.Complement,
		&order.Address.City,
		&order.Address.State,
		&order.Address.CEP,
		&order.Subtotal,
		&order.ShippingCost,
		&order.ShippingMethod,
		&order.Total,
		&order.Status,
		&order.TrackingCode,
		&order.PaymentPreferenceID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
