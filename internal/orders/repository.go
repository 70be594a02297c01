package orders

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/roseline-shop/storefront/internal/cart"
	"github.com/roseline-shop/storefront/internal/catalog"
	"github.com/roseline-shop/storefront/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateFromCheckout commits the whole checkout as one transaction: order
// header, frozen-price lines, a conditional stock decrement per product,
// and the cart clear. Any failure rolls everything back, which also keeps
// the cart intact for a retry.
//
// The decrement re-checks stock at write time; losing that race aborts the
// transaction with an error matching both ErrConflict and
// ErrInsufficientStock.
func (r *OrderRepository) CreateFromCheckout(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total, shipping_address, phone_number, notes, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, order.ID, order.UserID, order.Total, order.ShippingAddress, order.PhoneNumber, order.Notes,
		order.Status, order.PaymentStatus, order.CreatedAt)
	if err != nil {
		return err
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.ID = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, line.ID, order.ID, line.ProductID, line.Quantity, line.Price)
		if err != nil {
			return err
		}
	}

	// One decrement per product; duplicate lines for a product take their
	// combined quantity or none of it.
	required := make(map[int64]int)
	var productIDs []int64
	for _, line := range order.Lines {
		if _, seen := required[line.ProductID]; !seen {
			productIDs = append(productIDs, line.ProductID)
		}
		required[line.ProductID] += line.Quantity
	}

	for _, productID := range productIDs {
		if err := catalog.DecrementStock(ctx, tx, productID, required[productID]); err != nil {
			if err == domain.ErrInsufficientStock {
				return fmt.Errorf("stock changed for product %d during checkout: %w: %w",
					productID, domain.ErrConflict, domain.ErrInsufficientStock)
			}
			return err
		}
	}

	if err := cart.ClearForUser(ctx, tx, order.UserID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total, shipping_address, phone_number, notes, status, payment_status, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Total, &order.ShippingAddress, &order.PhoneNumber,
		&order.Notes, &order.Status, &order.PaymentStatus, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, price
		FROM order_lines
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.Quantity, &line.Price); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByUser returns the user's orders newest-first, loading all lines in
// one batched query.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, total, shipping_address, phone_number, notes, status, payment_status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, total, shipping_address, phone_number, notes, status, payment_status, created_at
		FROM orders
		ORDER BY created_at DESC
	`)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.ShippingAddress, &order.PhoneNumber,
			&order.Notes, &order.Status, &order.PaymentStatus, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Lines = []domain.OrderLine{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	lineRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, id, product_id, quantity, price
		FROM order_lines
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = lineRows.Close() }()

	for lineRows.Next() {
		var orderID string
		var line domain.OrderLine
		if err := lineRows.Scan(&orderID, &line.ID, &line.ProductID, &line.Quantity, &line.Price); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Lines = append(order.Lines, line)
	}

	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// CancelAndRestock flips the order to CANCELLED and restores stock for
// every line, atomically. The conditional status update is the idempotency
// guard: only a PENDING or PROCESSING order matches, so stock is restored
// exactly once no matter how many cancel calls race. Returns false when
// the guard did not match.
func (r *OrderRepository) CancelAndRestock(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)
	`, domain.OrderStatusCancelled, id, domain.OrderStatusPending, domain.OrderStatusProcessing)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rowsAffected == 0 {
		return false, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM order_lines
		WHERE order_id = $1
	`, id)
	if err != nil {
		return false, err
	}

	type restock struct {
		productID int64
		quantity  int
	}
	var restocks []restock
	for rows.Next() {
		var rs restock
		if err := rows.Scan(&rs.productID, &rs.quantity); err != nil {
			_ = rows.Close()
			return false, err
		}
		restocks = append(restocks, rs)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return false, err
	}
	_ = rows.Close()

	for _, rs := range restocks {
		if err := catalog.RestoreStock(ctx, tx, rs.productID, rs.quantity); err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}
