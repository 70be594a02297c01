package cart

import (
	"context"
	"database/sql"

	"github.com/roseline-shop/storefront/internal/domain"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) GetLine(ctx context.Context, userID string, productID int64) (*domain.CartLine, error) {
	line := &domain.CartLine{}

	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, product_id, quantity, created_at, updated_at
		FROM cart_lines
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID).Scan(&line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return line, nil
}

func (r *CartRepository) Insert(ctx context.Context, line *domain.CartLine) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_lines (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`, line.UserID, line.ProductID, line.Quantity)
	return err
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cart_lines
		SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID, quantity)
	return err
}

func (r *CartRepository) Delete(ctx context.Context, userID string, productID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ListItems returns the user's cart newest-first, each line joined with
// its live product snapshot for display pricing.
func (r *CartRepository) ListItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.product_id, c.quantity, c.created_at,
		       p.id, p.name, p.description, p.price, p.stock, p.category, p.image_url, p.created_at, p.updated_at
		FROM cart_lines c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.AddedAt,
			&item.Product.ID, &item.Product.Name, &item.Product.Description, &item.Product.Price,
			&item.Product.Stock, &item.Product.Category, &item.Product.ImageURL,
			&item.Product.CreatedAt, &item.Product.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// ClearForUser deletes every cart line for the user inside the caller's
// transaction; checkout calls it so the cart survives any failed attempt.
func ClearForUser(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM cart_lines WHERE user_id = $1
	`, userID)
	return err
}
