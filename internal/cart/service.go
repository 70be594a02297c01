package cart

import (
	"context"
	"fmt"

	"github.com/roseline-shop/storefront/internal/domain"
)

type productGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type lineStore interface {
	GetLine(ctx context.Context, userID string, productID int64) (*domain.CartLine, error)
	Insert(ctx context.Context, line *domain.CartLine) error
	UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) error
	Delete(ctx context.Context, userID string, productID int64) (bool, error)
	ListItems(ctx context.Context, userID string) ([]domain.CartItem, error)
}

// Ledger implements the cart operations. Stock checks here are advisory
// reads against a value that may change before checkout; checkout
// re-validates inside its transaction.
type Ledger struct {
	lines    lineStore
	products productGetter
}

func NewLedger(lines lineStore, products productGetter) *Ledger {
	return &Ledger{
		lines:    lines,
		products: products,
	}
}

// Add upserts a cart line: a new line starts at quantity, an existing line
// is incremented. The combined quantity may not exceed the product's stock.
func (l *Ledger) Add(ctx context.Context, userID string, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1: %w", domain.ErrInvalidArgument)
	}

	product, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product %d: %w", productID, err)
	}
	if product == nil {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}

	line, err := l.lines.GetLine(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("get cart line: %w", err)
	}

	requested := quantity
	if line != nil {
		requested += line.Quantity
	}

	if requested > product.Stock {
		return &domain.StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   requested,
			Available:   product.Stock,
		}
	}

	if line == nil {
		return l.lines.Insert(ctx, &domain.CartLine{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		})
	}

	return l.lines.UpdateQuantity(ctx, userID, productID, requested)
}

// SetQuantity overwrites the line's quantity.
func (l *Ledger) SetQuantity(ctx context.Context, userID string, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1: %w", domain.ErrInvalidArgument)
	}

	product, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product %d: %w", productID, err)
	}
	if product == nil {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}

	if quantity > product.Stock {
		return &domain.StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}

	line, err := l.lines.GetLine(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("get cart line: %w", err)
	}
	if line == nil {
		return fmt.Errorf("cart line for product %d: %w", productID, domain.ErrNotFound)
	}

	return l.lines.UpdateQuantity(ctx, userID, productID, quantity)
}

func (l *Ledger) Remove(ctx context.Context, userID string, productID int64) error {
	deleted, err := l.lines.Delete(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if !deleted {
		return fmt.Errorf("cart line for product %d: %w", productID, domain.ErrNotFound)
	}
	return nil
}

func (l *Ledger) List(ctx context.Context, userID string) ([]domain.CartItem, error) {
	items, err := l.lines.ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return items, nil
}
