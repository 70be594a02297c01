package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roseline-shop/storefront/internal/domain"
)

type stubProducts struct {
	product *domain.Product
	err     error
}

func (s *stubProducts) GetByID(_ context.Context, _ int64) (*domain.Product, error) {
	return s.product, s.err
}

type stubLines struct {
	line    *domain.CartLine
	items   []domain.CartItem
	deleted bool

	inserted    *domain.CartLine
	updatedQty  int
	updateCalls int
}

func (s *stubLines) GetLine(_ context.Context, _ string, _ int64) (*domain.CartLine, error) {
	return s.line, nil
}

func (s *stubLines) Insert(_ context.Context, line *domain.CartLine) error {
	s.inserted = line
	return nil
}

func (s *stubLines) UpdateQuantity(_ context.Context, _ string, _ int64, quantity int) error {
	s.updatedQty = quantity
	s.updateCalls++
	return nil
}

func (s *stubLines) Delete(_ context.Context, _ string, _ int64) (bool, error) {
	return s.deleted, nil
}

func (s *stubLines) ListItems(_ context.Context, _ string) ([]domain.CartItem, error) {
	return s.items, nil
}

func rose(stock int) *domain.Product {
	return &domain.Product{ID: 1, Name: "Rose Bouquet", Price: decimal.RequireFromString("20.00"), Stock: stock}
}

func TestAdd_NewLine(t *testing.T) {
	lines := &stubLines{}
	ledger := NewLedger(lines, &stubProducts{product: rose(10)})

	err := ledger.Add(context.Background(), "u1", 1, 3)

	require.NoError(t, err)
	require.NotNil(t, lines.inserted)
	assert.Equal(t, 3, lines.inserted.Quantity)
	assert.Equal(t, "u1", lines.inserted.UserID)
}

func TestAdd_IncrementsExistingLine(t *testing.T) {
	lines := &stubLines{line: &domain.CartLine{UserID: "u1", ProductID: 1, Quantity: 2}}
	ledger := NewLedger(lines, &stubProducts{product: rose(10)})

	err := ledger.Add(context.Background(), "u1", 1, 3)

	require.NoError(t, err)
	assert.Nil(t, lines.inserted)
	assert.Equal(t, 5, lines.updatedQty)
}

func TestAdd_CombinedQuantityExceedsStock(t *testing.T) {
	lines := &stubLines{line: &domain.CartLine{UserID: "u1", ProductID: 1, Quantity: 3}}
	ledger := NewLedger(lines, &stubProducts{product: rose(4)})

	err := ledger.Add(context.Background(), "u1", 1, 2)

	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 4, stockErr.Available)
	assert.Equal(t, 0, lines.updateCalls)
}

func TestAdd_UnknownProduct(t *testing.T) {
	ledger := NewLedger(&stubLines{}, &stubProducts{})

	err := ledger.Add(context.Background(), "u1", 42, 1)

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdd_ZeroQuantity(t *testing.T) {
	ledger := NewLedger(&stubLines{}, &stubProducts{product: rose(10)})

	err := ledger.Add(context.Background(), "u1", 1, 0)

	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSetQuantity_Overwrites(t *testing.T) {
	lines := &stubLines{line: &domain.CartLine{UserID: "u1", ProductID: 1, Quantity: 5}}
	ledger := NewLedger(lines, &stubProducts{product: rose(10)})

	err := ledger.SetQuantity(context.Background(), "u1", 1, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, lines.updatedQty, "set replaces, it does not add")
}

func TestSetQuantity_ExceedsStock(t *testing.T) {
	lines := &stubLines{line: &domain.CartLine{UserID: "u1", ProductID: 1, Quantity: 1}}
	ledger := NewLedger(lines, &stubProducts{product: rose(4)})

	err := ledger.SetQuantity(context.Background(), "u1", 1, 5)

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestSetQuantity_NoSuchLine(t *testing.T) {
	ledger := NewLedger(&stubLines{}, &stubProducts{product: rose(10)})

	err := ledger.SetQuantity(context.Background(), "u1", 1, 2)

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetQuantity_ZeroQuantity(t *testing.T) {
	ledger := NewLedger(&stubLines{}, &stubProducts{product: rose(10)})

	err := ledger.SetQuantity(context.Background(), "u1", 1, 0)

	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRemove_MissingLine(t *testing.T) {
	ledger := NewLedger(&stubLines{deleted: false}, &stubProducts{})

	err := ledger.Remove(context.Background(), "u1", 1)

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemove_ExistingLine(t *testing.T) {
	ledger := NewLedger(&stubLines{deleted: true}, &stubProducts{})

	require.NoError(t, ledger.Remove(context.Background(), "u1", 1))
}

func TestList_EmptyCartIsNotNil(t *testing.T) {
	ledger := NewLedger(&stubLines{}, &stubProducts{})

	items, err := ledger.List(context.Background(), "u1")

	require.NoError(t, err)
	require.NotNil(t, items)
	assert.Empty(t, items)
}
