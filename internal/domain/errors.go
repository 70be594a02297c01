package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every core operation. Callers match with
// errors.Is; detail types below carry the specifics and unwrap to these.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrProductUnavailable = errors.New("product no longer available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid order state")
	ErrConflict           = errors.New("conflict")
)

// StockError names the product that lacked stock so the shopper can adjust
// quantity instead of retrying blindly.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = fmt.Sprintf("product %d", e.ProductID)
	}
	return fmt.Sprintf("not enough stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// StateError reports a status transition rejected because of the order's
// current status.
type StateError struct {
	Status OrderStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot cancel order with status: %s", e.Status)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }
