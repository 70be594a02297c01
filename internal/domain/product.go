package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the unit of sale. Stock is the only field mutated outside of
// admin edits: checkout decrements it, cancellation restores it, and it is
// never committed below zero.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
