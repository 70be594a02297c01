package domain

import "time"

// CartLine is one (user, product) row in the cart ledger. Quantity checks
// against stock at cart-mutation time are advisory; checkout re-validates
// inside its transaction.
type CartLine struct {
	UserID    string    `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem is a cart line joined with its live product snapshot, used for
// display pricing only.
type CartItem struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Product   Product   `json:"product"`
	AddedAt   time.Time `json:"added_at"`
}
