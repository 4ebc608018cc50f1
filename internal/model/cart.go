package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineKey identifies a line item within a cart.
type LineKey struct {
	ProductID uuid.UUID `json:"productId"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

// CartItem is a cart line with the unit price captured when it was added.
type CartItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Price     decimal.Decimal `json:"price"`
}

// Key returns the identity of the line item.
func (i CartItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// Cart is the persisted form of a cart, shared by the user and guest stores.
type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartOwner addresses a cart. Exactly one of UserID or GuestToken is set.
type CartOwner struct {
	UserID     *uuid.UUID
	GuestToken string
}

// IsGuest reports whether the owner is an unauthenticated device.
func (o CartOwner) IsGuest() bool {
	return o.UserID == nil
}

// CartLine is a cart item populated with its live product document.
type CartLine struct {
	CartItem
	Product *Product `json:"product,omitempty"`
}

// CartView is the cart as returned to callers, with derived totals.
type CartView struct {
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
	CartToken string          `json:"cartToken,omitempty"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

// AddToCartRequest represents the request payload for adding an item.
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  *int      `json:"quantity,omitempty"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

// UpdateCartItemRequest overwrites the quantity of a line item.
type UpdateCartItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Quantity  int       `json:"quantity"`
}

// RemoveCartItemRequest identifies the line item to delete.
type RemoveCartItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}
