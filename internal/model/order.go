package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the fulfilment state machine allows s -> next.
// Orders advance one step at a time and may be cancelled from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing
	case OrderStatusProcessing:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// IsValid reports whether s is a known payment status.
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid || s == PaymentStatusFailed
}

// CanTransitionTo reports whether payment may move from s to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && (next == PaymentStatusPaid || next == PaymentStatusFailed)
}

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD  = "cod"
	PaymentMethodBank = "bank"
)

// Bank accounts a transfer may target.
const (
	BankAccountUBL       = "ubl"
	BankAccountEasypaisa = "easypaisa"
)

// ShippingAddress is the denormalised delivery address stored on an order.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Order represents a placed customer order.
type Order struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	UserID              *uuid.UUID      `json:"userId,omitempty" db:"user_id"`
	IsGuestOrder        bool            `json:"isGuestOrder" db:"is_guest_order"`
	FirstName           string          `json:"firstName" db:"first_name"`
	LastName            string          `json:"lastName" db:"last_name"`
	Email               string          `json:"email" db:"email"`
	Phone               string          `json:"phone" db:"phone"`
	ShippingAddress     ShippingAddress `json:"shippingAddress" db:"shipping_address"`
	Items               []OrderItem     `json:"items" db:"-"`
	PaymentMethod       string          `json:"paymentMethod" db:"payment_method"`
	SelectedBankAccount string          `json:"selectedBankAccount" db:"selected_bank_account"`
	PaymentStatus       PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	OrderStatus         OrderStatus     `json:"orderStatus" db:"order_status"`
	Total               decimal.Decimal `json:"total" db:"total"`
	CreatedAt           time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time       `json:"updatedAt" db:"updated_at"`

	Buyer *Buyer `json:"user,omitempty" db:"-"`
}

// Buyer is the populated contact of the user an order belongs to.
type Buyer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// OrderItem is an immutable snapshot of a purchased line.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Size      string          `json:"size" db:"size"`
	Color     string          `json:"color" db:"color"`
	Price     decimal.Decimal `json:"price" db:"price"`

	Product *Product `json:"product,omitempty" db:"-"`
}

// CheckoutRequest represents the checkout form submitted by the storefront.
type CheckoutRequest struct {
	FirstName           string                `json:"firstName"`
	LastName            string                `json:"lastName"`
	Email               string                `json:"email"`
	Phone               string                `json:"phone"`
	Address             string                `json:"address"`
	City                string                `json:"city"`
	Province            string                `json:"province"`
	ZipCode             string                `json:"zipCode"`
	Country             string                `json:"country"`
	PaymentMethod       string                `json:"paymentMethod"`
	BankConfirmed       bool                  `json:"bankConfirmed"`
	SelectedBankAccount string                `json:"selectedBankAccount,omitempty"`
	Items               []CheckoutItemRequest `json:"items"`
	Total               *decimal.Decimal      `json:"total,omitempty"`
	CartToken           string                `json:"cartToken,omitempty"`
}

// CheckoutItemRequest is a single cart line submitted at checkout.
type CheckoutItemRequest struct {
	ProductID uuid.UUID        `json:"productId"`
	Quantity  int              `json:"quantity"`
	Size      string           `json:"size"`
	Color     string           `json:"color"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// CheckoutResponse is returned after an order has been placed.
type CheckoutResponse struct {
	Message string `json:"message"`
	Order   *Order `json:"order"`
}

// OrderStatusUpdate carries the optional status changes of a PATCH request.
type OrderStatusUpdate struct {
	OrderStatus   *OrderStatus   `json:"orderStatus,omitempty"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty"`
}
