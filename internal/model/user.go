package model

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered customer, an admin or an auto-created guest.
type User struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Name         string        `json:"name" db:"name"`
	Email        string        `json:"email" db:"email"`
	PasswordHash *string       `json:"-" db:"password_hash"`
	IsGuest      bool          `json:"isGuest" db:"is_guest"`
	GuestDetails *GuestDetails `json:"guestDetails,omitempty" db:"guest_details"`
	Role         string        `json:"role" db:"role"`
	Phone        string        `json:"phone" db:"phone"`
	Addresses    []Address     `json:"addresses" db:"addresses"`
	Wishlist     []uuid.UUID   `json:"-" db:"wishlist"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// GuestDetails is the shipping snapshot remembered for guest checkouts.
type GuestDetails struct {
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Province      string    `json:"province"`
	ZipCode       string    `json:"zipCode"`
	Country       string    `json:"country"`
	LastOrderDate time.Time `json:"lastOrderDate"`
}

// Address is a saved address on a user profile.
type Address struct {
	Label   string `json:"label,omitempty"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID    uuid.UUID
	Role      string
	SessionID string
}

// IsAdmin reports whether the caller holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// SignupRequest represents the registration payload.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest represents the credential payload. CartToken is the guest cart to merge.
type SigninRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	CartToken string `json:"cartToken,omitempty"`
}

// SigninResponse carries the session token issued at sign-in.
type SigninResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// GuestRegisterRequest represents the guest registration payload.
type GuestRegisterRequest struct {
	Email string `json:"email"`
}

// GuestRegisterResponse reports the resolved guest identity.
type GuestRegisterResponse struct {
	Email   string `json:"email"`
	IsGuest bool   `json:"isGuest"`
	Created bool   `json:"created"`
}

// Profile is the safe subset of user fields exposed to the account page.
type Profile struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Addresses []Address `json:"addresses"`
}

// ProfileUpdate carries optional profile changes.
type ProfileUpdate struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
}

// PasswordChangeRequest represents the password change payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// WishlistRequest adds or removes a single product.
type WishlistRequest struct {
	ProductID *uuid.UUID `json:"productId,omitempty"`
}

// WishlistReplaceRequest replaces the whole wishlist.
type WishlistReplaceRequest struct {
	ProductIDs []uuid.UUID `json:"productIds"`
}

// WishlistResponse lists wishlisted products.
type WishlistResponse struct {
	Wishlist []Product `json:"wishlist"`
}
