package service

import (
	"context"

	"abaya-store/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// List returns one page of products matching the filter.
	List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error)

	// Get retrieves a product together with up to three products of its category.
	Get(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error)

	// Search backs the storefront typeahead. A blank query yields no results.
	Search(ctx context.Context, q string) ([]model.ProductSummary, error)

	// Create validates the input, uploads any images and inserts a product.
	Create(ctx context.Context, input *model.ProductInput) (*model.Product, error)

	// Update applies the provided fields to an existing product.
	Update(ctx context.Context, id uuid.UUID, input *model.ProductInput) (*model.Product, error)

	// Delete removes a product.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CartService presents one logical cart for registered users and guests.
type CartService interface {
	// Get returns the owner's cart, empty when none exists.
	Get(ctx context.Context, owner model.CartOwner) (*model.CartView, error)

	// Add puts a product into the cart at its current price. A guest without a token
	// is issued one, returned in CartView.CartToken.
	Add(ctx context.Context, owner model.CartOwner, req *model.AddToCartRequest) (*model.CartView, error)

	// Update overwrites the quantity of a line item; zero or less removes it.
	Update(ctx context.Context, owner model.CartOwner, req *model.UpdateCartItemRequest) (*model.CartView, error)

	// Remove deletes a line item.
	Remove(ctx context.Context, owner model.CartOwner, req *model.RemoveCartItemRequest) (*model.CartView, error)

	// Clear empties the cart.
	Clear(ctx context.Context, owner model.CartOwner) (*model.CartView, error)

	// Merge folds the guest cart into the user's cart and deletes the guest cart.
	Merge(ctx context.Context, userID uuid.UUID, guestToken string) (*model.CartView, error)
}

// OrderService defines operations for order placement and lifecycle.
type OrderService interface {
	// PlaceOrder validates a checkout, reserves stock and persists the order.
	// principal is nil for guest checkouts.
	PlaceOrder(ctx context.Context, principal *model.Principal, req *model.CheckoutRequest) (*model.Order, error)

	// List returns every order for an admin and the caller's own orders otherwise.
	List(ctx context.Context, principal *model.Principal) ([]model.Order, error)

	// ListAll returns every order. Admin only.
	ListAll(ctx context.Context, principal *model.Principal) ([]model.Order, error)

	// Get retrieves an order visible to the caller.
	Get(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Order, error)

	// UpdateStatus moves an order through its fulfilment and payment states.
	UpdateStatus(ctx context.Context, principal *model.Principal, id uuid.UUID, update *model.OrderStatusUpdate) (*model.Order, error)
}

// ReviewService defines operations for reviews and testimonials.
type ReviewService interface {
	// List returns reviews newest first, optionally for one product.
	List(ctx context.Context, productID *uuid.UUID) ([]model.Review, error)

	// CreateTestimonial stores a site-wide review.
	CreateTestimonial(ctx context.Context, req *model.TestimonialRequest) (*model.Review, error)

	// CreateProductReview stores a product review and refreshes the product's rating.
	CreateProductReview(ctx context.Context, req *model.ProductReviewRequest) (*model.Review, error)
}

// UserService defines account, session and wishlist operations.
type UserService interface {
	Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error)
	GuestRegister(ctx context.Context, req *model.GuestRegisterRequest) (*model.GuestRegisterResponse, error)

	// Signin checks credentials, opens a session and merges the presented guest cart.
	Signin(ctx context.Context, req *model.SigninRequest) (*model.SigninResponse, error)
	Signout(ctx context.Context, token string) error

	// Authenticate resolves a bearer token. Returns nil for unknown or expired tokens.
	Authenticate(ctx context.Context, token string) (*model.Principal, error)

	Profile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update *model.ProfileUpdate) (*model.Profile, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *model.PasswordChangeRequest) error

	Wishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error)
	ReplaceWishlist(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]model.Product, error)

	// RemoveFromWishlist removes one product, or clears the wishlist when productID is nil.
	RemoveFromWishlist(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) ([]model.Product, error)

	// EnsureAdmin creates or promotes the bootstrap admin account.
	EnsureAdmin(ctx context.Context, email, password string) error
}

// OrderNotifier receives order events for best-effort customer and admin mail.
// Implementations must not block.
type OrderNotifier interface {
	OrderPlaced(order *model.Order)
	StatusChanged(order *model.Order, status model.OrderStatus)
}
