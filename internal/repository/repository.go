package repository

import (
	"context"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List returns one page of products matching the filter and the total match count.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Missing IDs are skipped.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// Related returns up to limit products of the category, excluding one product.
	Related(ctx context.Context, category string, exclude uuid.UUID, limit int) ([]model.Product, error)

	// Search matches name, description or category case-insensitively.
	Search(ctx context.Context, q string, limit int) ([]model.ProductSummary, error)

	// Create inserts a new product.
	Create(ctx context.Context, p *model.Product) error

	// Update overwrites the editable fields of a product. Stock and in_stock are
	// written only when setStock is true; p.Stock and p.InStock are refreshed from
	// the stored row either way. Returns model.ErrProductNotFound when no row matched.
	Update(ctx context.Context, p *model.Product, setStock bool) error

	// Delete removes a product. Returns false when no row matched.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// DecrementStock atomically takes quantity units of stock within tx and re-derives
	// in_stock. Returns model.ErrInsufficientStock when the product cannot cover it.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (int, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts the order and its item snapshot within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order by its ID along with its items and buyer. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List returns orders newest first; when userID is set only that user's orders.
	List(ctx context.Context, userID *uuid.UUID) ([]model.Order, error)

	// UpdateStatus persists the mutable status fields of an order.
	UpdateStatus(ctx context.Context, id uuid.UUID, orderStatus model.OrderStatus, paymentStatus model.PaymentStatus) error
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Create inserts a user. Returns model.ErrEmailInUse on a duplicate email.
	Create(ctx context.Context, u *model.User) error

	// GetByID retrieves a user by ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves a user by email. Returns nil when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update overwrites the mutable fields of a user.
	Update(ctx context.Context, u *model.User) error

	// UpsertGuest finds or creates the user for a guest checkout and refreshes its guest snapshot.
	UpsertGuest(ctx context.Context, email, name string, details model.GuestDetails) (*model.User, error)

	// AddToWishlist adds a product to the wishlist if not already present.
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error

	// RemoveFromWishlist removes a product from the wishlist.
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error

	// SetWishlist replaces the whole wishlist.
	SetWishlist(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error
}

// CartRepository stores carts by key. The user store keys by user ID,
// the guest store by cart token.
type CartRepository interface {
	// Get returns the cart stored under key, or nil when none exists.
	Get(ctx context.Context, key string) (*model.Cart, error)

	// Save creates or replaces the cart stored under key.
	Save(ctx context.Context, key string, c *model.Cart) error

	// Delete removes the cart stored under key.
	Delete(ctx context.Context, key string) error
}

// ReviewRepository defines the interface for review data access operations.
type ReviewRepository interface {
	// List returns reviews newest first, optionally restricted to one product.
	List(ctx context.Context, productID *uuid.UUID) ([]model.Review, error)

	// Create inserts a review and, for product reviews, recomputes the product's
	// rating and review count in the same transaction.
	Create(ctx context.Context, r *model.Review) (*model.ProductRating, error)
}

// SessionRepository stores authenticated sessions.
type SessionRepository interface {
	// Create issues a new session token for the user.
	Create(ctx context.Context, userID uuid.UUID, role string) (string, error)

	// Get resolves a token to its principal and extends its expiry. Returns nil when absent.
	Get(ctx context.Context, token string) (*model.Principal, error)

	// Delete revokes a session.
	Delete(ctx context.Context, token string) error
}
