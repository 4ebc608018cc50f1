package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const userColumns = `id, name, email, password_hash, is_guest, guest_details, role, phone, addresses, wishlist, created_at`

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// Create inserts a user.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.Addresses == nil {
		u.Addresses = []model.Address{}
	}
	if u.Wishlist == nil {
		u.Wishlist = []uuid.UUID{}
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.IsGuest, u.GuestDetails, u.Role, u.Phone, u.Addresses, u.Wishlist, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailInUse
		}
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug().Str("user_id", u.ID.String()).Msg("user created successfully")
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user by email")
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return u, nil
}

// Update overwrites the mutable fields of a user.
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	if u.Addresses == nil {
		u.Addresses = []model.Address{}
	}

	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, is_guest = $5, guest_details = $6,
			role = $7, phone = $8, addresses = $9
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.IsGuest, u.GuestDetails, u.Role, u.Phone, u.Addresses,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailInUse
		}
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to update user")
		return fmt.Errorf("failed to update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

// UpsertGuest finds or creates the user for a guest checkout and refreshes its guest snapshot.
// Accounts that hold a password keep their registered status.
func (r *userRepository) UpsertGuest(ctx context.Context, email, name string, details model.GuestDetails) (*model.User, error) {
	query := `
		INSERT INTO users (id, name, email, is_guest, guest_details, role, created_at)
		VALUES ($1, $2, $3, TRUE, $4, 'user', $5)
		ON CONFLICT (email) DO UPDATE
		SET guest_details = EXCLUDED.guest_details,
			is_guest = users.password_hash IS NULL,
			name = CASE WHEN users.password_hash IS NULL THEN EXCLUDED.name ELSE users.name END
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, uuid.New(), name, email, details, time.Now().UTC()))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to upsert guest user")
		return nil, fmt.Errorf("failed to upsert guest user: %w", err)
	}

	return u, nil
}

// AddToWishlist adds a product to the wishlist if not already present.
func (r *userRepository) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	query := `
		UPDATE users
		SET wishlist = array_append(wishlist, $2)
		WHERE id = $1 AND NOT ($2 = ANY(wishlist))
	`
	return r.execWishlist(ctx, userID, "add to wishlist", query, userID, productID)
}

// RemoveFromWishlist removes a product from the wishlist.
func (r *userRepository) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	query := `UPDATE users SET wishlist = array_remove(wishlist, $2) WHERE id = $1`
	return r.execWishlist(ctx, userID, "remove from wishlist", query, userID, productID)
}

// SetWishlist replaces the whole wishlist, dropping duplicates.
func (r *userRepository) SetWishlist(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(productIDs))
	ids := make([]uuid.UUID, 0, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	query := `UPDATE users SET wishlist = $2 WHERE id = $1`
	return r.execWishlist(ctx, userID, "set wishlist", query, userID, ids)
}

func (r *userRepository) execWishlist(ctx context.Context, userID uuid.UUID, op, query string, args ...any) error {
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msgf("failed to %s", op)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsGuest, &u.GuestDetails,
		&u.Role, &u.Phone, &u.Addresses, &u.Wishlist, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
