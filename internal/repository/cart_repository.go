package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// userCartRepository stores registered users' carts as JSONB rows keyed by user ID.
type userCartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserCartRepository creates a PostgreSQL-backed cart store for registered users.
func NewUserCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &userCartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user_cart").Logger(),
	}
}

func (r *userCartRepository) Get(ctx context.Context, key string) (*model.Cart, error) {
	userID, err := uuid.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("invalid cart key %q: %w", key, err)
	}

	var c model.Cart
	err = r.pool.QueryRow(ctx, "SELECT items, updated_at FROM carts WHERE user_id = $1", userID).
		Scan(&c.Items, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", key).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []model.CartItem{}
	}

	return &c, nil
}

func (r *userCartRepository) Save(ctx context.Context, key string, c *model.Cart) error {
	userID, err := uuid.Parse(key)
	if err != nil {
		return fmt.Errorf("invalid cart key %q: %w", key, err)
	}

	items := c.Items
	if items == nil {
		items = []model.CartItem{}
	}

	query := `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query, userID, items, c.UpdatedAt); err != nil {
		r.logger.Error().Err(err).Str("user_id", key).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

func (r *userCartRepository) Delete(ctx context.Context, key string) error {
	userID, err := uuid.Parse(key)
	if err != nil {
		return fmt.Errorf("invalid cart key %q: %w", key, err)
	}

	if _, err := r.pool.Exec(ctx, "DELETE FROM carts WHERE user_id = $1", userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", key).Msg("failed to delete cart")
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return nil
}

const guestCartKeyPrefix = "cart:guest:"

// guestCartRepository stores device carts in Redis keyed by cart token.
type guestCartRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewGuestCartRepository creates a Redis-backed cart store for unauthenticated devices.
// Every save refreshes the expiry.
func NewGuestCartRepository(client *redis.Client, ttl time.Duration, logger zerolog.Logger) CartRepository {
	return &guestCartRepository{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("repository", "guest_cart").Logger(),
	}
}

func (r *guestCartRepository) Get(ctx context.Context, key string) (*model.Cart, error) {
	data, err := r.client.Get(ctx, guestCartKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to read guest cart")
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	var c model.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		r.logger.Warn().Err(err).Msg("discarding unreadable guest cart")
		return nil, nil
	}
	if c.Items == nil {
		c.Items = []model.CartItem{}
	}

	return &c, nil
}

func (r *guestCartRepository) Save(ctx context.Context, key string, c *model.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}

	if err := r.client.Set(ctx, guestCartKeyPrefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Error().Err(err).Msg("failed to save guest cart")
		return fmt.Errorf("failed to save guest cart: %w", err)
	}

	return nil
}

func (r *guestCartRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, guestCartKeyPrefix+key).Err(); err != nil {
		r.logger.Error().Err(err).Msg("failed to delete guest cart")
		return fmt.Errorf("failed to delete guest cart: %w", err)
	}
	return nil
}
