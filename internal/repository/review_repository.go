package repository

import (
	"context"
	"errors"
	"fmt"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// reviewRepository implements the ReviewRepository interface using PostgreSQL.
type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

// List returns reviews newest first, optionally restricted to one product.
func (r *reviewRepository) List(ctx context.Context, productID *uuid.UUID) ([]model.Review, error) {
	query := `SELECT id, product_id, author_name, author_email, rating, comment, image, created_at FROM reviews`
	var args []any
	if productID != nil {
		query += " WHERE product_id = $1"
		args = append(args, *productID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		err := rows.Scan(&rv.ID, &rv.ProductID, &rv.AuthorName, &rv.AuthorEmail, &rv.Rating, &rv.Comment, &rv.Image, &rv.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan review row")
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating review rows")
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// Create inserts a review and, for product reviews, recomputes the product's rating
// and review count in the same transaction. Testimonials return a nil rating.
func (r *reviewRepository) Create(ctx context.Context, rv *model.Review) (rating *model.ProductRating, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error().Err(rbErr).Msg("failed to rollback review transaction")
			}
		}
	}()

	query := `
		INSERT INTO reviews (id, product_id, author_name, author_email, rating, comment, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, query, rv.ID, rv.ProductID, rv.AuthorName, rv.AuthorEmail, rv.Rating, rv.Comment, rv.Image, rv.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			err = model.ErrProductNotFound
			return nil, err
		}
		r.logger.Error().Err(err).Str("review_id", rv.ID.String()).Msg("failed to insert review")
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	if rv.ProductID != nil {
		aggregate := `
			UPDATE products p
			SET rating = agg.avg_rating, review_count = agg.cnt
			FROM (
				SELECT COALESCE(AVG(rating), 0)::float8 AS avg_rating, COUNT(*)::int AS cnt
				FROM reviews WHERE product_id = $1
			) agg
			WHERE p.id = $1
			RETURNING p.rating, p.review_count
		`
		var pr model.ProductRating
		err = tx.QueryRow(ctx, aggregate, *rv.ProductID).Scan(&pr.Rating, &pr.ReviewCount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = model.ErrProductNotFound
				return nil, err
			}
			r.logger.Error().Err(err).Str("product_id", rv.ProductID.String()).Msg("failed to recompute product rating")
			return nil, fmt.Errorf("failed to recompute product rating: %w", err)
		}
		rating = &pr
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit review transaction")
		return nil, fmt.Errorf("failed to commit review transaction: %w", err)
	}

	r.logger.Debug().Str("review_id", rv.ID.String()).Msg("review created successfully")
	return rating, nil
}
