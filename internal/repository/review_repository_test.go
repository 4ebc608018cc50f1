package repository

import (
	"context"
	"testing"
	"time"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReview(productID *uuid.UUID, rating int, createdAt time.Time) *model.Review {
	return &model.Review{
		ID:         uuid.New(),
		ProductID:  productID,
		AuthorName: "Anonymous",
		Rating:     rating,
		Comment:    "Beautiful stitching",
		CreatedAt:  createdAt,
	}
}

func TestReviewRepository_CreateRecomputesRating(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	products := NewProductRepository(pool, zerolog.Nop())
	repo := NewReviewRepository(pool, zerolog.Nop())

	p := newTestProduct("Classic Abaya", model.CategoryAbayas, 100, 5)
	seedProducts(t, products, p)

	now := time.Now().UTC()
	rating, err := repo.Create(ctx, newTestReview(&p.ID, 5, now))
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.InDelta(t, 5.0, rating.Rating, 0.0001)
	assert.Equal(t, 1, rating.ReviewCount)

	rating, err = repo.Create(ctx, newTestReview(&p.ID, 4, now.Add(time.Second)))
	require.NoError(t, err)
	assert.InDelta(t, 4.5, rating.Rating, 0.0001)
	assert.Equal(t, 2, rating.ReviewCount)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.Rating, 0.0001)
	assert.Equal(t, 2, got.ReviewCount)
}

func TestReviewRepository_Testimonial(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewReviewRepository(pool, zerolog.Nop())

	rating, err := repo.Create(context.Background(), newTestReview(nil, 3, time.Now().UTC()))
	require.NoError(t, err)
	assert.Nil(t, rating)
}

func TestReviewRepository_UnknownProduct(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewReviewRepository(pool, zerolog.Nop())

	ghost := uuid.New()
	_, err := repo.Create(ctx, newTestReview(&ghost, 4, time.Now().UTC()))
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	reviews, err := repo.List(ctx, &ghost)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewRepository_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	products := NewProductRepository(pool, zerolog.Nop())
	repo := NewReviewRepository(pool, zerolog.Nop())

	p := newTestProduct("Classic Abaya", model.CategoryAbayas, 100, 5)
	seedProducts(t, products, p)

	base := time.Now().UTC().Add(-time.Hour)
	first := newTestReview(&p.ID, 4, base)
	testimonial := newTestReview(nil, 5, base.Add(time.Minute))
	latest := newTestReview(&p.ID, 2, base.Add(2*time.Minute))
	for _, rv := range []*model.Review{first, testimonial, latest} {
		_, err := repo.Create(ctx, rv)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, latest.ID, all[0].ID)
	assert.True(t, all[1].IsTestimonial())

	forProduct, err := repo.List(ctx, &p.ID)
	require.NoError(t, err)
	require.Len(t, forProduct, 2)
	assert.Equal(t, latest.ID, forProduct[0].ID)
	assert.Equal(t, first.ID, forProduct[1].ID)
}
