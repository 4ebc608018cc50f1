package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"abaya-store/internal/model"
	"abaya-store/internal/repository"
	"abaya-store/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const anonymousAuthor = "Anonymous"

// reviewService implements ReviewService.
type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	images      storage.ImageStore
	logger      zerolog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	images storage.ImageStore,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		images:      images,
		logger:      logger.With().Str("service", "review").Logger(),
	}
}

// List returns reviews newest first, optionally for one product.
func (s *reviewService) List(ctx context.Context, productID *uuid.UUID) ([]model.Review, error) {
	reviews, err := s.reviewRepo.List(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// CreateTestimonial stores a site-wide review. Rating and comment are required.
func (s *reviewService) CreateTestimonial(ctx context.Context, req *model.TestimonialRequest) (*model.Review, error) {
	if req == nil || req.Rating < 1 || req.Rating > 5 || strings.TrimSpace(req.Comment) == "" {
		return nil, model.NewValidationError("Invalid input")
	}

	review := newReview(req.Name, req.Email, req.Rating, req.Comment)
	if _, err := s.reviewRepo.Create(ctx, review); err != nil {
		s.logger.Error().Err(err).Msg("failed to create testimonial")
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info().Str("review_id", review.ID.String()).Int("rating", review.Rating).Msg("testimonial created")
	return review, nil
}

// CreateProductReview stores a product review, with an optional image, and refreshes
// the product's rating.
func (s *reviewService) CreateProductReview(ctx context.Context, req *model.ProductReviewRequest) (*model.Review, error) {
	if req == nil || req.Rating < 1 || req.Rating > 5 {
		return nil, model.NewValidationError("Invalid rating")
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, model.NewValidationError("Product is required for product reviews")
	}
	productID, err := uuid.Parse(strings.TrimSpace(req.ProductID))
	if err != nil {
		return nil, model.ErrProductNotFound
	}
	if req.Image != nil {
		if err := storage.Validate(req.Image); err != nil {
			return nil, err
		}
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	review := newReview(req.Name, req.Email, req.Rating, req.Comment)
	review.ProductID = &productID

	if req.Image != nil {
		url, err := s.images.Upload(ctx, req.Image.Filename, req.Image.ContentType, bytes.NewReader(req.Image.Data))
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to upload review image")
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		review.Image = url
	}

	rating, err := s.reviewRepo.Create(ctx, review)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to create review")
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	ev := s.logger.Info().Str("review_id", review.ID.String()).Str("product_id", productID.String())
	if rating != nil {
		ev = ev.Float64("rating", rating.Rating).Int("review_count", rating.ReviewCount)
	}
	ev.Msg("product review created")

	return review, nil
}

func newReview(name, email string, rating int, comment string) *model.Review {
	name = strings.TrimSpace(name)
	if name == "" {
		name = anonymousAuthor
	}
	return &model.Review{
		ID:          uuid.New(),
		AuthorName:  name,
		AuthorEmail: strings.TrimSpace(email),
		Rating:      rating,
		Comment:     strings.TrimSpace(comment),
		CreatedAt:   time.Now().UTC(),
	}
}
