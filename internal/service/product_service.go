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

const (
	defaultPageSize = 12
	maxPageSize     = 100
	relatedLimit    = 3
	searchLimit     = 8
)

var sortableFields = map[string]bool{"createdAt": true, "price": true, "name": true, "rating": true}

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	images      storage.ImageStore
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, images storage.ImageStore, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List returns one page of products matching the filter.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if !sortableFields[filter.SortBy] {
		filter.SortBy = "createdAt"
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", filter.Page).
			Int("limit", filter.Limit).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Int("page", filter.Page).
		Msg("listed products")

	return &model.ProductPage{
		Products:   products,
		Total:      total,
		Page:       filter.Page,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
		Limit:      filter.Limit,
	}, nil
}

// Get retrieves a product together with up to three products of its category.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	related, err := s.productRepo.Related(ctx, product.Category, product.ID, relatedLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get related products")
		return nil, fmt.Errorf("failed to get related products: %w", err)
	}

	return &model.ProductDetail{Product: *product, RelatedProducts: related}, nil
}

// Search backs the storefront typeahead.
func (s *productService) Search(ctx context.Context, q string) ([]model.ProductSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.ProductSummary{}, nil
	}

	results, err := s.productRepo.Search(ctx, q, searchLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", q).Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return results, nil
}

// Create validates the input, uploads any images and inserts a product.
func (s *productService) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	if input == nil {
		return nil, model.NewValidationError("Invalid request body")
	}
	if input.Category == nil || !model.IsValidCategory(*input.Category) {
		return nil, invalidCategory()
	}
	if blank(input.Name) {
		return nil, model.NewValidationError("Name is required.")
	}
	if blank(input.Description) {
		return nil, model.NewValidationError("Description is required.")
	}
	if input.Price == nil {
		return nil, model.NewValidationError("Price is required.")
	}
	if err := validateProductNumbers(input); err != nil {
		return nil, err
	}
	if err := validateImageCount(len(input.Images) + len(input.Uploads)); err != nil {
		return nil, err
	}

	uploaded, err := s.upload(ctx, input.Uploads)
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(*input.Name),
		Description:   strings.TrimSpace(*input.Description),
		Category:      *input.Category,
		Price:         *input.Price,
		OriginalPrice: input.OriginalPrice,
		Images:        append(append([]string{}, input.Images...), uploaded...),
		Sizes:         orEmpty(input.Sizes),
		Colors:        orEmpty(input.Colors),
		Tags:          orEmpty(input.Tags),
		CreatedAt:     time.Now().UTC(),
	}
	if input.SKU != nil {
		p.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	p.Featured = boolValue(input.Featured, false)
	p.IsNew = boolValue(input.IsNew, false)
	p.Trending = boolValue(input.Trending, false)
	p.Sale = boolValue(input.Sale, false)
	p.InStock = p.Stock > 0

	if err := s.productRepo.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("name", p.Name).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", p.ID.String()).Str("name", p.Name).Msg("product created")
	return p, nil
}

// Update applies the provided fields to an existing product. Uploaded images are
// appended to the kept image list.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input *model.ProductInput) (*model.Product, error) {
	if input == nil {
		return nil, model.NewValidationError("Invalid request body")
	}
	if input.Category != nil && !model.IsValidCategory(*input.Category) {
		return nil, invalidCategory()
	}
	if input.Name != nil && blank(input.Name) {
		return nil, model.NewValidationError("Name is required.")
	}
	if input.Description != nil && blank(input.Description) {
		return nil, model.NewValidationError("Description is required.")
	}
	if err := validateProductNumbers(input); err != nil {
		return nil, err
	}

	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}

	images := p.Images
	if input.Images != nil {
		images = input.Images
	}
	if input.Images != nil || len(input.Uploads) > 0 {
		if err := validateImageCount(len(images) + len(input.Uploads)); err != nil {
			return nil, err
		}
	}

	uploaded, err := s.upload(ctx, input.Uploads)
	if err != nil {
		return nil, err
	}
	p.Images = append(append([]string{}, images...), uploaded...)

	applyProductInput(p, input)
	p.InStock = p.Stock > 0

	if err := s.productRepo.Update(ctx, p, input.Stock != nil); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product updated")
	return p, nil
}

// Delete removes a product.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

func (s *productService) upload(ctx context.Context, uploads []model.ImageUpload) ([]string, error) {
	for i := range uploads {
		if err := storage.Validate(&uploads[i]); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(uploads))
	for _, u := range uploads {
		url, err := s.images.Upload(ctx, u.Filename, u.ContentType, bytes.NewReader(u.Data))
		if err != nil {
			s.logger.Error().Err(err).Str("filename", u.Filename).Msg("failed to upload image")
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func applyProductInput(p *model.Product, in *model.ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = in.OriginalPrice
	}
	if in.Sizes != nil {
		p.Sizes = in.Sizes
	}
	if in.Colors != nil {
		p.Colors = in.Colors
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	p.Featured = boolValue(in.Featured, p.Featured)
	p.IsNew = boolValue(in.IsNew, p.IsNew)
	p.Trending = boolValue(in.Trending, p.Trending)
	p.Sale = boolValue(in.Sale, p.Sale)
}

func validateProductNumbers(in *model.ProductInput) error {
	if in.Price != nil && in.Price.IsNegative() {
		return model.NewValidationError("Price must be a non-negative number.")
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		return model.NewValidationError("Original price must be a non-negative number.")
	}
	if (in.Price != nil && !in.Price.Equal(in.Price.Round(2))) ||
		(in.OriginalPrice != nil && !in.OriginalPrice.Equal(in.OriginalPrice.Round(2))) {
		return model.NewValidationError("Prices can have at most 2 decimal places.")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return model.NewValidationError("Stock must be a non-negative number.")
	}
	return nil
}

func validateImageCount(n int) error {
	if n == 0 {
		return model.NewValidationError("At least one image is required.")
	}
	if n > model.MaxProductImages {
		return model.NewValidationError(fmt.Sprintf("A product can have at most %d images.", model.MaxProductImages))
	}
	return nil
}

func invalidCategory() *model.DomainError {
	return model.NewValidationError("Invalid category. Must be one of: " + strings.Join(model.Categories, ", "))
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func boolValue(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
