package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, description, category, price, original_price, images, sizes, colors,
	tags, sku, stock, featured, is_new, trending, sale, in_stock, rating, review_count, created_at`

// sortColumns whitelists the columns a listing may be ordered by.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
	"rating":    "rating",
}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// List returns one page of products matching the filter and the total match count.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	where, args := buildProductWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM products" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}

	limit := filter.Limit
	offset := (filter.Page - 1) * filter.Limit
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT %s FROM products%s ORDER BY %s %s, id LIMIT $%d OFFSET $%d",
		productColumns, where, column, direction, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products, err := r.scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// buildProductWhere translates a filter into a WHERE clause and its positional arguments.
func buildProductWhere(filter model.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Categories) > 0 {
		conds = append(conds, "category = ANY("+arg(filter.Categories)+")")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		conds = append(conds, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if filter.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*filter.MaxPrice))
	}
	if filter.Featured {
		conds = append(conds, "featured")
	}
	if filter.Trending {
		conds = append(conds, "trending")
	}
	if filter.IsNew {
		conds = append(conds, "is_new")
	}
	if filter.Sale {
		conds = append(conds, "sale")
	}
	if len(filter.Colors) > 0 {
		conds = append(conds, "colors && "+arg(filter.Colors)+"::text[]")
	}
	if len(filter.Sizes) > 0 {
		conds = append(conds, "sizes && "+arg(filter.Sizes)+"::text[]")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := "SELECT " + productColumns + " FROM products WHERE id = ANY($1::uuid[]) ORDER BY name"

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("id_count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	defer rows.Close()

	return r.scanProducts(rows)
}

// Related returns up to limit products of the category, excluding one product.
func (r *productRepository) Related(ctx context.Context, category string, exclude uuid.UUID, limit int) ([]model.Product, error) {
	query := "SELECT " + productColumns + ` FROM products
		WHERE category = $1 AND id <> $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, category, exclude, limit)
	if err != nil {
		r.logger.Error().Err(err).Str("category", category).Msg("failed to query related products")
		return nil, fmt.Errorf("failed to query related products: %w", err)
	}
	defer rows.Close()

	return r.scanProducts(rows)
}

// Search matches name, description or category case-insensitively.
func (r *productRepository) Search(ctx context.Context, q string, limit int) ([]model.ProductSummary, error) {
	query := `
		SELECT id, name, images, price, category
		FROM products
		WHERE name ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY name
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, "%"+escapeLike(q)+"%", limit)
	if err != nil {
		r.logger.Error().Err(err).Str("query", q).Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	results := []model.ProductSummary{}
	for rows.Next() {
		var s model.ProductSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Images, &s.Price, &s.Category); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan search row")
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating search rows")
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.OriginalPrice, p.Images, p.Sizes, p.Colors,
		p.Tags, p.SKU, p.Stock, p.Featured, p.IsNew, p.Trending, p.Sale, p.InStock, p.Rating, p.ReviewCount, p.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID.String()).Msg("product created successfully")
	return nil
}

// Update overwrites the editable fields of a product. Stock is left alone unless
// setStock is true, so a concurrent checkout decrement is never written back over.
func (r *productRepository) Update(ctx context.Context, p *model.Product, setStock bool) error {
	query := `
		UPDATE products SET
			name = $2, description = $3, category = $4, price = $5, original_price = $6,
			images = $7, sizes = $8, colors = $9, tags = $10, sku = $11,
			featured = $12, is_new = $13, trending = $14, sale = $15`
	args := []any{
		p.ID, p.Name, p.Description, p.Category, p.Price, p.OriginalPrice,
		p.Images, p.Sizes, p.Colors, p.Tags, p.SKU,
		p.Featured, p.IsNew, p.Trending, p.Sale,
	}
	if setStock {
		query += `, stock = $16, in_stock = $16 > 0`
		args = append(args, p.Stock)
	}
	query += `
		WHERE id = $1
		RETURNING stock, in_stock`

	err := r.pool.QueryRow(ctx, query, args...).Scan(&p.Stock, &p.InStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrProductNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DecrementStock atomically takes quantity units of stock and re-derives in_stock.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (int, error) {
	query := `
		UPDATE products
		SET stock = stock - $2,
		    in_stock = stock - $2 > 0
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`

	var remaining int
	err := tx.QueryRow(ctx, query, id, quantity).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().
				Str("product_id", id.String()).
				Int("quantity", quantity).
				Msg("stock decrement rejected")
			return 0, model.ErrInsufficientStock
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to decrement stock")
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return remaining, nil
}

func (r *productRepository) scanProducts(rows pgx.Rows) ([]model.Product, error) {
	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.OriginalPrice,
		&p.Images, &p.Sizes, &p.Colors, &p.Tags, &p.SKU, &p.Stock,
		&p.Featured, &p.IsNew, &p.Trending, &p.Sale, &p.InStock,
		&p.Rating, &p.ReviewCount, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
