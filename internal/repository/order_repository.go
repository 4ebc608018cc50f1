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
	"github.com/shopspring/decimal"
)

const orderSelect = `
	SELECT o.id, o.user_id, o.is_guest_order, o.first_name, o.last_name, o.email, o.phone,
		o.shipping_address, o.payment_method, o.selected_bank_account, o.payment_status,
		o.order_status, o.total, o.created_at, o.updated_at,
		u.id, u.name, u.email
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id
`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts the order and its item snapshot within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, is_guest_order, first_name, last_name, email, phone,
			shipping_address, payment_method, selected_bank_account, payment_status, order_status,
			total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.IsGuestOrder, order.FirstName, order.LastName, order.Email, order.Phone,
		order.ShippingAddress, order.PaymentMethod, order.SelectedBankAccount, order.PaymentStatus, order.OrderStatus,
		order.Total, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, position, product_id, quantity, size, color, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for i, item := range order.Items {
		batch.Queue(itemQuery, item.ID, order.ID, i, item.ProductID, item.Quantity, item.Size, item.Color, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range order.Items {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("product_id", order.Items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("items", len(order.Items)).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items and buyer.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, orderSelect+" WHERE o.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	if order.Items == nil {
		order.Items = []model.OrderItem{}
	}

	return order, nil
}

// List returns orders newest first; when userID is set only that user's orders.
func (r *orderRepository) List(ctx context.Context, userID *uuid.UUID) ([]model.Order, error) {
	query := orderSelect
	var args []any
	if userID != nil {
		query += " WHERE o.user_id = $1"
		args = append(args, *userID)
	}
	query += " ORDER BY o.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	var ids []uuid.UUID
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []model.OrderItem{}
		}
	}

	return orders, nil
}

// UpdateStatus persists the mutable status fields of an order.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, orderStatus model.OrderStatus, paymentStatus model.PaymentStatus) error {
	query := `
		UPDATE orders
		SET order_status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, orderStatus, paymentStatus)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// loadItems fetches the item snapshots of the given orders, each populated with its
// product when the product still exists.
func (r *orderRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.size, oi.color, oi.price,
			p.id, p.name, p.images, p.price, p.category
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.position
	`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("order_count", len(orderIDs)).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item      model.OrderItem
			productID *uuid.UUID
			product   model.Product
			name      *string
			category  *string
			price     decimal.NullDecimal
		)
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Size, &item.Color, &item.Price,
			&productID, &name, &product.Images, &price, &category,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if productID != nil {
			product.ID = *productID
			product.Name = *name
			product.Category = *category
			product.Price = price.Decimal
			item.Product = &product
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o          model.Order
		buyerID    *uuid.UUID
		buyerName  *string
		buyerEmail *string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.IsGuestOrder, &o.FirstName, &o.LastName, &o.Email, &o.Phone,
		&o.ShippingAddress, &o.PaymentMethod, &o.SelectedBankAccount, &o.PaymentStatus,
		&o.OrderStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt,
		&buyerID, &buyerName, &buyerEmail,
	)
	if err != nil {
		return nil, err
	}
	if buyerID != nil {
		o.Buyer = &model.Buyer{ID: *buyerID, Name: *buyerName, Email: *buyerEmail}
	}
	return &o, nil
}
