package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"abaya-store/internal/model"
	"abaya-store/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	userCarts   repository.CartRepository
	guestCarts  repository.CartRepository
	notifier    OrderNotifier
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	userCarts repository.CartRepository,
	guestCarts repository.CartRepository,
	notifier OrderNotifier,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		userCarts:   userCarts,
		guestCarts:  guestCarts,
		notifier:    notifier,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder validates a checkout, reserves stock and persists the order.
func (s *orderService) PlaceOrder(ctx context.Context, principal *model.Principal, req *model.CheckoutRequest) (*model.Order, error) {
	if err := validateCheckout(req); err != nil {
		s.logger.Warn().Err(err).Msg("checkout rejected")
		return nil, err
	}

	products, err := s.checkStock(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(req, products, s.cartPrices(ctx, principal), principal == nil)

	if principal != nil {
		userID := principal.UserID
		order.UserID = &userID
	} else if buyer := s.resolveGuest(ctx, req); buyer != nil {
		order.UserID = &buyer.ID
		order.Buyer = &model.Buyer{ID: buyer.ID, Name: buyer.Name, Email: buyer.Email}
	}

	if err = s.persist(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Str("total", order.Total.String()).
		Bool("guest", order.IsGuestOrder).
		Msg("order placed")

	s.clearCart(ctx, principal, req.CartToken)
	s.notifier.OrderPlaced(order)

	return order, nil
}

// persist writes the order and takes its stock in one transaction.
func (s *orderService) persist(ctx context.Context, order *model.Order) (err error) {
	var tx pgx.Tx
	tx, err = s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		if _, err = s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, model.ErrInsufficientStock) {
				s.logger.Warn().
					Str("product_id", item.ProductID.String()).
					Int("quantity", item.Quantity).
					Msg("stock taken by a concurrent order")
				name := item.ProductID.String()
				if item.Product != nil {
					name = item.Product.Name
				}
				err = model.NewInsufficientStockError(name)
				return err
			}
			s.logger.Error().Err(err).Str("product_id", item.ProductID.String()).Msg("failed to decrement stock")
			return fmt.Errorf("failed to update stock: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// checkStock verifies every product exists and can cover the quantity requested
// across all of its lines.
func (s *orderService) checkStock(ctx context.Context, items []model.CheckoutItemRequest) (map[uuid.UUID]*model.Product, error) {
	needed := make(map[uuid.UUID]int, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, seen := needed[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		needed[item.ProductID] += lineQuantity(item)
	}

	found, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load checkout products")
		return nil, fmt.Errorf("failed to check stock: %w", err)
	}

	products := make(map[uuid.UUID]*model.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, model.NewNotFoundError(fmt.Sprintf("Product not found: %s", id))
		}
		if p.Stock < needed[id] {
			s.logger.Warn().
				Str("product_id", id.String()).
				Int("stock", p.Stock).
				Int("requested", needed[id]).
				Msg("insufficient stock")
			return nil, model.NewInsufficientStockError(p.Name)
		}
	}
	return products, nil
}

// cartPrices returns the unit prices captured in a registered buyer's server cart.
// Guests and unreadable carts yield nil.
func (s *orderService) cartPrices(ctx context.Context, principal *model.Principal) map[model.LineKey]decimal.Decimal {
	if principal == nil {
		return nil
	}
	c, err := s.userCarts.Get(ctx, principal.UserID.String())
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", principal.UserID.String()).Msg("failed to load cart prices for checkout")
		return nil
	}
	if c == nil {
		return nil
	}
	prices := make(map[model.LineKey]decimal.Decimal, len(c.Items))
	for _, item := range c.Items {
		prices[item.Key()] = item.Price
	}
	return prices
}

// buildOrder prices each line from the buyer's server cart when it holds the line,
// then the submitted price, then the current product price. Prices are rounded to
// cents before totalling.
func (s *orderService) buildOrder(req *model.CheckoutRequest, products map[uuid.UUID]*model.Product, captured map[model.LineKey]decimal.Decimal, guest bool) *model.Order {
	now := time.Now().UTC()
	order := &model.Order{
		ID:           uuid.New(),
		IsGuestOrder: guest,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		ShippingAddress: model.ShippingAddress{
			Street:  strings.TrimSpace(req.Address),
			City:    strings.TrimSpace(req.City),
			State:   strings.TrimSpace(req.Province),
			ZipCode: strings.TrimSpace(req.ZipCode),
			Country: strings.TrimSpace(req.Country),
		},
		PaymentMethod:       req.PaymentMethod,
		SelectedBankAccount: req.SelectedBankAccount,
		PaymentStatus:       model.PaymentStatusPending,
		OrderStatus:         model.OrderStatusPending,
		Items:               make([]model.OrderItem, 0, len(req.Items)),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if order.SelectedBankAccount == "" {
		order.SelectedBankAccount = model.BankAccountUBL
	}
	if req.PaymentMethod == model.PaymentMethodBank && req.BankConfirmed {
		order.PaymentStatus = model.PaymentStatusPaid
	}

	total := decimal.Zero
	for _, item := range req.Items {
		product := products[item.ProductID]
		price := product.Price
		if item.Price != nil {
			price = *item.Price
		}
		key := model.LineKey{ProductID: item.ProductID, Size: item.Size, Color: item.Color}
		if cartPrice, ok := captured[key]; ok {
			if item.Price != nil && !item.Price.Equal(cartPrice) {
				s.logger.Warn().
					Str("order_id", order.ID.String()).
					Str("product_id", item.ProductID.String()).
					Str("submitted", item.Price.String()).
					Str("captured", cartPrice.String()).
					Msg("submitted item price ignored")
			}
			price = cartPrice
		}
		price = price.Round(2)
		line := model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  lineQuantity(item),
			Size:      item.Size,
			Color:     item.Color,
			Price:     price,
			Product:   product,
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		order.Items = append(order.Items, line)
	}
	order.Total = total

	if req.Total != nil && !req.Total.Equal(total) {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("submitted", req.Total.String()).
			Str("computed", total.String()).
			Msg("submitted total ignored")
	}
	return order
}

// resolveGuest upserts the user record for a guest checkout. Failures are logged
// and the order proceeds without a buyer.
func (s *orderService) resolveGuest(ctx context.Context, req *model.CheckoutRequest) *model.User {
	details := model.GuestDetails{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		Province:      strings.TrimSpace(req.Province),
		ZipCode:       strings.TrimSpace(req.ZipCode),
		Country:       strings.TrimSpace(req.Country),
		LastOrderDate: time.Now().UTC(),
	}
	name := details.FirstName + " " + details.LastName

	user, err := s.userRepo.UpsertGuest(ctx, normalizeEmail(req.Email), name, details)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upsert guest user, continuing without buyer")
		return nil
	}
	return user
}

func (s *orderService) clearCart(ctx context.Context, principal *model.Principal, cartToken string) {
	var err error
	switch {
	case principal != nil:
		err = s.userCarts.Delete(ctx, principal.UserID.String())
	case cartToken != "":
		err = s.guestCarts.Delete(ctx, cartToken)
	default:
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear cart after checkout")
	}
}

// List returns every order for an admin and the caller's own orders otherwise.
func (s *orderService) List(ctx context.Context, principal *model.Principal) ([]model.Order, error) {
	if principal == nil {
		return nil, model.ErrUnauthorised
	}

	var userID *uuid.UUID
	if !principal.IsAdmin() {
		userID = &principal.UserID
	}

	orders, err := s.orderRepo.List(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", principal.UserID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListAll returns every order. Admin only.
func (s *orderService) ListAll(ctx context.Context, principal *model.Principal) ([]model.Order, error) {
	if !principal.IsAdmin() {
		return nil, model.ErrUnauthorised
	}

	orders, err := s.orderRepo.List(ctx, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list all orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get retrieves an order owned by the caller, or any order for an admin.
func (s *orderService) Get(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Order, error) {
	if principal == nil {
		return nil, model.ErrUnauthorised
	}
	return s.visibleOrder(ctx, principal, id)
}

func (s *orderService) visibleOrder(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if !principal.IsAdmin() && (order.UserID == nil || *order.UserID != principal.UserID) {
		s.logger.Debug().
			Str("order_id", id.String()).
			Str("user_id", principal.UserID.String()).
			Msg("order hidden from non-owner")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus moves an order through its fulfilment and payment states. Admins drive
// the state machine; an owner may only cancel.
func (s *orderService) UpdateStatus(ctx context.Context, principal *model.Principal, id uuid.UUID, update *model.OrderStatusUpdate) (*model.Order, error) {
	if principal == nil {
		return nil, model.ErrUnauthorised
	}
	if update == nil || (update.OrderStatus == nil && update.PaymentStatus == nil) {
		return nil, model.NewValidationError("orderStatus or paymentStatus is required.")
	}
	if update.OrderStatus != nil && !update.OrderStatus.IsValid() {
		return nil, model.NewValidationError("Invalid order status.")
	}
	if update.PaymentStatus != nil && !update.PaymentStatus.IsValid() {
		return nil, model.NewValidationError("Invalid payment status.")
	}

	order, err := s.visibleOrder(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() {
		if update.PaymentStatus != nil || *update.OrderStatus != model.OrderStatusCancelled {
			return nil, model.ErrForbidden
		}
	}

	nextOrder, nextPayment := order.OrderStatus, order.PaymentStatus
	if update.OrderStatus != nil && *update.OrderStatus != order.OrderStatus {
		if !order.OrderStatus.CanTransitionTo(*update.OrderStatus) {
			return nil, invalidTransition("order", string(order.OrderStatus), string(*update.OrderStatus))
		}
		nextOrder = *update.OrderStatus
	}
	if update.PaymentStatus != nil && *update.PaymentStatus != order.PaymentStatus {
		if !order.PaymentStatus.CanTransitionTo(*update.PaymentStatus) {
			return nil, invalidTransition("payment", string(order.PaymentStatus), string(*update.PaymentStatus))
		}
		nextPayment = *update.PaymentStatus
	}

	if nextOrder == order.OrderStatus && nextPayment == order.PaymentStatus {
		return order, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, nextOrder, nextPayment); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	updated, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to reload order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if updated == nil {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("order_status", string(nextOrder)).
		Str("payment_status", string(nextPayment)).
		Str("by", principal.UserID.String()).
		Msg("order status updated")

	if nextOrder != order.OrderStatus {
		s.notifier.StatusChanged(updated, nextOrder)
	}
	return updated, nil
}

func invalidTransition(kind, from, to string) *model.DomainError {
	return model.NewDomainError(model.ErrCodeInvalidTransition,
		fmt.Sprintf("Cannot change %s status from %s to %s.", kind, from, to))
}

var checkoutFields = []struct {
	name  string
	value func(*model.CheckoutRequest) string
}{
	{"FirstName", func(r *model.CheckoutRequest) string { return r.FirstName }},
	{"LastName", func(r *model.CheckoutRequest) string { return r.LastName }},
	{"Email", func(r *model.CheckoutRequest) string { return r.Email }},
	{"Phone", func(r *model.CheckoutRequest) string { return r.Phone }},
	{"Address", func(r *model.CheckoutRequest) string { return r.Address }},
	{"City", func(r *model.CheckoutRequest) string { return r.City }},
	{"Province", func(r *model.CheckoutRequest) string { return r.Province }},
	{"ZipCode", func(r *model.CheckoutRequest) string { return r.ZipCode }},
	{"Country", func(r *model.CheckoutRequest) string { return r.Country }},
	{"PaymentMethod", func(r *model.CheckoutRequest) string { return r.PaymentMethod }},
}

// validateCheckout checks the checkout form in the order the storefront reports errors.
func validateCheckout(req *model.CheckoutRequest) error {
	if req == nil {
		return model.NewValidationError("Invalid request body")
	}

	for _, f := range checkoutFields {
		if strings.TrimSpace(f.value(req)) == "" {
			return model.NewValidationError(f.name + " is required.")
		}
	}
	if len(req.Items) == 0 {
		return model.NewValidationError("Items is required.")
	}

	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		return model.NewValidationError("Please enter a valid email address.")
	}
	if digits := nonDigits.ReplaceAllString(req.Phone, ""); len(digits) < 10 || len(digits) > 15 {
		return model.NewValidationError("Please enter a valid phone number (10-15 digits).")
	}

	switch req.PaymentMethod {
	case model.PaymentMethodCOD:
	case model.PaymentMethodBank:
		if !req.BankConfirmed {
			return model.NewValidationError("You must confirm the bank transfer.")
		}
	default:
		return model.NewValidationError("Invalid payment method.")
	}

	switch req.SelectedBankAccount {
	case "", model.BankAccountUBL, model.BankAccountEasypaisa:
	default:
		return model.NewValidationError("Invalid bank account.")
	}

	for _, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return model.NewValidationError("Invalid order item: missing product ID")
		}
		if item.Quantity < 0 {
			return model.ErrInvalidQuantity
		}
		if item.Price != nil && item.Price.IsNegative() {
			return model.NewValidationError("Invalid order item: negative price")
		}
	}
	return nil
}

// lineQuantity treats an omitted quantity as one unit.
func lineQuantity(item model.CheckoutItemRequest) int {
	if item.Quantity == 0 {
		return 1
	}
	return item.Quantity
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
