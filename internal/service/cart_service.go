package service

import (
	"context"
	"fmt"

	"abaya-store/internal/cart"
	"abaya-store/internal/model"
	"abaya-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cartService implements CartService over a database-backed store for registered
// users and a Redis-backed store for guest devices.
type cartService struct {
	productRepo repository.ProductRepository
	userCarts   repository.CartRepository
	guestCarts  repository.CartRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	productRepo repository.ProductRepository,
	userCarts repository.CartRepository,
	guestCarts repository.CartRepository,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		productRepo: productRepo,
		userCarts:   userCarts,
		guestCarts:  guestCarts,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) store(owner model.CartOwner) (repository.CartRepository, string) {
	if owner.IsGuest() {
		return s.guestCarts, owner.GuestToken
	}
	return s.userCarts, owner.UserID.String()
}

// load returns the owner's cart or nil when none is stored.
func (s *cartService) load(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	if owner.IsGuest() && owner.GuestToken == "" {
		return nil, nil
	}

	repo, key := s.store(owner)
	c, err := repo.Get(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Bool("guest", owner.IsGuest()).Msg("failed to load cart")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

func (s *cartService) save(ctx context.Context, owner model.CartOwner, c *model.Cart) error {
	repo, key := s.store(owner)
	if err := repo.Save(ctx, key, c); err != nil {
		s.logger.Error().Err(err).Bool("guest", owner.IsGuest()).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Get returns the owner's cart populated with live product documents. An unreadable
// guest cart is shown as empty; mutations still fail so nothing is saved over it.
func (s *cartService) Get(ctx context.Context, owner model.CartOwner) (*model.CartView, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		if !owner.IsGuest() {
			return nil, err
		}
		s.logger.Warn().Err(err).Msg("guest cart unavailable, showing empty cart")
	}
	if c == nil {
		c = cart.New()
	}
	return s.view(ctx, owner, c), nil
}

// Add puts a product into the cart at its current price.
func (s *cartService) Add(ctx context.Context, owner model.CartOwner, req *model.AddToCartRequest) (*model.CartView, error) {
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	if owner.IsGuest() && owner.GuestToken == "" {
		owner.GuestToken = uuid.NewString()
		s.logger.Debug().Msg("issued guest cart token")
	}

	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = cart.New()
	}

	if err := cart.Add(c, model.CartItem{
		ProductID: product.ID,
		Quantity:  quantity,
		Size:      req.Size,
		Color:     req.Color,
		Price:     product.Price,
	}); err != nil {
		return nil, err
	}

	if err := s.save(ctx, owner, c); err != nil {
		return nil, err
	}
	return s.view(ctx, owner, c), nil
}

// Update overwrites the quantity of a line item; zero or less removes it.
func (s *cartService) Update(ctx context.Context, owner model.CartOwner, req *model.UpdateCartItemRequest) (*model.CartView, error) {
	key := model.LineKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}
	return s.mutate(ctx, owner, func(c *model.Cart) (bool, error) {
		if cart.UpdateQuantity(c, key, req.Quantity) {
			return true, nil
		}
		return false, model.ErrCartItemNotFound
	})
}

// Remove deletes a line item. A missing line is not an error.
func (s *cartService) Remove(ctx context.Context, owner model.CartOwner, req *model.RemoveCartItemRequest) (*model.CartView, error) {
	key := model.LineKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}
	return s.mutate(ctx, owner, func(c *model.Cart) (bool, error) {
		return cart.Remove(c, key), nil
	})
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context, owner model.CartOwner) (*model.CartView, error) {
	return s.mutate(ctx, owner, func(c *model.Cart) (bool, error) {
		cart.Clear(c)
		return true, nil
	})
}

// mutate applies fn to an existing cart and saves it when fn reports a change.
// Registered carts surface missing carts and items; guest carts ignore them.
func (s *cartService) mutate(ctx context.Context, owner model.CartOwner, fn func(*model.Cart) (bool, error)) (*model.CartView, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		if !owner.IsGuest() {
			return nil, model.ErrCartNotFound
		}
		return s.view(ctx, owner, cart.New()), nil
	}

	changed, err := fn(c)
	if err != nil {
		if !owner.IsGuest() {
			return nil, err
		}
		s.logger.Debug().Err(err).Msg("guest cart mutation ignored")
	}
	if changed {
		if err := s.save(ctx, owner, c); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, owner, c), nil
}

// Merge folds the guest cart into the user's cart and deletes the guest cart.
func (s *cartService) Merge(ctx context.Context, userID uuid.UUID, guestToken string) (*model.CartView, error) {
	owner := model.CartOwner{UserID: &userID}
	if guestToken == "" {
		return s.Get(ctx, owner)
	}

	guest, err := s.guestCarts.Get(ctx, guestToken)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load guest cart for merge")
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	server, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	if guest == nil || len(guest.Items) == 0 {
		if server == nil {
			server = cart.New()
		}
		return s.view(ctx, owner, server), nil
	}

	merged := cart.Merge(server, guest)
	if err := s.save(ctx, owner, merged); err != nil {
		return nil, err
	}
	if err := s.guestCarts.Delete(ctx, guestToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete merged guest cart")
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Int("guest_lines", len(guest.Items)).
		Int("merged_lines", len(merged.Items)).
		Msg("guest cart merged")

	return s.view(ctx, owner, merged), nil
}

// view populates line items with live products. A failed lookup leaves them unpopulated.
func (s *cartService) view(ctx context.Context, owner model.CartOwner, c *model.Cart) *model.CartView {
	var products map[string]*model.Product
	if len(c.Items) > 0 {
		ids := make([]uuid.UUID, 0, len(c.Items))
		for _, item := range c.Items {
			ids = append(ids, item.ProductID)
		}
		found, err := s.productRepo.GetByIDs(ctx, ids)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to populate cart products")
		} else {
			products = make(map[string]*model.Product, len(found))
			for i := range found {
				products[found[i].ID.String()] = &found[i]
			}
		}
	}

	v := cart.View(c, products)
	if owner.IsGuest() {
		v.CartToken = owner.GuestToken
	}
	return v
}
