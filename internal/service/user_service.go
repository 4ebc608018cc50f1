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
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var looseEmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// userService implements UserService.
type userService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	sessions    repository.SessionRepository
	carts       CartService
	bcryptCost  int
	logger      zerolog.Logger
}

// NewUserService creates a new user service. A bcrypt cost outside the library's
// range falls back to bcrypt.DefaultCost.
func NewUserService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	sessions repository.SessionRepository,
	carts CartService,
	bcryptCost int,
	logger zerolog.Logger,
) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		userRepo:    userRepo,
		productRepo: productRepo,
		sessions:    sessions,
		carts:       carts,
		bcryptCost:  bcryptCost,
		logger:      logger.With().Str("service", "user").Logger(),
	}
}

// Signup registers an account. A passwordless record left by a guest checkout is
// upgraded in place so its order history stays attached.
func (s *userService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, model.NewValidationError("All fields are required.")
	}
	email := normalizeEmail(req.Email)
	if !emailPattern.MatchString(email) {
		return nil, model.NewValidationError("Please enter a valid email address.")
	}
	if len(req.Password) < minPasswordLength {
		return nil, model.NewValidationError("Password must be at least 6 characters.")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil && existing.PasswordHash != nil {
		return nil, model.ErrEmailInUse
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Name = strings.TrimSpace(req.Name)
		existing.PasswordHash = &hash
		existing.IsGuest = false
		if err := s.userRepo.Update(ctx, existing); err != nil {
			s.logger.Error().Err(err).Str("user_id", existing.ID.String()).Msg("failed to upgrade guest account")
			return nil, fmt.Errorf("failed to register user: %w", err)
		}
		s.logger.Info().Str("user_id", existing.ID.String()).Msg("guest account upgraded")
		return existing, nil
	}

	u := &model.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: &hash,
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, model.ErrEmailInUse) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("user registered")
	return u, nil
}

// GuestRegister resolves or creates a guest identity for an email address.
func (s *userService) GuestRegister(ctx context.Context, req *model.GuestRegisterRequest) (*model.GuestRegisterResponse, error) {
	if req == nil || !looseEmailPattern.MatchString(strings.TrimSpace(req.Email)) {
		return nil, model.NewValidationError("Valid email is required.")
	}
	email := normalizeEmail(req.Email)

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if u == nil {
		u = &model.User{
			ID:        uuid.New(),
			Name:      strings.SplitN(email, "@", 2)[0],
			Email:     email,
			IsGuest:   true,
			Role:      model.RoleUser,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.userRepo.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to register guest: %w", err)
		}
		s.logger.Info().Str("user_id", u.ID.String()).Msg("guest registered")
		return &model.GuestRegisterResponse{Email: u.Email, IsGuest: true, Created: true}, nil
	}

	if !u.IsGuest && u.PasswordHash == nil {
		u.IsGuest = true
		if err := s.userRepo.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to update guest: %w", err)
		}
	}

	return &model.GuestRegisterResponse{Email: u.Email, IsGuest: u.IsGuest, Created: false}, nil
}

// Signin checks credentials, opens a session and merges the presented guest cart.
func (s *userService) Signin(ctx context.Context, req *model.SigninRequest) (*model.SigninResponse, error) {
	if req == nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, model.ErrInvalidCredentials
	}

	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if u == nil || u.PasswordHash == nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug().Str("user_id", u.ID.String()).Msg("password mismatch")
		return nil, model.ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if req.CartToken != "" {
		if _, err := s.carts.Merge(ctx, u.ID, req.CartToken); err != nil {
			s.logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("guest cart not merged at sign-in")
		}
	}

	s.logger.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("user signed in")
	return &model.SigninResponse{Token: token, User: u}, nil
}

// Signout revokes a session.
func (s *userService) Signout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its principal.
func (s *userService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	p, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	return p, nil
}

func (s *userService) getUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, model.ErrUserNotFound
	}
	return u, nil
}

// Profile returns the account page fields.
func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileOf(u), nil
}

// UpdateProfile applies the non-empty fields of update.
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, update *model.ProfileUpdate) (*model.Profile, error) {
	if update == nil {
		return nil, model.NewValidationError("Invalid request body")
	}

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(update.Name); name != "" {
		u.Name = name
	}
	if strings.TrimSpace(update.Email) != "" {
		email := normalizeEmail(update.Email)
		if !emailPattern.MatchString(email) {
			return nil, model.NewValidationError("Please enter a valid email address.")
		}
		u.Email = email
	}
	if update.Phone != nil {
		u.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Addresses != nil {
		u.Addresses = update.Addresses
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		if errors.Is(err, model.ErrEmailInUse) || errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profileOf(u), nil
}

// ChangePassword replaces the password after checking the current one.
func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, req *model.PasswordChangeRequest) error {
	if req == nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return model.NewValidationError("Current and new password are required.")
	}

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.PasswordHash == nil {
		return model.NewValidationError("No password set for this account.")
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return model.NewValidationError("Current password is incorrect.")
	}
	if len(req.NewPassword) < minPasswordLength {
		return model.NewValidationError("New password must be at least 6 characters.")
	}

	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = &hash
	if err := s.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("password changed")
	return nil
}

// Wishlist returns the wishlisted products in the order they were added.
// An unknown user has an empty wishlist.
func (s *userService) Wishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil || len(u.Wishlist) == 0 {
		return []model.Product{}, nil
	}

	found, err := s.productRepo.GetByIDs(ctx, u.Wishlist)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist products: %w", err)
	}

	byID := make(map[uuid.UUID]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(found))
	for _, id := range u.Wishlist {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

// AddToWishlist adds a product once.
func (s *userService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}

	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}

	if err := s.userRepo.AddToWishlist(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.Wishlist(ctx, userID)
}

// ReplaceWishlist replaces the whole wishlist.
func (s *userService) ReplaceWishlist(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]model.Product, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetWishlist(ctx, userID, productIDs); err != nil {
		return nil, err
	}
	return s.Wishlist(ctx, userID)
}

// RemoveFromWishlist removes one product, or clears the wishlist when productID is nil.
func (s *userService) RemoveFromWishlist(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) ([]model.Product, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}

	var err error
	if productID == nil {
		err = s.userRepo.SetWishlist(ctx, userID, nil)
	} else {
		err = s.userRepo.RemoveFromWishlist(ctx, userID, *productID)
	}
	if err != nil {
		return nil, err
	}
	return s.Wishlist(ctx, userID)
}

// EnsureAdmin creates the bootstrap admin, or promotes an existing account with that
// email. An existing password is kept.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	if u == nil {
		if len(password) < minPasswordLength {
			return fmt.Errorf("bootstrap admin password must be at least %d characters", minPasswordLength)
		}
		hash, err := s.hash(password)
		if err != nil {
			return err
		}
		u = &model.User{
			ID:           uuid.New(),
			Name:         "Admin",
			Email:        email,
			PasswordHash: &hash,
			Role:         model.RoleAdmin,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.userRepo.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		s.logger.Info().Str("user_id", u.ID.String()).Msg("bootstrap admin created")
		return nil
	}

	if u.IsAdmin() && u.PasswordHash != nil {
		return nil
	}

	u.Role = model.RoleAdmin
	u.IsGuest = false
	if u.PasswordHash == nil {
		if len(password) < minPasswordLength {
			return fmt.Errorf("bootstrap admin password must be at least %d characters", minPasswordLength)
		}
		hash, err := s.hash(password)
		if err != nil {
			return err
		}
		u.PasswordHash = &hash
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return fmt.Errorf("failed to promote admin: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("account promoted to admin")
	return nil
}

func (s *userService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func profileOf(u *model.User) *model.Profile {
	addresses := u.Addresses
	if addresses == nil {
		addresses = []model.Address{}
	}
	return &model.Profile{Name: u.Name, Email: u.Email, Phone: u.Phone, Addresses: addresses}
}
