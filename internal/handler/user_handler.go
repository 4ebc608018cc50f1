package handler

import (
	"net/http"

	"abaya-store/internal/middleware"
	"abaya-store/internal/model"
	"abaya-store/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler handles authentication, profile and wishlist requests.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("handler", "user").Logger(),
	}
}

// Signup handles POST /api/auth/signup requests.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	user, err := h.service.Signup(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, msgServerError, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "User registered successfully.", "user": user})
}

// GuestRegister handles POST /api/auth/guest-register requests.
func (h *UserHandler) GuestRegister(w http.ResponseWriter, r *http.Request) {
	var req model.GuestRegisterRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	resp, err := h.service.GuestRegister(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, msgServerError, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Signin handles POST /api/auth/signin requests. The guest cart named in the body,
// or in the X-Cart-Token header, is merged into the account.
func (h *UserHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req model.SigninRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}
	if req.CartToken == "" {
		req.CartToken = r.Header.Get(middleware.CartTokenHeader)
	}

	resp, err := h.service.Signin(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, msgServerError, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Signout handles POST /api/auth/signout requests.
func (h *UserHandler) Signout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Signout(r.Context(), middleware.BearerToken(r)); err != nil {
		writeServiceError(w, err, msgServerError, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

// Profile handles GET /api/user requests.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeServiceError(w, model.ErrUnauthorised, "", h.logger)
		return
	}

	profile, err := h.service.Profile(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch profile", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/user requests.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeServiceError(w, model.ErrUnauthorised, "", h.logger)
		return
	}

	var update model.ProfileUpdate
	if err := decodeJSON(r, &update, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), p.UserID, &update)
	if err != nil {
		writeServiceError(w, err, "Failed to update profile", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// ChangePassword handles PATCH /api/user requests.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeServiceError(w, model.ErrUnauthorised, "", h.logger)
		return
	}

	var req model.PasswordChangeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	if err := h.service.ChangePassword(r.Context(), p.UserID, &req); err != nil {
		writeServiceError(w, err, "Failed to update password", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully."})
}

// Wishlist handles GET /api/wishlist requests. Anonymous callers get an empty list.
func (h *UserHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeJSON(w, http.StatusOK, model.WishlistResponse{Wishlist: []model.Product{}})
		return
	}

	products, err := h.service.Wishlist(r.Context(), p.UserID)
	h.respondWishlist(w, products, err)
}

// AddToWishlist handles POST /api/wishlist requests.
func (h *UserHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeServiceError(w, model.ErrUnauthorised, "", h.logger)
		return
	}

	var req model.WishlistRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}
	if req.ProductID == nil {
		writeError(w, http.StatusBadRequest, "Product ID required", h.logger)
		return
	}

	products, err := h.service.AddToWishlist(r.Context(), p.UserID, *req.ProductID)
	h.respondWishlist(w, products, err)
}

// ReplaceWishlist handles PUT /api/wishlist requests.
func (h *UserHandler) ReplaceWishlist(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeServiceError(w, model.ErrUnauthorised, "", h.logger)
		return
	}

	var req model.WishlistReplaceRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	products, err := h.service.ReplaceWishlist(r.Context(), p.UserID, req.ProductIDs)
	h.respondWishlist(w, products, err)
}

// RemoveFromWishlist handles DELETE /api/wishlist requests. Without a productId the
// wishlist is cleared.
func (h *UserHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeServiceError(w, model.ErrUnauthorised, "", h.logger)
		return
	}

	var req model.WishlistRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	products, err := h.service.RemoveFromWishlist(r.Context(), p.UserID, req.ProductID)
	h.respondWishlist(w, products, err)
}

func (h *UserHandler) respondWishlist(w http.ResponseWriter, products []model.Product, err error) {
	if err != nil {
		writeServiceError(w, err, "Failed to update wishlist", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, model.WishlistResponse{Wishlist: products})
}
