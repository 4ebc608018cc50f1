package handler

import (
	"net/http"

	"abaya-store/internal/middleware"
	"abaya-store/internal/model"
	"abaya-store/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles cart requests for signed-in users and guest devices.
// Guests are identified by the X-Cart-Token header.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

func (h *CartHandler) respond(w http.ResponseWriter, view *model.CartView) {
	if view.CartToken != "" {
		w.Header().Set(middleware.CartTokenHeader, view.CartToken)
	}
	writeJSON(w, http.StatusOK, view)
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), cartOwner(r))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch cart", h.logger)
		return
	}
	h.respond(w, view)
}

// Add handles POST /api/cart requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}
	if req.ProductID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "Product ID required", h.logger)
		return
	}

	view, err := h.service.Add(r.Context(), cartOwner(r), &req)
	if err != nil {
		writeServiceError(w, err, "Failed to add to cart", h.logger)
		return
	}
	h.respond(w, view)
}

// Update handles PATCH /api/cart requests.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCartItemRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	view, err := h.service.Update(r.Context(), cartOwner(r), &req)
	if err != nil {
		writeServiceError(w, err, "Failed to update cart", h.logger)
		return
	}
	h.respond(w, view)
}

// Remove handles DELETE /api/cart requests. ?all=true empties the cart, otherwise the
// body names the line to remove.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	owner := cartOwner(r)

	if r.URL.Query().Get("all") == "true" {
		view, err := h.service.Clear(r.Context(), owner)
		if err != nil {
			writeServiceError(w, err, "Failed to clear cart", h.logger)
			return
		}
		h.respond(w, view)
		return
	}

	var req model.RemoveCartItemRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	view, err := h.service.Remove(r.Context(), owner, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to remove from cart", h.logger)
		return
	}
	h.respond(w, view)
}

// mergeRequest names the guest cart to fold into the caller's cart. The
// X-Cart-Token header is used when the body omits it.
type mergeRequest struct {
	CartToken string `json:"cartToken"`
}

// Merge handles POST /api/cart/merge requests. Requires a session.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeServiceError(w, model.ErrUnauthorised, "", h.logger)
		return
	}

	var req mergeRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}
	if req.CartToken == "" {
		req.CartToken = r.Header.Get(middleware.CartTokenHeader)
	}

	view, err := h.service.Merge(r.Context(), p.UserID, req.CartToken)
	if err != nil {
		writeServiceError(w, err, "Failed to merge cart", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
