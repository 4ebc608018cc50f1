package handler

import (
	"net/http"

	"abaya-store/internal/middleware"
	"abaya-store/internal/model"
	"abaya-store/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests. Guests may check out without a session.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}
	if req.CartToken == "" {
		req.CartToken = r.Header.Get(middleware.CartTokenHeader)
	}

	order, err := h.service.PlaceOrder(r.Context(), principal(r), &req)
	if err != nil {
		writeServiceError(w, err, msgServerError, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.CheckoutResponse{Message: "Order placed successfully!", Order: order})
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch orders", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ListAll handles GET /api/orders/all requests. Admin only.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch orders", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// Get handles GET /api/orders/{id} requests.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok, err := resourceID(r)
	if !ok || err != nil {
		writeServiceError(w, model.ErrOrderNotFound, "", h.logger)
		return
	}

	order, err := h.service.Get(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

// UpdateStatus handles PATCH /api/orders/{id} requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok, err := resourceID(r)
	if !ok || err != nil {
		writeServiceError(w, model.ErrOrderNotFound, "", h.logger)
		return
	}

	var update model.OrderStatusUpdate
	if err := decodeJSON(r, &update, false); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), principal(r), id, &update)
	if err != nil {
		writeServiceError(w, err, "Failed to update order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}
