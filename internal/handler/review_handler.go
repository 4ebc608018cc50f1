package handler

import (
	"net/http"
	"strconv"
	"strings"

	"abaya-store/internal/model"
	"abaya-store/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReviewHandler handles testimonials and product reviews.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("handler", "review").Logger(),
	}
}

// List handles GET /api/reviews[?product=] requests.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	var productID *uuid.UUID
	if raw := r.URL.Query().Get("product"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": []model.Review{}})
			return
		}
		productID = &id
	}

	reviews, err := h.service.List(r.Context(), productID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch reviews", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

// Create handles POST /api/reviews requests. A multipart form is a product review
// with an optional image; a JSON body is a testimonial.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		review *model.Review
		err    error
	)

	if isMultipart(r) {
		var req *model.ProductReviewRequest
		req, err = decodeProductReview(r)
		if err == nil {
			review, err = h.service.CreateProductReview(r.Context(), req)
		}
	} else {
		var req model.TestimonialRequest
		if decodeErr := decodeJSON(r, &req, false); decodeErr != nil {
			writeError(w, http.StatusBadRequest, msgInvalidBody, h.logger)
			return
		}
		review, err = h.service.CreateTestimonial(r.Context(), &req)
	}

	if err != nil {
		writeServiceError(w, err, "Failed to submit review", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"review": review})
}

func decodeProductReview(r *http.Request) (*model.ProductReviewRequest, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, model.NewValidationError(msgInvalidBody)
	}
	form := r.MultipartForm

	value := func(key string) string {
		if v := formValue(form, key); v != nil {
			return *v
		}
		return ""
	}

	// An unparsable rating is reported by the service as an invalid rating.
	rating, _ := strconv.Atoi(strings.TrimSpace(value("rating")))

	req := &model.ProductReviewRequest{
		Rating:    rating,
		Comment:   value("comment"),
		Name:      value("name"),
		Email:     value("email"),
		ProductID: value("product"),
	}

	if fh := formFile(form, "image"); fh != nil {
		upload, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		req.Image = upload
	}
	return req, nil
}
