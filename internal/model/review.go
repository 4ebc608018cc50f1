package model

import (
	"time"

	"github.com/google/uuid"
)

// Review is a product review or, without a product, a site-wide testimonial.
type Review struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ProductID   *uuid.UUID `json:"product,omitempty" db:"product_id"`
	AuthorName  string     `json:"name" db:"author_name"`
	AuthorEmail string     `json:"email,omitempty" db:"author_email"`
	Rating      int        `json:"rating" db:"rating"`
	Comment     string     `json:"comment" db:"comment"`
	Image       string     `json:"image,omitempty" db:"image"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// IsTestimonial reports whether the review is not attached to a product.
func (r *Review) IsTestimonial() bool {
	return r.ProductID == nil
}

// TestimonialRequest is the JSON variant of a review submission.
type TestimonialRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// ProductReviewRequest is the multipart variant of a review submission.
type ProductReviewRequest struct {
	Rating    int
	Comment   string
	Name      string
	Email     string
	ProductID string
	Image     *ImageUpload
}

// ProductRating is the aggregate recomputed after a product review.
type ProductRating struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}
