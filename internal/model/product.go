package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product categories.
const (
	CategoryAbayas      = "abayas"
	CategoryMaxiDresses = "maxi-dresses"
)

// MaxProductImages is the upper bound on images attached to a product.
const MaxProductImages = 5

// Categories lists every valid product category in display order.
var Categories = []string{CategoryAbayas, CategoryMaxiDresses}

// IsValidCategory reports whether c is a known category.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Product represents a garment in the catalogue.
type Product struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	Description   string           `json:"description" db:"description"`
	Category      string           `json:"category" db:"category"`
	Price         decimal.Decimal  `json:"price" db:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty" db:"original_price"`
	Images        []string         `json:"images" db:"images"`
	Sizes         []string         `json:"sizes" db:"sizes"`
	Colors        []string         `json:"colors" db:"colors"`
	Tags          []string         `json:"tags" db:"tags"`
	SKU           string           `json:"sku,omitempty" db:"sku"`
	Stock         int              `json:"stock" db:"stock"`
	Featured      bool             `json:"featured" db:"featured"`
	IsNew         bool             `json:"isNew" db:"is_new"`
	Trending      bool             `json:"trending" db:"trending"`
	Sale          bool             `json:"sale" db:"sale"`
	InStock       bool             `json:"inStock" db:"in_stock"`
	Rating        float64          `json:"rating" db:"rating"`
	ReviewCount   int              `json:"reviewCount" db:"review_count"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
}

// ProductSummary is the trimmed projection returned by typeahead search.
type ProductSummary struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Images   []string        `json:"images"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// ProductFilter narrows a catalogue listing.
type ProductFilter struct {
	Categories []string
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Featured   bool
	Trending   bool
	IsNew      bool
	Sale       bool
	Colors     []string
	Sizes      []string
	SortBy     string
	SortAsc    bool
	Page       int
	Limit      int
}

// ProductPage is one page of a catalogue listing.
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	Limit      int       `json:"limit"`
}

// ProductDetail is a product together with products from the same category.
type ProductDetail struct {
	Product         Product   `json:"product"`
	RelatedProducts []Product `json:"relatedProducts"`
}

// ProductInput carries admin-supplied product fields. Nil pointers mean "not provided".
type ProductInput struct {
	Name          *string
	Description   *string
	Category      *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Images        []string
	Sizes         []string
	Colors        []string
	Tags          []string
	SKU           *string
	Stock         *int
	Featured      *bool
	IsNew         *bool
	Trending      *bool
	Sale          *bool
	Uploads       []ImageUpload
}

// ImageUpload is an image file received with a multipart request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
