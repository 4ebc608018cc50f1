package handler

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"abaya-store/internal/model"
	"abaya-store/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxUploadFields is the number of image<N> form fields read from a product form.
const maxUploadFields = 5

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products requests with filtering, sorting and pagination.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch products", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func parseProductFilter(r *http.Request) (model.ProductFilter, error) {
	q := r.URL.Query()
	filter := model.ProductFilter{
		Categories: q["category"],
		Search:     strings.TrimSpace(q.Get("search")),
		Featured:   q.Get("featured") == "true",
		Trending:   q.Get("trending") == "true",
		IsNew:      q.Get("isNew") == "true",
		Sale:       q.Get("sale") == "true",
		Colors:     q["colors"],
		Sizes:      q["sizes"],
		SortBy:     q.Get("sortBy"),
		SortAsc:    q.Get("sortOrder") == "asc",
	}

	for _, bound := range []struct {
		key string
		dst **decimal.Decimal
	}{{"minPrice", &filter.MinPrice}, {"maxPrice", &filter.MaxPrice}} {
		raw := q.Get(bound.key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid %s parameter", bound.key)
		}
		*bound.dst = &d
	}

	for _, n := range []struct {
		key string
		dst *int
	}{{"page", &filter.Page}, {"limit", &filter.Limit}} {
		raw := q.Get(n.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid %s parameter", n.key)
		}
		*n.dst = v
	}

	return filter, nil
}

// Get handles GET /api/products/{id} requests.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok, err := resourceID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Product ID is required", h.logger)
		return
	}
	if err != nil {
		writeServiceError(w, model.ErrProductNotFound, "", h.logger)
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch product", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Search handles GET /api/products/search?q= requests.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err, "Failed to search products", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Create handles POST /api/products requests. Admin only.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := decodeProductInput(r)
	if err != nil {
		writeServiceError(w, err, msgInvalidBody, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, "Failed to create product", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products?id= and PUT /api/products/{id} requests. Admin only.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok, err := resourceID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Product ID required", h.logger)
		return
	}
	if err != nil {
		writeServiceError(w, model.ErrProductNotFound, "", h.logger)
		return
	}

	input, err := decodeProductInput(r)
	if err != nil {
		writeServiceError(w, err, msgInvalidBody, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, err, "Failed to update product", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products?id= and DELETE /api/products/{id} requests. Admin only.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok, err := resourceID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Product ID required", h.logger)
		return
	}
	if err != nil {
		writeServiceError(w, model.ErrProductNotFound, "", h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "Failed to delete product", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Product deleted", "id": id})
}

// productJSON is the JSON form of a product submission. Absent fields stay nil.
type productJSON struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Images        []string         `json:"images"`
	Sizes         []string         `json:"sizes"`
	Colors        []string         `json:"colors"`
	Tags          []string         `json:"tags"`
	SKU           *string          `json:"sku"`
	Stock         *int             `json:"stock"`
	Featured      *bool            `json:"featured"`
	IsNew         *bool            `json:"isNew"`
	Trending      *bool            `json:"trending"`
	Sale          *bool            `json:"sale"`
}

// decodeProductInput reads a product submission from either a JSON body or a
// multipart form.
func decodeProductInput(r *http.Request) (*model.ProductInput, error) {
	if isMultipart(r) {
		return decodeProductForm(r)
	}

	var body productJSON
	if err := decodeJSON(r, &body, false); err != nil {
		return nil, model.NewValidationError(msgInvalidBody)
	}
	return &model.ProductInput{
		Name:          body.Name,
		Description:   body.Description,
		Category:      body.Category,
		Price:         body.Price,
		OriginalPrice: body.OriginalPrice,
		Images:        body.Images,
		Sizes:         body.Sizes,
		Colors:        body.Colors,
		Tags:          body.Tags,
		SKU:           body.SKU,
		Stock:         body.Stock,
		Featured:      body.Featured,
		IsNew:         body.IsNew,
		Trending:      body.Trending,
		Sale:          body.Sale,
	}, nil
}

// decodeProductForm reads the admin product form: image0..image4 files, colors and
// sizes as JSON arrays, tags comma separated, booleans as "true".
func decodeProductForm(r *http.Request) (*model.ProductInput, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, model.NewValidationError(msgInvalidBody)
	}
	form := r.MultipartForm

	input := &model.ProductInput{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
		Category:    formValue(form, "category"),
		SKU:         formValue(form, "sku"),
		Sizes:       jsonList(formValue(form, "sizes")),
		Colors:      jsonList(formValue(form, "colors")),
		Images:      jsonList(formValue(form, "images")),
		Featured:    formBool(form, "featured"),
		IsNew:       formBool(form, "isNew"),
		Trending:    formBool(form, "trending"),
		Sale:        formBool(form, "sale"),
	}

	if raw := formValue(form, "tags"); raw != nil {
		input.Tags = []string{}
		for _, t := range strings.Split(*raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				input.Tags = append(input.Tags, t)
			}
		}
	}

	var err error
	if input.Price, err = formDecimal(form, "price"); err != nil {
		return nil, model.NewValidationError("Price must be a number.")
	}
	if input.OriginalPrice, err = formDecimal(form, "originalPrice"); err != nil {
		return nil, model.NewValidationError("Original price must be a number.")
	}
	if raw := formValue(form, "stock"); raw != nil && strings.TrimSpace(*raw) != "" {
		stock, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			return nil, model.NewValidationError("Stock must be a whole number.")
		}
		input.Stock = &stock
	}

	for i := 0; i < maxUploadFields; i++ {
		fh := formFile(form, fmt.Sprintf("image%d", i))
		if fh == nil {
			continue
		}
		upload, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		input.Uploads = append(input.Uploads, *upload)
	}

	return input, nil
}

// jsonList decodes a JSON string array. Malformed input yields an empty list.
func jsonList(raw *string) []string {
	if raw == nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func formBool(form *multipart.Form, key string) *bool {
	v := formValue(form, key)
	if v == nil {
		return nil
	}
	b := *v == "true"
	return &b
}

// formDecimal parses a decimal field. A blank value counts as absent.
func formDecimal(form *multipart.Form, key string) (*decimal.Decimal, error) {
	v := formValue(form, key)
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*v))
	if err != nil {
		return nil, err
	}
	return &d, nil
}
