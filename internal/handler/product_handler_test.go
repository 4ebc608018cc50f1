package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductPage), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductDetail), args.Error(1)
}

func (m *MockProductService) Search(ctx context.Context, q string) ([]model.ProductSummary, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductSummary), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, input *model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestProductHandler_List(t *testing.T) {
	logger := zerolog.Nop()
	minPrice := decimal.NewFromInt(2000)

	tests := []struct {
		name           string
		queryParams    string
		filter         model.ProductFilter
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Defaults",
			queryParams:    "",
			filter:         model.ProductFilter{},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:        "Filters and paging",
			queryParams: "?category=abayas&category=maxi-dresses&minPrice=2000&featured=true&colors=Black&sortBy=price&sortOrder=asc&page=2&limit=6",
			filter: model.ProductFilter{
				Categories: []string{"abayas", "maxi-dresses"},
				MinPrice:   &minPrice,
				Featured:   true,
				Colors:     []string{"Black"},
				SortBy:     "price",
				SortAsc:    true,
				Page:       2,
				Limit:      6,
			},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Invalid page parameter",
			queryParams:    "?page=two",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid price parameter",
			queryParams:    "?maxPrice=cheap",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Service error",
			filter:         model.ProductFilter{},
			mockError:      errors.New("database error"),
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				var page *model.ProductPage
				if tt.mockError == nil {
					page = &model.ProductPage{Products: []model.Product{}, Page: 1, Limit: 12}
				}
				want := tt.filter
				mockService.On("List", mock.Anything, mock.MatchedBy(func(f model.ProductFilter) bool {
					if (f.MinPrice == nil) != (want.MinPrice == nil) {
						return false
					}
					if f.MinPrice != nil && !f.MinPrice.Equal(*want.MinPrice) {
						return false
					}
					expected := want
					expected.MinPrice, f.MinPrice = nil, nil
					return assert.ObjectsAreEqual(expected, f)
				})).Return(page, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/products"+tt.queryParams, nil)
			w := httptest.NewRecorder()

			handler.List(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductHandler_Get(t *testing.T) {
	logger := zerolog.Nop()
	id := uuid.New()

	tests := []struct {
		name           string
		vars           map[string]string
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{"Success", map[string]string{"id": id.String()}, nil, http.StatusOK, true},
		{"Not found", map[string]string{"id": id.String()}, model.ErrProductNotFound, http.StatusNotFound, true},
		{"Malformed ID", map[string]string{"id": "nope"}, nil, http.StatusNotFound, false},
		{"Missing ID", map[string]string{}, nil, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				var detail *model.ProductDetail
				if tt.mockError == nil {
					detail = &model.ProductDetail{Product: model.Product{ID: id, Name: "Classic Abaya"}, RelatedProducts: []model.Product{}}
				}
				mockService.On("Get", mock.Anything, id).Return(detail, tt.mockError)
			}

			req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/products/x", nil), tt.vars)
			w := httptest.NewRecorder()

			handler.Get(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp model.ProductDetail
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "Classic Abaya", resp.Product.Name)
			}
		})
	}
}

func TestProductHandler_Search(t *testing.T) {
	mockService := new(MockProductService)
	handler := NewProductHandler(mockService, zerolog.Nop())
	mockService.On("Search", mock.Anything, "black").Return([]model.ProductSummary{{ID: uuid.New(), Name: "Black Abaya"}}, nil)

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodGet, "/api/products/search?q=black", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Products []model.ProductSummary `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Products, 1)
}

func TestProductHandler_CreateJSON(t *testing.T) {
	mockService := new(MockProductService)
	handler := NewProductHandler(mockService, zerolog.Nop())

	mockService.On("Create", mock.Anything, mock.MatchedBy(func(in *model.ProductInput) bool {
		return *in.Name == "Classic Abaya" &&
			in.Price.Equal(decimal.NewFromInt(4500)) &&
			*in.Stock == 3 &&
			*in.Featured &&
			in.IsNew == nil &&
			len(in.Images) == 1
	})).Return(&model.Product{ID: uuid.New(), Name: "Classic Abaya"}, nil)

	body := `{"name":"Classic Abaya","description":"Nida","category":"abayas","price":4500,"stock":3,"featured":true,"images":["https://cdn.example.com/a.jpg"]}`
	w := httptest.NewRecorder()
	handler.Create(w, httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestProductHandler_CreateMultipart(t *testing.T) {
	mockService := new(MockProductService)
	handler := NewProductHandler(mockService, zerolog.Nop())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"name":     "Linen Maxi",
		"category": "maxi-dresses",
		"price":    "3800.50",
		"stock":    "7",
		"colors":   `["Sand","Olive"]`,
		"sizes":    "not json",
		"tags":     "linen, summer ,,",
		"sale":     "true",
		"trending": "false",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image0"; filename="front.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	mockService.On("Create", mock.Anything, mock.MatchedBy(func(in *model.ProductInput) bool {
		return *in.Name == "Linen Maxi" &&
			in.Price.Equal(decimal.RequireFromString("3800.50")) &&
			*in.Stock == 7 &&
			assert.ObjectsAreEqual([]string{"Sand", "Olive"}, in.Colors) &&
			len(in.Sizes) == 0 && in.Sizes != nil &&
			assert.ObjectsAreEqual([]string{"linen", "summer"}, in.Tags) &&
			*in.Sale && !*in.Trending && in.Featured == nil &&
			len(in.Uploads) == 1 && in.Uploads[0].Filename == "front.png" && in.Uploads[0].ContentType == "image/png"
	})).Return(&model.Product{ID: uuid.New()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestProductHandler_CreateRejected(t *testing.T) {
	tests := []struct {
		name          string
		contentType   string
		body          string
		mockError     error
		expectService bool
		expectedError string
	}{
		{"Malformed JSON", "application/json", "{", nil, false, "Invalid request body"},
		{"Service validation", "application/json", `{"category":"shoes"}`, model.NewValidationError("Invalid category. Must be one of: abayas, maxi-dresses"), true, "Invalid category. Must be one of: abayas, maxi-dresses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, zerolog.Nop())
			if tt.expectService {
				mockService.On("Create", mock.Anything, mock.Anything).Return(nil, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.expectedError, decodeError(t, w).Error)
		})
	}
}

func TestProductHandler_UpdateAndDelete(t *testing.T) {
	logger := zerolog.Nop()
	id := uuid.New()

	t.Run("Update by query id", func(t *testing.T) {
		mockService := new(MockProductService)
		handler := NewProductHandler(mockService, logger)
		mockService.On("Update", mock.Anything, id, mock.MatchedBy(func(in *model.ProductInput) bool {
			return *in.Stock == 0 && in.Name == nil
		})).Return(&model.Product{ID: id}, nil)

		req := httptest.NewRequest(http.MethodPut, "/api/products?id="+id.String(), bytes.NewBufferString(`{"stock":0}`))
		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Update without id", func(t *testing.T) {
		mockService := new(MockProductService)
		handler := NewProductHandler(mockService, logger)

		w := httptest.NewRecorder()
		handler.Update(w, httptest.NewRequest(http.MethodPut, "/api/products", bytes.NewBufferString(`{}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Product ID required", decodeError(t, w).Error)
	})

	t.Run("Delete", func(t *testing.T) {
		mockService := new(MockProductService)
		handler := NewProductHandler(mockService, logger)
		mockService.On("Delete", mock.Anything, id).Return(nil)

		req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/api/products/"+id.String(), nil), map[string]string{"id": id.String()})
		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Product deleted", resp["message"])
		assert.Equal(t, id.String(), resp["id"])
	})

	t.Run("Delete missing", func(t *testing.T) {
		mockService := new(MockProductService)
		handler := NewProductHandler(mockService, logger)
		mockService.On("Delete", mock.Anything, id).Return(model.ErrProductNotFound)

		w := httptest.NewRecorder()
		handler.Delete(w, httptest.NewRequest(http.MethodDelete, "/api/products?id="+id.String(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
