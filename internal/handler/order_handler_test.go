package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"abaya-store/internal/middleware"
	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) orders(args mock.Arguments) ([]model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, p *model.Principal, req *model.CheckoutRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, p, req))
}

func (m *MockOrderService) List(ctx context.Context, p *model.Principal) ([]model.Order, error) {
	return m.orders(m.Called(ctx, p))
}

func (m *MockOrderService) ListAll(ctx context.Context, p *model.Principal) ([]model.Order, error) {
	return m.orders(m.Called(ctx, p))
}

func (m *MockOrderService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, p, id))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, p *model.Principal, id uuid.UUID, update *model.OrderStatusUpdate) (*model.Order, error) {
	return m.order(m.Called(ctx, p, id, update))
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func asUser(req *http.Request, p *model.Principal) *http.Request {
	if p == nil {
		return req
	}
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestOrderHandler_Create(t *testing.T) {
	logger := zerolog.Nop()
	customer := &model.Principal{UserID: uuid.New(), Role: model.RoleUser}

	placed := &model.Order{
		ID:          uuid.New(),
		OrderStatus: model.OrderStatusPending,
		Total:       decimal.NewFromInt(9000),
	}

	tests := []struct {
		name           string
		principal      *model.Principal
		body           interface{}
		cartHeader     string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectService  bool
		expectedError  string
	}{
		{
			name:           "Guest checkout",
			body:           &model.CheckoutRequest{FirstName: "Amina"},
			cartHeader:     "guest-token",
			mockReturn:     placed,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Signed-in checkout",
			principal:      customer,
			body:           &model.CheckoutRequest{FirstName: "Amina"},
			mockReturn:     placed,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Validation error",
			body:           &model.CheckoutRequest{},
			mockError:      model.NewValidationError("FirstName is required."),
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
			expectedError:  "FirstName is required.",
		},
		{
			name:           "Product not found",
			body:           &model.CheckoutRequest{FirstName: "Amina"},
			mockError:      model.NewNotFoundError("Product not found: abc"),
			expectedStatus: http.StatusNotFound,
			expectService:  true,
			expectedError:  "Product not found: abc",
		},
		{
			name:           "Insufficient stock",
			body:           &model.CheckoutRequest{FirstName: "Amina"},
			mockError:      model.NewInsufficientStockError("Classic Abaya"),
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
			expectedError:  "Insufficient stock for Classic Abaya",
		},
		{
			name:           "Unexpected failure",
			body:           &model.CheckoutRequest{FirstName: "Amina"},
			mockError:      errors.New("connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
			expectedError:  "Server error. Please try again later.",
		},
		{
			name:           "Invalid JSON",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, logger)

			if tt.expectService {
				mockService.On("PlaceOrder", mock.Anything, tt.principal, mock.MatchedBy(func(req *model.CheckoutRequest) bool {
					return req.CartToken == tt.cartHeader
				})).Return(tt.mockReturn, tt.mockError)
			}

			var body *bytes.Buffer
			if s, ok := tt.body.(string); ok {
				body = bytes.NewBufferString(s)
			} else {
				body = jsonBody(t, tt.body)
			}
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", body), tt.principal)
			if tt.cartHeader != "" {
				req.Header.Set(middleware.CartTokenHeader, tt.cartHeader)
			}
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w).Error)
			} else {
				var resp model.CheckoutResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "Order placed successfully!", resp.Message)
				assert.Equal(t, placed.ID, resp.Order.ID)
			}

			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOrderHandler_Get(t *testing.T) {
	logger := zerolog.Nop()
	customer := &model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	orderID := uuid.New()

	tests := []struct {
		name           string
		orderID        string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{"Success", orderID.String(), &model.Order{ID: orderID}, nil, http.StatusOK, true},
		{"Not visible", orderID.String(), nil, model.ErrOrderNotFound, http.StatusNotFound, true},
		{"Malformed ID", "invalid-uuid", nil, nil, http.StatusNotFound, false},
		{"Service error", orderID.String(), nil, errors.New("database error"), http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, logger)

			if tt.expectService {
				mockService.On("Get", mock.Anything, customer, orderID).Return(tt.mockReturn, tt.mockError)
			}

			req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/"+tt.orderID, nil), customer)
			req = mux.SetURLVars(req, map[string]string{"id": tt.orderID})
			w := httptest.NewRecorder()

			handler.Get(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp struct {
					Order model.Order `json:"order"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, orderID, resp.Order.ID)
			}
			if !tt.expectService {
				mockService.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOrderHandler_ListAndListAll(t *testing.T) {
	logger := zerolog.Nop()
	admin := &model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	customer := &model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	orders := []model.Order{{ID: uuid.New()}, {ID: uuid.New()}}

	mockService := new(MockOrderService)
	handler := NewOrderHandler(mockService, logger)
	mockService.On("List", mock.Anything, customer).Return(orders[:1], nil)
	mockService.On("ListAll", mock.Anything, admin).Return(orders, nil)
	mockService.On("ListAll", mock.Anything, customer).Return(nil, model.ErrUnauthorised)

	var resp struct {
		Orders []model.Order `json:"orders"`
	}

	w := httptest.NewRecorder()
	handler.List(w, asUser(httptest.NewRequest(http.MethodGet, "/api/orders", nil), customer))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 1)

	w = httptest.NewRecorder()
	handler.ListAll(w, asUser(httptest.NewRequest(http.MethodGet, "/api/orders/all", nil), admin))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 2)

	w = httptest.NewRecorder()
	handler.ListAll(w, asUser(httptest.NewRequest(http.MethodGet, "/api/orders/all", nil), customer))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mockService.AssertExpectations(t)
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	logger := zerolog.Nop()
	admin := &model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	orderID := uuid.New()
	shipped := model.OrderStatusShipped

	tests := []struct {
		name           string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{"Success", &model.Order{ID: orderID, OrderStatus: shipped}, nil, http.StatusOK, ""},
		{"Invalid transition", nil, model.NewDomainError(model.ErrCodeInvalidTransition, "Cannot change order status from delivered to shipped."), http.StatusBadRequest, model.ErrCodeInvalidTransition},
		{"Forbidden", nil, model.ErrForbidden, http.StatusForbidden, model.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, logger)
			mockService.On("UpdateStatus", mock.Anything, admin, orderID, &model.OrderStatusUpdate{OrderStatus: &shipped}).
				Return(tt.mockReturn, tt.mockError)

			req := httptest.NewRequest(http.MethodPatch, "/api/orders/"+orderID.String(), bytes.NewBufferString(`{"orderStatus":"shipped"}`))
			req = mux.SetURLVars(asUser(req, admin), map[string]string{"id": orderID.String()})
			w := httptest.NewRecorder()

			handler.UpdateStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			}
			mockService.AssertExpectations(t)
		})
	}
}
