package integration

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"abaya-store/internal/middleware"
	"abaya-store/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	method    string
	path      string
	body      interface{}
	token     string
	cartToken string
}

func do(t *testing.T, h http.Handler, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.cartToken != "" {
		req.Header.Set(middleware.CartTokenHeader, r.cartToken)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func signin(t *testing.T, h http.Handler, email, password, cartToken string) string {
	t.Helper()
	w := do(t, h, request{
		method:    http.MethodPost,
		path:      "/api/auth/signin",
		body:      model.SigninRequest{Email: email, Password: password},
		cartToken: cartToken,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp model.SigninResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func checkout(email string, items ...model.CheckoutItemRequest) model.CheckoutRequest {
	return model.CheckoutRequest{
		FirstName:     "Amina",
		LastName:      "Khan",
		Email:         email,
		Phone:         "0300 1234567",
		Address:       "12 Garden Road",
		City:          "Lahore",
		Province:      "Punjab",
		ZipCode:       "54000",
		Country:       "Pakistan",
		PaymentMethod: model.PaymentMethodCOD,
		Items:         items,
	}
}

func TestStorefront_Integration(t *testing.T) {
	env := SetupTestEnv(t)
	h := env.Handler

	t.Run("guest cart follows the customer through sign-in and checkout", func(t *testing.T) {
		env.CleanupDB(t)
		abaya := env.SeedProduct(t, "classic-nida", 4500, 3)

		// Guest adds two units and is issued a cart token.
		qty := 2
		w := do(t, h, request{
			method: http.MethodPost,
			path:   "/api/cart",
			body:   model.AddToCartRequest{ProductID: abaya.ID, Quantity: &qty, Size: "M", Color: "Black"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		guestToken := w.Header().Get(middleware.CartTokenHeader)
		require.NotEmpty(t, guestToken)

		// Register and sign in presenting the guest cart.
		w = do(t, h, request{
			method: http.MethodPost,
			path:   "/api/auth/signup",
			body:   model.SignupRequest{Name: "Amina", Email: "amina@example.com", Password: "secret1"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		token := signin(t, h, "amina@example.com", "secret1", guestToken)

		var cart model.CartView
		w = do(t, h, request{method: http.MethodGet, path: "/api/cart", token: token})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &cart)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, "9000", cart.Total.String())

		var guestCart model.CartView
		w = do(t, h, request{method: http.MethodGet, path: "/api/cart", cartToken: guestToken})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &guestCart)
		assert.Empty(t, guestCart.Items, "guest cart is consumed by the merge")

		// Check out the merged cart.
		w = do(t, h, request{
			method: http.MethodPost,
			path:   "/api/orders",
			token:  token,
			body: checkout("amina@example.com", model.CheckoutItemRequest{
				ProductID: abaya.ID, Quantity: 2, Size: "M", Color: "Black",
			}),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var placed model.CheckoutResponse
		decode(t, w, &placed)
		assert.Equal(t, model.OrderStatusPending, placed.Order.OrderStatus)
		assert.Equal(t, "9000", placed.Order.Total.String())

		var detail model.ProductDetail
		w = do(t, h, request{method: http.MethodGet, path: "/api/products/" + abaya.ID.String()})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &detail)
		assert.Equal(t, 1, detail.Product.Stock)

		w = do(t, h, request{method: http.MethodGet, path: "/api/cart", token: token})
		decode(t, w, &cart)
		assert.Empty(t, cart.Items, "cart is cleared after checkout")

		var mine struct {
			Orders []model.Order `json:"orders"`
		}
		w = do(t, h, request{method: http.MethodGet, path: "/api/orders", token: token})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &mine)
		require.Len(t, mine.Orders, 1)

		// Customers cannot see the full order book.
		w = do(t, h, request{method: http.MethodGet, path: "/api/orders/all", token: token})
		assert.Equal(t, http.StatusForbidden, w.Code)

		// Admin walks the order forward; skipping a state is rejected.
		adminToken := signin(t, h, adminEmail, adminPassword, "")
		orderPath := "/api/orders/" + placed.Order.ID.String()

		w = do(t, h, request{method: http.MethodPatch, path: orderPath, token: adminToken, body: map[string]string{"orderStatus": "processing"}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, h, request{method: http.MethodPatch, path: orderPath, token: adminToken, body: map[string]string{"orderStatus": "delivered"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		assert.Eventually(t, func() bool {
			return len(env.Mail.Recipients()) == 3
		}, 5*time.Second, 50*time.Millisecond, "confirmation, admin and status mails are sent")
		assert.ElementsMatch(t, []string{"amina@example.com", adminEmail, "amina@example.com"}, env.Mail.Recipients())
	})

	t.Run("checkout beyond stock is rejected", func(t *testing.T) {
		env.CleanupDB(t)
		abaya := env.SeedProduct(t, "last-piece", 6000, 1)

		w := do(t, h, request{
			method: http.MethodPost,
			path:   "/api/orders",
			body:   checkout("guest@example.com", model.CheckoutItemRequest{ProductID: abaya.ID, Quantity: 2}),
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp model.ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, model.ErrCodeInsufficientStock, resp.Code)
	})

	t.Run("admin manages the catalogue", func(t *testing.T) {
		env.CleanupDB(t)
		adminToken := signin(t, h, adminEmail, adminPassword, "")

		w := do(t, h, request{
			method: http.MethodPost,
			path:   "/api/products",
			token:  adminToken,
			body: map[string]interface{}{
				"name":        "Pleated Maxi",
				"description": "Flowing chiffon maxi",
				"category":    model.CategoryMaxiDresses,
				"price":       "7800",
				"images":      []string{"https://cdn.example.com/maxi.jpg"},
				"sizes":       []string{"M"},
				"stock":       4,
				"featured":    true,
			},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created model.Product
		decode(t, w, &created)
		assert.True(t, created.InStock)

		var page model.ProductPage
		w = do(t, h, request{method: http.MethodGet, path: "/api/products?category=maxi-dresses&featured=true"})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &page)
		require.Len(t, page.Products, 1)
		assert.Equal(t, created.ID, page.Products[0].ID)

		w = do(t, h, request{method: http.MethodDelete, path: "/api/products/" + created.ID.String(), token: adminToken})
		assert.Equal(t, http.StatusOK, w.Code)

		w = do(t, h, request{method: http.MethodGet, path: "/api/products/" + created.ID.String()})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("product review refreshes the rating", func(t *testing.T) {
		env.CleanupDB(t)
		abaya := env.SeedProduct(t, "reviewed", 5000, 5)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("rating", "4"))
		require.NoError(t, mw.WriteField("comment", "Lovely drape"))
		require.NoError(t, mw.WriteField("name", "Maryam"))
		require.NoError(t, mw.WriteField("product", abaya.ID.String()))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/reviews", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = do(t, h, request{method: http.MethodPost, path: "/api/reviews", body: model.TestimonialRequest{Rating: 5, Comment: "Fast delivery"}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var detail model.ProductDetail
		w = do(t, h, request{method: http.MethodGet, path: "/api/products/" + abaya.ID.String()})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &detail)
		assert.Equal(t, 1, detail.Product.ReviewCount)
		assert.InDelta(t, 4.0, detail.Product.Rating, 0.001)

		var reviews struct {
			Reviews []model.Review `json:"reviews"`
		}
		w = do(t, h, request{method: http.MethodGet, path: "/api/reviews?product=" + abaya.ID.String()})
		decode(t, w, &reviews)
		require.Len(t, reviews.Reviews, 1)
		assert.Equal(t, "Maryam", reviews.Reviews[0].AuthorName)
	})
}
