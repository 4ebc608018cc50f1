package router

import (
	"net/http"
	"strings"

	"abaya-store/internal/handler"
	"abaya-store/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Products *handler.ProductHandler
	Carts    *handler.CartHandler
	Orders   *handler.OrderHandler
	Reviews  *handler.ReviewHandler
	Users    *handler.UserHandler
}

// Uploads serves locally stored images. Disabled when Dir is empty or Path is not a
// local path.
type Uploads struct {
	Dir  string
	Path string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth middleware.Authenticator, uploads Uploads, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = jsonStatus(http.StatusNotFound, `{"error": "Not found"}`)
	r.MethodNotAllowedHandler = jsonStatus(http.StatusMethodNotAllowed, `{"error": "Method not allowed"}`)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	authed := func(fn http.HandlerFunc) http.Handler { return middleware.RequireAuth(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return middleware.RequireAdmin(fn) }

	// Accounts
	api.HandleFunc("/auth/signup", h.Users.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/guest-register", h.Users.GuestRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", h.Users.Signin).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", h.Users.Signout).Methods(http.MethodPost)
	api.Handle("/user", authed(h.Users.Profile)).Methods(http.MethodGet)
	api.Handle("/user", authed(h.Users.UpdateProfile)).Methods(http.MethodPut)
	api.Handle("/user", authed(h.Users.ChangePassword)).Methods(http.MethodPatch)
	api.HandleFunc("/wishlist", h.Users.Wishlist).Methods(http.MethodGet)
	api.Handle("/wishlist", authed(h.Users.AddToWishlist)).Methods(http.MethodPost)
	api.Handle("/wishlist", authed(h.Users.ReplaceWishlist)).Methods(http.MethodPut, http.MethodPatch)
	api.Handle("/wishlist", authed(h.Users.RemoveFromWishlist)).Methods(http.MethodDelete)

	// Catalogue
	api.HandleFunc("/products", h.Products.List).Methods(http.MethodGet)
	api.Handle("/products", admin(h.Products.Create)).Methods(http.MethodPost)
	api.Handle("/products", admin(h.Products.Update)).Methods(http.MethodPut)
	api.Handle("/products", admin(h.Products.Delete)).Methods(http.MethodDelete)
	api.HandleFunc("/products/search", h.Products.Search).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.Products.Get).Methods(http.MethodGet)
	api.Handle("/products/{id}", admin(h.Products.Update)).Methods(http.MethodPut)
	api.Handle("/products/{id}", admin(h.Products.Delete)).Methods(http.MethodDelete)

	// Cart
	api.HandleFunc("/cart", h.Carts.Get).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.Carts.Add).Methods(http.MethodPost)
	api.HandleFunc("/cart", h.Carts.Update).Methods(http.MethodPatch)
	api.HandleFunc("/cart", h.Carts.Remove).Methods(http.MethodDelete)
	api.Handle("/cart/merge", authed(h.Carts.Merge)).Methods(http.MethodPost)

	// Orders
	api.HandleFunc("/orders", h.Orders.Create).Methods(http.MethodPost)
	api.Handle("/orders", authed(h.Orders.List)).Methods(http.MethodGet)
	api.Handle("/orders/all", admin(h.Orders.ListAll)).Methods(http.MethodGet)
	api.Handle("/orders/{id}", authed(h.Orders.Get)).Methods(http.MethodGet)
	api.Handle("/orders/{id}", authed(h.Orders.UpdateStatus)).Methods(http.MethodPatch)

	// Reviews
	api.HandleFunc("/reviews", h.Reviews.List).Methods(http.MethodGet)
	api.HandleFunc("/reviews", h.Reviews.Create).Methods(http.MethodPost)

	if uploads.Dir != "" && strings.HasPrefix(uploads.Path, "/") {
		prefix := strings.TrimSuffix(uploads.Path, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(uploads.Dir)))).
			Methods(http.MethodGet, http.MethodHead)
	}

	// Apply middleware in order: Recovery -> Logging -> CORS -> Session
	var handler http.Handler = r
	handler = middleware.Session(auth, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}

func jsonStatus(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}
