package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"abaya-store/internal/database"
	"abaya-store/internal/handler"
	"abaya-store/internal/model"
	"abaya-store/internal/notify"
	"abaya-store/internal/repository"
	"abaya-store/internal/router"
	"abaya-store/internal/service"
	"abaya-store/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	adminEmail    = "admin@abaya.test"
	adminPassword = "admin-secret"
)

// TestEnv is a fully wired store backed by PostgreSQL and Redis containers.
type TestEnv struct {
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Products repository.ProductRepository
	Orders   service.OrderService
	Handler  http.Handler
	Mail     *recordingMailer
}

// SetupTestEnv starts the containers, migrates the schema and wires the API the same
// way the server binary does.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	logger := zerolog.Nop()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))
	require.NoError(t, database.Migrate(ctx, pool, logger))

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	redisURI, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(redisURI)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	uploadDir := t.TempDir()
	images, err := storage.NewLocalStore(uploadDir, "/uploads", logger)
	require.NoError(t, err)

	mail := &recordingMailer{}
	composer, err := notify.NewComposer(adminEmail, "http://shop.test")
	require.NoError(t, err)
	dispatcher := notify.NewDispatcher(mail, 16, 5*time.Second, logger)
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = dispatcher.Close(closeCtx)
	})
	notifier := notify.NewOrderNotifier(composer, dispatcher, logger)

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	reviewRepo := repository.NewReviewRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	userCarts := repository.NewUserCartRepository(pool, logger)
	guestCarts := repository.NewGuestCartRepository(rdb, time.Hour, logger)
	sessions := repository.NewSessionRepository(rdb, time.Hour, logger)

	productService := service.NewProductService(productRepo, images, logger)
	cartService := service.NewCartService(productRepo, userCarts, guestCarts, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, userCarts, guestCarts, notifier, logger)
	reviewService := service.NewReviewService(reviewRepo, productRepo, images, logger)
	userService := service.NewUserService(userRepo, productRepo, sessions, cartService, 4, logger)

	require.NoError(t, userService.EnsureAdmin(ctx, adminEmail, adminPassword))

	h := router.New(router.Handlers{
		Products: handler.NewProductHandler(productService, logger),
		Carts:    handler.NewCartHandler(cartService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Reviews:  handler.NewReviewHandler(reviewService, logger),
		Users:    handler.NewUserHandler(userService, logger),
	}, userService, router.Uploads{Dir: uploadDir, Path: "/uploads"}, logger)

	return &TestEnv{
		Pool:     pool,
		Redis:    rdb,
		Products: productRepo,
		Orders:   orderService,
		Handler:  h,
		Mail:     mail,
	}
}

// SeedProduct inserts an abaya with the given price and stock.
func (e *TestEnv) SeedProduct(t *testing.T, name string, price int64, stock int) model.Product {
	t.Helper()

	p := model.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " in Nida fabric",
		Category:    model.CategoryAbayas,
		Price:       decimal.NewFromInt(price),
		Images:      []string{"/uploads/" + name + ".jpg"},
		Sizes:       []string{"S", "M", "L"},
		Colors:      []string{"Black"},
		Tags:        []string{},
		Stock:       stock,
		InStock:     stock > 0,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, e.Products.Create(context.Background(), &p))
	return p
}

// CleanupDB removes rows written by a test, keeping the bootstrap admin.
func (e *TestEnv) CleanupDB(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	for _, stmt := range []string{
		"DELETE FROM order_items",
		"DELETE FROM orders",
		"DELETE FROM reviews",
		"DELETE FROM carts",
		"DELETE FROM products",
		fmt.Sprintf("DELETE FROM users WHERE email <> '%s'", adminEmail),
	} {
		if _, err := e.Pool.Exec(ctx, stmt); err != nil {
			t.Logf("cleanup %q failed: %v", stmt, err)
		}
	}
	if err := e.Redis.FlushDB(ctx).Err(); err != nil {
		t.Logf("failed to flush redis: %v", err)
	}
}

// recordingMailer keeps every message handed to it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Recipients returns the addresses mailed so far.
func (m *recordingMailer) Recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		out = append(out, msg.To)
	}
	return out
}
