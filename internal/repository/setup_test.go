package repository

import (
	"context"
	"testing"
	"time"

	"abaya-store/internal/database"
	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema applied.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, database.Schema())
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// setupTestRedis creates a Redis testcontainer and returns a connected client.
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}

	return client, cleanup
}

// newTestProduct returns a valid product with the given name, category, price and stock.
func newTestProduct(name, category string, price int64, stock int) model.Product {
	return model.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " in soft crepe",
		Category:    category,
		Price:       decimal.NewFromInt(price),
		Images:      []string{"/uploads/" + name + ".jpg"},
		Sizes:       []string{"S", "M", "L"},
		Colors:      []string{"black"},
		Tags:        []string{},
		Stock:       stock,
		InStock:     stock > 0,
		CreatedAt:   time.Now().UTC(),
	}
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, repo ProductRepository, products ...model.Product) {
	ctx := context.Background()
	for i := range products {
		require.NoError(t, repo.Create(ctx, &products[i]))
	}
}

// seedUser inserts a registered user with the given email.
func seedUser(t *testing.T, repo UserRepository, email string) *model.User {
	hash := "$2a$10$abcdefghijklmnopqrstuv"
	u := &model.User{
		ID:           uuid.New(),
		Name:         "Amina",
		Email:        email,
		PasswordHash: &hash,
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}
