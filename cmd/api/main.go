package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"abaya-store/internal/config"
	"abaya-store/internal/database"
	"abaya-store/internal/handler"
	"abaya-store/internal/notify"
	"abaya-store/internal/repository"
	"abaya-store/internal/router"
	"abaya-store/internal/service"
	"abaya-store/internal/storage"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting abaya-store API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	rdb, err := database.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer rdb.Close()

	images, err := newImageStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	mailer, err := newMailer(cfg.Mail, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	composer, err := notify.NewComposer(cfg.Mail.AdminEmail, cfg.Mail.StoreURL)
	if err != nil {
		return fmt.Errorf("failed to load mail templates: %w", err)
	}
	dispatcher := notify.NewDispatcher(mailer, cfg.Mail.QueueSize, cfg.Mail.SendTimeout, logger)
	notifier := notify.NewOrderNotifier(composer, dispatcher, logger)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	reviewRepo := repository.NewReviewRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	userCarts := repository.NewUserCartRepository(pool, logger)
	guestCarts := repository.NewGuestCartRepository(rdb, cfg.Auth.GuestCartTTL, logger)
	sessions := repository.NewSessionRepository(rdb, cfg.Auth.SessionTTL, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, images, logger)
	cartService := service.NewCartService(productRepo, userCarts, guestCarts, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, userCarts, guestCarts, notifier, logger)
	reviewService := service.NewReviewService(reviewRepo, productRepo, images, logger)
	userService := service.NewUserService(userRepo, productRepo, sessions, cartService, cfg.Auth.BcryptCost, logger)

	if err := userService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(productService, logger),
		Carts:    handler.NewCartHandler(cartService, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Reviews:  handler.NewReviewHandler(reviewService, logger),
		Users:    handler.NewUserHandler(userService, logger),
	}, userService, router.Uploads{Dir: cfg.Storage.LocalDir, Path: cfg.Storage.LocalBaseURL}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		// Orders placed before shutdown still get their mail.
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("mail queue not fully drained")
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newImageStore builds the local image store, fronted by S3 when it is enabled and
// reachable.
func newImageStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.ImageStore, error) {
	local, err := storage.NewLocalStore(cfg.LocalDir, cfg.LocalBaseURL, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.S3Enabled {
		logger.Info().Str("dir", cfg.LocalDir).Msg("using local file system for images (S3 disabled)")
		return local, nil
	}

	s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, cfg.PublicBaseURL, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 store, falling back to local file system only")
		return local, nil
	}
	return storage.NewFallbackStore(s3Store, local, logger), nil
}

func newMailer(cfg config.MailConfig, logger zerolog.Logger) (notify.Mailer, error) {
	if !cfg.Enabled {
		logger.Info().Msg("mail disabled, notifications will be logged only")
		return notify.NewNopMailer(logger), nil
	}
	return notify.NewSMTPMailer(cfg, logger)
}
