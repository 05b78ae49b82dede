// commerce-unify serves token (ACP) and intent (AP2) protocol checkouts over
// one product and order store, plus the storefront catalog importer.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-unify/internal/adapter"
	"commerce-unify/internal/agent"
	"commerce-unify/internal/catalog"
	"commerce-unify/internal/checkout"
	"commerce-unify/internal/config"
	"commerce-unify/internal/handler"
	"commerce-unify/internal/middleware"
	"commerce-unify/internal/payments"
	"commerce-unify/internal/reconcile"
	"commerce-unify/internal/store"
	"commerce-unify/internal/transport"
	"commerce-unify/internal/woocommerce"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("storefront_fingerprint", cfg.StorefrontFingerprint),
	)
	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		logger.Warn("secrets not configured; dependent routes will fail",
			slog.Any("missing", missing))
	}

	db, err := store.Open(store.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		Debug:           cfg.LogLevel == "debug",
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	stripeClient := payments.NewStripeClient(payments.Config{
		APIKey: cfg.Secrets.StripeAPIKey,
		Logger: logger,
	})

	h := handler.New(
		checkout.NewService(db, db, stripeClient, logger),
		reconcile.New(db, reconcile.Config{
			ACPSigningKey: cfg.Secrets.ACPSigningKey,
			AP2PartnerKey: cfg.Secrets.AP2PartnerKey,
		}, logger),
		catalog.NewImporter(db, createStorefront(transport.Fingerprint(cfg.StorefrontFingerprint), logger), logger),
		db,
		logger,
	)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → agent → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		agent.Middleware(logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// createStorefront returns the factory the importer uses to reach a
// merchant's storefront, selected by the merchant's platform tag.
func createStorefront(fp transport.Fingerprint, logger *slog.Logger) adapter.Factory {
	woo := woocommerce.NewStorefront(fp, logger)
	return func(cfg adapter.Config) (adapter.Storefront, error) {
		switch cfg.Platform {
		case "woocommerce":
			return woo(cfg)
		default:
			return nil, adapter.UnsupportedPlatformError(cfg.Platform)
		}
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
