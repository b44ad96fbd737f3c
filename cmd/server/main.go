/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the severance and leave calculation server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (flags, then environment)
  2. Build the zap logger
  3. Load INSS/IR tables and build the engine
  4. Open the store (sqlite, postgres or memory)
  5. Create service, handler and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (environment fallback):
  -port          PORT          HTTP server port (default: 8080)
  -store         STORE_DRIVER  sqlite | postgres | memory (default: sqlite)
  -db            DB_PATH       SQLite database path (default: severance.db)
  -database-url  DATABASE_URL  PostgreSQL URL
  -tax-tables    TAX_TABLES    YAML/JSON bracket tables (default: built-in)
  -log-level     LOG_LEVEL     debug | info | warn | error
  -cors-origins  CORS_ORIGINS  comma-separated origins (default: *)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with file database and custom tables
  ./server -db="./data/severance.db" -tax-tables=config/tax_tables.yaml

  # Run against PostgreSQL
  STORE_DRIVER=postgres DATABASE_URL=postgres://localhost/severance ./server

SEE ALSO:
  - config/config.go: Settings
  - api/server.go: Router configuration
  - factory/tables.go: Table loading
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/severance-engine/api"
	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/config"
	"github.com/warp/severance-engine/factory"
	"github.com/warp/severance-engine/hrprocess"
	"github.com/warp/severance-engine/store/memory"
	"github.com/warp/severance-engine/store/postgres"
	"github.com/warp/severance-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	// Tax tables
	tables, err := factory.LoadTablesFile(cfg.TaxTablesPath)
	if err != nil {
		return fmt.Errorf("failed to load tax tables: %w", err)
	}
	engine, err := calculation.New(tables)
	if err != nil {
		return err
	}
	logger.Info("tax tables loaded",
		zap.String("source", sourceName(cfg.TaxTablesPath)),
		zap.String("inss", tables.INSS.Name),
		zap.String("ir", tables.IR.Name),
	)

	// Store
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("store ready", zap.String("driver", cfg.StoreDriver))

	// Handler and router
	svc := hrprocess.NewService(store, engine, logger.Named("hrprocess"))
	handler := api.NewHandler(svc, logger.Named("api"))
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(cfg config.Config) (hrprocess.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, s.Close, nil
	case config.DriverMemory:
		return memory.New(), func() {}, nil
	default:
		s, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, func() { s.Close() }, nil
	}
}

func sourceName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
