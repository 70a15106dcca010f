// Package main is the entry point for the stockflow API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stockflow/internal/config"
	"stockflow/internal/domain/activity"
	"stockflow/internal/domain/auth"
	po "stockflow/internal/domain/documents/purchase_order"
	"stockflow/internal/domain/documents/reception"
	sr "stockflow/internal/domain/documents/supplier_return"
	"stockflow/internal/domain/registers/stock"
	"stockflow/internal/infrastructure/cache"
	v1 "stockflow/internal/infrastructure/http/v1"
	"stockflow/internal/infrastructure/migration"
	"stockflow/internal/infrastructure/numerator"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/internal/infrastructure/storage/postgres/catalog_repo"
	"stockflow/internal/infrastructure/storage/postgres/document_repo"
	"stockflow/internal/infrastructure/storage/postgres/register_repo"
	"stockflow/pkg/logger"
)

func main() {
	cfg, err := config.Load(envFile())
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting stockflow server", "env", cfg.AppEnv)

	if cfg.MigrateOnStart {
		if err := migrate(ctx, cfg.DatabaseURL); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
	}

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	poolCfg.MaxConnLifetime = cfg.DBMaxConnLife

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	postgres.LogPoolStats(ctx, pool)

	txManager := postgres.NewTxManager(pool)

	// --- Settings ---
	settingsCache := cache.NewSettingsCache(pool.Pool, postgres.NewSettingsStore(txManager))
	if err := settingsCache.Start(ctx); err != nil {
		log.Fatalw("failed to load settings", "error", err)
	}
	defer settingsCache.Stop()
	settings := settingsCache.Current()

	// --- Services ---
	activityStore, err := postgres.NewActivityStore(txManager)
	if err != nil {
		log.Fatalw("failed to create activity store", "error", err)
	}
	recorder := activity.NewRecorder(activityStore)

	numbers := numerator.New(numerator.NewPostgresStore(txManager), settings.Numbering)
	catalogRepo := catalog_repo.NewCatalogRepo(txManager)
	orderRepo := document_repo.NewPurchaseOrderRepo(txManager)
	ledger := stock.NewService(register_repo.NewStockRepo(txManager), txManager)

	orders := po.NewService(orderRepo, catalogRepo, numbers, txManager, recorder)
	receiving := reception.NewService(orderRepo, ledger, numbers, txManager, recorder)
	returns := sr.NewService(
		document_repo.NewSupplierReturnRepo(txManager),
		catalogRepo,
		ledger,
		numbers,
		txManager,
		recorder,
		settings.ReturnPolicy,
	)

	settingsCache.OnChange(func(ctx context.Context, s config.Settings) {
		if err := numbers.SetConfig(s.Numbering); err != nil {
			logger.Warn(ctx, "numbering settings rejected", "error", err)
		}
		if err := returns.SetPolicy(s.ReturnPolicy); err != nil {
			logger.Warn(ctx, "return policy rejected", "error", err)
		}
		logger.Info(ctx, "settings reloaded")
	})

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret, cfg.JWTIssuer))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		DB:           pool,
		Logger:       log,
		JWTValidator: jwtService,
		Orders:       orders,
		Reception:    receiving,
		Returns:      returns,
		Ledger:       ledger,
		Activity:     activityStore,
		Debug:        !cfg.IsProduction() && cfg.LogDevelopment,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  2 * cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", cfg.AppAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Errorw("server failed", "error", err)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func migrate(ctx context.Context, databaseURL string) error {
	m, err := migration.New(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up(ctx)
}

// envFile returns the dotenv file to read; ENV_FILE overrides the default.
func envFile() string {
	if v := os.Getenv("ENV_FILE"); v != "" {
		return v
	}
	return ".env"
}
