// Package main seeds a development database with suppliers, products and
// default settings, and prints an admin token for trying the API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	"stockflow/internal/config"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/auth"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/pkg/logger"
)

type productSeed struct {
	name     string
	cost     string
	quantity int64
}

var (
	suppliers = []string{"Northwind Traders", "Contoso Supply"}

	products = []productSeed{
		{"Steel bolt M8", "0.35", 500},
		{"Hex nut M8", "0.12", 800},
		{"Angle bracket", "2.40", 120},
		{"Cable tie pack", "4.99", 60},
		{"Sample kit", "", 0},
	}

	defaultSettings = map[string]string{
		config.KeyReturnAutoApprove:        "false",
		config.KeyReturnAllowNegativeStock: "false",
		config.KeyReturnDefaultStatus:      "pending",
		config.KeyCurrencySymbol:           config.DefaultCurrencySymbol,
	}
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txManager.GetQuerier(ctx)
		for _, name := range suppliers {
			if err := seedSupplier(ctx, q, name); err != nil {
				return err
			}
		}
		for _, p := range products {
			if err := seedProduct(ctx, q, p); err != nil {
				return err
			}
		}
		return seedSettings(ctx, postgres.NewSettingsStore(txManager))
	})
	if err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret, cfg.JWTIssuer))
	token, expires, err := jwtService.GenerateAccessToken(appctx.UserContext{
		UserID:  "seed-admin",
		Email:   "admin@stockflow.local",
		IsAdmin: true,
	})
	if err != nil {
		log.Fatalw("failed to issue admin token", "error", err)
	}

	log.Infow("seeding completed successfully", "token_expires", expires)
	fmt.Println(token)
}

func seedSupplier(ctx context.Context, q postgres.Querier, name string) error {
	var existing id.ID
	err := q.QueryRow(ctx, `SELECT id FROM suppliers WHERE name = $1`, name).Scan(&existing)
	if err == nil {
		logger.Info(ctx, "supplier already exists", "name", name, "id", existing)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check supplier %s: %w", name, err)
	}

	supplierID := id.New()
	if _, err := q.Exec(ctx, `INSERT INTO suppliers (id, name) VALUES ($1, $2)`, supplierID, name); err != nil {
		return fmt.Errorf("insert supplier %s: %w", name, err)
	}
	logger.Info(ctx, "supplier created", "name", name, "id", supplierID)
	return nil
}

func seedProduct(ctx context.Context, q postgres.Querier, p productSeed) error {
	var existing id.ID
	err := q.QueryRow(ctx, `SELECT id FROM products WHERE name = $1`, p.name).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check product %s: %w", p.name, err)
	}

	var cost any
	if p.cost != "" {
		cost = postgres.Numeric(types.MustMoney(p.cost))
	}

	productID := id.New()
	_, err = q.Exec(ctx,
		`INSERT INTO products (id, name, cost_price, quantity) VALUES ($1, $2, $3, $4)`,
		productID, p.name, cost, p.quantity,
	)
	if err != nil {
		return fmt.Errorf("insert product %s: %w", p.name, err)
	}
	logger.Info(ctx, "product created", "name", p.name, "id", productID, "quantity", p.quantity)
	return nil
}

// seedSettings writes defaults for keys that are not set yet.
func seedSettings(ctx context.Context, store *postgres.SettingsStore) error {
	current, err := store.Load(ctx)
	if err != nil {
		return err
	}
	for key, value := range defaultSettings {
		if _, ok := current[key]; ok {
			continue
		}
		if err := store.Put(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
