// Package main provides a CLI for schema migrations.
// Usage: migrate up
//
//	migrate down
//	migrate version
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"stockflow/internal/infrastructure/migration"
	"stockflow/pkg/logger"
)

type env struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Error: load .env: %v\n", err)
		os.Exit(1)
	}
	var e env
	if err := envconfig.Process("", &e); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: e.LogLevel, Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	m, err := migration.New(e.DatabaseURL)
	if err != nil {
		log.Fatalw("failed to open migrations", "error", err)
	}
	defer func() { _ = m.Close() }()

	switch os.Args[1] {
	case "up":
		err = m.Up(ctx)
	case "down":
		err = m.Down(ctx)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalw("migration command failed", "command", os.Args[1], "error", err)
	}
}

func printUsage() {
	fmt.Println(`stockflow migration CLI

Usage:
  migrate <command>

Commands:
  up        Apply all pending migrations
  down      Roll back all migrations
  version   Print the current schema version
  help      Show this help

Environment Variables:
  DATABASE_URL   Connection string (required)
  LOG_LEVEL      Log level (default: info)`)
}
