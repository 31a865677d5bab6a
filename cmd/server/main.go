// Package main implements the entry point for the Słówka API server, the
// backend of a chat course that teaches Polish vocabulary to Ukrainian and
// Russian speakers on a spaced-repetition schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/slowka/slowka-api/internal/config"
	"github.com/slowka/slowka-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("slowka-api: %v", err)
	}
}

// run loads configuration, wires the application, and either executes a
// one-shot migration command or starts the server.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return runMigrationCommand(db, migrateCmd, appLogger)
	}

	ctx := context.Background()

	// The server always runs against an up-to-date schema.
	if err := applyMigrations(db, appLogger); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// usage exists so `-h` output mentions the environment-driven configuration.
func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Configuration is read from environment variables with the SLOWKA_ prefix")
		fmt.Fprintln(os.Stderr, "(e.g. SLOWKA_DATABASE_URL, SLOWKA_AUTH_JWT_SECRET) or a config.yaml file.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}
}
