package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/slowka/slowka-api/migrations"
)

// setupGoose points goose at the embedded migration files.
func setupGoose() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// applyMigrations brings the schema up to date. Called on every server start
// so a deploy never runs against a stale schema.
func applyMigrations(db *sql.DB, logger *slog.Logger) error {
	if err := setupGoose(); err != nil {
		return err
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("database schema up to date", "version", version)
	return nil
}

// runMigrationCommand executes a one-shot migration command (from the
// -migrate flag) and returns.
func runMigrationCommand(db *sql.DB, command string, logger *slog.Logger) error {
	if err := setupGoose(); err != nil {
		return err
	}

	logger.Info("executing migration command", "command", command)

	switch command {
	case "up":
		return goose.Up(db, ".")
	case "down":
		return goose.Down(db, ".")
	case "status":
		return goose.Status(db, ".")
	default:
		return fmt.Errorf("unknown migration command %q (want up, down, or status)", command)
	}
}
