// Package dbmigrate applies the Postgres schema with goose.
package dbmigrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const embeddedDir = "migrations"

// Commands supported by cmd/migrate.
var Commands = []string{"up", "down", "status", "version", "redo", "reset"}

// Run выполняет goose-команду. Пустой migrationsDir: миграции, вшитые в бинарник.
func Run(ctx context.Context, command string, target Target, migrationsDir string) error {
	if target.URL == "" {
		return fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", target.URL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database (%s): %w", target.Source, err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	dir := migrationsDir
	if dir == "" {
		goose.SetBaseFS(embeddedMigrations)
		dir = embeddedDir
	} else {
		goose.SetBaseFS(nil)
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("migrations dir %s: %w", dir, err)
		}
	}

	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}
	return nil
}

// IsCommand reports whether cmd is a supported goose command.
func IsCommand(cmd string) bool {
	for _, c := range Commands {
		if c == cmd {
			return true
		}
	}
	return false
}
