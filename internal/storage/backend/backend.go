// Package backend selects the storage implementation from configuration.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/fdg312/macro-coach/internal/storage/memory"
	"github.com/fdg312/macro-coach/internal/storage/postgres"
	"github.com/fdg312/macro-coach/internal/storage/sqlite"
)

type Logger interface {
	Printf(format string, v ...any)
}

// Open builds a storage.Storage using mode auto|memory|postgres|sqlite.
// Forced modes fail hard; auto degrades to memory the way the API server always did.
func Open(ctx context.Context, cfg *config.Config, logger Logger) (storage.Storage, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.StorageMode))
	if mode == "" {
		mode = config.StorageModeAuto
	}

	switch mode {
	case config.StorageModeMemory:
		logf(logger, "INFO storage: mode=memory (forced)")
		return memory.New(), config.StorageModeMemory, nil

	case config.StorageModePostgres:
		if cfg.DatabaseURL == "" {
			return nil, "", fmt.Errorf("STORAGE_MODE=postgres requested but no DATABASE_URL configured")
		}
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logf(logger, "FATAL storage.postgres: connect_failed=%v", err)
			return nil, "", fmt.Errorf("STORAGE_MODE=postgres connect failed: %w", err)
		}
		logf(logger, "INFO storage: mode=postgres (forced)")
		return pg, config.StorageModePostgres, nil

	case config.StorageModeSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "macro-coach.db"
		}
		lite, err := sqlite.New(ctx, path)
		if err != nil {
			logf(logger, "FATAL storage.sqlite: open_failed=%v", err)
			return nil, "", fmt.Errorf("STORAGE_MODE=sqlite open failed: %w", err)
		}
		logf(logger, "INFO storage: mode=sqlite path=%s (forced)", path)
		return lite, config.StorageModeSQLite, nil

	case config.StorageModeAuto:
		if cfg.DatabaseURL != "" {
			logf(logger, "INFO storage: connecting to postgres...")
			pg, err := postgres.New(ctx, cfg.DatabaseURL)
			if err == nil {
				logf(logger, "INFO storage: mode=postgres (auto)")
				return pg, config.StorageModePostgres, nil
			}
			logf(logger, "WARN storage.postgres: connect_failed=%q, fallback=memory", err.Error())
			return memory.New(), config.StorageModeMemory, nil
		}
		if cfg.SQLitePath != "" {
			lite, err := sqlite.New(ctx, cfg.SQLitePath)
			if err == nil {
				logf(logger, "INFO storage: mode=sqlite path=%s (auto)", cfg.SQLitePath)
				return lite, config.StorageModeSQLite, nil
			}
			logf(logger, "WARN storage.sqlite: open_failed=%q, fallback=memory", err.Error())
			return memory.New(), config.StorageModeMemory, nil
		}
		logf(logger, "INFO storage: mode=memory (auto, no database configured)")
		return memory.New(), config.StorageModeMemory, nil

	default:
		return nil, "", fmt.Errorf("unsupported storage mode: %s", mode)
	}
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
