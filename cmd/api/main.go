package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/dbmigrate"
	"github.com/fdg312/macro-coach/internal/httpserver"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	printStartupBanner(cfg)

	if cfg.RunMigrationsOnStartup {
		target, err := dbmigrate.SelectTarget(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.Printf("startup migrations: command=up using=%s", target.Source)
		if err := dbmigrate.Run(ctx, "up", target, ""); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Printf("startup migrations: completed")
	}

	validateProductionConfig(cfg)

	server, err := httpserver.New(ctx, cfg)
	if err != nil {
		log.Fatalf("FATAL server: %v", err)
	}

	err = server.Start()
	if closeErr := server.Close(); closeErr != nil {
		log.Printf("WARN server: close: %v", closeErr)
	}
	log.Fatal(err)
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// No secrets are ever printed: only masked indicators ("set" / "not set").
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Macro Coach API ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)
	log.Printf("  day_timezone     = %s", cfg.DayLocation)

	// ---- Storage ----
	log.Println("---- storage ----")
	log.Printf("  storage_mode     = %s", cfg.StorageMode)
	log.Printf("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
	log.Printf("  pooled           = %s", config.SecretStatus(cfg.DatabaseURLPooled))
	log.Printf("  direct           = %s", config.SecretStatus(cfg.DatabaseURLDirect))
	log.Printf("  sqlite_path      = %s", config.NonEmptyOrDash(cfg.SQLitePath))
	log.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)
	if cfg.RunMigrationsOnStartup && cfg.DatabaseURLDirect == "" {
		log.Printf("  migrations_via   = (will fail: DATABASE_URL_DIRECT not set)")
	}

	// ---- Auth ----
	log.Println("---- auth ----")
	log.Printf("  auth_mode        = %s", cfg.AuthMode)
	log.Printf("  auth_required    = %t", cfg.AuthRequired)
	log.Printf("  jwt_secret       = %s", secretStatus(cfg.JWTSecret, "change_me"))
	log.Printf("  jwt_ttl_minutes  = %d", cfg.JWTTTLMinutes)

	// ---- Plans ----
	log.Println("---- plans ----")
	log.Printf("  meals_mode       = %s", cfg.MealsMode)
	if cfg.MealsMode == config.MealsModeOpenAI {
		log.Printf("  openai_model     = %s", cfg.OpenAIModel)
		log.Printf("  openai_api_key   = %s", config.SecretStatus(cfg.OpenAIAPIKey))
	}
	log.Printf("  plan_cache       = %s", describeCache(cfg.RedisURL))
	log.Printf("  history          = %d days / %d rows", cfg.PlannerHistoryDays, cfg.PlannerHistoryLimit)

	// ---- Reports ----
	log.Println("---- reports ----")
	log.Printf("  blob_mode        = %s", cfg.Blob.Mode)
	log.Printf("  max_range_days   = %d", cfg.ReportsMaxRangeDays)
	if cfg.Blob.Mode != config.BlobModeLocal {
		log.Printf("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}

	log.Println("=====================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: BLOB_MODE=s3 but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if !cfg.IsProduction() {
		return
	}

	if cfg.AuthEnabled() && cfg.JWTSecret == "change_me" {
		log.Fatalf("FATAL auth: JWT_SECRET must not be 'change_me' in %s", cfg.Env)
	}

	if cfg.StorageMode != config.StorageModeMemory && cfg.StorageMode != config.StorageModeSQLite && cfg.DatabaseURL == "" {
		log.Fatalf("FATAL db: no DATABASE_URL configured in %s", cfg.Env)
	}
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}

func describeCache(redisURL string) string {
	if redisURL == "" {
		return "memory"
	}
	return "redis"
}
