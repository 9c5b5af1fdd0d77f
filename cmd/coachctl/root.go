package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fdg312/macro-coach/internal/cache"
	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/meals"
	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/plans"
	"github.com/fdg312/macro-coach/internal/status"
	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/fdg312/macro-coach/internal/storage/backend"
)

var (
	storageMode string
	sqlitePath  string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "coachctl",
	Short:         "coachctl drives the macro coach without the HTTP API",
	Long:          "coachctl seeds demo data, generates plans and prints status or progress straight from the configured storage.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageMode, "storage", "", "Storage backend override: memory|sqlite|postgres|auto")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "Path to SQLite database (implies --storage=sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log storage and planner details to stderr")
}

// app: сервисы поверх одного хранилища, как в httpserver.
type app struct {
	cfg     *config.Config
	store   storage.Storage
	cache   cache.PlanCache
	metrics *metrics.Service
	plans   *plans.Service
	status  *status.Service
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
		cfg.StorageMode = config.StorageModeSQLite
	}
	if storageMode != "" {
		cfg.StorageMode = storageMode
	}
	return cfg
}

func newLogger(cmd *cobra.Command) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := loadConfig()
	logger := newLogger(cmd)

	st, mode, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Printf("INFO coachctl: storage=%s", mode)

	planCache, cacheMode := cache.New(ctx, cfg, logger)
	defer planCache.Close()
	logger.Printf("INFO coachctl: plan_cache=%s", cacheMode)

	loc := cfg.DayLocation
	if loc == nil {
		loc = time.UTC
	}
	metricsService := metrics.NewService(st, loc)
	plansService := plans.NewService(
		st,
		metricsService,
		planner.NewEngine(loc),
		meals.NewGenerator(cfg, logger),
		planCache,
		plans.Options{HistoryDays: cfg.PlannerHistoryDays, HistoryLimit: cfg.PlannerHistoryLimit},
		logger,
	)

	return fn(ctx, &app{
		cfg:     cfg,
		store:   st,
		cache:   planCache,
		metrics: metricsService,
		plans:   plansService,
		status:  status.NewService(st, metricsService, cfg.StatusWindowDays),
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
