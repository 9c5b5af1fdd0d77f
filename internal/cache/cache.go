// Package cache keeps recently generated daily plans close to the API.
// The store stays the source of truth; a miss or a cache error only costs a store read.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/storage"
)

const (
	ModeRedis  = "redis"
	ModeMemory = "memory"

	defaultTTL = time.Hour
)

// PlanCache: read-through кэш дневных планов
type PlanCache interface {
	// GetPlan возвращает (nil, false, nil) при промахе.
	GetPlan(ctx context.Context, userID, date string) (*storage.DailyPlan, bool, error)
	SetPlan(ctx context.Context, plan *storage.DailyPlan) error
	DeletePlan(ctx context.Context, userID, date string) error
	Close() error
}

type Logger interface {
	Printf(format string, args ...any)
}

func logf(logger Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}

func planKey(userID, date string) string {
	return fmt.Sprintf("plan:%s:%s", userID, date)
}

// New выбирает Redis при заданном REDIS_URL и доступном сервере, иначе in-process кэш.
func New(ctx context.Context, cfg *config.Config, logger Logger) (PlanCache, string) {
	ttl := time.Duration(cfg.PlanCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultTTL
	}

	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		c, err := NewRedisPlanCache(ctx, url, ttl)
		if err == nil {
			logf(logger, "INFO cache: redis plan cache enabled (ttl=%s)", ttl)
			return c, ModeRedis
		}
		logf(logger, "WARN cache: redis unavailable, falling back to memory: %v", err)
	}

	return NewMemoryPlanCache(ttl), ModeMemory
}
