package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/redis/go-redis/v9"
)

type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPlanCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisPlanCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisPlanCache(client, ttl), nil
}

func newRedisPlanCache(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	return &RedisPlanCache{client: client, ttl: ttl}
}

func (r *RedisPlanCache) GetPlan(ctx context.Context, userID, date string) (*storage.DailyPlan, bool, error) {
	data, err := r.client.Get(ctx, planKey(userID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get plan from Redis: %w", err)
	}

	var plan storage.DailyPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, true, nil
}

func (r *RedisPlanCache) SetPlan(ctx context.Context, plan *storage.DailyPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := r.client.Set(ctx, planKey(plan.UserID, plan.Date), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store plan in Redis: %w", err)
	}
	return nil
}

func (r *RedisPlanCache) DeletePlan(ctx context.Context, userID, date string) error {
	return r.client.Del(ctx, planKey(userID, date)).Err()
}

func (r *RedisPlanCache) Close() error {
	return r.client.Close()
}
