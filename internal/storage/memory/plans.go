package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

type PlansMemoryStorage struct {
	mu    sync.RWMutex
	plans map[string]storage.DailyPlan // key: userID + "|" + date
}

func NewPlansStorage() *PlansMemoryStorage {
	return &PlansMemoryStorage{
		plans: make(map[string]storage.DailyPlan),
	}
}

func planKey(userID, date string) string {
	return userID + "|" + date
}

func (m *MemoryStorage) UpsertPlan(ctx context.Context, plan *storage.DailyPlan) error {
	if err := m.ready(); err != nil {
		return err
	}

	s := m.plans
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	s.plans[planKey(plan.UserID, plan.Date)] = clonePlan(*plan)
	return nil
}

func (m *MemoryStorage) GetPlan(ctx context.Context, userID, date string) (*storage.DailyPlan, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	s := m.plans
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[planKey(userID, date)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := clonePlan(plan)
	return &out, nil
}

func (m *MemoryStorage) ListPlans(ctx context.Context, userID string, limit int) ([]storage.DailyPlan, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	s := m.plans
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.DailyPlan, 0)
	for _, plan := range s.plans {
		if plan.UserID == userID {
			result = append(result, clonePlan(plan))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date > result[j].Date
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func clonePlan(in storage.DailyPlan) storage.DailyPlan {
	out := in
	out.AdjustmentsMade = append([]string(nil), in.AdjustmentsMade...)
	out.SuggestedMeals = make([]storage.Meal, len(in.SuggestedMeals))
	for i, meal := range in.SuggestedMeals {
		c := meal
		c.Ingredients = append([]storage.Ingredient(nil), meal.Ingredients...)
		c.Instructions = append([]string(nil), meal.Instructions...)
		c.Tags = append([]string(nil), meal.Tags...)
		out.SuggestedMeals[i] = c
	}
	return out
}
