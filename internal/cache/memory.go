package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryPlanCache: in-process кэш с TTL. Хранит JSON, чтобы вызывающий
// не мог изменить закэшированный план через указатель.
type MemoryPlanCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryPlanCache(ttl time.Duration) *MemoryPlanCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryPlanCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryPlanCache) GetPlan(ctx context.Context, userID, date string) (*storage.DailyPlan, bool, error) {
	key := planKey(userID, date)

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return nil, false, nil
	}

	var plan storage.DailyPlan
	if err := json.Unmarshal(entry.data, &plan); err != nil {
		return nil, false, err
	}
	return &plan, true, nil
}

func (c *MemoryPlanCache) SetPlan(ctx context.Context, plan *storage.DailyPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[planKey(plan.UserID, plan.Date)] = memoryEntry{data: data, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryPlanCache) DeletePlan(ctx context.Context, userID, date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, planKey(userID, date))
	return nil
}

func (c *MemoryPlanCache) Close() error {
	return nil
}
