package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

// MetricsMemoryStorage: append-only лента наблюдений
type MetricsMemoryStorage struct {
	mu   sync.RWMutex
	rows []storage.HealthMetric
}

// NewMetricsStorage создаёт новый MetricsMemoryStorage
func NewMetricsStorage() *MetricsMemoryStorage {
	return &MetricsMemoryStorage{
		rows: make([]storage.HealthMetric, 0),
	}
}

func (s *MetricsMemoryStorage) insert(metric *storage.HealthMetric) {
	if metric.ID == uuid.Nil {
		metric.ID = uuid.New()
	}
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now().UTC()
	}
	s.rows = append(s.rows, cloneMetric(*metric))
}

func (s *MetricsMemoryStorage) list(q storage.MetricQuery) []storage.HealthMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.HealthMetric, 0)
	for i := len(s.rows) - 1; i >= 0; i-- {
		row := s.rows[i]
		if row.UserID != q.UserID {
			continue
		}
		if q.Start != nil && row.Timestamp.Before(*q.Start) {
			continue
		}
		if q.End != nil && row.Timestamp.After(*q.End) {
			continue
		}
		result = append(result, cloneMetric(row))
	}

	// новые первыми; при равном timestamp: позже вставленные первыми
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result
}

func (m *MemoryStorage) InsertMetric(ctx context.Context, metric *storage.HealthMetric) error {
	if err := m.ready(); err != nil {
		return err
	}

	m.metrics.mu.Lock()
	defer m.metrics.mu.Unlock()
	m.metrics.insert(metric)
	return nil
}

func (m *MemoryStorage) InsertMetrics(ctx context.Context, metrics []storage.HealthMetric) error {
	if err := m.ready(); err != nil {
		return err
	}

	m.metrics.mu.Lock()
	defer m.metrics.mu.Unlock()
	for i := range metrics {
		m.metrics.insert(&metrics[i])
	}
	return nil
}

func (m *MemoryStorage) ListMetrics(ctx context.Context, q storage.MetricQuery) ([]storage.HealthMetric, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	return m.metrics.list(q), nil
}

func cloneMetric(in storage.HealthMetric) storage.HealthMetric {
	out := in
	out.KcalOut = cloneFloat(in.KcalOut)
	out.HeartRate = cloneInt(in.HeartRate)
	out.Steps = cloneInt(in.Steps)
	out.SleepScore = cloneInt(in.SleepScore)
	out.Weight = cloneFloat(in.Weight)
	out.ProteinG = cloneFloat(in.ProteinG)
	out.CarbsG = cloneFloat(in.CarbsG)
	out.FatG = cloneFloat(in.FatG)
	out.KcalIn = cloneFloat(in.KcalIn)
	out.RPE = cloneInt(in.RPE)
	out.WorkoutDurationMinutes = cloneInt(in.WorkoutDurationMinutes)
	if in.WorkoutType != nil {
		v := *in.WorkoutType
		out.WorkoutType = &v
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
