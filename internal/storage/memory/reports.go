package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

// ReportsMemoryStorage: in-memory storage для отчётов
type ReportsMemoryStorage struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]storage.ReportMeta
}

// NewReportsMemoryStorage создаёт новое in-memory хранилище
func NewReportsMemoryStorage() *ReportsMemoryStorage {
	return &ReportsMemoryStorage{
		reports: make(map[uuid.UUID]storage.ReportMeta),
	}
}

// CreateReport сохраняет метаданные отчёта (и данные в local режиме)
func (m *MemoryStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	if err := m.ready(); err != nil {
		return err
	}

	s := m.reports
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now().UTC()

	s.reports[report.ID] = *report
	return nil
}

// GetReport возвращает отчёт по ID
func (m *MemoryStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	s := m.reports
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &report, nil
}

// ListReports возвращает отчёты пользователя, новые первыми
func (m *MemoryStorage) ListReports(ctx context.Context, userID string, limit int) ([]storage.ReportMeta, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	s := m.reports
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.ReportMeta, 0)
	for _, r := range s.reports {
		if r.UserID == userID {
			r.Data = nil
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
