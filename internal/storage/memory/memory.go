package memory

import (
	"sync/atomic"

	"github.com/fdg312/macro-coach/internal/storage"
)

// MemoryStorage: in-memory реализация storage.Storage.
// Используется когда база не настроена и как фикстура в тестах.
type MemoryStorage struct {
	closed   atomic.Bool
	metrics  *MetricsMemoryStorage
	profiles *ProfilesMemoryStorage
	plans    *PlansMemoryStorage
	chat     *ChatMemoryStorage
	reports  *ReportsMemoryStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		metrics:  NewMetricsStorage(),
		profiles: NewProfilesStorage(),
		plans:    NewPlansStorage(),
		chat:     NewChatMemoryStorage(),
		reports:  NewReportsMemoryStorage(),
	}
}

// ready reports ErrNotInitialized for a nil or closed store.
func (m *MemoryStorage) ready() error {
	if m == nil || m.closed.Load() {
		return storage.ErrNotInitialized
	}
	return nil
}

func (m *MemoryStorage) Close() error {
	if m == nil {
		return nil
	}
	m.closed.Store(true)
	return nil
}

var _ storage.Storage = (*MemoryStorage)(nil)
