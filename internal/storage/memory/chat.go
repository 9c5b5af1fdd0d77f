package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

type ChatMemoryStorage struct {
	mu       sync.RWMutex
	messages []storage.ChatMessage
}

func NewChatMemoryStorage() *ChatMemoryStorage {
	return &ChatMemoryStorage{
		messages: make([]storage.ChatMessage, 0),
	}
}

func (m *MemoryStorage) InsertMessage(ctx context.Context, msg *storage.ChatMessage) error {
	if err := m.ready(); err != nil {
		return err
	}

	s := m.chat
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.UserID = strings.TrimSpace(msg.UserID)

	stored := *msg
	stored.ContextData = append([]byte(nil), msg.ContextData...)
	s.messages = append(s.messages, stored)
	return nil
}

func (m *MemoryStorage) ListMessages(ctx context.Context, userID string, limit int) ([]storage.ChatMessage, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	userID = strings.TrimSpace(userID)
	if limit <= 0 {
		limit = 50
	}

	s := m.chat
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]storage.ChatMessage, 0)
	for _, msg := range s.messages {
		if msg.UserID == userID {
			filtered = append(filtered, msg)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}
