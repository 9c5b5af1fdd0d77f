package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

type ProfilesMemoryStorage struct {
	mu       sync.RWMutex
	profiles map[string]storage.UserProfile
}

func NewProfilesStorage() *ProfilesMemoryStorage {
	return &ProfilesMemoryStorage{
		profiles: make(map[string]storage.UserProfile),
	}
}

func (m *MemoryStorage) UpsertProfile(ctx context.Context, profile *storage.UserProfile) error {
	if err := m.ready(); err != nil {
		return err
	}

	s := m.profiles
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	s.profiles[profile.UserID] = cloneProfile(*profile)
	return nil
}

func (m *MemoryStorage) GetProfile(ctx context.Context, userID string) (*storage.UserProfile, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	s := m.profiles
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := cloneProfile(p)
	return &out, nil
}

func (m *MemoryStorage) ListProfiles(ctx context.Context) ([]storage.UserProfile, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	s := m.profiles
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		result = append(result, cloneProfile(p))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}

func cloneProfile(in storage.UserProfile) storage.UserProfile {
	out := in
	out.TargetWeightKG = cloneFloat(in.TargetWeightKG)
	out.TargetKcalDeficit = cloneInt(in.TargetKcalDeficit)
	out.DietaryRestrictions = append([]string(nil), in.DietaryRestrictions...)
	out.Allergies = append([]string(nil), in.Allergies...)
	return out
}
