package memory

import (
	"context"
	"sync"

	"pet-adoption-match/internal/domain/settings"
)

type settingsRepo struct {
	mu  sync.RWMutex
	rec *settings.Settings
}

func NewSettingsRepo() settings.Repository {
	return &settingsRepo{}
}

func (r *settingsRepo) Get(ctx context.Context) (settings.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.rec == nil {
		return settings.Settings{}, ErrNotFound
	}
	return *r.rec, nil
}

func (r *settingsRepo) Save(ctx context.Context, s settings.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = settings.SingletonID
	}
	cp := s
	r.rec = &cp
	return nil
}
