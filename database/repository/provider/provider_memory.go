package providerRepo

import (
	"context"
	"sync"

	"fadetogo/models"
)

// MemoryProviderRepo is an in-process ProviderRepository.
type MemoryProviderRepo struct {
	mu       sync.RWMutex
	settings map[string]*models.ProviderSettings
}

func NewMemoryProviderRepo() *MemoryProviderRepo {
	return &MemoryProviderRepo{settings: make(map[string]*models.ProviderSettings)}
}

func cloneSettings(s *models.ProviderSettings) *models.ProviderSettings {
	out := *s
	out.WorkingHours = make(map[string]models.WorkingHours, len(s.WorkingHours))
	for k, v := range s.WorkingHours {
		out.WorkingHours[k] = v
	}
	out.Services = append([]models.Service(nil), s.Services...)
	out.BaseLocation.Coordinates = append([]float64(nil), s.BaseLocation.Coordinates...)
	return &out
}

func (r *MemoryProviderRepo) GetSettings(ctx context.Context, providerID string) (*models.ProviderSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[providerID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSettings(s), nil
}

func (r *MemoryProviderRepo) UpsertSettings(ctx context.Context, settings *models.ProviderSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneSettings(settings)
	if existing, ok := r.settings[settings.ProviderID]; ok {
		stored.Services = existing.Services
	}
	r.settings[settings.ProviderID] = stored
	return nil
}

func (r *MemoryProviderRepo) AddService(ctx context.Context, providerID string, svc models.Service) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[providerID]
	if !ok {
		return ErrNotFound
	}
	s.Services = append(s.Services, svc)
	return nil
}
