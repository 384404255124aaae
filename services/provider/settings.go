package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	providerRepo "fadetogo/database/repository/provider"
	"fadetogo/models"
	"fadetogo/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettingsService manages provider pricing, availability and catalogue.
// Every write is validated here, so the pricing engine only ever sees a
// well-formed configuration.
type SettingsService interface {
	GetSettings(ctx context.Context, providerID string) (*models.ProviderSettings, error)
	UpdateSettings(ctx context.Context, settings *models.ProviderSettings) (*models.ProviderSettings, error)
	UpdatePricing(ctx context.Context, providerID string, cfg models.PricingConfig) (*models.ProviderSettings, error)
	AddService(ctx context.Context, providerID string, svc models.Service) (*models.Service, error)
	ListServices(ctx context.Context, providerID string) ([]models.Service, error)
}

type DefaultSettingsService struct {
	Repo  providerRepo.ProviderRepository
	Now   func() time.Time
	NewID func() string
}

func NewSettingsService(repo providerRepo.ProviderRepository) *DefaultSettingsService {
	return &DefaultSettingsService{
		Repo:  repo,
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: func() string { return uuid.New().String() },
	}
}

func (s *DefaultSettingsService) GetSettings(ctx context.Context, providerID string) (*models.ProviderSettings, error) {
	settings, err := s.Repo.GetSettings(ctx, providerID)
	if errors.Is(err, providerRepo.ErrNotFound) {
		return nil, models.NewSchedulingError(models.KindNotFound, fmt.Sprintf("provider %s has no settings", providerID), nil)
	}
	if err != nil {
		return nil, models.StoreFailure("load provider settings", err)
	}
	return settings, nil
}

// loadOrDefault returns stored settings, or defaults for a first write.
func (s *DefaultSettingsService) loadOrDefault(ctx context.Context, providerID string) (*models.ProviderSettings, error) {
	settings, err := s.Repo.GetSettings(ctx, providerID)
	if errors.Is(err, providerRepo.ErrNotFound) {
		return models.NewProviderSettings(providerID), nil
	}
	if err != nil {
		return nil, models.StoreFailure("load provider settings", err)
	}
	return settings, nil
}

func (s *DefaultSettingsService) UpdateSettings(ctx context.Context, settings *models.ProviderSettings) (*models.ProviderSettings, error) {
	if settings.WorkingHours == nil {
		settings.WorkingHours = map[string]models.WorkingHours{}
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.loadOrDefault(ctx, settings.ProviderID)
	if err != nil {
		return nil, err
	}

	settings.Services = existing.Services
	settings.UpdatedAt = s.Now()
	if err := s.Repo.UpsertSettings(ctx, settings); err != nil {
		return nil, models.StoreFailure("save provider settings", err)
	}
	utils.GetLogger().Info("Provider settings updated",
		zap.String("providerId", settings.ProviderID),
		zap.Bool("isAvailable", settings.IsAvailable))
	return settings, nil
}

func (s *DefaultSettingsService) UpdatePricing(ctx context.Context, providerID string, cfg models.PricingConfig) (*models.ProviderSettings, error) {
	if err := cfg.Validate(); err != nil {
		utils.GetLogger().Warn("Rejected pricing configuration",
			zap.String("providerId", providerID), zap.Error(err))
		return nil, err
	}
	settings, err := s.loadOrDefault(ctx, providerID)
	if err != nil {
		return nil, err
	}
	settings.Pricing = cfg
	settings.UpdatedAt = s.Now()
	if err := s.Repo.UpsertSettings(ctx, settings); err != nil {
		return nil, models.StoreFailure("save pricing", err)
	}
	return settings, nil
}

func (s *DefaultSettingsService) AddService(ctx context.Context, providerID string, svc models.Service) (*models.Service, error) {
	svc.Name = strings.TrimSpace(svc.Name)
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	svc.ID = s.NewID()

	err := s.Repo.AddService(ctx, providerID, svc)
	if errors.Is(err, providerRepo.ErrNotFound) {
		return nil, models.NewSchedulingError(models.KindNotFound, fmt.Sprintf("provider %s has no settings", providerID), nil)
	}
	if err != nil {
		return nil, models.StoreFailure("add service", err)
	}
	return &svc, nil
}

func (s *DefaultSettingsService) ListServices(ctx context.Context, providerID string) ([]models.Service, error) {
	settings, err := s.GetSettings(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return settings.Services, nil
}
