package providerRepo

import (
	"context"
	"errors"

	"fadetogo/models"
)

// ErrNotFound means the provider has no stored settings.
var ErrNotFound = errors.New("provider settings not found")

// ProviderRepository stores provider settings and service catalogues.
type ProviderRepository interface {
	// GetSettings retrieves a provider's settings, including its services.
	GetSettings(ctx context.Context, providerID string) (*models.ProviderSettings, error)
	// UpsertSettings creates or replaces a provider's settings. The services
	// catalogue is left untouched on update.
	UpsertSettings(ctx context.Context, settings *models.ProviderSettings) error
	// AddService appends a catalogue entry. Returns ErrNotFound when the
	// provider has no settings yet.
	AddService(ctx context.Context, providerID string, svc models.Service) error
}
