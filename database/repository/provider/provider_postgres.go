package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fadetogo/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProviderRepo implements ProviderRepository on PostgreSQL.
type PostgresProviderRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProviderRepo(pool *pgxpool.Pool) *PostgresProviderRepo {
	return &PostgresProviderRepo{pool: pool}
}

func (r *PostgresProviderRepo) GetSettings(ctx context.Context, providerID string) (*models.ProviderSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s := models.ProviderSettings{ProviderID: providerID, Services: []models.Service{}}
	var lat, lng *float64
	var costPerMile int64
	err := r.pool.QueryRow(ctx, `
		SELECT base_lat, base_lng, base_radius_miles, max_radius_miles, cost_per_mile_cents,
			buffer_minutes, working_hours, is_available, timezone, updated_at
		FROM provider_settings
		WHERE provider_id = $1
	`, providerID).Scan(
		&lat, &lng,
		&s.Pricing.BaseRadiusMiles, &s.Pricing.MaxRadiusMiles, &costPerMile,
		&s.Pricing.BufferMinutes, &s.WorkingHours, &s.IsAvailable, &s.Timezone, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings for provider %s: %w", providerID, err)
	}
	s.Pricing.CostPerMile = models.Cents(costPerMile)
	if lat != nil && lng != nil {
		s.BaseLocation = models.Location{Latitude: *lat, Longitude: *lng}.ToGeoPoint()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, price_cents, duration_minutes
		FROM provider_services
		WHERE provider_id = $1
		ORDER BY created_at ASC
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch services for provider %s: %w", providerID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var svc models.Service
		var price int64
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &price, &svc.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		svc.Price = models.Cents(price)
		s.Services = append(s.Services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return &s, nil
}

func (r *PostgresProviderRepo) UpsertSettings(ctx context.Context, s *models.ProviderSettings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var lat, lng *float64
	if s.HasBaseLocation() {
		loc := s.BaseLocation.Location()
		lat, lng = &loc.Latitude, &loc.Longitude
	}
	workingHours := s.WorkingHours
	if workingHours == nil {
		workingHours = map[string]models.WorkingHours{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO provider_settings
			(provider_id, base_lat, base_lng, base_radius_miles, max_radius_miles, cost_per_mile_cents,
			 buffer_minutes, working_hours, is_available, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (provider_id) DO UPDATE SET
			base_lat = EXCLUDED.base_lat,
			base_lng = EXCLUDED.base_lng,
			base_radius_miles = EXCLUDED.base_radius_miles,
			max_radius_miles = EXCLUDED.max_radius_miles,
			cost_per_mile_cents = EXCLUDED.cost_per_mile_cents,
			buffer_minutes = EXCLUDED.buffer_minutes,
			working_hours = EXCLUDED.working_hours,
			is_available = EXCLUDED.is_available,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at
	`, s.ProviderID, lat, lng, s.Pricing.BaseRadiusMiles, s.Pricing.MaxRadiusMiles, int64(s.Pricing.CostPerMile),
		s.Pricing.BufferMinutes, workingHours, s.IsAvailable, s.Timezone, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert settings for provider %s: %w", s.ProviderID, err)
	}
	return nil
}

func (r *PostgresProviderRepo) AddService(ctx context.Context, providerID string, svc models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO provider_services (id, provider_id, name, description, price_cents, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, svc.ID, providerID, svc.Name, svc.Description, int64(svc.Price), svc.DurationMinutes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add service for provider %s: %w", providerID, err)
	}
	return nil
}
