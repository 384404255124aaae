package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fadetogo/config"
	"fadetogo/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresPool is set by InitPostgres when STORE_DRIVER=postgres.
var PostgresPool *pgxpool.Pool

// InitPostgres opens the pool and applies pending migrations.
func InitPostgres(ctx context.Context) error {
	logger := utils.GetLogger()
	url := config.AppConfig.PostgresURL

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("error parsing Postgres config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping Postgres: %w", err)
	}

	if err := runMigrations(url, config.AppConfig.MigrationsPath); err != nil {
		pool.Close()
		return err
	}

	PostgresPool = pool
	logger.Info("Postgres connected")
	return nil
}

func runMigrations(url, path string) error {
	logger := utils.GetLogger()
	m, err := migrate.New("file://"+path, url)
	if err != nil {
		return fmt.Errorf("migration init error: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to apply")
			return nil
		}
		return fmt.Errorf("migration up error: %w", err)
	}
	version, _, _ := m.Version()
	logger.Info("migrations applied", zap.Uint("version", version))
	return nil
}

// ClosePostgres closes the pool, if open.
func ClosePostgres() {
	if PostgresPool != nil {
		PostgresPool.Close()
	}
}
