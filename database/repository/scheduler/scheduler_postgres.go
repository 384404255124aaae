package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fadetogo/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, customer_id, customer_name, provider_id, service_id, service_name,
	scheduled_start, service_duration_minutes, travel_time_minutes, buffer_minutes, total_duration_minutes,
	customer_lat, customer_lng, customer_address, distance_miles,
	base_price_cents, travel_surcharge_cents, total_price_cents,
	status, schedule_version, created_at, updated_at`

// PostgresSchedulerRepo implements SchedulerRepository on PostgreSQL. The
// provider_schedules row is the compare-and-swap target; concurrent writers
// serialise on its row lock.
type PostgresSchedulerRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresSchedulerRepo(pool *pgxpool.Pool) *PostgresSchedulerRepo {
	return &PostgresSchedulerRepo{pool: pool, timeout: defaultStoreTimeout}
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.CustomerName, &b.ProviderID, &b.ServiceID, &b.ServiceName,
		&b.ScheduledStart, &b.ServiceDurationMinutes, &b.TravelTimeMinutes, &b.BufferMinutes, &b.TotalDurationMinutes,
		&b.CustomerLocation.Latitude, &b.CustomerLocation.Longitude, &b.CustomerAddress, &b.DistanceMiles,
		&b.BasePrice, &b.TravelSurcharge, &b.TotalPrice,
		&status, &b.ScheduleVersion, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	b.ScheduledStart = b.ScheduledStart.UTC()
	return &b, nil
}

func (r *PostgresSchedulerRepo) queryBookings(ctx context.Context, sql string, args ...any) ([]models.Booking, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresSchedulerRepo) ListAcceptedBookings(ctx context.Context, providerID string) (*models.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("error starting read transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	schedule := &models.Schedule{ProviderID: providerID, Slots: []models.Slot{}}
	err = tx.QueryRow(ctx, `SELECT version FROM provider_schedules WHERE provider_id = $1`, providerID).Scan(&schedule.Version)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("error fetching schedule version for provider %s: %w", providerID, err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, scheduled_start, total_duration_minutes
		FROM bookings
		WHERE provider_id = $1 AND status = 'accepted'
		ORDER BY scheduled_start ASC
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("error finding accepted bookings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s models.Slot
		if err := rows.Scan(&s.BookingID, &s.Start, &s.DurationMinutes); err != nil {
			return nil, fmt.Errorf("error scanning slot: %w", err)
		}
		s.Start = s.Start.UTC()
		schedule.Slots = append(schedule.Slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return schedule, nil
}

func (r *PostgresSchedulerRepo) ListChangedSince(ctx context.Context, providerID string, version int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.queryBookings(ctx, `SELECT `+bookingColumns+`
		FROM bookings
		WHERE provider_id = $1 AND schedule_version > $2
	`, providerID, version)
}

// bumpVersion advances provider_schedules.version from expectedVersion. The
// update blocks behind any concurrent writer and then re-evaluates the WHERE
// clause, so only one of them sees a returned row.
func bumpVersion(ctx context.Context, tx pgx.Tx, providerID string, expectedVersion int64) (int64, error) {
	var newVersion int64
	err := tx.QueryRow(ctx, `
		INSERT INTO provider_schedules (provider_id, version)
		VALUES ($1, 1)
		ON CONFLICT (provider_id) DO UPDATE
			SET version = provider_schedules.version + 1
			WHERE provider_schedules.version = $2
		RETURNING version
	`, providerID, expectedVersion).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, fmt.Errorf("error bumping schedule version: %w", err)
	}
	if newVersion != expectedVersion+1 {
		return 0, ErrVersionConflict
	}
	return newVersion, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresSchedulerRepo) InsertIfAbsent(ctx context.Context, booking *models.Booking, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	newVersion, err := bumpVersion(ctx, tx, booking.ProviderID, expectedVersion)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`, booking.ID, booking.CustomerID, booking.CustomerName, booking.ProviderID, booking.ServiceID, booking.ServiceName,
		booking.ScheduledStart, booking.ServiceDurationMinutes, booking.TravelTimeMinutes, booking.BufferMinutes, booking.TotalDurationMinutes,
		booking.CustomerLocation.Latitude, booking.CustomerLocation.Longitude, booking.CustomerAddress, booking.DistanceMiles,
		int64(booking.BasePrice), int64(booking.TravelSurcharge), int64(booking.TotalPrice),
		string(booking.Status), newVersion, booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking failed: %w", err)
	}
	booking.ScheduleVersion = newVersion
	return nil
}

func (r *PostgresSchedulerRepo) AcceptIfUnchanged(ctx context.Context, bookingID string, expectedVersion int64, at time.Time) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var providerID, status string
	err = tx.QueryRow(ctx, `SELECT provider_id, status FROM bookings WHERE id = $1`, bookingID).Scan(&providerID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking with id %s: %w", bookingID, err)
	}

	newVersion, err := bumpVersion(ctx, tx, providerID, expectedVersion)
	if err != nil {
		return nil, err
	}

	accepted, err := scanBooking(tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'accepted', schedule_version = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+bookingColumns, bookingID, newVersion, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("error accepting booking %s: %w", bookingID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit acceptance failed: %w", err)
	}
	return accepted, nil
}

func (r *PostgresSchedulerRepo) UpdateStatus(ctx context.Context, bookingID string, from, to models.BookingStatus, at time.Time) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	updated, err := scanBooking(r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+bookingColumns, bookingID, string(from), string(to), at))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("error updating booking %s: %w", bookingID, err)
	}
	if _, getErr := r.GetBooking(ctx, bookingID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusConflict
}

func (r *PostgresSchedulerRepo) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking with id %s: %w", bookingID, err)
	}
	return b, nil
}

func (r *PostgresSchedulerRepo) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.CustomerID != "" {
		add("customer_id", filter.CustomerID)
	}
	if filter.ProviderID != "" {
		add("provider_id", filter.ProviderID)
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}

	sql := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY scheduled_start ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.queryBookings(ctx, sql, args...)
}
