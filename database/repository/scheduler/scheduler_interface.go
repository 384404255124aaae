package schedulerRepo

import (
	"context"
	"errors"
	"time"

	"fadetogo/models"
)

var (
	// ErrVersionConflict means the provider's schedule changed since expectedVersion was read.
	ErrVersionConflict = errors.New("schedule version conflict")
	// ErrNotFound means no booking has the given id.
	ErrNotFound = errors.New("booking not found")
	// ErrStatusConflict means the booking is no longer in the status the caller expected.
	ErrStatusConflict = errors.New("booking status changed concurrently")
	// ErrDuplicateBooking means a booking with the same id already exists.
	ErrDuplicateBooking = errors.New("booking id already exists")
)

// SchedulerRepository is the booking store. Every provider carries a schedule
// version that is bumped by each insert and each acceptance; the conditional
// writes compare against it so that a check-then-write is atomic.
type SchedulerRepository interface {
	// ListAcceptedBookings returns the provider's accepted slots ordered by
	// start, together with the schedule version they were read at.
	ListAcceptedBookings(ctx context.Context, providerID string) (*models.Schedule, error)

	// ListChangedSince returns the provider's bookings whose last
	// schedule-affecting write happened after version.
	ListChangedSince(ctx context.Context, providerID string, version int64) ([]models.Booking, error)

	// InsertIfAbsent stores booking and bumps the provider's version only if
	// the version still equals expectedVersion. On success booking.ScheduleVersion
	// holds the new version. Returns ErrVersionConflict or ErrDuplicateBooking.
	InsertIfAbsent(ctx context.Context, booking *models.Booking, expectedVersion int64) error

	// AcceptIfUnchanged moves a pending booking to accepted and bumps the
	// provider's version only if it still equals expectedVersion. Returns
	// ErrVersionConflict, ErrStatusConflict or ErrNotFound.
	AcceptIfUnchanged(ctx context.Context, bookingID string, expectedVersion int64, at time.Time) (*models.Booking, error)

	// UpdateStatus compares-and-sets the status from -> to. Returns
	// ErrStatusConflict or ErrNotFound.
	UpdateStatus(ctx context.Context, bookingID string, from, to models.BookingStatus, at time.Time) (*models.Booking, error)

	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
}
