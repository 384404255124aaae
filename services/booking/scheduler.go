package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	schedulerRepo "fadetogo/database/repository/scheduler"
	"fadetogo/models"
	"fadetogo/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds how often a conditional write is retried after
// an unrelated change to the same provider's schedule. Running out of
// attempts is reported as a retryable store error.
const DefaultMaxAttempts = 3

// Scheduler grants appointment windows without letting two accepted bookings
// of one provider overlap. It holds no locks of its own: atomicity comes from
// the store's version-conditioned writes.
type Scheduler struct {
	Repo        schedulerRepo.SchedulerRepository
	MaxAttempts int
	Now         func() time.Time
	NewID       func() string
}

func NewScheduler(repo schedulerRepo.SchedulerRepository, maxAttempts int) *Scheduler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Scheduler{
		Repo:        repo,
		MaxAttempts: maxAttempts,
		Now:         func() time.Time { return time.Now().UTC() },
		NewID:       func() string { return uuid.New().String() },
	}
}

func interval(start time.Time, totalMinutes int) (time.Time, time.Time) {
	start = start.UTC()
	return start, start.Add(time.Duration(totalMinutes) * time.Minute)
}

// IsSlotAvailable reports whether [start, start+totalMinutes) is free of
// accepted bookings. Any store failure yields false.
func (s *Scheduler) IsSlotAvailable(ctx context.Context, providerID string, start time.Time, totalMinutes int) bool {
	schedule, err := s.Repo.ListAcceptedBookings(ctx, providerID)
	if err != nil {
		utils.GetLogger().Warn("Slot check failed, treating as unavailable",
			zap.String("providerId", providerID), zap.Error(err))
		return false
	}
	from, to := interval(start, totalMinutes)
	return !overlapsAny(schedule.Slots, from, to, "")
}

func validateCandidate(b *models.Booking) error {
	switch {
	case strings.TrimSpace(b.ProviderID) == "":
		return models.NewSchedulingError(models.KindInvalidRequest, "providerId is required", nil)
	case strings.TrimSpace(b.CustomerID) == "":
		return models.NewSchedulingError(models.KindInvalidRequest, "customerId is required", nil)
	case b.ScheduledStart.IsZero():
		return models.NewSchedulingError(models.KindInvalidRequest, "scheduledStart is required", nil)
	case b.ServiceDurationMinutes < 0 || b.TravelTimeMinutes < 0 || b.BufferMinutes < 0:
		return models.NewSchedulingError(models.KindInvalidRequest, "durations must not be negative", nil)
	case b.TotalDurationMinutes <= 0:
		return models.NewSchedulingError(models.KindInvalidRequest, "total duration must be positive", nil)
	}
	return nil
}

// CreateBooking re-checks the candidate window against the committed
// schedule and persists it as pending in one conditional write. On success
// the candidate is updated with its id, status, timestamps and schedule
// version. A concurrent write that claims an overlapping interval between
// the check and the write yields SlotTaken.
func (s *Scheduler) CreateBooking(ctx context.Context, candidate *models.Booking) (string, error) {
	logger := utils.GetLogger()
	if err := validateCandidate(candidate); err != nil {
		return "", err
	}

	b := *candidate
	b.ID = s.NewID()
	b.Status = models.StatusPending
	b.ScheduledStart = b.ScheduledStart.UTC()
	b.CreatedAt = s.Now()
	b.UpdatedAt = b.CreatedAt
	start, end := interval(b.ScheduledStart, b.TotalDurationMinutes)

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		schedule, err := s.Repo.ListAcceptedBookings(ctx, b.ProviderID)
		if err != nil {
			return "", models.StoreFailure("load committed schedule", err)
		}
		if overlapsAny(schedule.Slots, start, end, "") {
			return "", models.NewSchedulingError(models.KindSlotTaken,
				fmt.Sprintf("provider %s is booked at %s", b.ProviderID, start.Format(time.RFC3339)), nil)
		}

		err = s.Repo.InsertIfAbsent(ctx, &b, schedule.Version)
		switch {
		case err == nil:
			logger.Info("Booking created",
				zap.String("bookingId", b.ID),
				zap.String("providerId", b.ProviderID),
				zap.Time("start", start),
				zap.Int("attempt", attempt))
			*candidate = b
			return b.ID, nil

		case errors.Is(err, schedulerRepo.ErrVersionConflict):
			changed, listErr := s.Repo.ListChangedSince(ctx, b.ProviderID, schedule.Version)
			if listErr != nil {
				return "", models.StoreFailure("load concurrent changes", listErr)
			}
			for i := range changed {
				if blocksCandidate(&changed[i], start, end, b.ID) {
					logger.Info("Booking lost race for slot",
						zap.String("providerId", b.ProviderID),
						zap.String("winner", changed[i].ID))
					return "", models.NewSchedulingError(models.KindSlotTaken,
						fmt.Sprintf("slot was claimed by a concurrent request for provider %s", b.ProviderID), nil)
				}
			}
			logger.Debug("Schedule changed elsewhere, retrying",
				zap.String("providerId", b.ProviderID), zap.Int("attempt", attempt))

		case errors.Is(err, schedulerRepo.ErrDuplicateBooking):
			b.ID = s.NewID()

		default:
			return "", models.StoreFailure("persist booking", err)
		}
	}

	// Every conflict was an unrelated write, so the slot is still free.
	logger.Warn("Schedule contention exhausted retries",
		zap.String("providerId", b.ProviderID), zap.Int("attempts", s.MaxAttempts))
	return "", models.NewSchedulingError(models.KindStoreError,
		fmt.Sprintf("schedule for provider %s is busy, retry shortly", b.ProviderID), nil)
}

// UpdateStatus applies one legal lifecycle transition. Acceptance is re-checked
// against the committed schedule and written conditionally, so it can fail
// with SlotTaken.
func (s *Scheduler) UpdateStatus(ctx context.Context, bookingID string, next models.BookingStatus) (*models.Booking, error) {
	logger := utils.GetLogger()

	current, err := s.Repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, translateRepoError(err, bookingID, "load booking")
	}
	if !current.Status.CanTransitionTo(next) {
		logger.Warn("Rejected booking status transition",
			zap.String("bookingId", bookingID),
			zap.String("from", string(current.Status)),
			zap.String("to", string(next)))
		return nil, models.NewSchedulingError(models.KindInvalidTransition,
			fmt.Sprintf("cannot move booking from %s to %s", current.Status, next), nil)
	}

	if next != models.StatusAccepted {
		updated, err := s.Repo.UpdateStatus(ctx, bookingID, current.Status, next, s.Now())
		if err != nil {
			return nil, translateRepoError(err, bookingID, "update booking status")
		}
		return updated, nil
	}
	return s.accept(ctx, current)
}

func (s *Scheduler) accept(ctx context.Context, current *models.Booking) (*models.Booking, error) {
	start, end := interval(current.ScheduledStart, current.TotalDurationMinutes)

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		schedule, err := s.Repo.ListAcceptedBookings(ctx, current.ProviderID)
		if err != nil {
			return nil, models.StoreFailure("load committed schedule", err)
		}
		if overlapsAny(schedule.Slots, start, end, current.ID) {
			return nil, models.NewSchedulingError(models.KindSlotTaken,
				fmt.Sprintf("provider %s already accepted a booking overlapping %s", current.ProviderID, start.Format(time.RFC3339)), nil)
		}

		accepted, err := s.Repo.AcceptIfUnchanged(ctx, current.ID, schedule.Version, s.Now())
		if err == nil {
			utils.GetLogger().Info("Booking accepted",
				zap.String("bookingId", current.ID),
				zap.String("providerId", current.ProviderID),
				zap.Int("attempt", attempt))
			return accepted, nil
		}
		if !errors.Is(err, schedulerRepo.ErrVersionConflict) {
			return nil, translateRepoError(err, current.ID, "accept booking")
		}
	}

	return nil, models.NewSchedulingError(models.KindStoreError,
		fmt.Sprintf("schedule for provider %s is busy, retry acceptance shortly", current.ProviderID), nil)
}

// translateRepoError maps store sentinels onto the public error kinds.
func translateRepoError(err error, bookingID, op string) error {
	switch {
	case errors.Is(err, schedulerRepo.ErrNotFound):
		return models.NewSchedulingError(models.KindNotFound, fmt.Sprintf("booking %s not found", bookingID), nil)
	case errors.Is(err, schedulerRepo.ErrStatusConflict):
		utils.GetLogger().Warn("Booking status changed concurrently", zap.String("bookingId", bookingID))
		return models.NewSchedulingError(models.KindInvalidTransition,
			fmt.Sprintf("booking %s changed status concurrently", bookingID), nil)
	default:
		return models.StoreFailure(op, err)
	}
}

// FreeSlots lists start times in [windowStart, windowEnd) at which a booking
// of durationMinutes would not overlap an accepted booking.
func (s *Scheduler) FreeSlots(ctx context.Context, providerID string, windowStart, windowEnd time.Time, durationMinutes int, step time.Duration) ([]time.Time, error) {
	schedule, err := s.Repo.ListAcceptedBookings(ctx, providerID)
	if err != nil {
		return nil, models.StoreFailure("load committed schedule", err)
	}
	duration := time.Duration(durationMinutes) * time.Minute
	return AvailableSlots(windowStart, windowEnd, duration, step, schedule.Slots, s.Now()), nil
}
