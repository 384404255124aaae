package schedulerRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"fadetogo/models"
)

// providerCalendar is one provider's bookings behind its own lock, so
// different providers never contend.
type providerCalendar struct {
	mu       sync.Mutex
	version  int64
	bookings map[string]*models.Booking
}

// MemorySchedulerRepo is an in-process SchedulerRepository used for tests and
// STORE_DRIVER=memory.
type MemorySchedulerRepo struct {
	mu        sync.RWMutex
	calendars map[string]*providerCalendar
	owners    map[string]string // bookingID -> providerID
}

func NewMemorySchedulerRepo() *MemorySchedulerRepo {
	return &MemorySchedulerRepo{
		calendars: make(map[string]*providerCalendar),
		owners:    make(map[string]string),
	}
}

func (r *MemorySchedulerRepo) calendar(providerID string) *providerCalendar {
	r.mu.RLock()
	cal, ok := r.calendars[providerID]
	r.mu.RUnlock()
	if ok {
		return cal
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cal, ok = r.calendars[providerID]; !ok {
		cal = &providerCalendar{bookings: make(map[string]*models.Booking)}
		r.calendars[providerID] = cal
	}
	return cal
}

func (r *MemorySchedulerRepo) calendarFor(bookingID string) (*providerCalendar, bool) {
	r.mu.RLock()
	providerID, ok := r.owners[bookingID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.calendar(providerID), true
}

func (r *MemorySchedulerRepo) ListAcceptedBookings(ctx context.Context, providerID string) (*models.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal := r.calendar(providerID)
	cal.mu.Lock()
	defer cal.mu.Unlock()

	schedule := &models.Schedule{ProviderID: providerID, Version: cal.version, Slots: []models.Slot{}}
	for _, b := range cal.bookings {
		if b.Status == models.StatusAccepted {
			schedule.Slots = append(schedule.Slots, b.Slot())
		}
	}
	sort.Slice(schedule.Slots, func(i, j int) bool {
		return schedule.Slots[i].Start.Before(schedule.Slots[j].Start)
	})
	return schedule, nil
}

func (r *MemorySchedulerRepo) ListChangedSince(ctx context.Context, providerID string, version int64) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal := r.calendar(providerID)
	cal.mu.Lock()
	defer cal.mu.Unlock()

	var changed []models.Booking
	for _, b := range cal.bookings {
		if b.ScheduleVersion > version {
			changed = append(changed, *b)
		}
	}
	return changed, nil
}

func (r *MemorySchedulerRepo) InsertIfAbsent(ctx context.Context, booking *models.Booking, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	if _, exists := r.owners[booking.ID]; exists {
		r.mu.Unlock()
		return ErrDuplicateBooking
	}
	r.mu.Unlock()

	cal := r.calendar(booking.ProviderID)
	cal.mu.Lock()
	defer cal.mu.Unlock()
	if cal.version != expectedVersion {
		return ErrVersionConflict
	}

	r.mu.Lock()
	if _, exists := r.owners[booking.ID]; exists {
		r.mu.Unlock()
		return ErrDuplicateBooking
	}
	r.owners[booking.ID] = booking.ProviderID
	r.mu.Unlock()

	cal.version++
	booking.ScheduleVersion = cal.version
	stored := *booking
	cal.bookings[booking.ID] = &stored
	return nil
}

func (r *MemorySchedulerRepo) AcceptIfUnchanged(ctx context.Context, bookingID string, expectedVersion int64, at time.Time) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal, ok := r.calendarFor(bookingID)
	if !ok {
		return nil, ErrNotFound
	}
	cal.mu.Lock()
	defer cal.mu.Unlock()

	b := cal.bookings[bookingID]
	if b.Status != models.StatusPending {
		return nil, ErrStatusConflict
	}
	if cal.version != expectedVersion {
		return nil, ErrVersionConflict
	}
	cal.version++
	b.Status = models.StatusAccepted
	b.ScheduleVersion = cal.version
	b.UpdatedAt = at
	out := *b
	return &out, nil
}

func (r *MemorySchedulerRepo) UpdateStatus(ctx context.Context, bookingID string, from, to models.BookingStatus, at time.Time) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal, ok := r.calendarFor(bookingID)
	if !ok {
		return nil, ErrNotFound
	}
	cal.mu.Lock()
	defer cal.mu.Unlock()

	b := cal.bookings[bookingID]
	if b.Status != from {
		return nil, ErrStatusConflict
	}
	b.Status = to
	b.UpdatedAt = at
	out := *b
	return &out, nil
}

func (r *MemorySchedulerRepo) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal, ok := r.calendarFor(bookingID)
	if !ok {
		return nil, ErrNotFound
	}
	cal.mu.Lock()
	defer cal.mu.Unlock()
	out := *cal.bookings[bookingID]
	return &out, nil
}

func (r *MemorySchedulerRepo) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	calendars := make([]*providerCalendar, 0, len(r.calendars))
	for providerID, cal := range r.calendars {
		if filter.ProviderID == "" || filter.ProviderID == providerID {
			calendars = append(calendars, cal)
		}
	}
	r.mu.RUnlock()

	var out []models.Booking
	for _, cal := range calendars {
		cal.mu.Lock()
		for _, b := range cal.bookings {
			if filter.Matches(b) {
				out = append(out, *b)
			}
		}
		cal.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledStart.Before(out[j].ScheduledStart)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
