package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	schedulerRepo "fadetogo/database/repository/scheduler"
	"fadetogo/models"
)

var day = time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func candidate(providerID string, start time.Time, minutes int) *models.Booking {
	return &models.Booking{
		CustomerID:             "customer-1",
		ProviderID:             providerID,
		ScheduledStart:         start,
		ServiceDurationMinutes: minutes,
		TotalDurationMinutes:   minutes,
	}
}

func mustAccept(t *testing.T, s *Scheduler, providerID string, start time.Time, minutes int) string {
	t.Helper()
	id, err := s.CreateBooking(context.Background(), candidate(providerID, start, minutes))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.UpdateStatus(context.Background(), id, models.StatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	return id
}

func TestCreateBookingRespectsAcceptedSlots(t *testing.T) {
	s := NewScheduler(schedulerRepo.NewMemorySchedulerRepo(), 0)
	mustAccept(t, s, "p1", at(14, 0), 60)

	_, err := s.CreateBooking(context.Background(), candidate("p1", at(14, 30), 45))
	if !errors.Is(err, models.ErrSlotTaken) {
		t.Fatalf("expected SlotTaken for 14:30-15:15, got %v", err)
	}

	b := candidate("p1", at(15, 0), 45)
	id, err := s.CreateBooking(context.Background(), b)
	if err != nil {
		t.Fatalf("adjacent 15:00-15:45 should be accepted: %v", err)
	}
	if id == "" || b.ID != id || b.Status != models.StatusPending || b.CreatedAt.IsZero() {
		t.Fatalf("candidate not filled in: %+v", b)
	}
}

func TestPendingBookingsDoNotBlockEachOther(t *testing.T) {
	s := NewScheduler(schedulerRepo.NewMemorySchedulerRepo(), 0)
	first, err := s.CreateBooking(context.Background(), candidate("p1", at(10, 0), 60))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := s.CreateBooking(context.Background(), candidate("p1", at(10, 0), 60))
	if err != nil {
		t.Fatalf("second pending request for the same slot should be stored: %v", err)
	}

	if _, err := s.UpdateStatus(context.Background(), first, models.StatusAccepted); err != nil {
		t.Fatalf("accept first: %v", err)
	}
	_, err = s.UpdateStatus(context.Background(), second, models.StatusAccepted)
	if !errors.Is(err, models.ErrSlotTaken) {
		t.Fatalf("accepting an overlapping booking should fail with SlotTaken, got %v", err)
	}
	if _, err := s.UpdateStatus(context.Background(), second, models.StatusDeclined); err != nil {
		t.Fatalf("decline second: %v", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	s := NewScheduler(schedulerRepo.NewMemorySchedulerRepo(), 0)
	id, err := s.CreateBooking(context.Background(), candidate("p1", at(9, 0), 30))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.UpdateStatus(context.Background(), id, models.StatusCompleted); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("pending -> completed should be rejected, got %v", err)
	}
	if _, err := s.UpdateStatus(context.Background(), id, models.StatusDeclined); err != nil {
		t.Fatalf("pending -> declined: %v", err)
	}
	if _, err := s.UpdateStatus(context.Background(), id, models.StatusAccepted); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("declined is terminal, got %v", err)
	}
	if _, err := s.UpdateStatus(context.Background(), "missing", models.StatusAccepted); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCreateBookingRejectsBadCandidates(t *testing.T) {
	s := NewScheduler(schedulerRepo.NewMemorySchedulerRepo(), 0)
	cases := map[string]*models.Booking{
		"no provider": candidate("", at(9, 0), 30),
		"no start":    candidate("p1", time.Time{}, 30),
		"zero length": candidate("p1", at(9, 0), 0),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := s.CreateBooking(context.Background(), b); !errors.Is(err, models.ErrInvalidRequest) {
				t.Fatalf("expected InvalidRequest, got %v", err)
			}
		})
	}
}

type failingRepo struct {
	*schedulerRepo.MemorySchedulerRepo
}

func (failingRepo) ListAcceptedBookings(context.Context, string) (*models.Schedule, error) {
	return nil, errors.New("connection refused")
}

func TestStoreFailures(t *testing.T) {
	s := NewScheduler(failingRepo{schedulerRepo.NewMemorySchedulerRepo()}, 0)

	if s.IsSlotAvailable(context.Background(), "p1", at(9, 0), 30) {
		t.Fatal("slot check must fail closed")
	}
	_, err := s.CreateBooking(context.Background(), candidate("p1", at(9, 0), 30))
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	var se *models.SchedulingError
	if !errors.As(err, &se) || !se.Retryable() {
		t.Fatalf("store failures should be retryable, got %v", err)
	}
}

// churnRepo commits an unrelated evening booking for the same provider just
// before every conditional write, so each write sees a version conflict.
type churnRepo struct {
	*schedulerRepo.MemorySchedulerRepo
	writes int
}

func (r *churnRepo) churn(ctx context.Context, providerID string) error {
	schedule, err := r.MemorySchedulerRepo.ListAcceptedBookings(ctx, providerID)
	if err != nil {
		return err
	}
	r.writes++
	other := candidate(providerID, at(18, r.writes), 1)
	other.ID = fmt.Sprintf("churn-%d", r.writes)
	other.Status = models.StatusPending
	return r.MemorySchedulerRepo.InsertIfAbsent(ctx, other, schedule.Version)
}

func (r *churnRepo) InsertIfAbsent(ctx context.Context, b *models.Booking, expectedVersion int64) error {
	if err := r.churn(ctx, b.ProviderID); err != nil {
		return err
	}
	return r.MemorySchedulerRepo.InsertIfAbsent(ctx, b, expectedVersion)
}

func (r *churnRepo) AcceptIfUnchanged(ctx context.Context, bookingID string, expectedVersion int64, now time.Time) (*models.Booking, error) {
	if err := r.churn(ctx, "p1"); err != nil {
		return nil, err
	}
	return r.MemorySchedulerRepo.AcceptIfUnchanged(ctx, bookingID, expectedVersion, now)
}

func TestUnrelatedContentionIsRetryableNotSlotTaken(t *testing.T) {
	repo := &churnRepo{MemorySchedulerRepo: schedulerRepo.NewMemorySchedulerRepo()}
	s := NewScheduler(repo, 3)

	_, err := s.CreateBooking(context.Background(), candidate("p1", at(9, 0), 30))
	if errors.Is(err, models.ErrSlotTaken) {
		t.Fatalf("free slot reported as taken: %v", err)
	}
	var se *models.SchedulingError
	if !errors.As(err, &se) || !se.Retryable() {
		t.Fatalf("expected retryable store error after exhausting retries, got %v", err)
	}
	if repo.writes != 3 {
		t.Fatalf("expected 3 conditional writes, got %d", repo.writes)
	}
	if !s.IsSlotAvailable(context.Background(), "p1", at(9, 0), 30) {
		t.Fatal("09:00 should still be free")
	}

	// Acceptance under the same contention is retryable too.
	plain := NewScheduler(repo.MemorySchedulerRepo, 3)
	id, err := plain.CreateBooking(context.Background(), candidate("p1", at(10, 0), 30))
	if err != nil {
		t.Fatalf("create without churn: %v", err)
	}
	_, err = s.UpdateStatus(context.Background(), id, models.StatusAccepted)
	if !errors.As(err, &se) || !se.Retryable() {
		t.Fatalf("expected retryable acceptance error, got %v", err)
	}
}

func TestIsSlotAvailableHalfOpen(t *testing.T) {
	s := NewScheduler(schedulerRepo.NewMemorySchedulerRepo(), 0)
	mustAccept(t, s, "p1", at(14, 0), 60)

	cases := []struct {
		start   time.Time
		minutes int
		want    bool
	}{
		{at(13, 0), 60, true},
		{at(13, 0), 61, false},
		{at(14, 59), 10, false},
		{at(15, 0), 30, true},
		{at(13, 30), 120, false},
	}
	for _, tc := range cases {
		if got := s.IsSlotAvailable(context.Background(), "p1", tc.start, tc.minutes); got != tc.want {
			t.Errorf("IsSlotAvailable(%s, %d) = %v, want %v", tc.start.Format("15:04"), tc.minutes, got, tc.want)
		}
	}
	if !s.IsSlotAvailable(context.Background(), "p2", at(14, 0), 60) {
		t.Error("other providers' bookings must not block")
	}
}

// barrierRepo holds the first n schedule reads until all n have happened, so
// every caller checks availability before any of them writes.
type barrierRepo struct {
	schedulerRepo.SchedulerRepository
	n     int64
	reads atomic.Int64
	wg    sync.WaitGroup
}

func newBarrierRepo(n int) *barrierRepo {
	return withBarrier(schedulerRepo.NewMemorySchedulerRepo(), n)
}

func withBarrier(repo schedulerRepo.SchedulerRepository, n int) *barrierRepo {
	r := &barrierRepo{SchedulerRepository: repo, n: int64(n)}
	r.wg.Add(n)
	return r
}

func (r *barrierRepo) ListAcceptedBookings(ctx context.Context, providerID string) (*models.Schedule, error) {
	schedule, err := r.SchedulerRepository.ListAcceptedBookings(ctx, providerID)
	if r.reads.Add(1) <= r.n {
		r.wg.Done()
		r.wg.Wait()
	}
	return schedule, err
}

func TestConcurrentCreateExactlyOneWins(t *testing.T) {
	assertExactlyOneCreateWins(t, schedulerRepo.NewMemorySchedulerRepo(), "p1")
}

// assertExactlyOneCreateWins races two creates for the same window, both of
// which read the schedule before either writes.
func assertExactlyOneCreateWins(t *testing.T, store schedulerRepo.SchedulerRepository, providerID string) {
	t.Helper()
	repo := withBarrier(store, 2)
	s := NewScheduler(repo, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateBooking(context.Background(), candidate(providerID, at(11, 0), 60))
		}(i)
	}
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrSlotTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || taken != 1 {
		t.Fatalf("expected one success and one SlotTaken, got %d and %d", ok, taken)
	}

	stored, err := repo.ListBookings(context.Background(), models.BookingFilter{ProviderID: providerID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 || stored[0].Status != models.StatusPending {
		t.Fatalf("expected a single pending booking, got %+v", stored)
	}
}

func TestConcurrentCreateDisjointWindowsBothSucceed(t *testing.T) {
	repo := newBarrierRepo(2)
	s := NewScheduler(repo, 0)

	starts := []time.Time{at(9, 0), at(12, 0)}
	errs := make([]error, len(starts))
	var wg sync.WaitGroup
	for i, start := range starts {
		wg.Add(1)
		go func(i int, start time.Time) {
			defer wg.Done()
			_, errs[i] = s.CreateBooking(context.Background(), candidate("p1", start, 60))
		}(i, start)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
}

func TestConcurrentAcceptsNeverOverlap(t *testing.T) {
	s := NewScheduler(schedulerRepo.NewMemorySchedulerRepo(), 5)
	rng := rand.New(rand.NewSource(42))

	const requests = 60
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		start := at(8, 0).Add(time.Duration(rng.Intn(40)*15) * time.Minute)
		minutes := 15 + rng.Intn(8)*15
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.CreateBooking(context.Background(), candidate("p1", start, minutes))
			if err != nil {
				return
			}
			_, _ = s.UpdateStatus(context.Background(), id, models.StatusAccepted)
		}()
	}
	wg.Wait()

	accepted, err := s.Repo.ListBookings(context.Background(), models.BookingFilter{
		ProviderID: "p1",
		Status:     models.StatusAccepted,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accepted) == 0 {
		t.Fatal("expected at least one accepted booking")
	}
	for i := range accepted {
		for j := i + 1; j < len(accepted); j++ {
			if accepted[i].Slot().Overlaps(accepted[j].ScheduledStart, accepted[j].End()) {
				t.Fatalf("accepted bookings %s and %s overlap", accepted[i].ID, accepted[j].ID)
			}
		}
	}
}

func TestFreeSlotsSkipsAcceptedBookings(t *testing.T) {
	s := NewScheduler(schedulerRepo.NewMemorySchedulerRepo(), 0)
	s.Now = func() time.Time { return day }
	mustAccept(t, s, "p1", at(10, 0), 60)

	slots, err := s.FreeSlots(context.Background(), "p1", at(9, 0), at(12, 0), 60, 30*time.Minute)
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	want := []time.Time{at(9, 0), at(11, 0)}
	if len(slots) != len(want) {
		t.Fatalf("got %v, want %v", slots, want)
	}
	for i := range want {
		if !slots[i].Equal(want[i]) {
			t.Fatalf("slot %d = %s, want %s", i, slots[i], want[i])
		}
	}
}
