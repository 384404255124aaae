package tasks

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fadetogo/models"

	"github.com/hibiken/asynq"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func testBooking(status models.BookingStatus, start time.Time) *models.Booking {
	return &models.Booking{
		ID:                   "b1",
		CustomerID:           "c1",
		ProviderID:           "p1",
		ScheduledStart:       start,
		TotalDurationMinutes: 55,
		TotalPrice:           5500,
		Status:               status,
	}
}

func TestBookingCreatedEnqueuesEvent(t *testing.T) {
	rec := &recordingEnqueuer{}
	p := &AsynqPublisher{Client: rec, ReminderLead: time.Hour, Now: time.Now}

	if err := p.BookingCreated(context.Background(), testBooking(models.StatusPending, time.Now().Add(48*time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.tasks) != 1 || rec.tasks[0].Type() != TypeBookingCreated {
		t.Fatalf("expected one created event, got %d", len(rec.tasks))
	}
	var payload models.BookingEventPayload
	if err := json.Unmarshal(rec.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.BookingID != "b1" || payload.Status != models.StatusPending {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestAcceptanceSchedulesReminders(t *testing.T) {
	rec := &recordingEnqueuer{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := &AsynqPublisher{Client: rec, ReminderLead: time.Hour, Now: func() time.Time { return now }}

	b := testBooking(models.StatusAccepted, now.Add(24*time.Hour))
	if err := p.StatusChanged(context.Background(), b, models.StatusPending); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.tasks) != 3 {
		t.Fatalf("expected status event plus two reminders, got %d tasks", len(rec.tasks))
	}
	if rec.tasks[1].Type() != TypeSendReminder || rec.tasks[2].Type() != TypeSendReminder {
		t.Fatal("expected reminder tasks after the status event")
	}
}

func TestNoReminderForImminentOrDeclinedBookings(t *testing.T) {
	rec := &recordingEnqueuer{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := &AsynqPublisher{Client: rec, ReminderLead: time.Hour, Now: func() time.Time { return now }}

	if err := p.StatusChanged(context.Background(), testBooking(models.StatusAccepted, now.Add(30*time.Minute)), models.StatusPending); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.StatusChanged(context.Background(), testBooking(models.StatusDeclined, now.Add(24*time.Hour)), models.StatusPending); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.tasks) != 2 {
		t.Fatalf("expected only the two status events, got %d tasks", len(rec.tasks))
	}
}
