package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fadetogo/models"
	"fadetogo/services/pricing"
	"fadetogo/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Publisher emits booking lifecycle events. Publishing happens after the
// booking is committed; a failure is logged and never undoes the booking.
type Publisher interface {
	BookingCreated(ctx context.Context, b *models.Booking) error
	StatusChanged(ctx context.Context, b *models.Booking, previous models.BookingStatus) error
}

// NoopPublisher drops every event. Used when EVENTS_ENABLED=false.
type NoopPublisher struct{}

func (NoopPublisher) BookingCreated(context.Context, *models.Booking) error { return nil }

func (NoopPublisher) StatusChanged(context.Context, *models.Booking, models.BookingStatus) error {
	return nil
}

// enqueuer is the subset of *asynq.Client the publisher needs.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher enqueues events and reminders on Redis through asynq.
type AsynqPublisher struct {
	Client       enqueuer
	ReminderLead time.Duration
	Now          func() time.Time
}

func NewAsynqPublisher(client *asynq.Client, reminderLead time.Duration) *AsynqPublisher {
	return &AsynqPublisher{
		Client:       client,
		ReminderLead: reminderLead,
		Now:          time.Now,
	}
}

func eventPayload(b *models.Booking, previous models.BookingStatus, at time.Time) models.BookingEventPayload {
	return models.BookingEventPayload{
		BookingID:      b.ID,
		CustomerID:     b.CustomerID,
		ProviderID:     b.ProviderID,
		Status:         b.Status,
		PreviousStatus: previous,
		ScheduledStart: b.ScheduledStart,
		TotalPrice:     b.TotalPrice,
		OccurredAt:     at,
	}
}

func (p *AsynqPublisher) enqueue(ctx context.Context, taskType string, payload models.BookingEventPayload) error {
	task, err := NewBookingEventTask(taskType, payload)
	if err != nil {
		return fmt.Errorf("building %s task: %w", taskType, err)
	}
	if _, err := p.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueueing %s task: %w", taskType, err)
	}
	return nil
}

func (p *AsynqPublisher) BookingCreated(ctx context.Context, b *models.Booking) error {
	return p.enqueue(ctx, TypeBookingCreated, eventPayload(b, "", p.Now().UTC()))
}

// StatusChanged enqueues the status event and, once a booking is accepted,
// one reminder each for the customer and the provider.
func (p *AsynqPublisher) StatusChanged(ctx context.Context, b *models.Booking, previous models.BookingStatus) error {
	if err := p.enqueue(ctx, TypeBookingStatusChanged, eventPayload(b, previous, p.Now().UTC())); err != nil {
		return err
	}
	if b.Status != models.StatusAccepted {
		return nil
	}

	fireAt := b.ScheduledStart.Add(-p.ReminderLead)
	if !fireAt.After(p.Now()) {
		return nil
	}
	body := fmt.Sprintf("Your appointment starts at %s (%s).",
		b.ScheduledStart.Format(time.RFC3339), pricing.FormatDuration(b.TotalDurationMinutes))

	var errs []error
	for _, target := range []struct{ kind, id string }{{"customer", b.CustomerID}, {"provider", b.ProviderID}} {
		task, opts, err := NewReminderTask(models.ReminderPayload{
			ID:        target.id,
			BookingID: b.ID,
			Title:     "Upcoming appointment",
			Body:      body,
			FireDate:  fireAt.Format(time.RFC3339),
			Target:    target.kind,
		}, fireAt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := p.Client.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			errs = append(errs, err)
			continue
		}
		utils.GetLogger().Debug("Reminder scheduled",
			zap.String("bookingId", b.ID), zap.String("target", target.kind), zap.Time("fireAt", fireAt))
	}
	return errors.Join(errs...)
}
