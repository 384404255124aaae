package notification

import (
	"context"

	"fadetogo/models"
	"fadetogo/utils"

	"go.uber.org/zap"
)

// NotificationService receives booking events from the worker. Push delivery
// lives outside this service; implementations forward to whatever channel
// the deployment uses.
type NotificationService interface {
	NotifyBookingEvent(ctx context.Context, eventType string, payload models.BookingEventPayload) error
	SendReminder(ctx context.Context, payload models.ReminderPayload) error
}

// LogNotificationService records events in the structured log.
type LogNotificationService struct{}

func (LogNotificationService) NotifyBookingEvent(_ context.Context, eventType string, p models.BookingEventPayload) error {
	utils.GetLogger().Info("Booking event",
		zap.String("type", eventType),
		zap.String("bookingId", p.BookingID),
		zap.String("providerId", p.ProviderID),
		zap.String("customerId", p.CustomerID),
		zap.String("status", string(p.Status)),
		zap.String("previousStatus", string(p.PreviousStatus)))
	return nil
}

func (LogNotificationService) SendReminder(_ context.Context, p models.ReminderPayload) error {
	utils.GetLogger().Info("Booking reminder",
		zap.String("target", p.Target),
		zap.String("id", p.ID),
		zap.String("bookingId", p.BookingID),
		zap.String("title", p.Title))
	return nil
}
