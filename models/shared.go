package models

import "time"

// BookingEventPayload is enqueued whenever a booking is created or changes status.
type BookingEventPayload struct {
	BookingID      string        `json:"bookingId"`
	CustomerID     string        `json:"customerId"`
	ProviderID     string        `json:"providerId"`
	Status         BookingStatus `json:"status"`
	PreviousStatus BookingStatus `json:"previousStatus,omitempty"`
	ScheduledStart time.Time     `json:"scheduledStart"`
	TotalPrice     Cents         `json:"totalPrice"`
	OccurredAt     time.Time     `json:"occurredAt"`
}

// ReminderPayload is a delayed task fired ahead of an accepted booking.
type ReminderPayload struct {
	ID        string `json:"id"`        // customerId or providerId
	BookingID string `json:"bookingId"` // booking the reminder refers to
	Title     string `json:"title"`
	Body      string `json:"body"`
	FireDate  string `json:"fireDate"` // RFC3339
	Target    string `json:"target"`   // "customer" or "provider"
}
