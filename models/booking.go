package models

import (
	"fmt"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusDeclined  BookingStatus = "declined"
	StatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:  {StatusAccepted, StatusDeclined},
	StatusAccepted: {StatusCompleted},
}

// ParseBookingStatus validates a raw status string.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(raw)
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCompleted:
		return s, nil
	}
	return "", NewSchedulingError(KindInvalidRequest, fmt.Sprintf("unknown booking status %q", raw), nil)
}

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusDeclined || s == StatusCompleted
}

// CanTransitionTo reports whether s -> next is a legal edge.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking represents a customer request for a provider's time.
type Booking struct {
	ID                     string        `bson:"id" json:"id"`                                         // Assigned at creation (UUID)
	CustomerID             string        `bson:"customerId" json:"customerId"`                         // Immutable once set
	CustomerName           string        `bson:"customerName,omitempty" json:"customerName,omitempty"` // Display name
	ProviderID             string        `bson:"providerId" json:"providerId"`                         // Immutable once set
	ServiceID              string        `bson:"serviceId,omitempty" json:"serviceId,omitempty"`       // Catalogue entry, if any
	ServiceName            string        `bson:"serviceName,omitempty" json:"serviceName,omitempty"`   // e.g. "Skin fade"
	ScheduledStart         time.Time     `bson:"scheduledStart" json:"scheduledStart"`                 // UTC
	ServiceDurationMinutes int           `bson:"serviceDurationMinutes" json:"serviceDurationMinutes"`
	TravelTimeMinutes      int           `bson:"travelTimeMinutes" json:"travelTimeMinutes"`
	BufferMinutes          int           `bson:"bufferMinutes" json:"bufferMinutes"`
	TotalDurationMinutes   int           `bson:"totalDurationMinutes" json:"totalDurationMinutes"` // service + travel + buffer
	CustomerLocation       Location      `bson:"customerLocation" json:"customerLocation"`
	CustomerAddress        string        `bson:"customerAddress,omitempty" json:"customerAddress,omitempty"`
	DistanceMiles          float64       `bson:"distanceMiles" json:"distanceMiles"`
	BasePrice              Cents         `bson:"basePrice" json:"basePrice"`             // cents
	TravelSurcharge        Cents         `bson:"travelSurcharge" json:"travelSurcharge"` // cents
	TotalPrice             Cents         `bson:"totalPrice" json:"totalPrice"`           // cents
	Status                 BookingStatus `bson:"status" json:"status"`
	ScheduleVersion        int64         `bson:"scheduleVersion" json:"-"` // provider schedule version of the last schedule-affecting write
	CreatedAt              time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// End returns the exclusive end of the occupied interval.
func (b *Booking) End() time.Time {
	return b.ScheduledStart.Add(time.Duration(b.TotalDurationMinutes) * time.Minute)
}

// Slot returns the interval the booking occupies.
func (b *Booking) Slot() Slot {
	return Slot{BookingID: b.ID, Start: b.ScheduledStart, DurationMinutes: b.TotalDurationMinutes}
}

// Slot is a half-open interval [Start, Start+DurationMinutes) on a provider's calendar.
type Slot struct {
	BookingID       string    `bson:"bookingId" json:"bookingId"`
	Start           time.Time `bson:"start" json:"start"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
}

func (s Slot) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps reports a non-empty intersection with [start, end). Touching
// endpoints do not overlap.
func (s Slot) Overlaps(start, end time.Time) bool {
	return start.Before(s.End()) && s.Start.Before(end)
}

// Schedule is a provider's committed (accepted) slots at a given version.
type Schedule struct {
	ProviderID string `json:"providerId"`
	Version    int64  `json:"version"`
	Slots      []Slot `json:"slots"`
}

// BookingFilter narrows a booking listing. Empty fields match everything.
type BookingFilter struct {
	CustomerID string
	ProviderID string
	Status     BookingStatus
	Limit      int
}

// Matches is used by in-memory stores.
func (f BookingFilter) Matches(b *Booking) bool {
	if f.CustomerID != "" && b.CustomerID != f.CustomerID {
		return false
	}
	if f.ProviderID != "" && b.ProviderID != f.ProviderID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}
