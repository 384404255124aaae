package booking

import (
	"context"
	"time"

	"fadetogo/models"
	"fadetogo/services/pricing"
)

// BookingService is the booking API the handlers talk to.
type BookingService interface {
	CreateBooking(ctx context.Context, req BookingRequest) (*models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	Quote(ctx context.Context, providerID string, basePrice models.Cents, customer models.Location) (*QuoteResponse, error)
	Availability(ctx context.Context, providerID string, date time.Time, durationMinutes int) (*AvailabilityResponse, error)
	IsSlotAvailable(ctx context.Context, providerID string, start time.Time, totalMinutes int) bool
}

// BookingRequest is what a customer submits. When ServiceID names a
// catalogue entry its price and duration win over BasePrice and
// ServiceDurationMinutes.
type BookingRequest struct {
	CustomerID             string          `json:"customerId"`
	CustomerName           string          `json:"customerName,omitempty"`
	ProviderID             string          `json:"providerId"`
	ServiceID              string          `json:"serviceId,omitempty"`
	ServiceName            string          `json:"serviceName,omitempty"`
	ServiceDurationMinutes int             `json:"serviceDurationMinutes,omitempty"`
	BasePrice              models.Cents    `json:"basePrice,omitempty"`
	CustomerLocation       models.Location `json:"customerLocation"`
	CustomerAddress        string          `json:"customerAddress,omitempty"`
	ScheduledStart         time.Time       `json:"scheduledStart"`
}

// QuoteResponse is a price preview plus the travel time it assumes.
type QuoteResponse struct {
	pricing.Quote
	ProviderID        string `json:"providerId"`
	TravelTimeMinutes int    `json:"travelTimeMinutes"`
	BufferMinutes     int    `json:"bufferMinutes"`
}

// AvailabilityResponse lists the free start times of one day.
type AvailabilityResponse struct {
	ProviderID      string      `json:"providerId"`
	Date            string      `json:"date"`
	DurationMinutes int         `json:"durationMinutes"`
	Open            bool        `json:"open"`
	Slots           []time.Time `json:"slots"`
}
