package handlers

import (
	"fadetogo/services/booking"
	"fadetogo/services/provider"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	AuthEnabled       bool
	MaxRequestsPerMin int

	// Booking endpoints
	CreateBookingHandler       gin.HandlerFunc
	GetBookingHandler          gin.HandlerFunc
	ListBookingsHandler        gin.HandlerFunc
	UpdateBookingStatusHandler gin.HandlerFunc

	// Provider endpoints
	GetSettingsHandler    gin.HandlerFunc
	UpdateSettingsHandler gin.HandlerFunc
	UpdatePricingHandler  gin.HandlerFunc
	ListServicesHandler   gin.HandlerFunc
	AddServiceHandler     gin.HandlerFunc
	QuoteHandler          gin.HandlerFunc
	AvailabilityHandler   gin.HandlerFunc
	SlotCheckHandler      gin.HandlerFunc

	// Health endpoints
	HealthzHandler gin.HandlerFunc
	ReadyzHandler  gin.HandlerFunc
}

func NewHandlerBundle(bookings booking.BookingService, settings provider.SettingsService) *HandlerBundle {
	bh := NewBookingHandler(bookings)
	ph := NewProviderHandler(settings, bookings)
	return &HandlerBundle{
		CreateBookingHandler:       bh.CreateBooking,
		GetBookingHandler:          bh.GetBooking,
		ListBookingsHandler:        bh.ListBookings,
		UpdateBookingStatusHandler: bh.UpdateStatus,

		GetSettingsHandler:    ph.GetSettings,
		UpdateSettingsHandler: ph.UpdateSettings,
		UpdatePricingHandler:  ph.UpdatePricing,
		ListServicesHandler:   ph.ListServices,
		AddServiceHandler:     ph.AddService,
		QuoteHandler:          ph.Quote,
		AvailabilityHandler:   ph.Availability,
		SlotCheckHandler:      ph.SlotCheck,

		HealthzHandler: Healthz,
		ReadyzHandler:  Readyz,
	}
}
