package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fadetogo/models"
	"fadetogo/services/distance"
	"fadetogo/services/pricing"
	"fadetogo/services/provider"
	"fadetogo/services/tasks"
	"fadetogo/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("fadetogo/services/booking")

const (
	defaultSlotStep  = 15 * time.Minute
	defaultListLimit = 100
	maxListLimit     = 500
)

// DefaultBookingService wires pricing, distance and provider settings in
// front of the Scheduler.
type DefaultBookingService struct {
	Scheduler *Scheduler
	Settings  provider.SettingsService
	Distance  distance.Provider
	Publisher tasks.Publisher
	SlotStep  time.Duration
}

func NewBookingService(scheduler *Scheduler, settings provider.SettingsService, dist distance.Provider, pub tasks.Publisher) *DefaultBookingService {
	if pub == nil {
		pub = tasks.NoopPublisher{}
	}
	return &DefaultBookingService{
		Scheduler: scheduler,
		Settings:  settings,
		Distance:  dist,
		Publisher: pub,
		SlotStep:  defaultSlotStep,
	}
}

func invalidRequest(format string, args ...any) error {
	return models.NewSchedulingError(models.KindInvalidRequest, fmt.Sprintf(format, args...), nil)
}

func validateRequest(req *BookingRequest, now time.Time) error {
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	switch {
	case req.ProviderID == "":
		return invalidRequest("providerId is required")
	case req.CustomerID == "":
		return invalidRequest("customerId is required")
	case req.ScheduledStart.IsZero():
		return invalidRequest("scheduledStart is required")
	case req.ScheduledStart.Before(now):
		return invalidRequest("scheduledStart %s is in the past", req.ScheduledStart.Format(time.RFC3339))
	}
	return req.CustomerLocation.Validate()
}

// bookableProvider loads settings and rejects providers that cannot take
// new requests.
func (s *DefaultBookingService) bookableProvider(ctx context.Context, providerID string) (*models.ProviderSettings, error) {
	settings, err := s.Settings.GetSettings(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !settings.IsAvailable {
		return nil, models.NewSchedulingError(models.KindProviderUnavailable,
			fmt.Sprintf("provider %s is not accepting bookings", providerID), nil)
	}
	if !settings.HasBaseLocation() {
		return nil, models.NewSchedulingError(models.KindProviderUnavailable,
			fmt.Sprintf("provider %s has not set a base location", providerID), nil)
	}
	return settings, nil
}

func (s *DefaultBookingService) resolveDistance(ctx context.Context, settings *models.ProviderSettings, customer models.Location) (distance.Result, error) {
	res, err := s.Distance.Resolve(ctx, settings.BaseLocation.Location(), customer)
	if errors.Is(err, distance.ErrNoRoute) {
		return distance.Result{}, models.NewSchedulingError(models.KindOutOfServiceArea,
			fmt.Sprintf("no route from provider %s to %s", settings.ProviderID, customer), err)
	}
	if err != nil {
		return distance.Result{}, models.StoreFailure("resolve distance", err)
	}
	return res, nil
}

// CreateBooking prices the request, composes its total duration and hands it
// to the Scheduler. The returned booking is pending.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req BookingRequest) (b *models.Booking, err error) {
	ctx, span := tracer.Start(ctx, "booking.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(models.KindOf(err)))
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("provider.id", req.ProviderID))

	logger := utils.GetLogger()
	if err := validateRequest(&req, s.Scheduler.Now()); err != nil {
		return nil, err
	}

	settings, err := s.bookableProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	serviceName, serviceMinutes, basePrice := req.ServiceName, req.ServiceDurationMinutes, req.BasePrice
	if req.ServiceID != "" {
		svc, ok := settings.FindService(req.ServiceID)
		if !ok {
			return nil, models.NewSchedulingError(models.KindNotFound,
				fmt.Sprintf("provider %s offers no service %s", req.ProviderID, req.ServiceID), nil)
		}
		serviceName, serviceMinutes, basePrice = svc.Name, svc.DurationMinutes, svc.Price
	}
	if serviceMinutes <= 0 {
		return nil, invalidRequest("serviceDurationMinutes must be positive")
	}
	if basePrice < 0 {
		return nil, invalidRequest("basePrice must not be negative")
	}

	travel, err := s.resolveDistance(ctx, settings, req.CustomerLocation)
	if err != nil {
		return nil, err
	}

	cfg := settings.Pricing
	total, ok := pricing.ComputeTotalPrice(basePrice, travel.Miles, cfg)
	if !ok {
		logger.Info("Booking outside service area",
			zap.String("providerId", req.ProviderID),
			zap.Float64("distanceMiles", travel.Miles),
			zap.Float64("maxRadiusMiles", cfg.MaxRadiusMiles))
		return nil, models.NewSchedulingError(models.KindOutOfServiceArea,
			fmt.Sprintf("%s is beyond the provider's %s service radius",
				pricing.FormatDistance(travel.Miles), pricing.FormatDistance(cfg.MaxRadiusMiles)), nil)
	}
	surcharge, _ := pricing.ComputeSurcharge(travel.Miles, cfg)

	candidate := &models.Booking{
		CustomerID:             req.CustomerID,
		CustomerName:           req.CustomerName,
		ProviderID:             req.ProviderID,
		ServiceID:              req.ServiceID,
		ServiceName:            serviceName,
		ScheduledStart:         req.ScheduledStart,
		ServiceDurationMinutes: serviceMinutes,
		TravelTimeMinutes:      travel.TravelMinutes,
		BufferMinutes:          cfg.BufferMinutes,
		TotalDurationMinutes:   pricing.ComputeTotalDuration(serviceMinutes, travel.TravelMinutes, cfg.BufferMinutes),
		CustomerLocation:       req.CustomerLocation,
		CustomerAddress:        req.CustomerAddress,
		DistanceMiles:          travel.Miles,
		BasePrice:              basePrice,
		TravelSurcharge:        surcharge,
		TotalPrice:             total,
	}
	if _, err := s.Scheduler.CreateBooking(ctx, candidate); err != nil {
		return nil, err
	}

	if err := s.Publisher.BookingCreated(ctx, candidate); err != nil {
		logger.Error("Failed to publish booking created event",
			zap.String("bookingId", candidate.ID), zap.Error(err))
	}
	return candidate, nil
}

// previousStatus is the only state a legal transition into next starts from.
func previousStatus(next models.BookingStatus) models.BookingStatus {
	if next == models.StatusCompleted {
		return models.StatusAccepted
	}
	return models.StatusPending
}

func (s *DefaultBookingService) UpdateStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.update_status")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID), attribute.String("booking.status", string(status)))

	updated, err := s.Scheduler.UpdateStatus(ctx, bookingID, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(models.KindOf(err)))
		return nil, err
	}
	if err := s.Publisher.StatusChanged(ctx, updated, previousStatus(status)); err != nil {
		utils.GetLogger().Error("Failed to publish booking status event",
			zap.String("bookingId", bookingID), zap.String("status", string(status)), zap.Error(err))
	}
	return updated, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Scheduler.Repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, translateRepoError(err, bookingID, "load booking")
	}
	return b, nil
}

// ListBookings requires a customer or provider to scope the listing.
func (s *DefaultBookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if filter.CustomerID == "" && filter.ProviderID == "" {
		return nil, invalidRequest("customerId or providerId is required")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	bookings, err := s.Scheduler.Repo.ListBookings(ctx, filter)
	if err != nil {
		return nil, models.StoreFailure("list bookings", err)
	}
	return bookings, nil
}

// Quote previews the price of a job at the customer's location. An
// out-of-area quote is returned as infeasible, not as an error.
func (s *DefaultBookingService) Quote(ctx context.Context, providerID string, basePrice models.Cents, customer models.Location) (*QuoteResponse, error) {
	if basePrice < 0 {
		return nil, invalidRequest("basePrice must not be negative")
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	settings, err := s.bookableProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	travel, err := s.resolveDistance(ctx, settings, customer)
	if models.KindOf(err) == models.KindOutOfServiceArea {
		q := pricing.Quote{Zone: pricing.ZoneOutOfArea, BasePrice: basePrice}
		q.Message = pricing.PricingMessage(q)
		return &QuoteResponse{Quote: q, ProviderID: providerID, BufferMinutes: settings.Pricing.BufferMinutes}, nil
	}
	if err != nil {
		return nil, err
	}
	return &QuoteResponse{
		Quote:             pricing.QuoteFor(basePrice, travel.Miles, settings.Pricing),
		ProviderID:        providerID,
		TravelTimeMinutes: travel.TravelMinutes,
		BufferMinutes:     settings.Pricing.BufferMinutes,
	}, nil
}

// Availability lists the start times on date, inside the provider's working
// hours, where a job of durationMinutes plus the provider's buffer fits.
// Travel time is unknown until the customer location is given, so it is
// checked again at booking time.
func (s *DefaultBookingService) Availability(ctx context.Context, providerID string, date time.Time, durationMinutes int) (*AvailabilityResponse, error) {
	if durationMinutes <= 0 {
		return nil, invalidRequest("durationMinutes must be positive")
	}
	settings, err := s.Settings.GetSettings(ctx, providerID)
	if err != nil {
		return nil, err
	}

	loc := settings.Location()
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	resp := &AvailabilityResponse{
		ProviderID:      providerID,
		Date:            day.Format(time.DateOnly),
		DurationMinutes: durationMinutes,
		Slots:           []time.Time{},
	}
	if !settings.IsAvailable {
		return resp, nil
	}

	hours, ok := settings.WorkingHours[day.Weekday().String()]
	if !ok {
		return resp, nil
	}
	start, end, open, err := hours.Window(day)
	if err != nil {
		return nil, err
	}
	if !open {
		return resp, nil
	}
	resp.Open = true

	step := s.SlotStep
	if step <= 0 {
		step = defaultSlotStep
	}
	total := pricing.ComputeTotalDuration(durationMinutes, 0, settings.Pricing.BufferMinutes)
	slots, err := s.Scheduler.FreeSlots(ctx, providerID, start.UTC(), end.UTC(), total, step)
	if err != nil {
		return nil, err
	}
	if slots != nil {
		resp.Slots = slots
	}
	return resp, nil
}

func (s *DefaultBookingService) IsSlotAvailable(ctx context.Context, providerID string, start time.Time, totalMinutes int) bool {
	return s.Scheduler.IsSlotAvailable(ctx, providerID, start, totalMinutes)
}
