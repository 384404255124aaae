package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PricingConfig holds the provider-controlled travel pricing parameters.
type PricingConfig struct {
	BaseRadiusMiles float64 `bson:"baseRadiusMiles" json:"baseRadiusMiles"` // free travel threshold
	MaxRadiusMiles  float64 `bson:"maxRadiusMiles" json:"maxRadiusMiles"`   // hard service boundary
	CostPerMile     Cents   `bson:"costPerMile" json:"costPerMile"`         // cents per mile beyond the base radius
	BufferMinutes   int     `bson:"bufferMinutes" json:"bufferMinutes"`     // added to every booking
}

// Upper bounds accepted for a pricing configuration. They keep the largest
// possible surcharge far inside int64 cents.
const (
	MaxServiceRadiusMiles = 500
	MaxCostPerMile        = Cents(100_000) // $1,000 per mile
	MaxBufferMinutes      = 24 * 60
)

// DefaultPricingConfig matches what a newly registered provider starts with.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		BaseRadiusMiles: 10,
		MaxRadiusMiles:  30,
		CostPerMile:     150,
		BufferMinutes:   10,
	}
}

// Validate rejects configurations the pricing engine must never see.
func (c PricingConfig) Validate() error {
	switch {
	case math.IsNaN(c.BaseRadiusMiles) || math.IsInf(c.BaseRadiusMiles, 0):
		return NewSchedulingError(KindInvalidConfig, "baseRadiusMiles must be a finite number", nil)
	case math.IsNaN(c.MaxRadiusMiles) || math.IsInf(c.MaxRadiusMiles, 0):
		return NewSchedulingError(KindInvalidConfig, "maxRadiusMiles must be a finite number", nil)
	case c.BaseRadiusMiles < 0:
		return NewSchedulingError(KindInvalidConfig, "baseRadiusMiles must not be negative", nil)
	case c.BaseRadiusMiles > c.MaxRadiusMiles:
		return NewSchedulingError(KindInvalidConfig,
			fmt.Sprintf("baseRadiusMiles (%v) exceeds maxRadiusMiles (%v)", c.BaseRadiusMiles, c.MaxRadiusMiles), nil)
	case c.MaxRadiusMiles > MaxServiceRadiusMiles:
		return NewSchedulingError(KindInvalidConfig,
			fmt.Sprintf("maxRadiusMiles must not exceed %d", MaxServiceRadiusMiles), nil)
	case c.CostPerMile < 0:
		return NewSchedulingError(KindInvalidConfig, "costPerMile must not be negative", nil)
	case c.CostPerMile > MaxCostPerMile:
		return NewSchedulingError(KindInvalidConfig,
			fmt.Sprintf("costPerMile must not exceed %d cents", int64(MaxCostPerMile)), nil)
	case c.BufferMinutes < 0:
		return NewSchedulingError(KindInvalidConfig, "bufferMinutes must not be negative", nil)
	case c.BufferMinutes > MaxBufferMinutes:
		return NewSchedulingError(KindInvalidConfig,
			fmt.Sprintf("bufferMinutes must not exceed %d", MaxBufferMinutes), nil)
	}
	return nil
}

// WorkingHours is one weekday's opening window in the provider's local time.
type WorkingHours struct {
	IsOpen    bool   `bson:"isOpen" json:"isOpen"`
	StartTime string `bson:"startTime" json:"startTime"` // "HH:MM"
	EndTime   string `bson:"endTime" json:"endTime"`     // "HH:MM"
}

// Window returns the absolute opening window on the given day. ok is false
// when the provider is closed that day.
func (w WorkingHours) Window(day time.Time) (start, end time.Time, ok bool, err error) {
	if !w.IsOpen {
		return time.Time{}, time.Time{}, false, nil
	}
	startMin, err := parseClock(w.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	endMin, err := parseClock(w.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if endMin <= startMin {
		return time.Time{}, time.Time{}, false, NewSchedulingError(KindInvalidConfig,
			fmt.Sprintf("working hours end %s is not after start %s", w.EndTime, w.StartTime), nil)
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(startMin) * time.Minute), midnight.Add(time.Duration(endMin) * time.Minute), true, nil
}

func parseClock(hhmm string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return 0, NewSchedulingError(KindInvalidConfig, fmt.Sprintf("invalid clock time %q", hhmm), err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Service is an entry in a provider's catalogue.
type Service struct {
	ID              string `bson:"id" json:"id"`
	Name            string `bson:"name" json:"name"`
	Description     string `bson:"description,omitempty" json:"description,omitempty"`
	Price           Cents  `bson:"price" json:"price"`
	DurationMinutes int    `bson:"durationMinutes" json:"durationMinutes"`
}

// Validate checks a catalogue entry before it is stored.
func (s Service) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return NewSchedulingError(KindInvalidRequest, "service name is required", nil)
	case s.Price < 0:
		return NewSchedulingError(KindInvalidRequest, "service price must not be negative", nil)
	case s.DurationMinutes <= 0:
		return NewSchedulingError(KindInvalidRequest, "service duration must be positive", nil)
	}
	return nil
}

// ProviderSettings is everything the booking engine needs to know about a provider.
type ProviderSettings struct {
	ProviderID   string                  `bson:"providerId" json:"providerId"`
	BaseLocation GeoPoint                `bson:"baseLocation" json:"baseLocation"`
	Pricing      PricingConfig           `bson:"pricing" json:"pricing"`
	WorkingHours map[string]WorkingHours `bson:"workingHours" json:"workingHours"` // keyed by weekday, e.g. "Monday"
	IsAvailable  bool                    `bson:"isAvailable" json:"isAvailable"`   // accepting new booking requests
	Timezone     string                  `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Services     []Service               `bson:"services" json:"services"`
	UpdatedAt    time.Time               `bson:"updatedAt" json:"updatedAt"`
}

// NewProviderSettings returns defaults for a provider with no stored settings.
func NewProviderSettings(providerID string) *ProviderSettings {
	return &ProviderSettings{
		ProviderID:   providerID,
		Pricing:      DefaultPricingConfig(),
		WorkingHours: map[string]WorkingHours{},
		Services:     []Service{},
	}
}

// Validate checks the whole settings document.
func (s *ProviderSettings) Validate() error {
	if strings.TrimSpace(s.ProviderID) == "" {
		return NewSchedulingError(KindInvalidRequest, "providerId is required", nil)
	}
	if err := s.Pricing.Validate(); err != nil {
		return err
	}
	if err := s.BaseLocation.Location().Validate(); err != nil {
		return NewSchedulingError(KindInvalidConfig, "invalid base location", err)
	}
	for day, wh := range s.WorkingHours {
		if _, err := time.Parse("Monday", day); err != nil {
			return NewSchedulingError(KindInvalidConfig, fmt.Sprintf("unknown weekday %q", day), nil)
		}
		if _, _, _, err := wh.Window(time.Now()); err != nil {
			return err
		}
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return NewSchedulingError(KindInvalidConfig, fmt.Sprintf("unknown timezone %q", s.Timezone), err)
		}
	}
	return nil
}

// Location returns the provider's time zone, UTC when unset or unknown.
func (s *ProviderSettings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HasBaseLocation reports whether the provider has set a home base.
func (s *ProviderSettings) HasBaseLocation() bool {
	return s.BaseLocation.Type == "Point" && len(s.BaseLocation.Coordinates) == 2
}

// FindService looks up a catalogue entry by id.
func (s *ProviderSettings) FindService(serviceID string) (Service, bool) {
	for _, svc := range s.Services {
		if svc.ID == serviceID {
			return svc, true
		}
	}
	return Service{}, false
}
