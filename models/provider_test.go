package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestPricingConfigValidate(t *testing.T) {
	if err := DefaultPricingConfig().Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}

	bad := []PricingConfig{
		{BaseRadiusMiles: 31, MaxRadiusMiles: 30, CostPerMile: 150},
		{BaseRadiusMiles: -1, MaxRadiusMiles: 30, CostPerMile: 150},
		{BaseRadiusMiles: 10, MaxRadiusMiles: 30, CostPerMile: -1},
		{BaseRadiusMiles: 10, MaxRadiusMiles: 30, BufferMinutes: -5},
		{BaseRadiusMiles: math.NaN(), MaxRadiusMiles: 30},
		{BaseRadiusMiles: 10, MaxRadiusMiles: math.Inf(1)},
		{BaseRadiusMiles: 10, MaxRadiusMiles: 1e12, CostPerMile: 150},
		{BaseRadiusMiles: 10, MaxRadiusMiles: 30, CostPerMile: math.MaxInt64},
		{BaseRadiusMiles: 10, MaxRadiusMiles: 30, BufferMinutes: 1 << 20},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("case %d: expected invalid config, got %v", i, err)
		}
	}

	limits := PricingConfig{
		BaseRadiusMiles: MaxServiceRadiusMiles,
		MaxRadiusMiles:  MaxServiceRadiusMiles,
		CostPerMile:     MaxCostPerMile,
		BufferMinutes:   MaxBufferMinutes,
	}
	if err := limits.Validate(); err != nil {
		t.Fatalf("configuration at the limits should be valid: %v", err)
	}

	equal := PricingConfig{BaseRadiusMiles: 15, MaxRadiusMiles: 15}
	if err := equal.Validate(); err != nil {
		t.Fatalf("base == max should be valid: %v", err)
	}
}

func TestWorkingHoursWindow(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	start, end, ok, err := WorkingHours{IsOpen: true, StartTime: "09:00", EndTime: "17:30"}.Window(day)
	if err != nil || !ok {
		t.Fatalf("expected open window, got ok=%v err=%v", ok, err)
	}
	if start.Hour() != 9 || end.Hour() != 17 || end.Minute() != 30 {
		t.Fatalf("unexpected window %v - %v", start, end)
	}

	if _, _, ok, _ := (WorkingHours{IsOpen: false}).Window(day); ok {
		t.Fatal("closed day should not yield a window")
	}
	if _, _, _, err := (WorkingHours{IsOpen: true, StartTime: "18:00", EndTime: "09:00"}).Window(day); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestProviderSettingsValidate(t *testing.T) {
	s := NewProviderSettings("p1")
	s.BaseLocation = Location{Latitude: 40.7, Longitude: -74}.ToGeoPoint()
	s.WorkingHours["Monday"] = WorkingHours{IsOpen: true, StartTime: "09:00", EndTime: "17:00"}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid settings: %v", err)
	}
	if !s.HasBaseLocation() {
		t.Fatal("expected base location")
	}

	s.WorkingHours["Funday"] = WorkingHours{IsOpen: true, StartTime: "09:00", EndTime: "17:00"}
	if err := s.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid config for unknown weekday, got %v", err)
	}
}
