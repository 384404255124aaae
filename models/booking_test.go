package models

import (
	"errors"
	"testing"
	"time"
)

func TestBookingStatusTransitions(t *testing.T) {
	all := []BookingStatus{StatusPending, StatusAccepted, StatusDeclined, StatusCompleted}
	legal := map[[2]BookingStatus]bool{
		{StatusPending, StatusAccepted}:   true,
		{StatusPending, StatusDeclined}:   true,
		{StatusAccepted, StatusCompleted}: true,
	}
	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to)
			if got != legal[[2]BookingStatus{from, to}] {
				t.Fatalf("%s -> %s: expected %v, got %v", from, to, !got, got)
			}
		}
	}
	for _, s := range []BookingStatus{StatusDeclined, StatusCompleted} {
		if !s.IsTerminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
}

func TestParseBookingStatus(t *testing.T) {
	if s, err := ParseBookingStatus("accepted"); err != nil || s != StatusAccepted {
		t.Fatalf("expected accepted, got %q (%v)", s, err)
	}
	if _, err := ParseBookingStatus("cancelled"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestSlotOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	existing := Slot{Start: base, DurationMinutes: 60}

	cases := []struct {
		name  string
		start time.Time
		mins  int
		want  bool
	}{
		{"inside", base.Add(30 * time.Minute), 45, true},
		{"adjacent after", base.Add(60 * time.Minute), 45, false},
		{"adjacent before", base.Add(-30 * time.Minute), 30, false},
		{"covers", base.Add(-10 * time.Minute), 90, true},
		{"same start", base, 1, true},
	}
	for _, tc := range cases {
		end := tc.start.Add(time.Duration(tc.mins) * time.Minute)
		if got := existing.Overlaps(tc.start, end); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestSchedulingErrorMatchesByKind(t *testing.T) {
	err := NewSchedulingError(KindSlotTaken, "provider p1 booked at 14:00", nil)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatal("expected errors.Is to match slot taken")
	}
	if errors.Is(err, ErrStoreUnavailable) {
		t.Fatal("slot taken must not match store error")
	}
	wrapped := StoreFailure("list bookings", errors.New("timeout"))
	if KindOf(wrapped) != KindStoreError || !wrapped.Retryable() {
		t.Fatalf("expected retryable store error, got %v", wrapped)
	}
}

func TestCentsRounding(t *testing.T) {
	cases := []struct {
		dollars float64
		want    Cents
	}{
		{15, 1500},
		{0.005, 1},
		{2.675, 268},
		{1.004999, 100},
	}
	for _, tc := range cases {
		if got := CentsFromDollars(tc.dollars); got != tc.want {
			t.Fatalf("CentsFromDollars(%v): expected %d, got %d", tc.dollars, tc.want, got)
		}
	}
	if s := Cents(5500).String(); s != "$55.00" {
		t.Fatalf("expected $55.00, got %s", s)
	}
	if s := Cents(-105).String(); s != "-$1.05" {
		t.Fatalf("expected -$1.05, got %s", s)
	}
}
