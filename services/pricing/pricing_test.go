package pricing

import (
	"math"
	"math/rand"
	"testing"

	"fadetogo/models"
)

func defaultConfig() models.PricingConfig {
	return models.PricingConfig{BaseRadiusMiles: 10, MaxRadiusMiles: 30, CostPerMile: 150, BufferMinutes: 10}
}

func TestSurchargeZoneAndTotal(t *testing.T) {
	cfg := defaultConfig()

	surcharge, ok := ComputeSurcharge(20, cfg)
	if !ok || surcharge != 1500 {
		t.Fatalf("expected surcharge 1500, got %d (ok=%v)", surcharge, ok)
	}
	total, ok := ComputeTotalPrice(4000, 20, cfg)
	if !ok || total != 5500 {
		t.Fatalf("expected total 5500, got %d (ok=%v)", total, ok)
	}
}

func TestOutsideServiceAreaIsInfeasible(t *testing.T) {
	cfg := defaultConfig()

	if _, ok := ComputeSurcharge(35, cfg); ok {
		t.Fatal("expected 35 miles to be infeasible")
	}
	if _, ok := ComputeTotalPrice(4000, 35, cfg); ok {
		t.Fatal("expected total price to be infeasible")
	}
	if _, ok := ComputeSurcharge(math.NaN(), cfg); ok {
		t.Fatal("expected NaN distance to be infeasible")
	}
	if IsWithinServiceArea(30.01, cfg.MaxRadiusMiles) {
		t.Fatal("30.01 miles should be outside a 30 mile area")
	}
}

func TestServiceAreaBoundaryIsInclusive(t *testing.T) {
	cfg := defaultConfig()
	if !IsWithinServiceArea(30, cfg.MaxRadiusMiles) {
		t.Fatal("max radius itself should be in the service area")
	}
	surcharge, ok := ComputeSurcharge(30, cfg)
	if !ok || surcharge != 3000 {
		t.Fatalf("expected 3000 at the boundary, got %d (ok=%v)", surcharge, ok)
	}
}

func TestFreeZoneHasNoSurcharge(t *testing.T) {
	cfg := defaultConfig()
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		d := r.Float64() * cfg.BaseRadiusMiles
		if s, ok := ComputeSurcharge(d, cfg); !ok || s != 0 {
			t.Fatalf("distance %v: expected zero surcharge, got %d (ok=%v)", d, s, ok)
		}
	}
	if s, _ := ComputeSurcharge(cfg.BaseRadiusMiles, cfg); s != 0 {
		t.Fatalf("expected zero at base radius, got %d", s)
	}
}

func TestSurchargeStrictlyIncreasing(t *testing.T) {
	cfg := defaultConfig()

	// Distances a tenth of a mile apart are worth 15 cents each, well above
	// the rounding granularity.
	prev := models.Cents(0)
	for i := 1; i < 200; i++ {
		d := cfg.BaseRadiusMiles + float64(i)*0.1
		s, ok := ComputeSurcharge(d, cfg)
		if !ok {
			t.Fatalf("distance %v should be feasible", d)
		}
		if s <= prev {
			t.Fatalf("surcharge not increasing at %v: %d <= %d", d, s, prev)
		}
		prev = s
	}

	low, _ := ComputeSurcharge(20, models.PricingConfig{BaseRadiusMiles: 10, MaxRadiusMiles: 30, CostPerMile: 100})
	high, _ := ComputeSurcharge(20, models.PricingConfig{BaseRadiusMiles: 10, MaxRadiusMiles: 30, CostPerMile: 101})
	if high <= low {
		t.Fatalf("expected surcharge to increase with cost per mile: %d <= %d", high, low)
	}
}

func TestTotalPriceIsIdempotent(t *testing.T) {
	cfg := models.PricingConfig{BaseRadiusMiles: 3.3, MaxRadiusMiles: 42.7, CostPerMile: 137}
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		d := r.Float64() * 45
		base := models.Cents(r.Int63n(20000))
		a, okA := ComputeTotalPrice(base, d, cfg)
		b, okB := ComputeTotalPrice(base, d, cfg)
		if a != b || okA != okB {
			t.Fatalf("non-deterministic total for %v: %d/%v vs %d/%v", d, a, okA, b, okB)
		}
	}
}

func TestSurchargeRoundsHalfUp(t *testing.T) {
	// 0.5 extra miles at 1 cent per mile is exactly half a cent.
	cfg := models.PricingConfig{BaseRadiusMiles: 10, MaxRadiusMiles: 30, CostPerMile: 1}
	if s, _ := ComputeSurcharge(10.5, cfg); s != 1 {
		t.Fatalf("expected half a cent to round up to 1, got %d", s)
	}
	cfg.CostPerMile = 333
	if s, _ := ComputeSurcharge(11.5, cfg); s != 500 {
		t.Fatalf("expected 499.5 to round to 500, got %d", s)
	}
}

func TestComputeTotalDuration(t *testing.T) {
	if got := ComputeTotalDuration(30, 15, 10); got != 55 {
		t.Fatalf("expected 55, got %d", got)
	}
	if got := ComputeTotalDuration(0, 0, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestQuoteFor(t *testing.T) {
	cfg := defaultConfig()

	free := QuoteFor(4000, 5, cfg)
	if free.Zone != ZoneFree || !free.Feasible || free.TotalPrice != 4000 {
		t.Fatalf("unexpected free quote %+v", free)
	}

	mid := QuoteFor(4000, 20, cfg)
	if mid.Zone != ZoneSurcharge || mid.TravelSurcharge != 1500 || mid.TotalPrice != 5500 {
		t.Fatalf("unexpected surcharge quote %+v", mid)
	}
	if mid.Message != "A travel surcharge of $15.00 applies for 20.0 mi." {
		t.Fatalf("unexpected message %q", mid.Message)
	}

	far := QuoteFor(4000, 35, cfg)
	if far.Zone != ZoneOutOfArea || far.Feasible || far.TotalPrice != 0 {
		t.Fatalf("unexpected out of area quote %+v", far)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{45: "45min", 60: "1hr", 75: "1hr 15min", 120: "2hr"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%d): expected %q, got %q", in, want, got)
		}
	}
	if got := FormatDistance(12.345); got != "12.3 mi" {
		t.Fatalf("unexpected distance format %q", got)
	}
}
