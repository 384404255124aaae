// Package pricing computes distance-tiered travel surcharges, total prices and
// booking durations. Every function is pure and safe for concurrent use.
package pricing

import (
	"fmt"
	"math"

	"fadetogo/models"
)

// Zone is where a distance falls relative to a provider's radius tiers.
type Zone string

const (
	ZoneFree      Zone = "free"
	ZoneSurcharge Zone = "surcharge"
	ZoneOutOfArea Zone = "out_of_area"
)

// ZoneFor classifies a distance. NaN is treated as out of area.
func ZoneFor(distanceMiles float64, cfg models.PricingConfig) Zone {
	switch {
	case math.IsNaN(distanceMiles) || distanceMiles > cfg.MaxRadiusMiles:
		return ZoneOutOfArea
	case distanceMiles <= cfg.BaseRadiusMiles:
		return ZoneFree
	default:
		return ZoneSurcharge
	}
}

// ComputeSurcharge returns the travel surcharge for a distance. ok is false
// when the distance lies outside the service area; the amount is then
// meaningless and must not be used as a price.
func ComputeSurcharge(distanceMiles float64, cfg models.PricingConfig) (surcharge models.Cents, ok bool) {
	switch ZoneFor(distanceMiles, cfg) {
	case ZoneOutOfArea:
		return 0, false
	case ZoneFree:
		return 0, true
	}
	extra := distanceMiles - cfg.BaseRadiusMiles
	return models.Cents(models.RoundHalfUp(extra * float64(cfg.CostPerMile))), true
}

// ComputeTotalPrice returns basePrice plus the travel surcharge, rounded to
// the cent, or ok=false when the distance is outside the service area.
func ComputeTotalPrice(basePrice models.Cents, distanceMiles float64, cfg models.PricingConfig) (total models.Cents, ok bool) {
	surcharge, ok := ComputeSurcharge(distanceMiles, cfg)
	if !ok {
		return 0, false
	}
	// Both terms are already whole cents, so rounding the sum is exact.
	return basePrice + surcharge, true
}

// ComputeTotalDuration is travel + service + buffer, in minutes.
func ComputeTotalDuration(serviceMinutes, travelMinutes, bufferMinutes int) int {
	return serviceMinutes + travelMinutes + bufferMinutes
}

// IsWithinServiceArea reports whether distanceMiles <= maxRadiusMiles.
func IsWithinServiceArea(distanceMiles, maxRadiusMiles float64) bool {
	return distanceMiles <= maxRadiusMiles
}

// Quote is a full price preview for one distance.
type Quote struct {
	Zone            Zone         `json:"zone"`
	DistanceMiles   float64      `json:"distanceMiles"`
	BasePrice       models.Cents `json:"basePrice"`
	TravelSurcharge models.Cents `json:"travelSurcharge"`
	TotalPrice      models.Cents `json:"totalPrice"`
	Feasible        bool         `json:"feasible"`
	Message         string       `json:"message"`
}

// QuoteFor prices a job without touching any schedule.
func QuoteFor(basePrice models.Cents, distanceMiles float64, cfg models.PricingConfig) Quote {
	q := Quote{
		Zone:          ZoneFor(distanceMiles, cfg),
		DistanceMiles: distanceMiles,
		BasePrice:     basePrice,
	}
	if surcharge, ok := ComputeSurcharge(distanceMiles, cfg); ok {
		q.TravelSurcharge = surcharge
		q.TotalPrice, q.Feasible = ComputeTotalPrice(basePrice, distanceMiles, cfg)
	}
	q.Message = PricingMessage(q)
	return q
}

// PricingMessage is the customer-facing explanation of a quote.
func PricingMessage(q Quote) string {
	switch q.Zone {
	case ZoneFree:
		return "Within the free travel zone, no extra charge."
	case ZoneOutOfArea:
		return "Outside the service area, this provider cannot travel to you."
	default:
		return fmt.Sprintf("A travel surcharge of %s applies for %s.", FormatPrice(q.TravelSurcharge), FormatDistance(q.DistanceMiles))
	}
}

func FormatPrice(c models.Cents) string {
	return c.String()
}

func FormatDistance(miles float64) string {
	return fmt.Sprintf("%.1f mi", miles)
}

// FormatDuration renders minutes as "45min", "1hr" or "1hr 15min".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	hours, mins := minutes/60, minutes%60
	if mins == 0 {
		return fmt.Sprintf("%dhr", hours)
	}
	return fmt.Sprintf("%dhr %dmin", hours, mins)
}
