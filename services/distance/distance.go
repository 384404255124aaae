// Package distance resolves travel distance and time between a provider's base
// and a customer location.
package distance

import (
	"context"
	"errors"
	"math"

	"fadetogo/models"
)

const metersPerMile = 1609.344

// ErrNoRoute means the provider answered but found no route between the points.
var ErrNoRoute = errors.New("no route between locations")

// Result is the travel distance in miles and the travel time in whole minutes.
type Result struct {
	Miles         float64 `json:"miles"`
	TravelMinutes int     `json:"travelMinutes"`
}

// Provider resolves the distance between two points.
type Provider interface {
	Resolve(ctx context.Context, origin, destination models.Location) (Result, error)
}

// MetersToMiles converts and rounds to two decimals, half up.
func MetersToMiles(meters float64) float64 {
	return float64(models.RoundHalfUp(meters/metersPerMile*100)) / 100
}

// secondsToMinutes rounds a travel time up to the next whole minute so a
// booking never under-reserves travel.
func secondsToMinutes(seconds float64) int {
	return int(math.Ceil(seconds / 60))
}
