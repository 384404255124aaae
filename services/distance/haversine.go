package distance

import (
	"context"
	"math"

	"fadetogo/models"
)

const earthRadiusMiles = 3958.8

// Haversine estimates straight-line distance and derives travel time from an
// average speed. Used when no routing API key is configured.
type Haversine struct {
	AverageSpeedMPH float64
}

func (h Haversine) Resolve(ctx context.Context, origin, destination models.Location) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	miles := GreatCircleMiles(origin, destination)
	speed := h.AverageSpeedMPH
	if speed <= 0 {
		speed = 25
	}
	return Result{
		Miles:         float64(models.RoundHalfUp(miles*100)) / 100,
		TravelMinutes: secondsToMinutes(miles / speed * 3600),
	}, nil
}

// GreatCircleMiles is the haversine distance between two points.
func GreatCircleMiles(a, b models.Location) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(b.Latitude - a.Latitude)
	dLng := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}
