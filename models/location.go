package models

import (
	"fmt"
	"math"
)

// Location is a WGS84 coordinate.
type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Validate rejects coordinates outside the valid ranges.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return NewSchedulingError(KindInvalidRequest, fmt.Sprintf("invalid coordinates (%v, %v)", l.Latitude, l.Longitude), nil)
	}
	return nil
}

// String renders "lat,lng", the form the Distance Matrix API expects.
func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// ToGeoPoint converts to the GeoJSON form used for 2dsphere indexes.
func (l Location) ToGeoPoint() GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{l.Longitude, l.Latitude}}
}

// Location converts back to lat/lng. A malformed point yields the zero location.
func (g GeoPoint) Location() Location {
	if len(g.Coordinates) != 2 {
		return Location{}
	}
	return Location{Latitude: g.Coordinates[1], Longitude: g.Coordinates[0]}
}
