// Package geo provides spherical great-circle math for positions on Earth.
//
// All calculations use a spherical Earth model (WGS84 mean radius), which is
// accurate to well under a tenth of a percent over the theater-scale distances
// this project simulates. Ellipsoidal corrections are deliberately out of scope.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusMiles is the Earth's mean radius in statute miles (WGS84)
	EarthRadiusMiles = 3958.7613
)

// Coordinate represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Coordinate struct {
	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64

	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64
}

// MarshalJSON encodes the coordinate as a GeoJSON-style [longitude, latitude]
// pair, which is the wire format every downstream consumer expects.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Longitude, c.Latitude})
}

// UnmarshalJSON decodes a [longitude, latitude] pair.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinate must be a [lon, lat] pair: %w", err)
	}
	c.Longitude = pair[0]
	c.Latitude = pair[1]
	return nil
}

// ToRadians converts the coordinate to radians.
// Returns (lonRad, latRad).
func (c Coordinate) ToRadians() (float64, float64) {
	return c.Longitude * DegreesToRadians, c.Latitude * DegreesToRadians
}

// Bearing calculates the initial bearing (forward azimuth) from one point to
// another along a great circle.
// Returns bearing in degrees in the range -180..180, where 0 = North,
// 90 = East, 180/-180 = South, -90 = West.
func Bearing(from, to Coordinate) float64 {
	lon1, lat1 := from.ToRadians()
	lon2, lat2 := to.ToRadians()

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x) * RadiansToDegrees
}

// NormalizeBearing wraps a bearing into the range -180..180.
func NormalizeBearing(bearing float64) float64 {
	b := math.Mod(bearing+180.0, 360.0)
	if b < 0 {
		b += 360.0
	}
	return b - 180.0
}

// DistanceMiles calculates the great-circle distance between two points.
// Uses the Haversine formula for accuracy over short and long distances.
// Returns distance in statute miles.
func DistanceMiles(from, to Coordinate) float64 {
	lon1, lat1 := from.ToRadians()
	lon2, lat2 := to.ToRadians()

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// Destination projects a point a given distance along a bearing from an
// origin, following the great circle. distanceMiles is in statute miles and
// bearing is in degrees (0 = North, 90 = East; negative values accepted).
func Destination(from Coordinate, distanceMiles, bearing float64) Coordinate {
	lon1, lat1 := from.ToRadians()
	brng := bearing * DegreesToRadians
	angular := distanceMiles / EarthRadiusMiles

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Coordinate{
		Longitude: NormalizeBearing(lon2 * RadiansToDegrees),
		Latitude:  lat2 * RadiansToDegrees,
	}
}
