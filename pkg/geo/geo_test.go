package geo

import (
	"encoding/json"
	"math"
	"testing"
)

// TestBearing tests initial bearing calculation between known points
func TestBearing(t *testing.T) {
	tests := []struct {
		name      string
		from      Coordinate
		to        Coordinate
		want      float64 // Expected bearing (degrees, -180..180)
		tolerance float64
	}{
		{
			name:      "Due north",
			from:      Coordinate{Longitude: -121.5, Latitude: 48.0},
			to:        Coordinate{Longitude: -121.5, Latitude: 49.0},
			want:      0.0,
			tolerance: 0.01,
		},
		{
			name:      "Due east",
			from:      Coordinate{Longitude: -121.5, Latitude: 0.0},
			to:        Coordinate{Longitude: -120.5, Latitude: 0.0},
			want:      90.0,
			tolerance: 0.01,
		},
		{
			name:      "Due south",
			from:      Coordinate{Longitude: -121.5, Latitude: 49.0},
			to:        Coordinate{Longitude: -121.5, Latitude: 48.0},
			want:      180.0,
			tolerance: 0.01,
		},
		{
			name:      "Due west",
			from:      Coordinate{Longitude: -120.5, Latitude: 0.0},
			to:        Coordinate{Longitude: -121.5, Latitude: 0.0},
			want:      -90.0,
			tolerance: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.from, tt.to)
			diff := math.Abs(got - tt.want)
			// Account for the ±180 seam
			if diff > 180.0 {
				diff = 360.0 - diff
			}
			if diff > tt.tolerance {
				t.Errorf("Bearing = %.4f, want %.4f (±%.2f)", got, tt.want, tt.tolerance)
			}
		})
	}
}

// TestDestinationRoundTrip projects a point out and verifies the distance and
// bearing back to the origin are consistent
func TestDestinationRoundTrip(t *testing.T) {
	origin := Coordinate{Longitude: -121.519146, Latitude: 48.443526}

	tests := []struct {
		name    string
		miles   float64
		bearing float64
	}{
		{"30 miles northeast", 30.0, 32.0},
		{"30 miles southwest", 30.0, -122.0},
		{"5 miles northwest", 5.0, -45.0},
		{"short hop east", 0.25, 90.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := Destination(origin, tt.miles, tt.bearing)

			gotDist := DistanceMiles(origin, dest)
			if math.Abs(gotDist-tt.miles) > 0.001 {
				t.Errorf("DistanceMiles = %.6f, want %.6f", gotDist, tt.miles)
			}

			gotBearing := Bearing(origin, dest)
			diff := math.Abs(gotBearing - tt.bearing)
			if diff > 180.0 {
				diff = 360.0 - diff
			}
			if diff > 0.01 {
				t.Errorf("Bearing to destination = %.4f, want %.4f", gotBearing, tt.bearing)
			}
		})
	}
}

// TestDistanceMilesKnownValue checks haversine against a hand-computed pair
func TestDistanceMilesKnownValue(t *testing.T) {
	// One degree of latitude is ~69.09 statute miles on the spherical model
	from := Coordinate{Longitude: 0, Latitude: 0}
	to := Coordinate{Longitude: 0, Latitude: 1}

	got := DistanceMiles(from, to)
	want := EarthRadiusMiles * DegreesToRadians
	if math.Abs(got-want) > 0.0001 {
		t.Errorf("DistanceMiles = %.6f, want %.6f", got, want)
	}
}

// TestNormalizeBearing tests bearing wrap-around
func TestNormalizeBearing(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0.0, 0.0},
		{90.0, 90.0},
		{180.0, -180.0},
		{-180.0, -180.0},
		{181.0, -179.0},
		{-181.0, 179.0},
		{360.0, 0.0},
		{540.0, -180.0},
	}

	for _, tt := range tests {
		got := NormalizeBearing(tt.input)
		if math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("NormalizeBearing(%.1f) = %.1f, want %.1f", tt.input, got, tt.want)
		}
	}
}

// TestCoordinateJSON tests the [lon, lat] wire encoding
func TestCoordinateJSON(t *testing.T) {
	c := Coordinate{Longitude: -121.519146, Latitude: 48.443526}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := "[-121.519146,48.443526]"
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Coordinate
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back != c {
		t.Errorf("round trip = %+v, want %+v", back, c)
	}

	if err := json.Unmarshal([]byte(`{"lon": 1}`), &back); err == nil {
		t.Error("expected error for non-array coordinate")
	}
}
