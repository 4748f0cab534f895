package geo

import (
	"math"
	"testing"
)

func TestDistanceKnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 40.0078, -83.0294, 40.0078, -83.0294, 0, 1e-9},
		{"one degree of latitude", 0, 0, 1, 0, 111194.93, 1},
		{"one degree of longitude on equator", 0, 0, 0, 1, 111194.93, 1},
		{"quarter meridian", 0, 0, 90, 0, math.Pi / 2 * EarthRadiusMeters, 1},
		{"antipodal", 0, 0, 0, 180, math.Pi * EarthRadiusMeters, 1},
		{"poles", 90, 0, -90, 0, math.Pi * EarthRadiusMeters, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.IsNaN(got) {
				t.Fatalf("got NaN")
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Fatalf("got %.3f want %.3f", got, tt.want)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	points := [][2]float64{
		{40.0078, -83.0294},
		{40.0025, -83.0152},
		{39.9993, -83.0085},
		{-33.8688, 151.2093},
		{90, 0},
		{-90, 180},
		{0, -180},
	}

	for i, a := range points {
		if d := Distance(a[0], a[1], a[0], a[1]); d != 0 {
			t.Fatalf("point %d: distance to itself = %v, want 0", i, d)
		}
		for j, b := range points {
			ab := Distance(a[0], a[1], b[0], b[1])
			ba := Distance(b[0], b[1], a[0], a[1])
			if math.Abs(ab-ba) > 1e-6 {
				t.Fatalf("points %d,%d: %v != %v", i, j, ab, ba)
			}
			if ab < 0 || math.IsNaN(ab) {
				t.Fatalf("points %d,%d: invalid distance %v", i, j, ab)
			}
		}
	}
}

func TestDistanceCampusScale(t *testing.T) {
	// Thompson Library -> 18th Ave Library, roughly 1.4 km.
	got := Distance(40.0078, -83.0294, 40.0025, -83.0152)
	if got < 1300 || got > 1400 {
		t.Fatalf("got %.1f m, want about 1.35 km", got)
	}
}
