package geo

import (
	"math"
	"testing"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
)

// One degree of longitude at the equator.
const oneDegreeMeters = EarthRadiusMeters * math.Pi / 180

func TestDistance(t *testing.T) {
	if d := Distance(50.0, 4.0, 50.0, 4.0); d != 0 {
		t.Errorf("expected zero distance for identical points, got %v", d)
	}

	d := Distance(0, 0, 0, 1)
	if math.Abs(d-oneDegreeMeters) > 1 {
		t.Errorf("expected ~%v m for one equatorial degree, got %v", oneDegreeMeters, d)
	}

	// Symmetric.
	if d1, d2 := Distance(50, 4, 51, 5), Distance(51, 5, 50, 4); math.Abs(d1-d2) > 1e-6 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestBearing(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"due east", 0, 0, 0, 1, 90},
		{"due north", 0, 0, 1, 0, 0},
		{"due west", 0, 1, 0, 0, 270},
		{"due south", 1, 0, 0, 0, 180},
	}
	for _, tc := range cases {
		got := Bearing(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
		if math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("%s: expected bearing %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestProjectRoundTrip(t *testing.T) {
	lat, lon := Project(50.8466, 4.3528, 90, 1000)
	if d := Distance(50.8466, 4.3528, lat, lon); math.Abs(d-1000) > 0.01 {
		t.Errorf("expected projected point 1000 m away, got %v", d)
	}

	// Zero distance stays put.
	lat, lon = Project(50.8466, 4.3528, 45, 0)
	if math.Abs(lat-50.8466) > 1e-9 || math.Abs(lon-4.3528) > 1e-9 {
		t.Errorf("zero-distance projection moved to (%v, %v)", lat, lon)
	}
}

func TestDeadReckon(t *testing.T) {
	now := time.Now()
	sample := model.RiderSample{
		RiderID:    "rider-1",
		Latitude:   model.Float64(50.0),
		Longitude:  model.Float64(4.0),
		Speed:      model.Float64(10.0),
		Heading:    model.Float64(90.0),
		CapturedAt: now.Add(-10 * time.Second),
	}

	lat, lon, ok := DeadReckon(&sample, now)
	if !ok {
		t.Fatal("expected dead reckoning to succeed")
	}
	if d := Distance(50.0, 4.0, lat, lon); math.Abs(d-100) > 0.1 {
		t.Errorf("expected ~100 m displacement, got %v", d)
	}
	if lon <= 4.0 {
		t.Errorf("expected eastward movement, got longitude %v", lon)
	}

	// Missing heading.
	noHeading := sample
	noHeading.Heading = nil
	if _, _, ok := DeadReckon(&noHeading, now); ok {
		t.Error("expected failure without heading")
	}

	// Sample not in the past.
	future := sample
	future.CapturedAt = now.Add(time.Second)
	if _, _, ok := DeadReckon(&future, now); ok {
		t.Error("expected failure for a future sample")
	}
}
