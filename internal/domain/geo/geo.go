// Package geo provides the great-circle primitives used by position
// interpolation, group analysis and event correlation.
package geo

import (
	"math"
	"time"

	"github.com/golang/geo/s2"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
)

// EarthRadiusMeters is Earth's mean radius.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between two points in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Bearing returns the initial bearing (forward azimuth) from point 1 to
// point 2 in degrees, 0 = north, clockwise.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lonDiff := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(lonDiff) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)
	bearing := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// Project returns the destination point reached from (lat, lon) after
// traveling distance meters along the given bearing in degrees.
func Project(lat, lon, bearingDeg, distance float64) (float64, float64) {
	p := s2.LatLngFromDegrees(lat, lon)
	bearingRad := bearingDeg * math.Pi / 180
	angularDistance := distance / EarthRadiusMeters

	latRad := p.Lat.Radians()
	lonRad := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDistance) +
		math.Cos(latRad)*math.Sin(angularDistance)*math.Cos(bearingRad))
	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDistance)*math.Cos(latRad),
		math.Cos(angularDistance)-math.Sin(latRad)*math.Sin(lat2))

	return lat2 * 180 / math.Pi, lon2 * 180 / math.Pi
}

// DeadReckon projects where a rider should be at now, assuming they kept the
// sample's speed and heading since it was captured. Returns false when the
// sample lacks location, speed or heading, or when now is not after the
// sample.
func DeadReckon(s *model.RiderSample, now time.Time) (lat, lon float64, ok bool) {
	if !s.CanDeadReckon() {
		return 0, 0, false
	}
	elapsed := now.Sub(s.CapturedAt).Seconds()
	if elapsed <= 0 {
		return 0, 0, false
	}
	displacement := *s.Speed * elapsed
	lat, lon = Project(*s.Latitude, *s.Longitude, *s.Heading, displacement)
	return lat, lon, true
}
