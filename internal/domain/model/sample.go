// Package model contains domain models passed between layers.
package model

import "time"

// RiderSample is an immutable point-in-time telemetry reading for one rider.
// Optional fields are pointers so that "absent" is distinguishable from zero;
// real feeds are frequently partial.
type RiderSample struct {
	RiderID       string
	Name          string
	Team          string
	Bib           string
	Rank          int
	Latitude      *float64 // degrees, [-90, 90]
	Longitude     *float64 // degrees, [-180, 180]
	Speed         *float64 // m/s
	Heading       *float64 // degrees, 0 = north, clockwise
	Altitude      *float64 // meters
	TimeFromStart *float64 // elapsed race time in seconds
	Distance      *float64 // distance covered in meters
	CapturedAt    time.Time
	Confidence    float64 // [0, 1]; interpolated samples carry less than their origin
	Source        string
}

// SourceInterpolated marks samples produced by dead reckoning rather than a feed.
const SourceInterpolated = "interpolated"

// HasLocation reports whether both coordinates are present.
func (s *RiderSample) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// CanDeadReckon reports whether the sample carries everything a dead-reckoning
// projection needs.
func (s *RiderSample) CanDeadReckon() bool {
	return s.HasLocation() && s.Speed != nil && s.Heading != nil
}

// Float64 returns a pointer to v. Convenience for building samples with
// optional fields.
func Float64(v float64) *float64 {
	return &v
}
