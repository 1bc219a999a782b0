// Package feedsim generates a synthetic road-race telemetry feed and drives
// the tracking service with it. It exists for load checks and demoing the
// detection pipeline without a live race feed.
package feedsim

import "time"

// Default simulation constants.
const (
	defaultRiders        = 30
	defaultBreakawaySize = 4
	defaultTick          = time.Second
	defaultDuration      = 60 * time.Second

	pelotonSpeedMS   = 11.5 // ~41 km/h
	breakawaySpeedMS = 13.5 // ~49 km/h
	speedJitterMS    = 0.6

	// Breakaway riders start with a head start so group detection splits
	// them off immediately.
	breakawayHeadStartMeters = 600

	startLat      = 50.8466 // Brussels, a classics start town
	startLng      = 4.3528
	routeBearing  = 90.0 // due east
	crashTickFrac = 0.5  // inject a crash halfway through the run
	crashDuration = 5    // ticks a crashed rider stays near-stationary
)

// Config tunes one simulation run.
type Config struct {
	Riders        int
	BreakawaySize int
	Tick          time.Duration
	Duration      time.Duration
	Seed          int64
	InjectCrash   bool
}

// NewConfig returns a simulation config with defaults.
func NewConfig() *Config {
	return &Config{
		Riders:        defaultRiders,
		BreakawaySize: defaultBreakawaySize,
		Tick:          defaultTick,
		Duration:      defaultDuration,
		Seed:          1,
		InjectCrash:   true,
	}
}
