// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults; Load(ctx) layers an
//     optional YAML file and environment variables on top.
//   - All tuning thresholds for group detection, tactical heuristics and
//     event handling live here; none of them are hard-coded in components.
package config

// Config contains process configuration for one race-tracking instance.
// The numeric thresholds are empirically tuned against real race feeds and
// should be treated as starting points, not ground truth.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the operational HTTP listen address (metrics, health).
	Addr string `koanf:"addr"`

	// Position store.
	HistorySize         int     `koanf:"history_size"`           // samples kept per rider
	MaxRank             int     `koanf:"max_rank"`               // highest plausible race rank
	MaxSpeedMS          float64 `koanf:"max_speed_ms"`           // physically-implausible speed ceiling, m/s
	MaxSampleAgeSeconds float64 `koanf:"max_sample_age_seconds"` // oldest timestamp the store will backfill
	StaleTimeoutSeconds float64 `koanf:"stale_timeout_seconds"`  // rider dropped entirely past this age

	// Dead-reckoning interpolation band. Riders fresher than the minimum are
	// left alone; riders older than the maximum are no longer trusted.
	InterpolateMinAgeSeconds float64 `koanf:"interpolate_min_age_seconds"`
	InterpolateMaxAgeSeconds float64 `koanf:"interpolate_max_age_seconds"`

	// Group detection.
	GroupProximitySeconds float64 `koanf:"group_proximity_seconds"` // neighbor gap that splits groups
	SmallGroupMaxSize     int     `koanf:"small_group_max_size"`
	PelotonMinSize        int     `koanf:"peloton_min_size"`
	BreakawayMaxSize      int     `koanf:"breakaway_max_size"`
	BreakawayGapSeconds   float64 `koanf:"breakaway_gap_seconds"` // separation that makes a lead group a breakaway

	// Tactical situation heuristics.
	SprintSpeedMS       float64 `koanf:"sprint_speed_ms"`
	SprintGroupMinSize  int     `koanf:"sprint_group_min_size"`
	RaceDistanceMeters  float64 `koanf:"race_distance_meters"`
	SprintWindowMeters  float64 `koanf:"sprint_window_meters"` // distance-to-finish that arms sprint detection
	ClimbMaxSpeedMS     float64 `koanf:"climb_max_speed_ms"`
	ClimbAltitudeSlope  float64 `koanf:"climb_altitude_slope"` // meters climbed per second that signals a climb
	ActiveWindowSeconds float64 `koanf:"active_window_seconds"`

	// Detection scheduler intervals.
	StateIntervalMS   int `koanf:"state_interval_ms"`
	DetectIntervalMS  int `koanf:"detect_interval_ms"`
	CleanupIntervalMS int `koanf:"cleanup_interval_ms"`

	// Event store.
	MinEventConfidence    float64 `koanf:"min_event_confidence"`
	MergeWindowSeconds    float64 `koanf:"merge_window_seconds"`
	MergeDistanceMeters   float64 `koanf:"merge_distance_meters"`
	EventRetentionSeconds float64 `koanf:"event_retention_seconds"`
	MaxEvents             int     `koanf:"max_events"`
	NotifyBufferSize      int     `koanf:"notify_buffer_size"`
}

// New creates a Config with defaults tuned for road-race telemetry arriving
// every few seconds per rider.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":9080",

		HistorySize:         100,
		MaxRank:             500,
		MaxSpeedMS:          33.0, // ~120 km/h, beyond any descent
		MaxSampleAgeSeconds: 300,
		StaleTimeoutSeconds: 60,

		InterpolateMinAgeSeconds: 5,
		InterpolateMaxAgeSeconds: 30,

		GroupProximitySeconds: 5,
		SmallGroupMaxSize:     10,
		PelotonMinSize:        20,
		BreakawayMaxSize:      8,
		BreakawayGapSeconds:   30,

		SprintSpeedMS:       16.0, // ~58 km/h
		SprintGroupMinSize:  15,
		RaceDistanceMeters:  180_000,
		SprintWindowMeters:  3_000,
		ClimbMaxSpeedMS:     7.0,
		ClimbAltitudeSlope:  0.2,
		ActiveWindowSeconds: 30,

		StateIntervalMS:   1_000,
		DetectIntervalMS:  2_000,
		CleanupIntervalMS: 10_000,

		MinEventConfidence:    0.5,
		MergeWindowSeconds:    60,
		MergeDistanceMeters:   500,
		EventRetentionSeconds: 3_600,
		MaxEvents:             1_000,
		NotifyBufferSize:      256,
	}
}
