package positions

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithHistorySize sets the per-rider history buffer capacity.
func WithHistorySize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithMaxRank sets the highest plausible race rank.
func WithMaxRank(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRank = n
		}
	}
}

// WithMaxSpeed sets the physically-implausible speed ceiling in m/s.
func WithMaxSpeed(ms float64) Option {
	return func(s *Store) {
		if ms > 0 {
			s.maxSpeed = ms
		}
	}
}

// WithMaxSampleAge sets the oldest timestamp the store will backfill.
func WithMaxSampleAge(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.maxSampleAge = d
		}
	}
}

// WithStaleTimeout sets the age past which a rider is dropped entirely.
func WithStaleTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.staleTimeout = d
		}
	}
}

// WithInterpolationBand sets the age band eligible for dead reckoning.
func WithInterpolationBand(minAge, maxAge time.Duration) Option {
	return func(s *Store) {
		if minAge >= 0 && maxAge > minAge {
			s.interpolateMin = minAge
			s.interpolateMax = maxAge
		}
	}
}
