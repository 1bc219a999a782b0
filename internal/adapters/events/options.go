package events

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithMinConfidence sets the confidence threshold below which candidate
// detections are dropped.
func WithMinConfidence(c float64) Option {
	return func(s *Store) {
		if c >= 0 && c <= 1 {
			s.minConfidence = c
		}
	}
}

// WithMergeWindow sets the time window for merging near-duplicate events.
func WithMergeWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.mergeWindow = d
		}
	}
}

// WithMergeDistance sets the spatial distance in meters for merging
// near-duplicate events.
func WithMergeDistance(meters float64) Option {
	return func(s *Store) {
		if meters >= 0 {
			s.mergeDistance = meters
		}
	}
}

// WithRetention sets how long events are kept before cleanup removes them.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithMaxEvents caps the number of events held in memory; the oldest are
// evicted first past the cap.
func WithMaxEvents(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithPublisher sets the notification fan-out target.
func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}
