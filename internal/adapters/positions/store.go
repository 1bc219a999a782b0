// Package positions holds the per-rider latest telemetry plus a bounded
// recent-history buffer. It owns sample validation and the per-rider
// monotonic-ordering invariant.
package positions

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/geo"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultHistorySize    = 100
	defaultMaxRank        = 500
	defaultMaxSpeedMS     = 33.0
	defaultMaxSampleAge   = 5 * time.Minute
	defaultStaleTimeout   = time.Minute
	defaultInterpolateMin = 5 * time.Second
	defaultInterpolateMax = 30 * time.Second

	// Interpolated samples lose up to half of the origin confidence across
	// the interpolation band, and always lose at least a little.
	maxConfidenceLoss = 0.5
	minDecayFactor    = 0.95
)

// Stats counts ingestion outcomes. Ordering drops are deliberately separate
// from validation rejections; the former are expected during normal feed
// operation, the latter indicate feed quality problems.
type Stats struct {
	Ingested     uint64
	OutOfOrder   uint64
	Interpolated uint64
	StaleRemoved uint64
	Rejected     map[string]uint64
}

// riderTrack is the mutable per-rider state: the latest accepted sample and
// a ring of prior samples. Timestamps across latest+history are strictly
// increasing.
type riderTrack struct {
	latest  model.RiderSample
	history *ring
}

// Store is the in-memory position store for one race.
type Store struct {
	mu     sync.RWMutex
	tracks map[string]*riderTrack

	historySize    int
	maxRank        int
	maxSpeed       float64
	maxSampleAge   time.Duration
	staleTimeout   time.Duration
	interpolateMin time.Duration
	interpolateMax time.Duration

	newestSeen time.Time
	stats      Stats
}

// NewStore creates a position store with configuration options.
func NewStore(opts ...Option) *Store {
	s := &Store{
		tracks:         make(map[string]*riderTrack),
		historySize:    defaultHistorySize,
		maxRank:        defaultMaxRank,
		maxSpeed:       defaultMaxSpeedMS,
		maxSampleAge:   defaultMaxSampleAge,
		staleTimeout:   defaultStaleTimeout,
		interpolateMin: defaultInterpolateMin,
		interpolateMax: defaultInterpolateMax,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stats.Rejected = make(map[string]uint64)
	return s
}

// Ingest validates and stores a telemetry sample. It returns true when the
// sample was accepted. Rejections and ordering drops are surfaced through
// Stats and metrics only; they are not errors (spec'd feed behavior, the
// caller keeps its own counters).
func (s *Store) Ingest(ctx context.Context, sample model.RiderSample) bool {
	now := time.Now()

	if reason := s.validate(&sample, now); reason != "" {
		s.mu.Lock()
		s.stats.Rejected[reason]++
		s.mu.Unlock()
		metrics.RecordSampleRejected(reason)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.tracks[sample.RiderID]
	if ok && !sample.CapturedAt.After(track.latest.CapturedAt) {
		// Ordering invariant: silent drop, not a validation failure.
		s.stats.OutOfOrder++
		metrics.RecordSampleOutOfOrder()
		return false
	}

	if !ok {
		track = &riderTrack{history: newRing(s.historySize)}
		s.tracks[sample.RiderID] = track
	} else {
		if track.history.push(track.latest) {
			metrics.RecordHistoryEviction()
		}
	}
	track.latest = sample

	if sample.CapturedAt.Before(s.newestSeen) {
		metrics.RecordSampleBackfilled()
	} else {
		s.newestSeen = sample.CapturedAt
	}

	s.stats.Ingested++
	metrics.RecordSampleIngested()
	metrics.UpdateTrackedRiders(len(s.tracks))
	return true
}

// validate returns the rejection reason, or "" for a valid sample.
func (s *Store) validate(sample *model.RiderSample, now time.Time) string {
	switch {
	case sample.RiderID == "":
		return ReasonEmptyRiderID
	case sample.Rank < 0 || sample.Rank > s.maxRank:
		return ReasonRankBounds
	case sample.Confidence < 0 || sample.Confidence > 1:
		return ReasonConfidence
	}
	if sample.Latitude != nil || sample.Longitude != nil {
		if !sample.HasLocation() ||
			*sample.Latitude < -90 || *sample.Latitude > 90 ||
			*sample.Longitude < -180 || *sample.Longitude > 180 {
			return ReasonLocationRange
		}
	}
	if sample.Speed != nil && (*sample.Speed < 0 || *sample.Speed > s.maxSpeed) {
		return ReasonSpeedCeiling
	}
	if now.Sub(sample.CapturedAt) > s.maxSampleAge {
		return ReasonTooOld
	}
	return ""
}

// Interpolate runs one dead-reckoning pass. Riders whose latest sample age
// is inside the configured band and who carry location, speed and heading
// get a synthetic sample projected along their bearing; confidence decays
// proportionally to the elapsed time and is always strictly lower than the
// origin's. Riders outside the band are left untouched. Returns the number
// of riders interpolated.
func (s *Store) Interpolate(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	interpolated := 0
	for _, track := range s.tracks {
		age := now.Sub(track.latest.CapturedAt)
		if age <= s.interpolateMin || age > s.interpolateMax {
			continue
		}
		lat, lon, ok := geo.DeadReckon(&track.latest, now)
		if !ok {
			continue
		}

		synthetic := track.latest
		synthetic.Latitude = &lat
		synthetic.Longitude = &lon
		synthetic.CapturedAt = now
		synthetic.Source = model.SourceInterpolated
		synthetic.Confidence = track.latest.Confidence * s.decayFactor(age)

		elapsed := age.Seconds()
		if track.latest.TimeFromStart != nil {
			synthetic.TimeFromStart = model.Float64(*track.latest.TimeFromStart + elapsed)
		}
		if track.latest.Distance != nil && track.latest.Speed != nil {
			synthetic.Distance = model.Float64(*track.latest.Distance + *track.latest.Speed*elapsed)
		}

		if track.history.push(track.latest) {
			metrics.RecordHistoryEviction()
		}
		track.latest = synthetic

		interpolated++
		s.stats.Interpolated++
		metrics.RecordInterpolatedSample()
	}
	return interpolated
}

// decayFactor maps a sample age inside the interpolation band to a
// multiplicative confidence loss in (0, minDecayFactor].
func (s *Store) decayFactor(age time.Duration) float64 {
	span := (s.interpolateMax - s.interpolateMin).Seconds()
	frac := (age - s.interpolateMin).Seconds() / span
	factor := 1 - maxConfidenceLoss*frac
	if factor > minDecayFactor {
		factor = minDecayFactor
	}
	if factor < maxConfidenceLoss {
		factor = maxConfidenceLoss
	}
	return factor
}

// CleanupStale removes riders whose latest sample age exceeds the staleness
// timeout. Returns the removed rider ids.
func (s *Store) CleanupStale(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, track := range s.tracks {
		if now.Sub(track.latest.CapturedAt) > s.staleTimeout {
			delete(s.tracks, id)
			removed = append(removed, id)
			s.stats.StaleRemoved++
			metrics.RecordStaleRiderRemoved()
		}
	}
	if len(removed) > 0 {
		metrics.UpdateTrackedRiders(len(s.tracks))
		sort.Strings(removed)
	}
	return removed
}

// Snapshot returns a copy of every tracked rider's latest sample, sorted by
// rider id so downstream clustering sees a deterministic input order.
func (s *Store) Snapshot(ctx context.Context) []model.RiderSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RiderSample, 0, len(s.tracks))
	for _, track := range s.tracks {
		out = append(out, track.latest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RiderID < out[j].RiderID })
	return out
}

// Latest returns the latest sample for one rider.
func (s *Store) Latest(ctx context.Context, riderID string) (model.RiderSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	track, ok := s.tracks[riderID]
	if !ok {
		return model.RiderSample{}, fmt.Errorf("%w: %s", ErrRiderNotFound, riderID)
	}
	return track.latest, nil
}

// History returns the rider's buffered samples oldest-first, with the
// latest sample appended last.
func (s *Store) History(ctx context.Context, riderID string) ([]model.RiderSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	track, ok := s.tracks[riderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRiderNotFound, riderID)
	}
	out := track.history.items()
	out = append(out, track.latest)
	return out, nil
}

// Count returns the number of currently tracked riders.
func (s *Store) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Stats returns a copy of the ingestion statistics.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.stats
	out.Rejected = make(map[string]uint64, len(s.stats.Rejected))
	for k, v := range s.stats.Rejected {
		out.Rejected[k] = v
	}
	return out
}
