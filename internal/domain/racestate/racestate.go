// Package racestate derives the summary race snapshot and the tactical
// situation label from the current positions and group partition.
//
// The situation heuristic is documented behavior, not derived from first
// principles: a small lead group with real separation signals a breakaway; a
// big, fast bunch close to the finish signals a sprint; uniformly low speeds
// with rising altitude signal a climb; everything else is stable. Thresholds
// come from configuration.
package racestate

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
)

// Config carries the tactical-situation thresholds.
type Config struct {
	SprintSpeedMS       float64
	SprintGroupMinSize  int
	RaceDistanceMeters  float64
	SprintWindowMeters  float64
	ClimbMaxSpeedMS     float64
	ClimbAltitudeSlope  float64 // meters climbed per second across recent samples
	ActiveWindowSeconds float64
}

// Compute rebuilds the race state from scratch. histories supplies recent
// samples per rider for the altitude trend; missing histories simply mean no
// climb signal.
func Compute(snapshot []model.RiderSample, grps []model.Group, histories map[string][]model.RiderSample, cfg Config, now time.Time) model.RaceState {
	state := model.RaceState{
		TotalRiders: len(snapshot),
		GroupCount:  len(grps),
		Situation:   model.SituationStable,
		ComputedAt:  now,
	}

	var speeds []float64
	fastest := ""
	fastestSpeed := -1.0
	maxDistance := -1.0
	hasDistance := false
	for i := range snapshot {
		r := &snapshot[i]
		if cfg.ActiveWindowSeconds <= 0 || now.Sub(r.CapturedAt).Seconds() <= cfg.ActiveWindowSeconds {
			state.ActiveRiders++
		}
		if r.Speed != nil {
			speeds = append(speeds, *r.Speed)
			if *r.Speed > fastestSpeed {
				fastestSpeed = *r.Speed
				fastest = r.RiderID
			}
		}
		if r.Distance != nil {
			hasDistance = true
			if *r.Distance > maxDistance {
				maxDistance = *r.Distance
			}
		}
	}
	if len(speeds) > 0 {
		state.AvgSpeed = stat.Mean(speeds, nil)
		state.FastestRider = fastest
	}

	switch {
	case hasBreakaway(grps):
		state.Situation = model.SituationBreakaway
	case isSprint(grps, state.AvgSpeed, maxDistance, hasDistance, cfg):
		state.Situation = model.SituationSprint
	case isClimb(state.AvgSpeed, len(speeds), altitudeSlope(histories), cfg):
		state.Situation = model.SituationClimb
	}
	return state
}

func hasBreakaway(grps []model.Group) bool {
	for i := range grps {
		if grps[i].Kind == model.GroupBreakaway {
			return true
		}
	}
	return false
}

func isSprint(grps []model.Group, avgSpeed, maxDistance float64, hasDistance bool, cfg Config) bool {
	if avgSpeed < cfg.SprintSpeedMS || !hasDistance {
		return false
	}
	if cfg.RaceDistanceMeters <= 0 || maxDistance < cfg.RaceDistanceMeters-cfg.SprintWindowMeters {
		return false
	}
	for i := range grps {
		if grps[i].Size() >= cfg.SprintGroupMinSize {
			return true
		}
	}
	return false
}

func isClimb(avgSpeed float64, speedCount int, slope float64, cfg Config) bool {
	return speedCount > 0 && avgSpeed <= cfg.ClimbMaxSpeedMS && slope >= cfg.ClimbAltitudeSlope
}

// altitudeSlope fits altitude against time across every rider's recent
// samples and returns the climb rate in meters per second. Riders without
// altitude contribute nothing.
func altitudeSlope(histories map[string][]model.RiderSample) float64 {
	var xs, ys []float64
	var t0 time.Time
	for _, samples := range histories {
		for i := range samples {
			s := &samples[i]
			if s.Altitude == nil {
				continue
			}
			if t0.IsZero() {
				t0 = s.CapturedAt
			}
			xs = append(xs, s.CapturedAt.Sub(t0).Seconds())
			ys = append(ys, *s.Altitude)
		}
	}
	if len(xs) < 2 {
		return 0
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}
