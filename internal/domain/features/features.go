// Package features turns recent position deltas into the nested feature
// vectors consumed by the pattern matcher. Missing telemetry fields produce
// absent features, never errors; real feeds are frequently partial.
package features

import (
	"gonum.org/v1/gonum/stat"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
)

// stoppedSpeedMS is the speed under which a rider counts as stopped.
const stoppedSpeedMS = 0.5

// Context carries the non-rider inputs for feature extraction.
type Context struct {
	Group              *model.Group // group containing the rider, may be nil
	Situation          model.TacticalSituation
	RaceDistanceMeters float64
}

// Vector is a nested feature map addressed with dotted paths, e.g.
// "rider.speed_delta". Leaf values are float64 or string.
type Vector = map[string]any

// ForRider builds the feature vector for one rider from their history
// (oldest-first, latest last).
func ForRider(history []model.RiderSample, ctx Context) Vector {
	if len(history) == 0 {
		return Vector{}
	}
	latest := &history[len(history)-1]

	rider := map[string]any{
		"id":         latest.RiderID,
		"rank":       float64(latest.Rank),
		"confidence": latest.Confidence,
	}

	if latest.Speed != nil {
		rider["speed"] = *latest.Speed
		stopped := 0.0
		if *latest.Speed < stoppedSpeedMS {
			stopped = 1.0
		}
		rider["stopped"] = stopped
	}

	if prev := previousSample(history); prev != nil {
		if prev.Speed != nil && latest.Speed != nil {
			delta := *latest.Speed - *prev.Speed
			rider["speed_delta"] = delta
			if dt := latest.CapturedAt.Sub(prev.CapturedAt).Seconds(); dt > 0 {
				rider["acceleration"] = delta / dt
			}
		}
		// Positive when the rider moved up the standings.
		rider["rank_delta"] = float64(prev.Rank - latest.Rank)
	}

	if speeds := recentSpeeds(history); len(speeds) >= 2 {
		rider["speed_mean"] = stat.Mean(speeds, nil)
		rider["speed_stddev"] = stat.StdDev(speeds, nil)
	}

	v := Vector{"rider": rider}

	if ctx.Group != nil {
		v["group"] = map[string]any{
			"size":            float64(ctx.Group.Size()),
			"kind":            string(ctx.Group.Kind),
			"gap_to_previous": ctx.Group.GapToPrevious,
		}
	}

	race := map[string]any{}
	if ctx.Situation != "" {
		race["situation"] = string(ctx.Situation)
	}
	if ctx.RaceDistanceMeters > 0 && latest.Distance != nil {
		remaining := ctx.RaceDistanceMeters - *latest.Distance
		if remaining < 0 {
			remaining = 0
		}
		race["distance_remaining"] = remaining
	}
	if len(race) > 0 {
		v["race"] = race
	}
	return v
}

// previousSample returns the newest sample before the latest one.
func previousSample(history []model.RiderSample) *model.RiderSample {
	if len(history) < 2 {
		return nil
	}
	return &history[len(history)-2]
}

func recentSpeeds(history []model.RiderSample) []float64 {
	var speeds []float64
	for i := range history {
		if history[i].Speed != nil {
			speeds = append(speeds, *history[i].Speed)
		}
	}
	return speeds
}
