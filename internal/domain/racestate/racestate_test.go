package racestate_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/racestate"
	. "github.com/smartystreets/goconvey/convey"
)

func testConfig() racestate.Config {
	return racestate.Config{
		SprintSpeedMS:       16,
		SprintGroupMinSize:  15,
		RaceDistanceMeters:  180_000,
		SprintWindowMeters:  3_000,
		ClimbMaxSpeedMS:     7,
		ClimbAltitudeSlope:  0.2,
		ActiveWindowSeconds: 30,
	}
}

func rider(id string, speed float64, capturedAt time.Time) model.RiderSample {
	return model.RiderSample{
		RiderID:    id,
		Speed:      model.Float64(speed),
		Confidence: 0.9,
		CapturedAt: capturedAt,
	}
}

func bunch(n int, speed, distance float64, now time.Time) ([]model.RiderSample, []model.Group) {
	var snapshot []model.RiderSample
	var ids []string
	for i := 0; i < n; i++ {
		r := rider(fmt.Sprintf("r%02d", i), speed, now)
		r.Distance = model.Float64(distance)
		snapshot = append(snapshot, r)
		ids = append(ids, r.RiderID)
	}
	return snapshot, []model.Group{{RiderIDs: ids, Kind: model.GroupPeloton}}
}

func TestComputeBasics(t *testing.T) {
	now := time.Now()

	Convey("Given an empty snapshot", t, func() {
		state := racestate.Compute(nil, nil, nil, testConfig(), now)

		So(state.TotalRiders, ShouldEqual, 0)
		So(state.Situation, ShouldEqual, model.SituationStable)
		So(state.FastestRider, ShouldBeEmpty)
		So(state.ComputedAt, ShouldEqual, now)
	})

	Convey("Given riders inside and outside the active window", t, func() {
		snapshot := []model.RiderSample{
			rider("fresh", 12, now),
			rider("faster", 14, now.Add(-10*time.Second)),
			rider("silent", 10, now.Add(-2*time.Minute)),
		}

		state := racestate.Compute(snapshot, nil, nil, testConfig(), now)

		Convey("Then counts and speed aggregates are derived", func() {
			So(state.TotalRiders, ShouldEqual, 3)
			So(state.ActiveRiders, ShouldEqual, 2)
			So(state.AvgSpeed, ShouldAlmostEqual, 12.0, 1e-9)
			So(state.FastestRider, ShouldEqual, "faster")
		})
	})
}

func TestSituationHeuristics(t *testing.T) {
	now := time.Now()

	Convey("A breakaway group dominates everything else", t, func() {
		snapshot, grps := bunch(20, 17, 179_000, now)
		grps = append([]model.Group{{RiderIDs: []string{"x"}, Kind: model.GroupBreakaway}}, grps...)

		state := racestate.Compute(snapshot, grps, nil, testConfig(), now)
		So(state.Situation, ShouldEqual, model.SituationBreakaway)
	})

	Convey("A fast big bunch near the finish is a sprint", t, func() {
		snapshot, grps := bunch(20, 17, 179_000, now)

		state := racestate.Compute(snapshot, grps, nil, testConfig(), now)
		So(state.Situation, ShouldEqual, model.SituationSprint)
	})

	Convey("The same bunch far from the finish is not a sprint", t, func() {
		snapshot, grps := bunch(20, 17, 100_000, now)

		state := racestate.Compute(snapshot, grps, nil, testConfig(), now)
		So(state.Situation, ShouldEqual, model.SituationStable)
	})

	Convey("A slow bunch alone is not a sprint", t, func() {
		snapshot, grps := bunch(20, 12, 179_000, now)

		state := racestate.Compute(snapshot, grps, nil, testConfig(), now)
		So(state.Situation, ShouldEqual, model.SituationStable)
	})

	Convey("Low speeds with rising altitude signal a climb", t, func() {
		snapshot, grps := bunch(10, 5, 100_000, now)

		histories := map[string][]model.RiderSample{}
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("r%02d", i)
			var h []model.RiderSample
			for j := 0; j < 5; j++ {
				s := rider(id, 5, now.Add(time.Duration(j-5)*time.Second))
				s.Altitude = model.Float64(800 + float64(j)*2) // 2 m/s up
				h = append(h, s)
			}
			histories[id] = h
		}

		state := racestate.Compute(snapshot, grps, histories, testConfig(), now)
		So(state.Situation, ShouldEqual, model.SituationClimb)
	})

	Convey("Low speeds on the flat stay stable", t, func() {
		snapshot, grps := bunch(10, 5, 100_000, now)

		state := racestate.Compute(snapshot, grps, nil, testConfig(), now)
		So(state.Situation, ShouldEqual, model.SituationStable)
	})
}
