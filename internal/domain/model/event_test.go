package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTacticalEvent(t *testing.T) {
	Convey("Given a tactical event", t, func() {
		event := &model.TacticalEvent{
			ID:         "evt-1",
			Type:       model.EventCrash,
			Severity:   model.SeverityHigh,
			Confidence: 0.8,
			Timestamp:  time.Now(),
			Status:     model.StatusUnverified,
		}

		Convey("When adding riders", func() {
			added := event.AddRiders("rider-2", "rider-1", "rider-2", "")

			Convey("Then duplicates and empty ids are ignored and the set is sorted", func() {
				So(added, ShouldEqual, 2)
				So(event.RiderIDs, ShouldResemble, []string{"rider-1", "rider-2"})
			})

			Convey("And adding an existing rider again changes nothing", func() {
				So(event.AddRiders("rider-1"), ShouldEqual, 0)
				So(event.RiderIDs, ShouldHaveLength, 2)
			})
		})

		Convey("When linking to another event", func() {
			So(event.LinkTo("evt-2", "consequence"), ShouldBeTrue)

			Convey("Then the same link is rejected", func() {
				So(event.LinkTo("evt-2", "consequence"), ShouldBeFalse)
				So(event.Related, ShouldHaveLength, 1)
			})

			Convey("And a different relation to the same event is a new link", func() {
				So(event.LinkTo("evt-2", "concurrent"), ShouldBeTrue)
				So(event.Related, ShouldHaveLength, 2)
			})
		})

		Convey("When cloning", func() {
			event.AddRiders("rider-1")
			event.Tags = []string{"race_leader"}
			event.Location = &model.LatLng{Lat: 50.0, Lng: 4.0}
			clone := event.Clone()

			Convey("Then mutating the clone leaves the original untouched", func() {
				clone.AddRiders("rider-9")
				clone.Location.Lat = 0
				clone.Tags[0] = "changed"

				So(event.RiderIDs, ShouldResemble, []string{"rider-1"})
				So(event.Location.Lat, ShouldEqual, 50.0)
				So(event.Tags[0], ShouldEqual, "race_leader")
			})
		})
	})
}

func TestImpactAssessment(t *testing.T) {
	Convey("Given events of varying weight", t, func() {
		Convey("A critical crash involving many riders is major", func() {
			event := &model.TacticalEvent{Type: model.EventCrash, Severity: model.SeverityCritical}
			event.AddRiders("a", "b", "c", "d", "e")

			impact := event.ImpactAssessment()
			So(impact.Level, ShouldEqual, "major")
			So(impact.Score, ShouldBeGreaterThan, 12)
		})

		Convey("A low-severity chase is minor", func() {
			event := &model.TacticalEvent{Type: model.EventChase, Severity: model.SeverityLow}
			event.AddRiders("a")

			So(event.ImpactAssessment().Level, ShouldEqual, "minor")
		})

		Convey("The race_leader tag raises the score", func() {
			plain := &model.TacticalEvent{Type: model.EventAttack, Severity: model.SeverityMedium}
			tagged := &model.TacticalEvent{Type: model.EventAttack, Severity: model.SeverityMedium, Tags: []string{"race_leader"}}

			So(tagged.ImpactAssessment().Score, ShouldBeGreaterThan, plain.ImpactAssessment().Score)
		})
	})
}

func TestNewEventID(t *testing.T) {
	Convey("Event ids are unique and carry the timestamp", t, func() {
		ts := time.Now()
		a := model.NewEventID(ts)
		b := model.NewEventID(ts)

		So(a, ShouldNotEqual, b)
		So(strings.HasPrefix(a, "evt-"), ShouldBeTrue)
	})
}

func TestRiderSample(t *testing.T) {
	Convey("Given partial telemetry samples", t, func() {
		Convey("HasLocation requires both coordinates", func() {
			s := model.RiderSample{Latitude: model.Float64(50)}
			So(s.HasLocation(), ShouldBeFalse)

			s.Longitude = model.Float64(4)
			So(s.HasLocation(), ShouldBeTrue)
		})

		Convey("CanDeadReckon requires location, speed and heading", func() {
			s := model.RiderSample{
				Latitude:  model.Float64(50),
				Longitude: model.Float64(4),
				Speed:     model.Float64(10),
			}
			So(s.CanDeadReckon(), ShouldBeFalse)

			s.Heading = model.Float64(90)
			So(s.CanDeadReckon(), ShouldBeTrue)
		})
	})
}
