package events_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/adapters/events"
	"github.com/vardaan112/PelotonIQ-sub001/internal/adapters/notify"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingPublisher captures notifications for assertions.
type recordingPublisher struct {
	published []notify.Notification
}

func (p *recordingPublisher) Publish(n notify.Notification) {
	p.published = append(p.published, n)
}

func (p *recordingPublisher) kinds() []notify.Kind {
	out := make([]notify.Kind, len(p.published))
	for i, n := range p.published {
		out[i] = n.Kind
	}
	return out
}

func crashCandidate(ts time.Time) events.Candidate {
	return events.Candidate{
		Type:        model.EventCrash,
		Severity:    model.SeverityHigh,
		Confidence:  0.8,
		Timestamp:   ts,
		Location:    &model.LatLng{Lat: 50.8466, Lng: 4.3528},
		RiderIDs:    []string{"rider-1"},
		Description: "crash detected from telemetry",
		Source:      "detector",
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given an event store", t, func() {
		pub := &recordingPublisher{}
		store := events.NewStore(events.WithPublisher(pub))

		Convey("A candidate below the confidence threshold is dropped", func() {
			c := crashCandidate(now)
			c.Confidence = 0.3

			event, stored := store.Submit(ctx, c)
			So(stored, ShouldBeFalse)
			So(event, ShouldBeNil)
			So(store.Count(ctx), ShouldEqual, 0)
			So(pub.published, ShouldBeEmpty)
		})

		Convey("A confident candidate becomes an unverified event", func() {
			event, stored := store.Submit(ctx, crashCandidate(now))

			So(stored, ShouldBeTrue)
			So(event.Status, ShouldEqual, model.StatusUnverified)
			So(strings.HasPrefix(event.ID, "evt-"), ShouldBeTrue)
			So(event.RiderIDs, ShouldResemble, []string{"rider-1"})
			So(pub.kinds(), ShouldResemble, []notify.Kind{notify.KindDetected})
		})
	})
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given a store holding one crash", t, func() {
		pub := &recordingPublisher{}
		store := events.NewStore(
			events.WithPublisher(pub),
			events.WithMergeWindow(time.Minute),
			events.WithMergeDistance(500),
		)
		first, _ := store.Submit(ctx, crashCandidate(now))

		Convey("A nearby crash moments later merges into it", func() {
			c := crashCandidate(now.Add(10 * time.Second))
			c.RiderIDs = []string{"rider-2"}
			c.Confidence = 0.9

			merged, stored := store.Submit(ctx, c)

			So(stored, ShouldBeTrue)
			So(merged.ID, ShouldEqual, first.ID)
			So(merged.RiderIDs, ShouldResemble, []string{"rider-1", "rider-2"})
			So(merged.Confidence, ShouldEqual, 0.9) // max wins
			So(store.Count(ctx), ShouldEqual, 1)
			So(pub.kinds(), ShouldResemble, []notify.Kind{notify.KindDetected, notify.KindMerged})
		})

		Convey("A lower-confidence duplicate does not lower the event", func() {
			c := crashCandidate(now.Add(5 * time.Second))
			c.Confidence = 0.6

			merged, _ := store.Submit(ctx, c)
			So(merged.Confidence, ShouldEqual, 0.8)
		})

		Convey("A crash outside the merge window is a new event", func() {
			_, stored := store.Submit(ctx, crashCandidate(now.Add(2*time.Minute)))

			So(stored, ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 2)
		})

		Convey("A crash too far away is a new event", func() {
			c := crashCandidate(now.Add(10 * time.Second))
			c.Location = &model.LatLng{Lat: 50.8566, Lng: 4.3528} // ~1.1 km north

			_, stored := store.Submit(ctx, c)
			So(stored, ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 2)
		})

		Convey("A candidate without a location merges on time alone", func() {
			c := crashCandidate(now.Add(10 * time.Second))
			c.Location = nil

			merged, _ := store.Submit(ctx, c)
			So(merged.ID, ShouldEqual, first.ID)
		})

		Convey("A different event type never merges", func() {
			c := crashCandidate(now.Add(10 * time.Second))
			c.Type = model.EventMechanical

			_, stored := store.Submit(ctx, c)
			So(stored, ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 2)
		})

		Convey("A verified event no longer attracts merges", func() {
			So(store.Verify(ctx, first.ID, model.StatusVerified, ""), ShouldBeNil)

			_, stored := store.Submit(ctx, crashCandidate(now.Add(10*time.Second)))
			So(stored, ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 2)
		})
	})
}

func TestCorrelate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given a store with the default correlation rules", t, func() {
		pub := &recordingPublisher{}
		store := events.NewStore(events.WithPublisher(pub))
		for _, r := range events.DefaultRules() {
			So(store.RegisterRule(r), ShouldBeNil)
		}

		Convey("A mechanical shortly after a nearby crash is linked as consequence", func() {
			crash, _ := store.Submit(ctx, crashCandidate(now))

			mech := crashCandidate(now.Add(60 * time.Second))
			mech.Type = model.EventMechanical
			mech.Severity = model.SeverityMedium
			mechanical, _ := store.Submit(ctx, mech)

			So(store.Correlate(ctx), ShouldEqual, 1)

			linked, err := store.Get(ctx, crash.ID)
			So(err, ShouldBeNil)
			So(linked.Related, ShouldResemble, []model.RelatedLink{{EventID: mechanical.ID, Relation: "consequence"}})

			other, err := store.Get(ctx, mechanical.ID)
			So(err, ShouldBeNil)
			So(other.Related, ShouldResemble, []model.RelatedLink{{EventID: crash.ID, Relation: "consequence"}})

			Convey("And correlating again adds nothing", func() {
				So(store.Correlate(ctx), ShouldEqual, 0)
			})

			Convey("And a correlated notification was published", func() {
				kinds := pub.kinds()
				So(kinds[len(kinds)-1], ShouldEqual, notify.KindCorrelated)
				So(pub.published[len(pub.published)-1].Relation, ShouldEqual, "consequence")
			})
		})

		Convey("Events outside the rule's time gap stay unlinked", func() {
			store.Submit(ctx, crashCandidate(now))

			mech := crashCandidate(now.Add(5 * time.Minute))
			mech.Type = model.EventMechanical
			store.Submit(ctx, mech)

			So(store.Correlate(ctx), ShouldEqual, 0)
		})

		Convey("A mechanical before the crash stays unlinked", func() {
			mech := crashCandidate(now)
			mech.Type = model.EventMechanical
			store.Submit(ctx, mech)

			store.Submit(ctx, crashCandidate(now.Add(30*time.Second)))

			So(store.Correlate(ctx), ShouldEqual, 0)
		})

		Convey("Events too far apart spatially stay unlinked", func() {
			store.Submit(ctx, crashCandidate(now))

			mech := crashCandidate(now.Add(60 * time.Second))
			mech.Type = model.EventMechanical
			mech.Location = &model.LatLng{Lat: 50.8566, Lng: 4.3528} // ~1.1 km away
			store.Submit(ctx, mech)

			So(store.Correlate(ctx), ShouldEqual, 0)
		})
	})

	Convey("Malformed correlation rules are rejected", t, func() {
		store := events.NewStore()

		So(store.RegisterRule(events.CorrelationRule{}), ShouldWrap, events.ErrInvalidRule)
		So(store.RegisterRule(events.CorrelationRule{
			Name:    "bad-gap",
			Primary: model.EventCrash, Secondary: model.EventMechanical,
			MaxGap: -time.Second, MaxDistance: 100, Confidence: 0.5, Relation: "consequence",
		}), ShouldWrap, events.ErrInvalidRule)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given a stored event", t, func() {
		pub := &recordingPublisher{}
		store := events.NewStore(events.WithPublisher(pub))
		event, _ := store.Submit(ctx, crashCandidate(now))

		Convey("Verifying it updates status and appends the note", func() {
			So(store.Verify(ctx, event.ID, model.StatusVerified, "confirmed by moto camera"), ShouldBeNil)

			got, err := store.Get(ctx, event.ID)
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, model.StatusVerified)
			So(got.Description, ShouldEndWith, "(confirmed by moto camera)")

			kinds := pub.kinds()
			So(kinds[len(kinds)-1], ShouldEqual, notify.KindVerified)
		})

		Convey("Marking a false positive keeps the record", func() {
			So(store.Verify(ctx, event.ID, model.StatusFalsePositive, ""), ShouldBeNil)

			got, _ := store.Get(ctx, event.ID)
			So(got.Status, ShouldEqual, model.StatusFalsePositive)
			So(store.Count(ctx), ShouldEqual, 1)
		})

		Convey("An unknown id is a reportable error", func() {
			So(store.Verify(ctx, "evt-unknown", model.StatusVerified, ""), ShouldWrap, events.ErrEventNotFound)
		})

		Convey("An invalid status is rejected", func() {
			So(store.Verify(ctx, event.ID, "plausible", ""), ShouldWrap, events.ErrInvalidStatus)
			So(store.Verify(ctx, event.ID, model.StatusUnverified, ""), ShouldWrap, events.ErrInvalidStatus)
		})
	})
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given a store with retention and a cap", t, func() {
		store := events.NewStore(
			events.WithRetention(time.Hour),
			events.WithMaxEvents(3),
			events.WithMergeWindow(time.Millisecond), // keep submissions distinct
		)

		Convey("Events past retention are removed regardless of status", func() {
			old, _ := store.Submit(ctx, crashCandidate(now.Add(-2*time.Hour)))
			So(store.Verify(ctx, old.ID, model.StatusVerified, ""), ShouldBeNil)
			fresh, _ := store.Submit(ctx, crashCandidate(now))

			So(store.Cleanup(now), ShouldEqual, 1)
			So(store.Count(ctx), ShouldEqual, 1)

			_, err := store.Get(ctx, old.ID)
			So(err, ShouldWrap, events.ErrEventNotFound)
			_, err = store.Get(ctx, fresh.ID)
			So(err, ShouldBeNil)
		})

		Convey("The cap evicts oldest first", func() {
			var ids []string
			for i := 0; i < 5; i++ {
				e, stored := store.Submit(ctx, crashCandidate(now.Add(time.Duration(i)*time.Minute)))
				So(stored, ShouldBeTrue)
				ids = append(ids, e.ID)
			}

			So(store.Cleanup(now.Add(5*time.Minute)), ShouldEqual, 2)

			_, err := store.Get(ctx, ids[0])
			So(err, ShouldWrap, events.ErrEventNotFound)
			_, err = store.Get(ctx, ids[1])
			So(err, ShouldWrap, events.ErrEventNotFound)
			_, err = store.Get(ctx, ids[4])
			So(err, ShouldBeNil)
		})
	})
}

func TestEventsListing(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given several events", t, func() {
		store := events.NewStore(events.WithMergeWindow(time.Millisecond))
		for i := 2; i >= 0; i-- {
			c := crashCandidate(now.Add(time.Duration(i) * time.Minute))
			_, stored := store.Submit(ctx, c)
			So(stored, ShouldBeTrue)
		}

		Convey("Then Events returns copies oldest first", func() {
			list := store.Events(ctx)

			So(list, ShouldHaveLength, 3)
			So(list[0].Timestamp.Before(list[1].Timestamp), ShouldBeTrue)
			So(list[1].Timestamp.Before(list[2].Timestamp), ShouldBeTrue)

			Convey("And mutating a copy does not touch the store", func() {
				list[0].AddRiders("rider-x")

				fresh := store.Events(ctx)
				So(fresh[0].RiderIDs, ShouldResemble, []string{"rider-1"})
			})
		})
	})
}
