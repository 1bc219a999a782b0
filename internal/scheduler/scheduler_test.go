package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/scheduler"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func waitFor(c *atomic.Int64, target int64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Load() >= target {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestAddValidation(t *testing.T) {
	Convey("Given a scheduler", t, func() {
		s := scheduler.New()

		Convey("Malformed jobs are rejected", func() {
			So(s.Add(scheduler.Job{Interval: time.Second, Run: func(ctx context.Context) error { return nil }}), ShouldWrap, scheduler.ErrInvalidJob)
			So(s.Add(scheduler.Job{Name: "a", Run: func(ctx context.Context) error { return nil }}), ShouldWrap, scheduler.ErrInvalidJob)
			So(s.Add(scheduler.Job{Name: "a", Interval: time.Second}), ShouldWrap, scheduler.ErrInvalidJob)
		})

		Convey("Adding after start fails", func() {
			So(s.Add(scheduler.Job{Name: "a", Interval: time.Hour, Run: func(ctx context.Context) error { return nil }}), ShouldBeNil)
			s.Start(context.Background())
			defer s.Stop()

			So(s.Add(scheduler.Job{Name: "b", Interval: time.Hour, Run: func(ctx context.Context) error { return nil }}), ShouldWrap, scheduler.ErrInvalidJob)
		})
	})
}

func TestJobExecution(t *testing.T) {
	Convey("Given a scheduler with a fast job", t, func() {
		s := scheduler.New()
		var ticks atomic.Int64
		So(s.Add(scheduler.Job{
			Name:     "counter",
			Interval: 5 * time.Millisecond,
			Run: func(ctx context.Context) error {
				ticks.Add(1)
				return nil
			},
		}), ShouldBeNil)

		Convey("When started", func() {
			s.Start(context.Background())

			Convey("Then the job runs repeatedly", func() {
				So(waitFor(&ticks, 3, time.Second), ShouldBeTrue)
				s.Stop()
			})

			Convey("Then Stop halts further runs", func() {
				So(waitFor(&ticks, 1, time.Second), ShouldBeTrue)
				s.Stop()

				settled := ticks.Load()
				time.Sleep(30 * time.Millisecond)
				So(ticks.Load(), ShouldEqual, settled)
			})
		})
	})
}

func TestJobFailureIsolation(t *testing.T) {
	Convey("Given jobs that fail and panic", t, func() {
		s := scheduler.New()
		var panics, errs atomic.Int64

		So(s.Add(scheduler.Job{
			Name:     "panicky",
			Interval: 5 * time.Millisecond,
			Run: func(ctx context.Context) error {
				panics.Add(1)
				panic("tick gone wrong")
			},
		}), ShouldBeNil)
		So(s.Add(scheduler.Job{
			Name:     "failing",
			Interval: 5 * time.Millisecond,
			Run: func(ctx context.Context) error {
				errs.Add(1)
				return errors.New("transient")
			},
		}), ShouldBeNil)

		Convey("Then neither kills its loop", func() {
			s.Start(context.Background())
			defer s.Stop()

			So(waitFor(&panics, 3, time.Second), ShouldBeTrue)
			So(waitFor(&errs, 3, time.Second), ShouldBeTrue)
		})
	})
}

func TestContextCancellation(t *testing.T) {
	Convey("Given a running scheduler", t, func() {
		s := scheduler.New()
		var ticks atomic.Int64
		So(s.Add(scheduler.Job{
			Name:     "counter",
			Interval: 5 * time.Millisecond,
			Run: func(ctx context.Context) error {
				ticks.Add(1)
				return nil
			},
		}), ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		s.Start(ctx)

		Convey("When the context is cancelled", func() {
			So(waitFor(&ticks, 1, time.Second), ShouldBeTrue)
			cancel()
			time.Sleep(20 * time.Millisecond)

			Convey("Then the loops stop", func() {
				settled := ticks.Load()
				time.Sleep(30 * time.Millisecond)
				So(ticks.Load(), ShouldEqual, settled)
			})
		})

		Convey("And Stop after cancellation is safe", func() {
			cancel()
			s.Stop()
		})
	})
}
