package feedsim

import (
	"context"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/app"
	"github.com/vardaan112/PelotonIQ-sub001/internal/config"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/logger"
)

// Run drives a full simulated race through an in-process tracking service:
// start the service, feed it synthetic telemetry tick by tick, stream the
// resulting notifications to the log, and summarize at the end.
func Run(ctx context.Context, simCfg *Config) error {
	log := logger.Get().Named("feedsim")

	trackCfg := config.New()
	// Tighten detection so short runs still produce events.
	trackCfg.DetectIntervalMS = 1_000

	svc := app.New(
		app.WithConfig(trackCfg),
		app.WithLogger(log.Named("service")),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go logNotifications(ctx, svc, log)

	gen := newGenerator(simCfg)
	ticker := time.NewTicker(simCfg.Tick)
	defer ticker.Stop()
	deadline := time.Now().Add(simCfg.Duration)

	log.Info(ctx, "simulation started",
		logger.Int("riders", simCfg.Riders),
		logger.Int("breakaway", simCfg.BreakawaySize),
		logger.String("duration", simCfg.Duration.String()),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if now.After(deadline) {
				summarize(ctx, svc, log)
				return nil
			}
			accepted := 0
			for _, sample := range gen.next(now) {
				if svc.Ingest(ctx, sample) {
					accepted++
				}
			}
			log.Debug(ctx, "tick fed", logger.Int("accepted", accepted))
		}
	}
}

func logNotifications(ctx context.Context, svc *app.Service, log logger.Logger) {
	ch, cancel := svc.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			fields := []logger.Field{logger.String("kind", string(n.Kind))}
			if n.Event != nil {
				fields = append(fields,
					logger.String("type", string(n.Event.Type)),
					logger.Float64("confidence", n.Event.Confidence),
					logger.Int("riders", len(n.Event.RiderIDs)),
				)
			}
			log.Info(ctx, "notification", fields...)
		}
	}
}

// summarize logs the final derived state so a run is inspectable without a
// metrics scrape.
func summarize(ctx context.Context, svc *app.Service, log logger.Logger) {
	state := svc.RaceState(ctx)
	log.Info(ctx, "final race state",
		logger.Int("total_riders", state.TotalRiders),
		logger.Int("active_riders", state.ActiveRiders),
		logger.Int("groups", state.GroupCount),
		logger.Float64("avg_speed", state.AvgSpeed),
		logger.String("situation", string(state.Situation)),
		logger.String("fastest", state.FastestRider),
	)

	for i, g := range svc.Groups(ctx) {
		log.Info(ctx, "group",
			logger.Int("index", i),
			logger.String("kind", string(g.Kind)),
			logger.Int("size", g.Size()),
			logger.Float64("gap_to_leader", g.GapToLeader),
		)
	}

	for _, e := range svc.Events(ctx) {
		impact := e.ImpactAssessment()
		log.Info(ctx, "event",
			logger.String("id", e.ID),
			logger.String("type", string(e.Type)),
			logger.String("severity", string(e.Severity)),
			logger.Float64("confidence", e.Confidence),
			logger.Int("riders", len(e.RiderIDs)),
			logger.String("impact", impact.Level),
			logger.Int("links", len(e.Related)),
		)
	}
}
