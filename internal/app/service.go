// Package app provides the core race-tracking service that external
// collaborators (feed, dashboard gateway, logging, notifications) talk to.
// One Service is one logical race; multiple races need multiple instances.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/adapters/events"
	"github.com/vardaan112/PelotonIQ-sub001/internal/adapters/notify"
	"github.com/vardaan112/PelotonIQ-sub001/internal/adapters/positions"
	"github.com/vardaan112/PelotonIQ-sub001/internal/config"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/features"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/groups"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/pattern"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/racestate"
	"github.com/vardaan112/PelotonIQ-sub001/internal/scheduler"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/logger"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/metrics"
)

// detectorSource marks events created by the periodic detection cycle.
const detectorSource = "detector"

// Service wires the position store, analyzers, pattern matcher, event store
// and scheduler together behind one lifecycle.
type Service struct {
	mu sync.RWMutex

	// Core components
	positions *positions.Store
	events    *events.Store
	matcher   *pattern.Matcher
	bus       *notify.Bus
	sched     *scheduler.Scheduler

	// Configuration
	cfg *config.Config

	// Derived state, replaced wholesale every state tick
	groups    []model.Group
	gaps      []groups.RiderGap
	raceState model.RaceState

	// State
	started bool

	// Logging
	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the full tracking configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the components, registers the default patterns and
// correlation rules, and launches the periodic jobs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("tracking")
	}

	cfg := s.cfg
	s.log.Info(ctx, "starting race tracking service...")

	s.positions = positions.NewStore(
		positions.WithHistorySize(cfg.HistorySize),
		positions.WithMaxRank(cfg.MaxRank),
		positions.WithMaxSpeed(cfg.MaxSpeedMS),
		positions.WithMaxSampleAge(secs(cfg.MaxSampleAgeSeconds)),
		positions.WithStaleTimeout(secs(cfg.StaleTimeoutSeconds)),
		positions.WithInterpolationBand(secs(cfg.InterpolateMinAgeSeconds), secs(cfg.InterpolateMaxAgeSeconds)),
	)
	s.bus = notify.NewBus(notify.WithBufferSize(cfg.NotifyBufferSize))
	s.events = events.NewStore(
		events.WithMinConfidence(cfg.MinEventConfidence),
		events.WithMergeWindow(secs(cfg.MergeWindowSeconds)),
		events.WithMergeDistance(cfg.MergeDistanceMeters),
		events.WithRetention(secs(cfg.EventRetentionSeconds)),
		events.WithMaxEvents(cfg.MaxEvents),
		events.WithPublisher(s.bus),
	)
	s.matcher = pattern.NewMatcher()

	for _, p := range pattern.Defaults() {
		if err := s.matcher.Register(p); err != nil {
			return err
		}
	}
	for _, r := range events.DefaultRules() {
		if err := s.events.RegisterRule(r); err != nil {
			return err
		}
	}

	s.sched = scheduler.New(scheduler.WithLogger(s.log.Named("scheduler")))
	jobs := []scheduler.Job{
		{Name: "state", Interval: time.Duration(cfg.StateIntervalMS) * time.Millisecond, Run: s.stateTick},
		{Name: "detect", Interval: time.Duration(cfg.DetectIntervalMS) * time.Millisecond, Run: s.detectTick},
		{Name: "cleanup", Interval: time.Duration(cfg.CleanupIntervalMS) * time.Millisecond, Run: s.cleanupTick},
	}
	for _, j := range jobs {
		if err := s.sched.Add(j); err != nil {
			return err
		}
	}
	s.sched.Start(ctx)

	s.started = true
	s.log.Info(ctx, "race tracking service started",
		logger.Int("patterns", len(s.matcher.Patterns())),
		logger.Int("state_interval_ms", cfg.StateIntervalMS),
		logger.Int("detect_interval_ms", cfg.DetectIntervalMS),
	)
	return nil
}

// Stop gracefully shuts down the service. The lock is released before the
// scheduler drains so in-flight ticks can finish their state updates.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	sched, bus := s.sched, s.bus
	s.mu.Unlock()

	s.log.Info(context.Background(), "stopping race tracking service...")
	if sched != nil {
		sched.Stop()
	}
	if bus != nil {
		bus.Close()
	}
	s.log.Info(context.Background(), "race tracking service stopped")
}

// Ingest validates and stores one telemetry sample. Returns whether the
// sample was accepted; the caller tracks rejects through its own counters
// and the store's statistics.
func (s *Service) Ingest(ctx context.Context, sample model.RiderSample) bool {
	return s.positions.Ingest(ctx, sample)
}

// stateTick refreshes interpolation, staleness, the group partition, rider
// gaps and the race state.
func (s *Service) stateTick(ctx context.Context) error {
	now := time.Now()
	s.positions.Interpolate(now)
	if removed := s.positions.CleanupStale(now); len(removed) > 0 {
		s.log.Debug(ctx, "removed stale riders", logger.Int("count", len(removed)))
	}

	snapshot := s.positions.Snapshot(ctx)
	grps := groups.Detect(snapshot, s.groupConfig())
	gaps := groups.RiderGaps(snapshot)
	histories := s.histories(ctx, snapshot)
	state := racestate.Compute(snapshot, grps, histories, s.raceConfig(), now)

	s.mu.Lock()
	s.groups = grps
	s.gaps = gaps
	s.raceState = state
	s.mu.Unlock()

	metrics.UpdateGroupCount(len(grps))
	metrics.UpdateActiveRiders(state.ActiveRiders)
	metrics.UpdateRaceSituation(string(state.Situation))
	return nil
}

// detectTick evaluates the pattern registry against every rider's recent
// deltas, submits the strongest match per rider, then correlates events.
func (s *Service) detectTick(ctx context.Context) error {
	now := time.Now()
	snapshot := s.positions.Snapshot(ctx)

	s.mu.RLock()
	grps := s.groups
	situation := s.raceState.Situation
	s.mu.RUnlock()

	groupOf := make(map[string]*model.Group)
	for i := range grps {
		for _, id := range grps[i].RiderIDs {
			groupOf[id] = &grps[i]
		}
	}

	for i := range snapshot {
		rider := &snapshot[i]
		history, err := s.positions.History(ctx, rider.RiderID)
		if err != nil {
			continue // rider dropped between snapshot and lookup
		}

		vec := features.ForRider(history, features.Context{
			Group:              groupOf[rider.RiderID],
			Situation:          situation,
			RaceDistanceMeters: s.cfg.RaceDistanceMeters,
		})
		matches := s.matcher.Match(vec)
		if len(matches) == 0 {
			continue
		}

		// One candidate per rider per tick: the strongest match. The
		// event store still merges it with near-duplicate detections
		// from other riders.
		best := matches[0]
		candidate := events.Candidate{
			Type:        best.EventType,
			Severity:    best.Severity,
			Confidence:  best.Confidence,
			Timestamp:   now,
			RiderIDs:    s.involvedRiders(best.EventType, rider, groupOf),
			Description: best.Pattern + " detected from telemetry",
			Source:      detectorSource,
		}
		if rider.HasLocation() {
			candidate.Location = &model.LatLng{Lat: *rider.Latitude, Lng: *rider.Longitude}
		}
		s.events.Submit(ctx, candidate)
	}

	s.events.Correlate(ctx)
	return nil
}

// involvedRiders widens group-shaped events (breakaway, sprint, chase) to
// the rider's whole group; individual events stay individual.
func (s *Service) involvedRiders(t model.EventType, rider *model.RiderSample, groupOf map[string]*model.Group) []string {
	switch t {
	case model.EventBreakaway, model.EventSprint, model.EventChase:
		if g := groupOf[rider.RiderID]; g != nil {
			return append([]string(nil), g.RiderIDs...)
		}
	}
	return []string{rider.RiderID}
}

func (s *Service) cleanupTick(ctx context.Context) error {
	s.events.Cleanup(time.Now())
	return nil
}

// histories collects recent samples per tracked rider for trend analysis.
func (s *Service) histories(ctx context.Context, snapshot []model.RiderSample) map[string][]model.RiderSample {
	out := make(map[string][]model.RiderSample, len(snapshot))
	for i := range snapshot {
		if h, err := s.positions.History(ctx, snapshot[i].RiderID); err == nil {
			out[snapshot[i].RiderID] = h
		}
	}
	return out
}

// Positions returns the latest sample per tracked rider.
func (s *Service) Positions(ctx context.Context) []model.RiderSample {
	return s.positions.Snapshot(ctx)
}

// History returns one rider's recent samples oldest-first.
func (s *Service) History(ctx context.Context, riderID string) ([]model.RiderSample, error) {
	return s.positions.History(ctx, riderID)
}

// Groups returns the latest group partition.
func (s *Service) Groups(ctx context.Context) []model.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Group, len(s.groups))
	for i := range s.groups {
		out[i] = s.groups[i]
		out[i].RiderIDs = append([]string(nil), s.groups[i].RiderIDs...)
	}
	return out
}

// Gaps returns the latest per-rider time gaps in rank order.
func (s *Service) Gaps(ctx context.Context) []groups.RiderGap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]groups.RiderGap(nil), s.gaps...)
}

// RaceState returns the latest derived race snapshot.
func (s *Service) RaceState(ctx context.Context) model.RaceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raceState
}

// Events returns copies of the held tactical events, oldest first.
func (s *Service) Events(ctx context.Context) []*model.TacticalEvent {
	return s.events.Events(ctx)
}

// Event returns a copy of one tactical event.
func (s *Service) Event(ctx context.Context, id string) (*model.TacticalEvent, error) {
	return s.events.Get(ctx, id)
}

// VerifyEvent applies an operator verification decision.
func (s *Service) VerifyEvent(ctx context.Context, id string, status model.VerificationStatus, note string) error {
	return s.events.Verify(ctx, id, status, note)
}

// RegisterPattern adds or overwrites a custom detection pattern.
func (s *Service) RegisterPattern(p pattern.Pattern) error {
	return s.matcher.Register(p)
}

// RegisterCorrelationRule adds a custom correlation rule.
func (s *Service) RegisterCorrelationRule(r events.CorrelationRule) error {
	return s.events.RegisterRule(r)
}

// Subscribe attaches a notification consumer. The returned cancel func
// releases the subscription.
func (s *Service) Subscribe() (<-chan notify.Notification, func()) {
	return s.bus.Subscribe()
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	started := s.started
	groupCount := len(s.groups)
	situation := s.raceState.Situation
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     started,
		"group_count": groupCount,
		"situation":   string(situation),
	}
	if started {
		ingest := s.positions.Stats()
		stats["tracked_riders"] = s.positions.Count(ctx)
		stats["samples_ingested"] = ingest.Ingested
		stats["samples_out_of_order"] = ingest.OutOfOrder
		stats["samples_rejected"] = ingest.Rejected
		stats["samples_interpolated"] = ingest.Interpolated
		stats["active_events"] = s.events.Count(ctx)
		stats["subscribers"] = s.bus.SubscriberCount()
	}
	return stats
}

func (s *Service) groupConfig() groups.Config {
	return groups.Config{
		ProximitySeconds:    s.cfg.GroupProximitySeconds,
		SmallGroupMaxSize:   s.cfg.SmallGroupMaxSize,
		PelotonMinSize:      s.cfg.PelotonMinSize,
		BreakawayMaxSize:    s.cfg.BreakawayMaxSize,
		BreakawayGapSeconds: s.cfg.BreakawayGapSeconds,
	}
}

func (s *Service) raceConfig() racestate.Config {
	return racestate.Config{
		SprintSpeedMS:       s.cfg.SprintSpeedMS,
		SprintGroupMinSize:  s.cfg.SprintGroupMinSize,
		RaceDistanceMeters:  s.cfg.RaceDistanceMeters,
		SprintWindowMeters:  s.cfg.SprintWindowMeters,
		ClimbMaxSpeedMS:     s.cfg.ClimbMaxSpeedMS,
		ClimbAltitudeSlope:  s.cfg.ClimbAltitudeSlope,
		ActiveWindowSeconds: s.cfg.ActiveWindowSeconds,
	}
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
