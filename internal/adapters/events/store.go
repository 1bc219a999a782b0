// Package events holds active tactical events, merges near-duplicate
// detections, links causally-related events, and applies retention.
package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/adapters/notify"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/geo"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultMinConfidence = 0.5
	defaultMergeWindow   = time.Minute
	defaultMergeDistance = 500.0
	defaultRetention     = time.Hour
	defaultMaxEvents     = 1000
)

// Publisher receives the store's outbound notifications. A nil publisher
// disables fan-out without changing store behavior.
type Publisher interface {
	Publish(n notify.Notification)
}

// Candidate is a detection submitted by the scheduler before it becomes (or
// merges into) a stored event.
type Candidate struct {
	Type        model.EventType
	Severity    model.Severity
	Confidence  float64
	Timestamp   time.Time
	Location    *model.LatLng
	RiderIDs    []string
	Description string
	Source      string
	Tags        []string
}

// Store is the in-memory tactical event store for one race.
type Store struct {
	mu     sync.RWMutex
	events map[string]*model.TacticalEvent
	order  []string // insertion order, oldest first, drives cap eviction

	minConfidence float64
	mergeWindow   time.Duration
	mergeDistance float64
	retention     time.Duration
	maxEvents     int

	rules []CorrelationRule

	publisher Publisher
}

// NewStore creates an event store with configuration options.
func NewStore(opts ...Option) *Store {
	s := &Store{
		events:        make(map[string]*model.TacticalEvent),
		minConfidence: defaultMinConfidence,
		mergeWindow:   defaultMergeWindow,
		mergeDistance: defaultMergeDistance,
		retention:     defaultRetention,
		maxEvents:     defaultMaxEvents,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRule adds a correlation rule, failing fast on malformed input.
func (s *Store) RegisterRule(r CorrelationRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
	return nil
}

// Submit ingests a candidate detection. Candidates below the confidence
// threshold are dropped (counted, not an error). A candidate matching an
// active unverified event of the same type inside the merge window has its
// rider set unioned into that event and emits a merged notification instead
// of a created one. Returns the affected event and whether it was stored.
func (s *Store) Submit(ctx context.Context, c Candidate) (*model.TacticalEvent, bool) {
	if c.Confidence < s.minConfidence {
		metrics.RecordEventDropped()
		return nil, false
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}

	s.mu.Lock()
	if existing := s.findMergeTarget(&c); existing != nil {
		existing.AddRiders(c.RiderIDs...)
		if c.Confidence > existing.Confidence {
			existing.Confidence = c.Confidence
		}
		clone := existing.Clone()
		s.mu.Unlock()

		metrics.RecordEventMerged()
		s.publish(notify.Notification{
			Kind:     notify.KindMerged,
			EventIDs: []string{clone.ID},
			Event:    clone,
		})
		return clone, true
	}

	event := &model.TacticalEvent{
		ID:          model.NewEventID(c.Timestamp),
		Type:        c.Type,
		Severity:    c.Severity,
		Confidence:  c.Confidence,
		Timestamp:   c.Timestamp,
		Description: c.Description,
		Source:      c.Source,
		Tags:        append([]string(nil), c.Tags...),
		Status:      model.StatusUnverified,
	}
	if c.Location != nil {
		loc := *c.Location
		event.Location = &loc
	}
	event.AddRiders(c.RiderIDs...)

	s.events[event.ID] = event
	s.order = append(s.order, event.ID)
	active := len(s.events)
	clone := event.Clone()
	s.mu.Unlock()

	metrics.RecordEventDetected(string(c.Type))
	metrics.UpdateActiveEvents(active)
	s.publish(notify.Notification{
		Kind:     notify.KindDetected,
		EventIDs: []string{clone.ID},
		Event:    clone,
	})
	return clone, true
}

// findMergeTarget scans active unverified events of the candidate's type
// inside the merge window. Caller holds the lock.
func (s *Store) findMergeTarget(c *Candidate) *model.TacticalEvent {
	for _, id := range s.order {
		e := s.events[id]
		if e.Type != c.Type || e.Status != model.StatusUnverified {
			continue
		}
		gap := c.Timestamp.Sub(e.Timestamp)
		if gap < 0 {
			gap = -gap
		}
		if gap > s.mergeWindow {
			continue
		}
		if eventDistance(e.Location, c.Location) <= s.mergeDistance {
			return e
		}
	}
	return nil
}

// eventDistance is the haversine distance between two event locations.
// Either side missing counts as distance 0, a deliberately permissive
// default for partially-located telemetry.
func eventDistance(a, b *model.LatLng) float64 {
	if a == nil || b == nil {
		return 0
	}
	return geo.Distance(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Correlate evaluates every active-event pair against the rule registry and
// links the ones that match. Links are attached to both sides, deduplicated,
// and never change confidence or status. Returns the number of new links.
func (s *Store) Correlate(ctx context.Context) int {
	s.mu.Lock()

	type linkNote struct {
		primary, secondary string
		relation           string
	}
	var established []linkNote

	for i := 0; i < len(s.order); i++ {
		for j := i + 1; j < len(s.order); j++ {
			a, b := s.events[s.order[i]], s.events[s.order[j]]
			for r := range s.rules {
				rule := &s.rules[r]
				primary, secondary := orient(a, b, rule)
				if primary == nil {
					continue
				}
				gap := secondary.Timestamp.Sub(primary.Timestamp)
				if gap < 0 || gap > rule.MaxGap {
					continue
				}
				if eventDistance(primary.Location, secondary.Location) > rule.MaxDistance {
					continue
				}
				added := primary.LinkTo(secondary.ID, rule.Relation)
				secondary.LinkTo(primary.ID, rule.Relation)
				if added {
					established = append(established, linkNote{
						primary:   primary.ID,
						secondary: secondary.ID,
						relation:  rule.Relation,
					})
				}
			}
		}
	}
	s.mu.Unlock()

	for _, l := range established {
		metrics.RecordEventCorrelated()
		s.publish(notify.Notification{
			Kind:     notify.KindCorrelated,
			EventIDs: []string{l.primary, l.secondary},
			Relation: l.relation,
		})
	}
	return len(established)
}

// orient returns (primary, secondary) when the pair's types fit the rule in
// either order, honoring which event actually happened first.
func orient(a, b *model.TacticalEvent, rule *CorrelationRule) (*model.TacticalEvent, *model.TacticalEvent) {
	if a.Type == rule.Primary && b.Type == rule.Secondary && !b.Timestamp.Before(a.Timestamp) {
		return a, b
	}
	if b.Type == rule.Primary && a.Type == rule.Secondary && !a.Timestamp.Before(b.Timestamp) {
		return b, a
	}
	return nil, nil
}

// Verify applies an operator decision to an event. An unknown id is a
// reportable error, never a silent no-op.
func (s *Store) Verify(ctx context.Context, id string, status model.VerificationStatus, note string) error {
	if status != model.StatusVerified && status != model.StatusFalsePositive {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	event, ok := s.events[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	event.Status = status
	if note != "" {
		event.Description = fmt.Sprintf("%s (%s)", event.Description, note)
	}
	clone := event.Clone()
	s.mu.Unlock()

	metrics.RecordEventVerified(string(status))
	s.publish(notify.Notification{
		Kind:     notify.KindVerified,
		EventIDs: []string{clone.ID},
		Event:    clone,
	})
	return nil
}

// Cleanup removes events older than the retention window and evicts the
// oldest records past the in-memory cap, regardless of verification status.
// Returns the number of removed events.
func (s *Store) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		if now.Sub(s.events[id].Timestamp) > s.retention {
			delete(s.events, id)
			removed++
			metrics.RecordEventEvicted()
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept

	for len(s.order) > s.maxEvents {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.events, oldest)
		removed++
		metrics.RecordEventEvicted()
	}

	metrics.UpdateActiveEvents(len(s.events))
	return removed
}

// Get returns a copy of one event.
func (s *Store) Get(ctx context.Context, id string) (*model.TacticalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return event.Clone(), nil
}

// Events returns copies of all held events, oldest first.
func (s *Store) Events(ctx context.Context) []*model.TacticalEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.TacticalEvent, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.events[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Count returns the number of held events.
func (s *Store) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *Store) publish(n notify.Notification) {
	if s.publisher != nil {
		s.publisher.Publish(n)
	}
}
