package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// EventType names a kind of tactical event detected from telemetry.
type EventType string

// Known tactical event types. Custom patterns may introduce new ones; the
// store treats the type as an opaque key.
const (
	EventAttack     EventType = "attack"
	EventCrash      EventType = "crash"
	EventMechanical EventType = "mechanical"
	EventBreakaway  EventType = "breakaway"
	EventSprint     EventType = "sprint"
	EventChase      EventType = "chase"
)

// Severity grades how race-significant an event is.
type Severity string

// Severity levels in ascending order.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// VerificationStatus tracks the operator-facing lifecycle of an event.
type VerificationStatus string

// Verification states. Verified and false_positive are terminal for
// classification; the record is retained until retention expiry.
const (
	StatusUnverified    VerificationStatus = "unverified"
	StatusVerified      VerificationStatus = "verified"
	StatusFalsePositive VerificationStatus = "false_positive"
)

// LatLng is a geolocation attached to an event.
type LatLng struct {
	Lat float64
	Lng float64
}

// RelatedLink connects an event to a causally-related event.
type RelatedLink struct {
	EventID  string
	Relation string // e.g. "consequence", "concurrent"
}

// TacticalEvent is a race-significant occurrence inferred from telemetry.
type TacticalEvent struct {
	ID          string
	Type        EventType
	Severity    Severity
	Confidence  float64 // [0, 1]
	Timestamp   time.Time
	Location    *LatLng
	RiderIDs    []string // deduplicated, sorted
	Description string
	Source      string
	Tags        []string
	Status      VerificationStatus
	Related     []RelatedLink // deduplicated (EventID, Relation) pairs
}

// NewEventID builds a globally unique event id from the event timestamp and
// a random suffix, so concurrent creation in the same tick cannot collide.
func NewEventID(ts time.Time) string {
	return fmt.Sprintf("evt-%d-%s", ts.UnixNano(), uuid.NewString()[:8])
}

// AddRiders unions ids into the involved-rider set, keeping it sorted and
// free of duplicates. Returns the number of newly added riders.
func (e *TacticalEvent) AddRiders(ids ...string) int {
	seen := make(map[string]struct{}, len(e.RiderIDs))
	for _, id := range e.RiderIDs {
		seen[id] = struct{}{}
	}
	added := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		e.RiderIDs = append(e.RiderIDs, id)
		added++
	}
	if added > 0 {
		sort.Strings(e.RiderIDs)
	}
	return added
}

// LinkTo records a relation to another event. Returns false when the exact
// (event id, relation) pair is already present.
func (e *TacticalEvent) LinkTo(eventID, relation string) bool {
	for _, l := range e.Related {
		if l.EventID == eventID && l.Relation == relation {
			return false
		}
	}
	e.Related = append(e.Related, RelatedLink{EventID: eventID, Relation: relation})
	return true
}

// HasTag reports whether the event carries the given tag.
func (e *TacticalEvent) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to callers outside the store lock.
func (e *TacticalEvent) Clone() *TacticalEvent {
	c := *e
	if e.Location != nil {
		loc := *e.Location
		c.Location = &loc
	}
	c.RiderIDs = append([]string(nil), e.RiderIDs...)
	c.Tags = append([]string(nil), e.Tags...)
	c.Related = append([]RelatedLink(nil), e.Related...)
	return &c
}

// Impact is an on-demand assessment of how much an event disrupts the race.
type Impact struct {
	Level string  // minor, moderate, major
	Score float64 // unbounded relative score used for ordering
}

// Impact scoring weights. Empirically tuned, not derived.
var severityWeights = map[Severity]float64{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     4,
	SeverityCritical: 8,
}

var typeWeights = map[EventType]float64{
	EventCrash:      3,
	EventMechanical: 2,
	EventAttack:     1.5,
	EventBreakaway:  1.5,
	EventSprint:     1,
	EventChase:      1,
}

// ImpactAssessment computes the event's impact from its type, severity, tags
// and involved-rider count. It is derived on demand and never stored.
func (e *TacticalEvent) ImpactAssessment() Impact {
	sw, ok := severityWeights[e.Severity]
	if !ok {
		sw = 1
	}
	tw, ok := typeWeights[e.Type]
	if !ok {
		tw = 1
	}
	score := sw * tw * (1 + 0.1*float64(len(e.RiderIDs)))
	if e.HasTag("race_leader") {
		score *= 1.5
	}
	level := "minor"
	switch {
	case score >= 12:
		level = "major"
	case score >= 4:
		level = "moderate"
	}
	return Impact{Level: level, Score: score}
}
