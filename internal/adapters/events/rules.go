package events

import (
	"fmt"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
)

// CorrelationRule links two event types that tend to be causally related
// when they happen close together. The rule matches when the secondary event
// occurs within MaxGap after the primary and within MaxDistance of it.
type CorrelationRule struct {
	Name        string
	Primary     model.EventType
	Secondary   model.EventType
	MaxGap      time.Duration
	MaxDistance float64 // meters; events without a location count as distance 0
	Confidence  float64
	Relation    string // e.g. "consequence", "concurrent"
}

// Validate fails fast on malformed rules, mirroring pattern registration.
func (r *CorrelationRule) Validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: empty rule name", ErrInvalidRule)
	case r.Primary == "" || r.Secondary == "":
		return fmt.Errorf("%w: rule %q must name both event types", ErrInvalidRule, r.Name)
	case r.MaxGap <= 0:
		return fmt.Errorf("%w: rule %q max gap must be positive", ErrInvalidRule, r.Name)
	case r.MaxDistance < 0:
		return fmt.Errorf("%w: rule %q max distance must be non-negative", ErrInvalidRule, r.Name)
	case r.Confidence <= 0 || r.Confidence > 1:
		return fmt.Errorf("%w: rule %q confidence %v outside (0, 1]", ErrInvalidRule, r.Name, r.Confidence)
	case r.Relation == "":
		return fmt.Errorf("%w: rule %q has no relation label", ErrInvalidRule, r.Name)
	}
	return nil
}

// DefaultRules returns the built-in correlation rules. Windows are
// empirically tuned.
func DefaultRules() []CorrelationRule {
	return []CorrelationRule{
		{
			Name:        "crash-mechanical",
			Primary:     model.EventCrash,
			Secondary:   model.EventMechanical,
			MaxGap:      90 * time.Second,
			MaxDistance: 200,
			Confidence:  0.8,
			Relation:    "consequence",
		},
		{
			Name:        "attack-breakaway",
			Primary:     model.EventAttack,
			Secondary:   model.EventBreakaway,
			MaxGap:      2 * time.Minute,
			MaxDistance: 1_000,
			Confidence:  0.7,
			Relation:    "consequence",
		},
		{
			Name:        "crash-pileup",
			Primary:     model.EventCrash,
			Secondary:   model.EventCrash,
			MaxGap:      30 * time.Second,
			MaxDistance: 150,
			Confidence:  0.75,
			Relation:    "concurrent",
		},
		{
			Name:        "breakaway-chase",
			Primary:     model.EventBreakaway,
			Secondary:   model.EventChase,
			MaxGap:      3 * time.Minute,
			MaxDistance: 2_000,
			Confidence:  0.65,
			Relation:    "consequence",
		},
	}
}
