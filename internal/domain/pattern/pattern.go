// Package pattern evaluates named condition-sets against telemetry feature
// vectors and produces confidence-scored candidate event types.
package pattern

import (
	"fmt"
	"math"
	"strings"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
)

// Operator is the closed set of condition comparisons. Anything outside the
// set is rejected at registration time, never discovered at evaluation time.
type Operator string

// Supported comparison operators.
const (
	GreaterThan Operator = "gt"
	LessThan    Operator = "lt"
	Equal       Operator = "eq"
	Between     Operator = "between"
	In          Operator = "in"
	Contains    Operator = "contains"
)

// equalEpsilon is the tolerance for numeric equality.
const equalEpsilon = 1e-9

// Condition compares one feature against a threshold. Which auxiliary field
// matters depends on the operator: Value for gt/lt/eq and the Between lower
// bound, High for the Between upper bound, Values for in, Substring for
// contains.
type Condition struct {
	Feature   string
	Op        Operator
	Value     float64
	High      float64
	Values    []string
	Substring string
}

// Pattern is a registrable detection rule.
type Pattern struct {
	Name           string
	EventType      model.EventType
	Severity       model.Severity
	BaseConfidence float64 // [0, 1]
	Conditions     []Condition
	Description    string
}

// Validate fails fast on malformed rules so a bad pattern cannot silently
// degrade detection mid-race.
func (p *Pattern) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty pattern name", ErrInvalidPattern)
	}
	if p.EventType == "" {
		return fmt.Errorf("%w: pattern %q has no event type", ErrInvalidPattern, p.Name)
	}
	if p.BaseConfidence <= 0 || p.BaseConfidence > 1 {
		return fmt.Errorf("%w: pattern %q base confidence %v outside (0, 1]", ErrInvalidPattern, p.Name, p.BaseConfidence)
	}
	if len(p.Conditions) == 0 {
		return fmt.Errorf("%w: pattern %q has no conditions", ErrInvalidPattern, p.Name)
	}
	for i := range p.Conditions {
		if err := p.Conditions[i].validate(); err != nil {
			return fmt.Errorf("pattern %q condition %d: %w", p.Name, i, err)
		}
	}
	return nil
}

func (c *Condition) validate() error {
	if c.Feature == "" {
		return fmt.Errorf("%w: empty feature path", ErrInvalidPattern)
	}
	switch c.Op {
	case GreaterThan, LessThan, Equal:
		return nil
	case Between:
		if c.High <= c.Value {
			return fmt.Errorf("%w: between bounds [%v, %v] are inverted", ErrInvalidPattern, c.Value, c.High)
		}
		return nil
	case In:
		if len(c.Values) == 0 {
			return fmt.Errorf("%w: in-set condition with empty set", ErrInvalidPattern)
		}
		return nil
	case Contains:
		if c.Substring == "" {
			return fmt.Errorf("%w: contains condition with empty substring", ErrInvalidPattern)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidPattern, c.Op)
	}
}

// strength returns how strongly the condition is satisfied: 0 when it fails
// (including an absent feature), and (0, 1] when it holds. Threshold
// comparisons reward margin beyond the threshold so a hard crash signal
// outranks a borderline one.
func (c *Condition) strength(features Vector) float64 {
	raw, ok := Lookup(features, c.Feature)
	if !ok {
		return 0
	}

	switch c.Op {
	case GreaterThan:
		v, ok := asFloat(raw)
		if !ok || v <= c.Value {
			return 0
		}
		return marginStrength(v-c.Value, c.Value)
	case LessThan:
		v, ok := asFloat(raw)
		if !ok || v >= c.Value {
			return 0
		}
		return marginStrength(c.Value-v, c.Value)
	case Equal:
		v, ok := asFloat(raw)
		if !ok || math.Abs(v-c.Value) > equalEpsilon {
			return 0
		}
		return 1
	case Between:
		v, ok := asFloat(raw)
		if !ok || v < c.Value || v > c.High {
			return 0
		}
		return 1
	case In:
		s, ok := raw.(string)
		if !ok {
			return 0
		}
		for _, candidate := range c.Values {
			if s == candidate {
				return 1
			}
		}
		return 0
	case Contains:
		s, ok := raw.(string)
		if !ok || !strings.Contains(s, c.Substring) {
			return 0
		}
		return 1
	default:
		// Unreachable after Validate; treat as unsatisfied.
		return 0
	}
}

// marginStrength maps how far a value clears its threshold to (0.5, 1].
func marginStrength(margin, threshold float64) float64 {
	scale := math.Abs(threshold)
	if scale < 1 {
		scale = 1
	}
	frac := margin / scale
	if frac > 1 {
		frac = 1
	}
	return 0.5 + 0.5*frac
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
