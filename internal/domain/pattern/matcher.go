package pattern

import (
	"sort"
	"strings"
	"sync"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/metrics"
)

// Vector is a nested feature map addressed with dotted paths.
type Vector = map[string]any

// Match is a pattern that fired against a feature vector.
type Match struct {
	Pattern    string
	EventType  model.EventType
	Severity   model.Severity
	Confidence float64
}

// Matcher holds a mutable registry of patterns. Each race-tracking instance
// owns its own matcher; there is no process-wide registry.
type Matcher struct {
	mu       sync.RWMutex
	patterns map[string]*Pattern
	order    []string // registration order, the deterministic tiebreak
}

// NewMatcher creates an empty matcher.
func NewMatcher() *Matcher {
	return &Matcher{patterns: make(map[string]*Pattern)}
}

// Register adds or overwrites a named pattern. Malformed patterns are
// rejected here, at registration time. Overwriting keeps the original
// registration position for tie-breaking.
func (m *Matcher) Register(p Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.patterns[p.Name]; !exists {
		m.order = append(m.order, p.Name)
	}
	m.patterns[p.Name] = &p
	return nil
}

// Patterns returns the registered pattern names in registration order.
func (m *Matcher) Patterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Match evaluates every registered pattern against the feature vector. A
// pattern's score is its base confidence scaled by the mean strength of its
// conditions; patterns scoring zero are omitted. Results are sorted by
// confidence descending, ties broken by registration order.
func (m *Matcher) Match(features Vector) []Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Match
	rank := make(map[string]int, len(m.order))
	for i, name := range m.order {
		rank[name] = i
	}

	for _, name := range m.order {
		p := m.patterns[name]
		total := 0.0
		for i := range p.Conditions {
			total += p.Conditions[i].strength(features)
		}
		score := p.BaseConfidence * total / float64(len(p.Conditions))
		if score <= 0 {
			continue
		}
		if score > 1 {
			score = 1
		}
		out = append(out, Match{
			Pattern:    p.Name,
			EventType:  p.EventType,
			Severity:   p.Severity,
			Confidence: score,
		})
		metrics.RecordPatternMatched(p.Name)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return rank[out[i].Pattern] < rank[out[j].Pattern]
	})
	return out
}

// Lookup resolves a dotted path ("rider.performance.speed") inside a nested
// feature map. Missing paths return ok=false, never an error.
func Lookup(features Vector, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = features
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
