package model

import "time"

// TacticalSituation labels the current shape of the race.
type TacticalSituation string

// Tactical situation labels, derived heuristically each cycle.
const (
	SituationStable    TacticalSituation = "stable"
	SituationBreakaway TacticalSituation = "breakaway"
	SituationSprint    TacticalSituation = "sprint"
	SituationClimb     TacticalSituation = "climb"
)

// RaceState is a derived snapshot of the whole race. It is recomputed
// wholesale every cycle and never partially mutated.
type RaceState struct {
	TotalRiders   int
	ActiveRiders  int
	AvgSpeed      float64 // m/s over riders that report speed
	FastestRider  string  // rider id, empty when no rider reports speed
	GroupCount    int
	Situation     TacticalSituation
	ComputedAt    time.Time
}
