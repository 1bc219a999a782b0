package pattern

import "github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"

// Defaults returns the built-in race patterns. Thresholds and base
// confidences are empirically tuned against race feeds; operators override
// or extend them at runtime via Register.
func Defaults() []Pattern {
	return []Pattern{
		{
			Name:           "crash",
			EventType:      model.EventCrash,
			Severity:       model.SeverityHigh,
			BaseConfidence: 0.85,
			Description:    "abrupt deceleration ending near-stationary",
			Conditions: []Condition{
				{Feature: "rider.speed_delta", Op: LessThan, Value: -8.0},
				{Feature: "rider.speed", Op: LessThan, Value: 1.5},
			},
		},
		{
			Name:           "attack",
			EventType:      model.EventAttack,
			Severity:       model.SeverityMedium,
			BaseConfidence: 0.75,
			Description:    "sharp acceleration with positions gained",
			Conditions: []Condition{
				{Feature: "rider.acceleration", Op: GreaterThan, Value: 0.8},
				{Feature: "rider.speed_delta", Op: GreaterThan, Value: 2.0},
				{Feature: "rider.rank_delta", Op: GreaterThan, Value: 0},
			},
		},
		{
			Name:           "mechanical",
			EventType:      model.EventMechanical,
			Severity:       model.SeverityMedium,
			BaseConfidence: 0.7,
			Description:    "gradual slowdown to a crawl without a stop",
			Conditions: []Condition{
				{Feature: "rider.speed_delta", Op: LessThan, Value: -3.0},
				{Feature: "rider.speed", Op: Between, Value: 0.5, High: 4.0},
			},
		},
		{
			Name:           "breakaway",
			EventType:      model.EventBreakaway,
			Severity:       model.SeverityMedium,
			BaseConfidence: 0.8,
			Description:    "lead group separating from the bunch",
			Conditions: []Condition{
				{Feature: "group.kind", Op: In, Values: []string{string(model.GroupBreakaway)}},
				{Feature: "rider.speed", Op: GreaterThan, Value: 8.0},
			},
		},
		{
			Name:           "sprint",
			EventType:      model.EventSprint,
			Severity:       model.SeverityMedium,
			BaseConfidence: 0.75,
			Description:    "top-end speed inside the finale",
			Conditions: []Condition{
				{Feature: "rider.speed", Op: GreaterThan, Value: 16.0},
				{Feature: "race.distance_remaining", Op: LessThan, Value: 3_000},
			},
		},
		{
			Name:           "chase",
			EventType:      model.EventChase,
			Severity:       model.SeverityLow,
			BaseConfidence: 0.6,
			Description:    "organized pursuit of a group up the road",
			Conditions: []Condition{
				{Feature: "rider.speed_mean", Op: GreaterThan, Value: 12.0},
				{Feature: "group.kind", Op: In, Values: []string{string(model.GroupSmallGroup), string(model.GroupPeloton)}},
				{Feature: "group.gap_to_previous", Op: Between, Value: 5, High: 120},
			},
		},
	}
}
