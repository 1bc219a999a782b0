package model

// GroupKind classifies a race group by its size and position in the race.
type GroupKind string

// Group classifications. Cutoffs between them are configuration, not
// constants; see config.Config.
const (
	GroupSolo       GroupKind = "solo"
	GroupSmallGroup GroupKind = "small_group"
	GroupBreakaway  GroupKind = "breakaway"
	GroupPeloton    GroupKind = "peloton"
)

// Group is a cluster of riders sharing race proximity. Groups are recomputed
// wholesale every detection cycle and always partition the tracked riders.
type Group struct {
	// RiderIDs is sorted by race position (leading rider first).
	RiderIDs []string
	Kind     GroupKind
	AvgRank  float64
	AvgSpeed float64 // m/s, mean over riders that report speed

	// GapToPrevious is the elapsed-time delta in seconds between this group's
	// leading rider and the previous group's leading rider. Zero for the
	// front group.
	GapToPrevious float64
	// GapToLeader is the cumulative delta to the front group's leading rider.
	GapToLeader float64
}

// Size returns the number of riders in the group.
func (g *Group) Size() int {
	return len(g.RiderIDs)
}
