// Package groups clusters tracked riders into race groups and computes time
// gaps. All functions are pure over a position snapshot: given the same
// input they return the same partition, so repeated invocation in one cycle
// is idempotent.
package groups

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
)

// Config carries the clustering and classification thresholds.
type Config struct {
	// ProximitySeconds is the neighbor-to-neighbor elapsed-time gap that
	// splits two groups. Clustering is transitive: riders within the
	// threshold of their immediate neighbor share a group even when the
	// group's extremes exceed it.
	ProximitySeconds    float64
	SmallGroupMaxSize   int
	PelotonMinSize      int
	BreakawayMaxSize    int
	BreakawayGapSeconds float64
}

// RiderGap is a per-rider time gap in the rank order.
type RiderGap struct {
	RiderID       string
	Rank          int
	GapToPrevious float64 // seconds behind the immediately-preceding rider, 0 for the leader
	GapToLeader   float64 // cumulative seconds behind the race leader
}

// Detect partitions the snapshot into race groups ordered front-to-back.
// Riders are sorted by elapsed race time where available and by rank
// otherwise; ties break on rider id so the partition is deterministic.
// Every rider in the snapshot lands in exactly one group.
func Detect(snapshot []model.RiderSample, cfg Config) []model.Group {
	if len(snapshot) == 0 {
		return nil
	}

	ordered := orderRiders(snapshot)

	var clusters [][]*model.RiderSample
	current := []*model.RiderSample{ordered[0]}
	for i := 1; i < len(ordered); i++ {
		prev, curr := ordered[i-1], ordered[i]
		if splitBetween(prev, curr, cfg.ProximitySeconds) {
			clusters = append(clusters, current)
			current = nil
		}
		current = append(current, curr)
	}
	clusters = append(clusters, current)

	out := make([]model.Group, len(clusters))
	for i, cluster := range clusters {
		out[i] = buildGroup(cluster, cfg)
	}
	applyGaps(out, clusters)
	promoteBreakaways(out, cfg)
	return out
}

// orderRiders sorts front-of-race first: riders reporting elapsed time by
// (elapsed, id), then riders without it by (rank, id).
func orderRiders(snapshot []model.RiderSample) []*model.RiderSample {
	ordered := make([]*model.RiderSample, len(snapshot))
	for i := range snapshot {
		ordered[i] = &snapshot[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch {
		case a.TimeFromStart != nil && b.TimeFromStart != nil:
			if *a.TimeFromStart != *b.TimeFromStart {
				return *a.TimeFromStart < *b.TimeFromStart
			}
			return a.RiderID < b.RiderID
		case a.TimeFromStart != nil:
			return true
		case b.TimeFromStart != nil:
			return false
		default:
			if a.Rank != b.Rank {
				return a.Rank < b.Rank
			}
			return a.RiderID < b.RiderID
		}
	})
	return ordered
}

// splitBetween decides whether a new group starts at curr. Without elapsed
// time on both sides the split falls back to rank adjacency: contiguous
// ranks stay together.
func splitBetween(prev, curr *model.RiderSample, proximity float64) bool {
	if prev.TimeFromStart != nil && curr.TimeFromStart != nil {
		return *curr.TimeFromStart-*prev.TimeFromStart > proximity
	}
	return curr.Rank-prev.Rank > 1
}

func buildGroup(cluster []*model.RiderSample, cfg Config) model.Group {
	ids := make([]string, len(cluster))
	ranks := make([]float64, len(cluster))
	var speeds []float64
	for i, r := range cluster {
		ids[i] = r.RiderID
		ranks[i] = float64(r.Rank)
		if r.Speed != nil {
			speeds = append(speeds, *r.Speed)
		}
	}

	g := model.Group{
		RiderIDs: ids,
		AvgRank:  stat.Mean(ranks, nil),
	}
	if len(speeds) > 0 {
		g.AvgSpeed = stat.Mean(speeds, nil)
	}

	switch {
	case len(cluster) == 1:
		g.Kind = model.GroupSolo
	case len(cluster) >= cfg.PelotonMinSize:
		g.Kind = model.GroupPeloton
	default:
		g.Kind = model.GroupSmallGroup
	}
	return g
}

// applyGaps fills GapToPrevious and GapToLeader. The group-to-group gap is
// measured leading rider to leading rider; groups whose leading rider lacks
// elapsed time contribute a zero gap.
func applyGaps(out []model.Group, clusters [][]*model.RiderSample) {
	cumulative := 0.0
	for i := 1; i < len(out); i++ {
		prevLead := clusters[i-1][0]
		currLead := clusters[i][0]
		gap := 0.0
		if prevLead.TimeFromStart != nil && currLead.TimeFromStart != nil {
			gap = *currLead.TimeFromStart - *prevLead.TimeFromStart
		}
		cumulative += gap
		out[i].GapToPrevious = gap
		out[i].GapToLeader = cumulative
	}
}

// promoteBreakaways relabels small lead groups that have real separation
// from the bunch behind them. Solo riders stay solo; the peloton stays the
// peloton.
func promoteBreakaways(out []model.Group, cfg Config) {
	mainIdx := largestGroup(out)
	for i := range out {
		if i >= mainIdx {
			break
		}
		if out[i].Kind != model.GroupSmallGroup || out[i].Size() > cfg.BreakawayMaxSize {
			continue
		}
		if i+1 < len(out) && out[i+1].GapToPrevious >= cfg.BreakawayGapSeconds {
			out[i].Kind = model.GroupBreakaway
		}
	}
}

func largestGroup(out []model.Group) int {
	idx := 0
	for i := range out {
		if out[i].Size() > out[idx].Size() {
			idx = i
		}
	}
	return idx
}

// RiderGaps computes per-rider time gaps in rank order: the leader gets 0,
// every other rider gets the elapsed-time delta to the immediately-preceding
// rider and the cumulative delta to the leader.
func RiderGaps(snapshot []model.RiderSample) []RiderGap {
	if len(snapshot) == 0 {
		return nil
	}

	ordered := make([]*model.RiderSample, len(snapshot))
	for i := range snapshot {
		ordered[i] = &snapshot[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Rank != ordered[j].Rank {
			return ordered[i].Rank < ordered[j].Rank
		}
		return ordered[i].RiderID < ordered[j].RiderID
	})

	out := make([]RiderGap, len(ordered))
	cumulative := 0.0
	for i, r := range ordered {
		gap := 0.0
		if i > 0 {
			prev := ordered[i-1]
			if prev.TimeFromStart != nil && r.TimeFromStart != nil {
				gap = *r.TimeFromStart - *prev.TimeFromStart
			}
		}
		cumulative += gap
		out[i] = RiderGap{
			RiderID:       r.RiderID,
			Rank:          r.Rank,
			GapToPrevious: gap,
			GapToLeader:   cumulative,
		}
	}
	return out
}
