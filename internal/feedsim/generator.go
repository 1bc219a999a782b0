package feedsim

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/geo"
	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
)

// riderState is the simulator's ground truth for one rider.
type riderState struct {
	id         string
	baseSpeed  float64
	lastSpeed  float64
	distance   float64 // meters covered from the start line
	crashedFor int     // remaining near-stationary ticks
}

// generator advances a synthetic race one tick at a time. Determinism comes
// from the seeded source; two generators with the same seed produce the same
// feed.
type generator struct {
	cfg     *Config
	rng     *rand.Rand
	riders  []*riderState
	elapsed time.Duration
	tickNum int
}

func newGenerator(cfg *Config) *generator {
	g := &generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	for i := 0; i < cfg.Riders; i++ {
		r := &riderState{
			id:        fmt.Sprintf("rider-%03d", i+1),
			baseSpeed: pelotonSpeedMS + g.rng.Float64()*speedJitterMS,
		}
		if i < cfg.BreakawaySize {
			r.baseSpeed = breakawaySpeedMS + g.rng.Float64()*speedJitterMS
			r.distance = breakawayHeadStartMeters
		}
		g.riders = append(g.riders, r)
	}
	return g
}

// next advances the race by one tick and returns the resulting samples,
// ranked by distance covered.
func (g *generator) next(now time.Time) []model.RiderSample {
	g.tickNum++
	g.elapsed += g.cfg.Tick
	dt := g.cfg.Tick.Seconds()

	if g.cfg.InjectCrash && g.tickNum == g.crashTick() {
		// A mid-pack rider goes down hard.
		victim := g.riders[len(g.riders)/2]
		victim.crashedFor = crashDuration
	}

	for _, r := range g.riders {
		speed := r.baseSpeed + (g.rng.Float64()-0.5)*speedJitterMS
		if r.crashedFor > 0 {
			speed = 0.3
			r.crashedFor--
		}
		r.distance += speed * dt
		r.lastSpeed = speed
	}

	ranked := make([]*riderState, len(g.riders))
	copy(ranked, g.riders)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].distance > ranked[j].distance })

	leadDistance := ranked[0].distance
	out := make([]model.RiderSample, 0, len(ranked))
	for rank, r := range ranked {
		lat, lng := geo.Project(startLat, startLng, routeBearing, r.distance)

		// Time from start approximates when this rider would reach the
		// leader's position, so time gaps track distance gaps.
		gap := 0.0
		if r.lastSpeed > 1 {
			gap = (leadDistance - r.distance) / r.lastSpeed
		}

		out = append(out, model.RiderSample{
			RiderID:       r.id,
			Rank:          rank + 1,
			Latitude:      model.Float64(lat),
			Longitude:     model.Float64(lng),
			Speed:         model.Float64(r.lastSpeed),
			Heading:       model.Float64(routeBearing),
			TimeFromStart: model.Float64(g.elapsed.Seconds() + gap),
			Distance:      model.Float64(r.distance),
			Confidence:    0.9 + g.rng.Float64()*0.1,
			CapturedAt:    now,
			Source:        "simulator",
		})
	}
	return out
}

func (g *generator) crashTick() int {
	total := int(g.cfg.Duration / g.cfg.Tick)
	return int(float64(total) * crashTickFrac)
}
