// Package sim implements the discrete-tick simulation kernel: fire and smoke
// physics over the building graph, occupant motion and casualties, responder
// action execution and the seeded stochastic event stream. The kernel owns
// the graph; planners only ever see Read() snapshots.
package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/jihwankim/evacsim/pkg/config"
	"github.com/jihwankim/evacsim/pkg/graph"
)

// Physics constants. τ is fixed at one real-world second per tick.
const (
	tickSeconds = 1.0

	// ignitionThreshold is the fire intensity at which a vertex burns.
	ignitionThreshold = 0.8

	// preheatCoeff scales neighbor fire intensity into preheating.
	preheatCoeff = 0.05

	// crossFloorPreheat damps preheating across floors.
	crossFloorPreheat = 0.7

	// smokeGenRate is m³ of smoke per unit fire intensity per second.
	smokeGenRate = 4.0

	// smokeDiffusionRate scales concentration-differential smoke exchange.
	smokeDiffusionRate = 0.2

	// Smoke flowing upward spreads faster than downward.
	smokeUpFactor   = 1.5
	smokeDownFactor = 0.5
)

// smokeDeathProb maps smoke concentration to a per-person per-tick death
// probability band.
func smokeDeathProb(concentration float64) float64 {
	switch {
	case concentration < 0.3:
		return 0
	case concentration < 0.5:
		return 0.02
	case concentration < 0.7:
		return 0.05
	default:
		return 0.15
	}
}

// Responder is a firefighter agent. Position and carrying state mutate
// through action execution only.
type Responder struct {
	ID             int
	Capacity       int
	ActionsPerTick int
	Pos            int
	Carrying       int
	Visited        map[int]bool
}

// Params configure simulation construction.
type Params struct {
	// NumResponders is the firefighter head count.
	NumResponders int

	// FireOrigin overrides the config origin when >= 0 (dense vertex id).
	FireOrigin int

	// Seed initializes the single pseudorandom stream; identical configs,
	// seeds and action traces produce bit-identical runs.
	Seed int64

	// CarryCapacity K; defaults to 3.
	CarryCapacity int

	// ActionsPerTick A; defaults to 2.
	ActionsPerTick int
}

// Simulation is the tick-driven kernel.
type Simulation struct {
	g           *graph.Graph
	responders  []Responder
	rng         *rand.Rand
	tick        int
	fireOrigin  int
	floorHeight float64

	rescued        int
	dead           int
	totalInitial   int
	lastRescueTick int

	discovered map[int]Occupancy
}

// TickResult bundles the outcome of one Update call.
type TickResult struct {
	Tick            int
	ActionResults   map[int][]ActionResult
	Events          []Event
	RescuedThisTick int
	DeadThisTick    int
}

// New builds a simulation from a validated config. Occupants are sampled
// from the config occupancy distributions using the seeded stream; the fire
// origin ignites immediately, killing anyone placed there.
func New(cfg *config.BuildingConfig, p Params) (*Simulation, error) {
	if p.NumResponders <= 0 {
		return nil, fmt.Errorf("need at least one responder")
	}
	if p.CarryCapacity <= 0 {
		p.CarryCapacity = 3
	}
	if p.ActionsPerTick <= 0 {
		p.ActionsPerTick = 2
	}

	g, err := graph.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	origin := p.FireOrigin
	if origin < 0 {
		id, ok := g.VertexByName(cfg.FireParams.OriginVertexID)
		if !ok {
			return nil, fmt.Errorf("fire origin %q is not a vertex", cfg.FireParams.OriginVertexID)
		}
		origin = id
	}
	if origin >= g.NumVertices() {
		return nil, fmt.Errorf("fire origin %d out of range", origin)
	}

	s := &Simulation{
		g:              g,
		rng:            rand.New(rand.NewSource(p.Seed)),
		fireOrigin:     origin,
		floorHeight:    cfg.BuildingParams.FloorHeight(),
		lastRescueTick: -1,
		discovered:     make(map[int]Occupancy),
	}

	s.sampleOccupants(cfg)

	// Ignite the origin. Its occupants are lost before any plan can reach
	// them, keeping the conservation invariant from tick zero.
	ov := &g.Vertices[origin]
	ov.FireIntensity = 1.0
	ov.Burned = true
	s.dead += ov.Occupants()
	ov.Capable, ov.Instructed, ov.Incapable = 0, 0, 0
	if cfg.FireParams.InitialSmokeLevel > 0 {
		level := cfg.FireParams.InitialSmokeLevel
		if level > 1 {
			level = 1
		}
		ov.SmokeVolume = level * ov.Volume()
	}

	// Responders muster at the lowest-id exit.
	exits := exitVertices(g)
	start := exits[0]
	s.responders = make([]Responder, p.NumResponders)
	for i := range s.responders {
		s.responders[i] = Responder{
			ID:             i,
			Capacity:       p.CarryCapacity,
			ActionsPerTick: p.ActionsPerTick,
			Pos:            start,
			Visited:        map[int]bool{start: true},
		}
		s.observe(&s.responders[i])
	}

	return s, nil
}

// Graph exposes the kernel-owned graph for scenario assertions in tests.
// Production callers must use Read().
func (s *Simulation) Graph() *graph.Graph { return s.g }

// Tick returns the current tick counter.
func (s *Simulation) Tick() int { return s.tick }

// sampleOccupants draws initial head counts per vertex in id order so the
// stream position is reproducible.
func (s *Simulation) sampleOccupants(cfg *config.BuildingConfig) {
	defaults := cfg.OccupancyProbabilities.Defaults
	rooms := cfg.OccupancyProbabilities.Rooms

	for i := range s.g.Vertices {
		v := &s.g.Vertices[i]
		var occ *config.RoomOccupancy
		if ro, ok := rooms[v.Name]; ok {
			occ = &ro
		} else if defaults != nil && v.Kind == graph.KindRoom {
			occ = defaults
		}
		if occ == nil {
			continue
		}
		v.Capable = s.sampleCount(occ.Capable)
		v.Incapable = s.sampleCount(occ.Incapable)
		if cap := v.Capacity; cap > 0 && v.Capable+v.Incapable > cap {
			// Clamp capable first so the sample never exceeds room capacity.
			over := v.Capable + v.Incapable - cap
			if v.Capable >= over {
				v.Capable -= over
			} else {
				v.Incapable -= over - v.Capable
				v.Capable = 0
			}
		}
		s.totalInitial += v.Capable + v.Incapable
	}
}

// sampleCount draws one value from a point-mass distribution. Weights are
// renormalized so configs that sum slightly off 1.0 still sample cleanly.
func (s *Simulation) sampleCount(dist []config.CountProb) int {
	if len(dist) == 0 {
		return 0
	}
	var total float64
	for _, cp := range dist {
		total += cp.P
	}
	if total <= 0 {
		return 0
	}
	roll := s.rng.Float64() * total
	var acc float64
	for _, cp := range dist {
		acc += cp.P
		if roll < acc {
			return cp.Count
		}
	}
	return dist[len(dist)-1].Count
}

// observe records what the responder currently sees in its vertex.
func (s *Simulation) observe(r *Responder) {
	r.Visited[r.Pos] = true
	v := &s.g.Vertices[r.Pos]
	s.discovered[r.Pos] = Occupancy{
		Capable:    v.Capable,
		Instructed: v.Instructed,
		Incapable:  v.Incapable,
	}
}

// Update advances the simulation one tick: responder actions, instructed
// occupant motion, stochastic edge burn-out, fire spread, smoke diffusion
// and casualties, in that order.
func (s *Simulation) Update(actions map[int][]Action) (*TickResult, error) {
	res := &TickResult{
		Tick:          s.tick,
		ActionResults: make(map[int][]ActionResult),
	}
	rescuedBefore, deadBefore := s.rescued, s.dead

	// Per-tick edge traversal budgets, shared between responder moves and
	// instructed occupant motion, consumed in that order.
	flowUsed := make(map[int]int)

	s.executeActions(actions, flowUsed, res)
	s.propagateInstructed(flowUsed, res)
	s.burnEdges(res)
	s.spreadFire(res)
	s.diffuseSmoke()
	s.rollSmokeDeaths(res)

	// Responders re-observe their vertex after physics so discovered counts
	// reflect this tick's casualties.
	for i := range s.responders {
		s.observe(&s.responders[i])
	}

	s.tick++
	res.RescuedThisTick = s.rescued - rescuedBefore
	res.DeadThisTick = s.dead - deadBefore
	return res, nil
}

// responderOrder returns the ids with submitted actions in ascending order;
// execution order is deterministic regardless of map iteration.
func responderOrder(actions map[int][]Action) []int {
	ids := make([]int, 0, len(actions))
	for id := range actions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func exitVertices(g *graph.Graph) []int {
	var exits []int
	for i := range g.Vertices {
		if g.Vertices[i].Kind.IsExit() {
			exits = append(exits, i)
		}
	}
	return exits
}
