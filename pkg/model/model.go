// Package model is the two-phase responder controller: sweep the building to
// discover occupants, then generate and execute optimal rescue items. Decide
// is a pure function of the snapshot plus the model's own queue state; the
// driver loop is Decide → Update, one call of each per tick.
package model

import (
	"github.com/jihwankim/evacsim/pkg/plan/rescue"
	"github.com/jihwankim/evacsim/pkg/plan/sweep"
	"github.com/jihwankim/evacsim/pkg/plan/tactical"
	"github.com/jihwankim/evacsim/pkg/reporting"
	"github.com/jihwankim/evacsim/pkg/sim"
)

// Phase is the controller phase. Monotonic: once RESCUE, never back.
type Phase int

const (
	PhaseSweep Phase = iota
	PhaseRescue
)

func (p Phase) String() string {
	switch p {
	case PhaseSweep:
		return "SWEEP"
	case PhaseRescue:
		return "RESCUE"
	default:
		return "UNKNOWN"
	}
}

// Config tunes the controller. All knobs are explicit; there is no global
// state beyond the simulation's own seeded stream.
type Config struct {
	// UseLP selects the LP relaxation assigner instead of the greedy one.
	UseLP bool

	// FirePriorityWeight w_f ≥ 0 boosts rescue value near the fire origin.
	FirePriorityWeight float64

	// UnderCapacityPenalty α ∈ [0,1] discounts items below full capacity.
	UnderCapacityPenalty float64

	// KCapacity is the responder carry capacity assumed by the optimizer.
	KCapacity int

	// SweepSeed drives deterministic k-medoids tie-breaking.
	SweepSeed int64

	// StallWindowTicks ends the sweep after this many ticks without
	// progress.
	StallWindowTicks int

	// MaxItems caps optimizer item generation; 0 uses the default.
	MaxItems int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		KCapacity:        3,
		StallWindowTicks: sweep.DefaultStallWindow,
	}
}

// Model orchestrates the sweep and rescue coordinators.
type Model struct {
	cfg      Config
	log      *reporting.Logger
	phase    Phase
	sweep    *sweep.Coordinator
	tactical *tactical.Coordinator
	assigner rescue.Assigner

	edgesGone   int // non-existing edge count at last Decide
	replanCount int
	lastResult  rescue.Result
}

// New creates a model. logger may be nil.
func New(cfg Config, logger *reporting.Logger) *Model {
	if cfg.KCapacity <= 0 {
		cfg.KCapacity = 3
	}
	if logger == nil {
		logger = reporting.Nop()
	}
	var assigner rescue.Assigner = rescue.Greedy{}
	if cfg.UseLP {
		assigner = rescue.LP{}
	}
	return &Model{
		cfg:      cfg,
		log:      logger,
		sweep:    sweep.NewCoordinator(cfg.SweepSeed, cfg.StallWindowTicks),
		tactical: tactical.NewCoordinator(),
		assigner: assigner,
	}
}

// Phase returns the current controller phase.
func (m *Model) Phase() Phase { return m.phase }

// ReplanCount returns how many replan events have fired.
func (m *Model) ReplanCount() int { return m.replanCount }

// LastOptimization exposes the latest item-generation diagnostics.
func (m *Model) LastOptimization() rescue.Result { return m.lastResult }

// Idle reports whether the controller has no more work to dispatch.
func (m *Model) Idle(state *sim.State) bool {
	return m.phase == PhaseRescue && m.tactical.Idle()
}

// Decide maps a snapshot to this tick's actions.
func (m *Model) Decide(state *sim.State) map[int][]sim.Action {
	gone := missingEdges(state)

	switch m.phase {
	case PhaseSweep:
		actions := m.sweep.Step(state)
		m.edgesGone = gone
		if m.sweep.Complete(state) {
			m.transition(state)
			return m.tactical.Step(state)
		}
		return actions

	default: // PhaseRescue
		if gone > m.edgesGone {
			m.replan(state)
		}
		m.edgesGone = gone
		return m.tactical.Step(state)
	}
}

func missingEdges(state *sim.State) int {
	n := 0
	for i := range state.Graph.Edges {
		if !state.Graph.Edges[i].Exists {
			n++
		}
	}
	return n
}

// transition fires the one-time SWEEP → RESCUE switch: the optimizer runs on
// the snapshot and its items are assigned and queued. Zero discovered
// incapable occupants is fine: the optimizer simply produces no items.
func (m *Model) transition(state *sim.State) {
	m.phase = PhaseRescue

	incapable := discoveredIncapable(state)
	m.log.Info("sweep complete, entering rescue phase",
		"tick", state.Tick, "rooms_with_incapable", len(incapable))

	m.generateAndEnqueue(state, incapable)
}

// replan truncates invalidated plans, reclaims their pending pickups and
// re-optimizes over just the affected supply.
func (m *Model) replan(state *sim.State) {
	m.replanCount++
	res := m.tactical.Replan(state)
	m.log.Info("graph changed, replanning",
		"tick", state.Tick, "affected_rooms", len(res.Affected),
		"newly_trapped", len(res.NewlyTrapped))
	if len(res.Affected) > 0 {
		m.generateAndEnqueue(state, res.Affected)
	}
}

func (m *Model) generateAndEnqueue(state *sim.State, incapable map[int]int) {
	if len(incapable) == 0 {
		return
	}
	g := state.Graph
	priority := func(room int) float64 {
		if p := g.Vertices[room].Priority; p > 0 {
			return p
		}
		return 1
	}
	result := rescue.Generate(g, incapable, state.FireOrigin, priority, rescue.Params{
		K:                    m.cfg.KCapacity,
		FirePriorityWeight:   m.cfg.FirePriorityWeight,
		UnderCapacityPenalty: m.cfg.UnderCapacityPenalty,
		MaxItems:             m.cfg.MaxItems,
	})
	m.lastResult = result
	m.log.Debug("rescue items generated",
		"generated", result.Generated, "pruned", result.Pruned,
		"surviving", len(result.Items), "effective_k", result.EffectiveK)

	responders := make([]rescue.ResponderInfo, 0, len(state.Responders))
	for _, r := range state.Responders {
		responders = append(responders, rescue.ResponderInfo{
			ID:      r.ID,
			Pos:     r.Pos,
			Load:    float64(m.tactical.QueueDepth(r.ID)),
			Trapped: m.tactical.Trapped(r.ID),
		})
	}

	assigned := m.assigner.Assign(g, result.Items, incapable, responders)
	for id, items := range assigned {
		m.tactical.Enqueue(id, items)
	}
}

// discoveredIncapable collects the last observed incapable counts of
// unburned discovered rooms.
func discoveredIncapable(state *sim.State) map[int]int {
	out := make(map[int]int)
	for room, occ := range state.Discovered {
		if occ.Incapable > 0 && !state.Graph.Vertices[room].Burned {
			out[room] = occ.Incapable
		}
	}
	return out
}
