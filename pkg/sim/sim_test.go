package sim

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/evacsim/pkg/config"
)

// corridorConfig builds exit—hall—r1—r2—r3 plus an isolated fire room.
// All burn rates are zero so runs are free of stochastic edge loss; the
// occupancy distributions are point masses so sampled counts are exact.
func corridorConfig() *config.BuildingConfig {
	one := []config.CountProb{{Count: 1, P: 1}}
	zero := []config.CountProb{{Count: 0, P: 1}}
	return &config.BuildingConfig{
		Vertices: []config.VertexConfig{
			{ID: "exit", Kind: "exit", Capacity: 20},
			{ID: "hall", Kind: "hallway", Capacity: 10},
			{ID: "r1", Kind: "room", Capacity: 6},
			{ID: "r2", Kind: "room", Capacity: 6},
			{ID: "r3", Kind: "room", Capacity: 6},
			{ID: "firecell", Kind: "room", Capacity: 6},
		},
		Edges: []config.EdgeConfig{
			{ID: "e0", VertexA: "exit", VertexB: "hall", MaxFlow: 3},
			{ID: "e1", VertexA: "hall", VertexB: "r1", MaxFlow: 2},
			{ID: "e2", VertexA: "r1", VertexB: "r2", MaxFlow: 2},
			{ID: "e3", VertexA: "r2", VertexB: "r3", MaxFlow: 2},
		},
		OccupancyProbabilities: config.OccupancyConfig{
			Rooms: map[string]config.RoomOccupancy{
				"r1": {Capable: one, Incapable: one},
				"r2": {Capable: zero, Incapable: one},
				"r3": {Capable: one, Incapable: zero},
			},
		},
		FireParams: config.FireParams{OriginVertexID: "firecell"},
	}
}

func newCorridor(t *testing.T) *Simulation {
	t.Helper()
	s, err := New(corridorConfig(), Params{NumResponders: 1, FireOrigin: -1, Seed: 7})
	require.NoError(t, err)
	return s
}

func mustUpdate(t *testing.T, s *Simulation, actions map[int][]Action) *TickResult {
	t.Helper()
	res, err := s.Update(actions)
	require.NoError(t, err)
	return res
}

func checkConservation(t *testing.T, s *Simulation) {
	t.Helper()
	st := s.Stats()
	assert.Equal(t, st.TotalInitial, st.Rescued+st.Dead+st.Remaining,
		"rescued + dead + remaining must equal total_initial")
}

func TestNewPlacesAndSamples(t *testing.T) {
	s := newCorridor(t)

	assert.Equal(t, 4, s.Stats().TotalInitial)
	assert.Equal(t, 0, s.Stats().Dead)

	r := s.responders[0]
	assert.Equal(t, 0, r.Pos, "responders muster at the lowest-id exit")
	assert.Equal(t, 3, r.Capacity)
	assert.Equal(t, 2, r.ActionsPerTick)

	origin, _ := s.g.VertexByName("firecell")
	assert.True(t, s.g.Vertices[origin].Burned)
	assert.Equal(t, 1.0, s.g.Vertices[origin].FireIntensity)
	checkConservation(t, s)
}

func TestOriginOccupantsAreLostAtIgnition(t *testing.T) {
	cfg := corridorConfig()
	cfg.OccupancyProbabilities.Rooms["firecell"] = config.RoomOccupancy{
		Incapable: []config.CountProb{{Count: 2, P: 1}},
	}
	s, err := New(cfg, Params{NumResponders: 1, FireOrigin: -1, Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, 6, s.Stats().TotalInitial)
	assert.Equal(t, 2, s.Stats().Dead)
	checkConservation(t, s)
}

func TestReadIdempotentAndFogged(t *testing.T) {
	s := newCorridor(t)

	a, b := s.Read(), s.Read()
	assert.True(t, reflect.DeepEqual(a, b), "two reads without an update must be equal")

	// Occupant counts and fire intensity are blanked in the snapshot.
	for i := range a.Graph.Vertices {
		v := a.Graph.Vertices[i]
		assert.Zero(t, v.Capable)
		assert.Zero(t, v.Incapable)
		assert.Zero(t, v.FireIntensity)
	}
	// Only the muster exit has been visited so far.
	assert.Len(t, a.Discovered, 1)
	_, ok := a.Discovered[0]
	assert.True(t, ok)

	// Mutating the snapshot must not leak into the kernel.
	a.Graph.Edges[0].Exists = false
	assert.True(t, s.g.Edges[0].Exists)
}

func TestEmptyUpdateAdvancesPhysicsOnly(t *testing.T) {
	s := newCorridor(t)
	origin, _ := s.g.VertexByName("firecell")
	smokeBefore := s.g.Vertices[origin].SmokeVolume

	res := mustUpdate(t, s, nil)
	assert.Equal(t, 0, res.Tick)
	assert.Equal(t, 0, res.RescuedThisTick)
	assert.Equal(t, 1, s.Tick())
	assert.Greater(t, s.g.Vertices[origin].SmokeVolume, smokeBefore,
		"a burning room keeps generating smoke")
	checkConservation(t, s)
}

func TestMoveRules(t *testing.T) {
	s := newCorridor(t)

	// exit(0) → hall(1) is fine; exit(0) → r1(2) is not adjacent.
	res := mustUpdate(t, s, map[int][]Action{0: {Move(1), Move(0)}})
	require.Len(t, res.ActionResults[0], 2)
	assert.True(t, res.ActionResults[0][0].OK)
	assert.True(t, res.ActionResults[0][1].OK)
	assert.Equal(t, 0, s.responders[0].Pos)

	res = mustUpdate(t, s, map[int][]Action{0: {Move(2)}})
	assert.False(t, res.ActionResults[0][0].OK)
	assert.Contains(t, res.ActionResults[0][0].Reason, "adjacent")

	// A rejected action consumes its point but later actions still run.
	res = mustUpdate(t, s, map[int][]Action{0: {Move(3), Move(1)}})
	require.Len(t, res.ActionResults[0], 2)
	assert.False(t, res.ActionResults[0][0].OK)
	assert.True(t, res.ActionResults[0][1].OK)
	assert.Equal(t, 1, s.responders[0].Pos)

	// Action lists are truncated to the per-tick budget.
	res = mustUpdate(t, s, map[int][]Action{0: {Move(2), Move(1), Move(2)}})
	assert.Len(t, res.ActionResults[0], 2)
}

func TestEdgeFlowBudgetIsShared(t *testing.T) {
	cfg := corridorConfig()
	cfg.Edges[0].MaxFlow = 1
	s, err := New(cfg, Params{NumResponders: 2, FireOrigin: -1, Seed: 7})
	require.NoError(t, err)

	res := mustUpdate(t, s, map[int][]Action{
		0: {Move(1)},
		1: {Move(1)},
	})
	assert.True(t, res.ActionResults[0][0].OK)
	assert.False(t, res.ActionResults[1][0].OK)
	assert.Contains(t, res.ActionResults[1][0].Reason, "flow")
}

func TestPickUpCarryDropOff(t *testing.T) {
	s := newCorridor(t)

	// Walk to r1 (two hops).
	mustUpdate(t, s, map[int][]Action{0: {Move(1), Move(2)}})
	require.Equal(t, 2, s.responders[0].Pos)

	// Pick up more than present fails; the real count succeeds.
	res := mustUpdate(t, s, map[int][]Action{0: {PickUp(2), PickUp(1)}})
	assert.False(t, res.ActionResults[0][0].OK)
	assert.True(t, res.ActionResults[0][1].OK)
	assert.Equal(t, 1, s.responders[0].Carrying)

	// Drop-off away from an exit is rejected.
	res = mustUpdate(t, s, map[int][]Action{0: {DropOff()}})
	assert.False(t, res.ActionResults[0][0].OK)

	// Carry home and deliver.
	mustUpdate(t, s, map[int][]Action{0: {Move(1), Move(0)}})
	res = mustUpdate(t, s, map[int][]Action{0: {DropOff()}})
	assert.True(t, res.ActionResults[0][0].OK)
	assert.Equal(t, 1, res.RescuedThisTick)
	assert.Equal(t, 1, s.Stats().Rescued)
	assert.Equal(t, 0, s.responders[0].Carrying)
	assert.Equal(t, s.tick-1, s.LastRescueTick())
	checkConservation(t, s)
}

func TestCarryCapacityIsSafe(t *testing.T) {
	cfg := corridorConfig()
	cfg.OccupancyProbabilities.Rooms["r1"] = config.RoomOccupancy{
		Incapable: []config.CountProb{{Count: 5, P: 1}},
	}
	s, err := New(cfg, Params{NumResponders: 1, FireOrigin: -1, Seed: 7, CarryCapacity: 3})
	require.NoError(t, err)

	mustUpdate(t, s, map[int][]Action{0: {Move(1), Move(2)}})
	res := mustUpdate(t, s, map[int][]Action{0: {PickUp(3), PickUp(1)}})
	assert.True(t, res.ActionResults[0][0].OK)
	assert.False(t, res.ActionResults[0][1].OK, "pickup past capacity must fail")
	assert.Equal(t, 3, s.responders[0].Carrying)
}

func TestInstructedOccupantsSelfEvacuate(t *testing.T) {
	s := newCorridor(t)

	// Reach r3 (capable occupant) and instruct.
	mustUpdate(t, s, map[int][]Action{0: {Move(1), Move(2)}})
	mustUpdate(t, s, map[int][]Action{0: {Move(3), Move(4)}})
	res := mustUpdate(t, s, map[int][]Action{0: {Instruct()}})
	require.True(t, res.ActionResults[0][0].OK)

	// r3 → r2 → r1 → hall → exit: one hop per tick, four ticks to safety.
	rescued := s.Stats().Rescued
	for i := 0; i < 4; i++ {
		mustUpdate(t, s, nil)
	}
	assert.Equal(t, rescued+1, s.Stats().Rescued)
	checkConservation(t, s)
}

func TestInstructObservesThroughSnapshot(t *testing.T) {
	s := newCorridor(t)
	mustUpdate(t, s, map[int][]Action{0: {Move(1), Move(2)}})

	st := s.Read()
	occ := st.Discovered[2]
	assert.Equal(t, 1, occ.Capable)
	assert.Equal(t, 1, occ.Incapable)

	mustUpdate(t, s, map[int][]Action{0: {Instruct()}})
	occ = s.Read().Discovered[2]
	assert.Equal(t, 0, occ.Capable)
}

func TestForcedEdgeBurnIsSticky(t *testing.T) {
	cfg := corridorConfig()
	// Narrow edge with an extreme burn rate: probability clears 1.0, so the
	// edge burns on the first tick no matter what the stream draws.
	cfg.Edges[3].BaseBurnRate = 1.0
	cfg.Edges[3].WidthM = 0.5
	s, err := New(cfg, Params{NumResponders: 1, FireOrigin: -1, Seed: 7})
	require.NoError(t, err)

	res := mustUpdate(t, s, nil)
	var burned bool
	for _, ev := range res.Events {
		if ev.Type == EventEdgeBurned && ev.Edge == 3 {
			burned = true
		}
	}
	assert.True(t, burned)
	assert.False(t, s.g.Edges[3].Exists)

	// Sticky: many more ticks never resurrect it, and traversal fails.
	for i := 0; i < 5; i++ {
		mustUpdate(t, s, nil)
	}
	assert.False(t, s.g.Edges[3].Exists)

	mustUpdate(t, s, map[int][]Action{0: {Move(1), Move(2)}})
	mustUpdate(t, s, map[int][]Action{0: {Move(3)}})
	res = mustUpdate(t, s, map[int][]Action{0: {Move(4)}})
	assert.False(t, res.ActionResults[0][0].OK)
}

func TestFireSpreadsAndKills(t *testing.T) {
	cfg := corridorConfig()
	// Join the fire cell to r3 with a wide edge so preheating flows.
	cfg.Edges = append(cfg.Edges, config.EdgeConfig{
		ID: "e4", VertexA: "firecell", VertexB: "r3", MaxFlow: 2, WidthM: 2.0,
	})
	s, err := New(cfg, Params{NumResponders: 1, FireOrigin: -1, Seed: 7})
	require.NoError(t, err)

	r3, _ := s.g.VertexByName("r3")
	deadBefore := s.Stats().Dead
	ignited := false
	for i := 0; i < 80 && !ignited; i++ {
		res := mustUpdate(t, s, nil)
		for _, ev := range res.Events {
			if ev.Type == EventVertexIgnited && ev.Vertex == r3 {
				ignited = true
			}
		}
	}
	require.True(t, ignited, "preheating must eventually ignite the neighbor")
	assert.True(t, s.g.Vertices[r3].Burned)
	assert.Equal(t, 1.0, s.g.Vertices[r3].FireIntensity)
	assert.GreaterOrEqual(t, s.Stats().Dead, deadBefore+1,
		"r3's occupant is lost to the fire (or to smoke shortly before)")
	checkConservation(t, s)
}

func TestSmokeDiffusesWithoutEarlyDeaths(t *testing.T) {
	cfg := corridorConfig()
	cfg.Edges = append(cfg.Edges, config.EdgeConfig{
		ID: "e4", VertexA: "firecell", VertexB: "r3", MaxFlow: 2, WidthM: 2.0,
	})
	s, err := New(cfg, Params{NumResponders: 1, FireOrigin: -1, Seed: 7})
	require.NoError(t, err)

	r3, _ := s.g.VertexByName("r3")
	mustUpdate(t, s, nil)
	mustUpdate(t, s, nil)
	assert.Greater(t, s.g.Vertices[r3].SmokeVolume, 0.0,
		"smoke reaches the room next to the fire")

	// Below the 0.3 concentration band nobody rolls for death.
	conc := s.g.Vertices[r3].SmokeVolume / s.g.Vertices[r3].Volume()
	if conc < 0.3 {
		assert.Equal(t, 0, s.Stats().Dead)
	}
}

func TestDeterministicReplay(t *testing.T) {
	script := []map[int][]Action{
		{0: {Move(1), Move(2)}},
		{0: {Instruct(), PickUp(1)}},
		nil,
		{0: {Move(1), Move(0)}},
		{0: {DropOff()}},
		nil,
	}

	run := func() ([]TickResult, Stats) {
		cfg := corridorConfig()
		cfg.Edges[1].BaseBurnRate = 0.05 // genuine stochastic pressure
		s, err := New(cfg, Params{NumResponders: 1, FireOrigin: -1, Seed: 99})
		require.NoError(t, err)
		var results []TickResult
		for _, actions := range script {
			res := mustUpdate(t, s, actions)
			results = append(results, *res)
		}
		return results, s.Stats()
	}

	r1, s1 := run()
	r2, s2 := run()
	assert.True(t, reflect.DeepEqual(r1, r2), "identical seed and trace must replay identically")
	assert.Equal(t, s1, s2)
}

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    Action
		wantErr bool
	}{
		{"move", map[string]any{"type": "move", "target": 3}, Move(3), false},
		{"move float target", map[string]any{"type": "move", "target": 3.0}, Move(3), false},
		{"pick_up", map[string]any{"type": "pick_up", "count": 2}, PickUp(2), false},
		{"drop_off", map[string]any{"type": "drop_off"}, DropOff(), false},
		{"instruct", map[string]any{"type": "instruct"}, Instruct(), false},
		{"unknown field ignored", map[string]any{"type": "instruct", "extra": true}, Instruct(), false},
		{"missing type", map[string]any{"target": 3}, Action{}, true},
		{"bad type", map[string]any{"type": "fly"}, Action{}, true},
		{"move without target", map[string]any{"type": "move"}, Action{}, true},
		{"zero pickup", map[string]any{"type": "pick_up", "count": 0}, Action{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeAction(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStatsTimeMinutes(t *testing.T) {
	s := newCorridor(t)
	for i := 0; i < 120; i++ {
		mustUpdate(t, s, nil)
	}
	assert.InDelta(t, 2.0, s.Stats().TimeMinutes, 1e-9)
}
