package sweep

import (
	"sort"

	"github.com/jihwankim/evacsim/pkg/graph"
	"github.com/jihwankim/evacsim/pkg/pathfind"
	"github.com/jihwankim/evacsim/pkg/sim"
)

// DefaultStallWindow is the number of ticks without tour progress after
// which the sweep declares the remaining rooms unreachable and completes.
const DefaultStallWindow = 20

// Coordinator drives the sweep phase tick by tick. It partitions the rooms
// on first use, keeps one tour per responder, and emits movement and
// instruction actions until every room is visited or provably unreachable.
type Coordinator struct {
	Seed        int64
	StallWindow int
	MaxIter     int

	initialized    bool
	tours          []*responderTour
	deferred       []int // rooms with no current corridor path
	lastRemaining  int
	lastProgress   int
	forcedComplete bool
}

type responderTour struct {
	stops  []int
	detour int // exit waypoint while fully loaded; -1 when none
}

// NewCoordinator creates a sweep coordinator with the given tie-break seed.
func NewCoordinator(seed int64, stallWindow int) *Coordinator {
	if stallWindow <= 0 {
		stallWindow = DefaultStallWindow
	}
	return &Coordinator{Seed: seed, StallWindow: stallWindow}
}

// roomsOfInterest are the structural rooms a sweep must cover.
func roomsOfInterest(g *graph.Graph) []int {
	var rooms []int
	for i := range g.Vertices {
		if g.Vertices[i].Kind == graph.KindRoom && !g.Vertices[i].Burned {
			rooms = append(rooms, i)
		}
	}
	return rooms
}

func (c *Coordinator) initialize(state *sim.State) {
	g := state.Graph
	rooms := roomsOfInterest(g)
	starts := make([]int, len(state.Responders))
	for i, r := range state.Responders {
		starts[i] = r.Pos
	}

	// Corridor distance matrix over rooms ∪ starts.
	hops := make(map[int][]int)
	for _, n := range append(append([]int(nil), rooms...), starts...) {
		if _, ok := hops[n]; !ok {
			hops[n] = pathfind.BFSDistances(g, n)
		}
	}
	dist := func(a, b int) int { return hops[a][b] }

	clusters := Partition(dist, rooms, starts, c.Seed, c.MaxIter)

	c.tours = make([]*responderTour, len(state.Responders))
	for i := range state.Responders {
		tour, unreachable := BuildTour(g, clusters[i], starts[i])
		c.tours[i] = &responderTour{stops: tour.Stops, detour: -1}
		c.deferred = append(c.deferred, unreachable...)
	}
	sort.Ints(c.deferred)

	c.lastRemaining = c.remaining()
	c.lastProgress = state.Tick
	c.initialized = true
}

func (c *Coordinator) remaining() int {
	n := 0
	for _, t := range c.tours {
		n += len(t.stops)
	}
	return n
}

// Step emits this tick's sweep actions for every responder.
func (c *Coordinator) Step(state *sim.State) map[int][]sim.Action {
	if !c.initialized {
		c.initialize(state)
	}

	actions := make(map[int][]sim.Action)
	for i, r := range state.Responders {
		if acts := c.stepResponder(state, r, c.tours[i]); len(acts) > 0 {
			actions[r.ID] = acts
		}
	}

	// Stall detection: sweep progress is measured by remaining tour stops.
	if rem := c.remaining(); rem < c.lastRemaining {
		c.lastRemaining = rem
		c.lastProgress = state.Tick
	} else if state.Tick-c.lastProgress >= c.StallWindow {
		c.forcedComplete = true
	}

	return actions
}

func (c *Coordinator) stepResponder(state *sim.State, r sim.ResponderView, t *responderTour) []sim.Action {
	g := state.Graph
	var acts []sim.Action
	budget := r.ActionsPerTick
	pos := r.Pos
	carrying := r.Carrying

	// Pop stops we are standing on.
	for len(t.stops) > 0 && t.stops[0] == pos {
		t.stops = t.stops[1:]
	}
	if t.detour == pos {
		t.detour = -1
	}

	// Deliver when passing an exit while loaded.
	if carrying > 0 && g.Vertices[pos].Kind.IsExit() && budget > 0 {
		acts = append(acts, sim.DropOff())
		carrying = 0
		budget--
	}

	occ, seen := state.Discovered[pos]
	if seen && occ.Capable > 0 && budget > 0 {
		acts = append(acts, sim.Instruct())
		budget--
	}

	// Opportunistic pickup: taken whenever some exit is reachable from here.
	// The remaining route is not checked for an exit; once full, the
	// responder detours to the nearest exit.
	if seen && occ.Incapable > 0 && carrying < r.Capacity && budget > 0 {
		count := r.Capacity - carrying
		if count > occ.Incapable {
			count = occ.Incapable
		}
		if _, reachableExit := pathfind.NearestExit(g, pos); reachableExit {
			acts = append(acts, sim.PickUp(count))
			carrying += count
			budget--
		}
	}
	if carrying >= r.Capacity && t.detour == -1 {
		if exit, ok := pathfind.NearestExit(g, pos); ok {
			t.detour = exit
		}
	}

	// Movement: walk toward the detour exit, the next stop, or a post-tour
	// target. Paths are recomputed against the current snapshot each tick,
	// which also repairs segments lost to burned edges. Tour stops are only
	// popped at the top of a tick, from the responder's actual position, so
	// a move rejected by the kernel never loses a room.
	for budget > 0 {
		target, ok := c.nextTarget(state, pos, t, carrying)
		if !ok {
			break
		}
		if target == pos {
			if t.detour == pos {
				if carrying > 0 {
					acts = append(acts, sim.DropOff())
					carrying = 0
					budget--
				}
				t.detour = -1
				continue
			}
			break
		}
		path, reachable := pathfind.BFSPath(g, pos, target)
		if !reachable || len(path) < 2 {
			// Route lost: defer the room and try the next one.
			if len(t.stops) > 0 && t.stops[0] == target {
				c.deferred = append(c.deferred, target)
				t.stops = t.stops[1:]
				continue
			}
			if t.detour == target {
				t.detour = -1
				continue
			}
			break
		}
		acts = append(acts, sim.Move(path[1]))
		pos = path[1]
		budget--
		if len(t.stops) > 0 && t.stops[0] == pos {
			// Arrived: observe and instruct from here next tick.
			break
		}
	}

	return acts
}

// nextTarget picks where the responder should currently head.
func (c *Coordinator) nextTarget(state *sim.State, pos int, t *responderTour, carrying int) (int, bool) {
	if t.detour >= 0 {
		return t.detour, true
	}
	if len(t.stops) > 0 {
		return t.stops[0], true
	}

	// Tour done: reclaim deferred rooms that became reachable again.
	if room, ok := c.claimDeferred(state.Graph, pos); ok {
		t.stops = append(t.stops, room)
		return room, true
	}

	// Post-tour: visit discovered rooms that still hold uninstructed
	// capable occupants, nearest first.
	if room, ok := nearestUninstructed(state, pos); ok {
		return room, true
	}

	// Nothing left to sweep: deliver whoever we are still carrying.
	if carrying > 0 {
		if exit, ok := pathfind.NearestExit(state.Graph, pos); ok {
			t.detour = exit
			return exit, true
		}
	}
	return 0, false
}

func (c *Coordinator) claimDeferred(g *graph.Graph, pos int) (int, bool) {
	dist := pathfind.BFSDistances(g, pos)
	best, bestDist := -1, 0
	for _, room := range c.deferred {
		if dist[room] < 0 {
			continue
		}
		if best == -1 || dist[room] < bestDist {
			best, bestDist = room, dist[room]
		}
	}
	if best == -1 {
		return 0, false
	}
	out := c.deferred[:0]
	for _, room := range c.deferred {
		if room != best {
			out = append(out, room)
		}
	}
	c.deferred = out
	return best, true
}

func nearestUninstructed(state *sim.State, pos int) (int, bool) {
	dist := pathfind.BFSDistances(state.Graph, pos)
	best, bestDist := -1, 0
	ids := make([]int, 0, len(state.Discovered))
	for id := range state.Discovered {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if state.Discovered[id].Capable == 0 || dist[id] <= 0 {
			continue
		}
		if best == -1 || dist[id] < bestDist {
			best, bestDist = id, dist[id]
		}
	}
	return best, best != -1
}

// Complete reports whether the sweep phase is finished: every assigned room
// visited or provably unreachable and no discovered room left with
// uninstructed capable occupants, or the stall window expired.
func (c *Coordinator) Complete(state *sim.State) bool {
	if !c.initialized {
		return false
	}
	if c.forcedComplete {
		return true
	}
	if c.remaining() > 0 {
		return false
	}
	// Deferred rooms must be unreachable from every responder.
	for _, r := range state.Responders {
		dist := pathfind.BFSDistances(state.Graph, r.Pos)
		for _, room := range c.deferred {
			if dist[room] >= 0 {
				return false
			}
		}
	}
	for _, occ := range state.Discovered {
		if occ.Capable > 0 {
			return false
		}
	}
	return true
}
