package sim

import (
	"sort"

	"github.com/jihwankim/evacsim/pkg/graph"
)

// Occupancy is the last observed head count of a visited vertex.
type Occupancy struct {
	Capable    int `json:"capable"`
	Instructed int `json:"instructed"`
	Incapable  int `json:"incapable"`
}

// ResponderView is the observable state of one responder.
type ResponderView struct {
	ID             int   `json:"id"`
	Pos            int   `json:"pos"`
	Carrying       int   `json:"carrying"`
	Capacity       int   `json:"capacity"`
	ActionsPerTick int   `json:"actions_per_tick"`
	Visited        []int `json:"visited"` // sorted vertex ids
}

// State is the fog-of-war snapshot handed to planners. The embedded graph is
// a deep copy with all occupant counts and fire intensities blanked; only
// topology, edge existence, smoke levels and burned flags are observable.
// Occupant knowledge is limited to Discovered, keyed by visited vertex ids.
type State struct {
	Tick         int
	Graph        *graph.Graph
	Responders   []ResponderView
	Discovered   map[int]Occupancy
	FireOrigin   int
	Rescued      int
	Dead         int
	TotalInitial int
}

// Remaining is the count of occupants not yet rescued and not dead,
// including those currently carried by responders.
func (s *State) Remaining() int {
	return s.TotalInitial - s.Rescued - s.Dead
}

// Read returns the observable state. Calling Read twice without an
// intervening Update yields equal snapshots.
func (s *Simulation) Read() *State {
	g := s.g.Clone()
	for i := range g.Vertices {
		v := &g.Vertices[i]
		v.Capable, v.Instructed, v.Incapable = 0, 0, 0
		v.FireIntensity = 0
	}

	responders := make([]ResponderView, len(s.responders))
	for i, r := range s.responders {
		visited := make([]int, 0, len(r.Visited))
		for v := range r.Visited {
			visited = append(visited, v)
		}
		sort.Ints(visited)
		responders[i] = ResponderView{
			ID:             r.ID,
			Pos:            r.Pos,
			Carrying:       r.Carrying,
			Capacity:       r.Capacity,
			ActionsPerTick: r.ActionsPerTick,
			Visited:        visited,
		}
	}

	discovered := make(map[int]Occupancy, len(s.discovered))
	for k, v := range s.discovered {
		discovered[k] = v
	}

	return &State{
		Tick:         s.tick,
		Graph:        g,
		Responders:   responders,
		Discovered:   discovered,
		FireOrigin:   s.fireOrigin,
		Rescued:      s.rescued,
		Dead:         s.dead,
		TotalInitial: s.totalInitial,
	}
}

// Stats is the run-level summary.
type Stats struct {
	Tick         int     `json:"tick"`
	Rescued      int     `json:"rescued"`
	Dead         int     `json:"dead"`
	Remaining    int     `json:"remaining"`
	TotalInitial int     `json:"total_initial"`
	TimeMinutes  float64 `json:"time_minutes"`
}

// Stats returns the current run summary.
func (s *Simulation) Stats() Stats {
	return Stats{
		Tick:         s.tick,
		Rescued:      s.rescued,
		Dead:         s.dead,
		Remaining:    s.totalInitial - s.rescued - s.dead,
		TotalInitial: s.totalInitial,
		TimeMinutes:  float64(s.tick) * tickSeconds / 60.0,
	}
}

// LastRescueTick reports the tick of the most recent rescue, or -1.
func (s *Simulation) LastRescueTick() int { return s.lastRescueTick }
