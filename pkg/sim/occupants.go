package sim

import "github.com/jihwankim/evacsim/pkg/pathfind"

// occupantMove is one planned hop of a group of instructed occupants.
type occupantMove struct {
	from, to, count int
	exit            bool
}

// propagateInstructed advances instructed capable occupants one hop toward
// the nearest exit along the shortest existing path. Vertices are processed
// in ascending id order over a snapshot of counts so a group never moves
// twice in one tick; edge flow budgets and destination capacity bound each
// hop.
func (s *Simulation) propagateInstructed(flowUsed map[int]int, res *TickResult) {
	var moves []occupantMove
	for id := range s.g.Vertices {
		v := &s.g.Vertices[id]
		if v.Instructed == 0 || v.Burned {
			continue
		}
		if v.Kind.IsExit() {
			// Already safe; resolved as an arrival below.
			moves = append(moves, occupantMove{from: id, to: id, count: v.Instructed, exit: true})
			continue
		}
		exit, ok := pathfind.NearestExit(s.g, id)
		if !ok {
			continue // trapped; they wait for conditions to change
		}
		path, ok := pathfind.BFSPath(s.g, id, exit)
		if !ok || len(path) < 2 {
			continue
		}
		next := path[1]
		e, ok := s.g.EdgeBetween(id, next)
		if !ok || !s.g.Edges[e].Exists {
			continue
		}
		n := v.Instructed
		if budget := s.g.Edges[e].MaxFlow - flowUsed[e]; n > budget {
			n = budget
		}
		dest := &s.g.Vertices[next]
		if !dest.Kind.IsExit() && dest.Capacity > 0 {
			if spare := dest.Capacity - dest.Occupants(); n > spare {
				n = spare
			}
		}
		if n <= 0 {
			continue
		}
		flowUsed[e] += n
		moves = append(moves, occupantMove{from: id, to: next, count: n, exit: dest.Kind.IsExit()})
	}

	for _, m := range moves {
		s.g.Vertices[m.from].Instructed -= m.count
		if m.exit {
			s.rescued += m.count
			s.lastRescueTick = s.tick
			res.Events = append(res.Events, Event{
				Type: EventSelfEvacuated, Vertex: m.to, Edge: -1, Count: m.count,
			})
		} else {
			s.g.Vertices[m.to].Instructed += m.count
		}
	}
}

// rollSmokeDeaths draws one survival roll per occupant in vertices with
// dangerous smoke concentration. Carried occupants move with their responder
// and are not exposed.
func (s *Simulation) rollSmokeDeaths(res *TickResult) {
	for id := range s.g.Vertices {
		v := &s.g.Vertices[id]
		if v.Burned || v.Occupants() == 0 {
			continue
		}
		vol := v.Volume()
		if vol <= 0 {
			continue
		}
		p := smokeDeathProb(v.SmokeVolume / vol)
		if p == 0 {
			continue
		}
		died := 0
		roll := func(group *int) {
			survivors := 0
			for i := 0; i < *group; i++ {
				if s.rng.Float64() < p {
					died++
				} else {
					survivors++
				}
			}
			*group = survivors
		}
		roll(&v.Capable)
		roll(&v.Instructed)
		roll(&v.Incapable)
		if died > 0 {
			s.dead += died
			res.Events = append(res.Events, Event{
				Type: EventSmokeDeath, Vertex: id, Edge: -1, Count: died,
			})
		}
	}
}
