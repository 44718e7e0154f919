// Package tactical executes assigned rescue items tick by tick: it owns the
// per-responder item queues, walks each item's concrete path, and rewrites
// plans when burned edges cut rooms or exits off.
package tactical

import (
	"github.com/jihwankim/evacsim/pkg/graph"
	"github.com/jihwankim/evacsim/pkg/pathfind"
	"github.com/jihwankim/evacsim/pkg/plan/rescue"
)

// Plan is the mutable execution wrapper around one immutable rescue item.
type Plan struct {
	Item     rescue.Item
	PickedUp map[int]int
	Path     []int // mutable copy; truncation rewrites it
	DropExit int
	Index    int // believed position in Path
	Started  bool
	Completed bool
}

// NewPlan wraps an item for execution.
func NewPlan(item rescue.Item) *Plan {
	return &Plan{
		Item:     item,
		PickedUp: make(map[int]int, len(item.Vector)),
		Path:     append([]int(nil), item.FullPath...),
		DropExit: item.DropExit,
	}
}

// Pending returns how many pickups remain in room.
func (p *Plan) Pending(room int) int {
	return p.Item.Vector[room] - p.PickedUp[room]
}

// PendingTotal sums the outstanding pickups across all rooms.
func (p *Plan) PendingTotal() int {
	n := 0
	for room := range p.Item.Vector {
		n += p.Pending(room)
	}
	return n
}

// pendingVector collects the outstanding pickups restricted to rooms,
// or to every room when rooms is nil.
func (p *Plan) pendingVector(rooms []int) map[int]int {
	out := make(map[int]int)
	add := func(room int) {
		if n := p.Pending(room); n > 0 {
			out[room] += n
		}
	}
	if rooms == nil {
		for room := range p.Item.Vector {
			add(room)
		}
	} else {
		for _, room := range rooms {
			add(room)
		}
	}
	return out
}

// TruncateToUnaltered rewrites the plan to visit only the still-reachable
// pending rooms from pos, then head to fallbackExit. It returns the affected
// vector: pending pickups in rooms that are no longer reachable.
func (p *Plan) TruncateToUnaltered(pos int, reachable, unreachable []int, fallbackExit int, g *graph.Graph) map[int]int {
	affected := p.pendingVector(unreachable)

	// Keep the original visit order, restricted to reachable pending rooms.
	keep := make(map[int]bool, len(reachable))
	for _, r := range reachable {
		keep[r] = true
	}
	var seq []int
	for _, room := range p.Item.VisitSeq {
		if keep[room] && p.Pending(room) > 0 {
			seq = append(seq, room)
		}
	}

	path := []int{pos}
	prev := pos
	ok := true
	for _, stop := range append(seq, fallbackExit) {
		seg, found := pathfind.BFSPath(g, prev, stop)
		if !found {
			ok = false
			break
		}
		path = append(path, seg[1:]...)
		prev = stop
	}
	if !ok {
		// A room flagged reachable just burned off: give everything up and
		// walk straight to the fallback exit.
		for room, n := range p.pendingVector(seq) {
			affected[room] += n
		}
		seq = nil
		path = []int{pos}
		if seg, found := pathfind.BFSPath(g, pos, fallbackExit); found {
			path = seg
		}
	}

	p.Path = path
	p.Index = 0
	p.Started = true
	p.DropExit = fallbackExit
	// Drop the pickups we gave up on so they are not attempted again.
	for room := range affected {
		p.PickedUp[room] = p.Item.Vector[room]
	}
	return affected
}

// pathIntact reports whether every remaining hop of the plan still exists.
func (p *Plan) pathIntact(g *graph.Graph) bool {
	for i := p.Index; i+1 < len(p.Path); i++ {
		if !g.ExistsBetween(p.Path[i], p.Path[i+1]) {
			return false
		}
	}
	return true
}
