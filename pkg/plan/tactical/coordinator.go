package tactical

import (
	"sort"

	"github.com/jihwankim/evacsim/pkg/pathfind"
	"github.com/jihwankim/evacsim/pkg/plan/rescue"
	"github.com/jihwankim/evacsim/pkg/sim"
)

// Coordinator owns the per-responder ordered queues of execution plans and
// turns the head plan of each queue into this tick's actions.
type Coordinator struct {
	queues  map[int][]*Plan
	trapped map[int]bool
}

// NewCoordinator creates an empty tactical coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		queues:  make(map[int][]*Plan),
		trapped: make(map[int]bool),
	}
}

// Enqueue appends execution plans for the items assigned to a responder.
func (c *Coordinator) Enqueue(responderID int, items []rescue.Item) {
	for _, it := range items {
		c.queues[responderID] = append(c.queues[responderID], NewPlan(it))
	}
}

// QueueDepth returns the number of plans still queued for a responder.
func (c *Coordinator) QueueDepth(responderID int) int {
	return len(c.queues[responderID])
}

// Trapped reports whether the responder has been declared trapped.
func (c *Coordinator) Trapped(responderID int) bool {
	return c.trapped[responderID]
}

// Idle reports whether every queue has drained.
func (c *Coordinator) Idle() bool {
	for id, q := range c.queues {
		if len(q) > 0 && !c.trapped[id] {
			return false
		}
	}
	return true
}

// Step emits this tick's actions for every responder with queued work.
// A failed action is never retried blindly: the next tick re-reads the
// snapshot and either advances, stalls, or waits for a replan.
func (c *Coordinator) Step(state *sim.State) map[int][]sim.Action {
	actions := make(map[int][]sim.Action)
	for _, r := range state.Responders {
		if c.trapped[r.ID] {
			continue
		}
		if acts := c.stepResponder(state, r); len(acts) > 0 {
			actions[r.ID] = acts
		}
	}
	return actions
}

func (c *Coordinator) stepResponder(state *sim.State, r sim.ResponderView) []sim.Action {
	g := state.Graph
	var acts []sim.Action
	budget := r.ActionsPerTick
	pos := r.Pos
	carrying := r.Carrying

	for budget > 0 {
		plan := c.currentPlan(r.ID)
		if plan == nil {
			// Queue drained; make sure nobody stays in our arms.
			if carrying > 0 {
				if g.Vertices[pos].Kind.IsExit() {
					acts = append(acts, sim.DropOff())
					carrying = 0
					budget--
					continue
				}
				if exit, ok := pathfind.NearestExit(g, pos); ok {
					if path, found := pathfind.BFSPath(g, pos, exit); found && len(path) > 1 {
						acts = append(acts, sim.Move(path[1]))
						pos = path[1]
						budget--
						continue
					}
				}
			}
			break
		}

		// Transit: walk to the plan's entry exit before path-following.
		if !plan.Started {
			if pos == plan.Path[0] {
				plan.Started = true
			} else {
				path, found := pathfind.BFSPath(g, pos, plan.Path[0])
				if !found || len(path) < 2 {
					break // cut off; the replan hook resolves this
				}
				acts = append(acts, sim.Move(path[1]))
				pos = path[1]
				budget--
				continue
			}
		}

		c.syncIndex(plan, pos)

		// Pickup at a visit-sequence room with pending occupants.
		if pending := plan.Pending(pos); pending > 0 {
			count := pending
			if spare := r.Capacity - carrying; count > spare {
				count = spare
			}
			if count > 0 {
				acts = append(acts, sim.PickUp(count))
				plan.PickedUp[pos] += count
				carrying += count
				budget--
				continue
			}
		}

		// Drop-off at the plan's exit.
		if pos == plan.DropExit && plan.Index == len(plan.Path)-1 {
			if carrying > 0 {
				acts = append(acts, sim.DropOff())
				carrying = 0
				budget--
			}
			if plan.PendingTotal() == 0 || carrying == 0 {
				plan.Completed = true
			}
			continue
		}

		// Advance along the path.
		if plan.Index+1 >= len(plan.Path) {
			plan.Completed = true
			continue
		}
		next := plan.Path[plan.Index+1]
		if !g.ExistsBetween(pos, next) {
			// Plan invalidated; wait for the model's replan pass.
			break
		}
		acts = append(acts, sim.Move(next))
		plan.Index++
		pos = next
		budget--
	}

	return acts
}

// currentPlan pops completed plans and returns the head of the queue.
func (c *Coordinator) currentPlan(responderID int) *Plan {
	q := c.queues[responderID]
	for len(q) > 0 && q[0].Completed {
		q = q[1:]
	}
	c.queues[responderID] = q
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

// syncIndex reconciles the believed path index with the responder's actual
// position; optimistic moves that failed last tick rewind here.
func (c *Coordinator) syncIndex(plan *Plan, pos int) {
	if plan.Index < len(plan.Path) && plan.Path[plan.Index] == pos {
		return
	}
	for i := plan.Index; i >= 0; i-- {
		if plan.Path[i] == pos {
			plan.Index = i
			return
		}
	}
	for i := plan.Index + 1; i < len(plan.Path); i++ {
		if plan.Path[i] == pos {
			plan.Index = i
			return
		}
	}
	// Off-path entirely: splice the current position in front of the
	// remaining route; the existence check on the next hop arbitrates.
	plan.Path = append([]int{pos}, plan.Path[plan.Index:]...)
	plan.Index = 0
}

// ReplanResult aggregates what a graph change cost us.
type ReplanResult struct {
	// Affected is the union of pending pickups in rooms no longer reachable
	// by their assigned responder, pending pickups of queued plans whose
	// paths lost an edge, and everything drained from trapped responders'
	// queues.
	Affected map[int]int

	// NewlyTrapped lists responders declared trapped during this pass.
	NewlyTrapped []int
}

// Replan reacts to burned edges: every responder's current plan is truncated
// to its still-reachable pickups with the nearest reachable exit as the new
// drop-off; responders with no reachable exit are trapped and their whole
// queue is drained into the affected vector.
func (c *Coordinator) Replan(state *sim.State) ReplanResult {
	g := state.Graph
	res := ReplanResult{Affected: make(map[int]int)}

	for _, r := range state.Responders {
		if c.trapped[r.ID] {
			continue
		}
		q := c.queues[r.ID]
		if len(q) == 0 {
			continue
		}

		fallback, hasExit := pathfind.NearestExit(g, r.Pos)
		if !hasExit {
			c.trapped[r.ID] = true
			res.NewlyTrapped = append(res.NewlyTrapped, r.ID)
			for _, plan := range q {
				if plan.Completed {
					continue
				}
				for room, n := range plan.pendingVector(nil) {
					res.Affected[room] += n
				}
			}
			c.queues[r.ID] = nil
			continue
		}

		// Current plan: partition its pending rooms by reachability.
		plan := c.currentPlan(r.ID)
		if plan != nil {
			var reachable, unreachable []int
			for _, room := range sortedPendingRooms(plan) {
				if pathfind.Reachable(g, r.Pos, room) {
					reachable = append(reachable, room)
				} else {
					unreachable = append(unreachable, room)
				}
			}
			if len(unreachable) > 0 || !plan.pathIntact(g) {
				for room, n := range plan.TruncateToUnaltered(r.Pos, reachable, unreachable, fallback, g) {
					res.Affected[room] += n
				}
			}
		}

		// Queued plans that lost their path are dropped wholesale; their
		// pickups go back to the optimizer.
		kept := c.queues[r.ID][:0]
		for i, p := range c.queues[r.ID] {
			if i == 0 || p.Completed {
				kept = append(kept, p)
				continue
			}
			if p.pathIntact(g) {
				kept = append(kept, p)
				continue
			}
			for room, n := range p.pendingVector(nil) {
				res.Affected[room] += n
			}
		}
		c.queues[r.ID] = kept
	}

	return res
}

func sortedPendingRooms(p *Plan) []int {
	var rooms []int
	for room := range p.Item.Vector {
		if p.Pending(room) > 0 {
			rooms = append(rooms, room)
		}
	}
	sort.Ints(rooms)
	return rooms
}
