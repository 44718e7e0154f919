package sim

import "fmt"

// executeActions runs each responder's action list in ascending responder id
// order. Every attempted action consumes its point; a rejected action is
// recorded and the remaining actions of the same responder are still tried,
// so the caller can observe exactly where a plan diverged from reality.
func (s *Simulation) executeActions(actions map[int][]Action, flowUsed map[int]int, res *TickResult) {
	for _, id := range responderOrder(actions) {
		if id < 0 || id >= len(s.responders) {
			res.ActionResults[id] = []ActionResult{{
				Action: Action{},
				Reason: fmt.Sprintf("unknown responder %d", id),
			}}
			continue
		}
		r := &s.responders[id]
		list := actions[id]
		if len(list) > r.ActionsPerTick {
			list = list[:r.ActionsPerTick]
		}
		results := make([]ActionResult, 0, len(list))
		for _, a := range list {
			results = append(results, s.executeAction(r, a, flowUsed, res))
			s.observe(r)
		}
		res.ActionResults[id] = results
	}
}

func (s *Simulation) executeAction(r *Responder, a Action, flowUsed map[int]int, res *TickResult) ActionResult {
	switch a.Type {
	case ActionMove:
		return s.execMove(r, a, flowUsed)
	case ActionPickUp:
		return s.execPickUp(r, a)
	case ActionDropOff:
		return s.execDropOff(r, a, res)
	case ActionInstruct:
		return s.execInstruct(r, a)
	default:
		return ActionResult{Action: a, Reason: "unknown action type"}
	}
}

func (s *Simulation) execMove(r *Responder, a Action, flowUsed map[int]int) ActionResult {
	if a.Target < 0 || a.Target >= s.g.NumVertices() {
		return ActionResult{Action: a, Reason: "target out of range"}
	}
	e, ok := s.g.EdgeBetween(r.Pos, a.Target)
	if !ok {
		return ActionResult{Action: a, Reason: "target not adjacent"}
	}
	edge := &s.g.Edges[e]
	if !edge.Exists {
		return ActionResult{Action: a, Reason: "edge burned out"}
	}
	if flowUsed[e] >= edge.MaxFlow {
		return ActionResult{Action: a, Reason: "edge flow exhausted"}
	}
	flowUsed[e]++
	r.Pos = a.Target
	return ActionResult{Action: a, OK: true}
}

func (s *Simulation) execPickUp(r *Responder, a Action) ActionResult {
	v := &s.g.Vertices[r.Pos]
	if a.Count <= 0 {
		return ActionResult{Action: a, Reason: "count must be positive"}
	}
	if v.Incapable < a.Count {
		return ActionResult{Action: a, Reason: fmt.Sprintf("only %d incapable present", v.Incapable)}
	}
	if r.Carrying+a.Count > r.Capacity {
		return ActionResult{Action: a, Reason: "exceeds carry capacity"}
	}
	v.Incapable -= a.Count
	r.Carrying += a.Count
	return ActionResult{Action: a, OK: true}
}

func (s *Simulation) execDropOff(r *Responder, a Action, res *TickResult) ActionResult {
	v := &s.g.Vertices[r.Pos]
	if !v.Kind.IsExit() {
		return ActionResult{Action: a, Reason: "not at an exit"}
	}
	if r.Carrying > 0 {
		s.rescued += r.Carrying
		s.lastRescueTick = s.tick
		res.Events = append(res.Events, Event{
			Type: EventDropOff, Vertex: r.Pos, Edge: -1, Count: r.Carrying,
		})
		r.Carrying = 0
	}
	return ActionResult{Action: a, OK: true}
}

func (s *Simulation) execInstruct(r *Responder, a Action) ActionResult {
	v := &s.g.Vertices[r.Pos]
	v.Instructed += v.Capable
	v.Capable = 0
	return ActionResult{Action: a, OK: true}
}
