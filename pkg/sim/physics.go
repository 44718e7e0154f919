package sim

import "math"

// originDistance is the 3-D Euclidean distance from the midpoint of edge e
// to the fire origin; vertical separation counts floorHeight metres per
// floor.
func (s *Simulation) originDistance(e int) float64 {
	edge := &s.g.Edges[e]
	a, b := &s.g.Vertices[edge.A], &s.g.Vertices[edge.B]
	o := &s.g.Vertices[s.fireOrigin]
	mx := (a.X + b.X) / 2
	my := (a.Y + b.Y) / 2
	mz := (float64(a.Floor+b.Floor)/2 - float64(o.Floor)) * s.floorHeight
	dx, dy := mx-o.X, my-o.Y
	return math.Sqrt(dx*dx + dy*dy + mz*mz)
}

// burnEdges independently clears each existing edge with its per-tick
// burn-out probability. Edges are drawn in id order so the stream position
// is identical across runs.
func (s *Simulation) burnEdges(res *TickResult) {
	t := float64(s.tick)
	for e := range s.g.Edges {
		edge := &s.g.Edges[e]
		if !edge.Exists || edge.BaseBurnRate <= 0 {
			continue
		}
		d := s.originDistance(e)
		p := edge.BaseBurnRate *
			(1 + t/100) *
			(1 / (1 + d/10)) *
			(2.0 / math.Max(0.5, edge.WidthM)) *
			tickSeconds
		if s.rng.Float64() < p {
			edge.Exists = false
			res.Events = append(res.Events, Event{
				Type: EventEdgeBurned, Vertex: -1, Edge: e, Count: 0,
			})
		}
	}
}

// spreadFire applies neighbor preheating over a snapshot of intensities,
// then ignites vertices that crossed the threshold. A burned vertex pins its
// intensity at 1.0 and kills everyone inside.
func (s *Simulation) spreadFire(res *TickResult) {
	deltas := make([]float64, s.g.NumVertices())
	for id := range s.g.Vertices {
		v := &s.g.Vertices[id]
		if v.Burned {
			continue
		}
		var sum float64
		for _, e := range s.g.Adjacent(id) {
			edge := &s.g.Edges[e]
			if !edge.Exists {
				continue
			}
			n := &s.g.Vertices[s.g.Other(e, id)]
			if n.FireIntensity == 0 {
				continue
			}
			widthFactor := math.Min(edge.WidthM, 2.0) / 2.0
			distFactor := 1 / (1 + edge.UnitLength)
			vertical := 1.0
			if n.Floor != v.Floor {
				vertical = crossFloorPreheat
			}
			sum += n.FireIntensity * preheatCoeff * widthFactor * distFactor * vertical
		}
		deltas[id] = sum * tickSeconds
	}

	for id := range s.g.Vertices {
		v := &s.g.Vertices[id]
		if v.Burned || deltas[id] == 0 {
			continue
		}
		v.FireIntensity += deltas[id]
		if v.FireIntensity >= ignitionThreshold {
			v.FireIntensity = 1.0
			v.Burned = true
			res.Events = append(res.Events, Event{
				Type: EventVertexIgnited, Vertex: id, Edge: -1, Count: 0,
			})
			if n := v.Occupants(); n > 0 {
				s.dead += n
				v.Capable, v.Instructed, v.Incapable = 0, 0, 0
				res.Events = append(res.Events, Event{
					Type: EventFireDeath, Vertex: id, Edge: -1, Count: n,
				})
			}
		}
	}
}

// diffuseSmoke generates smoke in burning and origin-adjacent vertices, then
// exchanges it across existing edges proportional to the concentration
// differential. Edges are processed in id order; each exchange settles
// immediately, which keeps the pass deterministic and mass-conserving.
func (s *Simulation) diffuseSmoke() {
	// Generation.
	for id := range s.g.Vertices {
		v := &s.g.Vertices[id]
		generate := v.Burned
		if !generate {
			for _, e := range s.g.Adjacent(id) {
				if s.g.Edges[e].Exists && s.g.Other(e, id) == s.fireOrigin {
					generate = true
					break
				}
			}
		}
		if !generate || v.FireIntensity == 0 && !v.Burned {
			continue
		}
		intensity := v.FireIntensity
		if v.Burned {
			intensity = 1.0
		}
		v.SmokeVolume += intensity * smokeGenRate * tickSeconds
		if cap := v.Volume(); v.SmokeVolume > cap {
			v.SmokeVolume = cap
		}
	}

	// Diffusion.
	for e := range s.g.Edges {
		edge := &s.g.Edges[e]
		if !edge.Exists {
			continue
		}
		a, b := &s.g.Vertices[edge.A], &s.g.Vertices[edge.B]
		volA, volB := a.Volume(), b.Volume()
		if volA <= 0 || volB <= 0 {
			continue
		}
		cA, cB := a.SmokeVolume/volA, b.SmokeVolume/volB
		if cA == cB {
			continue
		}
		src, dst := a, b
		if cB > cA {
			src, dst = b, a
		}
		vertical := 1.0
		if dst.Floor > src.Floor {
			vertical = smokeUpFactor
		} else if dst.Floor < src.Floor {
			vertical = smokeDownFactor
		}
		q := smokeDiffusionRate * math.Abs(cA-cB) * math.Min(volA, volB) * vertical * tickSeconds
		if q > src.SmokeVolume {
			q = src.SmokeVolume
		}
		if room := dst.Volume() - dst.SmokeVolume; q > room {
			q = room
		}
		src.SmokeVolume -= q
		dst.SmokeVolume += q
	}
}
