// Package graph holds the spatial building graph shared by the simulation
// kernel and the planners. Vertices and edges live in flat tables keyed by
// dense integer ids; adjacency is a per-vertex list of edge ids. The graph is
// owned by the simulation kernel; planners work on snapshot copies and must
// never mutate kernel state.
package graph

import (
	"fmt"

	"github.com/jihwankim/evacsim/pkg/config"
)

// VertexKind classifies a vertex in the building graph.
type VertexKind int

const (
	KindRoom VertexKind = iota
	KindHallway
	KindIntersection
	KindStairwell
	KindExit
	KindWindowExit
)

func (k VertexKind) String() string {
	switch k {
	case KindRoom:
		return "room"
	case KindHallway:
		return "hallway"
	case KindIntersection:
		return "intersection"
	case KindStairwell:
		return "stairwell"
	case KindExit:
		return "exit"
	case KindWindowExit:
		return "window_exit"
	default:
		return "unknown"
	}
}

// IsExit reports whether the kind counts as a drop-off point.
func (k VertexKind) IsExit() bool {
	return k == KindExit || k == KindWindowExit
}

// ParseVertexKind maps a config kind string to a VertexKind.
func ParseVertexKind(s string) (VertexKind, error) {
	switch s {
	case "room":
		return KindRoom, nil
	case "hallway":
		return KindHallway, nil
	case "intersection":
		return KindIntersection, nil
	case "stairwell":
		return KindStairwell, nil
	case "exit":
		return KindExit, nil
	case "window_exit":
		return KindWindowExit, nil
	default:
		return 0, fmt.Errorf("unknown vertex kind %q", s)
	}
}

// Vertex is one node of the building graph. Identity fields are immutable
// after construction; the occupant/fire/smoke fields are runtime state owned
// by the simulation kernel.
type Vertex struct {
	ID       int
	Name     string // config id, kept for reporting
	Kind     VertexKind
	Floor    int
	X, Y     float64
	AreaM2   float64
	CeilingM float64
	Capacity int
	Priority float64
	RoomType string

	// Runtime state.
	Capable       int  // un-instructed capable occupants
	Instructed    int  // instructed capable occupants in transit
	Incapable     int  // occupants who must be carried
	SmokeVolume   float64
	FireIntensity float64
	Burned        bool // sticky
}

// Volume is the free-air volume of the vertex in m³.
func (v *Vertex) Volume() float64 {
	return v.AreaM2 * v.CeilingM
}

// Occupants is the total head count currently in the vertex.
func (v *Vertex) Occupants() int {
	return v.Capable + v.Instructed + v.Incapable
}

// Edge is an undirected connection between two vertices. Exists is sticky
// false: once an edge burns out it never reappears.
type Edge struct {
	ID           int
	A, B         int
	MaxFlow      int
	WidthM       float64
	BaseBurnRate float64
	UnitLength   float64

	Exists bool
}

// Graph is the arena of vertices and edges plus adjacency.
type Graph struct {
	Vertices []Vertex
	Edges    []Edge

	adjacency [][]int     // vertex id -> incident edge ids
	byName    map[string]int
}

// NumVertices returns the vertex count.
func (g *Graph) NumVertices() int { return len(g.Vertices) }

// NumEdges returns the edge count, existing or not.
func (g *Graph) NumEdges() int { return len(g.Edges) }

// Adjacent returns the incident edge ids of v. The returned slice is shared;
// callers must not modify it.
func (g *Graph) Adjacent(v int) []int { return g.adjacency[v] }

// Other returns the endpoint of edge e opposite to v.
func (g *Graph) Other(e, v int) int {
	if g.Edges[e].A == v {
		return g.Edges[e].B
	}
	return g.Edges[e].A
}

// EdgeBetween returns the id of the edge joining a and b, existing or not.
func (g *Graph) EdgeBetween(a, b int) (int, bool) {
	for _, e := range g.adjacency[a] {
		if g.Other(e, a) == b {
			return e, true
		}
	}
	return 0, false
}

// ExistsBetween reports whether a traversable edge joins a and b.
func (g *Graph) ExistsBetween(a, b int) bool {
	e, ok := g.EdgeBetween(a, b)
	return ok && g.Edges[e].Exists
}

// VertexByName resolves a config id to a dense vertex id.
func (g *Graph) VertexByName(name string) (int, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// Clone returns a deep copy of the graph. Snapshots handed to planners are
// clones so planner-side mutation cannot leak into the kernel.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Vertices:  append([]Vertex(nil), g.Vertices...),
		Edges:     append([]Edge(nil), g.Edges...),
		adjacency: g.adjacency, // adjacency is immutable after construction
		byName:    g.byName,
	}
	return c
}

// FromConfig builds the graph arena from a validated building config.
// Structural problems (dangling endpoints, missing exits, bad capacities) are
// fatal here per the config-error contract.
func FromConfig(cfg *config.BuildingConfig) (*Graph, error) {
	g := &Graph{
		Vertices:  make([]Vertex, 0, len(cfg.Vertices)),
		Edges:     make([]Edge, 0, len(cfg.Edges)),
		adjacency: make([][]int, len(cfg.Vertices)),
		byName:    make(map[string]int, len(cfg.Vertices)),
	}

	hasExit := false
	for i, vc := range cfg.Vertices {
		kind, err := ParseVertexKind(vc.Kind)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", vc.ID, err)
		}
		if _, dup := g.byName[vc.ID]; dup {
			return nil, fmt.Errorf("duplicate vertex id %q", vc.ID)
		}
		if vc.Capacity < 0 {
			return nil, fmt.Errorf("vertex %q: negative capacity %d", vc.ID, vc.Capacity)
		}
		area := vc.AreaM2
		if area <= 0 {
			area = config.DefaultAreaM2
		}
		ceiling := vc.CeilingHeightM
		if ceiling <= 0 {
			ceiling = config.DefaultCeilingM
		}
		g.byName[vc.ID] = i
		g.Vertices = append(g.Vertices, Vertex{
			ID:       i,
			Name:     vc.ID,
			Kind:     kind,
			Floor:    vc.Floor,
			X:        vc.VisualPosition.X,
			Y:        vc.VisualPosition.Y,
			AreaM2:   area,
			CeilingM: ceiling,
			Capacity: vc.Capacity,
			Priority: vc.Priority,
			RoomType: vc.RoomType,
		})
		if kind.IsExit() {
			hasExit = true
		}
	}
	if !hasExit {
		return nil, fmt.Errorf("building has no exit-kind vertex")
	}

	for _, ec := range cfg.Edges {
		a, ok := g.byName[ec.VertexA]
		if !ok {
			return nil, fmt.Errorf("edge %q: unknown endpoint %q", ec.ID, ec.VertexA)
		}
		b, ok := g.byName[ec.VertexB]
		if !ok {
			return nil, fmt.Errorf("edge %q: unknown endpoint %q", ec.ID, ec.VertexB)
		}
		if a == b {
			return nil, fmt.Errorf("edge %q: self-loop on %q", ec.ID, ec.VertexA)
		}
		if ec.MaxFlow <= 0 {
			return nil, fmt.Errorf("edge %q: max_flow must be positive", ec.ID)
		}
		length := ec.UnitLength
		if length <= 0 {
			length = config.DefaultEdgeLengthM
		}
		width := ec.WidthM
		if width <= 0 {
			width = config.DefaultEdgeWidthM
		}
		id := len(g.Edges)
		g.Edges = append(g.Edges, Edge{
			ID:           id,
			A:            a,
			B:            b,
			MaxFlow:      ec.MaxFlow,
			WidthM:       width,
			BaseBurnRate: ec.BaseBurnRate,
			UnitLength:   length,
			Exists:       true,
		})
		g.adjacency[a] = append(g.adjacency[a], id)
		g.adjacency[b] = append(g.adjacency[b], id)
	}

	return g, nil
}
