// Package pathfind provides shortest-path and distance services over the
// building graph. Every routine observes only edges that exist at call time;
// results are stale as soon as an edge burns out.
package pathfind

import "github.com/jihwankim/evacsim/pkg/graph"

// BFSPath returns the shortest unweighted path from src to dst over existing
// edges, inclusive of both endpoints. ok is false when dst is unreachable.
func BFSPath(g *graph.Graph, src, dst int) (path []int, ok bool) {
	if src == dst {
		return []int{src}, true
	}
	parent := bfsParents(g, src, dst)
	if parent[dst] == -1 && dst != src {
		return nil, false
	}
	// Reconstruct by walking parents back to src.
	for v := dst; v != -1; v = parent[v] {
		path = append(path, v)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path[0] != src {
		return nil, false
	}
	return path, true
}

// BFSDistances returns hop counts from src to every vertex over existing
// edges; unreachable vertices get -1. This is the corridor distance used by
// the sweep partitioner.
func BFSDistances(g *graph.Graph, src int) []int {
	dist := make([]int, g.NumVertices())
	for i := range dist {
		dist[i] = -1
	}
	dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, e := range g.Adjacent(u) {
			if !g.Edges[e].Exists {
				continue
			}
			v := g.Other(e, u)
			if dist[v] == -1 {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return dist
}

// Reachable reports whether dst can be reached from src over existing edges.
func Reachable(g *graph.Graph, src, dst int) bool {
	if src == dst {
		return true
	}
	parent := bfsParents(g, src, dst)
	return parent[dst] != -1
}

// bfsParents runs BFS from src, stopping early once dst is settled. The
// parent of src is -1; so is the parent of every unreached vertex.
func bfsParents(g *graph.Graph, src, dst int) []int {
	parent := make([]int, g.NumVertices())
	seen := make([]bool, g.NumVertices())
	for i := range parent {
		parent[i] = -1
	}
	seen[src] = true
	queue := []int{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if u == dst {
			break
		}
		for _, e := range g.Adjacent(u) {
			if !g.Edges[e].Exists {
				continue
			}
			v := g.Other(e, u)
			if !seen[v] {
				seen[v] = true
				parent[v] = u
				queue = append(queue, v)
			}
		}
	}
	return parent
}

// Exits enumerates the exit-kind vertices in id order.
func Exits(g *graph.Graph) []int {
	var exits []int
	for i := range g.Vertices {
		if g.Vertices[i].Kind.IsExit() {
			exits = append(exits, i)
		}
	}
	return exits
}

// NearestExit returns the exit-kind vertex with the fewest hops from `from`
// over existing edges. ok is false when no exit is reachable, the trapped
// condition.
func NearestExit(g *graph.Graph, from int) (exit int, ok bool) {
	dist := BFSDistances(g, from)
	best, bestDist := -1, -1
	for _, e := range Exits(g) {
		if dist[e] < 0 {
			continue
		}
		if best == -1 || dist[e] < bestDist {
			best, bestDist = e, dist[e]
		}
	}
	return best, best != -1
}
