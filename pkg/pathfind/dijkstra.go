package pathfind

import (
	"container/heap"
	"math"

	"github.com/jihwankim/evacsim/pkg/graph"
)

// ShortestTree is the result of a single-source Dijkstra run: metric
// distances (edge unit lengths) and a parent map for path reconstruction.
type ShortestTree struct {
	Source int
	Dist   []float64 // +Inf where unreachable; Dist[Source] == 0
	Parent []int     // -1 at the source and at unreachable vertices
}

// Dijkstra computes shortest metric paths from src over existing edges.
// Each existing edge contributes its unit length (default 1 m; staircase
// edges their configured run).
func Dijkstra(g *graph.Graph, src int) *ShortestTree {
	n := g.NumVertices()
	t := &ShortestTree{
		Source: src,
		Dist:   make([]float64, n),
		Parent: make([]int, n),
	}
	for i := 0; i < n; i++ {
		t.Dist[i] = math.Inf(1)
		t.Parent[i] = -1
	}
	t.Dist[src] = 0

	pq := &nodePQ{{id: src, dist: 0}}
	heap.Init(pq)
	settled := make([]bool, n)

	for pq.Len() > 0 {
		u := heap.Pop(pq).(nodeItem)
		if settled[u.id] {
			continue
		}
		settled[u.id] = true
		for _, e := range g.Adjacent(u.id) {
			edge := &g.Edges[e]
			if !edge.Exists {
				continue
			}
			v := g.Other(e, u.id)
			if settled[v] {
				continue
			}
			nd := t.Dist[u.id] + edge.UnitLength
			if nd < t.Dist[v] {
				t.Dist[v] = nd
				t.Parent[v] = u.id
				heap.Push(pq, nodeItem{id: v, dist: nd})
			}
		}
	}
	return t
}

// PathTo reconstructs the vertex sequence from the tree source to dst,
// inclusive. ok is false when dst is unreachable.
func (t *ShortestTree) PathTo(dst int) (path []int, ok bool) {
	if math.IsInf(t.Dist[dst], 1) {
		return nil, false
	}
	for v := dst; v != -1; v = t.Parent[v] {
		path = append(path, v)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// nodeItem is a priority-queue entry for Dijkstra.
type nodeItem struct {
	id   int
	dist float64
}

// nodePQ implements heap.Interface over nodeItems.
type nodePQ []nodeItem

func (pq nodePQ) Len() int           { return len(pq) }
func (pq nodePQ) Less(i, j int) bool { return pq[i].dist < pq[j].dist }
func (pq nodePQ) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x any)        { *pq = append(*pq, x.(nodeItem)) }
func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	*pq = old[:n-1]
	return it
}
