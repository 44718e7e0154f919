package sweep

import (
	"sort"

	"github.com/jihwankim/evacsim/pkg/graph"
	"github.com/jihwankim/evacsim/pkg/pathfind"
)

// Tour is one responder's sweep route: the rooms in visit order plus the
// concrete vertex path walking them, starting at the responder's position.
// The walk follows a DFS traversal of the cluster's minimum spanning tree,
// so its length is bounded by twice the MST weight.
type Tour struct {
	Stops []int // rooms in visit order
	Path  []int // concrete vertex sequence, Path[0] == start
}

// BuildTour plans a route visiting every reachable room of the cluster from
// start. Rooms with no corridor path are returned separately so the caller
// can defer them.
func BuildTour(g *graph.Graph, cluster []int, start int) (Tour, []int) {
	nodes := append([]int{start}, cluster...)

	// Corridor distances between all tour nodes.
	hops := make(map[int][]int, len(nodes))
	for _, n := range nodes {
		hops[n] = pathfind.BFSDistances(g, n)
	}

	var unreachable []int
	reachable := nodes[:1]
	for _, room := range cluster {
		if hops[start][room] < 0 {
			unreachable = append(unreachable, room)
		} else {
			reachable = append(reachable, room)
		}
	}
	if len(reachable) == 1 {
		return Tour{Path: []int{start}}, unreachable
	}

	order := mstPreorder(reachable, func(a, b int) int { return hops[a][b] })

	// Concatenate concrete shortest paths between consecutive stops.
	path := []int{start}
	var stops []int
	prev := start
	for _, stop := range order[1:] {
		seg, ok := pathfind.BFSPath(g, prev, stop)
		if !ok {
			unreachable = append(unreachable, stop)
			continue
		}
		path = append(path, seg[1:]...)
		stops = append(stops, stop)
		prev = stop
	}
	return Tour{Stops: stops, Path: path}, unreachable
}

// mstPreorder builds a Prim MST over the complete graph on nodes and returns
// its DFS preorder from nodes[0]. Children are walked nearest-first for a
// stable, short route.
func mstPreorder(nodes []int, dist func(a, b int) int) []int {
	n := len(nodes)
	inTree := make([]bool, n)
	best := make([]int, n)
	parent := make([]int, n)
	for i := range best {
		best[i] = int(^uint(0) >> 1)
		parent[i] = -1
	}
	best[0] = 0

	// Dense Prim: the tour graph is complete, so the array scan beats a heap.
	for k := 0; k < n; k++ {
		u := -1
		for i := 0; i < n; i++ {
			if !inTree[i] && (u == -1 || best[i] < best[u]) {
				u = i
			}
		}
		inTree[u] = true
		for v := 0; v < n; v++ {
			if inTree[v] || v == u {
				continue
			}
			if d := dist(nodes[u], nodes[v]); d < best[v] {
				best[v] = d
				parent[v] = u
			}
		}
	}

	children := make([][]int, n)
	for v := 1; v < n; v++ {
		if parent[v] >= 0 {
			children[parent[v]] = append(children[parent[v]], v)
		}
	}
	for u := range children {
		u := u
		sort.Slice(children[u], func(i, j int) bool {
			a, b := children[u][i], children[u][j]
			da, db := dist(nodes[u], nodes[a]), dist(nodes[u], nodes[b])
			if da != db {
				return da < db
			}
			return nodes[a] < nodes[b]
		})
	}

	var order []int
	var dfs func(u int)
	dfs = func(u int) {
		order = append(order, nodes[u])
		for _, c := range children[u] {
			dfs(c)
		}
	}
	dfs(0)
	return order
}
