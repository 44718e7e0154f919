package rescue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreedyRespectsSupply(t *testing.T) {
	g := corridor(t)
	incapable := map[int]int{2: 2}
	res := Generate(g, incapable, 5, unitPriority, Params{K: 2})
	require.Len(t, res.Items, 2, "allocations v=1 and v=2 for the single room")

	assigned := Greedy{}.Assign(g, res.Items, incapable, []ResponderInfo{{ID: 0, Pos: 0}})

	total := 0
	for _, items := range assigned {
		for _, it := range items {
			total += it.Vector[2]
		}
	}
	assert.LessOrEqual(t, total, incapable[2],
		"assigned pickups must never exceed observed supply")
	// The v=2 item is denser and exhausts the room by itself.
	require.Len(t, assigned[0], 1)
	assert.Equal(t, 2, assigned[0][0].Vector[2])
}

func TestGreedySpreadsAcrossResponders(t *testing.T) {
	g := corridor(t)
	incapable := map[int]int{2: 1, 4: 1}
	res := Generate(g, incapable, 5, unitPriority, Params{K: 1})

	assigned := Greedy{}.Assign(g, res.Items, incapable, []ResponderInfo{
		{ID: 0, Pos: 0},
		{ID: 1, Pos: 0},
	})

	// Two disjoint single-room items, two idle responders at the same spot:
	// the second item goes to the unloaded responder.
	assert.Len(t, assigned[0], 1)
	assert.Len(t, assigned[1], 1)
}

func TestGreedySkipsTrappedResponders(t *testing.T) {
	g := corridor(t)
	incapable := map[int]int{2: 1}
	res := Generate(g, incapable, 5, unitPriority, Params{K: 1})

	assigned := Greedy{}.Assign(g, res.Items, incapable, []ResponderInfo{
		{ID: 0, Pos: 0, Trapped: true},
		{ID: 1, Pos: 0},
	})
	assert.Empty(t, assigned[0])
	assert.Len(t, assigned[1], 1)

	assigned = Greedy{}.Assign(g, res.Items, incapable, []ResponderInfo{
		{ID: 0, Pos: 0, Trapped: true},
	})
	assert.Empty(t, assigned)
}

func TestGreedyAssignmentDisjointness(t *testing.T) {
	g := corridor(t)
	incapable := map[int]int{2: 2, 3: 1, 4: 1}
	res := Generate(g, incapable, 5, unitPriority, Params{K: 3})

	assigned := Greedy{}.Assign(g, res.Items, incapable, []ResponderInfo{
		{ID: 0, Pos: 0},
		{ID: 1, Pos: 0},
	})

	perRoom := map[int]int{}
	for _, items := range assigned {
		for _, it := range items {
			for room, n := range it.Vector {
				perRoom[room] += n
			}
		}
	}
	for room, n := range perRoom {
		assert.LessOrEqual(t, n, incapable[room],
			"room %d assigned beyond its observed incapable count", room)
	}
}
