package rescue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func totalValue(assigned map[int][]Item) float64 {
	var sum float64
	for _, items := range assigned {
		for _, it := range items {
			sum += it.Value
		}
	}
	return sum
}

func TestLPRespectsSupply(t *testing.T) {
	g := corridor(t)
	incapable := map[int]int{2: 1, 3: 1, 4: 1}
	res := Generate(g, incapable, 5, unitPriority, Params{K: 3})

	assigned := LP{}.Assign(g, res.Items, incapable, []ResponderInfo{{ID: 0, Pos: 0}})
	require.NotEmpty(t, assigned)

	perRoom := map[int]int{}
	for _, items := range assigned {
		for _, it := range items {
			for room, n := range it.Vector {
				perRoom[room] += n
			}
		}
	}
	for room, n := range perRoom {
		assert.LessOrEqual(t, n, incapable[room])
	}
}

func TestLPAtLeastMatchesGreedyValue(t *testing.T) {
	// The triple item has the best density, but the three singles carry more
	// total value: the relaxation sees that where density-greedy cannot.
	g := corridor(t)
	incapable := map[int]int{2: 1, 3: 1, 4: 1}
	res := Generate(g, incapable, 5, unitPriority, Params{K: 3})
	responders := []ResponderInfo{{ID: 0, Pos: 0}}

	greedy := Greedy{}.Assign(g, res.Items, incapable, responders)
	relaxed := LP{}.Assign(g, res.Items, incapable, responders)

	assert.GreaterOrEqual(t, totalValue(relaxed)+1e-9, totalValue(greedy))
}

func TestLPEmptyItems(t *testing.T) {
	g := corridor(t)
	assert.Nil(t, LP{}.Assign(g, nil, map[int]int{2: 1}, []ResponderInfo{{ID: 0, Pos: 0}}))
}
