// Package rescue generates and assigns rescue items: concrete pickup plans
// that carry incapable occupants from swept rooms to exits. Items are
// produced once at the sweep→rescue phase transition and again,
// incrementally, whenever burned edges invalidate running plans.
package rescue

import (
	"fmt"
	"sort"
	"strings"
)

// Item is one immutable rescue plan: a room→count pickup vector bounded by
// the carry capacity, a visit order, entry and drop-off exits, the concrete
// vertex path, the carrying-weighted traversal time and the value density
// used for assignment.
type Item struct {
	Vector    map[int]int
	VisitSeq  []int
	EntryExit int
	DropExit  int
	FullPath  []int
	Time      float64
	Value     float64
}

// Passengers is the total head count the item picks up.
func (it *Item) Passengers() int {
	n := 0
	for _, c := range it.Vector {
		n += c
	}
	return n
}

func (it *Item) String() string {
	parts := make([]string, 0, len(it.VisitSeq))
	for _, r := range it.VisitSeq {
		parts = append(parts, fmt.Sprintf("%d×%d", r, it.Vector[r]))
	}
	return fmt.Sprintf("item{%s exits=%d→%d t=%.1f v=%.3f}",
		strings.Join(parts, ","), it.EntryExit, it.DropExit, it.Time, it.Value)
}

// CloneVector returns a copy of the pickup vector.
func (it *Item) CloneVector() map[int]int {
	v := make(map[int]int, len(it.Vector))
	for r, c := range it.Vector {
		v[r] = c
	}
	return v
}

// sortedRooms returns the item's rooms in ascending id order.
func sortedRooms(vector map[int]int) []int {
	rooms := make([]int, 0, len(vector))
	for r := range vector {
		rooms = append(rooms, r)
	}
	sort.Ints(rooms)
	return rooms
}
