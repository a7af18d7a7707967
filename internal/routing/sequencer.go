package routing

import (
	"context"
	"errors"
	"math"

	"github.com/jengzang/route-planner-go/internal/spatial"
)

// ErrNoValidPath is returned when no visiting order yields a path for every leg.
var ErrNoValidPath = errors.New("no valid path through the waypoints")

// Leg is a priced path between two consecutive stops.
type Leg struct {
	Points   []spatial.Point
	Cost     float64
	Fallback bool
}

// LegFinder finds the path between two stops. An error discards every order
// that needs this leg.
type LegFinder func(from, to *Node) (Leg, error)

// Result is the best visiting order found by a Sequencer.
type Result struct {
	Order        []int // indices into the waypoint slice, in visiting order
	Points       []spatial.Point
	Cost         float64
	FallbackLegs int
}

// Sequencer chooses the order in which to visit waypoints after start.
type Sequencer interface {
	Sequence(ctx context.Context, start *Node, waypoints []*Node, allowReturn bool, find LegFinder) (Result, error)
}

// legTable memoises legs within one Sequence call.
type legTable struct {
	find LegFinder
	legs map[[2]*Node]legResult
}

type legResult struct {
	leg Leg
	err error
}

func newLegTable(find LegFinder) *legTable {
	return &legTable{find: find, legs: make(map[[2]*Node]legResult)}
}

func (t *legTable) get(from, to *Node) (Leg, error) {
	key := [2]*Node{from, to}
	if r, ok := t.legs[key]; ok {
		return r.leg, r.err
	}
	leg, err := t.find(from, to)
	t.legs[key] = legResult{leg: leg, err: err}
	return leg, err
}

// assemble joins the legs of order, dropping the duplicated junction points.
func assemble(t *legTable, start *Node, waypoints []*Node, order []int) (Result, error) {
	res := Result{Order: append([]int(nil), order...)}
	prev := start
	for _, idx := range order {
		leg, err := t.get(prev, waypoints[idx])
		if err != nil {
			return Result{}, err
		}
		pts := leg.Points
		if len(res.Points) > 0 && len(pts) > 0 {
			pts = pts[1:]
		}
		res.Points = append(res.Points, pts...)
		res.Cost += leg.Cost
		if leg.Fallback {
			res.FallbackLegs++
		}
		prev = waypoints[idx]
	}
	return res, nil
}

// PermutationSequencer tries every order of the waypoints. It is exact and
// meant for single-digit waypoint counts.
type PermutationSequencer struct{}

// Sequence implements Sequencer.
func (PermutationSequencer) Sequence(ctx context.Context, start *Node, waypoints []*Node, allowReturn bool, find LegFinder) (Result, error) {
	if len(waypoints) == 0 {
		return Result{}, ErrNoValidPath
	}

	table := newLegTable(find)
	if len(waypoints) == 1 && !allowReturn {
		res, err := assemble(table, start, waypoints, []int{0})
		if err != nil {
			return Result{}, ErrNoValidPath
		}
		return res, nil
	}

	best := Result{Cost: math.Inf(1)}
	found := false
	var err error
	permute(identity(len(waypoints)), func(order []int) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		res, legErr := assemble(table, start, waypoints, order)
		if legErr != nil {
			return true
		}
		if res.Cost < best.Cost {
			best, found = res, true
		}
		return true
	})
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{}, ErrNoValidPath
	}
	return best, nil
}

// Follow joins the legs from start through stops in the given order.
func Follow(start *Node, stops []*Node, find LegFinder) (Result, error) {
	return assemble(newLegTable(find), start, stops, identity(len(stops)))
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// permute calls visit with every permutation of idx in lexicographic order
// until visit returns false.
func permute(idx []int, visit func([]int) bool) {
	var rec func(k int) bool
	rec = func(k int) bool {
		if k == len(idx) {
			return visit(idx)
		}
		for i := k; i < len(idx); i++ {
			// rotate idx[i] into position k to keep lexicographic order
			v := idx[i]
			copy(idx[k+1:i+1], idx[k:i])
			idx[k] = v
			if !rec(k + 1) {
				return false
			}
			copy(idx[k:i], idx[k+1:i+1])
			idx[i] = v
		}
		return true
	}
	rec(0)
}
