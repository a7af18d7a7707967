package routing

import (
	"context"
	"math"
)

// BranchAndBoundSequencer finds the same optimal order as PermutationSequencer
// but prunes partial orders whose cost plus a minimum-spanning-tree bound over
// the unvisited waypoints cannot beat the best complete order.
type BranchAndBoundSequencer struct{}

// Sequence implements Sequencer.
func (BranchAndBoundSequencer) Sequence(ctx context.Context, start *Node, waypoints []*Node, allowReturn bool, find LegFinder) (Result, error) {
	n := len(waypoints)
	if n == 0 {
		return Result{}, ErrNoValidPath
	}

	table := newLegTable(find)
	if n == 1 && !allowReturn {
		res, err := assemble(table, start, waypoints, []int{0})
		if err != nil {
			return Result{}, ErrNoValidPath
		}
		return res, nil
	}

	// cost[i][j] from stop i to waypoint j, stop 0 being start and stop k+1 waypoint k
	stops := append([]*Node{start}, waypoints...)
	cost := make([][]float64, n+1)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j+1 {
				cost[i][j] = math.Inf(1)
				continue
			}
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			leg, err := table.get(stops[i], waypoints[j])
			if err != nil {
				cost[i][j] = math.Inf(1)
				continue
			}
			cost[i][j] = leg.Cost
		}
	}

	bb := &branchBound{n: n, cost: cost, best: math.Inf(1), visited: make([]bool, n)}
	bb.search(0, 0, nil)
	if bb.bestOrder == nil {
		return Result{}, ErrNoValidPath
	}
	return assemble(table, start, waypoints, bb.bestOrder)
}

type branchBound struct {
	n         int
	cost      [][]float64
	visited   []bool
	best      float64
	bestOrder []int
}

// search extends order from stop cur (0 = start, k+1 = waypoint k) with spent so far.
func (b *branchBound) search(cur int, spent float64, order []int) {
	if len(order) == b.n {
		if spent < b.best {
			b.best = spent
			b.bestOrder = append([]int(nil), order...)
		}
		return
	}
	if spent+b.lowerBound(cur) >= b.best {
		return
	}

	for j := 0; j < b.n; j++ {
		if b.visited[j] || math.IsInf(b.cost[cur][j], 1) {
			continue
		}
		b.visited[j] = true
		b.search(j+1, spent+b.cost[cur][j], append(order, j))
		b.visited[j] = false
	}
}

// lowerBound is the weight of a minimum spanning tree over cur and the unvisited
// waypoints, using the cheaper direction of each pair. Any path from cur through
// all of them is a spanning tree, so it costs at least this much.
func (b *branchBound) lowerBound(cur int) float64 {
	nodes := []int{cur}
	for j := 0; j < b.n; j++ {
		if !b.visited[j] {
			nodes = append(nodes, j+1)
		}
	}

	weight := func(u, v int) float64 {
		w := math.Inf(1)
		if v > 0 {
			w = b.cost[u][v-1]
		}
		if u > 0 {
			w = math.Min(w, b.cost[v][u-1])
		}
		return w
	}

	// Prim's algorithm
	inTree := make([]bool, len(nodes))
	dist := make([]float64, len(nodes))
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[0] = 0
	total := 0.0
	for range nodes {
		next := -1
		for i := range nodes {
			if !inTree[i] && (next < 0 || dist[i] < dist[next]) {
				next = i
			}
		}
		if math.IsInf(dist[next], 1) {
			// disconnected under finite legs; only the search itself can tell
			return 0
		}
		inTree[next] = true
		total += dist[next]
		for i := range nodes {
			if !inTree[i] {
				dist[i] = math.Min(dist[i], weight(nodes[next], nodes[i]))
			}
		}
	}
	return total
}
