package routing

import (
	"container/heap"
	"errors"
	"log"

	"github.com/jengzang/route-planner-go/internal/spatial"
)

// ErrNodeNotFound is returned when a search endpoint is missing.
var ErrNodeNotFound = errors.New("search node not found")

// CostFunc prices the edge from one node to a neighbor.
type CostFunc func(from, to *Node) float64

// HeuristicFunc estimates the remaining cost from a node to the goal. It must
// not overestimate for the returned path to be optimal.
type HeuristicFunc func(n, goal *Node) float64

// AnchorHeuristic lifts a lower bound between intersections to any pair of
// anchored nodes. A node reaches each anchor along a real path of Offset
// meters, so d(n, goal) >= bound(a, e) - a.Offset - e.Offset for every anchor
// pair; the result is the largest such value, or 0.
func AnchorHeuristic(bound func(a, b int64) float64) HeuristicFunc {
	return func(n, goal *Node) float64 {
		best := 0.0
		for _, a := range n.Anchors {
			for _, e := range goal.Anchors {
				if h := bound(a.IntersectionID, e.IntersectionID) - a.Offset - e.Offset; h > best {
					best = h
				}
			}
		}
		return best
	}
}

// Path is the result of a single search.
type Path struct {
	Nodes    []*Node
	Cost     float64
	Fallback bool // no network path was found; Nodes is {start, goal}
}

// Points returns the positions along the path.
func (p Path) Points() []spatial.Point {
	pts := make([]spatial.Point, len(p.Nodes))
	for i, n := range p.Nodes {
		pts[i] = n.Position
	}
	return pts
}

type openItem struct {
	node *Node
	g    float64
	f    float64
	seq  int
}

type openSet []*openItem

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int)       { s[i], s[j] = s[j], s[i] }
func (s *openSet) Push(x interface{}) { *s = append(*s, x.(*openItem)) }
func (s *openSet) Pop() interface{} {
	old := *s
	n := len(old)
	item := old[n-1]
	*s = old[:n-1]
	return item
}

// FindPath runs A* from start to goal. Nodes may be re-expanded when a cheaper
// route to them appears, so the path is optimal for any admissible heuristic.
// If goal is unreachable, FindPath returns the direct path {start, goal} priced
// by cost and marked as a fallback.
func FindPath(start, goal *Node, cost CostFunc, h HeuristicFunc) (Path, error) {
	if start == nil || goal == nil {
		return Path{}, ErrNodeNotFound
	}
	if start == goal {
		return Path{Nodes: []*Node{start}}, nil
	}

	g := map[*Node]float64{start: 0}
	parent := make(map[*Node]*Node)
	closed := make(map[*Node]bool)

	open := &openSet{}
	seq := 0
	heap.Push(open, &openItem{node: start, g: 0, f: h(start, goal), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openItem)
		if cur.g > g[cur.node] || closed[cur.node] {
			continue // stale entry
		}
		if cur.node == goal {
			return Path{Nodes: reconstruct(parent, goal), Cost: cur.g}, nil
		}
		closed[cur.node] = true

		for _, next := range cur.node.Neighbors {
			tentative := cur.g + cost(cur.node, next)
			if known, ok := g[next]; ok && tentative >= known {
				continue
			}
			g[next] = tentative
			parent[next] = cur.node
			delete(closed, next)

			seq++
			heap.Push(open, &openItem{node: next, g: tentative, f: tentative + h(next, goal), seq: seq})
		}
	}

	log.Printf("[Routing] Warning: no network path from %s to %s, using straight line",
		start.Key(), goal.Key())
	return Path{
		Nodes:    []*Node{start, goal},
		Cost:     cost(start, goal),
		Fallback: true,
	}, nil
}

func reconstruct(parent map[*Node]*Node, goal *Node) []*Node {
	var rev []*Node
	for n := goal; n != nil; n = parent[n] {
		rev = append(rev, n)
	}
	path := make([]*Node, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}
