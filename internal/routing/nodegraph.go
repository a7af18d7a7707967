// Package routing builds per-request search graphs, runs A* over them and
// orders waypoints.
package routing

import (
	"log"

	"github.com/jengzang/route-planner-go/internal/roadnet"
	"github.com/jengzang/route-planner-go/internal/spatial"
)

// Node is a vertex of a per-request search graph. Nodes are identified by the
// rounded key of their position.
type Node struct {
	Position       spatial.Point
	IntersectionID int64 // 0 when the node is not a road network intersection
	Neighbors      []*Node
	Anchors        []Anchor
}

// Anchor ties a node to a road network intersection it reaches along a path of
// Offset meters. Intersections anchor to themselves at offset 0; spliced nodes
// anchor to the ends of the segment they were projected onto.
type Anchor struct {
	IntersectionID int64
	Offset         float64
}

// anchorVia anchors n to through's anchors, extended by the straight link
// between them. Nodes that already carry anchors keep them.
func anchorVia(n, through *Node) {
	if len(n.Anchors) > 0 || n == through {
		return
	}
	d := spatial.Distance(n.Position, through.Position)
	for _, a := range through.Anchors {
		n.Anchors = append(n.Anchors, Anchor{IntersectionID: a.IntersectionID, Offset: a.Offset + d})
	}
}

// Key returns the node identity.
func (n *Node) Key() string {
	return n.Position.Key()
}

func link(a, b *Node) {
	if a == b {
		return
	}
	for _, n := range a.Neighbors {
		if n == b {
			return
		}
	}
	a.Neighbors = append(a.Neighbors, b)
	b.Neighbors = append(b.Neighbors, a)
}

type segmentKey struct {
	road    int64
	segment int
}

// NodeGraph is the search graph of one request: every intersection of the road
// network plus the spliced query points and their projections.
type NodeGraph struct {
	nodes     map[string]*Node
	spliced   map[segmentKey][]*Node
	Unsnapped int // query points that found no road
}

// Node returns the node at p's rounded position.
func (ng *NodeGraph) Node(p spatial.Point) (*Node, bool) {
	n, ok := ng.nodes[p.Key()]
	return n, ok
}

// Len returns the number of nodes.
func (ng *NodeGraph) Len() int {
	return len(ng.nodes)
}

func (ng *NodeGraph) nodeAt(p spatial.Point) *Node {
	key := p.Key()
	if n, ok := ng.nodes[key]; ok {
		return n
	}
	n := &Node{Position: p}
	ng.nodes[key] = n
	return n
}

// Builder creates NodeGraphs over a road network snapshot.
type Builder struct {
	graph    *roadnet.Graph
	tieBreak roadnet.TieBreak
}

// NewBuilder returns a Builder for g. tieBreak is added to the point-to-road
// distance when snapping query points; it may be nil.
func NewBuilder(g *roadnet.Graph, tieBreak roadnet.TieBreak) *Builder {
	return &Builder{graph: g, tieBreak: tieBreak}
}

// Build links consecutive points of every road, then splices each query point
// into the graph. The returned nodes correspond to queries, in order; query
// points coinciding with an existing node share it.
func (b *Builder) Build(queries []spatial.Point) (*NodeGraph, []*Node) {
	ng := &NodeGraph{
		nodes:   make(map[string]*Node, len(b.graph.Intersections())+3*len(queries)),
		spliced: make(map[segmentKey][]*Node),
	}

	for _, in := range b.graph.Intersections() {
		ng.nodes[in.Position.Key()] = &Node{
			Position:       in.Position,
			IntersectionID: in.ID,
			Anchors:        []Anchor{{IntersectionID: in.ID}},
		}
	}
	for _, in := range b.graph.Intersections() {
		from := ng.nodes[in.Position.Key()]
		for _, e := range in.Edges {
			to, _ := b.graph.Intersection(e.To)
			link(from, ng.nodes[to.Position.Key()])
		}
	}

	out := make([]*Node, len(queries))
	for i, q := range queries {
		out[i] = b.splice(ng, q)
	}
	return ng, out
}

// splice snaps q onto its nearest road and links q -> projection -> segment ends.
func (b *Builder) splice(ng *NodeGraph, q spatial.Point) *Node {
	node := ng.nodeAt(q)

	proj, ok := b.graph.NearestRoad(q, b.tieBreak)
	if !ok {
		ng.Unsnapped++
		log.Printf("[Routing] Warning: no road near %s, point stays unconnected", q.Key())
		return node
	}

	pn := ng.nodeAt(proj.Point)
	link(node, pn)

	start := ng.nodes[proj.Road.Points[proj.Segment].Key()]
	end := ng.nodes[proj.Road.Points[proj.Segment+1].Key()]
	link(pn, start)
	link(pn, end)
	if len(pn.Anchors) == 0 {
		pn.Anchors = []Anchor{
			{IntersectionID: start.IntersectionID, Offset: spatial.Distance(pn.Position, start.Position)},
			{IntersectionID: end.IntersectionID, Offset: spatial.Distance(pn.Position, end.Position)},
		}
	}
	anchorVia(node, pn)

	// projections on the same segment are collinear, so linking them keeps
	// along-segment distances exact
	seg := segmentKey{road: proj.Road.ID, segment: proj.Segment}
	known := false
	for _, other := range ng.spliced[seg] {
		known = known || other == pn
		link(pn, other)
	}
	if !known && pn != start && pn != end {
		ng.spliced[seg] = append(ng.spliced[seg], pn)
	}

	return node
}
