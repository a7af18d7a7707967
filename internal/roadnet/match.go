package roadnet

import (
	"math"

	"github.com/jengzang/route-planner-go/internal/spatial"
)

// OnRoadTolerance is the distance in meters within which a point counts as lying on a road.
const OnRoadTolerance = 1.0

// Projection is the closest point of a road to some query point.
type Projection struct {
	Road     *Road
	Point    spatial.Point
	Segment  int     // index i of the segment Points[i]..Points[i+1]
	Distance float64 // meters from the query point to Point
}

// Project returns the closest point of r to p.
func (r *Road) Project(p spatial.Point) Projection {
	best := Projection{Road: r, Distance: math.Inf(1)}
	for i := 0; i+1 < len(r.Points); i++ {
		q, _ := spatial.ProjectOntoSegment(p, r.Points[i], r.Points[i+1])
		if d := spatial.Distance(p, q); d < best.Distance {
			best.Point = q
			best.Segment = i
			best.Distance = d
		}
	}
	return best
}

// DistanceTo returns the distance in meters from p to the closest point of r.
func (r *Road) DistanceTo(p spatial.Point) float64 {
	return r.Project(p).Distance
}

// TieBreak estimates the network distance between two points. It is added to the
// point-to-road distance when choosing the nearest road.
type TieBreak func(a, b spatial.Point) float64

// NearestRoad chooses the road minimising distance(p, road) + tieBreak(projection, p).
// Ties keep the lowest road id. ok is false when the graph has no roads.
func (g *Graph) NearestRoad(p spatial.Point, tieBreak TieBreak) (Projection, bool) {
	var best Projection
	bestScore := math.Inf(1)
	for _, r := range g.roadList {
		proj := r.Project(p)
		score := proj.Distance
		if tieBreak != nil {
			score += tieBreak(proj.Point, p)
		}
		if score < bestScore {
			best, bestScore = proj, score
		}
	}
	return best, best.Road != nil
}

// NearestRoadOfType returns the closest road of type t within maxDist meters of p.
func (g *Graph) NearestRoadOfType(p spatial.Point, t RoadType, maxDist float64) (Projection, bool) {
	var best Projection
	for _, r := range g.roadList {
		if r.Type != t {
			continue
		}
		proj := r.Project(p)
		if proj.Distance > maxDist {
			continue
		}
		if best.Road == nil || proj.Distance < best.Distance {
			best = proj
		}
	}
	return best, best.Road != nil
}

// Matcher resolves which road a point or an edge lies on. Results are memoised
// per point key, so a Matcher belongs to a single request and is not safe for
// concurrent use.
type Matcher struct {
	g    *Graph
	memo map[string][]*Road
}

// NewMatcher creates a Matcher over g.
func NewMatcher(g *Graph) *Matcher {
	return &Matcher{g: g, memo: make(map[string][]*Road)}
}

// RoadsAt returns the roads passing within OnRoadTolerance of p, ordered by id.
func (m *Matcher) RoadsAt(p spatial.Point) []*Road {
	key := p.Key()
	if roads, ok := m.memo[key]; ok {
		return roads
	}

	var roads []*Road
	if in, ok := m.g.IntersectionAt(p); ok {
		roads = m.g.RoadsOf(in)
	} else {
		for _, r := range m.g.roadList {
			if r.DistanceTo(p) <= OnRoadTolerance {
				roads = append(roads, r)
			}
		}
	}
	m.memo[key] = roads
	return roads
}

// RoadForEdge returns the road an edge from a to b travels along: the lowest-id
// road under both endpoints. It returns nil for edges that leave the network,
// such as the spur between a query point and its projection or a straight-line
// fallback.
func (m *Matcher) RoadForEdge(a, b spatial.Point) *Road {
	to := m.RoadsAt(b)
	for _, r := range m.RoadsAt(a) {
		for _, s := range to {
			if r.ID == s.ID {
				return r
			}
		}
	}
	return nil
}

// Traversed returns the roads covered by consecutive pairs of path, in order of
// first use and without repeats.
func (m *Matcher) Traversed(path []spatial.Point) []*Road {
	seen := make(map[int64]bool)
	var roads []*Road
	for i := 0; i+1 < len(path); i++ {
		to := m.RoadsAt(path[i+1])
		for _, r := range m.RoadsAt(path[i]) {
			if seen[r.ID] {
				continue
			}
			for _, s := range to {
				if r.ID == s.ID {
					seen[r.ID] = true
					roads = append(roads, r)
					break
				}
			}
		}
	}
	return roads
}
