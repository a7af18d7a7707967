// Package roadnet holds the in-memory road network built from persisted road
// records: intersections keyed by rounded coordinates and the roads joining them.
package roadnet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jengzang/route-planner-go/internal/models"
	"github.com/jengzang/route-planner-go/internal/spatial"
)

// ErrTooFewPoints is reported for roads whose polyline has fewer than two distinct points.
var ErrTooFewPoints = errors.New("polyline has fewer than two distinct points")

// RoadType classifies a road for mode-specific speed policies.
type RoadType string

const (
	Primary   RoadType = "primary"
	Secondary RoadType = "secondary"
	Other     RoadType = "other"
	None      RoadType = "none"
)

// ParseRoadType maps a stored road_type value onto a RoadType.
func ParseRoadType(s string) RoadType {
	switch s {
	case models.RoadTypePrimary:
		return Primary
	case models.RoadTypeSecondary:
		return Secondary
	case "":
		return None
	default:
		return Other
	}
}

// Edge joins two consecutive vertices of a road.
type Edge struct {
	To     int64
	Length float64 // meters
	RoadID int64
}

// Intersection is a distinct vertex of the road network.
type Intersection struct {
	ID               int64
	Position         spatial.Point
	ConnectedRoadIDs map[int64]struct{}
	Edges            []Edge
}

// Road is a parsed road. Roads are never mutated after Build; crowd updates
// produce a new Graph through WithCrowdLevels.
type Road struct {
	ID         int64
	Name       string
	Type       RoadType
	Length     float64 // meters, sum of haversine distances over Points
	CrowdLevel float64 // as stored, clamped only where used
	Points     []spatial.Point
	Vertices   []int64 // intersection id of each point in Points
}

// HasIntersection reports whether the road passes through the given intersection.
func (r *Road) HasIntersection(id int64) bool {
	for _, v := range r.Vertices {
		if v == id {
			return true
		}
	}
	return false
}

// Summary converts the road for API responses.
func (r *Road) Summary() models.RoadSummary {
	s := models.RoadSummary{
		ID:         r.ID,
		Name:       r.Name,
		Length:     r.Length,
		CrowdLevel: r.CrowdLevel,
	}
	if r.Type != None {
		s.RoadType = string(r.Type)
	}
	return s
}

// Graph is an immutable road network snapshot.
type Graph struct {
	intersections map[int64]*Intersection
	ordered       []*Intersection
	byKey         map[string]int64
	roads         map[int64]*Road
	roadList      []*Road
}

// Build parses road records into a Graph. Roads that cannot be parsed are skipped
// and reported in the returned warnings; the graph is still usable.
func Build(records []models.MapRoad) (*Graph, []error) {
	g := &Graph{
		intersections: make(map[int64]*Intersection),
		byKey:         make(map[string]int64),
		roads:         make(map[int64]*Road),
	}

	sorted := make([]models.MapRoad, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var warnings []error
	for _, rec := range sorted {
		if _, dup := g.roads[rec.ID]; dup {
			warnings = append(warnings, fmt.Errorf("road %d: duplicate id, keeping first", rec.ID))
			continue
		}

		points, err := spatial.ParsePolyline(rec.PathPoints)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("road %d: %w", rec.ID, err))
			continue
		}
		points = normalize(points)
		if len(points) < 2 {
			warnings = append(warnings, fmt.Errorf("road %d: %w", rec.ID, ErrTooFewPoints))
			continue
		}

		g.addRoad(rec, points)
	}

	for _, in := range g.intersections {
		g.ordered = append(g.ordered, in)
	}
	sort.Slice(g.ordered, func(i, j int) bool { return g.ordered[i].ID < g.ordered[j].ID })

	return g, warnings
}

func (g *Graph) addRoad(rec models.MapRoad, points []spatial.Point) {
	road := &Road{
		ID:         rec.ID,
		Name:       rec.Name,
		Type:       ParseRoadType(rec.RoadType),
		Length:     spatial.PathLength(points),
		CrowdLevel: rec.CrowdLevel,
		Points:     points,
		Vertices:   make([]int64, len(points)),
	}

	for i, p := range points {
		in := g.intersectionFor(p)
		in.ConnectedRoadIDs[road.ID] = struct{}{}
		road.Vertices[i] = in.ID

		if i > 0 {
			prev := g.intersections[road.Vertices[i-1]]
			length := spatial.Distance(points[i-1], p)
			prev.Edges = append(prev.Edges, Edge{To: in.ID, Length: length, RoadID: road.ID})
			in.Edges = append(in.Edges, Edge{To: prev.ID, Length: length, RoadID: road.ID})
		}
	}

	g.roads[road.ID] = road
	g.roadList = append(g.roadList, road)
}

func (g *Graph) intersectionFor(p spatial.Point) *Intersection {
	key := p.Key()
	if id, ok := g.byKey[key]; ok {
		return g.intersections[id]
	}

	in := &Intersection{
		ID:               int64(len(g.intersections) + 1),
		Position:         p,
		ConnectedRoadIDs: make(map[int64]struct{}),
	}
	g.intersections[in.ID] = in
	g.byKey[key] = in.ID
	return in
}

// normalize rounds points to node precision and drops consecutive repeats, so
// road geometry, edge lengths and intersection positions all agree.
func normalize(points []spatial.Point) []spatial.Point {
	out := make([]spatial.Point, 0, len(points))
	for _, p := range points {
		p = p.Rounded()
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Intersection returns the intersection with the given id.
func (g *Graph) Intersection(id int64) (*Intersection, bool) {
	in, ok := g.intersections[id]
	return in, ok
}

// IntersectionAt returns the intersection sharing p's rounded coordinates.
func (g *Graph) IntersectionAt(p spatial.Point) (*Intersection, bool) {
	id, ok := g.byKey[p.Key()]
	if !ok {
		return nil, false
	}
	return g.intersections[id], true
}

// Intersections returns all intersections ordered by id.
func (g *Graph) Intersections() []*Intersection {
	return g.ordered
}

// Road returns the road with the given id.
func (g *Graph) Road(id int64) (*Road, bool) {
	r, ok := g.roads[id]
	return r, ok
}

// Roads returns all roads ordered by id.
func (g *Graph) Roads() []*Road {
	return g.roadList
}

// RoadsOf returns the roads connected to an intersection ordered by id.
func (g *Graph) RoadsOf(in *Intersection) []*Road {
	roads := make([]*Road, 0, len(in.ConnectedRoadIDs))
	for id := range in.ConnectedRoadIDs {
		roads = append(roads, g.roads[id])
	}
	sort.Slice(roads, func(i, j int) bool { return roads[i].ID < roads[j].ID })
	return roads
}

// WithCrowdLevels returns a copy of g whose roads carry the given crowd levels.
// Intersections and geometry are shared with g; roads not in levels keep theirs.
func (g *Graph) WithCrowdLevels(levels map[int64]float64) *Graph {
	next := &Graph{
		intersections: g.intersections,
		ordered:       g.ordered,
		byKey:         g.byKey,
		roads:         make(map[int64]*Road, len(g.roads)),
		roadList:      make([]*Road, 0, len(g.roadList)),
	}

	for _, r := range g.roadList {
		if level, ok := levels[r.ID]; ok {
			copied := *r
			copied.CrowdLevel = level
			r = &copied
		}
		next.roads[r.ID] = r
		next.roadList = append(next.roadList, r)
	}
	return next
}
