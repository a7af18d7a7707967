package travel

import (
	"github.com/jengzang/route-planner-go/internal/roadnet"
	"github.com/jengzang/route-planner-go/internal/spatial"
)

// Estimate is the travel time of a complete route.
type Estimate struct {
	Minutes   float64
	Boarding  *spatial.Point // electric only
	Alighting *spatial.Point // electric only
}

// Model prices edges and routes for one mode over one road network snapshot.
// It memoises road matches and is meant to live for a single request.
type Model struct {
	mode    Mode
	graph   *roadnet.Graph
	matcher *roadnet.Matcher
}

// NewModel creates a Model for mode over g.
func NewModel(mode Mode, g *roadnet.Graph, matcher *roadnet.Matcher) *Model {
	if matcher == nil {
		matcher = roadnet.NewMatcher(g)
	}
	return &Model{mode: mode, graph: g, matcher: matcher}
}

// Mode returns the model's transport mode.
func (m *Model) Mode() Mode {
	return m.mode
}

// EdgeMinutes is the time to travel from a to b on the road the edge matches.
func (m *Model) EdgeMinutes(a, b spatial.Point) float64 {
	road := m.matcher.RoadForEdge(a, b)
	return Minutes(spatial.Distance(a, b), Speed(m.mode, road))
}

// HeuristicMinutes converts a distance lower bound into a time lower bound at
// the mode's top speed.
func (m *Model) HeuristicMinutes(meters float64) float64 {
	return Minutes(meters, MaxSpeed(m.mode))
}

// Estimate prices a finished route as the sum of its edge times.
func (m *Model) Estimate(path []spatial.Point) Estimate {
	switch m.mode {
	case Walking:
		return Estimate{Minutes: walkingMinutes(path)}
	case Electric:
		return m.electric(path)
	}
	return Estimate{Minutes: m.edgeSum(path, 0, len(path)-1)}
}

func walkingMinutes(path []spatial.Point) float64 {
	return Minutes(spatial.PathLength(path), WalkingSpeed)
}

// edgeSum adds the times of edges path[from]->path[from+1] ... path[to-1]->path[to].
func (m *Model) edgeSum(path []spatial.Point, from, to int) float64 {
	total := 0.0
	for i := from; i < to; i++ {
		total += m.EdgeMinutes(path[i], path[i+1])
	}
	return total
}

// electric walks from the start to the nearest primary road, rides the network
// between the first and last on-road edges, and walks from the nearest primary
// road to the end. Without a primary road near both ends, the whole route is walked.
func (m *Model) electric(path []spatial.Point) Estimate {
	if len(path) < 2 {
		return Estimate{}
	}
	start, end := path[0], path[len(path)-1]

	board, ok := m.graph.NearestRoadOfType(start, roadnet.Primary, BoardingThreshold)
	if !ok {
		return Estimate{Minutes: walkingMinutes(path)}
	}
	alight, ok := m.graph.NearestRoadOfType(end, roadnet.Primary, BoardingThreshold)
	if !ok {
		return Estimate{Minutes: walkingMinutes(path)}
	}

	first, last := -1, -1
	for i := 0; i+1 < len(path); i++ {
		if m.matcher.RoadForEdge(path[i], path[i+1]) != nil {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Estimate{Minutes: walkingMinutes(path)}
	}

	minutes := Minutes(board.Distance, WalkingSpeed) +
		m.edgeSum(path, first, last+1) +
		Minutes(alight.Distance, WalkingSpeed)

	boarding, alighting := board.Point, alight.Point
	return Estimate{Minutes: minutes, Boarding: &boarding, Alighting: &alighting}
}
