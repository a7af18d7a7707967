package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jengzang/route-planner-go/internal/landmark"
	"github.com/jengzang/route-planner-go/internal/metrics"
	"github.com/jengzang/route-planner-go/internal/models"
	"github.com/jengzang/route-planner-go/internal/pathcache"
	"github.com/jengzang/route-planner-go/internal/roadnet"
	"github.com/jengzang/route-planner-go/internal/routing"
	"github.com/jengzang/route-planner-go/internal/spatial"
	"github.com/jengzang/route-planner-go/internal/stats"
	"github.com/jengzang/route-planner-go/internal/travel"
)

var (
	ErrNoWaypoints          = errors.New("at least one path point is required")
	ErrTooManyWaypoints     = errors.New("too many path points")
	ErrInvalidTransportMode = travel.ErrUnknownMode
	ErrGraphNotReady        = errors.New("road network is not loaded")
	ErrNoValidPath          = routing.ErrNoValidPath
)

// samePathTolerance is the per-coordinate tolerance in degrees for comparing routes.
const samePathTolerance = 1e-6

const distanceMetric = "distance"

// RoadSource supplies the persisted road records.
type RoadSource interface {
	FindAll(ctx context.Context) ([]models.MapRoad, error)
}

// RouteOptions configures a RouteService.
type RouteOptions struct {
	Landmarks    landmark.Options
	Sequencer    routing.Sequencer // PermutationSequencer when nil
	Cache        *pathcache.Cache  // a DefaultCapacity cache when nil
	MaxWaypoints int               // unlimited when zero
	Metrics      *metrics.Collector
}

// network is an immutable road network snapshot with its landmark data.
type network struct {
	graph     *roadnet.Graph
	landmarks *landmark.Manager
	stats     models.GraphStats
}

// RouteService plans routes over the current road network snapshot.
type RouteService struct {
	roads   RoadSource
	opts    RouteOptions
	current atomic.Pointer[network]
	buildMu sync.Mutex // serialises snapshot builds and replacement
}

// NewRouteService creates a route service. Build must succeed before planning.
func NewRouteService(roads RoadSource, opts RouteOptions) *RouteService {
	if opts.Sequencer == nil {
		opts.Sequencer = routing.PermutationSequencer{}
	}
	if opts.Cache == nil {
		opts.Cache = pathcache.New(pathcache.DefaultCapacity)
	}
	return &RouteService{roads: roads, opts: opts}
}

// Build loads the roads, builds the graph and landmarks, and swaps them in.
// It holds buildMu throughout, so crowd levels applied while roads load land
// on the new snapshot instead of being replaced by it.
func (s *RouteService) Build(ctx context.Context) (models.GraphStats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()

	records, err := s.roads.FindAll(ctx)
	if err != nil {
		return models.GraphStats{}, fmt.Errorf("failed to load roads: %w", err)
	}

	graph, warnings := roadnet.Build(records)
	for _, w := range warnings {
		log.Printf("[RoadNet] Warning: skipped %v", w)
	}

	lm, err := landmark.Build(ctx, graph, s.opts.Landmarks)
	if err != nil {
		return models.GraphStats{}, fmt.Errorf("failed to precompute landmarks: %w", err)
	}

	net := &network{
		graph:     graph,
		landmarks: lm,
		stats: models.GraphStats{
			Intersections: len(graph.Intersections()),
			Roads:         len(graph.Roads()),
			Landmarks:     len(lm.Landmarks()),
			SkippedRoads:  len(warnings),
			BuiltAt:       time.Now().Unix(),
		},
	}
	summarizeRoads(graph, &net.stats)

	s.current.Store(net)
	s.opts.Cache.Purge()

	elapsed := time.Since(start)
	s.opts.Metrics.ObserveBuild(net.stats.Intersections, net.stats.Roads, net.stats.Landmarks, elapsed)
	log.Printf("[RouteService] Road network ready: %d roads, %d intersections, %d skipped (%v)",
		net.stats.Roads, net.stats.Intersections, net.stats.SkippedRoads, elapsed)

	return net.stats, nil
}

// Stats describes the loaded road network.
func (s *RouteService) Stats() (models.GraphStats, error) {
	net := s.current.Load()
	if net == nil {
		return models.GraphStats{}, ErrGraphNotReady
	}
	return net.stats, nil
}

// ApplyCrowdLevels swaps in a snapshot whose roads carry the new crowd levels.
// Landmark distances depend only on road lengths and are kept.
func (s *RouteService) ApplyCrowdLevels(updates []models.CrowdUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	net := s.current.Load()
	if net == nil {
		return ErrGraphNotReady
	}

	levels := make(map[int64]float64, len(updates))
	for _, u := range updates {
		levels[u.RoadID] = u.CrowdLevel
	}

	graph := net.graph.WithCrowdLevels(levels)
	next := &network{
		graph:     graph,
		landmarks: net.landmarks.Rebind(graph),
		stats:     net.stats,
	}
	summarizeRoads(graph, &next.stats)
	s.current.Store(next)
	s.opts.Cache.Purge()
	s.opts.Metrics.CrowdApplied(len(updates))

	return nil
}

// Plan returns the distance-optimal route through the request's waypoints.
func (s *RouteService) Plan(ctx context.Context, req models.RouteRequest) (*models.RouteResponse, error) {
	start := time.Now()

	sess, err := s.newSession(req)
	if err != nil {
		s.opts.Metrics.ObserveError("plan", errorReason(err))
		return nil, err
	}

	resp, err := s.route(ctx, sess, distanceMetric)
	if err != nil {
		s.opts.Metrics.ObserveError("plan", errorReason(err))
		return nil, err
	}

	s.opts.Metrics.ObserveRequest("plan", string(sess.mode), time.Since(start))
	return resp, nil
}

// PlanMulti returns both the distance-optimal and the time-optimal route.
func (s *RouteService) PlanMulti(ctx context.Context, req models.RouteRequest) (*models.MultiRouteResponse, error) {
	start := time.Now()

	sess, err := s.newSession(req)
	if err != nil {
		s.opts.Metrics.ObserveError("planMulti", errorReason(err))
		return nil, err
	}

	byDistance, err := s.route(ctx, sess, distanceMetric)
	if err != nil {
		s.opts.Metrics.ObserveError("planMulti", errorReason(err))
		return nil, err
	}

	// walking time is proportional to distance, so both routes coincide
	byTime := byDistance
	if sess.mode != travel.Walking {
		byTime, err = s.route(ctx, sess, string(sess.mode))
		if err != nil {
			s.opts.Metrics.ObserveError("planMulti", errorReason(err))
			return nil, err
		}
	}

	s.opts.Metrics.ObserveRequest("planMulti", string(sess.mode), time.Since(start))
	return &models.MultiRouteResponse{
		DistancePath: byDistance,
		TimePath:     byTime,
		SamePath:     samePath(byDistance.Route, byTime.Route),
	}, nil
}

// session is the per-request search state.
type session struct {
	req       models.RouteRequest
	mode      travel.Mode
	net       *network
	matcher   *roadnet.Matcher
	start     *routing.Node
	waypoints []*routing.Node

	// electric stops on the nearest primary road: stops[0] for the start,
	// stops[i+1] for waypoints[i]; nil entries have no road within reach
	stops []*routing.Node
}

func (s *RouteService) newSession(req models.RouteRequest) (*session, error) {
	mode, err := travel.ParseMode(req.TransportMode)
	if err != nil {
		return nil, err
	}
	if len(req.PathPoints) == 0 {
		return nil, ErrNoWaypoints
	}
	if s.opts.MaxWaypoints > 0 && len(req.PathPoints) > s.opts.MaxWaypoints {
		return nil, fmt.Errorf("%w: %d given, at most %d allowed", ErrTooManyWaypoints, len(req.PathPoints), s.opts.MaxWaypoints)
	}

	net := s.current.Load()
	if net == nil {
		return nil, ErrGraphNotReady
	}

	queries := append([]spatial.Point{req.StartPoint}, req.PathPoints...)
	n := len(queries)
	var stopAt []int
	if mode == travel.Electric {
		stopAt = make([]int, n)
		for i := 0; i < n; i++ {
			stopAt[i] = -1
			if proj, ok := net.graph.NearestRoadOfType(queries[i], roadnet.Primary, travel.BoardingThreshold); ok {
				stopAt[i] = len(queries)
				queries = append(queries, proj.Point)
			}
		}
	}

	ng, nodes := routing.NewBuilder(net.graph, net.landmarks.HeuristicBetween).Build(queries)
	if ng.Unsnapped > 0 {
		log.Printf("[RouteService] Warning: %d request points found no road", ng.Unsnapped)
	}

	sess := &session{
		req:       req,
		mode:      mode,
		net:       net,
		matcher:   roadnet.NewMatcher(net.graph),
		start:     nodes[0],
		waypoints: nodes[1:n],
	}
	if stopAt != nil {
		sess.stops = make([]*routing.Node, n)
		for i, at := range stopAt {
			if at >= 0 {
				sess.stops[i] = nodes[at]
			}
		}
	}
	return sess, nil
}

// route sequences the session's waypoints under metric ("distance" or a
// transport mode for travel time) and assembles the response.
func (s *RouteService) route(ctx context.Context, sess *session, metric string) (*models.RouteResponse, error) {
	model := travel.NewModel(sess.mode, sess.net.graph, sess.matcher)

	lowerBound := routing.AnchorHeuristic(sess.net.landmarks.Memo().Heuristic)

	cost := func(from, to *routing.Node) float64 {
		return spatial.Distance(from.Position, to.Position)
	}
	heuristic := lowerBound
	if metric != distanceMetric {
		cost = func(from, to *routing.Node) float64 {
			return model.EdgeMinutes(from.Position, to.Position)
		}
		heuristic = func(n, goal *routing.Node) float64 {
			return model.HeuristicMinutes(lowerBound(n, goal))
		}
	}

	find := func(from, to *routing.Node) (routing.Leg, error) {
		key := pathcache.NewKey(from.Position, to.Position, metric)
		if e, ok := s.opts.Cache.Get(key); ok {
			s.opts.Metrics.CacheLookup(true)
			return routing.Leg{Points: e.Path, Cost: e.Cost, Fallback: e.Fallback}, nil
		}
		s.opts.Metrics.CacheLookup(false)

		p, err := routing.FindPath(from, to, cost, heuristic)
		if err != nil {
			return routing.Leg{}, err
		}
		leg := routing.Leg{Points: p.Points(), Cost: p.Cost, Fallback: p.Fallback}
		s.opts.Cache.Put(key, pathcache.Entry{Path: leg.Points, Cost: leg.Cost, Fallback: leg.Fallback})
		return leg, nil
	}

	res, err := s.opts.Sequencer.Sequence(ctx, sess.start, sess.waypoints, sess.req.AllowReturn, find)
	if err != nil {
		return nil, err
	}
	if sess.mode == travel.Electric {
		res = ride(sess, res, cost, find)
	}
	for i := 0; i < res.FallbackLegs; i++ {
		s.opts.Metrics.FallbackLeg()
	}

	return s.assemble(sess, model, res), nil
}

// ride reroutes an electric trip through its stops: a walk from the start to
// the boarding point, the network from there through the intermediate
// waypoints to the alighting point of the last waypoint, and a walk to it. The
// visiting order is kept. res is returned unchanged when a stop is missing.
func ride(sess *session, res routing.Result, cost routing.CostFunc, find routing.LegFinder) routing.Result {
	last := res.Order[len(res.Order)-1]
	board, alight := sess.stops[0], sess.stops[last+1]
	if board == nil || alight == nil {
		return res
	}

	stops := make([]*routing.Node, 0, len(res.Order))
	for _, idx := range res.Order[:len(res.Order)-1] {
		stops = append(stops, sess.waypoints[idx])
	}
	stops = append(stops, alight)

	legs, err := routing.Follow(board, stops, find)
	if err != nil {
		log.Printf("[RouteService] Warning: no ride between the electric stops: %v", err)
		return res
	}

	out := routing.Result{Order: res.Order, FallbackLegs: legs.FallbackLegs}
	if board != sess.start {
		out.Points = append(out.Points, sess.start.Position)
		out.Cost += cost(sess.start, board)
	}
	out.Points = append(out.Points, legs.Points...)
	out.Cost += legs.Cost
	if end := sess.waypoints[last]; alight != end {
		out.Points = append(out.Points, end.Position)
		out.Cost += cost(alight, end)
	}
	return out
}

func (s *RouteService) assemble(sess *session, model *travel.Model, res routing.Result) *models.RouteResponse {
	graph := sess.net.graph
	route := res.Points
	est := model.Estimate(route)

	resp := &models.RouteResponse{
		Route:                  route,
		TotalDistanceMeters:    spatial.PathLength(route),
		EstimatedTimeMinutes:   est.Minutes,
		RoadsTraversed:         []models.RoadSummary{},
		ElectricBoardingPoint:  est.Boarding,
		ElectricAlightingPoint: est.Alighting,
		TransportMode:          string(sess.mode),
		Polyline:               spatial.EncodePolyline(route),
		FallbackLegs:           res.FallbackLegs,
	}

	if proj, ok := graph.NearestRoad(sess.req.StartPoint, nil); ok {
		resp.StartToRoadDistanceMeters = proj.Distance
	}
	if len(route) > 0 {
		if proj, ok := graph.NearestRoad(route[len(route)-1], nil); ok {
			resp.EndToRoadDistanceMeters = proj.Distance
		}
	}

	for _, r := range sess.matcher.Traversed(route) {
		resp.RoadsTraversed = append(resp.RoadsTraversed, r.Summary())
	}

	return resp
}

func summarizeRoads(g *roadnet.Graph, st *models.GraphStats) {
	roads := g.Roads()
	lengths := make([]float64, len(roads))
	levels := make([]float64, len(roads))
	for i, r := range roads {
		lengths[i] = r.Length
		levels[i] = r.CrowdLevel
	}
	st.RoadLengths = stats.Summarize(lengths)
	st.CrowdLevels = stats.Summarize(levels)
}

func samePath(a, b []spatial.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].WithinTolerance(b[i], samePathTolerance) {
			return false
		}
	}
	return true
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrNoWaypoints), errors.Is(err, ErrTooManyWaypoints), errors.Is(err, ErrInvalidTransportMode):
		return "invalid_request"
	case errors.Is(err, ErrNoValidPath):
		return "no_valid_path"
	case errors.Is(err, ErrGraphNotReady):
		return "not_ready"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
