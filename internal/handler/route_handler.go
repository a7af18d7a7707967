package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/route-planner-go/internal/models"
	"github.com/jengzang/route-planner-go/internal/service"
	"github.com/jengzang/route-planner-go/internal/spatial"
	"github.com/jengzang/route-planner-go/pkg/response"
)

// RouteHandler handles HTTP requests for route planning
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{
		routeService: routeService,
	}
}

// Plan handles POST /api/v1/route/plan
func (h *RouteHandler) Plan(c *gin.Context) {
	var req models.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.routeService.Plan(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "geojson" {
		b, err := routeFeatures(result).MarshalJSON()
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		c.Data(http.StatusOK, "application/geo+json", b)
		return
	}

	response.Success(c, result)
}

// PlanMulti handles POST /api/v1/route/planMulti
func (h *RouteHandler) PlanMulti(c *gin.Context) {
	var req models.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.routeService.PlanMulti(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Rebuild handles POST /api/v1/route/rebuild
func (h *RouteHandler) Rebuild(c *gin.Context) {
	stats, err := h.routeService.Build(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, stats)
}

// Stats handles GET /api/v1/route/stats
func (h *RouteHandler) Stats(c *gin.Context) {
	stats, err := h.routeService.Stats()
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, stats)
}

// writeError maps service errors onto response codes
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoWaypoints),
		errors.Is(err, service.ErrTooManyWaypoints),
		errors.Is(err, service.ErrInvalidTransportMode):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNoValidPath):
		response.Unprocessable(c, err.Error())
	case errors.Is(err, service.ErrGraphNotReady):
		response.ServiceUnavailable(c, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(c, "request cancelled")
	default:
		response.InternalError(c, err.Error())
	}
}

// routeFeatures renders a route as a LineString feature plus the electric
// boarding and alighting points when present.
func routeFeatures(r *models.RouteResponse) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	line := make(orb.LineString, 0, len(r.Route))
	for _, p := range r.Route {
		line = append(line, toOrb(p))
	}
	route := geojson.NewFeature(line)
	route.Properties["kind"] = "route"
	route.Properties["transportMode"] = r.TransportMode
	route.Properties["totalDistance"] = r.TotalDistanceMeters
	route.Properties["estimatedTime"] = r.EstimatedTimeMinutes
	route.Properties["fallbackLegs"] = r.FallbackLegs
	fc.Append(route)

	stops := []struct {
		kind  string
		point *spatial.Point
	}{
		{"electricStartPoint", r.ElectricBoardingPoint},
		{"electricEndPoint", r.ElectricAlightingPoint},
	}
	for _, s := range stops {
		if s.point == nil {
			continue
		}
		f := geojson.NewFeature(toOrb(*s.point))
		f.Properties["kind"] = s.kind
		fc.Append(f)
	}

	return fc
}

func toOrb(p spatial.Point) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}
