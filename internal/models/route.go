package models

import (
	"github.com/jengzang/route-planner-go/internal/spatial"
	"github.com/jengzang/route-planner-go/internal/stats"
)

// Transport modes accepted by the planner
const (
	TransportWalking  = "walking"
	TransportBicycle  = "bicycle"
	TransportElectric = "electric"
)

// RouteRequest represents a route planning request
type RouteRequest struct {
	StartPoint    spatial.Point   `json:"startPoint"`
	PathPoints    []spatial.Point `json:"pathPoints"`    // Waypoints; order is a hint, the planner may re-sequence
	AllowReturn   bool            `json:"allowReturn"`   // Permits backtracking over already visited nodes
	TransportMode string          `json:"transportMode"` // walking, bicycle, electric (empty = walking)
}

// RoadSummary describes a road traversed by a route
type RoadSummary struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	RoadType   string  `json:"roadType,omitempty"`
	Length     float64 `json:"length"`     // Meters
	CrowdLevel float64 `json:"crowdLevel"` // As stored, not clamped
}

// RouteResponse represents a planned route
type RouteResponse struct {
	Route                     []spatial.Point `json:"route"`
	TotalDistanceMeters       float64         `json:"totalDistance"`
	EstimatedTimeMinutes      float64         `json:"estimatedTime"`
	StartToRoadDistanceMeters float64         `json:"startToRoadDistance"`
	EndToRoadDistanceMeters   float64         `json:"endToRoadDistance"`
	RoadsTraversed            []RoadSummary   `json:"roads"`
	ElectricBoardingPoint     *spatial.Point  `json:"electricStartPoint"`
	ElectricAlightingPoint    *spatial.Point  `json:"electricEndPoint"`

	// Extras
	TransportMode string `json:"transportMode"`
	Polyline      string `json:"polyline,omitempty"` // Google encoded polyline of Route
	FallbackLegs  int    `json:"fallbackLegs"`       // Legs that used a straight-line fallback
}

// MultiRouteResponse holds the distance-optimal and the time-optimal route
type MultiRouteResponse struct {
	DistancePath *RouteResponse `json:"distancePath"`
	TimePath     *RouteResponse `json:"timePath"`
	SamePath     bool           `json:"samePath"`
}

// GraphStats summarises the loaded road network
type GraphStats struct {
	Intersections int           `json:"intersections"`
	Roads         int           `json:"roads"`
	Landmarks     int           `json:"landmarks"`
	SkippedRoads  int           `json:"skippedRoads"`
	BuiltAt       int64         `json:"builtAt"`     // Unix seconds
	RoadLengths   stats.Summary `json:"roadLengths"` // Meters
	CrowdLevels   stats.Summary `json:"crowdLevels"`
}
