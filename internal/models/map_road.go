package models

// Road type values stored in map_road.road_type
const (
	RoadTypePrimary   = "primary"
	RoadTypeSecondary = "secondary"
)

// DefaultCrowdLevel is used when a stored road carries no crowd level
const DefaultCrowdLevel = 1.0

// MapRoad represents a persisted road record imported from map data
type MapRoad struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	RoadType     string  `json:"roadType" db:"road_type"`          // primary, secondary, residential, ... (empty = none)
	StartPointID int64   `json:"startPointId" db:"start_point_id"` // OSM node id of the first point
	EndPointID   int64   `json:"endPointId" db:"end_point_id"`     // OSM node id of the last point
	PathPoints   string  `json:"pathPoints" db:"path_points"`      // Format: lat,lon;lat,lon;
	Description  string  `json:"description,omitempty" db:"description"`
	CrowdLevel   float64 `json:"crowdLevel" db:"crowd_level"` // 0 = congested, 1 = free-flowing
}

// CrowdUpdate is a single crowd level change for a road
type CrowdUpdate struct {
	RoadID     int64   `json:"roadId"`
	CrowdLevel float64 `json:"crowdLevel"`
}

// CrowdBatch is the message exchanged on the crowd feed
type CrowdBatch struct {
	Source    string        `json:"source"`
	Timestamp int64         `json:"timestamp"` // Unix milliseconds
	Updates   []CrowdUpdate `json:"updates"`
}
