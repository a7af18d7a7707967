package spatial

import (
	"math"
	"strconv"
)

// CoordPrecision is the number of decimal places used for point identity.
// Two points that round to the same value at this precision (about 0.11 m of
// latitude) are treated as the same node.
const CoordPrecision = 6

var coordScale = math.Pow10(CoordPrecision)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Rounded returns p with both coordinates rounded to CoordPrecision.
func (p Point) Rounded() Point {
	return Point{Lat: roundCoord(p.Lat), Lon: roundCoord(p.Lon)}
}

// Key returns the identity key of p, e.g. "39.904200,116.407400".
func (p Point) Key() string {
	r := p.Rounded()
	return strconv.FormatFloat(r.Lat, 'f', CoordPrecision, 64) + "," +
		strconv.FormatFloat(r.Lon, 'f', CoordPrecision, 64)
}

// Equal reports whether p and q share the same identity key.
func (p Point) Equal(q Point) bool {
	return p.Rounded() == q.Rounded()
}

// WithinTolerance reports whether both coordinate deltas are at most tol degrees.
func (p Point) WithinTolerance(q Point, tol float64) bool {
	return math.Abs(p.Lat-q.Lat) <= tol && math.Abs(p.Lon-q.Lon) <= tol
}

func roundCoord(v float64) float64 {
	r := math.Round(v*coordScale) / coordScale
	if r == 0 {
		// normalise -0
		return 0
	}
	return r
}

// BoundingBox calculates the bounding box of a set of points
// Returns (minLat, minLon, maxLat, maxLon)
func BoundingBox(points []Point) (float64, float64, float64, float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon

	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	return minLat, minLon, maxLat, maxLon
}

// ProjectOntoSegment returns the point of segment [a, b] closest to p, together
// with the segment parameter t in [0, 1]. The projection is computed on a local
// equirectangular plane centred on p, which is accurate for street-scale segments.
// A degenerate segment (a == b) projects onto a.
func ProjectOntoSegment(p, a, b Point) (Point, float64) {
	cosLat := math.Cos(p.Lat * math.Pi / 180)

	ax, ay := (a.Lon-p.Lon)*cosLat, a.Lat-p.Lat
	bx, by := (b.Lon-p.Lon)*cosLat, b.Lat-p.Lat
	dx, dy := bx-ax, by-ay

	segLen2 := dx*dx + dy*dy
	if segLen2 == 0 {
		return a, 0
	}

	t := -(ax*dx + ay*dy) / segLen2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return Point{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lon: a.Lon + t*(b.Lon-a.Lon),
	}, t
}

// DistanceToSegment returns the distance in meters from p to the closest point of [a, b].
func DistanceToSegment(p, a, b Point) float64 {
	q, _ := ProjectOntoSegment(p, a, b)
	return Distance(p, q)
}
