package spatial

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-polyline"
)

// ParsePolyline parses a stored road polyline of the form "lat,lon;lat,lon;...".
// Empty entries (such as the one produced by a trailing ';') are ignored.
func ParsePolyline(s string) ([]Point, error) {
	var points []Point
	for i, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		fields := strings.Split(pair, ",")
		if len(fields) != 2 {
			return nil, fmt.Errorf("point %d: expected \"lat,lon\", got %q", i, pair)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: invalid latitude: %w", i, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: invalid longitude: %w", i, err)
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("point %d: coordinate out of range (%f, %f)", i, lat, lon)
		}

		points = append(points, Point{Lat: lat, Lon: lon})
	}
	return points, nil
}

// FormatPolyline is the inverse of ParsePolyline.
func FormatPolyline(points []Point) string {
	var b strings.Builder
	for _, p := range points {
		b.WriteString(strconv.FormatFloat(p.Lat, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Lon, 'f', -1, 64))
		b.WriteByte(';')
	}
	return b.String()
}

// EncodePolyline encodes points with the Google encoded polyline algorithm.
func EncodePolyline(points []Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
