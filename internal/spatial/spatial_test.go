package spatial

import (
	"math"
	"testing"

	"github.com/kr/pretty"
)

func TestHaversineDistance(t *testing.T) {
	oneDegree := 2 * math.Pi * EarthRadiusMeters / 360

	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Point{39.9, 116.4}, Point{39.9, 116.4}, 0},
		{"one degree of latitude", Point{0, 0}, Point{1, 0}, oneDegree},
		{"one degree of longitude on the equator", Point{0, 10}, Point{0, 11}, oneDegree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Distance(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
			if rev := Distance(tt.b, tt.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("Distance is not symmetric: %f vs %f", got, rev)
			}
		})
	}
}

func TestPathLength(t *testing.T) {
	pts := []Point{{0, 0}, {0, 0.001}, {0.001, 0.001}}
	want := Distance(pts[0], pts[1]) + Distance(pts[1], pts[2])
	if got := PathLength(pts); math.Abs(got-want) > 1e-9 {
		t.Errorf("PathLength = %f, want %f", got, want)
	}
	if got := PathLength(pts[:1]); got != 0 {
		t.Errorf("PathLength of a single point = %f, want 0", got)
	}
}

func TestPointKey(t *testing.T) {
	tests := []struct {
		p    Point
		want string
	}{
		{Point{39.9042, 116.4074}, "39.904200,116.407400"},
		{Point{39.90420049, 116.40739951}, "39.904200,116.407400"},
		{Point{-0.0000001, 0}, "0.000000,0.000000"},
	}
	for _, tt := range tests {
		if got := tt.p.Key(); got != tt.want {
			t.Errorf("%v.Key() = %q, want %q", tt.p, got, tt.want)
		}
	}

	if !(Point{1.0000001, 2}).Equal(Point{1.0000002, 2}) {
		t.Error("points closer than the rounding precision should be equal")
	}
	if (Point{1.000001, 2}).Equal(Point{1.000002, 2}) {
		t.Error("points one unit apart at the rounding precision should differ")
	}
}

func TestProjectOntoSegment(t *testing.T) {
	a := Point{0, 0}
	b := Point{0, 0.01}

	tests := []struct {
		name  string
		p     Point
		want  Point
		wantT float64
	}{
		{"before the segment clamps to a", Point{0.001, -0.002}, a, 0},
		{"after the segment clamps to b", Point{0.001, 0.02}, b, 1},
		{"within the segment drops a perpendicular", Point{0.001, 0.005}, Point{0, 0.005}, 0.5},
		{"on the segment projects onto itself", Point{0, 0.0025}, Point{0, 0.0025}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotT := ProjectOntoSegment(tt.p, a, b)
			if !got.WithinTolerance(tt.want, 1e-9) || math.Abs(gotT-tt.wantT) > 1e-6 {
				t.Errorf("ProjectOntoSegment(%v) = %v (t=%f), want %v (t=%f)", tt.p, got, gotT, tt.want, tt.wantT)
			}
		})
	}
}

func TestProjectOntoSegmentIsClosestPoint(t *testing.T) {
	a := Point{39.900, 116.400}
	b := Point{39.905, 116.410}
	queries := []Point{
		{39.903, 116.402},
		{39.899, 116.399},
		{39.910, 116.420},
		{39.901, 116.409},
	}

	for _, p := range queries {
		q, _ := ProjectOntoSegment(p, a, b)
		best := Distance(p, q)
		for i := 0; i <= 100; i++ {
			s := float64(i) / 100
			sample := Point{Lat: a.Lat + s*(b.Lat-a.Lat), Lon: a.Lon + s*(b.Lon-a.Lon)}
			if d := Distance(p, sample); d < best-0.05 {
				t.Errorf("projection of %v is %.3fm away but sample %v is %.3fm away", p, best, sample, d)
			}
		}
	}
}

func TestProjectOntoDegenerateSegment(t *testing.T) {
	a := Point{1, 1}
	got, tt := ProjectOntoSegment(Point{2, 2}, a, a)
	if got != a || tt != 0 {
		t.Errorf("degenerate projection = %v (t=%f), want %v", got, tt, a)
	}
}

func TestParsePolyline(t *testing.T) {
	got, err := ParsePolyline("39.9,116.4;39.91, 116.41;")
	if err != nil {
		t.Fatalf("ParsePolyline: %v", err)
	}
	want := []Point{{39.9, 116.4}, {39.91, 116.41}}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("ParsePolyline mismatch: %v", diff)
	}

	for _, bad := range []string{"39.9;116.4", "abc,116.4;", "39.9,116.4,1;", "95,10;"} {
		if _, err := ParsePolyline(bad); err == nil {
			t.Errorf("ParsePolyline(%q) expected an error", bad)
		}
	}
}

func TestFormatPolylineRoundTrip(t *testing.T) {
	pts := []Point{{39.9, 116.4}, {39.91, 116.41}}
	s := FormatPolyline(pts)
	if s != "39.9,116.4;39.91,116.41;" {
		t.Errorf("FormatPolyline = %q", s)
	}
}

func TestEncodePolyline(t *testing.T) {
	pts := []Point{{38.5, -120.2}, {40.7, -120.95}, {43.252, -126.453}}
	if got, want := EncodePolyline(pts), "_p~iF~ps|U_ulLnnqC_mqNvxq`@"; got != want {
		t.Errorf("EncodePolyline = %q, want %q", got, want)
	}
}
