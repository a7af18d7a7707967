package travel

import (
	"errors"
	"math"
	"testing"

	"github.com/jengzang/route-planner-go/internal/models"
	"github.com/jengzang/route-planner-go/internal/roadnet"
	"github.com/jengzang/route-planner-go/internal/spatial"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Walking, false},
		{"walking", Walking, false},
		{"bicycle", Bicycle, false},
		{"electric", Electric, false},
		{"car", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownMode) {
			t.Errorf("ParseMode(%q) error should wrap ErrUnknownMode", tt.in)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCrowdLevelIsClamped(t *testing.T) {
	road := func(level float64, typ roadnet.RoadType) *roadnet.Road {
		return &roadnet.Road{ID: 1, CrowdLevel: level, Type: typ}
	}

	for _, mode := range []Mode{Walking, Bicycle, Electric} {
		for _, typ := range []roadnet.RoadType{roadnet.Primary, roadnet.Secondary, roadnet.Other} {
			if lo, clamped := Speed(mode, road(0, typ)), Speed(mode, road(0.05, typ)); lo != clamped {
				t.Errorf("%s/%s: speed at crowd 0 = %f, at 0.05 = %f", mode, typ, lo, clamped)
			}
			if hi, clamped := Speed(mode, road(1.5, typ)), Speed(mode, road(1.0, typ)); hi != clamped {
				t.Errorf("%s/%s: speed at crowd 1.5 = %f, at 1.0 = %f", mode, typ, hi, clamped)
			}
		}
	}
}

func TestSpeed(t *testing.T) {
	primary := &roadnet.Road{CrowdLevel: 0.5, Type: roadnet.Primary}
	secondary := &roadnet.Road{CrowdLevel: 0.5, Type: roadnet.Secondary}
	other := &roadnet.Road{CrowdLevel: 0.5, Type: roadnet.Other}

	tests := []struct {
		name string
		mode Mode
		road *roadnet.Road
		want float64
	}{
		{"walking ignores roads", Walking, primary, 1.4},
		{"off-road bicycle walks", Bicycle, nil, 1.4},
		{"bicycle on primary", Bicycle, primary, 4.2 * 0.5 * 1.1},
		{"bicycle on secondary", Bicycle, secondary, 4.2 * 0.5 * 1.05},
		{"bicycle on other", Bicycle, other, 4.2 * 0.5},
		{"electric on primary", Electric, primary, 8.0 * 0.5},
		{"electric off primary", Electric, other, 8.0 * 0.7 * 0.5},
		{"off-road electric walks", Electric, nil, 1.4},
	}
	for _, tt := range tests {
		if got := Speed(tt.mode, tt.road); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: Speed = %f, want %f", tt.name, got, tt.want)
		}
		if got := Speed(tt.mode, tt.road); got > MaxSpeed(tt.mode)+1e-12 {
			t.Errorf("%s: Speed %f exceeds MaxSpeed %f", tt.name, got, MaxSpeed(tt.mode))
		}
	}
}

func buildGraph(t *testing.T, roads ...models.MapRoad) *roadnet.Graph {
	t.Helper()
	g, warnings := roadnet.Build(roads)
	if len(warnings) > 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	return g
}

func TestWalkingEstimate(t *testing.T) {
	g := buildGraph(t, models.MapRoad{ID: 1, RoadType: "primary", PathPoints: "0,0;0,0.01", CrowdLevel: 1})
	path := []spatial.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}}

	got := NewModel(Walking, g, nil).Estimate(path)
	want := spatial.PathLength(path) / 1.4 / 60
	if math.Abs(got.Minutes-want) > 1e-9 {
		t.Errorf("walking minutes = %f, want %f", got.Minutes, want)
	}
	if got.Boarding != nil || got.Alighting != nil {
		t.Error("walking routes have no boarding points")
	}
}

func TestBicycleOffRoadEdgesAreWalked(t *testing.T) {
	g := buildGraph(t, models.MapRoad{ID: 1, RoadType: "residential", PathPoints: "0,0;0,0.01", CrowdLevel: 1})
	query := spatial.Point{Lat: 0.001, Lon: 0.005}
	proj := spatial.Point{Lat: 0, Lon: 0.005}
	end := spatial.Point{Lat: 0, Lon: 0.01}

	m := NewModel(Bicycle, g, nil)
	got := m.Estimate([]spatial.Point{query, proj, end})
	want := Minutes(spatial.Distance(query, proj), WalkingSpeed) + Minutes(spatial.Distance(proj, end), BicycleSpeed)
	if math.Abs(got.Minutes-want) > 1e-9 {
		t.Errorf("bicycle minutes = %f, want %f", got.Minutes, want)
	}
}

func TestElectricWithoutPrimaryRoadsIsWalked(t *testing.T) {
	g := buildGraph(t,
		models.MapRoad{ID: 1, RoadType: "secondary", PathPoints: "0,0;0,0.01", CrowdLevel: 1},
		models.MapRoad{ID: 2, RoadType: "residential", PathPoints: "0,0.01;0.01,0.01", CrowdLevel: 1},
	)
	path := []spatial.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, {Lat: 0.01, Lon: 0.01}}

	electric := NewModel(Electric, g, nil).Estimate(path)
	walking := NewModel(Walking, g, nil).Estimate(path)
	if electric.Boarding != nil || electric.Alighting != nil {
		t.Error("no boarding points expected without primary roads")
	}
	if electric.Minutes != walking.Minutes {
		t.Errorf("electric minutes = %f, walking = %f", electric.Minutes, walking.Minutes)
	}
}

func TestElectricBoardsPrimaryRoad(t *testing.T) {
	g := buildGraph(t, models.MapRoad{ID: 1, RoadType: "primary", PathPoints: "0,0;0,0.01", CrowdLevel: 1})
	start := spatial.Point{Lat: 0.001, Lon: 0}
	end := spatial.Point{Lat: 0.001, Lon: 0.01}
	path := []spatial.Point{start, {Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, end}

	got := NewModel(Electric, g, nil).Estimate(path)
	if got.Boarding == nil || got.Alighting == nil {
		t.Fatal("expected boarding and alighting points")
	}
	if !got.Boarding.WithinTolerance(spatial.Point{Lat: 0, Lon: 0}, 1e-9) {
		t.Errorf("boarding = %v", *got.Boarding)
	}

	walk := spatial.Distance(start, path[1]) + spatial.Distance(path[2], end)
	want := Minutes(walk, WalkingSpeed) + Minutes(spatial.Distance(path[1], path[2]), ElectricSpeed)
	if math.Abs(got.Minutes-want) > 1e-9 {
		t.Errorf("electric minutes = %f, want %f", got.Minutes, want)
	}
}

func TestHeuristicMinutesIsLowerBound(t *testing.T) {
	g := buildGraph(t, models.MapRoad{ID: 1, RoadType: "primary", PathPoints: "0,0;0,0.01", CrowdLevel: 1})
	a, b := spatial.Point{Lat: 0, Lon: 0}, spatial.Point{Lat: 0, Lon: 0.01}

	for _, mode := range []Mode{Walking, Bicycle, Electric} {
		m := NewModel(mode, g, nil)
		if h, c := m.HeuristicMinutes(spatial.Distance(a, b)), m.EdgeMinutes(a, b); h > c+1e-12 {
			t.Errorf("%s: heuristic %f exceeds edge cost %f", mode, h, c)
		}
	}
}
