package landmark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/jengzang/route-planner-go/internal/models"
	"github.com/jengzang/route-planner-go/internal/roadnet"
)

// randomGraph joins random pairs of points on a 6x6 grid with straight roads.
func randomGraph(t *testing.T, seed int64) *roadnet.Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	var roads []models.MapRoad
	for id := int64(1); id <= 60; id++ {
		a := [2]int{rng.Intn(6), rng.Intn(6)}
		b := [2]int{rng.Intn(6), rng.Intn(6)}
		if a == b {
			continue
		}
		roads = append(roads, models.MapRoad{
			ID: id,
			PathPoints: fmt.Sprintf("%f,%f;%f,%f",
				30+float64(a[0])*0.001, 120+float64(a[1])*0.001,
				30+float64(b[0])*0.001, 120+float64(b[1])*0.001),
			CrowdLevel: 1,
		})
	}

	g, warnings := roadnet.Build(roads)
	if len(warnings) > 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	return g
}

// allPairs is an independent Floyd-Warshall oracle.
func allPairs(g *roadnet.Graph) map[int64]map[int64]float64 {
	nodes := g.Intersections()
	dist := make(map[int64]map[int64]float64, len(nodes))
	for _, a := range nodes {
		dist[a.ID] = make(map[int64]float64, len(nodes))
		for _, b := range nodes {
			dist[a.ID][b.ID] = math.Inf(1)
		}
		dist[a.ID][a.ID] = 0
		for _, e := range a.Edges {
			if e.Length < dist[a.ID][e.To] {
				dist[a.ID][e.To] = e.Length
			}
		}
	}
	for _, k := range nodes {
		for _, i := range nodes {
			for _, j := range nodes {
				if d := dist[i.ID][k.ID] + dist[k.ID][j.ID]; d < dist[i.ID][j.ID] {
					dist[i.ID][j.ID] = d
				}
			}
		}
	}
	return dist
}

func TestHeuristicIsAdmissible(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		g := randomGraph(t, seed)
		m, err := Build(context.Background(), g, Options{Count: 6, Workers: 3, Seed: seed})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		truth := allPairs(g)
		for a, row := range truth {
			for b, d := range row {
				h := m.Heuristic(a, b)
				if h < 0 {
					t.Fatalf("seed %d: negative heuristic %f", seed, h)
				}
				if h > d+1e-6 {
					t.Errorf("seed %d: heuristic(%d,%d) = %f exceeds shortest path %f", seed, a, b, h, d)
				}
			}
		}
	}
}

func TestHeuristicIsSymmetricAndMemoised(t *testing.T) {
	g := randomGraph(t, 7)
	m, err := Build(context.Background(), g, Options{Count: 4, Seed: 7})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	nodes := g.Intersections()
	a, b := nodes[0].ID, nodes[len(nodes)-1].ID
	h1 := m.Heuristic(a, b)
	h2 := m.Heuristic(b, a)
	if h1 != h2 {
		t.Errorf("heuristic not symmetric: %f vs %f", h1, h2)
	}
	if m.Heuristic(a, a) != 0 {
		t.Error("heuristic of a node to itself should be 0")
	}

	memo := m.Memo()
	if got := memo.Heuristic(b, a); got != h1 {
		t.Errorf("memoised heuristic = %f, want %f", got, h1)
	}
	memo.Heuristic(a, b)
	if memo.Len() != 1 {
		t.Errorf("memo holds %d pairs after one symmetric pair, want 1", memo.Len())
	}
	if other := m.Memo(); other.Len() != 0 {
		t.Errorf("fresh memo holds %d pairs, want 0", other.Len())
	}
}

func TestSelectLandmarks(t *testing.T) {
	g := randomGraph(t, 3)
	nodes := g.Intersections()

	got := selectLandmarks(nodes, 5, rand.New(rand.NewSource(1)))
	if len(got) != 5 {
		t.Fatalf("expected 5 landmarks, got %d", len(got))
	}
	seen := make(map[int64]bool)
	for _, id := range got {
		if seen[id] {
			t.Errorf("landmark %d selected twice", id)
		}
		seen[id] = true
	}

	all := selectLandmarks(nodes, len(nodes)+10, rand.New(rand.NewSource(1)))
	if len(all) != len(nodes) {
		t.Errorf("expected landmark count capped at %d, got %d", len(nodes), len(all))
	}

	if none := selectLandmarks(nil, 16, rand.New(rand.NewSource(1))); len(none) != 0 {
		t.Errorf("expected no landmarks on an empty graph, got %v", none)
	}
}

func TestUnreachableLandmarksAreIgnored(t *testing.T) {
	g, _ := roadnet.Build([]models.MapRoad{
		{ID: 1, PathPoints: "0,0;0,0.001", CrowdLevel: 1},
		{ID: 2, PathPoints: "1,1;1,1.001", CrowdLevel: 1},
	})
	m, err := Build(context.Background(), g, Options{Count: 4, Seed: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	nodes := g.Intersections()
	// nodes 1,2 form one component and 3,4 the other
	if h := m.Heuristic(nodes[0].ID, nodes[2].ID); h != 0 {
		t.Errorf("heuristic across components = %f, want 0", h)
	}
}

func TestBuildCancelled(t *testing.T) {
	g := randomGraph(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Build(ctx, g, Options{Count: 16, Workers: 1, Seed: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
