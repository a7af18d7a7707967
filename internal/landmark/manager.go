// Package landmark implements the ALT lower-bound heuristic: a fixed set of
// landmark intersections with precomputed shortest-path distances to every
// reachable intersection.
package landmark

import (
	"context"
	"log"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/jengzang/route-planner-go/internal/roadnet"
	"github.com/jengzang/route-planner-go/internal/spatial"
)

// DefaultCount is the number of landmarks selected when Options.Count is zero.
const DefaultCount = 16

// Options controls landmark selection and precomputation.
type Options struct {
	Count   int   // landmarks to select (DefaultCount when zero)
	Workers int   // concurrent Dijkstra runs (GOMAXPROCS when zero)
	Seed    int64 // seed for the first landmark (time-based when zero)
}

type pair struct{ a, b int64 }

// Manager serves the landmark heuristic. It is immutable after Build and safe
// for concurrent use.
type Manager struct {
	graph     *roadnet.Graph
	landmarks []int64
	distances map[int64]map[int64]float64 // landmark id -> intersection id -> meters
}

// Build selects landmarks on g and precomputes their distances. It returns
// ctx.Err() if the context is cancelled before every landmark is processed.
func Build(ctx context.Context, g *roadnet.Graph, opts Options) (*Manager, error) {
	if opts.Count <= 0 {
		opts.Count = DefaultCount
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	m := &Manager{
		graph:     g,
		landmarks: selectLandmarks(g.Intersections(), opts.Count, rand.New(rand.NewSource(opts.Seed))),
		distances: make(map[int64]map[int64]float64),
	}

	start := time.Now()
	if err := m.precompute(ctx, opts.Workers); err != nil {
		return nil, err
	}
	log.Printf("[Landmark] Precomputed %d landmarks over %d intersections in %v",
		len(m.landmarks), len(g.Intersections()), time.Since(start))

	return m, nil
}

// selectLandmarks picks a random first landmark, then repeatedly the intersection
// farthest (straight-line) from its nearest already chosen landmark.
func selectLandmarks(nodes []*roadnet.Intersection, count int, rng *rand.Rand) []int64 {
	if len(nodes) == 0 {
		return nil
	}
	if count > len(nodes) {
		count = len(nodes)
	}

	minDist := make([]float64, len(nodes))
	for i := range minDist {
		minDist[i] = math.Inf(1)
	}
	chosen := make([]bool, len(nodes))

	next := rng.Intn(len(nodes))
	landmarks := make([]int64, 0, count)
	for len(landmarks) < count {
		chosen[next] = true
		landmarks = append(landmarks, nodes[next].ID)

		pos := nodes[next].Position
		best, bestDist := -1, -1.0
		for i, n := range nodes {
			if chosen[i] {
				continue
			}
			if d := spatial.Distance(pos, n.Position); d < minDist[i] {
				minDist[i] = d
			}
			if minDist[i] > bestDist {
				best, bestDist = i, minDist[i]
			}
		}
		if best < 0 {
			break
		}
		next = best
	}
	return landmarks
}

func (m *Manager) precompute(ctx context.Context, workers int) error {
	jobs := make(chan int64)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				dist := m.graph.ShortestDistances(id)
				mu.Lock()
				m.distances[id] = dist
				mu.Unlock()
			}
		}()
	}

	var err error
feed:
	for _, id := range m.landmarks {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case jobs <- id:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return err
}

// Landmarks returns the selected landmark intersection ids.
func (m *Manager) Landmarks() []int64 {
	return m.landmarks
}

// Heuristic returns a lower bound on the network distance in meters between two
// intersections: the largest |d(L,a) - d(L,b)| over landmarks that reach both.
// It is 0 when no landmark reaches both.
func (m *Manager) Heuristic(a, b int64) float64 {
	if a == b {
		return 0
	}

	best := 0.0
	for _, l := range m.landmarks {
		dist := m.distances[l]
		da, okA := dist[a]
		db, okB := dist[b]
		if !okA || !okB {
			continue
		}
		if d := math.Abs(da - db); d > best {
			best = d
		}
	}
	return best
}

// Memo caches Heuristic results for the lifetime of one request, so its size is
// bounded by the pairs that request evaluates. It is not safe for concurrent use.
type Memo struct {
	m    *Manager
	seen map[pair]float64
}

// Memo returns an empty per-request cache over m.
func (m *Manager) Memo() *Memo {
	return &Memo{m: m, seen: make(map[pair]float64)}
}

// Heuristic is Manager.Heuristic, memoised.
func (c *Memo) Heuristic(a, b int64) float64 {
	key := pair{a, b}
	if b < a {
		key = pair{b, a}
	}
	if v, ok := c.seen[key]; ok {
		return v
	}
	v := c.m.Heuristic(a, b)
	c.seen[key] = v
	return v
}

// Len returns the number of cached pairs.
func (c *Memo) Len() int {
	return len(c.seen)
}

// HeuristicBetween is Heuristic for points; points that are not intersections get 0.
func (m *Manager) HeuristicBetween(p, q spatial.Point) float64 {
	a, ok := m.graph.IntersectionAt(p)
	if !ok {
		return 0
	}
	b, ok := m.graph.IntersectionAt(q)
	if !ok {
		return 0
	}
	return m.Heuristic(a.ID, b.ID)
}

// Graph returns the network the landmarks were computed on.
func (m *Manager) Graph() *roadnet.Graph {
	return m.graph
}

// Rebind returns a Manager sharing m's precomputed distances but resolving
// points against g. g must have the same intersections, as produced by
// roadnet.Graph.WithCrowdLevels.
func (m *Manager) Rebind(g *roadnet.Graph) *Manager {
	return &Manager{
		graph:     g,
		landmarks: m.landmarks,
		distances: m.distances,
	}
}
