package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/jengzang/route-planner-go/internal/models"
)

// crowdStep bounds the per-refresh random change of a road's crowd level.
const crowdStep = 0.5

// CrowdStore persists road crowd levels.
type CrowdStore interface {
	RoadSource
	UpdateCrowdLevels(ctx context.Context, updates []models.CrowdUpdate) error
}

// CrowdPublisher broadcasts crowd batches to other planner instances.
type CrowdPublisher interface {
	PublishCrowd(batch models.CrowdBatch) error
}

// CrowdService simulates and distributes road crowd levels.
type CrowdService struct {
	store     CrowdStore
	routes    *RouteService
	publisher CrowdPublisher
	source    string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCrowdService creates a crowd service. publisher may be nil; source
// identifies this instance's batches so they are not applied twice.
func NewCrowdService(store CrowdStore, routes *RouteService, publisher CrowdPublisher, source string, seed int64) *CrowdService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &CrowdService{
		store:     store,
		routes:    routes,
		publisher: publisher,
		source:    source,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Refresh moves every road's crowd level by a random step in
// [-crowdStep, crowdStep], clamped to [0, 1], and applies the result.
func (s *CrowdService) Refresh(ctx context.Context) ([]models.CrowdUpdate, error) {
	roads, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roads: %w", err)
	}

	updates := make([]models.CrowdUpdate, 0, len(roads))
	s.mu.Lock()
	for _, r := range roads {
		level := r.CrowdLevel + (s.rng.Float64()*2-1)*crowdStep
		updates = append(updates, models.CrowdUpdate{RoadID: r.ID, CrowdLevel: clampUnit(level)})
	}
	s.mu.Unlock()

	if err := s.store.UpdateCrowdLevels(ctx, updates); err != nil {
		return nil, fmt.Errorf("failed to save crowd levels: %w", err)
	}
	if err := s.routes.ApplyCrowdLevels(updates); err != nil {
		return nil, fmt.Errorf("failed to apply crowd levels: %w", err)
	}

	if s.publisher != nil {
		batch := models.CrowdBatch{Source: s.source, Timestamp: time.Now().UnixMilli(), Updates: updates}
		if err := s.publisher.PublishCrowd(batch); err != nil {
			log.Printf("[CrowdService] Warning: failed to publish crowd batch: %v", err)
		}
	}

	log.Printf("[CrowdService] Refreshed crowd levels of %d roads", len(updates))
	return updates, nil
}

// Apply installs a batch received from another instance. The batch is already
// persisted by its sender.
func (s *CrowdService) Apply(batch models.CrowdBatch) error {
	if batch.Source == s.source {
		return nil
	}
	for i := range batch.Updates {
		batch.Updates[i].CrowdLevel = clampUnit(batch.Updates[i].CrowdLevel)
	}
	return s.routes.ApplyCrowdLevels(batch.Updates)
}

// Run refreshes crowd levels every interval until ctx is done.
func (s *CrowdService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				log.Printf("[CrowdService] Error: %v", err)
			}
		}
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
