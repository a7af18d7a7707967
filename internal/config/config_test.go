package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "SEQUENCER", "LANDMARK_COUNT", "PATH_CACHE_SIZE", "CROWD_REFRESH_INTERVAL", "LANDMARK_SEED"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != ":8080" || cfg.DBDriver != "sqlite" || cfg.Sequencer != "permutation" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.LandmarkCount != 16 || cfg.PathCacheSize != 1000 || cfg.MaxWaypoints != 8 {
		t.Errorf("unexpected planner defaults: %+v", cfg)
	}
	if cfg.CrowdRefreshInterval != 0 {
		t.Errorf("crowd refresh should be disabled by default, got %v", cfg.CrowdRefreshInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/roads")
	t.Setenv("SEQUENCER", "BranchBound")
	t.Setenv("LANDMARK_COUNT", "8")
	t.Setenv("PATH_CACHE_SIZE", "0")
	t.Setenv("CROWD_REFRESH_INTERVAL", "90s")
	t.Setenv("LANDMARK_SEED", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "pgx" || cfg.Sequencer != "branchbound" {
		t.Errorf("driver/sequencer = %q/%q", cfg.DBDriver, cfg.Sequencer)
	}
	if cfg.LandmarkCount != 8 || cfg.PathCacheSize != 0 || cfg.LandmarkSeed != 42 {
		t.Errorf("unexpected planner settings: %+v", cfg)
	}
	if cfg.CrowdRefreshInterval != 90*time.Second {
		t.Errorf("CrowdRefreshInterval = %v", cfg.CrowdRefreshInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"DB_DRIVER":              "mysql",
		"SEQUENCER":              "greedy",
		"LANDMARK_COUNT":         "0",
		"MAX_WAYPOINTS":          "many",
		"CROWD_REFRESH_INTERVAL": "soon",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(); err == nil {
				t.Errorf("expected an error for %s=%q", k, v)
			}
		})
	}
}

func TestPgxRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected an error without DATABASE_URL")
	}
}
