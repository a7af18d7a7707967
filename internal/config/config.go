package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	Port      string
	JWTSecret string

	// Road store
	DBDriver    string // sqlite or pgx
	DBPath      string // sqlite file
	DatabaseURL string // postgres DSN when DBDriver is pgx

	// Planner
	LandmarkCount   int
	LandmarkWorkers int
	LandmarkSeed    int64 // 0 picks a time-based seed
	PathCacheSize   int
	Sequencer       string // permutation or branchbound
	MaxWaypoints    int

	// Crowd feed
	NATSURL              string // empty disables the feed
	NATSCrowdSubject     string
	CrowdRefreshInterval time.Duration // 0 disables periodic refresh

	MetricsAddr        string // empty disables the metrics server
	RateLimitPerMinute int
}

// Load 加载配置
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getenvDefault("PORT", ":8080"),
		JWTSecret:        getenvDefault("JWT_SECRET", "your-secret-key-change-in-production"),
		DBDriver:         strings.ToLower(getenvDefault("DB_DRIVER", "sqlite")),
		DBPath:           getenvDefault("DB_PATH", "./data/roads/roads.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Sequencer:        strings.ToLower(getenvDefault("SEQUENCER", "permutation")),
		NATSURL:          os.Getenv("NATS_URL"),
		NATSCrowdSubject: getenvDefault("NATS_CROWD_SUBJECT", "roads.crowd"),
		MetricsAddr:      getenvDefault("METRICS_ADDR", ":9090"),
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "pgx", "postgres":
		cfg.DBDriver = "pgx"
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set when DB_DRIVER=%s", cfg.DBDriver)
		}
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: %q", cfg.DBDriver)
	}

	switch cfg.Sequencer {
	case "permutation", "branchbound":
	default:
		return nil, fmt.Errorf("invalid SEQUENCER: %q", cfg.Sequencer)
	}

	var err error
	if cfg.LandmarkCount, err = getenvInt("LANDMARK_COUNT", 16, 1); err != nil {
		return nil, err
	}
	if cfg.LandmarkWorkers, err = getenvInt("LANDMARK_WORKERS", runtime.GOMAXPROCS(0), 1); err != nil {
		return nil, err
	}
	if cfg.PathCacheSize, err = getenvInt("PATH_CACHE_SIZE", 1000, 0); err != nil {
		return nil, err
	}
	if cfg.MaxWaypoints, err = getenvInt("MAX_WAYPOINTS", 8, 1); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getenvInt("RATE_LIMIT_PER_MINUTE", 120, 0); err != nil {
		return nil, err
	}

	if v := os.Getenv("LANDMARK_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LANDMARK_SEED: %q", v)
		}
		cfg.LandmarkSeed = seed
	}

	// Crowd refresh interval, e.g. "5m". Empty or 0 disables it.
	if v := os.Getenv("CROWD_REFRESH_INTERVAL"); v != "" && v != "0" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid CROWD_REFRESH_INTERVAL: %q", v)
		}
		cfg.CrowdRefreshInterval = d
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def, min int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}
