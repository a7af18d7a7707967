package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengzang/route-planner-go/internal/api"
	"github.com/jengzang/route-planner-go/internal/config"
	"github.com/jengzang/route-planner-go/internal/crowdfeed"
	"github.com/jengzang/route-planner-go/internal/database"
	"github.com/jengzang/route-planner-go/internal/handler"
	"github.com/jengzang/route-planner-go/internal/landmark"
	"github.com/jengzang/route-planner-go/internal/metrics"
	"github.com/jengzang/route-planner-go/internal/pathcache"
	"github.com/jengzang/route-planner-go/internal/repository"
	"github.com/jengzang/route-planner-go/internal/routing"
	"github.com/jengzang/route-planner-go/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Open(database.Config{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		DSN:    cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	roads := repository.NewRoadRepository(db, cfg.DBDriver)

	var collector *metrics.Collector
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector()
		metricsSrv := collector.Serve(cfg.MetricsAddr)
		defer metricsSrv.Close()
	}

	var sequencer routing.Sequencer = routing.PermutationSequencer{}
	if cfg.Sequencer == "branchbound" {
		sequencer = routing.BranchAndBoundSequencer{}
	}

	routes := service.NewRouteService(roads, service.RouteOptions{
		Landmarks: landmark.Options{
			Count:   cfg.LandmarkCount,
			Workers: cfg.LandmarkWorkers,
			Seed:    cfg.LandmarkSeed,
		},
		Sequencer:    sequencer,
		Cache:        pathcache.New(cfg.PathCacheSize),
		MaxWaypoints: cfg.MaxWaypoints,
		Metrics:      collector,
	})
	if _, err := routes.Build(ctx); err != nil {
		log.Fatal("Failed to build road network:", err)
	}

	// 拥挤度同步
	hostname, _ := os.Hostname()
	source := hostname + "-" + time.Now().Format("150405.000")
	var publisher service.CrowdPublisher
	var feed *crowdfeed.Feed
	if cfg.NATSURL != "" {
		feed, err = crowdfeed.Connect(cfg.NATSURL, cfg.NATSCrowdSubject, "route-planner", collector)
		if err != nil {
			log.Printf("[CrowdFeed] Warning: running without crowd feed: %v", err)
		} else {
			defer feed.Close()
			publisher = feed
		}
	}
	crowd := service.NewCrowdService(roads, routes, publisher, source, 0)
	if feed != nil {
		if err := feed.Subscribe(crowd.Apply); err != nil {
			log.Printf("[CrowdFeed] Warning: %v", err)
		}
	}
	go crowd.Run(ctx, cfg.CrowdRefreshInterval)

	// 初始化路由
	router := api.SetupRouter(cfg, handler.NewRouteHandler(routes), handler.NewCrowdHandler(crowd), ctx.Done())
	srv := &http.Server{Addr: cfg.Port, Handler: router}

	go func() {
		// 启动服务器
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
