package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the planner's Prometheus metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	reg *prometheus.Registry

	RouteRequests *prometheus.CounterVec // kind (plan|planMulti), mode
	RouteErrors   *prometheus.CounterVec // kind, reason
	PlanDuration  *prometheus.HistogramVec

	PathCacheHits   prometheus.Counter
	PathCacheMisses prometheus.Counter
	FallbackLegs    prometheus.Counter

	LandmarkPrecompute prometheus.Histogram
	Intersections      prometheus.Gauge
	Roads              prometheus.Gauge
	Landmarks          prometheus.Gauge

	CrowdUpdates    prometheus.Counter
	FeedPublished   prometheus.Counter
	FeedPublishErrs prometheus.Counter
	FeedConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_route_requests_total",
			Help: "Route planning requests by kind and transport mode.",
		}, []string{"kind", "mode"}),
		RouteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_route_errors_total",
			Help: "Failed route planning requests by kind and reason.",
		}, []string{"kind", "reason"}),
		PlanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "planner_plan_duration_seconds",
			Help:    "Duration of route planning calls.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"kind"}),
		PathCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_path_cache_hits_total",
			Help: "Sub-path searches answered from the path cache.",
		}),
		PathCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_path_cache_misses_total",
			Help: "Sub-path searches that ran A*.",
		}),
		FallbackLegs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_fallback_legs_total",
			Help: "Sub-paths that fell back to a straight line.",
		}),
		LandmarkPrecompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_landmark_precompute_seconds",
			Help:    "Duration of graph build and landmark precomputation.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		Intersections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_graph_intersections",
			Help: "Intersections in the loaded road network.",
		}),
		Roads: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_graph_roads",
			Help: "Roads in the loaded road network.",
		}),
		Landmarks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_graph_landmarks",
			Help: "Landmarks used by the ALT heuristic.",
		}),
		CrowdUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_crowd_updates_total",
			Help: "Road crowd level updates applied.",
		}),
		FeedPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_crowd_feed_published_total",
			Help: "Crowd batches published to NATS.",
		}),
		FeedPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_crowd_feed_publish_errors_total",
			Help: "Crowd batch publish errors.",
		}),
		FeedConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_crowd_feed_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.RouteRequests, c.RouteErrors, c.PlanDuration,
		c.PathCacheHits, c.PathCacheMisses, c.FallbackLegs,
		c.LandmarkPrecompute, c.Intersections, c.Roads, c.Landmarks,
		c.CrowdUpdates, c.FeedPublished, c.FeedPublishErrs, c.FeedConnected,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}

// ObserveRequest records a planning call.
func (c *Collector) ObserveRequest(kind, mode string, d time.Duration) {
	if c == nil {
		return
	}
	c.RouteRequests.WithLabelValues(kind, mode).Inc()
	c.PlanDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveError records a failed planning call.
func (c *Collector) ObserveError(kind, reason string) {
	if c == nil {
		return
	}
	c.RouteErrors.WithLabelValues(kind, reason).Inc()
}

// CacheLookup records a path cache hit or miss.
func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.PathCacheHits.Inc()
	} else {
		c.PathCacheMisses.Inc()
	}
}

// FallbackLeg records a straight-line fallback sub-path.
func (c *Collector) FallbackLeg() {
	if c == nil {
		return
	}
	c.FallbackLegs.Inc()
}

// ObserveBuild records a completed graph build.
func (c *Collector) ObserveBuild(intersections, roads, landmarks int, d time.Duration) {
	if c == nil {
		return
	}
	c.Intersections.Set(float64(intersections))
	c.Roads.Set(float64(roads))
	c.Landmarks.Set(float64(landmarks))
	c.LandmarkPrecompute.Observe(d.Seconds())
}

// CrowdApplied records applied crowd updates.
func (c *Collector) CrowdApplied(n int) {
	if c == nil {
		return
	}
	c.CrowdUpdates.Add(float64(n))
}

// FeedPublishedInc, FeedPublishErrInc and FeedSetConnected satisfy crowdfeed.Metrics.
func (c *Collector) FeedPublishedInc() {
	if c != nil {
		c.FeedPublished.Inc()
	}
}

func (c *Collector) FeedPublishErrInc() {
	if c != nil {
		c.FeedPublishErrs.Inc()
	}
}

func (c *Collector) FeedSetConnected(connected bool) {
	if c == nil {
		return
	}
	if connected {
		c.FeedConnected.Set(1)
	} else {
		c.FeedConnected.Set(0)
	}
}
