package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveRequest("plan", "walking", time.Millisecond)
	c.ObserveError("plan", "no_valid_path")
	c.CacheLookup(true)
	c.FallbackLeg()
	c.ObserveBuild(1, 1, 1, time.Second)
	c.CrowdApplied(3)
	c.FeedPublishedInc()
	c.FeedSetConnected(true)
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.ObserveRequest("plan", "bicycle", 2*time.Millisecond)
	c.CacheLookup(false)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`planner_route_requests_total{kind="plan",mode="bicycle"} 1`,
		"planner_path_cache_misses_total 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
