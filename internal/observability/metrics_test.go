package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestEchoMiddlewareRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	e := echo.New()
	e.Use(collector.EchoMiddleware())
	e.GET("/api/v1/bodies", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bodies", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/v1/bodies", "GET", "200")); got != 1 {
		t.Fatalf("orbitviz_http_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "orbitviz_http_duration_seconds", map[string]string{
		"path":   "/api/v1/bodies",
		"method": "GET",
	}); count != 1 {
		t.Fatalf("orbitviz_http_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestEchoMiddlewareRecordsErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	e := echo.New()
	e.Use(collector.EchoMiddleware())
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/boom", "GET", "404")); got != 1 {
		t.Fatalf("orbitviz_http_requests_total{code=404} = %v, want 1", got)
	}
}

func TestFrameRecorderUpdatesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.FrameComputed(2 * time.Millisecond)
	collector.FrameComputed(3 * time.Millisecond)
	collector.SetSceneBodies(9)
	collector.SetClockSpeed(50)

	if got := testutil.ToFloat64(collector.FramesTotal); got != 2 {
		t.Fatalf("orbitviz_frames_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.SceneBodies); got != 9 {
		t.Fatalf("orbitviz_scene_bodies = %v, want 9", got)
	}
	if got := testutil.ToFloat64(collector.ClockSpeed); got != 50 {
		t.Fatalf("orbitviz_clock_speed_multiplier = %v, want 50", got)
	}
}

func TestNewCollectorToleratesReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCollector(reg); err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	if _, err := NewCollector(reg); err != nil {
		t.Fatalf("second NewCollector on same registry: %v", err)
	}
}

func TestMetricsHandlerExposesFamilies(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	collector.FrameComputed(time.Millisecond)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "orbitviz_frames_total") {
		t.Fatalf("metrics output missing orbitviz_frames_total:\n%s", body)
	}
}

func histogramSampleCount(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m.GetLabel(), labels) {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) != len(want) {
		return false
	}
	for _, lp := range got {
		if want[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

