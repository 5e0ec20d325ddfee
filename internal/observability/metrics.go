// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the visualizer's frame loop and HTTP surface.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the visualizer and provides
// helpers to wire them into the echo server and the frame engine.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	FramesTotal     prometheus.Counter
	FrameDuration   prometheus.Histogram
	SceneBodies     prometheus.Gauge
	ClockSpeed      prometheus.Gauge
	InvalidElements prometheus.Counter
}

// NewCollector registers visualizer metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitviz_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by path, method, and status code.",
	}, []string{"path", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "orbitviz_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbitviz_http_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"path", "method"})
	durations, err = registerHistogramVec(reg, durations, "orbitviz_http_duration_seconds")
	if err != nil {
		return nil, err
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitviz_frames_total",
		Help: "Total number of frames computed by the engine.",
	}), "orbitviz_frames_total")
	if err != nil {
		return nil, err
	}

	frameDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orbitviz_frame_duration_seconds",
		Help:    "Time spent computing one frame, in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	}), "orbitviz_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	bodies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitviz_scene_bodies",
		Help: "Current number of bodies in the installed scene.",
	}), "orbitviz_scene_bodies")
	if err != nil {
		return nil, err
	}

	speed, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitviz_clock_speed_multiplier",
		Help: "Current simulation clock speed multiplier.",
	}), "orbitviz_clock_speed_multiplier")
	if err != nil {
		return nil, err
	}

	invalid, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitviz_invalid_elements_total",
		Help: "Total number of requests rejected due to invalid orbital parameters.",
	}), "orbitviz_invalid_elements_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		HTTPRequests:    requests,
		HTTPDurations:   durations,
		FramesTotal:     frames,
		FrameDuration:   frameDuration,
		SceneBodies:     bodies,
		ClockSpeed:      speed,
		InvalidElements: invalid,
	}, nil
}

// FrameComputed satisfies the engine's MetricsRecorder interface.
func (c *Collector) FrameComputed(elapsed time.Duration) {
	if c == nil {
		return
	}
	c.FramesTotal.Inc()
	c.FrameDuration.Observe(elapsed.Seconds())
}

// SetSceneBodies satisfies the engine's MetricsRecorder interface.
func (c *Collector) SetSceneBodies(n int) {
	if c == nil {
		return
	}
	c.SceneBodies.Set(float64(n))
}

// InvalidElementsRejected counts a request rejected for invalid orbital
// parameters.
func (c *Collector) InvalidElementsRejected() {
	if c == nil {
		return
	}
	c.InvalidElements.Inc()
}

// SetClockSpeed records the clock speed multiplier for dashboards.
func (c *Collector) SetClockSpeed(speed float64) {
	if c == nil {
		return
	}
	c.ClockSpeed.Set(speed)
}

// EchoMiddleware records request counts and durations for each request. The
// route pattern (not the raw URL) is used as the path label to keep
// cardinality bounded.
func (c *Collector) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			start := time.Now()
			err := next(ec)

			if c == nil {
				return err
			}

			path := ec.Path()
			if path == "" {
				path = ec.Request().URL.Path
			}
			method := ec.Request().Method

			status := ec.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			c.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
			c.HTTPDurations.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
