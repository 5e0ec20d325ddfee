// Package api exposes the visualizer over HTTP: body queries, frame
// snapshots, an SSE frame stream, and clock/camera control. Every response
// is JSON except the metrics exposition and the event stream.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/orbital-visualizer/internal/config"
	"github.com/signalsfoundry/orbital-visualizer/internal/logging"
	"github.com/signalsfoundry/orbital-visualizer/internal/observability"
	"github.com/signalsfoundry/orbital-visualizer/scene"
	"github.com/signalsfoundry/orbital-visualizer/simclock"
)

const requestIDHeader = "X-Request-Id"

// Options carries the server's collaborators. Engine and Clock are required;
// the rest default to no-ops when unset.
type Options struct {
	Engine    *scene.Engine
	Clock     *simclock.Clock
	Collector *observability.Collector
	Logger    logging.Logger
	Auth      config.AuthConfig
	Keepalive time.Duration
}

// Server is the HTTP front end. It owns an echo instance configured with the
// API routes and middleware stack.
type Server struct {
	echo      *echo.Echo
	engine    *scene.Engine
	clock     *simclock.Clock
	collector *observability.Collector
	log       logging.Logger
	keepalive time.Duration
}

// NewServer builds the HTTP server around an engine and a clock.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	keepalive := opts.Keepalive
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}

	s := &Server{
		echo:      echo.New(),
		engine:    opts.Engine,
		clock:     opts.Clock,
		collector: opts.Collector,
		log:       log,
		keepalive: keepalive,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(requestLogMiddleware(log))
	s.echo.Use(tracingMiddleware())
	if opts.Collector != nil {
		s.echo.Use(opts.Collector.EchoMiddleware())
	}
	s.echo.Use(authMiddleware(opts.Auth))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.handleHealth)
	if s.collector != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.collector.Handler()))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/bodies", s.handleListBodies)
	v1.GET("/bodies/:id/position", s.handleBodyPosition)
	v1.GET("/bodies/:id/ring", s.handleBodyRing)
	v1.GET("/bodies/:id/trail", s.handleBodyTrail)
	v1.GET("/frame", s.handleFrame)
	v1.GET("/stream/frames", s.handleStreamFrames)
	v1.GET("/clock", s.handleGetClock)
	v1.PUT("/clock", s.handleUpdateClock)
	v1.POST("/clock/reset", s.handleResetClock)
	v1.GET("/camera", s.handleGetCamera)
	v1.PUT("/camera", s.handleSetCamera)
}

// Handler returns the server as an http.Handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves the API on addr, blocking until the listener fails.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogMiddleware stamps each request with a request_id, echoes it back
// in the response header, and logs one line per request on completion.
func requestLogMiddleware(log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, reqLog := logging.WithRequestLogger(c.Request().Context(), log)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))

			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			reqLog.Info(ctx, "http request",
				logging.String("method", c.Request().Method),
				logging.String("path", c.Request().URL.Path),
				logging.Int("status", status),
				logging.Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1000),
			)
			return err
		}
	}
}

// tracingMiddleware opens a server span per request, named by route pattern
// so path parameters do not explode the cardinality.
func tracingMiddleware() echo.MiddlewareFunc {
	tracer := otel.Tracer("orbitviz/api")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(
				c.Request().Context(),
				c.Request().Method+" "+c.Path(),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", c.Request().Method),
					attribute.String("http.route", c.Path()),
				),
			)
			defer span.End()

			c.SetRequest(c.Request().WithContext(ctx))
			err := next(c)
			if err != nil {
				span.RecordError(err)
			}
			return err
		}
	}
}

// authMiddleware enforces bearer-token auth when enabled. Health and metrics
// stay open so probes and scrapers work without credentials.
func authMiddleware(auth config.AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !auth.Enabled || exemptPath(c.Request().URL.Path) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(auth.Token)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			return next(c)
		}
	}
}

func exemptPath(path string) bool {
	return path == "/healthz" || path == "/metrics"
}
