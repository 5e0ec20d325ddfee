package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/signalsfoundry/orbital-visualizer/internal/logging"
	"github.com/signalsfoundry/orbital-visualizer/model"
	"github.com/signalsfoundry/orbital-visualizer/orbit"
	"github.com/signalsfoundry/orbital-visualizer/scene"
)

type bodiesResponse struct {
	Scenario string        `json:"scenario"`
	Bodies   []*model.Body `json:"bodies"`
}

type positionResponse struct {
	BodyID   string     `json:"body_id"`
	Time     float64    `json:"time"`
	Position orbit.Vec3 `json:"position"`
}

type ringResponse struct {
	BodyID string       `json:"body_id"`
	Points []orbit.Vec3 `json:"points"`
}

type trailResponse struct {
	BodyID string             `json:"body_id"`
	Time   float64            `json:"time"`
	Points []orbit.TrailPoint `json:"points"`
}

type clockState struct {
	Time   float64 `json:"time"`
	Speed  float64 `json:"speed"`
	Paused bool    `json:"paused"`
}

type clockUpdateRequest struct {
	Speed  *float64 `json:"speed"`
	Paused *bool    `json:"paused"`
}

type cameraState struct {
	FollowID string `json:"follow_id"`
}

// Resolution caps for client-chosen sampling counts. A single request must
// not be able to drive an arbitrarily large allocation.
const (
	maxRingSamples   = 4096
	maxTrailSegments = 4096
)

// finiteQueryFloat parses a finite float query parameter. NaN and infinities
// are rejected up front so they never reach the kernel or the JSON encoder.
func finiteQueryFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListBodies(c echo.Context) error {
	sc := s.engine.Scene()
	return c.JSON(http.StatusOK, bodiesResponse{
		Scenario: sc.Name,
		Bodies:   sc.Bodies(),
	})
}

// handleBodyPosition evaluates one body at an arbitrary simulation time.
// Without a t parameter it uses the clock's current time.
func (s *Server) handleBodyPosition(c echo.Context) error {
	id := c.Param("id")

	t := s.clock.Now()
	if raw := c.QueryParam("t"); raw != "" {
		parsed, ok := finiteQueryFloat(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "t must be a finite number")
		}
		t = parsed
	}

	pos, err := s.engine.PositionAt(id, t)
	if err != nil {
		return s.bodyError(err)
	}
	return c.JSON(http.StatusOK, positionResponse{BodyID: id, Time: t, Position: pos})
}

// handleBodyRing serves the body's full-orbit polyline. The default
// resolution is cached by the engine; a samples parameter recomputes at the
// requested resolution.
func (s *Server) handleBodyRing(c echo.Context) error {
	id := c.Param("id")

	b := s.engine.Scene().Body(id)
	if b == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown body")
	}

	if raw := c.QueryParam("samples"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "samples must be an integer")
		}
		if n > maxRingSamples {
			return echo.NewHTTPError(http.StatusBadRequest, "samples exceeds maximum resolution")
		}
		if b.MotionSource != model.MotionSourceKeplerian {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "body has no closed orbit ring")
		}
		points, err := orbit.Ring(b.Elements, n)
		if err != nil {
			return s.bodyError(err)
		}
		return c.JSON(http.StatusOK, ringResponse{BodyID: id, Points: points})
	}

	points, ok := s.engine.Ring(id)
	if !ok {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "body has no closed orbit ring")
	}
	return c.JSON(http.StatusOK, ringResponse{BodyID: id, Points: points})
}

func (s *Server) handleBodyTrail(c echo.Context) error {
	id := c.Param("id")

	t := s.clock.Now()
	if raw := c.QueryParam("t"); raw != "" {
		parsed, ok := finiteQueryFloat(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "t must be a finite number")
		}
		t = parsed
	}

	segments := 0
	if raw := c.QueryParam("segments"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "segments must be an integer")
		}
		if n > maxTrailSegments {
			return echo.NewHTTPError(http.StatusBadRequest, "segments exceeds maximum resolution")
		}
		segments = n
	}

	lookback := 0.0
	if raw := c.QueryParam("lookback"); raw != "" {
		deg, ok := finiteQueryFloat(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "lookback must be a finite number")
		}
		lookback = deg
	}

	points, err := s.engine.TrailAt(id, t, segments, lookback)
	if err != nil {
		return s.bodyError(err)
	}
	return c.JSON(http.StatusOK, trailResponse{BodyID: id, Time: t, Points: points})
}

// handleFrame serves the latest computed frame. Before the driver has ticked
// once there is nothing to serve yet.
func (s *Server) handleFrame(c echo.Context) error {
	frame, ok := s.engine.Latest()
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no frame computed yet")
	}
	return c.JSON(http.StatusOK, frame)
}

func (s *Server) handleGetClock(c echo.Context) error {
	return c.JSON(http.StatusOK, s.clockState())
}

func (s *Server) handleUpdateClock(c echo.Context) error {
	var req clockUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clock update")
	}

	if req.Speed != nil {
		if err := s.clock.SetSpeed(*req.Speed); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if s.collector != nil {
			s.collector.SetClockSpeed(*req.Speed)
		}
	}
	if req.Paused != nil {
		if *req.Paused {
			s.clock.Pause()
		} else {
			s.clock.Resume()
		}
	}

	state := s.clockState()
	s.log.Info(c.Request().Context(), "clock updated",
		logging.Float64("speed", state.Speed),
		logging.Any("paused", state.Paused),
	)
	return c.JSON(http.StatusOK, state)
}

func (s *Server) handleResetClock(c echo.Context) error {
	s.clock.Reset()
	s.log.Info(c.Request().Context(), "clock reset")
	return c.JSON(http.StatusOK, s.clockState())
}

func (s *Server) handleGetCamera(c echo.Context) error {
	return c.JSON(http.StatusOK, cameraState{FollowID: s.engine.Following()})
}

// handleSetCamera switches the followed body. An empty body_id clears
// following.
func (s *Server) handleSetCamera(c echo.Context) error {
	var req struct {
		BodyID string `json:"body_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid camera update")
	}
	if err := s.engine.Follow(req.BodyID); err != nil {
		return s.bodyError(err)
	}
	return c.JSON(http.StatusOK, cameraState{FollowID: s.engine.Following()})
}

func (s *Server) clockState() clockState {
	return clockState{
		Time:   s.clock.Now(),
		Speed:  s.clock.Speed(),
		Paused: s.clock.Paused(),
	}
}

// bodyError maps engine and kernel errors onto HTTP statuses: unknown bodies
// are 404, invalid orbital parameters are 422, anything else is 500.
func (s *Server) bodyError(err error) error {
	switch {
	case errors.Is(err, scene.ErrUnknownBody):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, scene.ErrNoOrbit):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, orbit.ErrInvalidSemiMajorAxis),
		errors.Is(err, orbit.ErrInvalidEccentricity),
		errors.Is(err, orbit.ErrInvalidPeriod):
		if s.collector != nil {
			s.collector.InvalidElementsRejected()
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
