package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/signalsfoundry/orbital-visualizer/internal/logging"
)

// handleStreamFrames pushes computed frames to the client as server-sent
// events. Each frame is one "frame" event with a JSON payload; keep-alive
// comments hold idle connections open through proxies. Slow clients miss
// frames rather than backing up the engine.
func (s *Server) handleStreamFrames(c echo.Context) error {
	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	frames, unsubscribe := s.engine.Subscribe()
	defer unsubscribe()

	ctx := c.Request().Context()
	s.log.Info(ctx, "frame stream connected")
	started := time.Now()
	defer func() {
		s.log.Info(ctx, "frame stream disconnected",
			logging.Float64("duration_seconds", time.Since(started).Seconds()),
		)
	}()

	keepalive := time.NewTicker(s.keepalive)
	defer keepalive.Stop()

	// Send the latest frame immediately so clients render without waiting
	// for the next tick.
	if frame, ok := s.engine.Latest(); ok {
		if err := writeFrameEvent(w, flusher, frame); err != nil {
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-frames:
			if err := writeFrameEvent(w, flusher, frame); err != nil {
				return nil
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func writeFrameEvent(w *echo.Response, flusher http.Flusher, frame any) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: frame\ndata: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
