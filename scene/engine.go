package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/orbital-visualizer/internal/logging"
	"github.com/signalsfoundry/orbital-visualizer/model"
	"github.com/signalsfoundry/orbital-visualizer/orbit"
)

// BodyState is one body's contribution to a frame.
type BodyState struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     model.Kind `json:"kind"`
	ParentID string     `json:"parent_id,omitempty"`
	Color    string     `json:"color,omitempty"`
	RadiusKm float64    `json:"radius_km"`

	Position     orbit.Vec3         `json:"position"`
	SpinDeg      float64            `json:"spin_deg"`
	AxialTiltDeg float64            `json:"axial_tilt_deg"`
	Trail        []orbit.TrailPoint `json:"trail,omitempty"`
}

// Frame is an immutable snapshot of every body at one simulation time. All
// positions within a frame were computed from the same time value.
type Frame struct {
	Seq      uint64      `json:"seq"`
	Time     float64     `json:"time"`
	Bodies   []BodyState `json:"bodies"`
	FollowID string      `json:"follow_id,omitempty"`
	// Focus is the position of the followed body, used by the camera to
	// re-center the view. Zero when nothing is followed.
	Focus orbit.Vec3 `json:"focus"`
}

// MetricsRecorder receives engine-level observability signals. The
// observability collector implements this; tests use capturing fakes.
type MetricsRecorder interface {
	FrameComputed(elapsed time.Duration)
	SetSceneBodies(n int)
}

// ErrUnknownBody is returned for lookups against body IDs that are not in
// the installed scene.
var ErrUnknownBody = errors.New("scene: unknown body")

// ErrNoOrbit is returned when a ring or trail is requested for a body that
// does not orbit anything.
var ErrNoOrbit = errors.New("scene: body does not orbit")

// trailSecondsTLE is the look-back window used for TLE bodies, whose
// orbital period is not expressed in scene time units. Roughly a tenth of a
// LEO revolution.
const trailSecondsTLE = 600.0

// Engine computes frames from a scene. It is driven by the simulation clock
// driver: one OnTick call per frame, after the clock has been advanced for
// that frame.
type Engine struct {
	mu sync.RWMutex

	scene  *Scene
	models map[string]MotionModel
	// rings are deterministic per body, so they are computed once when a
	// scene is installed and served from cache afterwards.
	rings map[string][]orbit.Vec3

	motionOpts    MotionOptions
	trailSegments int
	lookbackDeg   float64
	followID      string

	seq    uint64
	latest *Frame

	subs    map[int]chan Frame
	nextSub int

	log     logging.Logger
	metrics MetricsRecorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetricsRecorder wires engine metrics into a collector.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTrailShape overrides the trail sampling defaults.
func WithTrailShape(segments int, lookbackDeg float64) Option {
	return func(e *Engine) {
		e.trailSegments = segments
		e.lookbackDeg = lookbackDeg
	}
}

// WithFollow sets the initially followed body.
func WithFollow(bodyID string) Option {
	return func(e *Engine) { e.followID = bodyID }
}

// WithMotionOptions sets cross-cutting motion model inputs (TLE epoch and
// scale).
func WithMotionOptions(opts MotionOptions) Option {
	return func(e *Engine) { e.motionOpts = opts }
}

// NewEngine builds an engine for the given scene. Motion models and orbit
// rings are constructed eagerly so invalid bodies are rejected at startup
// rather than mid-frame.
func NewEngine(s *Scene, opts ...Option) (*Engine, error) {
	e := &Engine{
		trailSegments: orbit.DefaultTrailSegments,
		lookbackDeg:   orbit.DefaultTrailLookbackDeg,
		log:           logging.Noop(),
		subs:          make(map[int]chan Frame),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.SetScene(s); err != nil {
		return nil, err
	}
	return e, nil
}

// SetScene installs a new scene snapshot, rebuilding motion models and ring
// caches. The follow target is kept if the new scene still has that body.
func (e *Engine) SetScene(s *Scene) error {
	if s == nil {
		return fmt.Errorf("scene: engine requires a non-nil scene")
	}

	models := make(map[string]MotionModel, s.Len())
	rings := make(map[string][]orbit.Vec3)
	for _, b := range s.Bodies() {
		m, err := NewMotionModel(b, e.motionOpts)
		if err != nil {
			return err
		}
		models[b.ID] = m

		if km, ok := m.(*KeplerianMotion); ok {
			ring, err := orbit.Ring(km.Elements(), orbit.DefaultRingSamples)
			if err != nil {
				return fmt.Errorf("body %q: %w", b.ID, err)
			}
			rings[b.ID] = ring
		}
	}

	e.mu.Lock()
	e.scene = s
	e.models = models
	e.rings = rings
	if e.followID != "" && s.Body(e.followID) == nil {
		e.followID = ""
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.SetSceneBodies(s.Len())
	}
	e.log.Info(context.Background(), "scene installed",
		logging.String("scenario", s.Name),
		logging.Int("bodies", s.Len()),
	)
	return nil
}

// OnTick computes the frame for simTime, stores it as the latest, and fans
// it out to subscribers. It is the driver's per-frame listener.
func (e *Engine) OnTick(simTime float64) {
	start := time.Now()
	frame := e.computeFrame(simTime)

	e.mu.Lock()
	e.seq++
	frame.Seq = e.seq
	e.latest = &frame
	subs := make([]chan Frame, 0, len(e.subs))
	for _, ch := range e.subs {
		subs = append(subs, ch)
	}
	e.mu.Unlock()

	// Slow subscribers skip frames rather than stalling the loop.
	for _, ch := range subs {
		select {
		case ch <- frame:
		default:
		}
	}

	if e.metrics != nil {
		e.metrics.FrameComputed(time.Since(start))
	}
}

// computeFrame evaluates every body at the same simulation time. Bodies are
// visited in scene order (parents first) so children can be offset by their
// parent's position in a single pass.
func (e *Engine) computeFrame(simTime float64) Frame {
	e.mu.RLock()
	s := e.scene
	models := e.models
	followID := e.followID
	segments := e.trailSegments
	lookback := e.lookbackDeg
	e.mu.RUnlock()

	bodies := s.Bodies()
	positions := make(map[string]orbit.Vec3, len(bodies))
	states := make([]BodyState, 0, len(bodies))

	frame := Frame{Time: simTime, FollowID: followID}
	for _, b := range bodies {
		m := models[b.ID]
		local, err := m.PositionAt(simTime)
		if err != nil {
			// Models validate at construction, so this is exceptional;
			// skip the body for this frame rather than poisoning it.
			e.log.Warn(context.Background(), "body position failed",
				logging.String("body", b.ID),
				logging.String("error", err.Error()),
			)
			continue
		}

		parentPos := positions[b.ParentID] // zero value for root bodies
		pos := parentPos.Add(local)
		positions[b.ID] = pos

		state := BodyState{
			ID:           b.ID,
			Name:         b.Name,
			Kind:         b.Kind,
			ParentID:     b.ParentID,
			Color:        b.Color,
			RadiusKm:     b.RadiusKm,
			Position:     pos,
			SpinDeg:      b.SpinDeg(simTime),
			AxialTiltDeg: b.AxialTiltDeg,
		}
		if b.Orbits() {
			state.Trail = trailFor(m, simTime, segments, lookback, parentPos)
		}
		states = append(states, state)

		if b.ID == followID {
			frame.Focus = pos
		}
	}

	frame.Bodies = states
	return frame
}

// trailFor samples a fading trail for any motion model. Keplerian bodies use
// the angular look-back window from the kernel; TLE bodies fall back to a
// fixed time window since their period is not in scene units. Trail points
// are parent-relative and offset by the parent's current position.
func trailFor(m MotionModel, simTime float64, segments int, lookbackDeg float64, parentPos orbit.Vec3) []orbit.TrailPoint {
	if km, ok := m.(*KeplerianMotion); ok {
		trail, err := orbit.Trail(simTime, km.Elements(), segments, lookbackDeg)
		if err != nil {
			return nil
		}
		for i := range trail {
			trail[i].Position = trail[i].Position.Add(parentPos)
		}
		return trail
	}

	if segments < 1 {
		segments = orbit.DefaultTrailSegments
	}
	dt := trailSecondsTLE / float64(segments)
	trail := make([]orbit.TrailPoint, segments+1)
	for i := 0; i <= segments; i++ {
		pos, err := m.PositionAt(simTime - float64(i)*dt)
		if err != nil {
			return nil
		}
		trail[i] = orbit.TrailPoint{
			Position: pos.Add(parentPos),
			Opacity:  1.0 - float64(i)/float64(segments),
		}
	}
	return trail
}

// PositionAt evaluates a single body's absolute position at an explicit
// simulation time, walking the parent chain so moons come back in scene
// coordinates. Used by the query API; the frame loop uses computeFrame.
func (e *Engine) PositionAt(bodyID string, simTime float64) (orbit.Vec3, error) {
	e.mu.RLock()
	s := e.scene
	models := e.models
	e.mu.RUnlock()

	var walk func(id string, depth int) (orbit.Vec3, error)
	walk = func(id string, depth int) (orbit.Vec3, error) {
		if depth > 16 {
			return orbit.Vec3{}, fmt.Errorf("scene: parent chain too deep at %q", id)
		}
		b := s.Body(id)
		if b == nil {
			return orbit.Vec3{}, fmt.Errorf("%w %q", ErrUnknownBody, id)
		}
		local, err := models[id].PositionAt(simTime)
		if err != nil {
			return orbit.Vec3{}, err
		}
		if b.ParentID == "" {
			return local, nil
		}
		parent, err := walk(b.ParentID, depth+1)
		if err != nil {
			return orbit.Vec3{}, err
		}
		return parent.Add(local), nil
	}
	return walk(bodyID, 0)
}

// TrailAt samples a body's trail at an explicit simulation time with the
// given shape, offset by the parent's position at that time. A non-positive
// segments or lookback falls back to the engine's configured defaults.
func (e *Engine) TrailAt(bodyID string, simTime float64, segments int, lookbackDeg float64) ([]orbit.TrailPoint, error) {
	e.mu.RLock()
	s := e.scene
	models := e.models
	defSegments := e.trailSegments
	defLookback := e.lookbackDeg
	e.mu.RUnlock()

	b := s.Body(bodyID)
	if b == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownBody, bodyID)
	}
	if !b.Orbits() {
		return nil, fmt.Errorf("%w: %q", ErrNoOrbit, bodyID)
	}
	if segments < 1 {
		segments = defSegments
	}
	if lookbackDeg <= 0 {
		lookbackDeg = defLookback
	}

	parentPos := orbit.Vec3{}
	if b.ParentID != "" {
		var err error
		parentPos, err = e.PositionAt(b.ParentID, simTime)
		if err != nil {
			return nil, err
		}
	}
	return trailFor(models[bodyID], simTime, segments, lookbackDeg, parentPos), nil
}

// Latest returns the most recent frame, if any frame has been computed yet.
func (e *Engine) Latest() (Frame, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.latest == nil {
		return Frame{}, false
	}
	return *e.latest, true
}

// Follow sets the camera-follow target. An empty ID clears following.
func (e *Engine) Follow(bodyID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if bodyID != "" && e.scene.Body(bodyID) == nil {
		return fmt.Errorf("%w %q", ErrUnknownBody, bodyID)
	}
	e.followID = bodyID
	return nil
}

// Following returns the currently followed body ID, if any.
func (e *Engine) Following() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.followID
}

// Ring returns the cached orbit ring for a Keplerian body. The ring is
// parent-relative; renderers translate it by the parent's current position.
func (e *Engine) Ring(bodyID string) ([]orbit.Vec3, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ring, ok := e.rings[bodyID]
	return ring, ok
}

// Scene returns the currently installed scene snapshot.
func (e *Engine) Scene() *Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scene
}

// Subscribe registers a frame channel and returns it with an unsubscribe
// function. The channel is buffered; subscribers that fall behind miss
// frames instead of blocking the frame loop.
func (e *Engine) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.mu.Unlock()

	return ch, func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}
