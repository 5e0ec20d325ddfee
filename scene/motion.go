package scene

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbital-visualizer/model"
	"github.com/signalsfoundry/orbital-visualizer/orbit"
)

// MotionModel computes a body's position relative to its parent at a given
// simulation time. Models are pure with respect to time: the same simTime
// always yields the same position.
type MotionModel interface {
	PositionAt(simTime float64) (orbit.Vec3, error)
}

// StaticMotion pins a body at a fixed position (the central star at the
// origin, typically).
type StaticMotion struct {
	Pos orbit.Vec3
}

// PositionAt for static motion returns the fixed position.
func (m *StaticMotion) PositionAt(simTime float64) (orbit.Vec3, error) {
	return m.Pos, nil
}

// KeplerianMotion evaluates the closed-form Keplerian kernel. Elements are
// validated at construction so frame computation cannot hit an
// invalid-parameter error mid-loop.
type KeplerianMotion struct {
	el orbit.Elements
}

// NewKeplerianMotion constructs a Keplerian model, rejecting invalid
// elements up front.
func NewKeplerianMotion(el orbit.Elements) (*KeplerianMotion, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	return &KeplerianMotion{el: el}, nil
}

// PositionAt returns the parent-relative position at simTime.
func (m *KeplerianMotion) PositionAt(simTime float64) (orbit.Vec3, error) {
	return orbit.Position(simTime, m.el)
}

// Elements returns the model's orbital elements.
func (m *KeplerianMotion) Elements() orbit.Elements {
	return m.el
}

// SGP4Motion propagates a two-line element set. Simulation time is an
// offset in seconds from the configured epoch. go-satellite works in
// kilometres ECI; Scale converts to scene units.
type SGP4Motion struct {
	sat   satellite.Satellite
	epoch time.Time
	scale float64
}

// NewSGP4Motion constructs an SGP4 model from TLE lines. A non-positive
// scale defaults to 1 (scene unit == kilometre).
func NewSGP4Motion(line1, line2 string, epoch time.Time, scale float64) *SGP4Motion {
	if scale <= 0 {
		scale = 1
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &SGP4Motion{sat: sat, epoch: epoch, scale: scale}
}

// PositionAt propagates the satellite to epoch + simTime seconds.
func (m *SGP4Motion) PositionAt(simTime float64) (orbit.Vec3, error) {
	at := m.epoch.Add(time.Duration(simTime * float64(time.Second))).UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	return orbit.Vec3{
		X: posECI.X * m.scale,
		Y: posECI.Y * m.scale,
		Z: posECI.Z * m.scale,
	}, nil
}

// MotionOptions carry cross-cutting inputs for motion model construction.
type MotionOptions struct {
	// TLEEpoch anchors simulation time zero for SGP4 bodies.
	TLEEpoch time.Time
	// TLEScale converts kilometres to scene units for SGP4 bodies.
	TLEScale float64
}

// NewMotionModel chooses a motion model appropriate for the body.
func NewMotionModel(b *model.Body, opts MotionOptions) (MotionModel, error) {
	switch b.MotionSource {
	case model.MotionSourceKeplerian:
		m, err := NewKeplerianMotion(b.Elements)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", b.ID, err)
		}
		return m, nil
	case model.MotionSourceTLE:
		if b.TLELine1 == "" || b.TLELine2 == "" {
			return nil, fmt.Errorf("body %q: TLE motion requires both TLE lines", b.ID)
		}
		return NewSGP4Motion(b.TLELine1, b.TLELine2, opts.TLEEpoch, opts.TLEScale), nil
	default:
		return &StaticMotion{}, nil
	}
}
