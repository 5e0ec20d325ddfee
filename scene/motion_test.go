package scene

import (
	"errors"
	"testing"
	"time"

	"github.com/signalsfoundry/orbital-visualizer/model"
	"github.com/signalsfoundry/orbital-visualizer/orbit"
)

func TestStaticMotionNeverMoves(t *testing.T) {
	m := &StaticMotion{Pos: orbit.Vec3{X: 1, Y: 2, Z: 3}}

	p1, err := m.PositionAt(0)
	if err != nil {
		t.Fatalf("PositionAt(0): %v", err)
	}
	p2, err := m.PositionAt(1e6)
	if err != nil {
		t.Fatalf("PositionAt(1e6): %v", err)
	}
	if p1 != p2 || p1 != (orbit.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("static motion moved: %+v then %+v", p1, p2)
	}
}

func TestKeplerianMotionValidatesAtConstruction(t *testing.T) {
	if _, err := NewKeplerianMotion(orbit.Elements{SemiMajorAxis: 1, OrbitalPeriod: 0}); !errors.Is(err, orbit.ErrInvalidPeriod) {
		t.Fatalf("NewKeplerianMotion error = %v, want %v", err, orbit.ErrInvalidPeriod)
	}

	m, err := NewKeplerianMotion(orbit.Elements{SemiMajorAxis: 10, Eccentricity: 0, OrbitalPeriod: 100})
	if err != nil {
		t.Fatalf("NewKeplerianMotion: %v", err)
	}
	pos, err := m.PositionAt(0)
	if err != nil {
		t.Fatalf("PositionAt: %v", err)
	}
	if pos != (orbit.Vec3{X: 10}) {
		t.Fatalf("PositionAt(0) = %+v, want (10, 0, 0)", pos)
	}
}

// We don't assert exact orbital values (those belong to go-satellite); we
// just ensure the propagated position changes over time.
func TestSGP4MotionChangesOverTime(t *testing.T) {
	// ISS sample TLE.
	tle1 := "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	tle2 := "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"

	epoch := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)
	m := NewSGP4Motion(tle1, tle2, epoch, 1)

	p1, err := m.PositionAt(0)
	if err != nil {
		t.Fatalf("PositionAt(0): %v", err)
	}
	p2, err := m.PositionAt(300)
	if err != nil {
		t.Fatalf("PositionAt(300): %v", err)
	}
	if p1 == p2 {
		t.Fatalf("expected SGP4 position to change over time, got %+v at both times", p1)
	}
}

func TestNewMotionModelSelection(t *testing.T) {
	opts := MotionOptions{TLEEpoch: time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)}

	static := &model.Body{ID: "sun", MotionSource: model.MotionSourceStatic}
	if m, err := NewMotionModel(static, opts); err != nil {
		t.Fatalf("static: %v", err)
	} else if _, ok := m.(*StaticMotion); !ok {
		t.Fatalf("static body got %T", m)
	}

	kep := planetBody("earth", "")
	if m, err := NewMotionModel(kep, opts); err != nil {
		t.Fatalf("keplerian: %v", err)
	} else if _, ok := m.(*KeplerianMotion); !ok {
		t.Fatalf("keplerian body got %T", m)
	}

	badKep := planetBody("x", "")
	badKep.Elements.OrbitalPeriod = 0
	if _, err := NewMotionModel(badKep, opts); err == nil {
		t.Fatalf("expected error for invalid elements")
	}

	missingTLE := &model.Body{ID: "sat", MotionSource: model.MotionSourceTLE}
	if _, err := NewMotionModel(missingTLE, opts); err == nil {
		t.Fatalf("expected error for TLE body without TLE lines")
	}
}
