package orbit

import (
	"errors"
	"testing"
)

func TestTrailOpacityFadesLinearly(t *testing.T) {
	el := Elements{SemiMajorAxis: 10, Eccentricity: 0.1, OrbitalPeriod: 100}

	const segments = 20
	trail, err := Trail(250, el, segments, 60)
	if err != nil {
		t.Fatalf("Trail: %v", err)
	}
	if len(trail) != segments+1 {
		t.Fatalf("Trail returned %d points, want %d", len(trail), segments+1)
	}
	if trail[0].Opacity != 1.0 {
		t.Fatalf("newest opacity = %v, want 1.0", trail[0].Opacity)
	}
	if last := trail[len(trail)-1].Opacity; last != 0.0 {
		t.Fatalf("oldest opacity = %v, want 0.0", last)
	}
	for i := 1; i < len(trail); i++ {
		if trail[i].Opacity > trail[i-1].Opacity {
			t.Fatalf("opacity increased at segment %d: %v > %v", i, trail[i].Opacity, trail[i-1].Opacity)
		}
	}
}

func TestTrailHeadMatchesCurrentPosition(t *testing.T) {
	el := Elements{SemiMajorAxis: 4, Eccentricity: 0.3, OrbitalPeriod: 50}

	now := 37.5
	trail, err := Trail(now, el, 12, 60)
	if err != nil {
		t.Fatalf("Trail: %v", err)
	}
	pos, err := Position(now, el)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if trail[0].Position != pos {
		t.Fatalf("trail head %+v does not match Position(now) %+v", trail[0].Position, pos)
	}
}

func TestTrailSpansLookbackWindow(t *testing.T) {
	// With a 90° look-back on a circular orbit, the oldest trail point is a
	// quarter period behind the head.
	el := Elements{SemiMajorAxis: 10, Eccentricity: 0, OrbitalPeriod: 100}

	now := 75.0
	trail, err := Trail(now, el, 30, 90)
	if err != nil {
		t.Fatalf("Trail: %v", err)
	}
	oldest := trail[len(trail)-1].Position
	want, err := Position(now-25, el)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if oldest != want {
		t.Fatalf("oldest trail point = %+v, want %+v", oldest, want)
	}
}

func TestTrailDefaultsAndValidation(t *testing.T) {
	el := Elements{SemiMajorAxis: 1, Eccentricity: 0, OrbitalPeriod: 10}

	trail, err := Trail(5, el, 0, 0)
	if err != nil {
		t.Fatalf("Trail with defaults: %v", err)
	}
	if len(trail) != DefaultTrailSegments+1 {
		t.Fatalf("Trail default length = %d, want %d", len(trail), DefaultTrailSegments+1)
	}

	bad := Elements{SemiMajorAxis: 1, Eccentricity: 1.5, OrbitalPeriod: 10}
	if _, err := Trail(5, bad, 10, 60); !errors.Is(err, ErrInvalidEccentricity) {
		t.Fatalf("Trail error = %v, want %v", err, ErrInvalidEccentricity)
	}
}
