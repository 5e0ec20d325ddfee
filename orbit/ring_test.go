package orbit

import (
	"errors"
	"math"
	"testing"
)

func TestRingIsClosedLoop(t *testing.T) {
	el := Elements{
		SemiMajorAxis:    5,
		Eccentricity:     0.2,
		OrbitalPeriod:    42,
		InclinationDeg:   10,
		AscendingNodeDeg: 33,
		PeriapsisArgDeg:  120,
	}

	ring, err := Ring(el, 64)
	if err != nil {
		t.Fatalf("Ring: %v", err)
	}
	if len(ring) != 65 {
		t.Fatalf("Ring returned %d points, want 65", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("ring not closed: first %+v, last %+v", ring[0], ring[len(ring)-1])
	}
	for i, p := range ring {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			t.Fatalf("ring point %d is NaN: %+v", i, p)
		}
	}
}

func TestRingIndependentOfSampleBudget(t *testing.T) {
	// Phase 0 is periapsis no matter how many samples are requested.
	el := Elements{SemiMajorAxis: 8, Eccentricity: 0.4, OrbitalPeriod: 10}

	coarse, err := Ring(el, 16)
	if err != nil {
		t.Fatalf("Ring(16): %v", err)
	}
	fine, err := Ring(el, 256)
	if err != nil {
		t.Fatalf("Ring(256): %v", err)
	}
	if coarse[0] != fine[0] {
		t.Fatalf("periapsis sample differs across resolutions: %+v vs %+v", coarse[0], fine[0])
	}
}

func TestRingDefaultsLowSampleCounts(t *testing.T) {
	el := Elements{SemiMajorAxis: 1, Eccentricity: 0, OrbitalPeriod: 1}

	ring, err := Ring(el, 0)
	if err != nil {
		t.Fatalf("Ring: %v", err)
	}
	if len(ring) != DefaultRingSamples+1 {
		t.Fatalf("Ring with n=0 returned %d points, want %d", len(ring), DefaultRingSamples+1)
	}
}

func TestRingRejectsInvalidElements(t *testing.T) {
	el := Elements{SemiMajorAxis: 1, Eccentricity: 0, OrbitalPeriod: 0}
	if _, err := Ring(el, 64); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("Ring error = %v, want %v", err, ErrInvalidPeriod)
	}
}
