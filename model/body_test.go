package model

import (
	"math"
	"testing"
)

func TestSpinDeg(t *testing.T) {
	b := &Body{RotationPeriod: 10}

	cases := []struct{ t, want float64 }{
		{0, 0},
		{2.5, 90},
		{5, 180},
		{10, 0},
		{12.5, 90},
		{-2.5, 270}, // retrograde history still lands in [0, 360)
	}
	for _, tc := range cases {
		if got := b.SpinDeg(tc.t); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("SpinDeg(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}

	still := &Body{}
	if got := still.SpinDeg(42); got != 0 {
		t.Fatalf("SpinDeg without rotation period = %v, want 0", got)
	}
}

func TestOrbits(t *testing.T) {
	if (&Body{MotionSource: MotionSourceStatic}).Orbits() {
		t.Fatalf("static body reported as orbiting")
	}
	if !(&Body{MotionSource: MotionSourceKeplerian}).Orbits() {
		t.Fatalf("keplerian body not reported as orbiting")
	}
	if !(&Body{MotionSource: MotionSourceTLE}).Orbits() {
		t.Fatalf("TLE body not reported as orbiting")
	}
}
