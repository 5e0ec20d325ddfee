// Package model holds the domain types for the orbital visualizer: the
// celestial bodies being rendered and how their motion is sourced.
package model

import (
	"math"

	"github.com/signalsfoundry/orbital-visualizer/orbit"
)

// MotionSource indicates how a body's motion is determined.
type MotionSource int

const (
	// MotionSourceStatic pins the body at a fixed position (the central star).
	MotionSourceStatic MotionSource = iota
	// MotionSourceKeplerian derives position from classical orbital elements.
	MotionSourceKeplerian
	// MotionSourceTLE propagates a two-line element set with SGP4.
	MotionSourceTLE
)

// Kind classifies a body for display purposes.
type Kind string

const (
	KindStar      Kind = "star"
	KindPlanet    Kind = "planet"
	KindMoon      Kind = "moon"
	KindSatellite Kind = "satellite"
)

// Body describes one celestial body in the scene. Bodies are immutable once
// loaded; configuration changes produce a fresh scene snapshot instead of
// mutating bodies in place.
type Body struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	ParentID string `json:"parent_id,omitempty"`

	// Display attributes.
	RadiusKm float64 `json:"radius_km"`
	Color    string  `json:"color"`

	MotionSource MotionSource   `json:"-"`
	Elements     orbit.Elements `json:"elements"`

	// Self-rotation, used only for display spin; it never feeds the
	// position calculation.
	RotationPeriod float64 `json:"rotation_period"`
	AxialTiltDeg   float64 `json:"axial_tilt_deg"`

	// TLE lines, set when MotionSource is MotionSourceTLE.
	TLELine1 string `json:"tle_line1,omitempty"`
	TLELine2 string `json:"tle_line2,omitempty"`
}

// SpinDeg returns the body's self-rotation angle in degrees at simulation
// time t, in [0, 360). Bodies without a rotation period do not spin.
func (b *Body) SpinDeg(t float64) float64 {
	if b.RotationPeriod == 0 {
		return 0
	}
	deg := math.Mod(t/b.RotationPeriod*360.0, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}

// Orbits reports whether the body moves along a computed orbit.
func (b *Body) Orbits() bool {
	return b.MotionSource != MotionSourceStatic
}
