// Package orbit implements the Keplerian position kernel: a pure,
// deterministic mapping from (simulation time, orbital elements) to a 3D
// Cartesian position, plus the orbit-ring and trail sampling built on it.
//
// Positions are stateless functions of their inputs, so identical inputs
// always yield identical output. That property is what makes rings cacheable
// and trails reconstructable by re-evaluating at past time offsets.
package orbit

import (
	"errors"
	"math"
)

// Kepler's equation is solved by fixed-point iteration with a fixed
// iteration count and no convergence check. This keeps per-frame cost
// bounded and reproducible; accuracy degrades for eccentricities above
// roughly 0.8 (near-parabolic orbits are out of scope anyway, Validate
// rejects e >= 1).
const keplerIterations = 5

// Invalid-parameter errors. The kernel fails fast on these instead of
// propagating NaN or Inf coordinates into the scene.
var (
	ErrInvalidSemiMajorAxis = errors.New("orbit: semi-major axis must be positive")
	ErrInvalidEccentricity  = errors.New("orbit: eccentricity must be in [0, 1)")
	ErrInvalidPeriod        = errors.New("orbit: orbital period must be positive")
)

// Elements are classical Keplerian orbital elements. Angles are in degrees;
// the semi-major axis and period are in whatever scene units the caller
// works in — the kernel only requires them to be self-consistent.
type Elements struct {
	SemiMajorAxis    float64 `json:"semi_major_axis" yaml:"semi_major_axis"`
	Eccentricity     float64 `json:"eccentricity" yaml:"eccentricity"`
	OrbitalPeriod    float64 `json:"orbital_period" yaml:"orbital_period"`
	InclinationDeg   float64 `json:"inclination_deg" yaml:"inclination_deg"`
	AscendingNodeDeg float64 `json:"ascending_node_deg" yaml:"ascending_node_deg"`
	PeriapsisArgDeg  float64 `json:"periapsis_arg_deg" yaml:"periapsis_arg_deg"`
}

// Validate checks the elements describe a stable, well-defined ellipse.
func (el Elements) Validate() error {
	if el.SemiMajorAxis <= 0 || math.IsNaN(el.SemiMajorAxis) || math.IsInf(el.SemiMajorAxis, 0) {
		return ErrInvalidSemiMajorAxis
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 || math.IsNaN(el.Eccentricity) {
		return ErrInvalidEccentricity
	}
	if el.OrbitalPeriod <= 0 || math.IsNaN(el.OrbitalPeriod) || math.IsInf(el.OrbitalPeriod, 0) {
		return ErrInvalidPeriod
	}
	return nil
}

// Position returns the 3D position of a body with the given elements at
// simulation time t (same unit as el.OrbitalPeriod). t = 0 places the body
// at periapsis; the periapsis direction is +X for zero-angle elements and
// motion is counter-clockwise in the orbital plane.
func Position(t float64, el Elements) (Vec3, error) {
	if err := el.Validate(); err != nil {
		return Vec3{}, err
	}
	return position(t, el), nil
}

// position is the unchecked kernel. Callers must have validated el.
func position(t float64, el Elements) Vec3 {
	// Mean anomaly, reduced mod 2π so large simulation times keep full
	// float precision in the trig below.
	M := normalizeRadians(2 * math.Pi * t / el.OrbitalPeriod)

	E := solveKepler(M, el.Eccentricity)

	// True anomaly from eccentric anomaly.
	e := el.Eccentricity
	nu := 2 * math.Atan2(
		math.Sqrt(1+e)*math.Sin(E/2),
		math.Sqrt(1-e)*math.Cos(E/2),
	)

	// Radius from the focus, then coordinates in the orbital plane.
	r := el.SemiMajorAxis * (1 - e*e) / (1 + e*math.Cos(nu))
	xOrb := r * math.Cos(nu)
	yOrb := r * math.Sin(nu)

	return rotateToScene(xOrb, yOrb, el)
}

// solveKepler solves E = M + e·sin(E) by fixed-point iteration seeded at M.
func solveKepler(M, e float64) float64 {
	E := M
	for i := 0; i < keplerIterations; i++ {
		E = M + e*math.Sin(E)
	}
	return E
}

// rotateToScene applies the classical orientation composition
// R_z(Ω)·R_x(i)·R_z(ω) to an orbital-plane point (x, y, 0).
func rotateToScene(xOrb, yOrb float64, el Elements) Vec3 {
	w := degToRad(el.PeriapsisArgDeg)
	i := degToRad(el.InclinationDeg)
	node := degToRad(el.AscendingNodeDeg)

	// Rotate around z by the argument of periapsis.
	x1 := xOrb*math.Cos(w) - yOrb*math.Sin(w)
	y1 := xOrb*math.Sin(w) + yOrb*math.Cos(w)
	z1 := 0.0

	// Rotate around x by the inclination.
	x2 := x1
	y2 := y1*math.Cos(i) - z1*math.Sin(i)
	z2 := y1*math.Sin(i) + z1*math.Cos(i)

	// Rotate around z by the longitude of the ascending node.
	return Vec3{
		X: x2*math.Cos(node) - y2*math.Sin(node),
		Y: x2*math.Sin(node) + y2*math.Cos(node),
		Z: z2,
	}
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// normalizeRadians reduces an angle to [0, 2π).
func normalizeRadians(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}
