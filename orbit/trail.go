package orbit

// Trail sampling defaults. The look-back window is angular (a fraction of
// the orbit) rather than a fixed time span, so fast and slow bodies draw
// trails of comparable visual length.
const (
	DefaultTrailSegments    = 24
	DefaultTrailLookbackDeg = 60.0
)

// TrailPoint is one sample of a fading motion trail.
type TrailPoint struct {
	Position Vec3    `json:"position"`
	Opacity  float64 `json:"opacity"`
}

// Trail samples the body's past positions over an angular look-back window
// ending at simulation time t. It returns segments+1 points ordered newest
// first: index 0 is the current position with opacity 1.0, the last point is
// the oldest with opacity 0.0, and opacity falls linearly in between.
//
// Because positions are pure functions of time, the trail is reconstructed
// from scratch on every call; it must be re-evaluated each tick as t moves.
func Trail(t float64, el Elements, segments int, lookbackDeg float64) ([]TrailPoint, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	if segments < 1 {
		segments = DefaultTrailSegments
	}
	if lookbackDeg <= 0 {
		lookbackDeg = DefaultTrailLookbackDeg
	}

	// Convert the angular step between samples into a time delta.
	angleStepDeg := lookbackDeg / float64(segments)
	dt := angleStepDeg / 360.0 * el.OrbitalPeriod

	points := make([]TrailPoint, segments+1)
	for i := 0; i <= segments; i++ {
		points[i] = TrailPoint{
			Position: position(t-float64(i)*dt, el),
			Opacity:  1.0 - float64(i)/float64(segments),
		}
	}
	return points, nil
}
