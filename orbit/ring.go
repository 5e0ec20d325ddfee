package orbit

// DefaultRingSamples is the number of segments used for orbit rings when the
// caller does not ask for a specific resolution.
const DefaultRingSamples = 64

// Ring samples the full orbit described by el at n evenly spaced phase
// fractions of one reference period and returns the resulting closed
// polyline. The returned slice holds n+1 points: the last point repeats the
// first so consumers can draw the loop without a special case.
//
// The ring is a function of the elements alone — it samples orbital phase,
// not simulation time, so it is independent of clock speed and can be
// computed once per body and cached.
func Ring(el Elements, n int) ([]Vec3, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	if n < 3 {
		n = DefaultRingSamples
	}

	points := make([]Vec3, n+1)
	for k := 0; k < n; k++ {
		phase := float64(k) / float64(n)
		points[k] = position(phase*el.OrbitalPeriod, el)
	}
	points[n] = points[0]
	return points, nil
}
