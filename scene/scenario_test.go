package scene

import (
	"strings"
	"testing"

	"github.com/signalsfoundry/orbital-visualizer/model"
)

const sampleScenario = `{
  "name": "Mini System",
  "bodies": [
    {"id": "sun", "name": "Sun", "kind": "star", "radius_km": 696000, "color": "#FDB813", "motion": "static", "rotation_period": 2192832},
    {
      "id": "earth", "name": "Earth", "kind": "planet", "parent_id": "sun",
      "radius_km": 6371, "color": "#2E86AB",
      "elements": {
        "semi_major_axis": 10, "eccentricity": 0.0167, "orbital_period": 365.25,
        "inclination_deg": 0, "ascending_node_deg": 174.873, "periapsis_arg_deg": 288.1
      },
      "rotation_period": 1, "axial_tilt_deg": 23.44
    },
    {
      "id": "iss", "name": "ISS", "kind": "satellite", "parent_id": "earth", "motion": "tle",
      "tle": [
        "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990",
        "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
      ]
    }
  ]
}`

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(strings.NewReader(sampleScenario))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if s.Name != "Mini System" {
		t.Fatalf("scene name = %q", s.Name)
	}
	if s.Len() != 3 {
		t.Fatalf("scene has %d bodies, want 3", s.Len())
	}

	sun := s.Body("sun")
	if sun.MotionSource != model.MotionSourceStatic || sun.Kind != model.KindStar {
		t.Fatalf("sun = %+v", sun)
	}

	// No "motion" key but elements present: defaults to Keplerian.
	earth := s.Body("earth")
	if earth.MotionSource != model.MotionSourceKeplerian {
		t.Fatalf("earth motion = %v, want keplerian", earth.MotionSource)
	}
	if earth.Elements.OrbitalPeriod != 365.25 || earth.AxialTiltDeg != 23.44 {
		t.Fatalf("earth elements not carried: %+v", earth)
	}

	iss := s.Body("iss")
	if iss.MotionSource != model.MotionSourceTLE || iss.TLELine1 == "" || iss.TLELine2 == "" {
		t.Fatalf("iss = %+v", iss)
	}
}

func TestLoadScenarioRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"not json", "not json at all"},
		{"empty id", `{"bodies": [{"name": "x"}]}`},
		{"keplerian without elements", `{"bodies": [{"id": "x", "motion": "keplerian"}]}`},
		{"invalid elements", `{"bodies": [{"id": "x", "elements": {"semi_major_axis": 1, "eccentricity": 3, "orbital_period": 1}}]}`},
		{"tle without lines", `{"bodies": [{"id": "x", "motion": "tle"}]}`},
		{"unknown parent", `{"bodies": [{"id": "x", "parent_id": "y", "motion": "static"}]}`},
		{"duplicate id", `{"bodies": [{"id": "x", "motion": "static"}, {"id": "x", "motion": "static"}]}`},
		{"unknown motion", `{"bodies": [{"id": "x", "motion": "keplarian", "elements": {"semi_major_axis": 1, "eccentricity": 0, "orbital_period": 1}}]}`},
	}

	for _, tc := range cases {
		if _, err := LoadScenario(strings.NewReader(tc.json)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
