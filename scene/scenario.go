package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/orbital-visualizer/model"
	"github.com/signalsfoundry/orbital-visualizer/orbit"
)

// internal JSON shapes — kept unexported so we're free to evolve them.
type scenarioJSON struct {
	Name   string     `json:"name"`
	Bodies []bodyJSON `json:"bodies"`
}

type bodyJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	ParentID string  `json:"parent_id"`
	RadiusKm float64 `json:"radius_km"`
	Color    string  `json:"color"`

	Motion   string          `json:"motion"` // "static" | "keplerian" | "tle"
	Elements *orbit.Elements `json:"elements"`

	RotationPeriod float64 `json:"rotation_period"`
	AxialTiltDeg   float64 `json:"axial_tilt_deg"`

	TLE []string `json:"tle"` // two lines, when motion == "tle"
}

// LoadScenario reads a JSON scenario from r and builds a Scene. Bodies must
// be listed parents-first; orbital elements are validated here so a broken
// scenario fails at load time, not mid-frame.
func LoadScenario(r io.Reader) (*Scene, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("scenario: decode failed: %w", err)
	}

	s := New(payload.Name)
	for _, jb := range payload.Bodies {
		if jb.ID == "" {
			return nil, fmt.Errorf("scenario: body with empty id")
		}

		motion, err := motionFor(jb)
		if err != nil {
			return nil, fmt.Errorf("scenario: body %q: %w", jb.ID, err)
		}

		b := &model.Body{
			ID:             jb.ID,
			Name:           jb.Name,
			Kind:           kindFromString(jb.Kind),
			ParentID:       jb.ParentID,
			RadiusKm:       jb.RadiusKm,
			Color:          jb.Color,
			MotionSource:   motion,
			RotationPeriod: jb.RotationPeriod,
			AxialTiltDeg:   jb.AxialTiltDeg,
		}

		switch b.MotionSource {
		case model.MotionSourceKeplerian:
			if jb.Elements == nil {
				return nil, fmt.Errorf("scenario: body %q: keplerian motion requires elements", jb.ID)
			}
			if err := jb.Elements.Validate(); err != nil {
				return nil, fmt.Errorf("scenario: body %q: %w", jb.ID, err)
			}
			b.Elements = *jb.Elements
		case model.MotionSourceTLE:
			if len(jb.TLE) != 2 {
				return nil, fmt.Errorf("scenario: body %q: tle motion requires exactly two TLE lines", jb.ID)
			}
			b.TLELine1 = jb.TLE[0]
			b.TLELine2 = jb.TLE[1]
		}

		if err := s.AddBody(b); err != nil {
			return nil, fmt.Errorf("scenario: %w", err)
		}
	}

	return s, nil
}

// motionFor maps the JSON "motion" string to a MotionSource. A body with
// elements but no explicit motion string is treated as Keplerian, so
// hand-written scenarios stay terse. Unrecognized values are an error, not a
// silent fallback; a typo would otherwise pin the body at the origin.
func motionFor(jb bodyJSON) (model.MotionSource, error) {
	switch strings.ToLower(strings.TrimSpace(jb.Motion)) {
	case "keplerian", "kepler", "elements":
		return model.MotionSourceKeplerian, nil
	case "tle", "sgp4":
		return model.MotionSourceTLE, nil
	case "static", "fixed":
		return model.MotionSourceStatic, nil
	case "":
		if jb.Elements != nil {
			return model.MotionSourceKeplerian, nil
		}
		return model.MotionSourceStatic, nil
	default:
		return model.MotionSourceStatic, fmt.Errorf("unknown motion %q", jb.Motion)
	}
}

func kindFromString(s string) model.Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "star":
		return model.KindStar
	case "moon":
		return model.KindMoon
	case "satellite", "spacecraft":
		return model.KindSatellite
	default:
		return model.KindPlanet
	}
}
