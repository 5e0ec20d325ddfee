// Package config loads the server configuration from YAML with environment
// overrides for secrets, and provides a file-watch helper for scenario
// hot-reload.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	Scenario    string `yaml:"scenario"`

	Clock  ClockConfig  `yaml:"clock"`
	Trail  TrailConfig  `yaml:"trail"`
	Stream StreamConfig `yaml:"stream"`
	Auth   AuthConfig   `yaml:"auth"`
	TLE    TLEConfig    `yaml:"tle"`

	// Follow is the initially followed body ID, if any.
	Follow string `yaml:"follow"`
}

// ClockConfig controls the simulation clock driver.
type ClockConfig struct {
	Speed  float64 `yaml:"speed"`
	TickMS int     `yaml:"tick_ms"`
	Mode   string  `yaml:"mode"` // realtime | accelerated
}

// Tick returns the tick interval as a duration.
func (c ClockConfig) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// TrailConfig controls trail sampling.
type TrailConfig struct {
	Segments    int     `yaml:"segments"`
	LookbackDeg float64 `yaml:"lookback_deg"`
}

// StreamConfig controls the SSE frame stream.
type StreamConfig struct {
	KeepaliveSeconds int `yaml:"keepalive_seconds"`
}

// Keepalive returns the keep-alive interval as a duration.
func (c StreamConfig) Keepalive() time.Duration {
	return time.Duration(c.KeepaliveSeconds) * time.Second
}

// AuthConfig controls bearer-token authentication on the API.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// TLEConfig anchors SGP4 bodies in the scene.
type TLEConfig struct {
	// Epoch is the wall-clock time corresponding to simulation time zero,
	// RFC 3339. Empty means "when the server started".
	Epoch string `yaml:"epoch"`
	// ScaleUnitsPerKm converts go-satellite kilometres into scene units.
	ScaleUnitsPerKm float64 `yaml:"scale_units_per_km"`
}

// EpochTime parses the configured epoch, falling back to now.
func (c TLEConfig) EpochTime() (time.Time, error) {
	if c.Epoch == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, c.Epoch)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: invalid tle.epoch: %w", err)
	}
	return t, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		MetricsAddr: ":9090",
		Scenario:    "configs/solar_system.json",
		Clock:       ClockConfig{Speed: 1, TickMS: 33, Mode: "realtime"},
		Trail:       TrailConfig{Segments: 24, LookbackDeg: 60},
		Stream:      StreamConfig{KeepaliveSeconds: 30},
		TLE:         TLEConfig{ScaleUnitsPerKm: 1},
	}
}

// Load reads a YAML configuration file, layering it over the defaults and
// applying environment overrides. An empty path returns defaults plus env.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv lets deployment environments override the file without editing
// it. Only the token is secret enough to warrant this today.
func applyEnv(cfg *Config) {
	if token := os.Getenv("ORBITVIZ_AUTH_TOKEN"); token != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.Token = token
	}
	if addr := os.Getenv("ORBITVIZ_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
}

func (cfg Config) validate() error {
	if cfg.Clock.Speed < 0 {
		return fmt.Errorf("config: clock.speed must be non-negative")
	}
	if cfg.Clock.TickMS <= 0 {
		return fmt.Errorf("config: clock.tick_ms must be positive")
	}
	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return fmt.Errorf("config: auth.enabled requires auth.token")
	}
	if _, err := cfg.TLE.EpochTime(); err != nil {
		return err
	}
	return nil
}
