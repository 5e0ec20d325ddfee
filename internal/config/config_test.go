package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen_addr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.Clock.Tick() != 33*time.Millisecond {
		t.Fatalf("tick = %v, want 33ms", cfg.Clock.Tick())
	}
	if cfg.Trail.Segments != 24 || cfg.Trail.LookbackDeg != 60 {
		t.Fatalf("trail = %+v, want 24 segments over 60 degrees", cfg.Trail)
	}
	if cfg.Auth.Enabled {
		t.Fatal("auth enabled by default")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
listen_addr: ":9999"
clock:
  speed: 50
  tick_ms: 16
stream:
  keepalive_seconds: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("listen_addr = %q, want :9999", cfg.ListenAddr)
	}
	if cfg.Clock.Speed != 50 || cfg.Clock.TickMS != 16 {
		t.Fatalf("clock = %+v, want speed 50 tick 16", cfg.Clock)
	}
	if cfg.Stream.Keepalive() != 5*time.Second {
		t.Fatalf("keepalive = %v, want 5s", cfg.Stream.Keepalive())
	}
	// Untouched sections keep their defaults.
	if cfg.MetricsAddr != ":9090" {
		t.Fatalf("metrics_addr = %q, want :9090", cfg.MetricsAddr)
	}
}

func TestEnvTokenEnablesAuth(t *testing.T) {
	t.Setenv("ORBITVIZ_AUTH_TOKEN", "hunter2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Token != "hunter2" {
		t.Fatalf("auth = %+v, want enabled with env token", cfg.Auth)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"negative speed":     "clock:\n  speed: -1\n",
		"zero tick":          "clock:\n  tick_ms: 0\n",
		"auth without token": "auth:\n  enabled: true\n",
		"bad tle epoch":      "tle:\n  epoch: \"yesterday\"\n",
	}
	for name, content := range cases {
		path := writeFile(t, "bad.yaml", content)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: Load accepted invalid config", name)
		}
	}
}

func TestUntilModifiedCancelsOnWrite(t *testing.T) {
	path := writeFile(t, "scenario.json", `{"name":"a","bodies":[]}`)

	ctx, cancel, err := UntilModified(context.Background(), path)
	if err != nil {
		t.Fatalf("UntilModified: %v", err)
	}
	defer cancel()

	if err := os.WriteFile(path, []byte(`{"name":"b","bodies":[]}`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after file modification")
	}
}
