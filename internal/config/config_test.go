package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	coresys "github.com/whalesim/fluidsync/internal/core/system"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fluidsync.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.ParticleRadius != 0.05 || cfg.Simulation.SmoothingFactor != 2.0 {
		t.Fatalf("simulation defaults = %+v", cfg.Simulation)
	}
	phase, err := cfg.Phase()
	if err != nil || phase != coresys.PhasePostUpdate {
		t.Fatalf("phase = %v, %v", phase, err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[simulation]
particle_radius = 0.1
schedule = "Update"
rigid_coupling = false

[loop]
tick_rate = "20ms"
frames = 300
gravity = [0.0, -1.0, 0.0]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.ParticleRadius != 0.1 {
		t.Fatalf("radius = %v", cfg.Simulation.ParticleRadius)
	}
	if cfg.Simulation.RigidCoupling {
		t.Fatal("rigid_coupling not applied")
	}
	if cfg.Loop.TickRate != 20*time.Millisecond || cfg.Loop.Frames != 300 {
		t.Fatalf("loop = %+v", cfg.Loop)
	}
	if cfg.Loop.Gravity != [3]float32{0, -1, 0} {
		t.Fatalf("gravity = %v", cfg.Loop.Gravity)
	}
	// untouched keys keep their defaults
	if cfg.Simulation.SmoothingFactor != 2.0 || cfg.Logging.Format != "console" {
		t.Fatalf("defaults lost: %+v %+v", cfg.Simulation, cfg.Logging)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[loop]\nframes = 10\n")
	t.Setenv("FLUIDSYNC_LOOP_FRAMES", "42")
	t.Setenv("FLUIDSYNC_LOGGING_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Loop.Frames != 42 {
		t.Fatalf("frames = %d", cfg.Loop.Frames)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q", cfg.Logging.Format)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := defaults()
	cfg.Simulation.ParticleRadius = 0
	cfg.Simulation.SmoothingFactor = -1
	cfg.Simulation.Schedule = "Render"
	cfg.Loop.TickRate = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Fatalf("got %d errors, want 4: %v", n, err)
	}
	if !strings.Contains(err.Error(), "particle_radius") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeConfig(t, "[simulation]\nsolver = \"pcisph\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected unsupported solver error")
	}
}

func TestTracingFromEnv(t *testing.T) {
	t.Setenv("FLUIDSYNC_TRACING_ENDPOINT", "http://localhost:4318")
	t.Setenv("FLUIDSYNC_TRACING_SAMPLE_RATIO", "0.25")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tracing.Endpoint != "http://localhost:4318" || cfg.Tracing.SampleRatio != 0.25 {
		t.Fatalf("tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.ServiceName != "fluidsync" {
		t.Fatalf("service name = %q", cfg.Tracing.ServiceName)
	}

	t.Setenv("FLUIDSYNC_TRACING_SAMPLE_RATIO", "2")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for sample ratio above 1")
	}
}
