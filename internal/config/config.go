package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"

	coresys "github.com/whalesim/fluidsync/internal/core/system"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation" envPrefix:"SIMULATION_"`
	Loop       LoopConfig       `toml:"loop" envPrefix:"LOOP_"`
	Scene      SceneConfig      `toml:"scene" envPrefix:"SCENE_"`
	Logging    LoggingConfig    `toml:"logging" envPrefix:"LOGGING_"`
	Tracing    TracingConfig    `toml:"tracing" envPrefix:"TRACING_"`
}

type SimulationConfig struct {
	ParticleRadius  float32 `toml:"particle_radius" env:"PARTICLE_RADIUS"`
	SmoothingFactor float32 `toml:"smoothing_factor" env:"SMOOTHING_FACTOR"`
	Solver          string  `toml:"solver" env:"SOLVER"` // only "wcsph"
	SoundSpeed      float32 `toml:"sound_speed" env:"SOUND_SPEED"`
	RigidCoupling   bool    `toml:"rigid_coupling" env:"RIGID_COUPLING"`
	Schedule        string  `toml:"schedule" env:"SCHEDULE"` // phase name, e.g. "PostUpdate"
}

type LoopConfig struct {
	TickRate time.Duration `toml:"tick_rate" env:"TICK_RATE"`
	Frames   int           `toml:"frames" env:"FRAMES"` // 0 = run until signalled
	Gravity  [3]float32    `toml:"gravity"`
	// StatsEvery logs a stats line every N frames; 0 disables.
	StatsEvery int `toml:"stats_every" env:"STATS_EVERY"`
}

type SceneConfig struct {
	Path       string `toml:"path" env:"PATH"`
	ScriptsDir string `toml:"scripts_dir" env:"SCRIPTS_DIR"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"` // "json" or "console"
}

// TracingConfig enables OTLP/HTTP span export; an empty endpoint disables it.
type TracingConfig struct {
	Endpoint    string  `toml:"endpoint" env:"ENDPOINT"`
	ServiceName string  `toml:"service_name" env:"SERVICE_NAME"`
	SampleRatio float64 `toml:"sample_ratio" env:"SAMPLE_RATIO"`
}

// Load reads the TOML file at path over the defaults, then applies
// FLUIDSYNC_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "FLUIDSYNC_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Simulation.ParticleRadius <= 0 {
		err = multierr.Append(err, fmt.Errorf("simulation.particle_radius must be positive, got %v", c.Simulation.ParticleRadius))
	}
	if c.Simulation.SmoothingFactor <= 0 {
		err = multierr.Append(err, fmt.Errorf("simulation.smoothing_factor must be positive, got %v", c.Simulation.SmoothingFactor))
	}
	if c.Simulation.Solver != "wcsph" {
		err = multierr.Append(err, fmt.Errorf("simulation.solver %q not supported", c.Simulation.Solver))
	}
	if c.Simulation.SoundSpeed <= 0 {
		err = multierr.Append(err, fmt.Errorf("simulation.sound_speed must be positive, got %v", c.Simulation.SoundSpeed))
	}
	if _, perr := c.Phase(); perr != nil {
		err = multierr.Append(err, fmt.Errorf("simulation.schedule: %w", perr))
	}
	if c.Loop.TickRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("loop.tick_rate must be positive, got %v", c.Loop.TickRate))
	}
	if c.Loop.Frames < 0 {
		err = multierr.Append(err, errors.New("loop.frames must not be negative"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		err = multierr.Append(err, fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format %q not supported", c.Logging.Format))
	}
	return err
}

// Phase is the frame phase the fluid pipeline runs in.
func (c *Config) Phase() (coresys.Phase, error) {
	return coresys.ParsePhase(c.Simulation.Schedule)
}

func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			ParticleRadius:  0.05,
			SmoothingFactor: 2.0,
			Solver:          "wcsph",
			SoundSpeed:      20,
			RigidCoupling:   true,
			Schedule:        "PostUpdate",
		},
		Loop: LoopConfig{
			TickRate:   16 * time.Millisecond,
			Frames:     0,
			Gravity:    [3]float32{0, -9.81, 0},
			StatsEvery: 60,
		},
		Scene: SceneConfig{
			Path:       "data/scene.yaml",
			ScriptsDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tracing: TracingConfig{
			ServiceName: "fluidsync",
			SampleRatio: 1,
		},
	}
}
