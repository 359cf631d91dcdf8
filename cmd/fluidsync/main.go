package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/whalesim/fluidsync/internal/component"
	"github.com/whalesim/fluidsync/internal/config"
	"github.com/whalesim/fluidsync/internal/core/ecs"
	"github.com/whalesim/fluidsync/internal/core/event"
	coresys "github.com/whalesim/fluidsync/internal/core/system"
	"github.com/whalesim/fluidsync/internal/fluid"
	"github.com/whalesim/fluidsync/internal/rigid"
	"github.com/whalesim/fluidsync/internal/scene"
	"github.com/whalesim/fluidsync/internal/scripting"
	"github.com/whalesim/fluidsync/internal/solver"
	"github.com/whalesim/fluidsync/internal/system"
	"github.com/whalesim/fluidsync/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config/fluidsync.toml", "path to TOML config (empty for defaults)")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Tracing
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	tracing, err := telemetry.Start(ctx, cfg.Tracing, log.Named("otel"))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(sctx); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	// 4. Scripts
	engine, err := scripting.NewEngine(cfg.Scene.ScriptsDir, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("init lua: %w", err)
	}
	defer engine.Close()

	// 5. Scene
	sc, err := scene.Load(cfg.Scene.Path)
	if err != nil {
		return err
	}

	// 6. ECS world, stores, events, runner
	world := ecs.NewWorld()
	stores := component.NewStores(world)
	bus := event.NewBus()
	runner := coresys.NewRunner()
	subscribeFluidEvents(bus, log)

	// 7. Rigid world and its systems
	rigidWorld := rigid.NewWorld(mgl32.Vec3(cfg.Loop.Gravity))
	system.RegisterRigid(runner, rigidWorld, stores, log.Named("rigid"))

	// 8. Fluid pipeline
	phase, err := cfg.Phase()
	if err != nil {
		return err
	}
	wcsph := solver.NewWCSPH()
	wcsph.SoundSpeed = cfg.Simulation.SoundSpeed
	fluidCtx, err := fluid.New(wcsph).
		InSchedule(phase).
		WithParticleRadius(cfg.Simulation.ParticleRadius).
		WithSmoothingFactor(cfg.Simulation.SmoothingFactor).
		WithRigidCoupling(cfg.Simulation.RigidCoupling).
		Build(&fluid.Host{
			World:  world,
			Stores: stores,
			Runner: runner,
			Rigid:  rigidWorld,
			Bus:    bus,
			Log:    log,
		})
	if err != nil {
		return fmt.Errorf("fluid plugin: %w", err)
	}
	if !cfg.Simulation.RigidCoupling {
		log.Warn("rigid coupling disabled: fluids are synced but not stepped")
	}

	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewBoundsSystem(stores))
	runner.Register(system.NewCleanupSystem(world))
	if err := runner.Build(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	// 9. Spawn the scene
	spawned, err := (&scene.Spawner{
		World:          world,
		Stores:         stores,
		Rigid:          rigidWorld,
		ParticleRadius: cfg.Simulation.ParticleRadius,
		Lua:            engine,
	}).Spawn(sc)
	if err != nil {
		return fmt.Errorf("spawn scene: %w", err)
	}
	log.Info("scene loaded",
		zap.String("path", cfg.Scene.Path),
		zap.Int("fluids", len(spawned.Fluids)),
		zap.Int("bodies", len(spawned.Bodies)))

	// 10. Frame loop
	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()
	dt := cfg.Loop.TickRate
	log.Info("frame loop started",
		zap.Duration("tick", dt),
		zap.Int("frames", cfg.Loop.Frames))

	for frame := 1; cfg.Loop.Frames == 0 || frame <= cfg.Loop.Frames; frame++ {
		select {
		case <-ticker.C:
			runner.Tick(ctx, dt)
			if cfg.Loop.StatsEvery > 0 && frame%cfg.Loop.StatsEvery == 0 {
				logStats(log, frame, fluidCtx, stores, rigidWorld)
			}
		case <-ctx.Done():
			log.Info("shutdown signal received", zap.Int("frame", frame))
			return nil
		}
	}
	log.Info("frame budget reached", zap.Int("frames", cfg.Loop.Frames))
	return nil
}

func subscribeFluidEvents(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(e event.FluidCreated) {
		log.Info("fluid created", zap.Stringer("entity", e.Entity), zap.Int("particles", e.Particles))
	})
	event.Subscribe(bus, func(e event.FluidRemoved) {
		log.Info("fluid removed", zap.Stringer("entity", e.Entity))
	})
	event.Subscribe(bus, func(e event.FluidRejected) {
		log.Warn("fluid rejected", zap.Stringer("entity", e.Entity), zap.Error(e.Err))
	})
	event.Subscribe(bus, func(e event.ForceEditSkipped) {
		log.Warn("force edit skipped", zap.Stringer("entity", e.Entity), zap.Int("index", e.Index), zap.Int("len", e.Len))
	})
}

func logStats(log *zap.Logger, frame int, fc *fluid.Context, stores *component.Stores, rw *rigid.World) {
	var particles int
	for _, h := range fc.Liquid.FluidHandles() {
		if f, ok := fc.Liquid.Fluid(h); ok {
			particles += f.NumParticles()
		}
	}
	var extent mgl32.Vec3
	for _, e := range fc.Entities() {
		if b, ok := stores.Bounds.Get(e); ok {
			ext := system.Extent(b)
			for a := 0; a < 3; a++ {
				extent[a] = max(extent[a], ext[a])
			}
		}
	}
	log.Info("frame stats",
		zap.Int("frame", frame),
		zap.Int("fluids", fc.Len()),
		zap.Int("particles", particles),
		zap.Int("boundaries", fc.Coupling.Len()),
		zap.Int("substeps", fc.Liquid.LastSubsteps()),
		zap.Int("bodies", rw.NumBodies()),
		zap.Float32("max_extent", extent.Len()))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
