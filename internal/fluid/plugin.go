package fluid

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/whalesim/fluidsync/internal/component"
	"github.com/whalesim/fluidsync/internal/core/ecs"
	"github.com/whalesim/fluidsync/internal/core/event"
	coresys "github.com/whalesim/fluidsync/internal/core/system"
	"github.com/whalesim/fluidsync/internal/rigid"
	"github.com/whalesim/fluidsync/internal/solver"
)

const (
	DefaultParticleRadius  float32 = 0.05
	DefaultSmoothingFactor float32 = 2.0
)

var (
	// ErrPluginConsumed is returned when a plugin is built a second time;
	// its solver already belongs to the first Context.
	ErrPluginConsumed = errors.New("fluid plugin already built")
	// ErrHost is returned when the host lacks something the plugin needs.
	ErrHost = errors.New("incomplete host")
)

// Host is what the plugin installs itself into.
type Host struct {
	World  *ecs.World
	Stores *component.Stores
	Runner *coresys.Runner
	// Rigid is required when rigid coupling is enabled.
	Rigid *rigid.World
	// Bus and Log are optional.
	Bus *event.Bus
	Log *zap.Logger
}

// Plugin configures and installs the fluid pipeline.
//
// With rigid coupling (the default) the pipeline runs sync, collider
// sampling, step and writeback. Without it only the sync stage runs and
// stepping is left to the caller.
type Plugin struct {
	phase           coresys.Phase
	rigidCoupling   bool
	solver          solver.PressureSolver
	particleRadius  float32
	smoothingFactor float32
	consumed        bool
}

func New(s solver.PressureSolver) *Plugin {
	return &Plugin{
		phase:           coresys.PhasePostUpdate,
		rigidCoupling:   true,
		solver:          s,
		particleRadius:  DefaultParticleRadius,
		smoothingFactor: DefaultSmoothingFactor,
	}
}

// InSchedule moves the pipeline to another phase.
func (p *Plugin) InSchedule(phase coresys.Phase) *Plugin {
	p.phase = phase
	return p
}

func (p *Plugin) WithSolver(s solver.PressureSolver) *Plugin {
	p.solver = s
	return p
}

func (p *Plugin) WithParticleRadius(r float32) *Plugin {
	p.particleRadius = r
	return p
}

func (p *Plugin) WithSmoothingFactor(f float32) *Plugin {
	p.smoothingFactor = f
	return p
}

func (p *Plugin) WithRigidCoupling(enabled bool) *Plugin {
	p.rigidCoupling = enabled
	return p
}

// Build creates the Context, hands it the solver and registers the stages.
// A plugin can be built once.
func (p *Plugin) Build(h *Host) (*Context, error) {
	if p.consumed {
		return nil, ErrPluginConsumed
	}
	if h == nil || h.World == nil || h.Stores == nil || h.Runner == nil {
		return nil, fmt.Errorf("%w: world, stores and runner are required", ErrHost)
	}
	if p.rigidCoupling && h.Rigid == nil {
		return nil, fmt.Errorf("%w: rigid coupling needs a rigid world", ErrHost)
	}
	liquid, err := solver.NewLiquidWorld(p.solver, p.particleRadius, p.smoothingFactor)
	if err != nil {
		return nil, fmt.Errorf("liquid world: %w", err)
	}
	p.solver = nil
	p.consumed = true

	log := h.Log
	if log == nil {
		log = zap.NewNop()
	}
	ctx := NewContext(liquid)
	newStage := func(phase coresys.Phase) *stage {
		return &stage{phase: phase, ctx: ctx, stores: h.Stores, bus: h.Bus, log: log.Named("fluid")}
	}
	st := newStage(p.phase)
	r := h.Runner

	r.Register(&RemovalSyncSystem{st})
	r.Register(&InitSystem{st})
	r.Register(&ForceEditSystem{st})

	if p.rigidCoupling {
		r.Register(&ColliderSamplingSystem{stage: st, rigid: h.Rigid})
		r.Register(&StepSystem{stage: st, rigid: h.Rigid})
		r.Register(&WritebackSystem{st})
		r.ConfigureSets(p.phase,
			coresys.SetRigidWriteback,
			SetSync, SetSample, SetStep, SetWriteback,
			coresys.SetTransformPropagate)
	} else {
		r.ConfigureSets(p.phase, coresys.SetRigidWriteback, SetSync, coresys.SetTransformPropagate)
	}

	// Despawns must still be reconciled before transform propagation when
	// the pipeline lives elsewhere.
	if p.phase != coresys.PhasePostUpdate {
		r.Register(&RemovalSyncSystem{newStage(coresys.PhasePostUpdate)})
		r.Order(coresys.PhasePostUpdate, SetSync, coresys.SetTransformPropagate)
	}

	log.Info("fluid pipeline installed",
		zap.String("phase", p.phase.String()),
		zap.Bool("rigid_coupling", p.rigidCoupling),
		zap.String("solver", liquid.Solver().Name()),
		zap.Float32("particle_radius", liquid.ParticleRadius()),
		zap.Float32("smoothing_factor", liquid.SmoothingFactor()),
		zap.Float32("kernel_radius", liquid.KernelRadius()))
	return ctx, nil
}
