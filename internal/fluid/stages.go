package fluid

import (
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/whalesim/fluidsync/internal/component"
	"github.com/whalesim/fluidsync/internal/core/ecs"
	"github.com/whalesim/fluidsync/internal/core/event"
	coresys "github.com/whalesim/fluidsync/internal/core/system"
	"github.com/whalesim/fluidsync/internal/rigid"
	"github.com/whalesim/fluidsync/internal/solver"
)

// Sets of the fluid pipeline, chained in this order.
const (
	SetSync      coresys.Set = "fluid.sync"
	SetSample    coresys.Set = "fluid.sample"
	SetStep      coresys.Set = "fluid.step"
	SetWriteback coresys.Set = "fluid.writeback"
)

// stage is the state every fluid system shares.
type stage struct {
	phase  coresys.Phase
	ctx    *Context
	stores *component.Stores
	bus    *event.Bus
	log    *zap.Logger
}

func (s *stage) Phase() coresys.Phase { return s.phase }

func emit[T any](s *stage, ev T) {
	if s.bus != nil {
		event.Emit(s.bus, ev)
	}
}

// RemovalSyncSystem tears down fluids whose declaration went away since it
// last ran, despawned entities included.
type RemovalSyncSystem struct{ *stage }

func (s *RemovalSyncSystem) Set() coresys.Set { return SetSync }

func (s *RemovalSyncSystem) Update(_ time.Duration) {
	for _, e := range s.stores.FluidDeclarations.DrainRemoved() {
		h, ok := s.ctx.Unregister(e)
		if !ok {
			continue
		}
		s.ctx.Remove(h)
		s.stores.FluidHandles.Remove(e)
		s.log.Debug("fluid removed", zap.Stringer("entity", e), zap.Stringer("handle", h))
		emit(s.stage, event.FluidRemoved{Entity: e, Handle: h})
	}
}

// InitSystem creates a solver fluid for every declaration without one.
// Rejected declarations stay pending and are retried next frame.
type InitSystem struct{ *stage }

func (s *InitSystem) Set() coresys.Set { return SetSync }

func (s *InitSystem) Update(_ time.Duration) {
	ecs.EachWithout(s.stores.FluidDeclarations, s.stores.FluidHandles, func(e ecs.EntityID, decl *component.FluidDeclaration) {
		if _, ok := s.ctx.Lookup(e); ok {
			return
		}
		h, err := s.ctx.Create(decl)
		if err != nil {
			s.log.Warn("fluid rejected", zap.Stringer("entity", e), zap.Error(err))
			emit(s.stage, event.FluidRejected{Entity: e, Err: err})
			return
		}
		s.ctx.Register(e, h)
		s.stores.FluidHandles.Set(e, &component.FluidHandle{Handle: h})
		s.stores.ParticlePositions.Set(e, &component.ParticlePositions{Positions: slices.Clone(decl.Positions)})
		s.log.Debug("fluid created",
			zap.Stringer("entity", e),
			zap.Stringer("handle", h),
			zap.Int("particles", len(decl.Positions)))
		emit(s.stage, event.FluidCreated{Entity: e, Handle: h, Particles: len(decl.Positions)})
	})
}

// ForceEditSystem applies the one-frame AppendForces / RemoveForcesAt
// buffers and removes them.
type ForceEditSystem struct{ *stage }

func (s *ForceEditSystem) Set() coresys.Set { return SetSync }

func (s *ForceEditSystem) Update(_ time.Duration) {
	ids := append(s.stores.AppendForces.IDs(), s.stores.RemoveForcesAt.IDs()...)
	slices.Sort(ids)
	for _, e := range slices.Compact(ids) {
		s.apply(e)
		s.stores.AppendForces.Remove(e)
		s.stores.RemoveForcesAt.Remove(e)
	}
}

func (s *ForceEditSystem) apply(e ecs.EntityID) {
	decl, hasDecl := s.stores.FluidDeclarations.Get(e)
	h, ok := s.ctx.Lookup(e)
	if !ok {
		if !hasDecl {
			s.log.Warn("force edit without fluid", zap.Stringer("entity", e))
			return
		}
		// Creation is pending (rejected or not yet synced): edit the
		// declaration so the retry starts from the edited list.
		decl.Forces = s.edit(e, decl.Forces)
		s.log.Debug("force edit applied to pending declaration", zap.Stringer("entity", e))
		return
	}
	f, ok := s.ctx.Liquid.Fluid(h)
	if !ok {
		s.log.Error("mapped fluid missing from solver", zap.Stringer("entity", e), zap.Stringer("handle", h))
		return
	}

	f.NonPressureForces = s.edit(e, f.NonPressureForces)
	if hasDecl {
		decl.Forces = slices.Clone(f.NonPressureForces)
	}
}

// edit returns forces with this frame's removals then appends applied.
func (s *ForceEditSystem) edit(e ecs.EntityID, forces []solver.NonPressureForce) []solver.NonPressureForce {
	n := len(forces)
	if rem, ok := s.stores.RemoveForcesAt.Get(e); ok {
		forces = RemoveForcesAt(forces, rem.Indices, func(idx int) {
			s.log.Warn("force removal index out of range",
				zap.Stringer("entity", e), zap.Int("index", idx), zap.Int("len", n))
			emit(s.stage, event.ForceEditSkipped{Entity: e, Index: idx, Len: n})
		})
	} else {
		forces = slices.Clone(forces)
	}
	if app, ok := s.stores.AppendForces.Get(e); ok {
		forces = append(forces, app.Forces...)
	}
	return forces
}

// RemoveForcesAt returns forces without the given indices. Indices refer to
// forces as passed in, so removing one never shifts another; duplicates
// collapse and out-of-range indices are reported to skip and ignored.
// forces is not modified.
func RemoveForcesAt(forces []solver.NonPressureForce, indices []int, skip func(int)) []solver.NonPressureForce {
	valid := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(forces) {
			if skip != nil {
				skip(idx)
			}
			continue
		}
		valid = append(valid, idx)
	}
	slices.Sort(valid)
	valid = slices.Compact(valid)

	out := slices.Clone(forces)
	for i := len(valid) - 1; i >= 0; i-- {
		out = slices.Delete(out, valid[i], valid[i]+1)
	}
	return out
}

// ColliderSamplingSystem refreshes the coupling set from the rigid world.
type ColliderSamplingSystem struct {
	*stage
	rigid *rigid.World
}

func (s *ColliderSamplingSystem) Set() coresys.Set { return SetSample }

func (s *ColliderSamplingSystem) Update(_ time.Duration) {
	added, removed := s.ctx.Coupling.Refresh(s.rigid, s.ctx.Liquid)
	if added > 0 || removed > 0 {
		s.log.Debug("coupling refreshed",
			zap.Int("added", added),
			zap.Int("removed", removed),
			zap.Int("coupled", s.ctx.Coupling.Len()))
	}
}

// StepSystem advances the fluid by the frame's dt under the rigid world's
// gravity.
type StepSystem struct {
	*stage
	rigid *rigid.World
}

func (s *StepSystem) Set() coresys.Set { return SetStep }

func (s *StepSystem) Update(dt time.Duration) {
	s.ctx.Step(float32(dt.Seconds()), s.rigid.Gravity, s.rigid)
}

// WritebackSystem copies solver positions into each entity's
// ParticlePositions. Each copy touches one entity's buffer only, so they run
// in parallel.
type WritebackSystem struct{ *stage }

func (s *WritebackSystem) Set() coresys.Set { return SetWriteback }

func (s *WritebackSystem) Update(_ time.Duration) {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, e := range s.ctx.Entities() {
		h, _ := s.ctx.Lookup(e)
		f, ok := s.ctx.Liquid.Fluid(h)
		if !ok {
			s.log.Error("mapped fluid missing from solver", zap.Stringer("entity", e), zap.Stringer("handle", h))
			continue
		}
		out, ok := s.stores.ParticlePositions.Get(e)
		if !ok {
			out = &component.ParticlePositions{}
			s.stores.ParticlePositions.Set(e, out)
		}
		g.Go(func() error {
			out.Positions = append(out.Positions[:0], f.Positions...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("writeback failed", zap.Error(err))
	}
}
