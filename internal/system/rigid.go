package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/whalesim/fluidsync/internal/component"
	"github.com/whalesim/fluidsync/internal/core/ecs"
	coresys "github.com/whalesim/fluidsync/internal/core/system"
	"github.com/whalesim/fluidsync/internal/rigid"
)

// RegisterRigid installs the rigid-body world's systems in PostUpdate as
// three chained sets: sync backend → step → writeback.
func RegisterRigid(r *coresys.Runner, w *rigid.World, stores *component.Stores, log *zap.Logger) {
	r.Register(&RigidSyncSystem{world: w, stores: stores, log: log, known: make(map[ecs.EntityID]rigid.BodyHandle)})
	r.Register(&RigidStepSystem{world: w})
	r.Register(&RigidWritebackSystem{world: w, stores: stores})
	r.ConfigureSets(coresys.PhasePostUpdate,
		coresys.SetRigidSyncBackend, coresys.SetRigidStep, coresys.SetRigidWriteback)
}

// RigidSyncSystem removes bodies whose RigidBody component went away.
type RigidSyncSystem struct {
	world  *rigid.World
	stores *component.Stores
	log    *zap.Logger
	// known remembers handles because the component is gone when its
	// removal is drained.
	known map[ecs.EntityID]rigid.BodyHandle
}

func (s *RigidSyncSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }
func (s *RigidSyncSystem) Set() coresys.Set     { return coresys.SetRigidSyncBackend }

func (s *RigidSyncSystem) Update(_ time.Duration) {
	for _, e := range s.stores.RigidBodies.DrainRemoved() {
		h, ok := s.known[e]
		if !ok {
			continue
		}
		if rb, still := s.stores.RigidBodies.Get(e); still && rb.Handle == h {
			continue
		}
		s.world.RemoveBody(h)
		delete(s.known, e)
		s.log.Debug("rigid body removed", zap.Stringer("entity", e), zap.Uint32("body", uint32(h)))
	}
	s.stores.RigidBodies.Each(func(e ecs.EntityID, rb *component.RigidBody) {
		s.known[e] = rb.Handle
	})
}

// RigidStepSystem integrates the rigid world by the frame's dt.
type RigidStepSystem struct {
	world *rigid.World
}

func (s *RigidStepSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }
func (s *RigidStepSystem) Set() coresys.Set     { return coresys.SetRigidStep }

func (s *RigidStepSystem) Update(dt time.Duration) {
	s.world.Step(float32(dt.Seconds()))
}

// RigidWritebackSystem copies body poses into entity transforms.
type RigidWritebackSystem struct {
	world  *rigid.World
	stores *component.Stores
}

func (s *RigidWritebackSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }
func (s *RigidWritebackSystem) Set() coresys.Set     { return coresys.SetRigidWriteback }

func (s *RigidWritebackSystem) Update(_ time.Duration) {
	ecs.EachWithout(s.stores.RigidBodies, s.stores.Transforms, func(e ecs.EntityID, _ *component.RigidBody) {
		s.stores.Transforms.Set(e, &component.Transform{Rotation: mgl32.QuatIdent()})
	})
	ecs.Each2(s.stores.RigidBodies, s.stores.Transforms, func(_ ecs.EntityID, rb *component.RigidBody, tf *component.Transform) {
		b, ok := s.world.Body(rb.Handle)
		if !ok {
			return
		}
		tf.Translation = b.Position
		tf.Rotation = b.Rotation
	})
}
