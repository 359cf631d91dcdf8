package component

import "github.com/whalesim/fluidsync/internal/core/ecs"

// Stores holds one typed store per component, all registered with the
// world so despawns clear them.
type Stores struct {
	FluidDeclarations *ecs.Store[FluidDeclaration]
	FluidHandles      *ecs.Store[FluidHandle]
	ParticlePositions *ecs.Store[ParticlePositions]
	AppendForces      *ecs.Store[AppendForces]
	RemoveForcesAt    *ecs.Store[RemoveForcesAt]

	RigidBodies *ecs.Store[RigidBody]
	Transforms  *ecs.Store[Transform]
	Bounds      *ecs.Store[Bounds]
}

func NewStores(w *ecs.World) *Stores {
	s := &Stores{
		FluidDeclarations: ecs.NewTrackedStore[FluidDeclaration](),
		FluidHandles:      ecs.NewStore[FluidHandle](),
		ParticlePositions: ecs.NewStore[ParticlePositions](),
		AppendForces:      ecs.NewStore[AppendForces](),
		RemoveForcesAt:    ecs.NewStore[RemoveForcesAt](),
		RigidBodies:       ecs.NewTrackedStore[RigidBody](),
		Transforms:        ecs.NewStore[Transform](),
		Bounds:            ecs.NewStore[Bounds](),
	}
	for _, r := range []ecs.Removable{
		s.FluidDeclarations, s.FluidHandles, s.ParticlePositions,
		s.AppendForces, s.RemoveForcesAt,
		s.RigidBodies, s.Transforms, s.Bounds,
	} {
		w.Registry().Register(r)
	}
	return s
}
