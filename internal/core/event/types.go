package event

import (
	"github.com/whalesim/fluidsync/internal/core/ecs"
	"github.com/whalesim/fluidsync/internal/solver"
)

// FluidCreated is emitted when an entity's declaration got a solver fluid.
type FluidCreated struct {
	Entity    ecs.EntityID
	Handle    solver.FluidHandle
	Particles int
}

// FluidRemoved is emitted when a fluid was torn down with its entity mapping.
type FluidRemoved struct {
	Entity ecs.EntityID
	Handle solver.FluidHandle
}

// FluidRejected is emitted when creation failed; it is retried next frame.
type FluidRejected struct {
	Entity ecs.EntityID
	Err    error
}

// ForceEditSkipped reports a removal index that did not fit the force list.
type ForceEditSkipped struct {
	Entity ecs.EntityID
	Index  int
	Len    int
}
