package component

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/whalesim/fluidsync/internal/solver"
)

// DefaultFluidDensity is the rest density used when none is declared.
const DefaultFluidDensity float32 = 1000

// FluidDeclaration describes the fluid an entity wants simulated.
// Positions fix the particle count at creation; later edits to Positions
// are ignored. Forces mirrors the solver-side force list once created.
type FluidDeclaration struct {
	Positions []mgl32.Vec3
	Density   float32
	Forces    []solver.NonPressureForce
}

// NewFluidDeclaration declares a fluid at the default density.
func NewFluidDeclaration(positions []mgl32.Vec3, forces ...solver.NonPressureForce) *FluidDeclaration {
	return &FluidDeclaration{
		Positions: positions,
		Density:   DefaultFluidDensity,
		Forces:    forces,
	}
}

// FluidHandle links an entity to its solver fluid. Attached by the sync
// stage, never by application code.
type FluidHandle struct {
	Handle solver.FluidHandle
}

// ParticlePositions is overwritten every frame with the fluid's particle
// positions, index-aligned with the declared positions.
type ParticlePositions struct {
	Positions []mgl32.Vec3
}

// AppendForces is a one-frame command buffer; its forces are appended to
// the fluid after any removals of the same frame.
type AppendForces struct {
	Forces []solver.NonPressureForce
}

// RemoveForcesAt is a one-frame command buffer of indices into the force
// list as it stood at the start of the frame.
type RemoveForcesAt struct {
	Indices []int
}
