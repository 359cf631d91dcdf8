// Package fluid keeps a particle fluid solver in step with the ECS entities
// that declare fluids, and couples it with the rigid-body world each frame.
package fluid

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/whalesim/fluidsync/internal/component"
	"github.com/whalesim/fluidsync/internal/core/ecs"
	"github.com/whalesim/fluidsync/internal/coupling"
	"github.com/whalesim/fluidsync/internal/rigid"
	"github.com/whalesim/fluidsync/internal/solver"
)

// Context is the simulation state of one ECS world: the liquid world, the
// collider coupling set and the entity/fluid mapping. Stages receive it by
// pointer; only they write to it.
type Context struct {
	Liquid   *solver.LiquidWorld
	Coupling *coupling.Set

	entity2fluid map[ecs.EntityID]solver.FluidHandle
	fluid2entity map[solver.FluidHandle]ecs.EntityID
}

func NewContext(liquid *solver.LiquidWorld) *Context {
	return &Context{
		Liquid:       liquid,
		Coupling:     coupling.NewSet(),
		entity2fluid: make(map[ecs.EntityID]solver.FluidHandle),
		fluid2entity: make(map[solver.FluidHandle]ecs.EntityID),
	}
}

// Create adds a solver fluid built from decl. Empty declarations are
// rejected with solver.ErrEmptyFluid before reaching the solver.
func (c *Context) Create(decl *component.FluidDeclaration) (solver.FluidHandle, error) {
	if decl == nil || len(decl.Positions) == 0 {
		return solver.FluidHandle{}, solver.ErrEmptyFluid
	}
	f := solver.NewFluid(decl.Positions, c.Liquid.ParticleRadius(), decl.Density, decl.Forces)
	return c.Liquid.AddFluid(f)
}

// Remove deletes the fluid and its particles. Absent handles are ignored.
func (c *Context) Remove(h solver.FluidHandle) {
	c.Liquid.RemoveFluid(h)
}

func (c *Context) Register(e ecs.EntityID, h solver.FluidHandle) {
	c.entity2fluid[e] = h
	c.fluid2entity[h] = e
}

// Unregister drops the mapping of e and returns the handle it had.
func (c *Context) Unregister(e ecs.EntityID) (solver.FluidHandle, bool) {
	h, ok := c.entity2fluid[e]
	if !ok {
		return solver.FluidHandle{}, false
	}
	delete(c.entity2fluid, e)
	delete(c.fluid2entity, h)
	return h, true
}

func (c *Context) Lookup(e ecs.EntityID) (solver.FluidHandle, bool) {
	h, ok := c.entity2fluid[e]
	return h, ok
}

func (c *Context) EntityOf(h solver.FluidHandle) (ecs.EntityID, bool) {
	e, ok := c.fluid2entity[h]
	return e, ok
}

// Entities returns the mapped entities in ascending order.
func (c *Context) Entities() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(c.entity2fluid))
	for e := range c.entity2fluid {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

func (c *Context) Len() int { return len(c.entity2fluid) }

// Step advances the liquid world. With a rigid world, boundaries follow its
// colliders and the fluid's reaction is applied to its bodies.
func (c *Context) Step(dt float32, gravity mgl32.Vec3, rw *rigid.World) {
	if rw == nil {
		c.Liquid.Step(dt, gravity)
		return
	}
	c.Liquid.StepWithCoupling(dt, gravity, c.Coupling.Manager(rw, dt))
}
