package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/whalesim/fluidsync/internal/component"
	"github.com/whalesim/fluidsync/internal/core/ecs"
	"github.com/whalesim/fluidsync/internal/geometry"
	"github.com/whalesim/fluidsync/internal/rigid"
	"github.com/whalesim/fluidsync/internal/solver"
)

// LuaForces builds scripted forces. *scripting.Engine satisfies it.
type LuaForces interface {
	NewLuaForce(fn string) (solver.NonPressureForce, error)
}

// Spawner turns scene entries into entities.
type Spawner struct {
	World  *ecs.World
	Stores *component.Stores
	Rigid  *rigid.World
	// ParticleRadius sizes cuboid lattices.
	ParticleRadius float32
	// Lua is optional; scenes with lua forces fail without it.
	Lua LuaForces
}

// Result lists what Spawn created, in scene order.
type Result struct {
	Fluids []ecs.EntityID
	Bodies []ecs.EntityID
}

// Spawn creates every body, then every fluid. Fluid entities carry only a
// declaration; the fluid pipeline creates them on its next sync.
func (s *Spawner) Spawn(sc *Scene) (*Result, error) {
	forces := make([][]solver.NonPressureForce, len(sc.Fluids))
	for i, f := range sc.Fluids {
		built, err := s.forces(f.Forces)
		if err != nil {
			return nil, fmt.Errorf("fluid %q: %w", f.Name, err)
		}
		forces[i] = built
	}

	res := &Result{}
	for _, b := range sc.Bodies {
		e, err := s.spawnBody(b)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", b.Name, err)
		}
		res.Bodies = append(res.Bodies, e)
	}
	for i, f := range sc.Fluids {
		decl := component.NewFluidDeclaration(s.positions(f), forces[i]...)
		if f.Density > 0 {
			decl.Density = f.Density
		}
		e := s.World.Spawn()
		s.Stores.FluidDeclarations.Set(e, decl)
		res.Fluids = append(res.Fluids, e)
	}
	return res, nil
}

func (s *Spawner) positions(f FluidEntry) []mgl32.Vec3 {
	if f.Cuboid == nil {
		out := make([]mgl32.Vec3, len(f.Points))
		for i, p := range f.Points {
			out[i] = vec(p)
		}
		return out
	}
	c := f.Cuboid
	pts := geometry.CubeParticlePositions(c.NI, c.NJ, c.NK, s.ParticleRadius)
	center := vec(c.Center)
	for i := range pts {
		pts[i] = pts[i].Add(center)
	}
	return pts
}

func (s *Spawner) forces(entries []ForceEntry) ([]solver.NonPressureForce, error) {
	out := make([]solver.NonPressureForce, 0, len(entries))
	for _, fe := range entries {
		switch fe.Kind {
		case "viscosity":
			out = append(out, solver.Viscosity{Coefficient: fe.Coefficient})
		case "surface_tension":
			out = append(out, solver.SurfaceTension{Coefficient: fe.Coefficient})
		case "lua":
			if s.Lua == nil {
				return nil, fmt.Errorf("lua force %q: no script engine", fe.Function)
			}
			f, err := s.Lua.NewLuaForce(fe.Function)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		default:
			return nil, fmt.Errorf("unknown force kind %q", fe.Kind)
		}
	}
	return out, nil
}

func (s *Spawner) spawnBody(b BodyEntry) (ecs.EntityID, error) {
	typ := rigid.Dynamic
	if b.Type == "fixed" {
		typ = rigid.Fixed
	}
	body := rigid.NewBody(typ, vec(b.Position), b.Mass)
	h := s.Rigid.InsertBody(body)
	for _, c := range b.Colliders {
		var shape rigid.Shape
		switch c.Shape {
		case "ball":
			shape = rigid.Ball{Radius: c.Radius}
		case "cuboid":
			shape = rigid.Cuboid{HalfExtents: vec(c.HalfExtents)}
		default:
			s.Rigid.RemoveBody(h)
			return 0, fmt.Errorf("unknown collider shape %q", c.Shape)
		}
		if _, err := s.Rigid.InsertCollider(&rigid.Collider{Shape: shape, Parent: h, Offset: vec(c.Offset)}); err != nil {
			s.Rigid.RemoveBody(h)
			return 0, err
		}
	}
	e := s.World.Spawn()
	s.Stores.RigidBodies.Set(e, &component.RigidBody{Handle: h})
	s.Stores.Transforms.Set(e, &component.Transform{Translation: body.Position, Rotation: body.Rotation})
	return e, nil
}
