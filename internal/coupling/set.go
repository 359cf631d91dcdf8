// Package coupling bridges rigid-world colliders into boundary particle sets
// of a liquid world, and routes the fluid's reaction back onto the bodies.
package coupling

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/whalesim/fluidsync/internal/rigid"
	"github.com/whalesim/fluidsync/internal/solver"
)

type entry struct {
	boundary solver.BoundaryHandle
	// local holds the collider-space samples the boundary is built from.
	local []mgl32.Vec3
}

// Set tracks which colliders are sampled into which boundaries. It keeps no
// per-frame state besides that mapping.
type Set struct {
	entries map[rigid.ColliderHandle]*entry
}

func NewSet() *Set {
	return &Set{entries: make(map[rigid.ColliderHandle]*entry)}
}

// Len is the number of coupled colliders.
func (s *Set) Len() int { return len(s.entries) }

// Boundary returns the boundary a collider is sampled into.
func (s *Set) Boundary(h rigid.ColliderHandle) (solver.BoundaryHandle, bool) {
	e, ok := s.entries[h]
	if !ok {
		return solver.BoundaryHandle{}, false
	}
	return e.boundary, true
}

// Refresh brings the set in line with the rigid world's colliders: new
// colliders are sampled at the particle diameter and added as boundaries,
// vanished ones are dropped. Fluid particles are not touched.
func (s *Set) Refresh(rw *rigid.World, lw *solver.LiquidWorld) (added, removed int) {
	present := rw.ColliderHandles()
	for h, e := range s.entries {
		if _, found := slices.BinarySearch(present, h); !found {
			lw.RemoveBoundary(e.boundary)
			delete(s.entries, h)
			removed++
		}
	}
	spacing := 2 * lw.ParticleRadius()
	for _, h := range present {
		if _, ok := s.entries[h]; ok {
			continue
		}
		c, _ := rw.Collider(h)
		local := c.Shape.Sample(spacing)
		if len(local) == 0 {
			continue
		}
		s.entries[h] = &entry{
			boundary: lw.AddBoundary(solver.NewBoundary(local)),
			local:    local,
		}
		added++
	}
	return added, removed
}

func (s *Set) handles() []rigid.ColliderHandle {
	out := make([]rigid.ColliderHandle, 0, len(s.entries))
	for h := range s.entries {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// Manager borrows the rigid world for one step call of length frameDt.
// Boundary forces of each substep are weighted by its share of frameDt so
// bodies receive the step's mean force.
func (s *Set) Manager(rw *rigid.World, frameDt solver.Real) solver.CouplingManager {
	return &manager{set: s, rigid: rw, frameDt: frameDt}
}

type manager struct {
	set     *Set
	rigid   *rigid.World
	frameDt solver.Real
}

func (m *manager) UpdateBoundaries(_ solver.Real, lw *solver.LiquidWorld) {
	for _, h := range m.set.handles() {
		e := m.set.entries[h]
		b, ok := lw.Boundary(e.boundary)
		if !ok {
			continue
		}
		pos, rot, ok := m.rigid.ColliderPose(h)
		if !ok {
			continue
		}
		var body *rigid.Body
		if c, _ := m.rigid.Collider(h); c.Parent != 0 {
			body, _ = m.rigid.Body(c.Parent)
		}
		for i, p := range e.local {
			world := pos.Add(rot.Rotate(p))
			b.Positions[i] = world
			if body != nil {
				b.Velocities[i] = body.VelocityAt(world)
			} else {
				b.Velocities[i] = mgl32.Vec3{}
			}
		}
	}
}

func (m *manager) TransmitForces(dt solver.Real, lw *solver.LiquidWorld) {
	weight := solver.Real(1)
	if m.frameDt > 0 {
		weight = dt / m.frameDt
	}
	for _, h := range m.set.handles() {
		e := m.set.entries[h]
		c, ok := m.rigid.Collider(h)
		if !ok || c.Parent == 0 {
			continue
		}
		body, ok := m.rigid.Body(c.Parent)
		if !ok || body.Type != rigid.Dynamic {
			continue
		}
		b, ok := lw.Boundary(e.boundary)
		if !ok {
			continue
		}
		for i, f := range b.Forces {
			body.AddForceAtPoint(f.Mul(weight), b.Positions[i])
		}
	}
}
