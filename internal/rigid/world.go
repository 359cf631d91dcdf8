package rigid

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnknownBody is returned when a collider names a parent that does not exist.
var ErrUnknownBody = errors.New("unknown rigid body")

// BodyHandle and ColliderHandle are never reused; zero is invalid.
type (
	BodyHandle     uint32
	ColliderHandle uint32
)

type BodyType int

const (
	Dynamic BodyType = iota
	Fixed
)

// Body is a rigid body with a scalar moment of inertia. Forces accumulate
// until the next Step.
type Body struct {
	Type     BodyType
	Position mgl32.Vec3
	Rotation mgl32.Quat
	LinVel   mgl32.Vec3
	AngVel   mgl32.Vec3
	Mass     float32
	Inertia  float32

	force  mgl32.Vec3
	torque mgl32.Vec3
}

// NewBody returns a body at rest at position with identity rotation.
func NewBody(t BodyType, position mgl32.Vec3, mass float32) *Body {
	return &Body{
		Type:     t,
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Mass:     mass,
		Inertia:  mass,
	}
}

func (b *Body) AddForce(f mgl32.Vec3) {
	b.force = b.force.Add(f)
}

// AddForceAtPoint applies f at world point p, adding the induced torque.
func (b *Body) AddForceAtPoint(f, p mgl32.Vec3) {
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(p.Sub(b.Position).Cross(f))
}

// Force returns the force accumulated since the last step.
func (b *Body) Force() mgl32.Vec3 { return b.force }

// VelocityAt is the velocity of the body's material point at world point p.
func (b *Body) VelocityAt(p mgl32.Vec3) mgl32.Vec3 {
	return b.LinVel.Add(b.AngVel.Cross(p.Sub(b.Position)))
}

// Collider is a shape attached to a parent body at a local offset. A collider
// without parent is static and its offset is its world position.
type Collider struct {
	Shape  Shape
	Parent BodyHandle
	Offset mgl32.Vec3
}

// World stores bodies and colliders and integrates them.
type World struct {
	Gravity mgl32.Vec3

	bodies       map[BodyHandle]*Body
	colliders    map[ColliderHandle]*Collider
	nextBody     BodyHandle
	nextCollider ColliderHandle
}

func NewWorld(gravity mgl32.Vec3) *World {
	return &World{
		Gravity:   gravity,
		bodies:    make(map[BodyHandle]*Body),
		colliders: make(map[ColliderHandle]*Collider),
	}
}

func (w *World) InsertBody(b *Body) BodyHandle {
	w.nextBody++
	w.bodies[w.nextBody] = b
	return w.nextBody
}

// RemoveBody deletes the body and every collider attached to it.
func (w *World) RemoveBody(h BodyHandle) {
	if _, ok := w.bodies[h]; !ok {
		return
	}
	delete(w.bodies, h)
	for ch, c := range w.colliders {
		if c.Parent == h {
			delete(w.colliders, ch)
		}
	}
}

func (w *World) Body(h BodyHandle) (*Body, bool) {
	b, ok := w.bodies[h]
	return b, ok
}

func (w *World) NumBodies() int { return len(w.bodies) }

func (w *World) InsertCollider(c *Collider) (ColliderHandle, error) {
	if c.Parent != 0 {
		if _, ok := w.bodies[c.Parent]; !ok {
			return 0, fmt.Errorf("insert collider: %w %d", ErrUnknownBody, c.Parent)
		}
	}
	w.nextCollider++
	w.colliders[w.nextCollider] = c
	return w.nextCollider, nil
}

func (w *World) RemoveCollider(h ColliderHandle) {
	delete(w.colliders, h)
}

func (w *World) Collider(h ColliderHandle) (*Collider, bool) {
	c, ok := w.colliders[h]
	return c, ok
}

// ColliderHandles returns every collider handle in ascending order.
func (w *World) ColliderHandles() []ColliderHandle {
	out := make([]ColliderHandle, 0, len(w.colliders))
	for h := range w.colliders {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// ColliderPose returns the world position and rotation of a collider.
func (w *World) ColliderPose(h ColliderHandle) (mgl32.Vec3, mgl32.Quat, bool) {
	c, ok := w.colliders[h]
	if !ok {
		return mgl32.Vec3{}, mgl32.Quat{}, false
	}
	if c.Parent == 0 {
		return c.Offset, mgl32.QuatIdent(), true
	}
	b, ok := w.bodies[c.Parent]
	if !ok {
		return mgl32.Vec3{}, mgl32.Quat{}, false
	}
	return b.Position.Add(b.Rotation.Rotate(c.Offset)), b.Rotation, true
}

// Step integrates every dynamic body with semi-implicit Euler and clears the
// force accumulators of all bodies.
func (w *World) Step(dt float32) {
	for _, b := range w.bodies {
		if b.Type == Dynamic && b.Mass > 0 {
			acc := w.Gravity.Add(b.force.Mul(1 / b.Mass))
			b.LinVel = b.LinVel.Add(acc.Mul(dt))
			b.Position = b.Position.Add(b.LinVel.Mul(dt))
			if b.Inertia > 0 {
				b.AngVel = b.AngVel.Add(b.torque.Mul(dt / b.Inertia))
			}
			if speed := b.AngVel.Len(); speed > 0 {
				dq := mgl32.QuatRotate(speed*dt, b.AngVel.Mul(1/speed))
				b.Rotation = dq.Mul(b.Rotation).Normalize()
			}
		}
		b.force = mgl32.Vec3{}
		b.torque = mgl32.Vec3{}
	}
}
