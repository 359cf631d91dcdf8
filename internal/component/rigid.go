package component

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/whalesim/fluidsync/internal/rigid"
)

// RigidBody links an entity to a body in the rigid world.
type RigidBody struct {
	Handle rigid.BodyHandle
}

// Transform is the entity's world pose.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
}

// Bounds is the axis-aligned box around an entity's particles.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}
