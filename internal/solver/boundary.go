package solver

// Boundary is a set of static-or-moving particles sampling a solid surface.
// The coupling layer writes Positions and Velocities before each substep and
// reads Forces after it.
type Boundary struct {
	Positions  []Vec3
	Velocities []Vec3
	// Volumes are recomputed by the solver from the boundary's own sampling
	// density each substep.
	Volumes []Real
	// Forces accumulate what the fluid exerts on each boundary particle during
	// the last substep.
	Forces []Vec3
}

func NewBoundary(positions []Vec3) *Boundary {
	n := len(positions)
	b := &Boundary{
		Positions:  make([]Vec3, n),
		Velocities: make([]Vec3, n),
		Volumes:    make([]Real, n),
		Forces:     make([]Vec3, n),
	}
	copy(b.Positions, positions)
	return b
}

func (b *Boundary) NumParticles() int { return len(b.Positions) }

func (b *Boundary) clearForces() {
	for i := range b.Forces {
		b.Forces[i] = Vec3{}
	}
}
