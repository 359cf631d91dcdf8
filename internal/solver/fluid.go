package solver

import "slices"

// Fluid is one particle set with shared rest density and non-pressure forces.
type Fluid struct {
	Positions     []Vec3
	Velocities    []Vec3
	Accelerations []Vec3
	// Volumes are the rest volumes of each particle; mass = volume * Density0.
	Volumes  []Real
	Density0 Real

	NonPressureForces []NonPressureForce
}

// NewFluid builds a fluid at rest. Positions are copied.
func NewFluid(positions []Vec3, particleRadius, density0 Real, forces []NonPressureForce) *Fluid {
	n := len(positions)
	d := 2 * particleRadius
	volume := d * d * d
	volumes := make([]Real, n)
	for i := range volumes {
		volumes[i] = volume
	}
	return &Fluid{
		Positions:         slices.Clone(positions),
		Velocities:        make([]Vec3, n),
		Accelerations:     make([]Vec3, n),
		Volumes:           volumes,
		Density0:          density0,
		NonPressureForces: slices.Clone(forces),
	}
}

func (f *Fluid) NumParticles() int { return len(f.Positions) }

func (f *Fluid) mass(i int) Real { return f.Volumes[i] * f.Density0 }
