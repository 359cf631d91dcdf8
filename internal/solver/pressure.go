package solver

import "math"

// StepContext is the shared state of one substep handed to the pressure
// solver. Neighbours[f][i] lists the fluid and boundary particles within the
// kernel radius of particle i of fluid f, self excluded.
type StepContext struct {
	Dt         Real
	Kernel     CubicSpline
	Fluids     []*Fluid
	Boundaries []*Boundary
	Densities  [][]Real
	Neighbours [][][]Neighbour
}

// PressureSolver turns densities into pressure accelerations. Solve adds
// into each fluid's Accelerations and the reaction into boundary Forces.
type PressureSolver interface {
	Name() string
	// MaxTimestep bounds the substep length for stability; 0 means no bound.
	MaxTimestep(kernelRadius Real) Real
	Solve(ctx *StepContext)
}

// WCSPH is a weakly compressible solver using the Tait equation of state.
// Negative pressures are clamped to zero so isolated particles do not
// attract each other.
type WCSPH struct {
	SoundSpeed Real
	Exponent   Real
}

func NewWCSPH() *WCSPH {
	return &WCSPH{SoundSpeed: 20, Exponent: 7}
}

func (s *WCSPH) Name() string { return "wcsph" }

func (s *WCSPH) MaxTimestep(kernelRadius Real) Real {
	if s.SoundSpeed <= 0 {
		return 0
	}
	return 0.4 * kernelRadius / s.SoundSpeed
}

func (s *WCSPH) pressure(rho, rho0 Real) Real {
	b := rho0 * s.SoundSpeed * s.SoundSpeed / s.Exponent
	p := b * Real(math.Pow(float64(rho/rho0), float64(s.Exponent))-1)
	if p < 0 {
		return 0
	}
	return p
}

func (s *WCSPH) Solve(ctx *StepContext) {
	pressures := make([][]Real, len(ctx.Fluids))
	for f, fluid := range ctx.Fluids {
		pressures[f] = make([]Real, fluid.NumParticles())
		for i, rho := range ctx.Densities[f] {
			pressures[f][i] = s.pressure(rho, fluid.Density0)
		}
	}

	for f, fluid := range ctx.Fluids {
		for i := range fluid.Positions {
			rhoI := ctx.Densities[f][i]
			termI := pressures[f][i] / (rhoI * rhoI)
			xi := fluid.Positions[i]
			var a Vec3
			for _, n := range ctx.Neighbours[f][i] {
				if b, ok := n.Boundary(); ok {
					bnd := ctx.Boundaries[b]
					grad := ctx.Kernel.Grad(xi.Sub(bnd.Positions[n.Index]))
					psi := fluid.Density0 * bnd.Volumes[n.Index]
					contrib := grad.Mul(psi * termI)
					a = a.Sub(contrib)
					bnd.Forces[n.Index] = bnd.Forces[n.Index].Add(contrib.Mul(fluid.mass(i)))
					continue
				}
				other := ctx.Fluids[n.Set]
				rhoJ := ctx.Densities[n.Set][n.Index]
				termJ := pressures[n.Set][n.Index] / (rhoJ * rhoJ)
				grad := ctx.Kernel.Grad(xi.Sub(other.Positions[n.Index]))
				a = a.Sub(grad.Mul(other.mass(n.Index) * (termI + termJ)))
			}
			fluid.Accelerations[i] = fluid.Accelerations[i].Add(a)
		}
	}
}
