package solver

// ForceContext is what a non-pressure force sees for one fluid during one
// substep. Neighbours lists only particles of the same fluid, self excluded.
type ForceContext struct {
	Dt         Real
	Kernel     CubicSpline
	Fluid      *Fluid
	Densities  []Real
	Neighbours [][]int
}

// NonPressureForce contributes accelerations to a fluid's particles. Solve
// adds into accel, indexed like the fluid's particles.
type NonPressureForce interface {
	Name() string
	Solve(ctx *ForceContext, accel []Vec3)
}

// Viscosity is XSPH-style artificial viscosity: each particle's velocity is
// pulled toward the kernel-weighted mean of its neighbours. Coefficient is
// expected in [0, 1].
type Viscosity struct {
	Coefficient Real
}

func (v Viscosity) Name() string { return "viscosity" }

func (v Viscosity) Solve(ctx *ForceContext, accel []Vec3) {
	if ctx.Dt <= 0 {
		return
	}
	f := ctx.Fluid
	for i, nbs := range ctx.Neighbours {
		var dv Vec3
		for _, j := range nbs {
			w := ctx.Kernel.W(f.Positions[i].Sub(f.Positions[j]).Len())
			dv = dv.Add(f.Velocities[j].Sub(f.Velocities[i]).Mul(f.mass(j) / ctx.Densities[j] * w))
		}
		accel[i] = accel[i].Add(dv.Mul(v.Coefficient / ctx.Dt))
	}
}

// SurfaceTension is a cohesion force pulling neighbouring particles
// together, scaled by Coefficient.
type SurfaceTension struct {
	Coefficient Real
}

func (s SurfaceTension) Name() string { return "surface_tension" }

func (s SurfaceTension) Solve(ctx *ForceContext, accel []Vec3) {
	f := ctx.Fluid
	for i, nbs := range ctx.Neighbours {
		var a Vec3
		for _, j := range nbs {
			rij := f.Positions[i].Sub(f.Positions[j])
			w := ctx.Kernel.W(rij.Len())
			a = a.Sub(rij.Mul(s.Coefficient * f.mass(j) / f.mass(i) * w))
		}
		accel[i] = accel[i].Add(a)
	}
}
