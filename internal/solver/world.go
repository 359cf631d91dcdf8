package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyFluid is returned when a fluid without particles is added.
	ErrEmptyFluid = errors.New("fluid has no particles")
	// ErrInvalidParameter is returned for non-positive radii, factors or
	// densities.
	ErrInvalidParameter = errors.New("invalid solver parameter")
)

const (
	cflFactor   = 0.4
	maxSubsteps = 64
)

// CouplingManager exchanges state with an external rigid-body world during a
// step. UpdateBoundaries runs before each substep and must refresh boundary
// positions and velocities; TransmitForces runs after it and may read the
// accumulated boundary Forces.
type CouplingManager interface {
	UpdateBoundaries(dt Real, w *LiquidWorld)
	TransmitForces(dt Real, w *LiquidWorld)
}

// LiquidWorld is the solver state container: every fluid, every boundary and
// the pressure solver that advances them.
type LiquidWorld struct {
	solver          PressureSolver
	particleRadius  Real
	smoothingFactor Real
	kernel          CubicSpline

	fluids     arena[Fluid]
	boundaries arena[Boundary]

	lastSubsteps int
}

// NewLiquidWorld takes ownership of solver. The kernel radius is
// 2 * particleRadius * smoothingFactor.
func NewLiquidWorld(solver PressureSolver, particleRadius, smoothingFactor Real) (*LiquidWorld, error) {
	if solver == nil {
		return nil, fmt.Errorf("%w: nil pressure solver", ErrInvalidParameter)
	}
	if particleRadius <= 0 {
		return nil, fmt.Errorf("%w: particle radius %v", ErrInvalidParameter, particleRadius)
	}
	if smoothingFactor <= 0 {
		return nil, fmt.Errorf("%w: smoothing factor %v", ErrInvalidParameter, smoothingFactor)
	}
	return &LiquidWorld{
		solver:          solver,
		particleRadius:  particleRadius,
		smoothingFactor: smoothingFactor,
		kernel:          NewCubicSpline(2 * particleRadius * smoothingFactor),
	}, nil
}

func (w *LiquidWorld) ParticleRadius() Real   { return w.particleRadius }
func (w *LiquidWorld) SmoothingFactor() Real  { return w.smoothingFactor }
func (w *LiquidWorld) KernelRadius() Real     { return w.kernel.H }
func (w *LiquidWorld) Solver() PressureSolver { return w.solver }
func (w *LiquidWorld) NumFluids() int         { return w.fluids.live }
func (w *LiquidWorld) NumBoundaries() int     { return w.boundaries.live }

// LastSubsteps reports how many substeps the previous step used.
func (w *LiquidWorld) LastSubsteps() int { return w.lastSubsteps }

// AddFluid inserts f and returns its handle.
func (w *LiquidWorld) AddFluid(f *Fluid) (FluidHandle, error) {
	if f == nil || f.NumParticles() == 0 {
		return FluidHandle{}, ErrEmptyFluid
	}
	if f.Density0 <= 0 {
		return FluidHandle{}, fmt.Errorf("%w: rest density %v", ErrInvalidParameter, f.Density0)
	}
	idx, gen := w.fluids.insert(f)
	return FluidHandle{index: idx, generation: gen}, nil
}

// RemoveFluid deletes the fluid and its particles. It reports whether the
// handle was live; removing a stale handle does nothing.
func (w *LiquidWorld) RemoveFluid(h FluidHandle) bool {
	_, ok := w.fluids.remove(h.index, h.generation)
	return ok
}

func (w *LiquidWorld) Fluid(h FluidHandle) (*Fluid, bool) {
	return w.fluids.get(h.index, h.generation)
}

// FluidHandles returns the live fluid handles in slot order.
func (w *LiquidWorld) FluidHandles() []FluidHandle {
	out := make([]FluidHandle, 0, w.fluids.live)
	w.fluids.each(func(idx, gen uint32, _ *Fluid) {
		out = append(out, FluidHandle{index: idx, generation: gen})
	})
	return out
}

func (w *LiquidWorld) AddBoundary(b *Boundary) BoundaryHandle {
	idx, gen := w.boundaries.insert(b)
	return BoundaryHandle{index: idx, generation: gen}
}

func (w *LiquidWorld) RemoveBoundary(h BoundaryHandle) bool {
	_, ok := w.boundaries.remove(h.index, h.generation)
	return ok
}

func (w *LiquidWorld) Boundary(h BoundaryHandle) (*Boundary, bool) {
	return w.boundaries.get(h.index, h.generation)
}

// Step advances every fluid by dt without rigid coupling.
func (w *LiquidWorld) Step(dt Real, gravity Vec3) {
	w.StepWithCoupling(dt, gravity, nil)
}

// StepWithCoupling advances every fluid by dt, splitting it into substeps
// bounded by the CFL condition and the pressure solver's own limit.
func (w *LiquidWorld) StepWithCoupling(dt Real, gravity Vec3, coupling CouplingManager) {
	w.lastSubsteps = 0
	if dt <= 0 {
		return
	}
	n := w.substeps(dt, gravity)
	sdt := dt / Real(n)
	for s := 0; s < n; s++ {
		if coupling != nil {
			coupling.UpdateBoundaries(sdt, w)
		}
		w.substep(sdt, gravity)
		if coupling != nil {
			coupling.TransmitForces(sdt, w)
		}
	}
	w.lastSubsteps = n
}

func (w *LiquidWorld) substeps(dt Real, gravity Vec3) int {
	limit := w.solver.MaxTimestep(w.kernel.H)
	var vmax Real
	w.fluids.each(func(_, _ uint32, f *Fluid) {
		for _, v := range f.Velocities {
			if l := v.Len(); l > vmax {
				vmax = l
			}
		}
	})
	vmax += gravity.Len() * dt
	if vmax > 0 {
		cfl := cflFactor * 2 * w.particleRadius / vmax
		if limit <= 0 || cfl < limit {
			limit = cfl
		}
	}
	if limit <= 0 || limit >= dt {
		return 1
	}
	n := int(math.Ceil(float64(dt / limit)))
	return min(max(n, 1), maxSubsteps)
}

func (w *LiquidWorld) substep(dt Real, gravity Vec3) {
	var fluids []*Fluid
	w.fluids.each(func(_, _ uint32, f *Fluid) { fluids = append(fluids, f) })
	var boundaries []*Boundary
	w.boundaries.each(func(_, _ uint32, b *Boundary) { boundaries = append(boundaries, b) })
	if len(fluids) == 0 {
		return
	}

	h := w.kernel.H
	g := newGrid(h)
	for f, fluid := range fluids {
		for i, p := range fluid.Positions {
			g.insert(p, fluidRef(f, i))
		}
	}
	for b, bnd := range boundaries {
		for i, p := range bnd.Positions {
			g.insert(p, boundaryRef(b, i))
		}
	}
	position := func(n Neighbour) Vec3 {
		if b, ok := n.Boundary(); ok {
			return boundaries[b].Positions[n.Index]
		}
		return fluids[n.Set].Positions[n.Index]
	}

	// Boundary volumes from the local sampling density of each boundary.
	for b, bnd := range boundaries {
		bnd.clearForces()
		for i, xb := range bnd.Positions {
			sum := w.kernel.W(0)
			g.nearby(xb, func(n Neighbour) {
				ob, ok := n.Boundary()
				if !ok || ob != b || n.Index == i {
					return
				}
				if r := xb.Sub(bnd.Positions[n.Index]).Len(); r < h {
					sum += w.kernel.W(r)
				}
			})
			bnd.Volumes[i] = 1 / sum
		}
	}

	ctx := &StepContext{
		Dt:         dt,
		Kernel:     w.kernel,
		Fluids:     fluids,
		Boundaries: boundaries,
		Densities:  make([][]Real, len(fluids)),
		Neighbours: make([][][]Neighbour, len(fluids)),
	}
	for f, fluid := range fluids {
		nbs := make([][]Neighbour, fluid.NumParticles())
		rho := make([]Real, fluid.NumParticles())
		for i, xi := range fluid.Positions {
			self := fluidRef(f, i)
			d := fluid.mass(i) * w.kernel.W(0)
			g.nearby(xi, func(n Neighbour) {
				if n == self {
					return
				}
				r := xi.Sub(position(n)).Len()
				if r >= h {
					return
				}
				nbs[i] = append(nbs[i], n)
				if b, ok := n.Boundary(); ok {
					d += fluid.Density0 * boundaries[b].Volumes[n.Index] * w.kernel.W(r)
				} else {
					d += fluids[n.Set].mass(n.Index) * w.kernel.W(r)
				}
			})
			rho[i] = d
		}
		ctx.Densities[f] = rho
		ctx.Neighbours[f] = nbs
		for i := range fluid.Accelerations {
			fluid.Accelerations[i] = gravity
		}
	}

	for f, fluid := range fluids {
		if len(fluid.NonPressureForces) == 0 {
			continue
		}
		own := make([][]int, fluid.NumParticles())
		for i, nbs := range ctx.Neighbours[f] {
			for _, n := range nbs {
				if n.Set == f {
					own[i] = append(own[i], n.Index)
				}
			}
		}
		fctx := &ForceContext{Dt: dt, Kernel: w.kernel, Fluid: fluid, Densities: ctx.Densities[f], Neighbours: own}
		for _, force := range fluid.NonPressureForces {
			force.Solve(fctx, fluid.Accelerations)
		}
	}

	w.solver.Solve(ctx)

	// Constant acceleration over the substep.
	half := 0.5 * dt * dt
	for _, fluid := range fluids {
		for i, a := range fluid.Accelerations {
			v := fluid.Velocities[i]
			fluid.Positions[i] = fluid.Positions[i].Add(v.Mul(dt)).Add(a.Mul(half))
			fluid.Velocities[i] = v.Add(a.Mul(dt))
		}
	}
}
