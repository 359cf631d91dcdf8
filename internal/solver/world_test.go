package solver

import (
	"errors"
	"math"
	"testing"
)

func newTestWorld(t *testing.T) *LiquidWorld {
	t.Helper()
	w, err := NewLiquidWorld(NewWCSPH(), 0.05, 2.0)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func lattice(n int, spacing Real, origin Vec3) []Vec3 {
	var out []Vec3
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				out = append(out, origin.Add(Vec3{Real(i), Real(j), Real(k)}.Mul(spacing)))
			}
		}
	}
	return out
}

func TestNewLiquidWorldRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name      string
		solver    PressureSolver
		radius    Real
		smoothing Real
	}{
		{"nil solver", nil, 0.05, 2},
		{"zero radius", NewWCSPH(), 0, 2},
		{"negative smoothing", NewWCSPH(), 0.05, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewLiquidWorld(tc.solver, tc.radius, tc.smoothing); !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestAddFluidRejectsEmpty(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.AddFluid(NewFluid(nil, 0.05, 1000, nil)); !errors.Is(err, ErrEmptyFluid) {
		t.Fatalf("expected ErrEmptyFluid, got %v", err)
	}
	if w.NumFluids() != 0 {
		t.Fatalf("empty fluid was stored")
	}
}

func TestRemoveFluidIsIdempotentAndHandlesAreNotReused(t *testing.T) {
	w := newTestWorld(t)
	h1, err := w.AddFluid(NewFluid([]Vec3{{0, 0, 0}}, 0.05, 1000, nil))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !w.RemoveFluid(h1) {
		t.Fatal("first removal reported absent")
	}
	if w.RemoveFluid(h1) {
		t.Fatal("second removal reported present")
	}
	h2, err := w.AddFluid(NewFluid([]Vec3{{1, 0, 0}, {2, 0, 0}}, 0.05, 1000, nil))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("handle %s reused", h1)
	}
	if _, ok := w.Fluid(h1); ok {
		t.Fatal("stale handle resolves")
	}
	if f, ok := w.Fluid(h2); !ok || f.NumParticles() != 2 {
		t.Fatal("new handle does not resolve")
	}
}

func TestIsolatedParticlesFallFreely(t *testing.T) {
	w := newTestWorld(t)
	initial := lattice(2, 1, Vec3{})
	h, err := w.AddFluid(NewFluid(initial, 0.05, 1000, nil))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	const dt = Real(0.016)
	w.Step(dt, Vec3{0, -9.8, 0})

	f, _ := w.Fluid(h)
	want := Real(0.5 * 9.8 * dt * dt)
	for i, p := range f.Positions {
		drop := initial[i][1] - p[1]
		if math.Abs(float64(drop-want)) > 1e-5 {
			t.Fatalf("particle %d dropped %v, want %v", i, drop, want)
		}
		if p[0] != initial[i][0] || p[2] != initial[i][2] {
			t.Fatalf("particle %d moved sideways: %v -> %v", i, initial[i], p)
		}
	}
	if w.LastSubsteps() < 1 {
		t.Fatalf("substeps = %d", w.LastSubsteps())
	}
}

func TestStepKeepsParticleCount(t *testing.T) {
	w := newTestWorld(t)
	forces := []NonPressureForce{Viscosity{Coefficient: 0.05}, SurfaceTension{Coefficient: 0.01}}
	h, err := w.AddFluid(NewFluid(lattice(4, 0.1, Vec3{}), 0.05, 1000, forces))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	for i := 0; i < 10; i++ {
		w.Step(0.016, Vec3{0, -9.8, 0})
	}
	f, _ := w.Fluid(h)
	if f.NumParticles() != 64 || len(f.Velocities) != 64 {
		t.Fatalf("particle count changed to %d", f.NumParticles())
	}
	for i, p := range f.Positions {
		for _, c := range p {
			if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
				t.Fatalf("particle %d diverged: %v", i, p)
			}
		}
	}
}

type recordingCoupling struct {
	boundary BoundaryHandle
	updates  int
	transmit int
	forceY   Real
}

func (c *recordingCoupling) UpdateBoundaries(_ Real, _ *LiquidWorld) { c.updates++ }

func (c *recordingCoupling) TransmitForces(_ Real, w *LiquidWorld) {
	c.transmit++
	b, _ := w.Boundary(c.boundary)
	for _, f := range b.Forces {
		c.forceY += f[1]
	}
}

func TestCompressedFluidPushesOnBoundary(t *testing.T) {
	w := newTestWorld(t)
	var plane []Vec3
	for i := -6; i <= 6; i++ {
		for k := -6; k <= 6; k++ {
			plane = append(plane, Vec3{Real(i) * 0.05, 0, Real(k) * 0.05})
		}
	}
	c := &recordingCoupling{boundary: w.AddBoundary(NewBoundary(plane))}
	if _, err := w.AddFluid(NewFluid(lattice(2, 0.05, Vec3{0, 0.025, 0}), 0.05, 1000, nil)); err != nil {
		t.Fatalf("add: %v", err)
	}

	w.StepWithCoupling(0.016, Vec3{0, -9.8, 0}, c)

	if c.updates != w.LastSubsteps() || c.transmit != w.LastSubsteps() {
		t.Fatalf("coupling called %d/%d times for %d substeps", c.updates, c.transmit, w.LastSubsteps())
	}
	if c.forceY >= 0 {
		t.Fatalf("expected downward force on boundary, got %v", c.forceY)
	}
}

func TestKernelVanishesOutsideSupport(t *testing.T) {
	k := NewCubicSpline(0.2)
	if k.W(0.2) != 0 || k.W(0.3) != 0 {
		t.Fatal("kernel non-zero outside support")
	}
	if k.W(0) <= k.W(0.1) {
		t.Fatal("kernel not decreasing")
	}
	g := k.Grad(Vec3{0.1, 0, 0})
	if g[0] >= 0 {
		t.Fatalf("gradient should point toward the neighbour, got %v", g)
	}
}
