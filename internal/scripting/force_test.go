package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/whalesim/fluidsync/internal/solver"
)

const windSrc = `
function wind(p)
  return 2 * p.index, 0, -p.vx
end

function broken(p)
  error("boom")
end
`

func forceContext() (*solver.ForceContext, []solver.Vec3) {
	f := solver.NewFluid([]solver.Vec3{{0, 0, 0}, {1, 0, 0}}, 0.05, 1000, nil)
	f.Velocities[1] = solver.Vec3{3, 0, 0}
	return &solver.ForceContext{
		Dt:         0.01,
		Fluid:      f,
		Densities:  []solver.Real{1000, 1000},
		Neighbours: make([][]int, 2),
	}, make([]solver.Vec3, 2)
}

func TestLuaForceAddsAcceleration(t *testing.T) {
	e, err := NewEngineFromSource(windSrc, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer e.Close()

	force, err := e.NewLuaForce("wind")
	if err != nil {
		t.Fatalf("force: %v", err)
	}
	if force.Name() != "lua:wind" {
		t.Fatalf("name = %q", force.Name())
	}
	ctx, accel := forceContext()
	accel[0] = solver.Vec3{0, -9.8, 0}
	force.Solve(ctx, accel)

	if accel[0] != (solver.Vec3{0, -9.8, 0}) {
		t.Fatalf("accel[0] = %v", accel[0])
	}
	if accel[1] != (solver.Vec3{2, 0, -3}) {
		t.Fatalf("accel[1] = %v", accel[1])
	}
}

func TestLuaForceErrorLeavesAccelerations(t *testing.T) {
	e, err := NewEngineFromSource(windSrc, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer e.Close()

	force, err := e.NewLuaForce("broken")
	if err != nil {
		t.Fatalf("force: %v", err)
	}
	ctx, accel := forceContext()
	force.Solve(ctx, accel)
	for i, a := range accel {
		if a != (solver.Vec3{}) {
			t.Fatalf("accel[%d] = %v", i, a)
		}
	}
}

func TestUnknownFunction(t *testing.T) {
	e, err := NewEngineFromSource(windSrc, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer e.Close()
	if _, err := e.NewLuaForce("missing"); err == nil {
		t.Fatal("expected error for missing function")
	}
}

func TestNewEngineLoadsForcesDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "forces"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := "function drift(p) return 0, 0, 1 end\n"
	if err := os.WriteFile(filepath.Join(dir, "forces", "drift.lua"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer e.Close()
	if !e.HasFunction("drift") {
		t.Fatal("script in forces/ not loaded")
	}
}
