package rigid

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestStepIntegratesDynamicBodiesOnly(t *testing.T) {
	w := NewWorld(mgl32.Vec3{0, -10, 0})
	ball := w.InsertBody(NewBody(Dynamic, mgl32.Vec3{0, 1, 0}, 2))
	ground := w.InsertBody(NewBody(Fixed, mgl32.Vec3{}, 0))

	b, _ := w.Body(ball)
	b.AddForce(mgl32.Vec3{4, 0, 0})
	w.Step(0.5)

	if b.LinVel[0] != 1 || b.LinVel[1] != -5 {
		t.Fatalf("velocity = %v", b.LinVel)
	}
	if b.Force() != (mgl32.Vec3{}) {
		t.Fatal("force accumulator not cleared")
	}
	g, _ := w.Body(ground)
	if g.Position != (mgl32.Vec3{}) {
		t.Fatal("fixed body moved")
	}
}

func TestForceAtPointSpinsBody(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	h := w.InsertBody(NewBody(Dynamic, mgl32.Vec3{}, 1))
	b, _ := w.Body(h)
	b.AddForceAtPoint(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0})
	w.Step(0.1)
	if b.AngVel[2] <= 0 {
		t.Fatalf("expected spin about +z, got %v", b.AngVel)
	}
}

func TestCollidersFollowParents(t *testing.T) {
	w := NewWorld(mgl32.Vec3{})
	if _, err := w.InsertCollider(&Collider{Shape: Ball{Radius: 1}, Parent: 42}); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("expected ErrUnknownBody, got %v", err)
	}
	h := w.InsertBody(NewBody(Dynamic, mgl32.Vec3{1, 2, 3}, 1))
	c, err := w.InsertCollider(&Collider{Shape: Ball{Radius: 1}, Parent: h, Offset: mgl32.Vec3{0, 1, 0}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	pos, _, ok := w.ColliderPose(c)
	if !ok || pos != (mgl32.Vec3{1, 3, 3}) {
		t.Fatalf("pose = %v", pos)
	}
	w.RemoveBody(h)
	if _, ok := w.Collider(c); ok {
		t.Fatal("collider outlived its body")
	}
}

func TestCuboidSamplesOnlySurface(t *testing.T) {
	pts := Cuboid{HalfExtents: mgl32.Vec3{0.1, 0.1, 0.1}}.Sample(0.1)
	// 3x3x3 grid minus the centre point.
	if len(pts) != 26 {
		t.Fatalf("got %d samples", len(pts))
	}
	for _, p := range pts {
		if p == (mgl32.Vec3{}) {
			t.Fatal("interior point sampled")
		}
	}
}

func TestThinCuboidGetsTwoLayers(t *testing.T) {
	pts := Cuboid{HalfExtents: mgl32.Vec3{0.5, 0, 0.5}}.Sample(0.1)
	if len(pts) != 2*11*11 {
		t.Fatalf("got %d samples, want %d", len(pts), 2*11*11)
	}
	var top, bottom int
	for _, p := range pts {
		switch {
		case math.Abs(float64(p.Y()-0.05)) < 1e-6:
			top++
		case math.Abs(float64(p.Y()+0.05)) < 1e-6:
			bottom++
		default:
			t.Fatalf("sample off both layers: %v", p)
		}
	}
	if top != 121 || bottom != 121 {
		t.Fatalf("layers %d / %d", top, bottom)
	}
}
