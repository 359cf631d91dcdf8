package system

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/whalesim/fluidsync/internal/component"
	"github.com/whalesim/fluidsync/internal/core/ecs"
	"github.com/whalesim/fluidsync/internal/core/event"
	coresys "github.com/whalesim/fluidsync/internal/core/system"
	"github.com/whalesim/fluidsync/internal/rigid"
)

const dt = 10 * time.Millisecond

func TestRigidSystemsWritebackAndRemove(t *testing.T) {
	w := ecs.NewWorld()
	stores := component.NewStores(w)
	rw := rigid.NewWorld(mgl32.Vec3{0, -10, 0})
	r := coresys.NewRunner()
	RegisterRigid(r, rw, stores, zap.NewNop())
	r.Register(NewCleanupSystem(w))
	if err := r.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}

	h := rw.InsertBody(rigid.NewBody(rigid.Dynamic, mgl32.Vec3{0, 5, 0}, 1))
	if _, err := rw.InsertCollider(&rigid.Collider{Shape: rigid.Ball{Radius: 0.5}, Parent: h}); err != nil {
		t.Fatal(err)
	}
	e := w.Spawn()
	stores.RigidBodies.Set(e, &component.RigidBody{Handle: h})

	r.Tick(context.Background(), dt)
	tf, ok := stores.Transforms.Get(e)
	if !ok {
		t.Fatal("writeback did not attach a Transform")
	}
	if tf.Translation.Y() >= 5 {
		t.Fatalf("body did not fall: %v", tf.Translation)
	}

	w.Despawn(e)
	r.Tick(context.Background(), dt) // Last phase flushes the despawn
	r.Tick(context.Background(), dt) // next sync removes the body
	if _, ok := rw.Body(h); ok {
		t.Fatal("body survived its entity")
	}
	if n := len(rw.ColliderHandles()); n != 0 {
		t.Fatalf("%d colliders survived their body", n)
	}
}

func TestRigidSyncKeepsReplacedComponent(t *testing.T) {
	w := ecs.NewWorld()
	stores := component.NewStores(w)
	rw := rigid.NewWorld(mgl32.Vec3{})
	r := coresys.NewRunner()
	RegisterRigid(r, rw, stores, zap.NewNop())

	h := rw.InsertBody(rigid.NewBody(rigid.Fixed, mgl32.Vec3{}, 0))
	e := w.Spawn()
	stores.RigidBodies.Set(e, &component.RigidBody{Handle: h})
	r.Tick(context.Background(), dt)

	// removed and re-added within one frame: same handle, body stays
	stores.RigidBodies.Remove(e)
	stores.RigidBodies.Set(e, &component.RigidBody{Handle: h})
	r.Tick(context.Background(), dt)
	if _, ok := rw.Body(h); !ok {
		t.Fatal("body removed although the component is back")
	}
}

func TestBoundsSystem(t *testing.T) {
	w := ecs.NewWorld()
	stores := component.NewStores(w)
	s := NewBoundsSystem(stores)

	e := w.Spawn()
	stores.ParticlePositions.Set(e, &component.ParticlePositions{Positions: []mgl32.Vec3{
		{1, 2, 3}, {-1, 0, 5}, {0, 4, -2},
	}})
	empty := w.Spawn()
	stores.ParticlePositions.Set(empty, &component.ParticlePositions{})
	stores.Bounds.Set(empty, &component.Bounds{Max: mgl32.Vec3{1, 1, 1}})

	s.Update(dt)

	b, ok := stores.Bounds.Get(e)
	if !ok {
		t.Fatal("no bounds computed")
	}
	if b.Min != (mgl32.Vec3{-1, 0, -2}) || b.Max != (mgl32.Vec3{1, 4, 5}) {
		t.Fatalf("bounds = %+v", b)
	}
	if Extent(b) != (mgl32.Vec3{2, 4, 7}) {
		t.Fatalf("extent = %v", Extent(b))
	}
	if stores.Bounds.Has(empty) {
		t.Fatal("stale bounds kept for an empty particle set")
	}
}

func TestEventDispatchDeliversPreviousFrame(t *testing.T) {
	bus := event.NewBus()
	var got []event.FluidRemoved
	event.Subscribe(bus, func(e event.FluidRemoved) { got = append(got, e) })
	s := NewEventDispatchSystem(bus)

	event.Emit(bus, event.FluidRemoved{Entity: 7})
	s.Update(dt)
	if len(got) != 1 || got[0].Entity != 7 {
		t.Fatalf("dispatched %v", got)
	}
	s.Update(dt)
	if len(got) != 1 {
		t.Fatalf("event delivered twice: %v", got)
	}
}
