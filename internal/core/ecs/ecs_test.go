package ecs

import (
	"slices"
	"testing"
)

func TestEntityPoolRecyclesWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	if a == 0 {
		t.Fatal("zero id issued")
	}
	p.Destroy(a)
	if p.Alive(a) {
		t.Fatal("destroyed id still alive")
	}
	b := p.Create()
	if b.Index() != a.Index() || b.Generation() != a.Generation()+1 {
		t.Fatalf("expected recycled index with bumped generation, got %s after %s", b, a)
	}
	p.Destroy(a) // stale
	if !p.Alive(b) {
		t.Fatal("stale destroy killed the new entity")
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 live entity, got %d", p.Len())
	}
}

func TestStoreTracksRemovals(t *testing.T) {
	s := NewTrackedStore[int]()
	v := 1
	s.Set(3, &v)
	s.Set(1, &v)
	s.Remove(3)
	s.Remove(7)
	got := s.DrainRemoved()
	if !slices.Equal(got, []EntityID{3}) {
		t.Fatalf("removed = %v", got)
	}
	if len(s.DrainRemoved()) != 0 {
		t.Fatal("drain did not reset")
	}

	plain := NewStore[int]()
	plain.Set(1, &v)
	plain.Remove(1)
	if len(plain.DrainRemoved()) != 0 {
		t.Fatal("untracked store recorded a removal")
	}
}

func TestStoreEachIsOrdered(t *testing.T) {
	s := NewStore[int]()
	for _, id := range []EntityID{9, 2, 5} {
		v := int(id)
		s.Set(id, &v)
	}
	var seen []EntityID
	s.Each(func(id EntityID, _ *int) { seen = append(seen, id) })
	if !slices.Equal(seen, []EntityID{2, 5, 9}) {
		t.Fatalf("order = %v", seen)
	}
}

func TestEachWithoutAndEach2(t *testing.T) {
	a := NewStore[int]()
	b := NewStore[string]()
	x, y := 0, "y"
	a.Set(1, &x)
	a.Set(2, &x)
	b.Set(2, &y)
	b.Set(3, &y)

	var without []EntityID
	EachWithout(a, b, func(id EntityID, _ *int) { without = append(without, id) })
	if !slices.Equal(without, []EntityID{1}) {
		t.Fatalf("without = %v", without)
	}
	var both []EntityID
	Each2(a, b, func(id EntityID, _ *int, _ *string) { both = append(both, id) })
	if !slices.Equal(both, []EntityID{2}) {
		t.Fatalf("both = %v", both)
	}
}

func TestWorldFlushRemovesComponents(t *testing.T) {
	w := NewWorld()
	s := NewTrackedStore[int]()
	w.Registry().Register(s)
	id := w.Spawn()
	v := 4
	s.Set(id, &v)
	w.Despawn(id)
	w.Despawn(id)
	if n := w.FlushDestroyQueue(); n != 1 {
		t.Fatalf("flushed %d entities", n)
	}
	if s.Has(id) || w.Alive(id) {
		t.Fatal("entity survived flush")
	}
	if got := s.DrainRemoved(); !slices.Equal(got, []EntityID{id}) {
		t.Fatalf("removed = %v", got)
	}
}
