package solver

import "fmt"

// FluidHandle identifies one fluid in a LiquidWorld. The zero value is never
// issued.
type FluidHandle struct {
	index      uint32
	generation uint32
}

func (h FluidHandle) String() string {
	return fmt.Sprintf("fluid#%d.%d", h.index, h.generation)
}

// BoundaryHandle identifies one boundary particle set in a LiquidWorld.
type BoundaryHandle struct {
	index      uint32
	generation uint32
}

func (h BoundaryHandle) String() string {
	return fmt.Sprintf("boundary#%d.%d", h.index, h.generation)
}

type slot[T any] struct {
	generation uint32
	value      *T
}

// arena stores values in generational slots. Generations start at 1 so a
// zero handle never resolves; a freed slot bumps its generation.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

func (a *arena[T]) insert(v *T) (uint32, uint32) {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx].value = v
		return idx, a.slots[idx].generation
	}
	a.slots = append(a.slots, slot[T]{generation: 1, value: v})
	return uint32(len(a.slots) - 1), 1
}

func (a *arena[T]) get(idx, gen uint32) (*T, bool) {
	if int(idx) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[idx]
	if s.generation != gen || s.value == nil {
		return nil, false
	}
	return s.value, true
}

func (a *arena[T]) remove(idx, gen uint32) (*T, bool) {
	v, ok := a.get(idx, gen)
	if !ok {
		return nil, false
	}
	a.slots[idx].value = nil
	a.slots[idx].generation++
	a.free = append(a.free, idx)
	a.live--
	return v, true
}

// each visits live values in slot order.
func (a *arena[T]) each(fn func(idx, gen uint32, v *T)) {
	for i, s := range a.slots {
		if s.value != nil {
			fn(uint32(i), s.generation, s.value)
		}
	}
}
