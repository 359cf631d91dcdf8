package ecs

// Each2 iterates over entities that have both component A and B, in
// ascending id order of the smaller store.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range sa.IDs() {
			a, okA := sa.data[id]
			b, okB := sb.data[id]
			if okA && okB {
				fn(id, a, b)
			}
		}
		return
	}
	for _, id := range sb.IDs() {
		a, okA := sa.data[id]
		b, okB := sb.data[id]
		if okA && okB {
			fn(id, a, b)
		}
	}
}

// EachWithout iterates over entities that have component A but not B.
func EachWithout[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A)) {
	for _, id := range sa.IDs() {
		if sb.Has(id) {
			continue
		}
		if a, ok := sa.data[id]; ok {
			fn(id, a)
		}
	}
}
