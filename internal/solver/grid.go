package solver

import "math"

// Neighbour search uses a uniform hash grid whose cell edge equals the kernel
// radius, so a 3x3x3 block of cells covers every candidate.

type cellKey struct {
	x, y, z int32
}

// Neighbour points at one particle of a step: Set >= 0 indexes
// StepContext.Fluids, Set < 0 is boundary -(Set+1) of StepContext.Boundaries.
type Neighbour struct {
	Set   int
	Index int
}

func fluidRef(set, idx int) Neighbour    { return Neighbour{Set: set, Index: idx} }
func boundaryRef(set, idx int) Neighbour { return Neighbour{Set: -set - 1, Index: idx} }

// Boundary reports whether n is a boundary particle and which boundary.
func (n Neighbour) Boundary() (int, bool) {
	if n.Set >= 0 {
		return 0, false
	}
	return -n.Set - 1, true
}

type grid struct {
	cell  Real
	cells map[cellKey][]Neighbour
}

func newGrid(cell Real) *grid {
	return &grid{cell: cell, cells: make(map[cellKey][]Neighbour)}
}

func (g *grid) key(p Vec3) cellKey {
	return cellKey{
		x: int32(math.Floor(float64(p[0] / g.cell))),
		y: int32(math.Floor(float64(p[1] / g.cell))),
		z: int32(math.Floor(float64(p[2] / g.cell))),
	}
}

func (g *grid) insert(p Vec3, ref Neighbour) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], ref)
}

// nearby calls fn for every stored particle in the 27 cells around p.
// The caller does the exact distance test.
func (g *grid) nearby(p Vec3, fn func(Neighbour)) {
	c := g.key(p)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				for _, ref := range g.cells[cellKey{c.x + dx, c.y + dy, c.z + dz}] {
					fn(ref)
				}
			}
		}
	}
}
