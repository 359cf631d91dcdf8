package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Shape is a collider geometry in collider-local space.
type Shape interface {
	// Sample returns surface points spaced roughly spacing apart.
	Sample(spacing float32) []mgl32.Vec3
}

type Ball struct {
	Radius float32
}

// Sample distributes points on the sphere along a Fibonacci spiral.
func (b Ball) Sample(spacing float32) []mgl32.Vec3 {
	if b.Radius <= 0 || spacing <= 0 {
		return nil
	}
	area := 4 * math.Pi * float64(b.Radius) * float64(b.Radius)
	n := max(int(math.Ceil(area/float64(spacing*spacing))), 1)
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make([]mgl32.Vec3, 0, n)
	for i := 0; i < n; i++ {
		y := 1.0
		if n > 1 {
			y = 1 - 2*float64(i)/float64(n-1)
		}
		r := math.Sqrt(max(1-y*y, 0))
		theta := golden * float64(i)
		p := mgl32.Vec3{float32(math.Cos(theta) * r), float32(y), float32(math.Sin(theta) * r)}
		out = append(out, p.Mul(b.Radius))
	}
	return out
}

type Cuboid struct {
	HalfExtents mgl32.Vec3
}

// Sample grids the box surface; edges and corners appear once. An axis
// thinner than spacing is widened to spacing, so planes and thin slabs get
// two layers.
func (c Cuboid) Sample(spacing float32) []mgl32.Vec3 {
	if spacing <= 0 {
		return nil
	}
	half := c.HalfExtents
	var counts [3]int
	for a := 0; a < 3; a++ {
		if half[a] < 0 {
			return nil
		}
		half[a] = max(half[a], spacing/2)
		counts[a] = int(math.Ceil(float64(2*half[a]/spacing)-1e-4)) + 1
	}
	coord := func(a, i int) float32 {
		return -half[a] + 2*half[a]*float32(i)/float32(counts[a]-1)
	}
	var out []mgl32.Vec3
	for i := 0; i < counts[0]; i++ {
		for j := 0; j < counts[1]; j++ {
			for k := 0; k < counts[2]; k++ {
				onFace := i == 0 || i == counts[0]-1 || j == 0 || j == counts[1]-1 || k == 0 || k == counts[2]-1
				if !onFace {
					continue
				}
				out = append(out, mgl32.Vec3{coord(0, i), coord(1, j), coord(2, k)})
			}
		}
	}
	return out
}
