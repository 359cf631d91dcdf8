// Package geometry builds particle layouts.
package geometry

import "github.com/go-gl/mathgl/mgl32"

// CubeParticlePositions fills an ni x nj x nk lattice of particles of the
// given radius, touching each other, centred on the origin.
func CubeParticlePositions(ni, nj, nk int, particleRadius float32) []mgl32.Vec3 {
	if ni <= 0 || nj <= 0 || nk <= 0 {
		return nil
	}
	points := make([]mgl32.Vec3, 0, ni*nj*nk)
	half := mgl32.Vec3{float32(ni), float32(nj), float32(nk)}.Mul(particleRadius)
	offset := mgl32.Vec3{particleRadius, particleRadius, particleRadius}.Sub(half)
	step := particleRadius * 2
	for i := 0; i < ni; i++ {
		for j := 0; j < nj; j++ {
			for k := 0; k < nk; k++ {
				p := mgl32.Vec3{float32(i) * step, float32(j) * step, float32(k) * step}
				points = append(points, p.Add(offset))
			}
		}
	}
	return points
}
