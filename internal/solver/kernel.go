package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Real is the scalar type of every solver quantity.
type Real = float32

// Vec3 is a 3D point or vector.
type Vec3 = mgl32.Vec3

// CubicSpline is the cubic B-spline smoothing kernel with compact support
// radius H.
type CubicSpline struct {
	H     Real
	sigma Real
}

func NewCubicSpline(h Real) CubicSpline {
	return CubicSpline{H: h, sigma: 8 / (math.Pi * h * h * h)}
}

// W evaluates the kernel at distance r.
func (k CubicSpline) W(r Real) Real {
	q := r / k.H
	switch {
	case q <= 0.5:
		return k.sigma * (6*(q*q*q-q*q) + 1)
	case q <= 1:
		t := 1 - q
		return k.sigma * 2 * t * t * t
	default:
		return 0
	}
}

// Grad returns the kernel gradient with respect to xi for the offset
// rij = xi - xj.
func (k CubicSpline) Grad(rij Vec3) Vec3 {
	r := rij.Len()
	if r <= 1e-9 || r >= k.H {
		return Vec3{}
	}
	q := r / k.H
	var dw Real
	if q <= 0.5 {
		dw = 6 * (3*q*q - 2*q)
	} else {
		t := 1 - q
		dw = -6 * t * t
	}
	return rij.Mul(k.sigma * dw / (k.H * r))
}
