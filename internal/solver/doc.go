// Package solver is a small smoothed-particle-hydrodynamics fluid solver.
//
// A LiquidWorld owns every fluid's particle buffers and the boundary particle
// sets used to couple with rigid bodies. Fluids and boundaries are addressed
// by generational handles that stay invalid after removal. Stepping never
// adds, drops or reorders particles: the i-th position of a fluid is always
// the i-th particle it was created with.
package solver
