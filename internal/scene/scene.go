// Package scene loads YAML scene files and spawns their fluids and rigid
// bodies as entities.
package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Scene is the top-level document.
type Scene struct {
	Fluids []FluidEntry `yaml:"fluids"`
	Bodies []BodyEntry  `yaml:"bodies"`
}

// FluidEntry declares one fluid. Exactly one of Cuboid or Points is set.
type FluidEntry struct {
	Name    string       `yaml:"name"`
	Cuboid  *CuboidEntry `yaml:"cuboid"`
	Points  [][3]float32 `yaml:"points"`
	Density float32      `yaml:"density"` // 0 = default rest density
	Forces  []ForceEntry `yaml:"forces"`
}

// CuboidEntry is a particle lattice centred on Center.
type CuboidEntry struct {
	NI     int        `yaml:"ni"`
	NJ     int        `yaml:"nj"`
	NK     int        `yaml:"nk"`
	Center [3]float32 `yaml:"center"`
}

// ForceEntry selects a non-pressure force by kind: "viscosity",
// "surface_tension" or "lua".
type ForceEntry struct {
	Kind        string  `yaml:"kind"`
	Coefficient float32 `yaml:"coefficient"`
	Function    string  `yaml:"function"` // lua only
}

type BodyEntry struct {
	Name      string          `yaml:"name"`
	Type      string          `yaml:"type"` // "dynamic" or "fixed"
	Position  [3]float32      `yaml:"position"`
	Mass      float32         `yaml:"mass"`
	Colliders []ColliderEntry `yaml:"colliders"`
}

// ColliderEntry is a "ball" (Radius) or a "cuboid" (HalfExtents).
type ColliderEntry struct {
	Shape       string     `yaml:"shape"`
	Radius      float32    `yaml:"radius"`
	HalfExtents [3]float32 `yaml:"half_extents"`
	Offset      [3]float32 `yaml:"offset"`
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a scene document.
func Parse(raw []byte) (*Scene, error) {
	var sc Scene
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	return &sc, nil
}

// Validate reports every malformed entry at once. Empty fluids are allowed
// here; the fluid pipeline rejects them at creation.
func (sc *Scene) Validate() error {
	var err error
	for i, f := range sc.Fluids {
		where := fmt.Sprintf("fluids[%d] %q", i, f.Name)
		if f.Cuboid != nil && len(f.Points) > 0 {
			err = multierr.Append(err, fmt.Errorf("%s: cuboid and points are exclusive", where))
		}
		if f.Cuboid != nil && (f.Cuboid.NI < 0 || f.Cuboid.NJ < 0 || f.Cuboid.NK < 0) {
			err = multierr.Append(err, fmt.Errorf("%s: negative cuboid size", where))
		}
		if f.Density < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: negative density", where))
		}
		for j, fe := range f.Forces {
			switch fe.Kind {
			case "viscosity", "surface_tension":
			case "lua":
				if fe.Function == "" {
					err = multierr.Append(err, fmt.Errorf("%s: forces[%d]: lua force needs a function", where, j))
				}
			default:
				err = multierr.Append(err, fmt.Errorf("%s: forces[%d]: unknown kind %q", where, j, fe.Kind))
			}
		}
	}
	for i, b := range sc.Bodies {
		where := fmt.Sprintf("bodies[%d] %q", i, b.Name)
		switch b.Type {
		case "dynamic":
			if b.Mass <= 0 {
				err = multierr.Append(err, fmt.Errorf("%s: dynamic body needs positive mass", where))
			}
		case "fixed":
		default:
			err = multierr.Append(err, fmt.Errorf("%s: unknown type %q", where, b.Type))
		}
		for j, c := range b.Colliders {
			switch c.Shape {
			case "ball":
				if c.Radius <= 0 {
					err = multierr.Append(err, fmt.Errorf("%s: colliders[%d]: ball needs positive radius", where, j))
				}
			case "cuboid":
				if c.HalfExtents[0] <= 0 || c.HalfExtents[1] <= 0 || c.HalfExtents[2] <= 0 {
					err = multierr.Append(err, fmt.Errorf("%s: colliders[%d]: cuboid needs positive half extents", where, j))
				}
			default:
				err = multierr.Append(err, fmt.Errorf("%s: colliders[%d]: unknown shape %q", where, j, c.Shape))
			}
		}
	}
	if len(sc.Fluids) == 0 && len(sc.Bodies) == 0 {
		err = multierr.Append(err, errors.New("scene is empty"))
	}
	return err
}

func vec(v [3]float32) mgl32.Vec3 { return mgl32.Vec3(v) }
