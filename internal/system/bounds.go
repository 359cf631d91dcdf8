package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/whalesim/fluidsync/internal/component"
	"github.com/whalesim/fluidsync/internal/core/ecs"
	coresys "github.com/whalesim/fluidsync/internal/core/system"
)

// BoundsSystem recomputes each fluid entity's AABB from its particle
// positions. It runs in the transform propagation set so it sees this
// frame's writeback.
type BoundsSystem struct {
	stores *component.Stores
}

func NewBoundsSystem(stores *component.Stores) *BoundsSystem {
	return &BoundsSystem{stores: stores}
}

func (s *BoundsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }
func (s *BoundsSystem) Set() coresys.Set     { return coresys.SetTransformPropagate }

func (s *BoundsSystem) Update(_ time.Duration) {
	s.stores.ParticlePositions.Each(func(e ecs.EntityID, pp *component.ParticlePositions) {
		if len(pp.Positions) == 0 {
			s.stores.Bounds.Remove(e)
			return
		}
		lo, hi := pp.Positions[0], pp.Positions[0]
		for _, p := range pp.Positions[1:] {
			for a := 0; a < 3; a++ {
				lo[a] = min(lo[a], p[a])
				hi[a] = max(hi[a], p[a])
			}
		}
		b, ok := s.stores.Bounds.Get(e)
		if !ok {
			b = &component.Bounds{}
			s.stores.Bounds.Set(e, b)
		}
		b.Min, b.Max = lo, hi
	})
}

// Extent is the size of a bounds box.
func Extent(b *component.Bounds) mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}
