package system

import (
	"time"

	"github.com/whalesim/fluidsync/internal/core/ecs"
	coresys "github.com/whalesim/fluidsync/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at frame end.
// Phase 4 (Last).
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(world *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseLast }
func (s *CleanupSystem) Set() coresys.Set     { return coresys.SetDefault }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.FlushDestroyQueue()
}
