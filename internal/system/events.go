package system

import (
	"time"

	"github.com/whalesim/fluidsync/internal/core/event"
	coresys "github.com/whalesim/fluidsync/internal/core/system"
)

// EventDispatchSystem delivers last frame's events at frame start.
// Phase 0 (First).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseFirst }
func (s *EventDispatchSystem) Set() coresys.Set     { return coresys.SetDefault }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
