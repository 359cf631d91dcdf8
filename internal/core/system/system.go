package system

import (
	"fmt"
	"time"
)

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseFirst      Phase = iota // 0: event dispatch
	PhasePreUpdate               // 1: input, spawning
	PhaseUpdate                  // 2: application logic
	PhasePostUpdate              // 3: physics, fluid coupling, transform propagation
	PhaseLast                    // 4: destroy queued entities

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseFirst:
		return "First"
	case PhasePreUpdate:
		return "PreUpdate"
	case PhaseUpdate:
		return "Update"
	case PhasePostUpdate:
		return "PostUpdate"
	case PhaseLast:
		return "Last"
	default:
		return "Unknown"
	}
}

// ParsePhase maps a phase name (as printed by String) back to its Phase.
func ParsePhase(name string) (Phase, error) {
	for p := PhaseFirst; p < phaseCount; p++ {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// Set labels a group of systems that is ordered as a unit within a phase.
type Set string

// Host-level sets other plugins anchor against.
const (
	SetDefault            Set = ""
	SetRigidSyncBackend   Set = "rigid.sync_backend"
	SetRigidStep          Set = "rigid.step"
	SetRigidWriteback     Set = "rigid.writeback"
	SetTransformPropagate Set = "transform.propagate"
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Set() Set
	Update(dt time.Duration)
}
