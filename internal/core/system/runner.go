package system

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrOrderCycle is returned by Build when set ordering constraints loop.
var ErrOrderCycle = errors.New("set ordering cycle")

type edge struct{ before, after Set }

// Runner executes systems phase by phase each frame. Within a phase, sets run
// in an order satisfying every configured constraint; ties keep the order in
// which sets were first seen. Systems of one set run in registration order.
type Runner struct {
	systems []System
	edges   [phaseCount][]edge
	order   [phaseCount][]System
	built   bool
	tracer  trace.Tracer
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
		tracer:  otel.Tracer("github.com/whalesim/fluidsync/internal/core/system"),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.built = false
}

// ConfigureSets chains the given sets so each one runs after its predecessor.
func (r *Runner) ConfigureSets(phase Phase, sets ...Set) {
	for i := 1; i < len(sets); i++ {
		r.Order(phase, sets[i-1], sets[i])
	}
}

// Order requires every system of set before to run ahead of set after.
func (r *Runner) Order(phase Phase, before, after Set) {
	r.edges[phase] = append(r.edges[phase], edge{before: before, after: after})
	r.built = false
}

// Build resolves the execution order. It must succeed before the first Tick.
func (r *Runner) Build() error {
	for p := Phase(0); p < phaseCount; p++ {
		order, err := r.resolve(p)
		if err != nil {
			return fmt.Errorf("phase %s: %w", p, err)
		}
		r.order[p] = order
	}
	r.built = true
	return nil
}

func (r *Runner) resolve(phase Phase) ([]System, error) {
	var sets []Set
	members := make(map[Set][]System)
	seen := func(s Set) {
		if _, ok := members[s]; !ok {
			members[s] = nil
			sets = append(sets, s)
		}
	}
	for _, s := range r.systems {
		if s.Phase() != phase {
			continue
		}
		seen(s.Set())
		members[s.Set()] = append(members[s.Set()], s)
	}
	indegree := make(map[Set]int)
	next := make(map[Set][]Set)
	for _, e := range r.edges[phase] {
		seen(e.before)
		seen(e.after)
		next[e.before] = append(next[e.before], e.after)
		indegree[e.after]++
	}

	// Kahn, always taking the earliest-seen ready set.
	out := make([]System, 0, len(r.systems))
	done := 0
	visited := make(map[Set]bool, len(sets))
	for done < len(sets) {
		idx := slices.IndexFunc(sets, func(s Set) bool {
			return !visited[s] && indegree[s] == 0
		})
		if idx < 0 {
			return nil, ErrOrderCycle
		}
		s := sets[idx]
		visited[s] = true
		done++
		out = append(out, members[s]...)
		for _, n := range next[s] {
			indegree[n]--
		}
	}
	return out, nil
}

// Tick runs every phase in order.
func (r *Runner) Tick(ctx context.Context, dt time.Duration) {
	r.ensureBuilt()
	for p := Phase(0); p < phaseCount; p++ {
		r.runPhase(ctx, p, dt)
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(ctx context.Context, phase Phase, dt time.Duration) {
	r.ensureBuilt()
	r.runPhase(ctx, phase, dt)
}

// Systems returns the resolved order of one phase.
func (r *Runner) Systems(phase Phase) []System {
	r.ensureBuilt()
	return slices.Clone(r.order[phase])
}

func (r *Runner) runPhase(ctx context.Context, phase Phase, dt time.Duration) {
	for _, s := range r.order[phase] {
		_, span := r.tracer.Start(ctx, fmt.Sprintf("%T", s), trace.WithAttributes(
			attribute.String("phase", phase.String()),
			attribute.String("set", string(s.Set())),
		))
		s.Update(dt)
		span.End()
	}
}

// ensureBuilt panics on an unresolvable order; setup code calls Build first
// and handles the error there.
func (r *Runner) ensureBuilt() {
	if r.built {
		return
	}
	if err := r.Build(); err != nil {
		panic(err)
	}
}
