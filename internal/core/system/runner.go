package system

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner executes systems in phase order each tick. A panicking system is
// logged and skipped for the rest of that tick's call; the tick continues.
type Runner struct {
	mu      sync.Mutex
	systems []System
	sorted  bool
	log     *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
		log:     log,
	}
}

func (r *Runner) Register(s System) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Len returns the number of registered systems.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.systems)
}

func (r *Runner) Tick(dt time.Duration) {
	for _, s := range r.ordered() {
		r.run(s, dt)
	}
}

// TickPhase runs only the systems of one phase. Zones use it while idle so
// joining sessions and timers are still served without a full tick.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	for _, s := range r.ordered() {
		if s.Phase() == phase {
			r.run(s, dt)
		}
	}
}

func (r *Runner) run(s System, dt time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("system panic recovered",
				zap.String("system", fmt.Sprintf("%T", s)),
				zap.String("phase", s.Phase().String()),
				zap.Any("panic", rec),
			)
		}
	}()
	s.Update(dt)
}

func (r *Runner) ordered() []System {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
	out := make([]System, len(r.systems))
	copy(out, r.systems)
	return out
}
