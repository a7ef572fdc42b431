package world

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	coresys "github.com/lugo/server/internal/core/system"
	"go.uber.org/zap"
)

// UpdateToken identifies a recurring update registered with Zone.Update.
type UpdateToken uint64

type updateEntry struct {
	token     UpdateToken
	owner     *GameObject
	fn        func()
	frequency int
	ticks     int
}

// Timer is a one-shot callback owned by the zone loop. Timers whose owner
// is destroyed are cancelled.
type Timer struct {
	owner     *GameObject
	at        time.Time
	fn        func()
	cancelled atomic.Bool
}

// Cancel stops the timer. It reports false when the timer had already
// fired or been cancelled.
func (t *Timer) Cancel() bool {
	return t.cancelled.CompareAndSwap(false, true)
}

func (t *Timer) Cancelled() bool { return t.cancelled.Load() }

// scheduler runs per-object recurring updates and zone timers. It is the
// only driver of either and runs inside the zone loop.
type scheduler struct {
	zone *Zone

	mu      sync.Mutex
	next    UpdateToken
	updates []*updateEntry
	timers  []*Timer
}

func newScheduler(z *Zone) *scheduler {
	return &scheduler{zone: z}
}

func (s *scheduler) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *scheduler) Update(time.Duration) {
	s.fireTimers()
	s.runUpdates()
}

func (s *scheduler) runUpdates() {
	s.mu.Lock()
	due := make([]*updateEntry, 0, len(s.updates))
	for _, e := range s.updates {
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		if !s.zone.visibleToAnyPlayer(e.owner) {
			continue
		}
		e.ticks++
		if e.ticks < e.frequency {
			continue
		}
		e.ticks = 0
		s.call("update", e.owner, e.fn)
	}
}

func (s *scheduler) fireTimers() {
	now := s.zone.now()
	s.mu.Lock()
	var due []*Timer
	kept := s.timers[:0]
	for _, t := range s.timers {
		switch {
		case t.Cancelled():
		case !t.at.After(now):
			due = append(due, t)
		default:
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	s.timers = kept
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		if !t.Cancel() {
			continue
		}
		s.call("timer", t.owner, t.fn)
	}
}

func (s *scheduler) call(what string, owner *GameObject, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			fields := []zap.Field{zap.Any("panic", r)}
			if owner != nil {
				fields = append(fields, zap.Int64("object", int64(owner.id)))
			}
			s.zone.log.Error("scheduled "+what+" panic recovered", fields...)
		}
	}()
	fn()
}

func (s *scheduler) addUpdate(owner *GameObject, fn func(), frequency int) UpdateToken {
	if frequency < 1 {
		frequency = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.updates = append(s.updates, &updateEntry{token: s.next, owner: owner, fn: fn, frequency: frequency})
	return s.next
}

func (s *scheduler) removeUpdate(token UpdateToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.updates {
		if e.token == token {
			s.updates = append(s.updates[:i:i], s.updates[i+1:]...)
			return true
		}
	}
	return false
}

func (s *scheduler) addTimer(t *Timer) {
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
}

// dropOwner removes every update of owner and cancels its timers.
func (s *scheduler) dropOwner(owner *GameObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.updates[:0]
	for _, e := range s.updates {
		if e.owner != owner {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(s.updates); i++ {
		s.updates[i] = nil
	}
	s.updates = kept
	for _, t := range s.timers {
		if t.owner == owner {
			t.Cancel()
		}
	}
}

func (s *scheduler) counts() (updates, timers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		if !t.Cancelled() {
			timers++
		}
	}
	return len(s.updates), timers
}

// Update schedules fn to run every frequency ticks on behalf of owner. The
// entry is skipped while no player can see owner and is dropped when owner
// is destroyed.
func (z *Zone) Update(owner *GameObject, fn func(), frequency int) UpdateToken {
	return z.sched.addUpdate(owner, fn, frequency)
}

// CancelUpdate removes a recurring update.
func (z *Zone) CancelUpdate(token UpdateToken) bool {
	return z.sched.removeUpdate(token)
}

// Schedule runs fn once on the zone loop after delay. A nil owner makes a
// zone-level timer; otherwise the timer is cancelled when owner is
// destroyed.
func (z *Zone) Schedule(owner *GameObject, delay time.Duration, fn func()) *Timer {
	t := &Timer{owner: owner, at: z.now().Add(delay), fn: fn}
	if owner != nil && owner.state.Load() == stateDestroyed {
		t.Cancel()
		return t
	}
	z.sched.addTimer(t)
	return t
}

// visibleToAnyPlayer reports whether any player currently has obj revealed.
func (z *Zone) visibleToAnyPlayer(obj *GameObject) bool {
	if obj == nil {
		return true
	}
	for _, p := range z.Players() {
		if _, ok := p.Perspective().TryGetNetworkID(obj); ok {
			return true
		}
	}
	return false
}
