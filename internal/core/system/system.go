package system

import "time"

// Phase defines execution ordering within a single zone tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain packet queues
	PhasePreUpdate               // 1: admit joining players
	PhaseUpdate                  // 2: scheduled object updates and zone timers
	PhasePostUpdate              // 3: perspective refresh
	PhaseOutput                  // 4: flush session buffers
	PhasePersist                 // 5: dirty player flush
	PhaseCleanup                 // 6: drop closed sessions
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every zone system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
