package system

import (
	"time"

	coresys "github.com/lugo/server/internal/core/system"
	"github.com/lugo/server/internal/world"
)

// VisibilitySystem re-evaluates every player's perspective so objects enter
// and leave view as players move. Phase 3 (PostUpdate), every N ticks.
type VisibilitySystem struct {
	zone  *world.Zone
	every int
	ticks int
}

func NewVisibilitySystem(zone *world.Zone, everyTicks int) *VisibilitySystem {
	if everyTicks <= 0 {
		everyTicks = 1
	}
	return &VisibilitySystem{zone: zone, every: everyTicks}
}

func (s *VisibilitySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *VisibilitySystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks < s.every {
		return
	}
	s.ticks = 0
	for _, p := range s.zone.Players() {
		s.zone.RefreshView(p)
	}
}
