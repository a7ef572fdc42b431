package system

import (
	"time"

	coresys "github.com/lugo/server/internal/core/system"
	"github.com/lugo/server/internal/net"
)

// OutputSystem moves every frame buffered this tick onto the session write
// queues. Phase 4 (Output).
type OutputSystem struct {
	sessions *SessionSet
}

func NewOutputSystem(sessions *SessionSet) *OutputSystem {
	return &OutputSystem{sessions: sessions}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.sessions.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}
