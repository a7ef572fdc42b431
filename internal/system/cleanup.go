package system

import (
	"context"
	"time"

	coresys "github.com/lugo/server/internal/core/system"
	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem drops closed sessions at tick end, saving and removing their
// players. Phase 6 (Cleanup).
type CleanupSystem struct {
	zone     *world.Zone
	sessions *SessionSet
	log      *zap.Logger
}

func NewCleanupSystem(zone *world.Zone, sessions *SessionSet, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{zone: zone, sessions: sessions, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.sessions.ForEach(func(sess *net.Session) {
		if !sess.IsClosed() {
			return
		}
		s.sessions.Remove(sess.ID)
		p, ok := s.zone.PlayerBySession(sess.ID)
		if !ok {
			s.log.Debug("session closed before entering world", zap.Uint64("session", sess.ID))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.zone.RemovePlayer(ctx, p)
	})
}
