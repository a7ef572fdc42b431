package system

import (
	"context"
	"time"

	coresys "github.com/lugo/server/internal/core/system"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

// PersistenceSystem periodically writes the dirty state of every player in
// the zone. Phase 5 (Persist).
type PersistenceSystem struct {
	zone     *world.Zone
	interval time.Duration
	elapsed  time.Duration
	log      *zap.Logger
}

func NewPersistenceSystem(zone *world.Zone, interval time.Duration, log *zap.Logger) *PersistenceSystem {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PersistenceSystem{zone: zone, interval: interval, log: log}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.SaveDirty()
}

// SaveDirty flushes every player with unsaved changes. Failed fields stay
// dirty and are retried on the next pass.
func (s *PersistenceSystem) SaveDirty() int {
	saved := 0
	for _, p := range s.zone.Players() {
		if !p.Dirty() {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := p.Flush(ctx, s.zone.Store())
		cancel()
		if err != nil {
			s.log.Error("player save failed",
				zap.Int64("object", int64(p.ID())),
				zap.Error(err),
			)
			continue
		}
		saved++
	}
	if saved > 0 {
		s.log.Debug("players saved", zap.Int("count", saved))
	}
	return saved
}
