package world

import (
	"context"
	"time"

	"github.com/lugo/server/internal/core/event"
	coresys "github.com/lugo/server/internal/core/system"
	"go.uber.org/zap"
)

// Run drives the zone until ctx is cancelled. With players present it ticks
// every TickRate; with none it only drains input, fires timers and flushes
// output once per IdleInterval.
func (z *Zone) Run(ctx context.Context) error {
	z.log.Info("zone loop started",
		zap.String("name", z.Name()),
		zap.Duration("tick", z.cfg.TickRate),
		zap.Duration("idle", z.cfg.IdleInterval))

	ticker := time.NewTicker(z.cfg.TickRate)
	defer ticker.Stop()

	last := time.Now()
	window := last
	var frames int
	for {
		if z.PlayerCount() == 0 {
			select {
			case <-ctx.Done():
				z.shutdown()
				return nil
			case <-time.After(z.cfg.IdleInterval):
			}
			now := time.Now()
			z.IdleTick(now.Sub(last))
			last = now
			continue
		}

		select {
		case <-ctx.Done():
			z.shutdown()
			return nil
		case now := <-ticker.C:
			z.Tick(now.Sub(last))
			last = now
			frames++
			if elapsed := now.Sub(window); elapsed >= time.Second {
				z.log.Debug("tps",
					zap.Float64("tps", float64(frames)/elapsed.Seconds()),
					zap.Int("players", z.PlayerCount()),
					zap.Int("objects", z.ObjectCount()))
				frames = 0
				window = now
			}
		}
	}
}

// Tick runs one full pass of every registered system.
func (z *Zone) Tick(dt time.Duration) {
	z.runner.Tick(dt)
	if err := event.Fire(&z.OnTick); err != nil {
		z.log.Error("tick listener failed", zap.Error(err))
	}
	z.ticks.Add(1)
}

// IdleTick keeps logins and timers alive without running object updates.
func (z *Zone) IdleTick(dt time.Duration) {
	z.runner.TickPhase(coresys.PhaseInput, dt)
	z.runner.TickPhase(coresys.PhasePreUpdate, dt)
	z.sched.fireTimers()
	z.runner.TickPhase(coresys.PhaseOutput, dt)
	z.runner.TickPhase(coresys.PhaseCleanup, dt)
}

// shutdown saves and removes every player, then destroys every object.
func (z *Zone) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, p := range z.Players() {
		z.RemovePlayer(ctx, p)
		if c := p.Connection(); c != nil {
			c.Close()
		}
	}
	for _, obj := range z.Objects() {
		obj.Destroy()
	}
	z.log.Info("zone stopped", zap.Int64("ticks", z.Ticks()))
}
