package handler

import (
	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

func HandleRequestUse(_ *net.Session, p *world.Player, r *packet.Reader, deps *Deps) {
	m := world.ReadRequestUse(r)
	if r.Err() != nil {
		return
	}
	obj, ok := deps.Zone.Object(m.Target)
	if !ok {
		deps.Log.Debug("use of unknown object", zap.Int64("target", int64(m.Target)))
		return
	}
	if err := obj.Interact(p); err != nil {
		deps.Log.Debug("interaction refused",
			zap.Int64("object", int64(p.ID())),
			zap.Int64("target", int64(m.Target)),
			zap.Error(err),
		)
	}
}

func HandlePickupCurrency(_ *net.Session, p *world.Player, r *packet.Reader, deps *Deps) {
	m := world.ReadPickupCurrency(r)
	if r.Err() != nil {
		return
	}
	if !p.PickupCurrency(m.Currency) {
		deps.Log.Warn("currency pickup exceeds entitlement",
			zap.Int64("object", int64(p.ID())),
			zap.Uint32("currency", m.Currency),
		)
	}
}

func HandlePickupItem(_ *net.Session, p *world.Player, r *packet.Reader, deps *Deps) {
	m := world.ReadPickupItem(r)
	if r.Err() != nil {
		return
	}
	if !p.PickupItem(m.Loot) {
		deps.Log.Debug("pickup of unknown loot",
			zap.Int64("object", int64(p.ID())),
			zap.Int64("loot", int64(m.Loot)),
		)
	}
}
