package handler

import (
	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

// HandoffFunc moves sess to the zone hosting zoneID and returns that zone.
// It reports false when no zone on this server hosts zoneID.
type HandoffFunc func(sess *net.Session, zoneID uint16) (*world.Zone, bool)

// Deps holds the dependencies shared by the handlers of one zone.
type Deps struct {
	Zone    *world.Zone
	Log     *zap.Logger
	Handoff HandoffFunc
}

// RegisterAll registers every packet and game message handler into reg.
// Each zone owns its own registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.ClientValidation,
		[]packet.SessionState{packet.StateConnected},
		func(sess any, r *packet.Reader) {
			HandleValidation(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.ClientLoginRequest,
		[]packet.SessionState{packet.StateConnected},
		func(sess any, r *packet.Reader) {
			HandleLoginRequest(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.ClientLevelLoaded,
		[]packet.SessionState{packet.StateLoggedIn},
		func(sess any, r *packet.Reader) {
			HandleLevelLoaded(sess.(*net.Session), r, deps)
		},
	)

	inWorld := []packet.SessionState{packet.StateInWorld}
	reg.Register(packet.ClientPositionUpdate, inWorld,
		func(sess any, r *packet.Reader) {
			HandlePositionUpdate(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.ClientGeneralChat, inWorld,
		func(sess any, r *packet.Reader) {
			HandleGeneralChat(sess.(*net.Session), r, deps)
		},
	)

	messages := map[uint16]func(*net.Session, *world.Player, *packet.Reader, *Deps){
		world.MsgStartSkill:                    HandleStartSkill,
		world.MsgSyncSkill:                     HandleSyncSkill,
		world.MsgRequestServerProjectileImpact: HandleProjectileImpact,
		world.MsgRequestUse:                    HandleRequestUse,
		world.MsgPickupCurrency:                HandlePickupCurrency,
		world.MsgPickupItem:                    HandlePickupItem,
	}
	for id, fn := range messages {
		fn := fn
		reg.RegisterGameMessage(id, func(sess any, associate int64, r *packet.Reader) {
			s := sess.(*net.Session)
			p, ok := playerFor(s, associate, deps)
			if !ok {
				return
			}
			fn(s, p, r, deps)
		})
	}
}

// playerFor returns the player behind sess. Game messages must name the
// sender's own character as their associate.
func playerFor(sess *net.Session, associate int64, deps *Deps) (*world.Player, bool) {
	p, ok := deps.Zone.PlayerBySession(sess.ID)
	if !ok {
		deps.Log.Debug("game message without player", zap.Uint64("session", sess.ID))
		return nil, false
	}
	if int64(p.ID()) != associate {
		deps.Log.Warn("game message for foreign object",
			zap.Int64("object", int64(p.ID())),
			zap.Int64("associate", associate),
		)
		return nil, false
	}
	return p, true
}
