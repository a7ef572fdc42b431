package handler

import (
	"context"
	"time"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

// ProtocolVersion is the client build this server speaks.
const ProtocolVersion uint32 = 171022

// HandleValidation checks the client protocol version. Mismatched clients
// are disconnected.
func HandleValidation(sess *net.Session, r *packet.Reader, deps *Deps) {
	version := r.ReadU32()
	if r.Err() != nil || version != ProtocolVersion {
		deps.Log.Warn("client version rejected",
			zap.Uint64("session", sess.ID),
			zap.Uint32("version", version),
		)
		sess.Close()
	}
}

// HandleLoginRequest selects the character the session plays. The client is
// told which zone to load; sessions whose character lives in another hosted
// zone move there first.
//
// Layout: [character id i64]
func HandleLoginRequest(sess *net.Session, r *packet.Reader, deps *Deps) {
	charID := ecs.ObjectID(r.ReadI64())
	if r.Err() != nil {
		sess.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec, err := deps.Zone.Store().LoadCharacter(ctx, charID)
	if err != nil {
		deps.Log.Warn("login: character not found",
			zap.Uint64("session", sess.ID),
			zap.Int64("character", int64(charID)),
			zap.Error(err),
		)
		sess.Close()
		return
	}

	sess.CharacterID.Store(int64(rec.ID))
	sess.SetState(packet.StateLoggedIn)

	zone := deps.Zone
	if rec.ZoneID != zone.ID() && deps.Handoff != nil {
		if target, ok := deps.Handoff(sess, rec.ZoneID); ok {
			zone = target
		}
	}
	sess.Send(LoadZonePacket(zone, rec))

	deps.Log.Info("character login",
		zap.Uint64("session", sess.ID),
		zap.String("name", rec.Name),
		zap.Uint16("zone", zone.ID()),
	)
}

// LoadZonePacket tells the client which zone to load and where it stands.
//
// Layout: [zone u16][checksum u64][position f32×3]
func LoadZonePacket(zone *world.Zone, rec *world.CharacterRecord) []byte {
	pos := rec.Position
	if rec.ZoneID != zone.ID() || pos == (world.Vector3{}) {
		pos, _ = zone.SpawnPoint()
	}
	w := packet.NewUserPacket(packet.ServerLoadZone)
	w.WriteU16(zone.ID())
	w.WriteU64(zone.Checksum())
	w.WriteF32(pos.X)
	w.WriteF32(pos.Y)
	w.WriteF32(pos.Z)
	return w.Bytes()
}

// HandleLevelLoaded builds the player once the client has loaded the zone.
func HandleLevelLoaded(sess *net.Session, _ *packet.Reader, deps *Deps) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	charID := ecs.ObjectID(sess.CharacterID.Load())
	if _, err := deps.Zone.LoadPlayer(ctx, sess, sess.ID, charID); err != nil {
		deps.Log.Error("load player failed",
			zap.Uint64("session", sess.ID),
			zap.Int64("character", int64(charID)),
			zap.Error(err),
		)
		sess.Close()
		return
	}
	sess.SetState(packet.StateInWorld)
}
