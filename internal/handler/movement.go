package handler

import (
	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
)

// HandlePositionUpdate applies a client position report. The server trusts
// the client position; perspective changes are picked up by the visibility
// system.
//
// Layout: [position f32×3][rotation f32×4 (x y z w)]
func HandlePositionUpdate(sess *net.Session, r *packet.Reader, deps *Deps) {
	pos := world.Vector3{X: r.ReadF32(), Y: r.ReadF32(), Z: r.ReadF32()}
	rot := world.Quaternion{X: r.ReadF32(), Y: r.ReadF32(), Z: r.ReadF32(), W: r.ReadF32()}
	if r.Err() != nil {
		return
	}
	p, ok := deps.Zone.PlayerBySession(sess.ID)
	if !ok {
		return
	}
	p.Move(pos, rot)
}
