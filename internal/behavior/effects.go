package behavior

import (
	"math"

	"github.com/lugo/server/internal/world"
)

// Nodes below carry no bits. The client plays their effects itself.

type playEffect struct{ info }

type applyBuff struct{ info }

type changeIdleFlags struct{ info }

type alterCooldown struct{ info }

type interrupt struct{ info }

type skillCastFailed struct{ info }

// changeOrientation turns the caster to face the branch target.
type changeOrientation struct {
	info
	toTarget bool
}

func (n *changeOrientation) build(b *builder) {
	n.toTarget = b.optional("orient_caster", 1) > 0
}

func (n *changeOrientation) apply(ctx *Context, br Branch) {
	if !n.toTarget || br.Target == nil || br.Target == ctx.Caster {
		return
	}
	if t := ctx.Caster.Transform(); t != nil {
		t.SetRotation(facing(t.Position(), br.Target.Position()))
	}
}

func (n *changeOrientation) Execute(ctx *Context, br Branch) error {
	ctx.apply(func() { n.apply(ctx, br) })
	return nil
}

func (n *changeOrientation) Calculate(ctx *Context, br Branch) { n.apply(ctx, br) }

// facing returns the yaw rotation looking from one point to another.
func facing(from, to world.Vector3) world.Quaternion {
	d := to.Sub(from)
	yaw := math.Atan2(float64(d.X), float64(d.Z))
	return world.Quaternion{Y: float32(math.Sin(yaw / 2)), W: float32(math.Cos(yaw / 2))}
}
