package behavior

import (
	"time"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
)

// attackDelay runs its action once per interval after a windup. The client
// announces a handle and later syncs it; server casts schedule the action
// themselves.
type attackDelay struct {
	info
	action    Node
	delay     float32
	intervals int
}

func (n *attackDelay) build(b *builder) {
	n.action = b.behavior("action")
	n.delay = b.optional("delay", 0)
	n.intervals = max(int(b.optional("num_intervals", 1)), 1)
}

func (n *attackDelay) Execute(ctx *Context, br Branch) error {
	handle := ctx.Reader.ReadU32()
	if err := ctx.readErr(); err != nil {
		return err
	}
	ctx.apply(func() {
		for i := 0; i < n.intervals; i++ {
			ctx.RegisterHandle(handle, n, br)
		}
	})
	return nil
}

func (n *attackDelay) Sync(ctx *Context, br Branch) error {
	return n.action.Execute(ctx, br)
}

func (n *attackDelay) Calculate(ctx *Context, br Branch) {
	if ctx.ValidTarget(br.Target) {
		ctx.FoundTarget = true
	}
	handle := ctx.ClaimSyncID()
	ctx.Writer.WriteU32(handle)
	for i := 0; i < n.intervals; i++ {
		ctx.later(seconds(n.delay)*time.Duration(i+1), handle, func(next *Context) {
			n.action.Calculate(next, br)
		})
	}
}

// chargeUp holds its action until the caster releases the charge.
type chargeUp struct {
	info
	action      Node
	maxDuration float32
}

func (n *chargeUp) build(b *builder) {
	n.action = b.behavior("action")
	n.maxDuration = b.optional("max_duration", 0)
}

func (n *chargeUp) Execute(ctx *Context, br Branch) error {
	handle := ctx.Reader.ReadU32()
	if err := ctx.readErr(); err != nil {
		return err
	}
	ctx.apply(func() { ctx.RegisterHandle(handle, n, br) })
	return nil
}

func (n *chargeUp) Sync(ctx *Context, br Branch) error {
	return n.action.Execute(ctx, br)
}

// Calculate releases after the full charge time.
func (n *chargeUp) Calculate(ctx *Context, br Branch) {
	handle := ctx.ClaimSyncID()
	ctx.Writer.WriteU32(handle)
	ctx.later(seconds(n.maxDuration), handle, func(next *Context) {
		n.action.Calculate(next, br)
	})
}

// landing is shared by movement nodes whose sync names the child that
// fired and the object it hit.
type landing struct {
	info
	actions []Node
}

func (n *landing) child(id uint32) (Node, bool) {
	for _, a := range n.actions {
		if a.BehaviorID() == id {
			return a, true
		}
	}
	return nil, false
}

func (n *landing) allEmpty() bool {
	for _, a := range n.actions {
		if !isEmpty(a) {
			return false
		}
	}
	return true
}

func (n *landing) sync(ctx *Context, br Branch) error {
	id := ctx.Reader.ReadU32()
	target := ctx.readTarget()
	if err := ctx.readErr(); err != nil {
		return err
	}
	action, ok := n.child(id)
	if !ok {
		return claimError(n, "behavior %d is not a landing action", id)
	}
	if target != nil {
		br.Target = target
	}
	return action.Execute(ctx, br)
}

// calculate resolves immediately into first.
func (n *landing) calculate(ctx *Context, br Branch, first Node) {
	handle := ctx.ClaimSyncID()
	ctx.Writer.WriteU32(handle)
	ctx.later(0, handle, func(next *Context) {
		next.Writer.WriteU32(first.BehaviorID())
		writeTarget(next.Writer, br.Target)
		first.Calculate(next, br)
	})
}

// airMovement resolves when the airborne caster lands or hits something.
type airMovement struct{ landing }

func (n *airMovement) build(b *builder) {
	n.actions = []Node{
		b.optionalBehavior("ground_action"),
		b.optionalBehavior("hit_action"),
		b.optionalBehavior("hit_action_enemy"),
		b.optionalBehavior("timeout_action"),
	}
}

func (n *airMovement) Execute(ctx *Context, br Branch) error {
	handle := ctx.Reader.ReadU32()
	if err := ctx.readErr(); err != nil {
		return err
	}
	ctx.apply(func() { ctx.RegisterHandle(handle, n, br) })
	return nil
}

func (n *airMovement) Sync(ctx *Context, br Branch) error { return n.sync(ctx, br) }

func (n *airMovement) Calculate(ctx *Context, br Branch) {
	n.calculate(ctx, br, n.actions[0])
}

// forceMovement moves the caster and resolves on what it ran into. With no
// hit actions it carries no bits.
type forceMovement struct{ landing }

func (n *forceMovement) build(b *builder) {
	n.actions = []Node{
		b.optionalBehavior("hit_action"),
		b.optionalBehavior("hit_action_enemy"),
		b.optionalBehavior("hit_action_faction"),
	}
}

func (n *forceMovement) Execute(ctx *Context, br Branch) error {
	if n.allEmpty() {
		return nil
	}
	handle := ctx.Reader.ReadU32()
	if err := ctx.readErr(); err != nil {
		return err
	}
	ctx.apply(func() { ctx.RegisterHandle(handle, n, br) })
	return nil
}

func (n *forceMovement) Sync(ctx *Context, br Branch) error { return n.sync(ctx, br) }

func (n *forceMovement) Calculate(ctx *Context, br Branch) {
	if n.allEmpty() {
		return
	}
	n.calculate(ctx, br, n.actions[0])
}

// projectileAttack launches projectiles at the target. Each projectile's
// action runs on impact: for client casts when the client reports it, for
// server casts after the travel time.
type projectileAttack struct {
	info
	action   Node
	count    int
	lot      int32
	speed    float32
	maxRange float32
}

func (n *projectileAttack) build(b *builder) {
	n.action = b.optionalBehavior("action")
	n.count = max(int(b.optional("spread_count", 0)), 1)
	n.lot = int32(b.optional("LOT_ID", 0))
	n.speed = b.optional("projectile_speed", 0)
	n.maxRange = b.optional("max_distance", 0)
}

func (n *projectileAttack) Execute(ctx *Context, br Branch) error {
	br.Target = ctx.readTarget()
	ids := make([]ecs.ObjectID, 0, n.count)
	for i := 0; i < n.count; i++ {
		ids = append(ids, ecs.ObjectID(ctx.Reader.ReadI64()))
	}
	if err := ctx.readErr(); err != nil {
		return err
	}
	if err := ctx.checkReach(n, br.Target, n.maxRange); err != nil {
		return err
	}
	ctx.apply(func() {
		for _, id := range ids {
			ctx.registerProjectile(id, n.action, br)
		}
	})
	return nil
}

// inRange reports whether target is within the projectile's reach.
func (n *projectileAttack) inRange(ctx *Context, target *world.GameObject) bool {
	return target != nil && (n.maxRange <= 0 || world.Distance(ctx.Caster.Position(), target.Position()) <= n.maxRange)
}

func (n *projectileAttack) travel(from, to world.Vector3) time.Duration {
	if n.speed <= 0 {
		return 0
	}
	return seconds(world.Distance(from, to) / n.speed)
}

// Calculate fires at nothing when the target is out of reach.
func (n *projectileAttack) Calculate(ctx *Context, br Branch) {
	if !n.inRange(ctx, br.Target) {
		br.Target = nil
	}
	if ctx.ValidTarget(br.Target) {
		ctx.FoundTarget = true
	}
	w := ctx.Writer
	writeTarget(w, br.Target)
	z := ctx.Zone()
	for i := 0; i < n.count; i++ {
		id := z.NextObjectID(ecs.FlagSpawned | ecs.FlagClient)
		w.WriteI64(int64(id))
		if br.Target == nil {
			continue
		}
		target := br.Target
		delay := n.travel(ctx.Caster.Position(), target.Position())
		z.Schedule(ctx.Caster, delay, func() {
			if ctx.Discarded() || !target.Alive() {
				return
			}
			next := ctx.Writing(packet.NewWriter())
			n.action.Calculate(next, Branch{Target: target, Duration: br.Duration})
			if ctx.out != nil {
				ctx.out.Impact(ctx.Cast, id, target.ID(), next.Writer.Bytes())
			}
		})
	}
}
