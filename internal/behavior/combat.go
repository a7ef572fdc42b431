package behavior

import (
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

// basicAttack deals damage to the branch target.
type basicAttack struct {
	info
	onSuccess Node
	minDamage int32
	maxDamage int32
}

func (n *basicAttack) build(b *builder) {
	n.onSuccess = b.optionalBehavior("on_success")
	n.minDamage = max(int32(b.optional("min damage", 1)), 1)
	n.maxDamage = max(int32(b.optional("max damage", 1)), n.minDamage)
}

func (n *basicAttack) Execute(ctx *Context, br Branch) error {
	r := ctx.Reader
	r.Align()
	r.ReadU16()
	if immune := r.ReadBit(); !immune {
		if blocked := r.ReadBit(); !blocked {
			if r.ReadBit() {
				r.ReadU32()
			}
		}
	}
	damage := int32(r.ReadU32())
	success := r.ReadBit()
	if r.Err() != nil {
		return ctx.readErr()
	}
	if err := ctx.checkTarget(n, br.Target); err != nil {
		return err
	}

	if target := br.Target; damage > 0 && target != nil {
		caster, amount := ctx.Caster, min(damage, n.maxDamage)
		ctx.apply(func() {
			if s, ok := world.GetComponent[*world.Stats](target); ok && target.Alive() {
				s.Damage(amount, caster)
			}
		})
	}
	if success {
		return n.onSuccess.Execute(ctx, br)
	}
	return nil
}

func (n *basicAttack) Calculate(ctx *Context, br Branch) {
	success := ctx.ValidTarget(br.Target) && ctx.Alive()
	var damage int32
	if success {
		damage = ctx.Zone().RandRange(n.minDamage, n.maxDamage)
	}

	w := ctx.Writer
	w.Align()
	w.WriteU16(0)
	w.WriteBit(false)
	w.WriteBit(false)
	w.WriteBit(true)
	w.WriteU32(0)
	w.WriteU32(uint32(damage))
	w.WriteBit(success)

	if success {
		ctx.FoundTarget = true
		if s, ok := world.GetComponent[*world.Stats](br.Target); ok {
			s.Damage(damage, ctx.Caster)
		}
		n.onSuccess.Calculate(ctx, br)
	}
}

// tacArc hits up to maxTargets targets in front of the caster.
type tacArc struct {
	info
	action     Node
	blocked    Node
	miss       Node
	hasBlocked bool
	checkEnv   bool
	maxTargets int
	maxRange   float32
	usePicked  bool
}

func (n *tacArc) build(b *builder) {
	n.action = b.behavior("action")
	n.hasBlocked = b.has("blocked action")
	n.blocked = b.optionalBehavior("blocked action")
	n.miss = b.optionalBehavior("miss action")
	n.checkEnv = b.flag("check_env")
	n.maxTargets = int(b.int("max targets"))
	n.maxRange = b.optional("max range", 0)
	n.usePicked = b.flag("use_picked_target")
}

func (n *tacArc) reach(ctx *Context) float32 {
	if n.maxRange > 0 {
		return n.maxRange
	}
	return ctx.MaxRange
}

// picked reports whether the branch target is usable directly.
func (n *tacArc) picked(ctx *Context, br Branch) bool {
	if !n.usePicked || br.Target == nil {
		return false
	}
	reach := n.reach(ctx)
	return reach <= 0 || world.Distance(ctx.Caster.Position(), br.Target.Position()) <= reach
}

func (n *tacArc) Execute(ctx *Context, br Branch) error {
	if n.picked(ctx, br) {
		return n.action.Execute(ctx, br)
	}
	r := ctx.Reader
	if !r.ReadBit() {
		if n.hasBlocked && r.ReadBit() {
			return n.blocked.Execute(ctx, br)
		}
		return n.miss.Execute(ctx, br)
	}
	if n.checkEnv {
		r.ReadBit()
	}
	count := r.ReadU32()
	if int64(count) > int64(n.maxTargets) {
		return claimError(n, "%d targets, max %d", count, n.maxTargets)
	}
	targets := make([]*world.GameObject, 0, count)
	for i := uint32(0); i < count && r.Err() == nil; i++ {
		t := ctx.readTarget()
		if t == nil {
			ctx.log().Debug("tac arc target unknown", zap.Uint32("behavior", n.id))
			continue
		}
		targets = append(targets, t)
	}
	if err := ctx.readErr(); err != nil {
		return err
	}
	for _, t := range targets {
		if err := ctx.checkTarget(n, t); err != nil {
			return err
		}
		if err := ctx.checkReach(n, t, n.reach(ctx)); err != nil {
			return err
		}
	}
	for _, t := range targets {
		br.Target = t
		if err := n.action.Execute(ctx, br); err != nil {
			return err
		}
	}
	return nil
}

func (n *tacArc) Calculate(ctx *Context, br Branch) {
	if n.picked(ctx, br) {
		n.action.Calculate(ctx, br)
		return
	}
	var targets []*world.GameObject
	if ctx.Alive() {
		targets = ctx.Targets(ctx.Caster.Position(), ctx.MinRange, n.reach(ctx))
	}
	targets = targets[:min(len(targets), n.maxTargets)]

	w := ctx.Writer
	w.WriteBit(len(targets) > 0)
	if len(targets) == 0 {
		if n.hasBlocked {
			w.WriteBit(false)
		}
		n.miss.Calculate(ctx, br)
		return
	}
	ctx.FoundTarget = true
	if n.checkEnv {
		w.WriteBit(false)
	}
	w.WriteU32(uint32(len(targets)))
	for _, t := range targets {
		writeTarget(w, t)
	}
	for _, t := range targets {
		n.action.Calculate(ctx, Branch{Target: t, Duration: br.Duration})
	}
}

// areaOfEffect applies its action to every target within radius.
type areaOfEffect struct {
	info
	action     Node
	maxTargets int
	radius     float32
}

func (n *areaOfEffect) build(b *builder) {
	n.action = b.behavior("action")
	n.maxTargets = int(b.optional("max targets", 0))
	n.radius = b.float("radius")
}

func (n *areaOfEffect) Execute(ctx *Context, br Branch) error {
	r := ctx.Reader
	count := r.ReadU32()
	if n.maxTargets > 0 && int(count) > n.maxTargets {
		return claimError(n, "%d targets, max %d", count, n.maxTargets)
	}
	targets := make([]*world.GameObject, 0, min(count, 64))
	for i := uint32(0); i < count && r.Err() == nil; i++ {
		t := ctx.readTarget()
		if t == nil && r.Err() == nil {
			return claimError(n, "unknown target")
		}
		targets = append(targets, t)
	}
	if err := ctx.readErr(); err != nil {
		return err
	}
	for _, t := range targets {
		if err := ctx.checkTarget(n, t); err != nil {
			return err
		}
		if err := ctx.checkReach(n, t, n.radius); err != nil {
			return err
		}
	}
	for _, t := range targets {
		br.Target = t
		if err := n.action.Execute(ctx, br); err != nil {
			return err
		}
	}
	return nil
}

// Calculate picks the nearest valid targets around the caster.
func (n *areaOfEffect) Calculate(ctx *Context, br Branch) {
	targets := ctx.Targets(ctx.Caster.Position(), 0, n.radius)
	if n.maxTargets > 0 && len(targets) > n.maxTargets {
		targets = targets[:n.maxTargets]
	}
	if len(targets) > 0 {
		ctx.FoundTarget = true
	}
	w := ctx.Writer
	w.WriteU32(uint32(len(targets)))
	for _, t := range targets {
		writeTarget(w, t)
	}
	for _, t := range targets {
		n.action.Calculate(ctx, Branch{Target: t, Duration: br.Duration})
	}
}

// stun carries one bit unless it stuns the caster.
type stun struct {
	info
	stunCaster bool
}

func (n *stun) build(b *builder) { n.stunCaster = b.optional("stun_caster", 0) == 1 }

func (n *stun) hasBit(ctx *Context, br Branch) bool {
	return !n.stunCaster && br.Target != ctx.Caster
}

func (n *stun) Execute(ctx *Context, br Branch) error {
	if n.hasBit(ctx, br) {
		ctx.Reader.ReadBit()
	}
	return nil
}

func (n *stun) Calculate(ctx *Context, br Branch) {
	if n.hasBit(ctx, br) {
		ctx.Writer.WriteBit(false)
	}
}

// knockback pushes a player target upward.
type knockback struct {
	info
	strength float32
	timeMS   int32
}

func (n *knockback) build(b *builder) {
	n.strength = b.float("strength")
	n.timeMS = int32(b.optional("time_ms", 0))
}

func (n *knockback) Execute(ctx *Context, _ Branch) error {
	ctx.Reader.ReadBit()
	return nil
}

func (n *knockback) Calculate(ctx *Context, br Branch) {
	ctx.Writer.WriteBit(false)
	if br.Target == nil {
		return
	}
	if p, ok := br.Target.Player(); ok {
		p.Message(world.KnockbackMessage{
			Target:     p.ID(),
			Caster:     ctx.Caster.ID(),
			Originator: ctx.Caster.ID(),
			Time:       n.timeMS,
			Vector:     world.Vector3{Y: n.strength},
		})
	}
}

// statsOf returns the stats of the branch target, defaulting to the caster.
func statsOf(ctx *Context, br Branch) (*world.Stats, bool) {
	target := br.Target
	if target == nil {
		target = ctx.Caster
	}
	if !target.Alive() {
		return nil, false
	}
	return world.GetComponent[*world.Stats](target)
}

// heal restores health to its target.
type heal struct {
	info
	amount int32
}

func (n *heal) build(b *builder) { n.amount = b.int("health") }

func (n *heal) apply(ctx *Context, br Branch) {
	if s, ok := statsOf(ctx, br); ok && s.Alive() {
		s.SetHealth(s.Health() + n.amount)
	}
}

func (n *heal) Execute(ctx *Context, br Branch) error {
	ctx.apply(func() { n.apply(ctx, br) })
	return nil
}

func (n *heal) Calculate(ctx *Context, br Branch) { n.apply(ctx, br) }

// imagination restores imagination to its target.
type imagination struct {
	info
	amount int32
}

func (n *imagination) build(b *builder) { n.amount = b.int("imagination") }

func (n *imagination) apply(ctx *Context, br Branch) {
	if s, ok := statsOf(ctx, br); ok {
		s.SetImagination(s.Imagination() + n.amount)
	}
}

func (n *imagination) Execute(ctx *Context, br Branch) error {
	ctx.apply(func() { n.apply(ctx, br) })
	return nil
}

func (n *imagination) Calculate(ctx *Context, br Branch) { n.apply(ctx, br) }

// repairArmor restores armor to its target.
type repairArmor struct {
	info
	amount int32
}

func (n *repairArmor) build(b *builder) { n.amount = b.int("armor") }

func (n *repairArmor) apply(ctx *Context, br Branch) {
	if s, ok := statsOf(ctx, br); ok {
		s.SetArmor(s.Armor() + n.amount)
	}
}

func (n *repairArmor) Execute(ctx *Context, br Branch) error {
	ctx.apply(func() { n.apply(ctx, br) })
	return nil
}

func (n *repairArmor) Calculate(ctx *Context, br Branch) { n.apply(ctx, br) }
