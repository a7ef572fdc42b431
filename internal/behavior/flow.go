package behavior

import (
	"sort"
	"strconv"

	"github.com/lugo/server/internal/world"
)

// and runs every child in order.
type and struct {
	info
	children []Node
}

func (n *and) build(b *builder) { n.children = b.numbered("behavior") }

func (n *and) Execute(ctx *Context, br Branch) error {
	for _, c := range n.children {
		if err := c.Execute(ctx, br); err != nil {
			return err
		}
	}
	return nil
}

func (n *and) Calculate(ctx *Context, br Branch) {
	for _, c := range n.children {
		c.Calculate(ctx, br)
	}
}

// start is the root of most skills.
type start struct {
	info
	action Node
}

func (n *start) build(b *builder) { n.action = b.behavior("action") }

func (n *start) Execute(ctx *Context, br Branch) error { return n.action.Execute(ctx, br) }
func (n *start) Calculate(ctx *Context, br Branch)     { n.action.Calculate(ctx, br) }

type end struct{ info }

// chain runs the child the caster picked by 1-based index.
type chain struct {
	info
	children []Node
}

func (n *chain) build(b *builder) { n.children = b.numbered("behavior") }

func (n *chain) Execute(ctx *Context, br Branch) error {
	idx := ctx.Reader.ReadU32()
	if len(n.children) == 0 {
		return nil
	}
	if idx == 0 || int(idx) > len(n.children) {
		return claimError(n, "chain index %d of %d", idx, len(n.children))
	}
	return n.children[idx-1].Execute(ctx, br)
}

func (n *chain) Calculate(ctx *Context, br Branch) {
	ctx.Writer.WriteU32(1)
	if len(n.children) > 0 {
		n.children[0].Calculate(ctx, br)
	}
}

// switchNode branches on a success bit. The bit is omitted for pure enemy
// checks without an imagination requirement.
type switchNode struct {
	info
	onTrue      Node
	onFalse     Node
	imagination int32
	enemyOnly   bool
}

func (n *switchNode) build(b *builder) {
	n.onTrue = b.behavior("action_true")
	n.onFalse = b.behavior("action_false")
	n.imagination = int32(b.optional("imagination", 0))
	n.enemyOnly = b.flag("isEnemyFaction")
}

func (n *switchNode) hasBit() bool { return n.imagination > 0 || !n.enemyOnly }

func (n *switchNode) Execute(ctx *Context, br Branch) error {
	state := true
	if n.hasBit() {
		state = ctx.Reader.ReadBit()
	}
	if state {
		return n.onTrue.Execute(ctx, br)
	}
	return n.onFalse.Execute(ctx, br)
}

func (n *switchNode) Calculate(ctx *Context, br Branch) {
	state := true
	if n.hasBit() {
		state = br.Target != nil && ctx.Alive()
		if state && n.imagination > 0 {
			s, ok := world.GetComponent[*world.Stats](ctx.Caster)
			state = ok && s.Imagination() >= n.imagination
		}
		ctx.Writer.WriteBit(state)
	}
	if state {
		n.onTrue.Calculate(ctx, br)
		return
	}
	n.onFalse.Calculate(ctx, br)
}

// switchMultiple picks the child whose threshold is the greatest one not
// above the observed value. Values below every threshold pick the lowest.
type switchMultiple struct {
	info
	thresholds []float32
	children   []Node
}

func (n *switchMultiple) build(b *builder) {
	type entry struct {
		value float32
		node  Node
	}
	var entries []entry
	for i := 1; ; i++ {
		key := "behavior " + strconv.Itoa(i)
		if !b.has(key) {
			break
		}
		entries = append(entries, entry{value: b.float("value " + strconv.Itoa(i)), node: b.behavior(key)})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].value < entries[j].value })
	for _, e := range entries {
		n.thresholds = append(n.thresholds, e.value)
		n.children = append(n.children, e.node)
	}
}

// pick returns the child selected by value.
func (n *switchMultiple) pick(value float32) Node {
	if len(n.children) == 0 {
		return Empty
	}
	idx := 0
	for i, t := range n.thresholds {
		if value >= t {
			idx = i
		}
	}
	return n.children[idx]
}

func (n *switchMultiple) Execute(ctx *Context, br Branch) error {
	value := ctx.Reader.ReadF32()
	return n.pick(value).Execute(ctx, br)
}

// Calculate observes the distance to the target.
func (n *switchMultiple) Calculate(ctx *Context, br Branch) {
	var value float32
	if len(n.thresholds) > 0 {
		value = n.thresholds[0]
	}
	if br.Target != nil {
		value = world.Distance(ctx.Caster.Position(), br.Target.Position())
	}
	ctx.Writer.WriteF32(value)
	n.pick(value).Calculate(ctx, br)
}

const (
	movementGround     uint32 = 1
	movementJump       uint32 = 2
	movementFalling    uint32 = 3
	movementDoubleJump uint32 = 4
	movementJetpack    uint32 = 5
	movementStunned    uint32 = 6
)

// movementSwitch branches on the caster's movement state.
type movementSwitch struct {
	info
	actions map[uint32]Node
}

func (n *movementSwitch) build(b *builder) {
	n.actions = map[uint32]Node{
		movementGround:     b.optionalBehavior("ground_action"),
		movementJump:       b.optionalBehavior("jump_action"),
		movementFalling:    b.optionalBehavior("falling_action"),
		movementDoubleJump: b.optionalBehavior("double_jump_action"),
		movementJetpack:    b.optionalBehavior("jetpack_action"),
	}
}

func (n *movementSwitch) Execute(ctx *Context, br Branch) error {
	state := ctx.Reader.ReadU32()
	if state == movementStunned {
		return nil
	}
	action, ok := n.actions[state]
	if !ok {
		return claimError(n, "movement type %d", state)
	}
	return action.Execute(ctx, br)
}

// Calculate assumes server casters stand on the ground.
func (n *movementSwitch) Calculate(ctx *Context, br Branch) {
	ctx.Writer.WriteU32(movementGround)
	n.actions[movementGround].Calculate(ctx, br)
}

// duration scopes its child to a fixed time.
type duration struct {
	info
	action Node
	length float32
}

func (n *duration) build(b *builder) {
	n.action = b.behavior("action")
	n.length = b.optional("duration", 0)
}

func (n *duration) Execute(ctx *Context, br Branch) error {
	br.Duration = seconds(n.length)
	return n.action.Execute(ctx, br)
}

func (n *duration) Calculate(ctx *Context, br Branch) {
	br.Duration = seconds(n.length)
	n.action.Calculate(ctx, br)
}

// targetCaster retargets its child at the caster.
type targetCaster struct {
	info
	action Node
}

func (n *targetCaster) build(b *builder) { n.action = b.behavior("action") }

func (n *targetCaster) Execute(ctx *Context, br Branch) error {
	br.Target = ctx.Caster
	return n.action.Execute(ctx, br)
}

func (n *targetCaster) Calculate(ctx *Context, br Branch) {
	br.Target = ctx.Caster
	n.action.Calculate(ctx, br)
}

// clearTarget runs its child with no target.
type clearTarget struct {
	info
	action Node
}

func (n *clearTarget) build(b *builder) { n.action = b.optionalBehavior("action") }

func (n *clearTarget) Execute(ctx *Context, br Branch) error {
	br.Target = nil
	return n.action.Execute(ctx, br)
}

func (n *clearTarget) Calculate(ctx *Context, br Branch) {
	br.Target = nil
	n.action.Calculate(ctx, br)
}
