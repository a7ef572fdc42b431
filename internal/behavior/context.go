package behavior

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

var (
	// ErrInvalidClaim refuses a client cast whose bits do not hold up.
	ErrInvalidClaim = errors.New("invalid behavior claim")
	// ErrUnknownHandle is returned for a sync handle no pending node owns.
	ErrUnknownHandle = errors.New("unknown sync handle")
	// ErrCasterDead refuses casts by dead or destroyed casters.
	ErrCasterDead = fmt.Errorf("caster dead: %w", world.ErrNotAlive)
	// ErrUnknownSkill is returned for skills missing from static data.
	ErrUnknownSkill = errors.New("unknown skill")
)

// Branch is the target and duration a subtree runs against.
type Branch struct {
	Target   *world.GameObject
	Duration time.Duration
}

// Outbox receives what delayed server-side continuations produce.
type Outbox interface {
	Sync(c *Cast, handle uint32, payload []byte)
	Impact(c *Cast, projectile, target ecs.ObjectID, payload []byte)
}

type pendingSync struct {
	node   Syncer
	branch Branch
}

type pendingImpact struct {
	action Node
	branch Branch
}

// Cast is the state shared by every step of one skill use: the initial
// Execute or Calculate and all of its delayed continuations.
type Cast struct {
	Engine      *Engine
	Caster      *world.GameObject
	SkillID     uint32
	SkillHandle uint32

	// MinRange and MaxRange bound target selection in Calculate.
	MinRange float32
	MaxRange float32

	out    Outbox
	syncID func() uint32

	mu          sync.Mutex
	handles     map[uint32][]pendingSync
	projectiles map[ecs.ObjectID]pendingImpact
	nextSync    atomic.Uint32
	discarded   atomic.Bool
}

// NewCast starts a cast by caster. out may be nil.
func NewCast(e *Engine, caster *world.GameObject, out Outbox) *Cast {
	return &Cast{
		Engine:      e,
		Caster:      caster,
		out:         out,
		handles:     make(map[uint32][]pendingSync),
		projectiles: make(map[ecs.ObjectID]pendingImpact),
	}
}

// Context is one traversal over a bit cursor. Reader is set for Execute and
// Sync, Writer for Calculate.
type Context struct {
	*Cast
	Reader *packet.Reader
	Writer *packet.Writer

	// FoundTarget is set by Calculate when any node picked a target.
	FoundTarget bool

	effects []func()
}

// Reading returns a context consuming r.
func (c *Cast) Reading(r *packet.Reader) *Context { return &Context{Cast: c, Reader: r} }

// Writing returns a context producing into w.
func (c *Cast) Writing(w *packet.Writer) *Context { return &Context{Cast: c, Writer: w} }

func (c *Cast) Zone() *world.Zone { return c.Caster.Zone() }

func (c *Cast) log() *zap.Logger { return c.Engine.log }

// Discard drops every pending continuation.
func (c *Cast) Discard() {
	c.discarded.Store(true)
	c.mu.Lock()
	clear(c.handles)
	clear(c.projectiles)
	c.mu.Unlock()
}

func (c *Cast) Discarded() bool { return c.discarded.Load() }

// Pending counts outstanding sync handles and projectiles.
func (c *Cast) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.projectiles)
	for _, list := range c.handles {
		n += len(list)
	}
	return n
}

// RegisterHandle parks n's continuation until handle is synced. A handle
// may be registered more than once; each sync consumes one registration.
func (c *Cast) RegisterHandle(handle uint32, n Syncer, br Branch) {
	if c.Discarded() {
		return
	}
	c.mu.Lock()
	c.handles[handle] = append(c.handles[handle], pendingSync{node: n, branch: br})
	c.mu.Unlock()
}

func (c *Cast) takeHandle(handle uint32) (pendingSync, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.handles[handle]
	if len(list) == 0 {
		return pendingSync{}, false
	}
	p := list[0]
	if len(list) == 1 {
		delete(c.handles, handle)
	} else {
		c.handles[handle] = list[1:]
	}
	return p, true
}

// Execute checks the client claim in r against n. Its effects take hold
// only once every node has accepted the claim and every bit was read; a
// refused claim changes nothing.
func (c *Cast) Execute(n Node, r *packet.Reader, br Branch) error {
	return c.run(r, func(ctx *Context) error { return n.Execute(ctx, br) })
}

// Sync resumes the continuation parked on handle with the bits in r.
func (c *Cast) Sync(handle uint32, r *packet.Reader) error {
	p, ok := c.takeHandle(handle)
	if !ok {
		return fmt.Errorf("sync %d: %w", handle, ErrUnknownHandle)
	}
	return c.run(r, func(ctx *Context) error { return p.node.Sync(ctx, p.branch) })
}

func (c *Cast) run(r *packet.Reader, fn func(ctx *Context) error) error {
	ctx := c.Reading(r)
	if err := fn(ctx); err != nil {
		return err
	}
	if err := ctx.readErr(); err != nil {
		return err
	}
	ctx.commit()
	return nil
}

func (c *Cast) registerProjectile(id ecs.ObjectID, action Node, br Branch) {
	if c.Discarded() {
		return
	}
	c.mu.Lock()
	c.projectiles[id] = pendingImpact{action: action, branch: br}
	c.mu.Unlock()
}

// HasProjectile reports whether projectile id is still in flight.
func (c *Cast) HasProjectile(id ecs.ObjectID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.projectiles[id]
	return ok
}

// Impact resolves projectile id against target with the bits in r.
func (c *Cast) Impact(id ecs.ObjectID, target *world.GameObject, r *packet.Reader) error {
	c.mu.Lock()
	p, ok := c.projectiles[id]
	delete(c.projectiles, id)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("projectile %d: %w", id, ErrUnknownHandle)
	}
	br := p.branch
	if target != nil {
		br.Target = target
	}
	return c.Execute(p.action, r, br)
}

// ClaimSyncID returns a fresh handle for a server-side continuation.
func (c *Cast) ClaimSyncID() uint32 {
	if c.syncID != nil {
		return c.syncID()
	}
	return c.nextSync.Add(1)
}

// Alive reports whether the caster can still act.
func (c *Cast) Alive() bool { return living(c.Caster) }

func living(obj *world.GameObject) bool {
	if !obj.Alive() {
		return false
	}
	if s, ok := world.GetComponent[*world.Stats](obj); ok {
		return s.Alive()
	}
	return true
}

// ValidTarget reports whether obj may be picked by the caster's Calculate:
// a live, visible enemy other than the caster itself.
func (c *Cast) ValidTarget(obj *world.GameObject) bool {
	return validTarget(c.Caster, obj)
}

func validTarget(caster, obj *world.GameObject) bool {
	if obj == nil || obj == caster || !obj.Alive() || obj.Layer().Has(world.LayerHidden) {
		return false
	}
	ts, ok := world.GetComponent[*world.Stats](obj)
	if !ok || !ts.Alive() {
		return false
	}
	cs, ok := world.GetComponent[*world.Stats](caster)
	return ok && cs.IsEnemy(ts)
}

// Targets returns valid targets between minRange and radius of center,
// nearest first.
func (c *Cast) Targets(center world.Vector3, minRange, radius float32) []*world.GameObject {
	var out []*world.GameObject
	for _, obj := range c.Zone().ObjectsInRadius(center, radius) {
		if world.Distance(center, obj.Position()) < minRange {
			continue
		}
		if c.ValidTarget(obj) {
			out = append(out, obj)
		}
	}
	return out
}

// later runs fn as a Calculate continuation after delay and hands its
// output to the outbox under handle. Nothing runs once the cast is
// discarded or the caster is gone.
func (c *Cast) later(delay time.Duration, handle uint32, fn func(ctx *Context)) {
	c.Zone().Schedule(c.Caster, delay, func() {
		if c.Discarded() || !c.Caster.Alive() {
			return
		}
		ctx := c.Writing(packet.NewWriter())
		fn(ctx)
		if c.out != nil {
			c.out.Sync(c, handle, ctx.Writer.Bytes())
		}
	})
}

// apply runs fn at once in Calculate. While reading a claim it is held
// until the claim is accepted.
func (ctx *Context) apply(fn func()) {
	if ctx.Reader == nil {
		fn()
		return
	}
	ctx.effects = append(ctx.effects, fn)
}

func (ctx *Context) commit() {
	effects := ctx.effects
	ctx.effects = nil
	for _, fn := range effects {
		fn()
	}
}

// claimSlack is how far past a node's range a claimed target may stand.
const claimSlack float32 = 5

// checkTarget refuses a claimed target the caster may not pick. Targets
// that died or left since the client cast pass; nodes skip them.
func (ctx *Context) checkTarget(n Node, t *world.GameObject) error {
	if t == nil || !living(t) {
		return nil
	}
	if !validTarget(ctx.Caster, t) {
		return claimError(n, "target %d not allowed", t.ID())
	}
	return nil
}

// checkReach refuses a claimed target farther than reach from the caster.
// A reach of zero is unbounded.
func (ctx *Context) checkReach(n Node, t *world.GameObject, reach float32) error {
	if t == nil || reach <= 0 {
		return nil
	}
	if d := world.Distance(ctx.Caster.Position(), t.Position()); d > reach+claimSlack {
		return claimError(n, "target %d at %.1f, range %.1f", t.ID(), d, reach)
	}
	return nil
}

func (ctx *Context) readErr() error {
	if ctx.Reader == nil {
		return nil
	}
	if err := ctx.Reader.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
	return nil
}

// readTarget reads an object id and resolves it in the zone. Unknown ids
// yield nil.
func (ctx *Context) readTarget() *world.GameObject {
	id := ecs.ObjectID(ctx.Reader.ReadI64())
	if id.IsZero() {
		return nil
	}
	obj, _ := ctx.Zone().Object(id)
	return obj
}

func writeTarget(w *packet.Writer, obj *world.GameObject) {
	if obj == nil {
		w.WriteI64(0)
		return
	}
	w.WriteI64(int64(obj.ID()))
}

func claimError(n Node, format string, args ...any) error {
	return fmt.Errorf("%s %d: %w: %s", n.Template(), n.BehaviorID(), ErrInvalidClaim, fmt.Sprintf(format, args...))
}

func seconds(v float32) time.Duration {
	return time.Duration(float64(v) * float64(time.Second))
}
