package behavior

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/data"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

// SkillComponent runs the casts of its object: client claims for players,
// server-calculated casts for everything else. Casts with continuations
// still pending are kept by skill handle until they resolve or the object
// goes away.
type SkillComponent struct {
	world.Base

	engine *Engine
	skills []data.SkillRow

	mu    sync.Mutex
	casts map[uint32]*Cast

	nextHandle atomic.Uint32
	nextSync   atomic.Uint32
}

func init() {
	world.RegisterComponent(world.ComponentSkill, func() *SkillComponent {
		return &SkillComponent{casts: make(map[uint32]*Cast)}
	})
}

func (c *SkillComponent) ComponentID() world.ComponentID { return world.ComponentSkill }

func (c *SkillComponent) Start() {
	c.engine = EngineOf(c.Zone())
	obj := c.GameObject()
	rows := c.Zone().Data().ObjectSkills(int32(obj.Lot()))
	sorted := make([]data.ObjectSkillRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AICombatWeight > sorted[j].AICombatWeight })
	for _, r := range sorted {
		if row, ok := c.Zone().Data().Skill(r.SkillID); ok {
			c.skills = append(c.skills, row)
		}
	}
}

// Destroy drops every pending cast.
func (c *SkillComponent) Destroy() {
	c.mu.Lock()
	casts := c.casts
	c.casts = make(map[uint32]*Cast)
	c.mu.Unlock()
	for _, cast := range casts {
		cast.Discard()
	}
}

// Skills lists the object's own skills, highest AI weight first.
func (c *SkillComponent) Skills() []data.SkillRow { return c.skills }

// PendingCasts counts casts waiting on a sync or an impact.
func (c *SkillComponent) PendingCasts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.casts)
}

// ClaimSyncID returns a fresh handle for server-side continuations.
func (c *SkillComponent) ClaimSyncID() uint32 { return c.nextSync.Add(1) }

func (c *SkillComponent) newCast(skillID, handle uint32) *Cast {
	cast := NewCast(c.engine, c.GameObject(), skillOutbox{c})
	cast.SkillID = skillID
	cast.SkillHandle = handle
	cast.syncID = c.ClaimSyncID
	return cast
}

// keep stores cast under its handle while it has continuations pending,
// replacing any older cast on the same handle.
func (c *SkillComponent) keep(cast *Cast) {
	if cast.Pending() == 0 {
		return
	}
	c.mu.Lock()
	old := c.casts[cast.SkillHandle]
	c.casts[cast.SkillHandle] = cast
	c.mu.Unlock()
	if old != nil && old != cast {
		old.Discard()
	}
}

func (c *SkillComponent) cast(handle uint32) (*Cast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cast, ok := c.casts[handle]
	return cast, ok
}

func (c *SkillComponent) release(cast *Cast) {
	if cast.Pending() > 0 {
		return
	}
	c.mu.Lock()
	if c.casts[cast.SkillHandle] == cast {
		delete(c.casts, cast.SkillHandle)
	}
	c.mu.Unlock()
}

func (c *SkillComponent) alive() bool { return living(c.GameObject()) }

// StartSkill validates a client cast and, once all of it is accepted,
// applies it, charges its imagination cost and echoes it to every other
// player. A refused cast has no effect.
func (c *SkillComponent) StartSkill(m world.StartSkillMessage) error {
	obj := c.GameObject()
	if !c.alive() {
		return ErrCasterDead
	}
	row, ok := c.Zone().Data().Skill(m.SkillID)
	if !ok {
		return fmt.Errorf("skill %d: %w", m.SkillID, ErrUnknownSkill)
	}
	stats, hasStats := world.GetComponent[*world.Stats](obj)
	if row.ImaginationCost > 0 && hasStats && stats.Imagination() < row.ImaginationCost {
		return fmt.Errorf("skill %d: %w: imagination %d < %d",
			m.SkillID, ErrInvalidClaim, stats.Imagination(), row.ImaginationCost)
	}

	var target *world.GameObject
	if !m.Target.IsZero() {
		target, _ = c.Zone().Object(m.Target)
	}
	cast := c.newCast(m.SkillID, m.SkillHandle)
	cast.MinRange, cast.MaxRange = row.MinRange, row.MaxRange
	if err := cast.Execute(c.engine.Tree(row.BehaviorID), packet.NewReader(m.Payload), Branch{Target: target}); err != nil {
		cast.Discard()
		return fmt.Errorf("skill %d: %w", m.SkillID, err)
	}
	if row.ImaginationCost > 0 && hasStats {
		stats.SetImagination(stats.Imagination() - row.ImaginationCost)
	}
	c.keep(cast)

	echo := world.EchoStartSkillMessage{
		Caster:      obj.ID(),
		Target:      m.Target,
		SkillID:     m.SkillID,
		SkillHandle: m.SkillHandle,
		Payload:     m.Payload,
	}
	if p, ok := obj.Player(); ok {
		c.Zone().ExcludingMessage(echo, p)
	} else {
		c.Zone().BroadcastMessage(echo)
	}
	return nil
}

// SyncSkill resumes a pending continuation of a client cast.
func (c *SkillComponent) SyncSkill(m world.SyncSkillMessage) error {
	cast, ok := c.cast(m.SkillHandle)
	if !ok {
		return fmt.Errorf("skill handle %d: %w", m.SkillHandle, ErrUnknownHandle)
	}
	err := cast.Sync(m.BehaviorHandle, packet.NewReader(m.Payload))
	c.release(cast)
	if err != nil {
		return err
	}

	echo := world.EchoSyncSkillMessage{
		Caster:         c.GameObject().ID(),
		Done:           m.Done,
		BehaviorHandle: m.BehaviorHandle,
		SkillHandle:    m.SkillHandle,
		Payload:        m.Payload,
	}
	if p, ok := c.GameObject().Player(); ok {
		c.Zone().ExcludingMessage(echo, p)
	}
	return nil
}

// ProjectileImpact resolves a projectile launched by one of this object's
// casts.
func (c *SkillComponent) ProjectileImpact(m world.ProjectileImpactMessage) error {
	c.mu.Lock()
	var cast *Cast
	for _, candidate := range c.casts {
		if candidate.HasProjectile(m.Projectile) {
			cast = candidate
			break
		}
	}
	c.mu.Unlock()
	if cast == nil {
		return fmt.Errorf("projectile %d: %w", m.Projectile, ErrUnknownHandle)
	}
	var target *world.GameObject
	if !m.Target.IsZero() {
		target, _ = c.Zone().Object(m.Target)
	}
	err := cast.Impact(m.Projectile, target, packet.NewReader(m.Payload))
	c.release(cast)
	return err
}

// Calculate casts skillID at target on the server's authority. It returns
// false, sending nothing, when the skill found no target.
func (c *SkillComponent) Calculate(skillID uint32, target *world.GameObject) bool {
	obj := c.GameObject()
	if !c.alive() {
		return false
	}
	row, ok := c.Zone().Data().Skill(skillID)
	if !ok {
		obj.Log().Warn("calculate unknown skill", zap.Uint32("skill", skillID))
		return false
	}
	if target != nil && row.MaxRange > 0 {
		d := world.Distance(obj.Position(), target.Position())
		if d > row.MaxRange || d < row.MinRange {
			return false
		}
	}

	cast := c.newCast(skillID, c.nextHandle.Add(1))
	cast.MinRange, cast.MaxRange = row.MinRange, row.MaxRange
	ctx := cast.Writing(packet.NewWriter())
	c.engine.Tree(row.BehaviorID).Calculate(ctx, Branch{Target: target})
	if !ctx.FoundTarget {
		cast.Discard()
		return false
	}

	var targetID ecs.ObjectID
	if target != nil {
		targetID = target.ID()
	}
	c.Zone().BroadcastMessage(world.EchoStartSkillMessage{
		Caster:      obj.ID(),
		Target:      targetID,
		SkillID:     skillID,
		SkillHandle: cast.SkillHandle,
		Payload:     ctx.Writer.Bytes(),
	})
	return true
}

// Construct writes an empty skill list. Skills are announced per cast.
func (c *SkillComponent) Construct(w *packet.Writer) { w.WriteBit(false) }

func (c *SkillComponent) Serialize(*packet.Writer) {}

// skillOutbox sends server continuations to every player.
type skillOutbox struct{ c *SkillComponent }

func (o skillOutbox) Sync(cast *Cast, handle uint32, payload []byte) {
	o.c.Zone().BroadcastMessage(world.EchoSyncSkillMessage{
		Caster:         cast.Caster.ID(),
		BehaviorHandle: handle,
		SkillHandle:    cast.SkillHandle,
		Payload:        payload,
	})
}

func (o skillOutbox) Impact(cast *Cast, projectile, target ecs.ObjectID, payload []byte) {
	o.c.Zone().BroadcastMessage(world.DoClientProjectileImpactMessage{
		Object:     cast.Caster.ID(),
		Originator: cast.Caster.ID(),
		Projectile: projectile,
		Target:     target,
		Payload:    payload,
	})
}
