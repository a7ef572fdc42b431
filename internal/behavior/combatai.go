package behavior

import (
	"sync"
	"time"

	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
)

const (
	defaultAggroRadius = 25
	defaultCombatRound = 2 * time.Second
)

// CombatState is what a combat AI is doing, as shown to clients.
type CombatState uint32

const (
	CombatIdle CombatState = iota
	CombatAggro
	CombatTether
	CombatSpawn
	CombatDead
)

// BaseCombatAI makes an object fight on its own: every tick it looks for
// enemies in aggro range and casts the first of its skills that is off
// cooldown and finds a target.
type BaseCombatAI struct {
	world.Base

	skill       *SkillComponent
	aggroRadius float32
	round       time.Duration
	update      world.UpdateToken

	mu         sync.Mutex
	state      CombatState
	target     *world.GameObject
	cooldowns  map[uint32]time.Time
	nextAction time.Time
	dirty      bool
}

func init() {
	world.RegisterComponent(world.ComponentBaseCombatAI, func() *BaseCombatAI {
		return &BaseCombatAI{cooldowns: make(map[uint32]time.Time)}
	}, world.Requires[*SkillComponent](true))
}

func (a *BaseCombatAI) ComponentID() world.ComponentID { return world.ComponentBaseCombatAI }

func (a *BaseCombatAI) Start() {
	obj := a.GameObject()
	a.skill, _ = world.GetComponent[*SkillComponent](obj)
	a.aggroRadius = defaultAggroRadius
	a.round = defaultCombatRound
	if id, ok := obj.ComponentRowID(world.ComponentBaseCombatAI); ok {
		if row, ok := a.Zone().Data().CombatAI(id); ok {
			if row.AggroRadius > 0 {
				a.aggroRadius = row.AggroRadius
			}
			if row.CombatRoundLength > 0 {
				a.round = seconds(row.CombatRoundLength)
			}
		}
	}
	a.update = a.Zone().Update(obj, a.Tick, 1)
}

func (a *BaseCombatAI) Destroy() {
	a.Zone().CancelUpdate(a.update)
}

func (a *BaseCombatAI) AggroRadius() float32 { return a.aggroRadius }

func (a *BaseCombatAI) State() CombatState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *BaseCombatAI) Target() *world.GameObject {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// SeekValidTargets lists enemies within aggro range, nearest first.
func (a *BaseCombatAI) SeekValidTargets() []*world.GameObject {
	obj := a.GameObject()
	var out []*world.GameObject
	for _, t := range a.Zone().ObjectsInRadius(obj.Position(), a.aggroRadius) {
		if validTarget(obj, t) {
			out = append(out, t)
		}
	}
	return out
}

func (a *BaseCombatAI) setState(s CombatState, target *world.GameObject) {
	a.mu.Lock()
	changed := a.state != s || a.target != target
	a.state, a.target = s, target
	if changed {
		a.dirty = true
	}
	a.mu.Unlock()
	if changed {
		a.GameObject().Serialize()
	}
}

// Tick runs one decision round.
func (a *BaseCombatAI) Tick() {
	obj := a.GameObject()
	if !living(obj) {
		a.setState(CombatDead, nil)
		return
	}
	now := a.Zone().Now()
	a.mu.Lock()
	wait := now.Before(a.nextAction)
	a.mu.Unlock()
	if wait || a.skill == nil {
		return
	}

	targets := a.SeekValidTargets()
	if len(targets) == 0 {
		a.setState(CombatIdle, nil)
		return
	}
	target := targets[0]
	a.setState(CombatAggro, target)

	for _, row := range a.skill.Skills() {
		a.mu.Lock()
		ready := !now.Before(a.cooldowns[row.SkillID])
		a.mu.Unlock()
		if !ready {
			continue
		}
		if a.skill.Calculate(row.SkillID, target) {
			a.mu.Lock()
			a.cooldowns[row.SkillID] = now.Add(seconds(row.Cooldown))
			a.nextAction = now.Add(a.round)
			a.mu.Unlock()
			return
		}
	}
}

func (a *BaseCombatAI) write(w *packet.Writer, force bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w.WriteBit(force || a.dirty)
	if !force && !a.dirty {
		return
	}
	w.WriteU32(uint32(a.state))
	var id int64
	if a.target != nil {
		id = int64(a.target.ID())
	}
	w.WriteI64(id)
	if !force {
		a.dirty = false
	}
}

func (a *BaseCombatAI) Construct(w *packet.Writer) { a.write(w, true) }
func (a *BaseCombatAI) Serialize(w *packet.Writer) { a.write(w, false) }
