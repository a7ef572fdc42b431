package world

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/core/event"
	"go.uber.org/zap"
)

// ErrNotAlive is returned by operations on objects that are not started
// or already destroyed.
var ErrNotAlive = errors.New("object not alive")

// Lot is an object template id.
type Lot int32

// WorldState tells the client where an object lives.
type WorldState uint8

const (
	WorldStateWorld WorldState = iota
	WorldStateAttached
	WorldStateInventory
)

// GameObject is an entity in a zone: an identity, a template id, and an
// ordered list of components.
type GameObject struct {
	id   ecs.ObjectID
	lot  Lot
	zone *Zone
	log  *zap.Logger

	mu             sync.RWMutex
	name           string
	components     []Component
	layer          Mask
	gmLevel        uint8
	worldState     WorldState
	spawner        *GameObject
	spawnerNode    uint32
	hasSpawnerNode bool
	triggerID      int32
	hasTrigger     bool
	settings       *Settings
	player         *Player

	state atomic.Int32

	OnStart        event.Signal
	OnDestroyed    event.Signal
	OnInteract     event.Event[*Player]
	OnLayerChanged event.Event[Mask]

	// Listeners holds subscriptions dropped when the object is destroyed.
	Listeners event.Group
}

func (g *GameObject) ID() ecs.ObjectID { return g.id }

func (g *GameObject) Lot() Lot { return g.lot }

func (g *GameObject) Zone() *Zone { return g.zone }

func (g *GameObject) Log() *zap.Logger { return g.log }

func (g *GameObject) Name() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.name
}

// SetName renames the object and reloads it on its viewers.
func (g *GameObject) SetName(name string) {
	g.mu.Lock()
	g.name = name
	g.mu.Unlock()
	if g.Started() {
		g.Reload()
	}
}

func (g *GameObject) Layer() Mask {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.layer
}

// SetLayer moves the object to new layers and re-evaluates every player's
// view of it.
func (g *GameObject) SetLayer(m Mask) {
	g.mu.Lock()
	changed := g.layer != m
	g.layer = m
	g.mu.Unlock()
	if !changed {
		return
	}
	g.logErr("layer listener", g.OnLayerChanged.Invoke(m))
	if g.Alive() {
		g.zone.refreshViews(g)
	}
}

func (g *GameObject) GMLevel() uint8 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.gmLevel
}

// SetGMLevel changes the displayed GM level and reloads the object.
func (g *GameObject) SetGMLevel(v uint8) {
	g.mu.Lock()
	g.gmLevel = v
	g.mu.Unlock()
	if g.Started() {
		g.Reload()
	}
}

func (g *GameObject) Settings() *Settings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings
}

// Spawner returns the object that spawned g, if any.
func (g *GameObject) Spawner() *GameObject {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.spawner
}

// Player returns the player behind g when g is a player character.
func (g *GameObject) Player() (*Player, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.player, g.player != nil
}

// Transform returns the object's transform. Every object has one.
func (g *GameObject) Transform() *Transform {
	t, _ := GetComponent[*Transform](g)
	return t
}

// Position is shorthand for Transform().Position().
func (g *GameObject) Position() Vector3 {
	if t := g.Transform(); t != nil {
		return t.Position()
	}
	return Vector3{}
}

// Components returns a snapshot of the component list.
func (g *GameObject) Components() []Component {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Component, len(g.components))
	copy(out, g.components)
	return out
}

// ReplicaComponents returns the replica components in wire order.
func (g *GameObject) ReplicaComponents() []Replica {
	var out []Replica
	for _, c := range g.Components() {
		if r, ok := c.(Replica); ok {
			out = append(out, r)
		}
	}
	sortReplicas(out)
	return out
}

// Started reports whether Start has run and Destroy has not.
func (g *GameObject) Started() bool {
	return g.state.Load() == stateStarted
}

// Alive reports whether g is registered in its zone.
func (g *GameObject) Alive() bool {
	return g.state.Load() != stateDestroyed && g.zone.HasObject(g.id)
}

// Start registers the object with its zone, starts every component not yet
// started, fires OnStart and constructs the object for every player whose
// perspective admits it. Only the first call has any effect.
func (g *GameObject) Start() {
	if !g.state.CompareAndSwap(stateNew, stateStarted) {
		return
	}
	g.zone.registerObject(g)
	for _, c := range g.Components() {
		g.startComponent(c)
	}
	g.logErr("start listener", event.Fire(&g.OnStart))
	g.zone.refreshViews(g)
}

// Destroy unregisters the object, tears down every component, removes the
// object from every client that has it, and clears all subscriptions.
func (g *GameObject) Destroy() {
	if g.state.Swap(stateDestroyed) == stateDestroyed {
		return
	}
	g.OnInteract.Clear()
	g.zone.unregisterObject(g)
	for _, c := range g.Components() {
		g.RemoveComponent(c, true)
	}
	g.zone.destructEverywhere(g)
	g.logErr("destroy listener", event.Fire(&g.OnDestroyed))

	g.OnStart.Clear()
	g.OnDestroyed.Clear()
	g.OnLayerChanged.Clear()
	g.Listeners.Clear()
}

// Interact fires OnInteract on behalf of p.
func (g *GameObject) Interact(p *Player) error {
	if !g.Started() {
		return ErrNotAlive
	}
	g.logErr("interact listener", g.OnInteract.Invoke(p))
	return nil
}

// Serialize sends the object's current state to every player that has it.
func (g *GameObject) Serialize() {
	if g.Started() {
		g.zone.SendSerialization(g, g.zone.Players())
	}
}

// Reload destructs and reconstructs the object on its viewers.
func (g *GameObject) Reload() {
	players := g.zone.Players()
	g.zone.SendDestruction(g, players, true)
	g.zone.SendConstruction(g, players)
}

// ── Components ────────────────────────────────────────────────────

func (g *GameObject) addComponent(t reflect.Type) Component {
	info := componentByType(t)
	if info == nil {
		g.log.Error("component type not registered", zap.String("type", t.String()))
		return nil
	}

	g.mu.Lock()
	for _, c := range g.components {
		if reflect.TypeOf(c) == t {
			g.mu.Unlock()
			return c
		}
	}
	c := info.create()
	c.base().obj = g
	g.components = append(g.components, c)
	g.mu.Unlock()

	for _, req := range info.requires {
		g.addComponent(req.Type)
	}
	g.startComponent(c)
	return c
}

// AddComponentByID adds the component registered under a static-data id.
// Unknown ids return nil.
func (g *GameObject) AddComponentByID(id ComponentID) Component {
	info := componentByID(id)
	if info == nil {
		return nil
	}
	return g.addComponent(info.typ)
}

// RemoveComponent detaches c. With destroy set, c's teardown runs.
func (g *GameObject) RemoveComponent(c Component, destroy bool) bool {
	g.mu.Lock()
	idx := -1
	for i, o := range g.components {
		if o == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.mu.Unlock()
		return false
	}
	g.components = append(g.components[:idx:idx], g.components[idx+1:]...)
	g.mu.Unlock()

	if destroy {
		g.destroyComponent(c)
	}
	return true
}

func (g *GameObject) startComponent(c Component) {
	if !c.base().state.CompareAndSwap(stateNew, stateStarted) {
		return
	}
	if s, ok := c.(Starter); ok {
		g.safe("component start", s.Start)
	}
}

func (g *GameObject) destroyComponent(c Component) {
	if c.base().state.Swap(stateDestroyed) == stateDestroyed {
		return
	}
	if d, ok := c.(Destroyer); ok {
		g.safe("component destroy", d.Destroy)
	}
	c.base().Listeners.Clear()
}

func (g *GameObject) safe(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error(what+" panic recovered", zap.Any("panic", r))
		}
	}()
	fn()
}

func (g *GameObject) logErr(what string, err error) {
	if err != nil {
		g.log.Error(what+" failed", zap.Error(err))
	}
}

func sortReplicas(rs []Replica) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && replicaRank(rs[j].ComponentID()) < replicaRank(rs[j-1].ComponentID()); j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}

func zapLot(l Lot) zap.Field { return zap.Int32("lot", int32(l)) }
