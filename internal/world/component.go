package world

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lugo/server/internal/core/event"
	"github.com/lugo/server/internal/net/packet"
)

// ComponentID is the static-data id of a component kind.
type ComponentID int32

const (
	ComponentNone                ComponentID = 0
	ComponentControllablePhysics ComponentID = 1
	ComponentRender              ComponentID = 2
	ComponentSimplePhysics       ComponentID = 3
	ComponentCharacter           ComponentID = 4
	ComponentScript              ComponentID = 5
	ComponentDestructible        ComponentID = 7
	ComponentSkill               ComponentID = 9
	ComponentSpawner             ComponentID = 10
	ComponentInventory           ComponentID = 17
	ComponentCollectible         ComponentID = 23
	ComponentScriptedActivity    ComponentID = 39
	ComponentBaseCombatAI        ComponentID = 60
	ComponentPossessable         ComponentID = 108
)

// replicaOrder is the fixed order in which replica components are written
// into Construct and Serialize frames.
var replicaOrder = []ComponentID{
	ComponentPossessable,
	ComponentControllablePhysics,
	ComponentSimplePhysics,
	ComponentDestructible,
	ComponentCollectible,
	ComponentCharacter,
	ComponentInventory,
	ComponentScript,
	ComponentSkill,
	ComponentBaseCombatAI,
	ComponentScriptedActivity,
	ComponentRender,
}

func replicaRank(id ComponentID) int {
	for i, o := range replicaOrder {
		if o == id {
			return i
		}
	}
	return len(replicaOrder)
}

// Component is implemented by every component by embedding Base.
type Component interface {
	base() *Base
}

// Starter is implemented by components with start logic. Start runs once.
type Starter interface {
	Start()
}

// Destroyer is implemented by components with teardown logic.
type Destroyer interface {
	Destroy()
}

// Replica is a component that takes part in network replication.
type Replica interface {
	Component
	ComponentID() ComponentID
	Construct(w *packet.Writer)
	Serialize(w *packet.Writer)
}

const (
	stateNew int32 = iota
	stateStarted
	stateDestroyed
)

// Base carries the bookkeeping shared by all components.
type Base struct {
	obj   *GameObject
	state atomic.Int32

	// Listeners holds subscriptions dropped when the component goes away.
	Listeners event.Group
}

func (b *Base) base() *Base { return b }

// GameObject returns the owning object.
func (b *Base) GameObject() *GameObject { return b.obj }

// Zone returns the owning object's zone.
func (b *Base) Zone() *Zone { return b.obj.zone }

func (b *Base) Started() bool { return b.state.Load() == stateStarted }

// Requirement declares a component that must exist before another starts.
// Priority requirements are added before the rest.
type Requirement struct {
	Type     reflect.Type
	Priority bool
}

// Requires builds a Requirement on component type T.
func Requires[T Component](priority bool) Requirement {
	return Requirement{Type: typeOf[T](), Priority: priority}
}

type componentInfo struct {
	typ      reflect.Type
	id       ComponentID
	create   func() Component
	requires []Requirement
}

var componentRegistry = struct {
	sync.RWMutex
	byType map[reflect.Type]*componentInfo
	byID   map[ComponentID]*componentInfo
}{
	byType: make(map[reflect.Type]*componentInfo),
	byID:   make(map[ComponentID]*componentInfo),
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterComponent makes component type T constructible by type and, when
// id is not ComponentNone, by static-data component id. Requirements are
// resolved priority first, each group in declaration order.
func RegisterComponent[T Component](id ComponentID, create func() T, requires ...Requirement) {
	ordered := make([]Requirement, len(requires))
	copy(ordered, requires)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority && !ordered[j].Priority })

	info := &componentInfo{
		typ:      typeOf[T](),
		id:       id,
		create:   func() Component { return create() },
		requires: ordered,
	}
	componentRegistry.Lock()
	defer componentRegistry.Unlock()
	componentRegistry.byType[info.typ] = info
	if id != ComponentNone {
		componentRegistry.byID[id] = info
	}
}

func componentByType(t reflect.Type) *componentInfo {
	componentRegistry.RLock()
	defer componentRegistry.RUnlock()
	return componentRegistry.byType[t]
}

func componentByID(id ComponentID) *componentInfo {
	componentRegistry.RLock()
	defer componentRegistry.RUnlock()
	return componentRegistry.byID[id]
}

// ── Generic accessors ─────────────────────────────────────────────

// AddComponent returns the existing component of type T or creates,
// attaches and starts a new one.
func AddComponent[T Component](g *GameObject) T {
	c, _ := g.addComponent(typeOf[T]()).(T)
	return c
}

// GetComponent returns the first component assignable to T.
func GetComponent[T any](g *GameObject) (T, bool) {
	for _, c := range g.Components() {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// HasComponent reports whether g owns a component assignable to T.
func HasComponent[T any](g *GameObject) bool {
	_, ok := GetComponent[T](g)
	return ok
}

// RemoveComponent detaches the component of type T, destroying it when
// destroy is set.
func RemoveComponent[T Component](g *GameObject, destroy bool) bool {
	c, ok := GetComponent[T](g)
	if !ok {
		return false
	}
	return g.RemoveComponent(c, destroy)
}

// ComponentRowID returns the static-data row of component kind id bound to
// g's template.
func (g *GameObject) ComponentRowID(id ComponentID) (int32, bool) {
	for _, row := range g.zone.data.Components(int32(g.lot)) {
		if ComponentID(row.ComponentType) == id {
			return row.ComponentID, true
		}
	}
	return 0, false
}
