package world

import (
	"testing"

	"github.com/lugo/server/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startOrder []string

type lowDep struct{ Base }

func (c *lowDep) Start() { startOrder = append(startOrder, "low") }

type highDep struct{ Base }

func (c *highDep) Start() { startOrder = append(startOrder, "high") }

type dependent struct {
	Base
	destroyed int
}

func (c *dependent) Start()   { startOrder = append(startOrder, "dependent") }
func (c *dependent) Destroy() { c.destroyed++ }

func init() {
	RegisterComponent(ComponentNone, func() *lowDep { return &lowDep{} })
	RegisterComponent(ComponentNone, func() *highDep { return &highDep{} })
	RegisterComponent(ComponentNone, func() *dependent { return &dependent{} },
		Requires[*lowDep](false), Requires[*highDep](true))
}

func TestAddComponentResolvesRequirementsPriorityFirst(t *testing.T) {
	z, _ := newTestZone(t)
	obj := z.Instantiate(ObjectSpec{Lot: 1, Bare: true})
	startOrder = nil

	c := AddComponent[*dependent](obj)
	require.NotNil(t, c)
	assert.Equal(t, []string{"high", "low", "dependent"}, startOrder)
	assert.Same(t, obj, c.GameObject())
}

func TestAddComponentIsIdempotent(t *testing.T) {
	z, _ := newTestZone(t)
	obj := z.Instantiate(ObjectSpec{Lot: 1, Bare: true})
	first := AddComponent[*dependent](obj)
	count := len(obj.Components())
	startOrder = nil

	second := AddComponent[*dependent](obj)
	assert.Same(t, first, second)
	assert.Len(t, obj.Components(), count)
	assert.Empty(t, startOrder, "requirements must not be rebuilt")
}

func TestAddComponentByUnknownIDReturnsNil(t *testing.T) {
	z, _ := newTestZone(t)
	obj := z.Instantiate(ObjectSpec{Lot: 1, Bare: true})
	assert.Nil(t, obj.AddComponentByID(ComponentID(9999)))
}

func TestRemoveComponentRunsTeardownOnce(t *testing.T) {
	z, _ := newTestZone(t)
	obj := z.Instantiate(ObjectSpec{Lot: 1, Bare: true})
	c := AddComponent[*dependent](obj)

	assert.True(t, RemoveComponent[*dependent](obj, true))
	assert.False(t, RemoveComponent[*dependent](obj, true))
	assert.Equal(t, 1, c.destroyed)
	assert.False(t, HasComponent[*dependent](obj))
}

func TestGameObjectLifecycle(t *testing.T) {
	z, _ := newTestZone(t)
	obj := z.Instantiate(ObjectSpec{Lot: 1, Bare: true})
	c := AddComponent[*dependent](obj)

	var starts, destroys int
	event.ListenSignal(&obj.Listeners, &obj.OnStart, func() { starts++ })
	obj.OnDestroyed.Add(func(struct{}) { destroys++ })

	assert.False(t, obj.Alive())
	obj.Start()
	obj.Start()
	assert.Equal(t, 1, starts)
	assert.True(t, obj.Alive())
	assert.True(t, z.HasObject(obj.ID()))

	obj.Destroy()
	obj.Destroy()
	assert.Equal(t, 1, destroys)
	assert.False(t, obj.Alive())
	assert.False(t, z.HasObject(obj.ID()))
	assert.Equal(t, 1, c.destroyed)
	assert.Empty(t, obj.Components())
	assert.Zero(t, obj.Listeners.Len())
	assert.Zero(t, obj.OnDestroyed.Len())
}

func TestComponentsSnapshotAllowsMutationDuringIteration(t *testing.T) {
	z, _ := newTestZone(t)
	obj := z.Instantiate(ObjectSpec{Lot: 1, Bare: true})
	AddComponent[*lowDep](obj)
	for _, c := range obj.Components() {
		if _, ok := c.(*lowDep); ok {
			AddComponent[*highDep](obj)
		}
	}
	assert.True(t, HasComponent[*highDep](obj))
}

func TestObjectIDsAreNeverReused(t *testing.T) {
	z, _ := newTestZone(t)
	a := spawnAt(z, 1, Vector3{})
	a.Destroy()
	b := spawnAt(z, 1, Vector3{})
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestReplicaComponentsInWireOrder(t *testing.T) {
	z, _ := newTestZone(t)
	obj := z.Instantiate(ObjectSpec{Lot: 1, Bare: true})
	AddComponent[*Script](obj)
	AddComponent[*Destructible](obj)
	AddComponent[*SimplePhysics](obj)

	var ids []ComponentID
	for _, r := range obj.ReplicaComponents() {
		ids = append(ids, r.ComponentID())
	}
	assert.Equal(t, []ComponentID{ComponentSimplePhysics, ComponentDestructible, ComponentScript}, ids)
}
