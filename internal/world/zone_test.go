package world

import (
	"context"
	"testing"
	"time"

	"github.com/lugo/server/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterObjectIsIdempotent(t *testing.T) {
	z, _ := newTestZone(t)
	var announced int
	z.OnObject.Add(func(*GameObject) { announced++ })

	obj := z.Instantiate(ObjectSpec{Lot: 1, Bare: true})
	z.registerObject(obj)
	z.registerObject(obj)
	assert.Equal(t, 1, announced)
	assert.Equal(t, 1, z.ObjectCount())

	z.unregisterObject(obj)
	z.unregisterObject(obj)
	assert.Zero(t, z.ObjectCount())
}

func TestUpdateRunsAtFrequency(t *testing.T) {
	z, store := newTestZone(t)
	addPlayer(t, z, store, 100, Vector3{})
	obj := spawnAt(z, 1, Vector3{X: 5})

	var calls int
	z.Update(obj, func() { calls++ }, 3)
	for i := 0; i < 7; i++ {
		z.Tick(50 * time.Millisecond)
	}
	assert.Equal(t, 2, calls)
}

func TestUpdateSkipsObjectsNobodySees(t *testing.T) {
	z, store := newTestZone(t)
	addPlayer(t, z, store, 100, Vector3{})
	far := spawnAt(z, 1, Vector3{X: 5000})
	hidden := z.Instantiate(ObjectSpec{Lot: 1, Bare: true, Layer: LayerHidden})
	hidden.Start()

	var calls int
	z.Update(far, func() { calls++ }, 1)
	z.Update(hidden, func() { calls++ }, 1)
	z.Tick(50 * time.Millisecond)
	assert.Zero(t, calls)
}

func TestPanickingUpdateDoesNotStopTheTick(t *testing.T) {
	z, store := newTestZone(t)
	addPlayer(t, z, store, 100, Vector3{})
	obj := spawnAt(z, 1, Vector3{X: 5})

	var calls int
	z.Update(obj, func() { panic("boom") }, 1)
	z.Update(obj, func() { calls++ }, 1)
	require.NotPanics(t, func() { z.Tick(50 * time.Millisecond) })
	assert.Equal(t, 1, calls)
}

func TestCancelUpdate(t *testing.T) {
	z, store := newTestZone(t)
	addPlayer(t, z, store, 100, Vector3{})
	obj := spawnAt(z, 1, Vector3{X: 5})

	var calls int
	tok := z.Update(obj, func() { calls++ }, 1)
	z.Tick(time.Millisecond)
	assert.True(t, z.CancelUpdate(tok))
	assert.False(t, z.CancelUpdate(tok))
	z.Tick(time.Millisecond)
	assert.Equal(t, 1, calls)
}

func TestTimersFireOnceWhenDue(t *testing.T) {
	clock := newTestClock()
	z, _ := newTestZone(t, WithClock(clock.Now))

	var fired int
	z.Schedule(nil, time.Second, func() { fired++ })
	z.Tick(time.Millisecond)
	assert.Zero(t, fired)

	clock.Advance(time.Second)
	z.Tick(time.Millisecond)
	z.Tick(time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestTimersAreCancelledWithTheirOwner(t *testing.T) {
	clock := newTestClock()
	z, _ := newTestZone(t, WithClock(clock.Now))
	obj := spawnAt(z, 1, Vector3{})

	var fired int
	timer := z.Schedule(obj, time.Second, func() { fired++ })
	obj.Destroy()
	assert.True(t, timer.Cancelled())

	clock.Advance(time.Minute)
	z.Tick(time.Millisecond)
	assert.Zero(t, fired)

	late := z.Schedule(obj, 0, func() { fired++ })
	assert.True(t, late.Cancelled(), "scheduling on a destroyed owner is refused")
}

func TestCancelledTimerDoesNotFire(t *testing.T) {
	clock := newTestClock()
	z, _ := newTestZone(t, WithClock(clock.Now))

	var fired int
	timer := z.Schedule(nil, time.Second, func() { fired++ })
	assert.True(t, timer.Cancel())
	assert.False(t, timer.Cancel())
	clock.Advance(time.Second)
	z.Tick(time.Millisecond)
	assert.Zero(t, fired)
}

func TestIdleTickFiresTimersButNotUpdates(t *testing.T) {
	clock := newTestClock()
	z, _ := newTestZone(t, WithClock(clock.Now))
	obj := spawnAt(z, 1, Vector3{})

	var timers, updates int
	z.Schedule(obj, 0, func() { timers++ })
	z.Update(nil, func() { updates++ }, 1)
	z.IdleTick(time.Second)
	assert.Equal(t, 1, timers)
	assert.Zero(t, updates)
}

func TestMessagingFanOut(t *testing.T) {
	z, store := newTestZone(t)
	a, connA := addPlayer(t, z, store, 100, Vector3{})
	_, connB := addPlayer(t, z, store, 101, Vector3{})
	connA.Reset()
	connB.Reset()

	msg := PlayEmoteMessage{Object: a.ID(), Emote: 7}
	z.BroadcastMessage(msg)
	assert.Equal(t, []uint16{MsgPlayEmote}, connA.gameMessages())
	assert.Equal(t, []uint16{MsgPlayEmote}, connB.gameMessages())

	z.ExcludingMessage(msg, a)
	assert.Len(t, connA.gameMessages(), 1)
	assert.Len(t, connB.gameMessages(), 2)

	z.SelectiveMessage(msg, []*Player{a})
	assert.Len(t, connA.gameMessages(), 2)
	assert.Len(t, connB.gameMessages(), 2)
}

func TestObjectsInRadiusNearestFirst(t *testing.T) {
	z, _ := newTestZone(t)
	far := spawnAt(z, 1, Vector3{X: 5})
	near := spawnAt(z, 1, Vector3{X: 2})
	spawnAt(z, 1, Vector3{X: 12})

	got := z.ObjectsInRadius(Vector3{}, 10)
	assert.Equal(t, []*GameObject{near, far}, got)
}

func TestRemovePlayerFlushesAndDestructs(t *testing.T) {
	z, store := newTestZone(t)
	a, _ := addPlayer(t, z, store, 100, Vector3{})
	_, connB := addPlayer(t, z, store, 101, Vector3{})
	connB.Reset()

	a.SetCurrency(42)
	z.RemovePlayer(context.Background(), a)
	assert.Equal(t, int64(42), store.currency[a.ID()])
	assert.Equal(t, packet.IDReplicaDestruction, lastFrame(t, connB).kind)
	_, ok := z.Player(a.ID())
	assert.False(t, ok)
	_, ok = z.PlayerBySession(100)
	assert.False(t, ok)
}

func TestRunStopsOnCancel(t *testing.T) {
	z, _ := newTestZone(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- z.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("zone loop did not stop")
	}
}
