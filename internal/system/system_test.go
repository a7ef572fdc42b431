package system

import (
	"context"
	stdnet "net"
	"sync"
	"testing"
	"time"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/data"
	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	mu        sync.Mutex
	chars     map[ecs.ObjectID]*world.CharacterRecord
	positions map[ecs.ObjectID]world.Vector3
}

func newMemStore() *memStore {
	return &memStore{
		chars:     make(map[ecs.ObjectID]*world.CharacterRecord),
		positions: make(map[ecs.ObjectID]world.Vector3),
	}
}

func (s *memStore) LoadCharacter(_ context.Context, id ecs.ObjectID) (*world.CharacterRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.chars[id]
	if !ok {
		return nil, world.ErrCharacterNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) SetStats(context.Context, ecs.ObjectID, world.StatsRecord) error { return nil }

func (s *memStore) SetCurrency(context.Context, ecs.ObjectID, int64) error { return nil }

func (s *memStore) SetPosition(_ context.Context, id ecs.ObjectID, _ uint16, pos world.Vector3, _ world.Quaternion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[id] = pos
	return nil
}

func (s *memStore) SetInventorySlot(context.Context, ecs.ObjectID, world.InventorySlot) error {
	return nil
}

func (s *memStore) position(id ecs.ObjectID) (world.Vector3, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[id]
	return pos, ok
}

func newTestZone(t *testing.T) (*world.Zone, *memStore) {
	t.Helper()
	gd, err := data.ParseGameData([]byte("objects:\n  - {lot: 6010, name: Crate}\n"))
	require.NoError(t, err)
	store := newMemStore()
	z := world.NewZone(world.ZoneConfig{ZoneID: 1000}, data.NewTables(gd), store, zap.NewNop())
	return z, store
}

func newTestSession(t *testing.T, id uint64) *net.Session {
	t.Helper()
	server, client := stdnet.Pipe()
	sess := net.NewSession(server, id, net.SessionOptions{InQueueSize: 8, OutQueueSize: 8}, zap.NewNop())
	t.Cleanup(func() {
		sess.Close()
		client.Close()
	})
	return sess
}

func loadPlayer(t *testing.T, z *world.Zone, store *memStore, sess *net.Session, id ecs.ObjectID, pos world.Vector3) *world.Player {
	t.Helper()
	store.mu.Lock()
	store.chars[id] = &world.CharacterRecord{
		ID:       id,
		Name:     "Tester",
		ZoneID:   z.ID(),
		Position: pos,
		Rotation: world.IdentityRotation,
		Stats:    world.StatsRecord{Health: 4, MaxHealth: 4, Imagination: 6, MaxImagination: 6},
	}
	store.mu.Unlock()
	p, err := z.LoadPlayer(context.Background(), sess, sess.ID, id)
	require.NoError(t, err)
	return p
}

func validationFrame() []byte {
	return packet.NewUserPacket(packet.ClientValidation).Bytes()
}

// countingRegistry counts validation packets and answers each with one byte.
func countingRegistry(onPacket func(sess *net.Session)) (*packet.Registry, *int) {
	reg := packet.NewRegistry(zap.NewNop())
	count := new(int)
	reg.Register(packet.ClientValidation, []packet.SessionState{packet.StateConnected},
		func(sess any, _ *packet.Reader) {
			*count++
			s := sess.(*net.Session)
			s.Send([]byte{0x01})
			if onPacket != nil {
				onPacket(s)
			}
		})
	return reg, count
}

func TestInputAdoptsAndDispatches(t *testing.T) {
	reg, count := countingRegistry(nil)
	sessions := NewSessionSet()
	input := NewInputSystem(reg, sessions, 4, zap.NewNop())

	sess := newTestSession(t, 1)
	sess.InQueue <- validationFrame()
	input.Adopt(sess)

	input.Update(0)
	assert.Equal(t, 1, sessions.Len())
	assert.Equal(t, 1, *count)
	assert.Len(t, sess.OutQueue, 1, "replies are flushed during input")
}

func TestInputRespectsMaxPerTick(t *testing.T) {
	reg, count := countingRegistry(nil)
	sessions := NewSessionSet()
	input := NewInputSystem(reg, sessions, 2, zap.NewNop())

	sess := newTestSession(t, 1)
	sessions.Add(sess)
	for i := 0; i < 3; i++ {
		sess.InQueue <- validationFrame()
	}

	input.Update(0)
	assert.Equal(t, 2, *count)
	input.Update(0)
	assert.Equal(t, 3, *count)
}

func TestInputStopsDrainingReleasedSession(t *testing.T) {
	sessions := NewSessionSet()
	var input *InputSystem
	reg, count := countingRegistry(func(sess *net.Session) { input.Release(sess) })
	input = NewInputSystem(reg, sessions, 8, zap.NewNop())

	sess := newTestSession(t, 1)
	sessions.Add(sess)
	sess.InQueue <- validationFrame()
	sess.InQueue <- validationFrame()

	input.Update(0)
	assert.Equal(t, 1, *count)
	assert.Zero(t, sessions.Len())
	assert.Len(t, sess.InQueue, 1, "the next zone reads the rest")
}

func TestCleanupRemovesClosedSessions(t *testing.T) {
	z, store := newTestZone(t)
	sessions := NewSessionSet()
	cleanup := NewCleanupSystem(z, sessions, zap.NewNop())

	idle := newTestSession(t, 1)
	sessions.Add(idle)
	sess := newTestSession(t, 2)
	sessions.Add(sess)
	p := loadPlayer(t, z, store, sess, 1001, world.Vector3{X: 1})
	p.Move(world.Vector3{X: 7, Y: 2}, world.IdentityRotation)

	cleanup.Update(0)
	assert.Equal(t, 2, sessions.Len())

	idle.Close()
	sess.Close()
	cleanup.Update(0)
	assert.Zero(t, sessions.Len())
	assert.Zero(t, z.PlayerCount())
	pos, ok := store.position(1001)
	require.True(t, ok, "position saved on leave")
	assert.Equal(t, world.Vector3{X: 7, Y: 2}, pos)
}

func TestPersistenceSavesDirtyPlayersOnInterval(t *testing.T) {
	z, store := newTestZone(t)
	persistence := NewPersistenceSystem(z, time.Second, zap.NewNop())
	p := loadPlayer(t, z, store, newTestSession(t, 1), 1001, world.Vector3{X: 1})

	p.Move(world.Vector3{X: 3}, world.IdentityRotation)
	persistence.Update(500 * time.Millisecond)
	_, ok := store.position(1001)
	assert.False(t, ok)

	persistence.Update(600 * time.Millisecond)
	pos, ok := store.position(1001)
	require.True(t, ok)
	assert.Equal(t, world.Vector3{X: 3}, pos)
	assert.False(t, p.Dirty())
	assert.Zero(t, persistence.SaveDirty())
}

func TestVisibilityRefreshesEveryNTicks(t *testing.T) {
	z, store := newTestZone(t)
	sess := newTestSession(t, 1)
	p := loadPlayer(t, z, store, sess, 1001, world.Vector3{X: 1})

	crate := z.Instantiate(world.ObjectSpec{Lot: 6010, Position: world.Vector3{X: 2000}, Bare: true})
	crate.Start()
	_, seen := p.Perspective().TryGetNetworkID(crate)
	require.False(t, seen)

	p.Move(world.Vector3{X: 1990}, world.IdentityRotation)
	visibility := NewVisibilitySystem(z, 2)
	visibility.Update(0)
	_, seen = p.Perspective().TryGetNetworkID(crate)
	assert.False(t, seen)

	visibility.Update(0)
	_, seen = p.Perspective().TryGetNetworkID(crate)
	assert.True(t, seen)
}

func TestOutputFlushesEverySession(t *testing.T) {
	sessions := NewSessionSet()
	a, b := newTestSession(t, 1), newTestSession(t, 2)
	sessions.Add(a)
	sessions.Add(b)
	a.Send([]byte{1})
	b.Send([]byte{2})
	b.Send([]byte{3})

	NewOutputSystem(sessions).Update(0)
	assert.Len(t, a.OutQueue, 1)
	assert.Len(t, b.OutQueue, 2)
}
