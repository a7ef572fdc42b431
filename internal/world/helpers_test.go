package world

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/data"
	"github.com/lugo/server/internal/net/packet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testData = `
objects:
  - {lot: 6010, name: Crate}
  - {lot: 7000, name: Coin Chest}
  - {lot: 935, name: Brick}
components:
  - {lot: 6010, component_type: 3, component_id: 0}
  - {lot: 6010, component_type: 7, component_id: 12}
  - {lot: 7000, component_type: 23, component_id: 13}
destructibles:
  - {id: 12, life: 3, armor: 1, faction: 6, loot_matrix_index: 4, currency_index: 1, level: 2, is_smashable: true}
  - {id: 13, life: 1, faction: 6}
factions:
  - {faction: 6, enemies: [1]}
  - {faction: 1, enemies: [6]}
loot_matrices:
  - {index: 4, loot_table_index: 9, percent: 1, min_to_drop: 3, max_to_drop: 3}
loot_tables:
  - {index: 9, lot: 935}
currency_tables:
  - {index: 1, npc_min_level: 1, min_value: 5, max_value: 5}
`

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) Send(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, append([]byte(nil), b...))
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func (c *fakeConn) Reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

// replicaFrames returns the replica frames, in order, as (kind, net id).
func (c *fakeConn) replicaFrames() []replicaFrame {
	var out []replicaFrame
	for _, f := range c.Frames() {
		switch f[0] {
		case packet.IDReplicaConstruction, packet.IDReplicaSerialize, packet.IDReplicaDestruction:
			r := packet.NewReader(f)
			kind := r.ReadU8()
			if kind == packet.IDReplicaConstruction {
				r.ReadBit()
			}
			out = append(out, replicaFrame{kind: kind, id: r.ReadU16()})
		}
	}
	return out
}

// gameMessages returns the ids of the game messages received.
func (c *fakeConn) gameMessages() []uint16 {
	var out []uint16
	for _, f := range c.Frames() {
		if f[0] != packet.IDUserPacket {
			continue
		}
		r := packet.NewReader(f)
		r.ReadU8()
		r.ReadU16()
		if r.ReadU32() != packet.ServerGameMessage {
			continue
		}
		r.ReadU8()
		r.ReadI64()
		out = append(out, r.ReadU16())
	}
	return out
}

type replicaFrame struct {
	kind byte
	id   uint16
}

type memStore struct {
	mu       sync.Mutex
	chars    map[ecs.ObjectID]*CharacterRecord
	stats    map[ecs.ObjectID]StatsRecord
	currency map[ecs.ObjectID]int64
	slots    map[ecs.ObjectID]map[uint32]InventorySlot
}

func newMemStore() *memStore {
	return &memStore{
		chars:    make(map[ecs.ObjectID]*CharacterRecord),
		stats:    make(map[ecs.ObjectID]StatsRecord),
		currency: make(map[ecs.ObjectID]int64),
		slots:    make(map[ecs.ObjectID]map[uint32]InventorySlot),
	}
}

func (s *memStore) LoadCharacter(_ context.Context, id ecs.ObjectID) (*CharacterRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.chars[id]
	if !ok {
		return nil, ErrCharacterNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) SetStats(_ context.Context, id ecs.ObjectID, st StatsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[id] = st
	return nil
}

func (s *memStore) SetCurrency(_ context.Context, id ecs.ObjectID, v int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency[id] = v
	return nil
}

func (s *memStore) SetPosition(context.Context, ecs.ObjectID, uint16, Vector3, Quaternion) error {
	return nil
}

func (s *memStore) SetInventorySlot(_ context.Context, id ecs.ObjectID, slot InventorySlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots[id] == nil {
		s.slots[id] = make(map[uint32]InventorySlot)
	}
	s.slots[id][slot.Slot] = slot
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestZone(t *testing.T, opts ...Option) (*Zone, *memStore) {
	t.Helper()
	gd, err := data.ParseGameData([]byte(testData))
	require.NoError(t, err)
	store := newMemStore()
	opts = append([]Option{WithRand(rand.New(rand.NewSource(1))), WithIDSeed(0)}, opts...)
	z := NewZone(ZoneConfig{ZoneID: 1000}, data.NewTables(gd), store, zap.NewNop(), opts...)
	return z, store
}

func addPlayer(t *testing.T, z *Zone, store *memStore, id ecs.ObjectID, pos Vector3) (*Player, *fakeConn) {
	t.Helper()
	store.mu.Lock()
	store.chars[id] = &CharacterRecord{
		ID:       id,
		Name:     "Tester",
		ZoneID:   z.ID(),
		Position: pos,
		Stats:    StatsRecord{Health: 4, MaxHealth: 4, Armor: 0, MaxArmor: 2, Imagination: 6, MaxImagination: 6},
	}
	store.mu.Unlock()
	conn := &fakeConn{}
	p, err := z.LoadPlayer(context.Background(), conn, uint64(id), id)
	require.NoError(t, err)
	return p, conn
}

// spawnAt instantiates and starts a bare object.
func spawnAt(z *Zone, lot Lot, pos Vector3) *GameObject {
	obj := z.Instantiate(ObjectSpec{Lot: lot, Position: pos, Bare: true})
	obj.Start()
	return obj
}
