package behavior

import (
	"context"
	"encoding/binary"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/data"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	lotCaster = 100
	lotEnemy  = 200
	lotFriend = 300
)

const testData = `
objects:
  - {lot: 100, name: Stromling}
  - {lot: 200, name: Target}
  - {lot: 300, name: Friend}
components:
  - {lot: 100, component_type: 7, component_id: 1}
  - {lot: 100, component_type: 9, component_id: 0}
  - {lot: 100, component_type: 60, component_id: 1}
  - {lot: 200, component_type: 7, component_id: 2}
  - {lot: 300, component_type: 7, component_id: 3}
destructibles:
  - {id: 1, life: 10, faction: 1, imagination: 4}
  - {id: 2, life: 5, faction: 6}
  - {id: 3, life: 5, faction: 1}
factions:
  - {faction: 1, enemies: [6]}
  - {faction: 6, enemies: [1]}
combat_ai:
  - {id: 1, aggro_radius: 30, combat_round_length: 1}
skills:
  - {skill_id: 1, behavior_id: 21, cooldown: 2, max_range: 20}
  - {skill_id: 2, behavior_id: 20}
  - {skill_id: 3, behavior_id: 30}
  - {skill_id: 4, behavior_id: 60}
  - {skill_id: 5, behavior_id: 21, imagination_cost: 3}
  - {skill_id: 6, behavior_id: 220, imagination_cost: 3}
object_skills:
  - {lot: 100, skill_id: 1, ai_combat_weight: 1}
behavior_templates:
  - {behavior_id: 10, template_id: 44}
  - {behavior_id: 11, template_id: 8}
  - {behavior_id: 12, template_id: 8}
  - {behavior_id: 13, template_id: 8}
  - {behavior_id: 20, template_id: 7}
  - {behavior_id: 21, template_id: 1}
  - {behavior_id: 30, template_id: 18}
  - {behavior_id: 40, template_id: 38}
  - {behavior_id: 50, template_id: 2}
  - {behavior_id: 60, template_id: 4}
  - {behavior_id: 70, template_id: 3}
  - {behavior_id: 71, template_id: 3}
  - {behavior_id: 80, template_id: 999}
  - {behavior_id: 90, template_id: 45}
  - {behavior_id: 91, template_id: 16}
  - {behavior_id: 92, template_id: 14}
  - {behavior_id: 93, template_id: 5}
  - {behavior_id: 100, template_id: 29}
  - {behavior_id: 110, template_id: 6}
  - {behavior_id: 120, template_id: 56}
  - {behavior_id: 130, template_id: 40}
  - {behavior_id: 140, template_id: 15}
  - {behavior_id: 150, template_id: 17}
  - {behavior_id: 160, template_id: 43}
  - {behavior_id: 170, template_id: 13}
  - {behavior_id: 180, template_id: 22}
  - {behavior_id: 190, template_id: 39}
  - {behavior_id: 200, template_id: 62}
  - {behavior_id: 210, template_id: 37}
  - {behavior_id: 220, template_id: 3}
  - {behavior_id: 221, template_id: 3}
  - {behavior_id: 230, template_id: 2}
behavior_parameters:
  - {behavior_id: 10, parameter: behavior 1, value: 11}
  - {behavior_id: 10, parameter: value 1, value: 10}
  - {behavior_id: 10, parameter: behavior 2, value: 12}
  - {behavior_id: 10, parameter: value 2, value: 25}
  - {behavior_id: 10, parameter: behavior 3, value: 13}
  - {behavior_id: 10, parameter: value 3, value: 50}
  - {behavior_id: 20, parameter: action, value: 21}
  - {behavior_id: 20, parameter: radius, value: 10}
  - {behavior_id: 20, parameter: max targets, value: 5}
  - {behavior_id: 21, parameter: min damage, value: 1}
  - {behavior_id: 21, parameter: max damage, value: 1}
  - {behavior_id: 30, parameter: action, value: 21}
  - {behavior_id: 30, parameter: delay, value: 1}
  - {behavior_id: 40, parameter: behavior 1, value: 21}
  - {behavior_id: 40, parameter: behavior 2, value: 11}
  - {behavior_id: 50, parameter: action, value: 21}
  - {behavior_id: 50, parameter: miss action, value: 11}
  - {behavior_id: 50, parameter: max targets, value: 2}
  - {behavior_id: 50, parameter: max range, value: 15}
  - {behavior_id: 60, parameter: action, value: 21}
  - {behavior_id: 60, parameter: projectile_speed, value: 10}
  - {behavior_id: 60, parameter: LOT_ID, value: 999}
  - {behavior_id: 60, parameter: max_distance, value: 20}
  - {behavior_id: 70, parameter: behavior 1, value: 71}
  - {behavior_id: 71, parameter: behavior 1, value: 70}
  - {behavior_id: 90, parameter: action, value: 91}
  - {behavior_id: 91, parameter: action, value: 92}
  - {behavior_id: 91, parameter: duration, value: 2}
  - {behavior_id: 92, parameter: action, value: 93}
  - {behavior_id: 93, parameter: health, value: 3}
  - {behavior_id: 100, parameter: action_true, value: 21}
  - {behavior_id: 100, parameter: action_false, value: 11}
  - {behavior_id: 110, parameter: ground_action, value: 21}
  - {behavior_id: 110, parameter: jump_action, value: 11}
  - {behavior_id: 120, parameter: ground_action, value: 21}
  - {behavior_id: 120, parameter: hit_action, value: 11}
  - {behavior_id: 150, parameter: strength, value: 5}
  - {behavior_id: 160, parameter: action, value: 21}
  - {behavior_id: 160, parameter: max_duration, value: 1}
  - {behavior_id: 170, parameter: imagination, value: 2}
  - {behavior_id: 180, parameter: armor, value: 1}
  - {behavior_id: 200, parameter: action, value: 21}
  - {behavior_id: 220, parameter: behavior 1, value: 21}
  - {behavior_id: 220, parameter: behavior 2, value: 40}
  - {behavior_id: 221, parameter: behavior 1, value: 160}
  - {behavior_id: 221, parameter: behavior 2, value: 40}
  - {behavior_id: 230, parameter: action, value: 21}
  - {behavior_id: 230, parameter: max targets, value: 0}
  - {behavior_id: 230, parameter: max range, value: 15}
`

type testClock struct {
	mu  sync.Mutex
	now time.Time
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

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *fakeConn) Send(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, append([]byte(nil), b...))
}

func (c *fakeConn) Close() {}

// gameMessages returns the ids of the game messages received so far.
func (c *fakeConn) gameMessages() []uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []uint16
	for _, f := range c.frames {
		if len(f) < packet.GameMessageHeaderSize || f[0] != packet.IDUserPacket {
			continue
		}
		if binary.LittleEndian.Uint32(f[3:7]) != packet.ServerGameMessage {
			continue
		}
		out = append(out, binary.LittleEndian.Uint16(f[16:18]))
	}
	return out
}

type memStore struct {
	mu    sync.Mutex
	chars map[ecs.ObjectID]*world.CharacterRecord
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
func (s *memStore) SetCurrency(context.Context, ecs.ObjectID, int64) error          { return nil }
func (s *memStore) SetPosition(context.Context, ecs.ObjectID, uint16, world.Vector3, world.Quaternion) error {
	return nil
}
func (s *memStore) SetInventorySlot(context.Context, ecs.ObjectID, world.InventorySlot) error {
	return nil
}

type testZone struct {
	*world.Zone
	clock *testClock
	store *memStore
}

func newTestZone(t *testing.T) *testZone {
	t.Helper()
	gd, err := data.ParseGameData([]byte(testData))
	require.NoError(t, err)
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := &memStore{chars: make(map[ecs.ObjectID]*world.CharacterRecord)}
	z := world.NewZone(world.ZoneConfig{ZoneID: 1100}, data.NewTables(gd), store, zap.NewNop(),
		world.WithClock(clock.Now),
		world.WithRand(rand.New(rand.NewSource(1))),
		world.WithIDSeed(0))
	return &testZone{Zone: z, clock: clock, store: store}
}

func (tz *testZone) spawn(lot world.Lot, x float32) *world.GameObject {
	obj := tz.Instantiate(world.ObjectSpec{Lot: lot, Position: world.Vector3{X: x}})
	obj.Start()
	return obj
}

func (tz *testZone) addPlayer(t *testing.T, id ecs.ObjectID, x float32) (*world.Player, *fakeConn) {
	t.Helper()
	tz.store.mu.Lock()
	tz.store.chars[id] = &world.CharacterRecord{
		ID:       id,
		Name:     "Caster",
		ZoneID:   tz.ID(),
		Position: world.Vector3{X: x, Y: 1},
		Stats:    world.StatsRecord{Health: 4, MaxHealth: 4, Imagination: 6, MaxImagination: 6},
	}
	tz.store.mu.Unlock()
	conn := &fakeConn{}
	p, err := tz.LoadPlayer(context.Background(), conn, uint64(id), id)
	require.NoError(t, err)
	return p, conn
}

// advance moves the clock and runs one tick.
func (tz *testZone) advance(d time.Duration) {
	tz.clock.Advance(d)
	tz.Tick(d)
}

func health(t *testing.T, obj *world.GameObject) int32 {
	t.Helper()
	s, ok := world.GetComponent[*world.Stats](obj)
	require.True(t, ok)
	return s.Health()
}

// attackBits encodes a client basic attack claim.
func attackBits(w *packet.Writer, damage uint32, success bool) {
	w.Align()
	w.WriteU16(0)
	w.WriteBit(false)
	w.WriteBit(false)
	w.WriteBit(true)
	w.WriteU32(0)
	w.WriteU32(damage)
	w.WriteBit(success)
}

type recordedSync struct {
	handle  uint32
	payload []byte
}

type recordedImpact struct {
	projectile, target ecs.ObjectID
	payload            []byte
}

// recorder is an Outbox keeping everything it receives.
type recorder struct {
	syncs   []recordedSync
	impacts []recordedImpact
}

func (r *recorder) Sync(_ *Cast, handle uint32, payload []byte) {
	r.syncs = append(r.syncs, recordedSync{handle, payload})
}

func (r *recorder) Impact(_ *Cast, projectile, target ecs.ObjectID, payload []byte) {
	r.impacts = append(r.impacts, recordedImpact{projectile, target, payload})
}
