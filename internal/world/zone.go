package world

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/core/event"
	coresys "github.com/lugo/server/internal/core/system"
	"github.com/lugo/server/internal/data"
	"go.uber.org/zap"
)

// ZoneConfig holds the per-zone runtime settings.
type ZoneConfig struct {
	ZoneID       uint16
	Instance     uint16
	Clone        uint32
	ServerID     string // world server instance id, for logs
	TickRate     time.Duration
	IdleInterval time.Duration

	// RenderDistance applies when the zone row has no ghost distance.
	RenderDistance float32
}

// ChatMessage is a line of general chat sent by a player.
type ChatMessage struct {
	Player  *Player
	Channel uint8
	Text    string
}

// Zone owns every object in one running zone instance. It is the explicit
// context handed to objects, components and behaviors; nothing in the world
// reaches for global state.
type Zone struct {
	cfg   ZoneConfig
	info  data.ZoneRow
	data  data.Provider
	store PlayerStore
	log   *zap.Logger
	ids   *ecs.IDGenerator

	objects *ecs.Store[GameObject]
	players *ecs.Store[Player]

	sessMu    sync.RWMutex
	bySession map[uint64]*Player

	grid   *Grid
	runner *coresys.Runner
	sched  *scheduler

	rngMu sync.Mutex
	rng   *rand.Rand

	spawnMu       sync.RWMutex
	spawnPoint    Vector3
	spawnRotation Quaternion

	now      func() time.Time
	ticks    atomic.Int64
	checksum atomic.Uint64

	// values holds zone-scoped services owned by other packages.
	values sync.Map

	OnObject      event.Event[*GameObject]
	OnPlayerLoad  event.Event[*Player]
	OnPlayerLeave event.Event[*Player]
	OnTick        event.Signal
	OnChatMessage event.Event[ChatMessage]
}

// Option customises a Zone at construction.
type Option func(*Zone)

// WithClock replaces time.Now for timers.
func WithClock(now func() time.Time) Option {
	return func(z *Zone) { z.now = now }
}

// WithRand replaces the zone's random source.
func WithRand(r *rand.Rand) Option {
	return func(z *Zone) { z.rng = r }
}

// WithIDSeed starts object id allocation after seed.
func WithIDSeed(seed int64) Option {
	return func(z *Zone) { z.ids = ecs.NewIDGenerator(seed) }
}

func NewZone(cfg ZoneConfig, provider data.Provider, store PlayerStore, log *zap.Logger, opts ...Option) *Zone {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 50 * time.Millisecond
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = time.Second
	}
	if cfg.RenderDistance <= 0 {
		cfg.RenderDistance = 500
	}
	zlog := log.With(zap.Uint16("zone", cfg.ZoneID), zap.Uint16("instance", cfg.Instance))
	z := &Zone{
		cfg:       cfg,
		data:      provider,
		store:     store,
		log:       zlog,
		ids:       ecs.NewIDGenerator(time.Now().UnixMilli()),
		objects:   ecs.NewStore[GameObject](),
		players:   ecs.NewStore[Player](),
		bySession: make(map[uint64]*Player),
		grid:      NewGrid(),
		runner:    coresys.NewRunner(zlog),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if row, ok := provider.Zone(cfg.ZoneID); ok {
		z.info = row
	}
	for _, opt := range opts {
		opt(z)
	}
	z.sched = newScheduler(z)
	z.runner.Register(z.sched)
	return z
}

func (z *Zone) ID() uint16 { return z.cfg.ZoneID }

func (z *Zone) Name() string { return z.info.Name }

func (z *Zone) Data() data.Provider { return z.data }

func (z *Zone) Store() PlayerStore { return z.store }

func (z *Zone) Log() *zap.Logger { return z.log }

// Runner exposes the tick runner so systems can be registered.
func (z *Zone) Runner() *coresys.Runner { return z.runner }

func (z *Zone) Now() time.Time { return z.now() }

// Ticks returns the number of completed full ticks.
func (z *Zone) Ticks() int64 { return z.ticks.Load() }

// RenderDistance is the zone's ghost distance.
func (z *Zone) RenderDistance() float32 {
	if z.info.GhostDistance > 0 {
		return z.info.GhostDistance
	}
	return z.cfg.RenderDistance
}

// NextObjectID allocates a fresh, never reused id.
func (z *Zone) NextObjectID(flags ecs.ObjectIDFlags) ecs.ObjectID {
	return z.ids.Next(flags)
}

// ── Registry ──────────────────────────────────────────────────────

func (z *Zone) registerObject(g *GameObject) {
	if !z.objects.Add(g.id, g) {
		return
	}
	if t := g.Transform(); t != nil {
		z.grid.Set(g.id, t.Position())
	}
	if err := z.OnObject.Invoke(g); err != nil {
		z.log.Error("object listener failed", zap.Int64("object", int64(g.id)), zap.Error(err))
	}
}

func (z *Zone) unregisterObject(g *GameObject) {
	if !z.objects.Remove(g.id) {
		return
	}
	z.grid.Remove(g.id)
	z.sched.dropOwner(g)
}

func (z *Zone) HasObject(id ecs.ObjectID) bool { return z.objects.Has(id) }

// Object looks up a registered object.
func (z *Zone) Object(id ecs.ObjectID) (*GameObject, bool) {
	return z.objects.Get(id)
}

// Objects returns a snapshot of every registered object.
func (z *Zone) Objects() []*GameObject {
	return z.objects.Snapshot()
}

func (z *Zone) ObjectCount() int { return z.objects.Len() }

// ObjectsInRadius returns the registered objects within radius of center,
// nearest first.
func (z *Zone) ObjectsInRadius(center Vector3, radius float32) []*GameObject {
	type hit struct {
		obj  *GameObject
		dist float32
	}
	var hits []hit
	for _, id := range z.grid.Nearby(center, radius) {
		obj, ok := z.objects.Get(id)
		if !ok {
			continue
		}
		if d := Distance(center, obj.Position()); d <= radius {
			hits = append(hits, hit{obj, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]*GameObject, len(hits))
	for i, h := range hits {
		out[i] = h.obj
	}
	return out
}

// ── Players ───────────────────────────────────────────────────────

// Players returns a snapshot of the registered players.
func (z *Zone) Players() []*Player {
	return z.players.Snapshot()
}

func (z *Zone) PlayerCount() int { return z.players.Len() }

func (z *Zone) Player(id ecs.ObjectID) (*Player, bool) {
	return z.players.Get(id)
}

// PlayerBySession finds the player driven by a network session.
func (z *Zone) PlayerBySession(sessionID uint64) (*Player, bool) {
	z.sessMu.RLock()
	defer z.sessMu.RUnlock()
	p, ok := z.bySession[sessionID]
	return p, ok
}

// ── Randomness ────────────────────────────────────────────────────

// RandFloat returns a float in [0,1).
func (z *Zone) RandFloat() float32 {
	z.rngMu.Lock()
	defer z.rngMu.Unlock()
	return z.rng.Float32()
}

// RandRange returns an int in [lo,hi]; hi below lo returns lo.
func (z *Zone) RandRange(lo, hi int32) int32 {
	if hi <= lo {
		return lo
	}
	z.rngMu.Lock()
	defer z.rngMu.Unlock()
	return lo + z.rng.Int31n(hi-lo+1)
}

// Value returns the zone-scoped value stored under key.
func (z *Zone) Value(key any) (any, bool) { return z.values.Load(key) }

// LoadOrStoreValue returns the value under key, storing v first if there
// is none.
func (z *Zone) LoadOrStoreValue(key, v any) any {
	actual, _ := z.values.LoadOrStore(key, v)
	return actual
}

// Checksum of the level the zone was brought up from.
func (z *Zone) Checksum() uint64 { return z.checksum.Load() }

func formatChecksum(c uint64) string { return fmt.Sprintf("%016x", c) }
