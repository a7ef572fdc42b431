package world

import (
	"sync"
	"time"

	"github.com/lugo/server/internal/core/event"
	"go.uber.org/zap"
)

const (
	defaultSpawnerRespawn = 10 * time.Second

	// smashedLinger keeps a smashed spawn around long enough for its death
	// to play out on clients.
	smashedLinger = 2 * time.Second
)

// spawnerOnlyKeys stay on the spawner and are not copied to its spawns.
var spawnerOnlyKeys = map[string]bool{
	"spawntemplate":      true,
	"number_to_maintain": true,
	"respawn":            true,
	"spawn_locations":    true,
}

type spawnLocation struct {
	position Vector3
	rotation Quaternion
	inUse    bool
}

// Spawner keeps a number of objects of one template alive at a set of
// locations, replacing smashed ones after a delay.
type Spawner struct {
	Base

	mu          sync.Mutex
	template    Lot
	maintain    int
	respawnTime time.Duration
	locations   []*spawnLocation
	active      map[*GameObject]*spawnLocation
	settings    *Settings
	pending     []*Timer

	OnSpawned event.Event[*GameObject]
}

func init() {
	RegisterComponent(ComponentSpawner, func() *Spawner {
		return &Spawner{maintain: 1, respawnTime: defaultSpawnerRespawn, active: make(map[*GameObject]*spawnLocation)}
	})
}

func (sp *Spawner) Start() {
	obj := sp.GameObject()
	settings := obj.Settings()
	if v, ok := settings.Int("spawntemplate"); ok {
		sp.template = Lot(v)
	}
	if v, ok := settings.Int("number_to_maintain"); ok && v > 0 {
		sp.maintain = int(v)
	}
	if v, ok := settings.Float("respawn"); ok && v > 0 {
		sp.respawnTime = time.Duration(v * float64(time.Second))
	}

	t := obj.Transform()
	sp.locations = append(sp.locations, &spawnLocation{position: t.Position(), rotation: t.Rotation()})
	for _, p := range settingVectors(settings, "spawn_locations") {
		sp.locations = append(sp.locations, &spawnLocation{position: p, rotation: t.Rotation()})
	}

	sp.settings = NewSettings()
	for _, key := range settings.Keys() {
		if v, ok := settings.Get(key); ok && !spawnerOnlyKeys[key] {
			sp.settings.Set(key, v)
		}
	}

	if sp.template == 0 {
		obj.Log().Warn("spawner without template")
		return
	}
	if obj.Started() {
		sp.fill()
		return
	}
	event.ListenSignal(&sp.Listeners, &obj.OnStart, sp.fill)
}

func (sp *Spawner) fill() {
	for i := len(sp.ActiveSpawns()); i < sp.maintain; i++ {
		sp.Spawn()
	}
}

// Destroy cancels pending respawns and removes every live spawn.
func (sp *Spawner) Destroy() {
	sp.mu.Lock()
	pending := sp.pending
	sp.pending = nil
	active := make([]*GameObject, 0, len(sp.active))
	for obj := range sp.active {
		active = append(active, obj)
	}
	sp.mu.Unlock()
	for _, t := range pending {
		t.Cancel()
	}
	for _, obj := range active {
		obj.Destroy()
	}
}

func (sp *Spawner) Template() Lot { return sp.template }

// ActiveSpawns returns the live spawns.
func (sp *Spawner) ActiveSpawns() []*GameObject {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	out := make([]*GameObject, 0, len(sp.active))
	for obj := range sp.active {
		out = append(out, obj)
	}
	return out
}

func (sp *Spawner) claimLocation() *spawnLocation {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	var free []*spawnLocation
	for _, l := range sp.locations {
		if !l.inUse {
			free = append(free, l)
		}
	}
	if len(free) == 0 {
		return sp.locations[0]
	}
	l := free[sp.Zone().RandRange(0, int32(len(free)-1))]
	l.inUse = true
	return l
}

// Spawn instantiates and starts one object of the template.
func (sp *Spawner) Spawn() *GameObject {
	owner := sp.GameObject()
	if !owner.Alive() {
		return nil
	}
	loc := sp.claimLocation()
	obj := sp.Zone().Instantiate(ObjectSpec{
		Lot:      sp.template,
		Position: loc.position,
		Rotation: loc.rotation,
		Settings: sp.settings.Clone(),
		Spawner:  owner,
	})

	sp.mu.Lock()
	sp.active[obj] = loc
	sp.mu.Unlock()

	event.ListenSignal(&obj.Listeners, &obj.OnDestroyed, func() { sp.release(obj) })
	if d, ok := GetComponent[*Destructible](obj); ok {
		event.Listen(&obj.Listeners, &d.OnSmashed, func(Smash) { sp.smashed(obj) })
	}
	obj.Start()
	owner.logErr("spawn listener", sp.OnSpawned.Invoke(obj))
	return obj
}

func (sp *Spawner) release(obj *GameObject) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if loc, ok := sp.active[obj]; ok {
		loc.inUse = false
		delete(sp.active, obj)
	}
}

func (sp *Spawner) smashed(obj *GameObject) {
	z := sp.Zone()
	z.Schedule(obj, smashedLinger, obj.Destroy)
	t := z.Schedule(sp.GameObject(), sp.respawnTime, func() { sp.Spawn() })
	sp.mu.Lock()
	sp.pending = append(sp.pending[:0:0], livePending(sp.pending)...)
	sp.pending = append(sp.pending, t)
	sp.mu.Unlock()
	z.log.Debug("spawn smashed",
		zap.Int64("spawner", int64(sp.GameObject().ID())),
		zap.Duration("respawn", sp.respawnTime))
}

func livePending(ts []*Timer) []*Timer {
	var out []*Timer
	for _, t := range ts {
		if !t.Cancelled() {
			out = append(out, t)
		}
	}
	return out
}
