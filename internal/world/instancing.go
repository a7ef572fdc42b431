package world

import (
	"sort"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/data"
	"go.uber.org/zap"
)

// ObjectSpec describes an object to instantiate.
type ObjectSpec struct {
	ID       ecs.ObjectID // zero allocates a spawned id
	Lot      Lot
	Name     string // empty takes the template name
	Position Vector3
	Rotation Quaternion
	Scale    float32 // zero keeps the template scale
	Layer    Mask    // zero means LayerDefault
	Settings *Settings

	Spawner        *GameObject
	SpawnerNode    uint32
	HasSpawnerNode bool
	Parent         *GameObject

	// Bare skips the template's components.
	Bare bool
}

// Instantiate builds an unstarted object from spec with a transform and,
// unless spec.Bare, every component the template declares, added in wire
// order.
func (z *Zone) Instantiate(spec ObjectSpec) *GameObject {
	id := spec.ID
	if id.IsZero() {
		id = z.ids.Next(ecs.FlagSpawned | ecs.FlagClient)
	}
	name := spec.Name
	if name == "" {
		if row, ok := z.data.Object(int32(spec.Lot)); ok {
			name = row.Name
		}
	}
	layer := spec.Layer
	if layer == LayerNone {
		layer = LayerDefault
	}
	settings := spec.Settings
	if settings == nil {
		settings = NewSettings()
	}

	g := &GameObject{
		id:             id,
		lot:            spec.Lot,
		zone:           z,
		log:            z.log.With(zap.Int64("object", int64(id))),
		name:           name,
		layer:          layer,
		settings:       settings,
		spawner:        spec.Spawner,
		spawnerNode:    spec.SpawnerNode,
		hasSpawnerNode: spec.HasSpawnerNode,
	}
	if v, ok := settings.Int("trigger_id"); ok {
		g.triggerID, g.hasTrigger = int32(v), true
	}

	t := AddComponent[*Transform](g)
	t.mu.Lock()
	t.position = spec.Position
	if spec.Rotation != (Quaternion{}) {
		t.rotation = spec.Rotation
	}
	if spec.Scale != 0 {
		t.scale = spec.Scale
	}
	t.mu.Unlock()
	if spec.Parent != nil {
		t.SetParent(spec.Parent)
	}

	if !spec.Bare {
		z.addTemplateComponents(g)
	}
	return g
}

func (z *Zone) addTemplateComponents(g *GameObject) {
	rows := z.data.Components(int32(g.lot))
	ids := make([]ComponentID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, ComponentID(row.ComponentType))
	}
	sort.SliceStable(ids, func(i, j int) bool { return replicaRank(ids[i]) < replicaRank(ids[j]) })
	for _, id := range ids {
		if g.AddComponentByID(id) == nil {
			g.log.Debug("component kind not simulated", zap.Int32("component", int32(id)))
		}
	}
	if g.settings.Has("custom_script_server") {
		AddComponent[*Script](g)
	}
}

// InstantiateTemplate builds an object from a level template. Templates
// carrying spawntemplate become spawners.
func (z *Zone) InstantiateTemplate(tpl data.LevelObject) *GameObject {
	settings, err := ParseSettings(tpl.Settings)
	if err != nil {
		z.log.Warn("level object settings", zap.Int64("object", tpl.ObjectID), zap.Error(err))
	}
	layer := LayerDefault
	if settings.Bool("loadSrvrOnly") || settings.Bool("carver_only") || settings.Bool("renderDisabled") {
		layer = LayerHidden
	}

	spec := ObjectSpec{
		ID:       ecs.ObjectID(tpl.ObjectID) | ecs.ObjectID(ecs.FlagPersistent),
		Lot:      Lot(tpl.Lot),
		Position: VectorFromArray(tpl.Position),
		Rotation: QuaternionFromArray(tpl.Rotation),
		Scale:    tpl.Scale,
		Layer:    layer,
		Settings: settings,
	}
	if settings.Has("spawntemplate") {
		spec.Layer = LayerSpawner
		spec.Bare = true
		obj := z.Instantiate(spec)
		AddComponent[*Spawner](obj)
		return obj
	}
	return z.Instantiate(spec)
}

// LoadLevel spawns and starts every template of level and remembers the
// player spawn point.
func (z *Zone) LoadLevel(level *data.Level) int {
	z.checksum.Store(level.Checksum)
	z.spawnMu.Lock()
	z.spawnPoint = VectorFromArray(level.SpawnPosition)
	z.spawnRotation = QuaternionFromArray(level.SpawnRotation)
	z.spawnMu.Unlock()

	n := 0
	for _, tpl := range level.Objects {
		obj := z.InstantiateTemplate(tpl)
		obj.Start()
		n++
	}
	z.log.Info("level loaded",
		zap.Int("objects", n),
		zap.String("checksum", formatChecksum(level.Checksum)),
		zap.String("server", z.cfg.ServerID))
	return n
}

// SpawnPoint is where players without a saved position appear.
func (z *Zone) SpawnPoint() (Vector3, Quaternion) {
	z.spawnMu.RLock()
	defer z.spawnMu.RUnlock()
	rot := z.spawnRotation
	if rot == (Quaternion{}) {
		rot = IdentityRotation
	}
	return z.spawnPoint, rot
}
