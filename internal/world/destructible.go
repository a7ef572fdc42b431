package world

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lugo/server/internal/core/event"
	"github.com/lugo/server/internal/net/packet"
	"go.uber.org/zap"
)

const (
	defaultRespawnTime = 10 * time.Second

	// Players lose a tenth of their currency on death, at most this much.
	maxDeathPenalty = 10000
)

// Smash describes how an object died.
type Smash struct {
	Killer    *GameObject
	LootOwner *Player
}

// Destructible lets an object be damaged, smashed and resurrected.
type Destructible struct {
	Base

	stats *Stats
	alive atomic.Bool

	mu          sync.Mutex
	respawnTime time.Duration
	respawn     *Timer

	OnSmashed   event.Event[Smash]
	OnResurrect event.Signal
}

func init() {
	RegisterComponent(ComponentDestructible, func() *Destructible {
		return &Destructible{respawnTime: defaultRespawnTime}
	}, Requires[*Stats](true))
}

func (d *Destructible) ComponentID() ComponentID { return ComponentDestructible }

func (d *Destructible) Start() {
	obj := d.GameObject()
	d.stats = AddComponent[*Stats](obj)
	d.alive.Store(true)
	if v, ok := obj.Settings().Float("respawn"); ok && v > 0 {
		d.respawnTime = time.Duration(v * float64(time.Second))
	}
	obj.SetLayer(obj.Layer().Add(LayerSmashable))

	event.Listen(&d.Listeners, &d.stats.OnDeath, func(killer *GameObject) {
		d.Smash(killer, lootOwnerOf(killer))
	})
}

func (d *Destructible) Destroy() {
	d.mu.Lock()
	t := d.respawn
	d.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}

func (d *Destructible) Stats() *Stats { return d.stats }

// Alive reports whether the object has not been smashed since its last
// resurrection.
func (d *Destructible) Alive() bool { return d.alive.Load() }

func (d *Destructible) RespawnTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.respawnTime
}

func lootOwnerOf(killer *GameObject) *Player {
	if killer == nil {
		return nil
	}
	if p, ok := killer.Player(); ok {
		return p
	}
	return nil
}

// Smash kills the object once. Later calls until Resurrect are no-ops and
// return false.
func (d *Destructible) Smash(killer *GameObject, owner *Player) bool {
	if !d.alive.CompareAndSwap(true, false) {
		return false
	}
	obj := d.GameObject()
	zone := obj.Zone()
	if d.stats.Health() > 0 {
		d.stats.SetHealth(0)
	}

	die := DieMessage{Object: obj.ID(), SpawnLoot: owner != nil}
	if killer != nil {
		die.Killer = killer.ID()
	}
	if owner != nil {
		die.LootOwner = owner.ID()
	}
	zone.BroadcastMessage(die)

	if p, ok := obj.Player(); ok {
		penalty := min(p.Currency()/10, maxDeathPenalty)
		if penalty > 0 {
			p.AddCurrency(-penalty)
		}
	} else {
		obj.SetLayer(obj.Layer().Add(LayerHidden))
		if owner != nil {
			matrix, currency := d.stats.LootIndices()
			lc := NewLootContainer(zone, matrix, currency, d.stats.Level())
			lc.Drop(obj, owner)
		}
		if obj.Spawner() == nil {
			d.mu.Lock()
			d.respawn = zone.Schedule(obj, d.respawnTime, d.Resurrect)
			d.mu.Unlock()
		}
	}

	obj.Log().Debug("smashed", zapLot(obj.Lot()), zap.Bool("loot", owner != nil))
	obj.logErr("smash listener", d.OnSmashed.Invoke(Smash{Killer: killer, LootOwner: owner}))
	return true
}

// Resurrect restores a smashed object to full stats.
func (d *Destructible) Resurrect() {
	obj := d.GameObject()
	if !obj.Alive() || !d.alive.CompareAndSwap(false, true) {
		return
	}
	d.mu.Lock()
	d.respawn = nil
	d.mu.Unlock()

	d.stats.SetHealth(d.stats.MaxHealth())
	d.stats.SetArmor(d.stats.MaxArmor())
	d.stats.SetImagination(d.stats.MaxImagination())
	if obj.Layer().Has(LayerHidden) {
		obj.SetLayer(obj.Layer().Remove(LayerHidden))
	}
	obj.Zone().BroadcastMessage(ResurrectMessage{Object: obj.ID()})
	obj.logErr("resurrect listener", event.Fire(&d.OnResurrect))
}

func (d *Destructible) Construct(w *packet.Writer) {
	w.WriteBit(false)
	w.WriteBit(false)
	d.stats.Construct(w)
}

func (d *Destructible) Serialize(w *packet.Writer) {
	d.stats.Serialize(w)
}
