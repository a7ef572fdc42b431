package world

import (
	"sync"

	"github.com/lugo/server/internal/core/event"
	"github.com/lugo/server/internal/net/packet"
)

// StatChange is published when a stat moves.
type StatChange struct {
	Value int32
	Delta int32
}

// Stats holds health, armor, imagination and faction membership. It is
// written on the wire by Destructible and Collectible.
type Stats struct {
	Base

	mu             sync.Mutex
	health         int32
	maxHealth      int32
	armor          int32
	maxArmor       int32
	imagination    int32
	maxImagination int32
	factions       []int32
	enemies        []int32
	smashable      bool
	level          int32
	lootMatrix     int32
	currencyIndex  int32
	lastDamage     *GameObject

	OnHealthChanged      event.Event[StatChange]
	OnArmorChanged       event.Event[StatChange]
	OnImaginationChanged event.Event[StatChange]
	OnDeath              event.Event[*GameObject]
}

func init() {
	RegisterComponent(ComponentNone, func() *Stats { return &Stats{} })
}

// Start loads base stats and factions from the object's destructible row.
// Collectibles index the same table through their own component row.
func (s *Stats) Start() {
	obj := s.GameObject()
	id, ok := obj.ComponentRowID(ComponentDestructible)
	if !ok {
		id, ok = obj.ComponentRowID(ComponentCollectible)
	}
	if !ok {
		return
	}
	row, ok := obj.zone.data.Destructible(id)
	if !ok {
		obj.log.Debug("no destructible row", zapLot(obj.lot))
		return
	}
	s.mu.Lock()
	s.health, s.maxHealth = row.Life, row.Life
	s.armor, s.maxArmor = row.Armor, row.Armor
	s.imagination, s.maxImagination = row.Imagination, row.Imagination
	s.smashable = row.IsSmashable
	s.level = row.Level
	s.lootMatrix = row.LootMatrixIndex
	s.currencyIndex = row.CurrencyIndex
	s.mu.Unlock()
	s.SetFactions([]int32{row.Faction})
}

// Load applies persisted character stats without publishing changes.
func (s *Stats) Load(r StatsRecord) {
	s.mu.Lock()
	s.health, s.maxHealth = r.Health, r.MaxHealth
	s.armor, s.maxArmor = r.Armor, r.MaxArmor
	s.imagination, s.maxImagination = r.Imagination, r.MaxImagination
	s.smashable = true
	s.mu.Unlock()
}

// Record snapshots the persisted subset.
func (s *Stats) Record() StatsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsRecord{
		Health: s.health, MaxHealth: s.maxHealth,
		Armor: s.armor, MaxArmor: s.maxArmor,
		Imagination: s.imagination, MaxImagination: s.maxImagination,
	}
}

func (s *Stats) Health() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

func (s *Stats) MaxHealth() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxHealth
}

func (s *Stats) Armor() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armor
}

func (s *Stats) MaxArmor() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxArmor
}

func (s *Stats) Imagination() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imagination
}

func (s *Stats) MaxImagination() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxImagination
}

func (s *Stats) Level() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *Stats) Smashable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.smashable
}

// Alive reports whether the owner has health left.
func (s *Stats) Alive() bool { return s.Health() > 0 }

// LootIndices returns the loot matrix and currency table of the owner.
func (s *Stats) LootIndices() (matrix, currency int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lootMatrix, s.currencyIndex
}

// LatestDamageSource is the last object that damaged the owner.
func (s *Stats) LatestDamageSource() *GameObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDamage
}

func (s *Stats) Factions() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int32(nil), s.factions...)
}

func (s *Stats) Enemies() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int32(nil), s.enemies...)
}

// SetFactions replaces the owner's factions and derives its enemies.
func (s *Stats) SetFactions(factions []int32) {
	var enemies []int32
	seen := make(map[int32]bool)
	for _, f := range factions {
		row, ok := s.Zone().data.Faction(f)
		if !ok {
			continue
		}
		for _, e := range row.Enemies {
			if !seen[e] {
				seen[e] = true
				enemies = append(enemies, e)
			}
		}
	}
	s.mu.Lock()
	s.factions = append([]int32(nil), factions...)
	s.enemies = enemies
	s.mu.Unlock()
}

// IsEnemy reports whether other belongs to a faction the owner opposes.
func (s *Stats) IsEnemy(other *Stats) bool {
	enemies := s.Enemies()
	for _, f := range other.Factions() {
		for _, e := range enemies {
			if f == e {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetHealth clamps v to [0, max], publishes the change and serializes the
// owner. Reaching zero from above publishes OnDeath once.
func (s *Stats) SetHealth(v int32) {
	s.mu.Lock()
	old := s.health
	s.health = clamp(v, 0, s.maxHealth)
	cur := s.health
	source := s.lastDamage
	s.mu.Unlock()
	if cur == old {
		return
	}
	s.changed(&s.OnHealthChanged, cur, cur-old)
	if old > 0 && cur == 0 {
		s.GameObject().logErr("death listener", s.OnDeath.Invoke(source))
	}
}

func (s *Stats) SetArmor(v int32) {
	s.mu.Lock()
	old := s.armor
	s.armor = clamp(v, 0, s.maxArmor)
	cur := s.armor
	s.mu.Unlock()
	if cur != old {
		s.changed(&s.OnArmorChanged, cur, cur-old)
	}
}

func (s *Stats) SetImagination(v int32) {
	s.mu.Lock()
	old := s.imagination
	s.imagination = clamp(v, 0, s.maxImagination)
	cur := s.imagination
	s.mu.Unlock()
	if cur != old {
		s.changed(&s.OnImaginationChanged, cur, cur-old)
	}
}

// SetMaxHealth changes the maximum, lowering health when it now exceeds it.
func (s *Stats) SetMaxHealth(v int32) {
	s.mu.Lock()
	s.maxHealth = max(v, 0)
	over := s.health > s.maxHealth
	s.mu.Unlock()
	if over {
		s.SetHealth(v)
		return
	}
	s.markDirty()
	s.GameObject().Serialize()
}

func (s *Stats) SetMaxArmor(v int32) {
	s.mu.Lock()
	s.maxArmor = max(v, 0)
	over := s.armor > s.maxArmor
	s.mu.Unlock()
	if over {
		s.SetArmor(v)
		return
	}
	s.markDirty()
	s.GameObject().Serialize()
}

func (s *Stats) SetMaxImagination(v int32) {
	s.mu.Lock()
	s.maxImagination = max(v, 0)
	over := s.imagination > s.maxImagination
	s.mu.Unlock()
	if over {
		s.SetImagination(v)
		return
	}
	s.markDirty()
	s.GameObject().Serialize()
}

func (s *Stats) changed(e *event.Event[StatChange], value, delta int32) {
	s.markDirty()
	s.GameObject().logErr("stat listener", e.Invoke(StatChange{Value: value, Delta: delta}))
	s.GameObject().Serialize()
}

func (s *Stats) markDirty() {
	if p, ok := s.GameObject().Player(); ok {
		p.markDirty(DirtyStats)
	}
}

// Damage applies amount from source, armor first. Dead owners take no
// damage.
func (s *Stats) Damage(amount int32, source *GameObject) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	if s.health == 0 {
		s.mu.Unlock()
		return
	}
	s.lastDamage = source
	armor, health := s.armor, s.health
	s.mu.Unlock()

	absorbed := min(armor, amount)
	if absorbed > 0 {
		s.SetArmor(armor - absorbed)
	}
	if rest := amount - absorbed; rest > 0 {
		s.SetHealth(health - rest)
	}
}

// Heal restores amount, filling armor before health.
func (s *Stats) Heal(amount int32) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	armor, maxArmor, health := s.armor, s.maxArmor, s.health
	s.mu.Unlock()

	fill := min(maxArmor-armor, amount)
	if fill > 0 {
		s.SetArmor(armor + fill)
	}
	if rest := amount - max(fill, 0); rest > 0 {
		s.SetHealth(health + rest)
	}
}

// Construct writes the full stats block.
func (s *Stats) Construct(w *packet.Writer) {
	w.WriteBit(false) // no immunity block
	s.write(w, true)
}

// Serialize writes the same stats block without construct-only fields.
func (s *Stats) Serialize(w *packet.Writer) {
	s.write(w, false)
}

func (s *Stats) write(w *packet.Writer, construct bool) {
	s.mu.Lock()
	health, maxHealth := s.health, s.maxHealth
	armor, maxArmor := s.armor, s.maxArmor
	imag, maxImag := s.imagination, s.maxImagination
	factions := s.factions
	smashable := s.smashable
	s.mu.Unlock()

	w.WriteBit(true)
	w.WriteU32(uint32(health))
	w.WriteF32(float32(maxHealth))
	w.WriteU32(uint32(armor))
	w.WriteF32(float32(maxArmor))
	w.WriteU32(uint32(imag))
	w.WriteF32(float32(maxImag))
	w.WriteU32(0) // damage absorption
	w.WriteBit(false)
	w.WriteBit(false)
	w.WriteBit(false)
	w.WriteF32(float32(maxHealth))
	w.WriteF32(float32(maxArmor))
	w.WriteF32(float32(maxImag))
	w.WriteU32(uint32(len(factions)))
	for _, f := range factions {
		w.WriteI32(f)
	}
	w.WriteBit(smashable)
	if construct {
		w.WriteBit(false) // dying
		w.WriteBit(false) // smashed
		if smashable {
			w.WriteBit(false)
			w.WriteBit(false)
		}
	}
	w.WriteBit(false)
}
