package world

import (
	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/data"
	"go.uber.org/zap"
)

// LootContainer rolls the loot and currency of one smash.
type LootContainer struct {
	zone          *Zone
	matrix        int32
	currencyIndex int32
	level         int32
}

func NewLootContainer(z *Zone, matrix, currencyIndex, level int32) *LootContainer {
	return &LootContainer{zone: z, matrix: matrix, currencyIndex: currencyIndex, level: level}
}

// GenerateLoot rolls every row of the loot matrix and returns the dropped
// templates.
func (lc *LootContainer) GenerateLoot() []Lot {
	var out []Lot
	for _, row := range lc.zone.data.LootMatrix(lc.matrix) {
		if lc.zone.RandFloat() >= row.Percent {
			continue
		}
		table := lc.zone.data.LootTable(row.LootTableIndex)
		if len(table) == 0 {
			continue
		}
		count := lc.zone.RandRange(row.MinToDrop, row.MaxToDrop)
		for i := int32(0); i < count; i++ {
			pick := table[lc.zone.RandRange(0, int32(len(table)-1))]
			out = append(out, Lot(pick.Lot))
		}
	}
	return out
}

// GenerateCurrency rolls the currency drop from the row with the highest
// level requirement the smashed object meets.
func (lc *LootContainer) GenerateCurrency() int32 {
	var best *data.CurrencyRow
	rows := lc.zone.data.CurrencyTable(lc.currencyIndex)
	for i := range rows {
		r := &rows[i]
		if r.NpcMinLevel > lc.level {
			continue
		}
		if best == nil || r.NpcMinLevel > best.NpcMinLevel {
			best = r
		}
	}
	if best == nil {
		return 0
	}
	return lc.zone.RandRange(best.MinValue, best.MaxValue)
}

// Drop rolls loot for owner and spawns it at source. Each item becomes a
// hidden loot object the owner may pick up.
func (lc *LootContainer) Drop(source *GameObject, owner *Player) []*GameObject {
	pos := source.Position()
	var drops []*GameObject
	for _, lot := range lc.GenerateLoot() {
		obj := lc.zone.Instantiate(ObjectSpec{
			Lot:      lot,
			Position: pos,
			Layer:    LayerHidden,
			Bare:     true,
		})
		AddComponent[*Loot](obj).owner = owner
		obj.Start()
		drops = append(drops, obj)
		owner.Message(DropClientLootMessage{
			Owner:         owner.ID(),
			Lot:           lot,
			LootID:        obj.ID(),
			Source:        source.ID(),
			SpawnPosition: pos,
			FinalPosition: pos,
		})
	}
	if coins := lc.GenerateCurrency(); coins > 0 {
		owner.EntitleCurrency(int64(coins))
		owner.Message(DropClientLootMessage{
			Owner:         owner.ID(),
			Source:        source.ID(),
			Currency:      coins,
			SpawnPosition: pos,
			FinalPosition: pos,
		})
	}
	return drops
}

// Loot marks a dropped item object and its owner.
type Loot struct {
	Base
	owner *Player
}

func init() {
	RegisterComponent(ComponentNone, func() *Loot { return &Loot{} })
}

func (l *Loot) Owner() *Player { return l.owner }

// PickupItem moves a loot object owned by p into p's inventory. Unknown
// loot and loot owned by someone else is refused.
func (p *Player) PickupItem(lootID ecs.ObjectID) bool {
	z := p.Zone()
	obj, ok := z.Object(lootID)
	if !ok {
		z.log.Debug("pickup of unknown loot", zap.Int64("loot", int64(lootID)))
		return false
	}
	loot, ok := GetComponent[*Loot](obj)
	if !ok || loot.owner != p {
		z.log.Warn("pickup refused", zap.Int64("loot", int64(lootID)), zap.Int64("player", int64(p.ID())))
		return false
	}
	lot := obj.Lot()
	obj.Destroy()
	if inv, ok := GetComponent[*Inventory](p.GameObject); ok {
		inv.AddItem(lot, 1)
	}
	return true
}

// PickupCurrency claims dropped currency. Claims beyond what p was
// entitled to are refused.
func (p *Player) PickupCurrency(amount uint32) bool {
	if !p.ClaimCurrency(int64(amount)) {
		p.Zone().log.Warn("currency claim refused",
			zap.Int64("player", int64(p.ID())),
			zap.Uint32("amount", amount),
			zap.Int64("entitled", p.EntitledCurrency()))
		return false
	}
	return true
}
