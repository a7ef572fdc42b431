package persist

import (
	"context"

	"github.com/lugo/server/internal/world"
)

// ItemRepo stores inventory slots.
type ItemRepo struct {
	db *DB
}

func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// LoadSlots returns every occupied slot of a character, by slot order.
func (r *ItemRepo) LoadSlots(ctx context.Context, charID int64) ([]world.InventorySlot, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT slot, lot, count FROM inventory_slots
		 WHERE character_id = $1 ORDER BY slot`, charID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []world.InventorySlot
	for rows.Next() {
		var (
			slot, lot, count int32
		)
		if err := rows.Scan(&slot, &lot, &count); err != nil {
			return nil, err
		}
		result = append(result, world.InventorySlot{Slot: uint32(slot), Lot: world.Lot(lot), Count: count})
	}
	return result, rows.Err()
}

// SetSlot writes one slot. A zero count empties it.
func (r *ItemRepo) SetSlot(ctx context.Context, charID int64, slot world.InventorySlot) error {
	if slot.Count <= 0 {
		_, err := r.db.Pool.Exec(ctx,
			`DELETE FROM inventory_slots WHERE character_id = $1 AND slot = $2`,
			charID, int32(slot.Slot),
		)
		return err
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO inventory_slots (character_id, slot, lot, count)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (character_id, slot) DO UPDATE SET lot = EXCLUDED.lot, count = EXCLUDED.count`,
		charID, int32(slot.Slot), int32(slot.Lot), slot.Count,
	)
	return err
}
