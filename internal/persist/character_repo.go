package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/world"
)

// CharacterRow is one row of the characters table.
type CharacterRow struct {
	ID             int64
	AccountID      int64
	Name           string
	GMLevel        int16
	ZoneID         int32
	PosX           float32
	PosY           float32
	PosZ           float32
	RotX           float32
	RotY           float32
	RotZ           float32
	RotW           float32
	Health         int32
	MaxHealth      int32
	Armor          int32
	MaxArmor       int32
	Imagination    int32
	MaxImagination int32
	Currency       int64
}

// NewCharacterRow returns a fresh character with starting stats. A zero
// position places it at the zone spawn point on first login.
func NewCharacterRow(id, account int64, name string, zone uint16) *CharacterRow {
	return &CharacterRow{
		ID:             id,
		AccountID:      account,
		Name:           name,
		ZoneID:         int32(zone),
		RotW:           1,
		Health:         4,
		MaxHealth:      4,
		Imagination:    6,
		MaxImagination: 6,
	}
}

// Record converts the row into what a zone needs to load the character.
func (c *CharacterRow) Record() *world.CharacterRecord {
	return &world.CharacterRecord{
		ID:        ecs.ObjectID(c.ID),
		AccountID: c.AccountID,
		Name:      c.Name,
		GMLevel:   uint8(c.GMLevel),
		ZoneID:    uint16(c.ZoneID),
		Position:  world.Vector3{X: c.PosX, Y: c.PosY, Z: c.PosZ},
		Rotation:  world.Quaternion{X: c.RotX, Y: c.RotY, Z: c.RotZ, W: c.RotW},
		Stats: world.StatsRecord{
			Health: c.Health, MaxHealth: c.MaxHealth,
			Armor: c.Armor, MaxArmor: c.MaxArmor,
			Imagination: c.Imagination, MaxImagination: c.MaxImagination,
		},
		Currency: c.Currency,
	}
}

// CharacterRepo is the PostgreSQL player store.
type CharacterRepo struct {
	db    *DB
	items *ItemRepo
}

var _ world.PlayerStore = (*CharacterRepo)(nil)

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db, items: NewItemRepo(db)}
}

func (r *CharacterRepo) Load(ctx context.Context, id int64) (*CharacterRow, error) {
	var c CharacterRow
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, account_id, name, gm_level, zone_id,
		        pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, rot_w,
		        health, max_health, armor, max_armor, imagination, max_imagination,
		        currency
		 FROM characters WHERE id = $1`, id,
	).Scan(
		&c.ID, &c.AccountID, &c.Name, &c.GMLevel, &c.ZoneID,
		&c.PosX, &c.PosY, &c.PosZ, &c.RotX, &c.RotY, &c.RotZ, &c.RotW,
		&c.Health, &c.MaxHealth, &c.Armor, &c.MaxArmor, &c.Imagination, &c.MaxImagination,
		&c.Currency,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, world.ErrCharacterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CharacterRepo) Create(ctx context.Context, c *CharacterRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO characters (
			id, account_id, name, gm_level, zone_id,
			pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, rot_w,
			health, max_health, armor, max_armor, imagination, max_imagination,
			currency
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		c.ID, c.AccountID, c.Name, c.GMLevel, c.ZoneID,
		c.PosX, c.PosY, c.PosZ, c.RotX, c.RotY, c.RotZ, c.RotW,
		c.Health, c.MaxHealth, c.Armor, c.MaxArmor, c.Imagination, c.MaxImagination,
		c.Currency,
	)
	return err
}

// LoadCharacter reads the character and its inventory.
func (r *CharacterRepo) LoadCharacter(ctx context.Context, id ecs.ObjectID) (*world.CharacterRecord, error) {
	row, err := r.Load(ctx, int64(id))
	if err != nil {
		return nil, fmt.Errorf("load character %d: %w", id, err)
	}
	rec := row.Record()
	rec.Inventory, err = r.items.LoadSlots(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("load inventory %d: %w", id, err)
	}
	return rec, nil
}

func (r *CharacterRepo) SetStats(ctx context.Context, id ecs.ObjectID, s world.StatsRecord) error {
	return r.update(ctx, id,
		`UPDATE characters SET
			health = $1, max_health = $2, armor = $3, max_armor = $4,
			imagination = $5, max_imagination = $6, updated_at = NOW()
		 WHERE id = $7`,
		s.Health, s.MaxHealth, s.Armor, s.MaxArmor, s.Imagination, s.MaxImagination, int64(id))
}

func (r *CharacterRepo) SetCurrency(ctx context.Context, id ecs.ObjectID, currency int64) error {
	return r.update(ctx, id,
		`UPDATE characters SET currency = $1, updated_at = NOW() WHERE id = $2`,
		currency, int64(id))
}

// SetPosition saves where the character stands and in which zone.
func (r *CharacterRepo) SetPosition(ctx context.Context, id ecs.ObjectID, zone uint16, pos world.Vector3, rot world.Quaternion) error {
	return r.update(ctx, id,
		`UPDATE characters SET zone_id = $1,
			pos_x = $2, pos_y = $3, pos_z = $4,
			rot_x = $5, rot_y = $6, rot_z = $7, rot_w = $8, updated_at = NOW()
		 WHERE id = $9`,
		int32(zone), pos.X, pos.Y, pos.Z, rot.X, rot.Y, rot.Z, rot.W, int64(id))
}

func (r *CharacterRepo) SetInventorySlot(ctx context.Context, id ecs.ObjectID, slot world.InventorySlot) error {
	return r.items.SetSlot(ctx, int64(id), slot)
}

func (r *CharacterRepo) update(ctx context.Context, id ecs.ObjectID, sql string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("character %d: %w", id, world.ErrCharacterNotFound)
	}
	return nil
}
