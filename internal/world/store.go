package world

import (
	"context"
	"errors"

	"github.com/lugo/server/internal/core/ecs"
)

// ErrCharacterNotFound is returned by a PlayerStore for unknown characters.
var ErrCharacterNotFound = errors.New("character not found")

// StatsRecord is the persisted subset of a character's stats.
type StatsRecord struct {
	Health         int32
	MaxHealth      int32
	Armor          int32
	MaxArmor       int32
	Imagination    int32
	MaxImagination int32
}

// InventorySlot is one persisted inventory slot. A zero Count empties it.
type InventorySlot struct {
	Slot  uint32
	Lot   Lot
	Count int32
}

// CharacterRecord is everything needed to bring a character into a zone.
type CharacterRecord struct {
	ID        ecs.ObjectID
	AccountID int64
	Name      string
	GMLevel   uint8
	ZoneID    uint16
	Position  Vector3
	Rotation  Quaternion
	Stats     StatsRecord
	Currency  int64
	Inventory []InventorySlot
}

// PlayerStore is the persistent state behind players. Every call is a
// single short write or read.
type PlayerStore interface {
	LoadCharacter(ctx context.Context, id ecs.ObjectID) (*CharacterRecord, error)
	SetStats(ctx context.Context, id ecs.ObjectID, stats StatsRecord) error
	SetCurrency(ctx context.Context, id ecs.ObjectID, currency int64) error
	SetPosition(ctx context.Context, id ecs.ObjectID, zone uint16, pos Vector3, rot Quaternion) error
	SetInventorySlot(ctx context.Context, id ecs.ObjectID, slot InventorySlot) error
}
