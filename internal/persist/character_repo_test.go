package persist

import (
	"testing"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/world"
	"github.com/stretchr/testify/assert"
)

func TestCharacterRowRecord(t *testing.T) {
	row := CharacterRow{
		ID: 1152921504606846977, AccountID: 7, Name: "Dusty", GMLevel: 2, ZoneID: 1100,
		PosX: 1, PosY: 2, PosZ: 3, RotW: 1,
		Health: 4, MaxHealth: 6, Armor: 1, MaxArmor: 2, Imagination: 3, MaxImagination: 9,
		Currency: 250,
	}
	rec := row.Record()
	assert.Equal(t, ecs.ObjectID(1152921504606846977), rec.ID)
	assert.Equal(t, uint16(1100), rec.ZoneID)
	assert.Equal(t, uint8(2), rec.GMLevel)
	assert.Equal(t, world.Vector3{X: 1, Y: 2, Z: 3}, rec.Position)
	assert.Equal(t, world.IdentityRotation, rec.Rotation)
	assert.Equal(t, world.StatsRecord{Health: 4, MaxHealth: 6, Armor: 1, MaxArmor: 2, Imagination: 3, MaxImagination: 9}, rec.Stats)
	assert.Equal(t, int64(250), rec.Currency)
	assert.Empty(t, rec.Inventory)
}

func TestNewCharacterRowStartsAtSpawn(t *testing.T) {
	rec := NewCharacterRow(42, 7, "Fresh", 1000).Record()
	assert.Equal(t, world.Vector3{}, rec.Position)
	assert.Equal(t, world.IdentityRotation, rec.Rotation)
	assert.Equal(t, int32(4), rec.Stats.Health)
	assert.Equal(t, rec.Stats.MaxImagination, rec.Stats.Imagination)
	assert.Equal(t, uint16(1000), rec.ZoneID)
}
