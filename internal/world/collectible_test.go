package world

import (
	"testing"

	"github.com/lugo/server/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectingHidesOnlyForCollector(t *testing.T) {
	z, store := newTestZone(t)
	a, connA := addPlayer(t, z, store, 100, Vector3{})
	b, _ := addPlayer(t, z, store, 101, Vector3{})

	settings := NewSettings()
	settings.Set("collectible_id", LDFValue{Type: LDFInt32, V: int32(3)})
	chest := z.Instantiate(ObjectSpec{Lot: 7000, Position: Vector3{X: 1}, Settings: settings})
	chest.Start()
	c, ok := GetComponent[*Collectible](chest)
	require.True(t, ok)
	assert.Equal(t, uint16(3), c.CollectibleID())
	assert.Equal(t, uint32(1000)<<8|3, c.Flag())

	var collected int
	c.OnCollected.Add(func(*Player) { collected++ })
	connA.Reset()
	require.NoError(t, chest.Interact(a))
	require.NoError(t, chest.Interact(a))
	assert.Equal(t, 1, collected)

	assert.Equal(t, packet.IDReplicaDestruction, lastFrame(t, connA).kind)
	_, ok = a.Perspective().TryGetNetworkID(chest)
	assert.False(t, ok)
	_, ok = b.Perspective().TryGetNetworkID(chest)
	assert.True(t, ok)

	z.RefreshView(a)
	_, ok = a.Perspective().TryGetNetworkID(chest)
	assert.False(t, ok, "stays hidden")

	chest.Destroy()
	assert.ErrorIs(t, chest.Interact(a), ErrNotAlive)
}

func TestCollectibleSerializeWritesStats(t *testing.T) {
	z, _ := newTestZone(t)
	chest := z.Instantiate(ObjectSpec{Lot: 7000})
	chest.Start()
	c, _ := GetComponent[*Collectible](chest)

	w := packet.NewWriter()
	c.Serialize(w)
	r := packet.NewReader(w.Bytes())
	require.True(t, r.ReadBit())
	assert.Equal(t, uint32(1), r.ReadU32(), "health")
}
