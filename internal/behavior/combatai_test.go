package behavior

import (
	"testing"
	"time"

	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func combatAIOf(t *testing.T, obj *world.GameObject) *BaseCombatAI {
	t.Helper()
	a, ok := world.GetComponent[*BaseCombatAI](obj)
	require.True(t, ok)
	return a
}

func countMessages(ids []uint16, id uint16) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

func TestCombatAIReadsRow(t *testing.T) {
	tz := newTestZone(t)
	ai := combatAIOf(t, tz.spawn(lotCaster, 0))
	assert.Equal(t, float32(30), ai.AggroRadius())
	assert.Equal(t, time.Second, ai.round)
	assert.Equal(t, CombatIdle, ai.State())
}

func TestCombatAIAttacksNearestEnemy(t *testing.T) {
	tz := newTestZone(t)
	_, conn := tz.addPlayer(t, 1001, 40)
	npc := tz.spawn(lotCaster, 0)
	far := tz.spawn(lotEnemy, 20)
	near := tz.spawn(lotEnemy, 6)
	tz.spawn(lotFriend, 1)
	ai := combatAIOf(t, npc)

	tz.advance(100 * time.Millisecond)
	assert.Equal(t, CombatAggro, ai.State())
	assert.Equal(t, near, ai.Target())
	assert.Equal(t, int32(4), health(t, near))
	assert.Equal(t, int32(5), health(t, far))
	assert.Equal(t, 1, countMessages(conn.gameMessages(), world.MsgEchoStartSkill))

	// Waiting out the combat round.
	tz.advance(100 * time.Millisecond)
	assert.Equal(t, int32(4), health(t, near))

	// Round over, skill still cooling down.
	tz.advance(time.Second)
	assert.Equal(t, int32(4), health(t, near))

	tz.advance(time.Second)
	assert.Equal(t, int32(3), health(t, near))
	assert.Equal(t, 2, countMessages(conn.gameMessages(), world.MsgEchoStartSkill))
}

func TestCombatAIIdleWithoutViewers(t *testing.T) {
	tz := newTestZone(t)
	tz.spawn(lotCaster, 0)
	target := tz.spawn(lotEnemy, 5)

	tz.advance(100 * time.Millisecond)
	assert.Equal(t, int32(5), health(t, target))
}

func TestCombatAIGoesIdleWhenTargetsLeave(t *testing.T) {
	tz := newTestZone(t)
	tz.addPlayer(t, 1001, 40)
	npc := tz.spawn(lotCaster, 0)
	target := tz.spawn(lotEnemy, 5)
	ai := combatAIOf(t, npc)

	tz.advance(100 * time.Millisecond)
	require.Equal(t, CombatAggro, ai.State())

	target.Destroy()
	tz.advance(2 * time.Second)
	assert.Equal(t, CombatIdle, ai.State())
	assert.Nil(t, ai.Target())
}

func TestCombatAISerialization(t *testing.T) {
	tz := newTestZone(t)
	ai := combatAIOf(t, tz.spawn(lotCaster, 0))

	w := packet.NewWriter()
	ai.Construct(w)
	r := packet.NewReader(w.Bytes())
	require.True(t, r.ReadBit())
	assert.Equal(t, uint32(CombatIdle), r.ReadU32())
	assert.Zero(t, r.ReadI64())

	w = packet.NewWriter()
	ai.Serialize(w)
	assert.Equal(t, 1, w.BitLen())

	target := tz.spawn(lotEnemy, 5)
	ai.setState(CombatAggro, target)
	w = packet.NewWriter()
	ai.Serialize(w)
	r = packet.NewReader(w.Bytes())
	require.True(t, r.ReadBit())
	assert.Equal(t, uint32(CombatAggro), r.ReadU32())
	assert.Equal(t, int64(target.ID()), r.ReadI64())

	w = packet.NewWriter()
	ai.Serialize(w)
	assert.Equal(t, 1, w.BitLen())
}
