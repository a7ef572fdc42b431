package behavior

import (
	"testing"
	"time"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skillOf(t *testing.T, obj *world.GameObject) *SkillComponent {
	t.Helper()
	c, ok := world.GetComponent[*SkillComponent](obj)
	require.True(t, ok)
	return c
}

func attackPayload(damage uint32) []byte {
	w := packet.NewWriter()
	attackBits(w, damage, true)
	return w.Bytes()
}

func TestStartSkillAppliesClaimAndEchoes(t *testing.T) {
	tz := newTestZone(t)
	a, connA := tz.addPlayer(t, 1001, 0)
	_, connB := tz.addPlayer(t, 1002, 50)
	target := tz.spawn(lotEnemy, 3)

	err := skillOf(t, a.GameObject).StartSkill(world.StartSkillMessage{
		Target:      target.ID(),
		SkillID:     1,
		SkillHandle: 7,
		Payload:     attackPayload(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(4), health(t, target))
	assert.Contains(t, connB.gameMessages(), world.MsgEchoStartSkill)
	assert.NotContains(t, connA.gameMessages(), world.MsgEchoStartSkill)
	assert.Zero(t, skillOf(t, a.GameObject).PendingCasts())
}

func TestStartSkillRefusals(t *testing.T) {
	tz := newTestZone(t)
	a, _ := tz.addPlayer(t, 1001, 0)
	_, connB := tz.addPlayer(t, 1002, 50)
	target := tz.spawn(lotEnemy, 3)
	skill := skillOf(t, a.GameObject)

	t.Run("unknown skill", func(t *testing.T) {
		err := skill.StartSkill(world.StartSkillMessage{SkillID: 99, SkillHandle: 1})
		assert.ErrorIs(t, err, ErrUnknownSkill)
	})

	t.Run("bad claim is not echoed", func(t *testing.T) {
		w := packet.NewWriter()
		w.WriteU32(9)
		err := skill.StartSkill(world.StartSkillMessage{SkillID: 2, SkillHandle: 2, Payload: w.Bytes()})
		assert.ErrorIs(t, err, ErrInvalidClaim)
		assert.NotContains(t, connB.gameMessages(), world.MsgEchoStartSkill)
	})

	t.Run("imagination cost", func(t *testing.T) {
		stats, ok := world.GetComponent[*world.Stats](a.GameObject)
		require.True(t, ok)
		for i := 0; i < 2; i++ {
			require.NoError(t, skill.StartSkill(world.StartSkillMessage{
				Target: target.ID(), SkillID: 5, SkillHandle: uint32(10 + i), Payload: attackPayload(1),
			}))
		}
		assert.Zero(t, stats.Imagination())
		err := skill.StartSkill(world.StartSkillMessage{
			Target: target.ID(), SkillID: 5, SkillHandle: 12, Payload: attackPayload(1),
		})
		assert.ErrorIs(t, err, ErrInvalidClaim)
		assert.Equal(t, int32(3), health(t, target))
	})

	t.Run("dead caster", func(t *testing.T) {
		stats, ok := world.GetComponent[*world.Stats](a.GameObject)
		require.True(t, ok)
		stats.SetHealth(0)
		err := skill.StartSkill(world.StartSkillMessage{
			Target: target.ID(), SkillID: 1, SkillHandle: 20, Payload: attackPayload(1),
		})
		assert.ErrorIs(t, err, ErrCasterDead)
		assert.ErrorIs(t, err, world.ErrNotAlive)
		assert.Equal(t, int32(3), health(t, target))
	})
}

func TestSyncSkillResumesPendingCast(t *testing.T) {
	tz := newTestZone(t)
	a, _ := tz.addPlayer(t, 1001, 0)
	_, connB := tz.addPlayer(t, 1002, 50)
	target := tz.spawn(lotEnemy, 3)
	skill := skillOf(t, a.GameObject)

	w := packet.NewWriter()
	w.WriteU32(4)
	require.NoError(t, skill.StartSkill(world.StartSkillMessage{
		Target: target.ID(), SkillID: 3, SkillHandle: 9, Payload: w.Bytes(),
	}))
	assert.Equal(t, 1, skill.PendingCasts())
	assert.Equal(t, int32(5), health(t, target))

	sync := world.SyncSkillMessage{Done: true, BehaviorHandle: 4, SkillHandle: 9, Payload: attackPayload(1)}
	require.NoError(t, skill.SyncSkill(sync))
	assert.Equal(t, int32(4), health(t, target))
	assert.Zero(t, skill.PendingCasts())
	assert.Contains(t, connB.gameMessages(), world.MsgEchoSyncSkill)

	assert.ErrorIs(t, skill.SyncSkill(sync), ErrUnknownHandle)
	assert.Equal(t, int32(4), health(t, target))
}

func TestProjectileImpactResolvesOnce(t *testing.T) {
	tz := newTestZone(t)
	a, _ := tz.addPlayer(t, 1001, 0)
	target := tz.spawn(lotEnemy, 8)
	skill := skillOf(t, a.GameObject)

	const projectile = ecs.ObjectID(777)
	w := packet.NewWriter()
	w.WriteI64(int64(target.ID()))
	w.WriteI64(int64(projectile))
	require.NoError(t, skill.StartSkill(world.StartSkillMessage{
		Target: target.ID(), SkillID: 4, SkillHandle: 3, Payload: w.Bytes(),
	}))
	assert.Equal(t, 1, skill.PendingCasts())

	impact := world.ProjectileImpactMessage{Projectile: projectile, Target: target.ID(), Payload: attackPayload(1)}
	require.NoError(t, skill.ProjectileImpact(impact))
	assert.Equal(t, int32(4), health(t, target))
	assert.Zero(t, skill.PendingCasts())
	assert.ErrorIs(t, skill.ProjectileImpact(impact), ErrUnknownHandle)
}

func TestServerCalculate(t *testing.T) {
	tz := newTestZone(t)
	_, conn := tz.addPlayer(t, 1001, 40)
	npc := tz.spawn(lotCaster, 0)
	near := tz.spawn(lotEnemy, 3)
	far := tz.spawn(lotEnemy, 25)
	skill := skillOf(t, npc)

	require.Len(t, skill.Skills(), 1)
	assert.Equal(t, uint32(1), skill.Skills()[0].SkillID)

	assert.False(t, skill.Calculate(1, far), "out of range")
	assert.NotContains(t, conn.gameMessages(), world.MsgEchoStartSkill)

	assert.True(t, skill.Calculate(1, near))
	assert.Equal(t, int32(4), health(t, near))
	assert.Contains(t, conn.gameMessages(), world.MsgEchoStartSkill)

	assert.False(t, skill.Calculate(99, near))
}

func TestServerCalculateWithoutTargetsSendsNothing(t *testing.T) {
	tz := newTestZone(t)
	_, conn := tz.addPlayer(t, 1001, 40)
	npc := tz.spawn(lotCaster, 0)
	tz.spawn(lotFriend, 2)

	assert.False(t, skillOf(t, npc).Calculate(2, nil))
	assert.NotContains(t, conn.gameMessages(), world.MsgEchoStartSkill)
}

func TestDestroyDiscardsPendingCasts(t *testing.T) {
	tz := newTestZone(t)
	_, conn := tz.addPlayer(t, 1001, 40)
	npc := tz.spawn(lotCaster, 0)
	target := tz.spawn(lotEnemy, 3)

	require.True(t, skillOf(t, npc).Calculate(3, target))
	npc.Destroy()
	tz.advance(2 * time.Second)
	assert.Equal(t, int32(5), health(t, target))
	assert.NotContains(t, conn.gameMessages(), world.MsgEchoSyncSkill)
}

func TestStartSkillRefusesFriendlyTarget(t *testing.T) {
	tz := newTestZone(t)
	a, _ := tz.addPlayer(t, 1001, 0)
	_, connB := tz.addPlayer(t, 1002, 50)
	friend := tz.spawn(lotFriend, 3)

	err := skillOf(t, a.GameObject).StartSkill(world.StartSkillMessage{
		Target: friend.ID(), SkillID: 1, SkillHandle: 1, Payload: attackPayload(1),
	})
	assert.ErrorIs(t, err, ErrInvalidClaim)
	assert.Equal(t, int32(5), health(t, friend))
	assert.NotContains(t, connB.gameMessages(), world.MsgEchoStartSkill)
}

func TestStartSkillChargesOnlyAcceptedClaims(t *testing.T) {
	tz := newTestZone(t)
	a, _ := tz.addPlayer(t, 1001, 0)
	target := tz.spawn(lotEnemy, 3)
	skill := skillOf(t, a.GameObject)
	stats, ok := world.GetComponent[*world.Stats](a.GameObject)
	require.True(t, ok)

	claim := func(index uint32) []byte {
		w := packet.NewWriter()
		attackBits(w, 1, true)
		w.WriteU32(index)
		attackBits(w, 1, true)
		return w.Bytes()
	}

	err := skill.StartSkill(world.StartSkillMessage{Target: target.ID(), SkillID: 6, SkillHandle: 1, Payload: claim(3)})
	assert.ErrorIs(t, err, ErrInvalidClaim)
	assert.Equal(t, int32(5), health(t, target))
	assert.Equal(t, int32(6), stats.Imagination())

	require.NoError(t, skill.StartSkill(world.StartSkillMessage{Target: target.ID(), SkillID: 6, SkillHandle: 2, Payload: claim(1)}))
	assert.Equal(t, int32(3), health(t, target))
	assert.Equal(t, int32(3), stats.Imagination())
}
