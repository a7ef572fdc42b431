package handler

import (
	"errors"

	"github.com/lugo/server/internal/behavior"
	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

func HandleStartSkill(_ *net.Session, p *world.Player, r *packet.Reader, deps *Deps) {
	m := world.ReadStartSkill(r)
	if r.Err() != nil {
		return
	}
	skills, ok := world.GetComponent[*behavior.SkillComponent](p.GameObject)
	if !ok {
		return
	}
	logRefusal(deps, p, "start skill", skills.StartSkill(m))
}

func HandleSyncSkill(_ *net.Session, p *world.Player, r *packet.Reader, deps *Deps) {
	m := world.ReadSyncSkill(r)
	if r.Err() != nil {
		return
	}
	skills, ok := world.GetComponent[*behavior.SkillComponent](p.GameObject)
	if !ok {
		return
	}
	logRefusal(deps, p, "sync skill", skills.SyncSkill(m))
}

func HandleProjectileImpact(_ *net.Session, p *world.Player, r *packet.Reader, deps *Deps) {
	m := world.ReadProjectileImpact(r)
	if r.Err() != nil {
		return
	}
	skills, ok := world.GetComponent[*behavior.SkillComponent](p.GameObject)
	if !ok {
		return
	}
	logRefusal(deps, p, "projectile impact", skills.ProjectileImpact(m))
}

// logRefusal logs a refused client claim. Bad claims are a warning; stale
// handles and dead casters are routine.
func logRefusal(deps *Deps, p *world.Player, what string, err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{zap.Int64("object", int64(p.ID())), zap.Error(err)}
	if errors.Is(err, behavior.ErrInvalidClaim) {
		deps.Log.Warn(what+" refused", fields...)
		return
	}
	deps.Log.Debug(what+" refused", fields...)
}
