package scripting

import (
	"github.com/lugo/server/internal/core/event"
	"github.com/lugo/server/internal/world"
	lua "github.com/yuin/gopher-lua"
)

// Attach binds the engine to z. Objects registered after Attach whose
// Script component names a registered script get its hooks:
//
//	on_start(obj)
//	on_hit(obj, health, delta)
//	on_smash(obj, killer_id)
//
// Zone-wide hooks are the globals on_player_load(player) and
// on_chat(player, channel, text).
func (e *Engine) Attach(z *world.Zone) {
	e.zone = z
	z.OnObject.Add(e.bindObject)
	z.OnPlayerLoad.Add(func(p *world.Player) {
		e.call("on_player_load", e.vm.GetGlobal("on_player_load"), e.objectTable(p.GameObject))
	})
	z.OnChatMessage.Add(func(m world.ChatMessage) {
		e.call("on_chat", e.vm.GetGlobal("on_chat"),
			e.objectTable(m.Player.GameObject), lua.LNumber(m.Channel), lua.LString(m.Text))
	})
}

// bindObject waits for the object's start, when its script name is known.
func (e *Engine) bindObject(obj *world.GameObject) {
	if _, ok := world.GetComponent[*world.Script](obj); !ok {
		return
	}
	event.ListenSignal(&obj.Listeners, &obj.OnStart, func() { e.startObject(obj) })
}

func (e *Engine) startObject(obj *world.GameObject) {
	sc, ok := world.GetComponent[*world.Script](obj)
	if !ok {
		return
	}
	handlers, ok := e.scripts[sc.Name()]
	if !ok {
		return
	}
	self := e.objectTable(obj)
	e.call("on_start", handlers.RawGetString("on_start"), self)

	if stats, ok := world.GetComponent[*world.Stats](obj); ok {
		if fn := handlers.RawGetString("on_hit"); fn != lua.LNil {
			event.Listen(&obj.Listeners, &stats.OnHealthChanged, func(c world.StatChange) {
				e.call("on_hit", fn, self, lua.LNumber(c.Value), lua.LNumber(c.Delta))
			})
		}
	}
	if d, ok := world.GetComponent[*world.Destructible](obj); ok {
		if fn := handlers.RawGetString("on_smash"); fn != lua.LNil {
			event.Listen(&obj.Listeners, &d.OnSmashed, func(s world.Smash) {
				var killer lua.LValue = lua.LNil
				if s.Killer != nil {
					killer = formatID(s.Killer.ID())
				}
				e.call("on_smash", fn, self, killer)
			})
		}
	}
}
