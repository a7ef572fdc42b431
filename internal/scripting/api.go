package scripting

import (
	"strconv"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// zoneAPI is the part of a zone scripts may reach.
type zoneAPI interface {
	Object(id ecs.ObjectID) (*world.GameObject, bool)
	Players() []*world.Player
}

// announceChannel is the chat channel used by broadcast().
const announceChannel uint8 = 4

// registerAPI installs the Go functions scripts can call. Object ids cross
// into Lua as decimal strings since they do not fit a Lua number.
func (e *Engine) registerAPI() {
	e.vm.SetGlobal("register_script", e.vm.NewFunction(e.luaRegisterScript))
	e.vm.SetGlobal("log", e.vm.NewFunction(e.luaLog))
	e.vm.SetGlobal("set_health", e.vm.NewFunction(e.luaSetHealth))
	e.vm.SetGlobal("set_var", e.vm.NewFunction(e.luaSetVar))
	e.vm.SetGlobal("broadcast", e.vm.NewFunction(e.luaBroadcast))
}

// register_script(name, handlers)
func (e *Engine) luaRegisterScript(L *lua.LState) int {
	name := L.CheckString(1)
	e.scripts[name] = L.CheckTable(2)
	return 0
}

// log(message)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("message", L.CheckString(1)))
	return 0
}

// set_health(id, value) -> bool
func (e *Engine) luaSetHealth(L *lua.LState) int {
	obj, ok := e.object(L, 1)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	stats, ok := world.GetComponent[*world.Stats](obj)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	stats.SetHealth(int32(L.CheckInt(2)))
	L.Push(lua.LTrue)
	return 1
}

// set_var(id, key, value) -> bool
func (e *Engine) luaSetVar(L *lua.LState) int {
	obj, ok := e.object(L, 1)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	sc, ok := world.GetComponent[*world.Script](obj)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	sc.SetVar(L.CheckString(2), world.LDFValue{Type: world.LDFWString, V: L.CheckString(3)})
	L.Push(lua.LTrue)
	return 1
}

// broadcast(text)
func (e *Engine) luaBroadcast(L *lua.LState) int {
	text := L.CheckString(1)
	if e.zone == nil {
		return 0
	}
	data := world.ChatPacket(announceChannel, "", 0, text)
	for _, p := range e.zone.Players() {
		p.SendRaw(data)
	}
	return 0
}

func (e *Engine) object(L *lua.LState, n int) (*world.GameObject, bool) {
	if e.zone == nil {
		return nil, false
	}
	id, err := strconv.ParseInt(L.CheckString(n), 10, 64)
	if err != nil {
		return nil, false
	}
	return e.zone.Object(ecs.ObjectID(id))
}

func formatID(id ecs.ObjectID) lua.LString {
	return lua.LString(strconv.FormatInt(int64(id), 10))
}

// objectTable packs the fields scripts read from an object.
func (e *Engine) objectTable(obj *world.GameObject) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", formatID(obj.ID()))
	t.RawSetString("lot", lua.LNumber(obj.Lot()))
	t.RawSetString("name", lua.LString(obj.Name()))
	pos := obj.Position()
	t.RawSetString("x", lua.LNumber(pos.X))
	t.RawSetString("y", lua.LNumber(pos.Y))
	t.RawSetString("z", lua.LNumber(pos.Z))
	return t
}
