package scripting

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/data"
	"github.com/lugo/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const testData = `
objects:
  - {lot: 6010, name: Crate}
components:
  - {lot: 6010, component_type: 5, component_id: 3}
  - {lot: 6010, component_type: 7, component_id: 12}
destructibles:
  - {id: 12, life: 3, faction: 6, is_smashable: true}
scripts:
  - {id: 3, server_script: test_crate}
`

const crateScript = `
starts = 0
hits = {}
register_script("test_crate", {
	on_start = function(obj)
		starts = starts + 1
		started_lot = obj.lot
		started_id = obj.id
	end,
	on_hit = function(obj, health, delta)
		table.insert(hits, delta)
	end,
	on_smash = function(obj, killer)
		smashed = obj.id
	end,
})
`

const zoneScript = `
function on_player_load(player)
	loaded = player.name
end

function on_chat(player, channel, text)
	last_chat = text
	last_channel = channel
end
`

type nopStore struct{}

func (nopStore) LoadCharacter(_ context.Context, id ecs.ObjectID) (*world.CharacterRecord, error) {
	return &world.CharacterRecord{ID: id, Name: "Scripter", ZoneID: 1000, Rotation: world.IdentityRotation,
		Stats: world.StatsRecord{Health: 4, MaxHealth: 4}}, nil
}
func (nopStore) SetStats(context.Context, ecs.ObjectID, world.StatsRecord) error { return nil }
func (nopStore) SetCurrency(context.Context, ecs.ObjectID, int64) error          { return nil }
func (nopStore) SetPosition(context.Context, ecs.ObjectID, uint16, world.Vector3, world.Quaternion) error {
	return nil
}
func (nopStore) SetInventorySlot(context.Context, ecs.ObjectID, world.InventorySlot) error {
	return nil
}

type nopConn struct{}

func (nopConn) Send([]byte) {}
func (nopConn) Close()      {}

func newTestEngine(t *testing.T) (*Engine, *world.Zone) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "zone"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crate.lua"), []byte(crateScript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zone", "hooks.lua"), []byte(zoneScript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not lua"), 0o644))

	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)

	gd, err := data.ParseGameData([]byte(testData))
	require.NoError(t, err)
	z := world.NewZone(world.ZoneConfig{ZoneID: 1000}, data.NewTables(gd), nopStore{}, zap.NewNop())
	e.Attach(z)
	return e, z
}

func global(e *Engine, name string) lua.LValue { return e.vm.GetGlobal(name) }

func TestNewEngineLoadsNestedScripts(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, 1, e.ScriptCount())
	assert.True(t, e.HasScript("test_crate"))
	assert.Equal(t, lua.LTFunction, global(e, "on_chat").Type())
}

func TestNewEngineMissingDirLoadsNothing(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "absent"), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	assert.Zero(t, e.ScriptCount())
}

func TestNewEngineReportsBrokenScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644))
	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}

func TestObjectHooks(t *testing.T) {
	e, z := newTestEngine(t)
	crate := z.Instantiate(world.ObjectSpec{Lot: 6010})
	crate.Start()

	assert.Equal(t, lua.LNumber(1), global(e, "starts"))
	assert.Equal(t, lua.LNumber(6010), global(e, "started_lot"))
	assert.Equal(t, formatID(crate.ID()), global(e, "started_id"))

	stats, ok := world.GetComponent[*world.Stats](crate)
	require.True(t, ok)
	stats.Damage(1, nil)
	hits := global(e, "hits").(*lua.LTable)
	require.Equal(t, 1, hits.Len())
	assert.Equal(t, lua.LNumber(-1), hits.RawGetInt(1))

	stats.Damage(5, nil)
	assert.Equal(t, formatID(crate.ID()), global(e, "smashed"))
}

func TestObjectsWithoutRegisteredScriptAreIgnored(t *testing.T) {
	e, z := newTestEngine(t)
	settings := world.NewSettings()
	settings.Set("custom_script_server", world.LDFValue{Type: world.LDFWString, V: "other_script"})
	crate := z.Instantiate(world.ObjectSpec{Lot: 6010, Settings: settings})
	crate.Start()
	assert.Equal(t, lua.LNumber(0), global(e, "starts"))
}

func TestZoneHooks(t *testing.T) {
	e, z := newTestEngine(t)
	p, err := z.LoadPlayer(context.Background(), nopConn{}, 1, 1001)
	require.NoError(t, err)
	assert.Equal(t, lua.LString("Scripter"), global(e, "loaded"))

	z.Chat(p, 4, "hello lua")
	assert.Equal(t, lua.LString("hello lua"), global(e, "last_chat"))
	assert.Equal(t, lua.LNumber(4), global(e, "last_channel"))
}

func TestAPIFunctions(t *testing.T) {
	e, z := newTestEngine(t)
	crate := z.Instantiate(world.ObjectSpec{Lot: 6010})
	crate.Start()
	e.vm.SetGlobal("crate_id", formatID(crate.ID()))

	require.NoError(t, e.LoadString(`
		ok_health = set_health(crate_id, 2)
		ok_var = set_var(crate_id, "state", "open")
		missing = set_health("12345", 1)
		bad = set_health("nope", 1)
		broadcast("zone closing")
	`))
	assert.Equal(t, lua.LTrue, global(e, "ok_health"))
	assert.Equal(t, lua.LTrue, global(e, "ok_var"))
	assert.Equal(t, lua.LFalse, global(e, "missing"))
	assert.Equal(t, lua.LFalse, global(e, "bad"))

	stats, _ := world.GetComponent[*world.Stats](crate)
	assert.Equal(t, int32(2), stats.Health())
	sc, _ := world.GetComponent[*world.Script](crate)
	v, ok := sc.Var("state")
	require.True(t, ok)
	assert.Equal(t, "open", v.V)
}
