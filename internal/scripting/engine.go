package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps one gopher-lua VM bound to a zone. Hooks run on the zone
// loop only; a VM is never shared between zones.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	zone    zoneAPI
	scripts map[string]*lua.LTable
}

// NewEngine creates a Lua VM and loads every script under scriptsDir,
// subdirectories included, in path order. A missing directory loads nothing.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, scripts: make(map[string]*lua.LTable)}
	e.registerAPI()

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".lua" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	for _, path := range files {
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// ScriptCount returns the number of registered object scripts.
func (e *Engine) ScriptCount() int { return len(e.scripts) }

// HasScript reports whether an object script is registered under name.
func (e *Engine) HasScript(name string) bool {
	_, ok := e.scripts[name]
	return ok
}

// call runs fn if it is a function. Lua errors are logged, never raised.
func (e *Engine) call(what string, fn lua.LValue, args ...lua.LValue) {
	if fn.Type() != lua.LTFunction {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua hook failed", zap.String("hook", what), zap.Error(err))
	}
}

func (e *Engine) Close() {
	e.vm.Close()
}
