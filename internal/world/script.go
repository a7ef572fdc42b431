package world

import (
	"sync"

	"github.com/lugo/server/internal/net/packet"
)

// Script names the server script bound to an object and carries the
// networked script variables.
type Script struct {
	Base

	mu   sync.Mutex
	name string
	vars *Settings
}

func init() {
	RegisterComponent(ComponentScript, func() *Script { return &Script{vars: NewSettings()} })
}

func (s *Script) ComponentID() ComponentID { return ComponentScript }

// Start resolves the script name. custom_script_server overrides the
// template's script row.
func (s *Script) Start() {
	obj := s.GameObject()
	if name, ok := obj.Settings().String("custom_script_server"); ok && name != "" {
		s.name = name
		return
	}
	if id, ok := obj.ComponentRowID(ComponentScript); ok {
		if row, ok := obj.Zone().data.Script(id); ok {
			s.name = row.ServerScript
		}
	}
}

func (s *Script) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetVar sets a networked script variable and reloads the object so
// viewers receive it.
func (s *Script) SetVar(key string, v LDFValue) {
	s.mu.Lock()
	s.vars.Set(key, v)
	s.mu.Unlock()
	if s.GameObject().Started() {
		s.GameObject().Reload()
	}
}

func (s *Script) Var(key string) (LDFValue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars.Get(key)
}

func (s *Script) Construct(w *packet.Writer) {
	s.mu.Lock()
	vars := s.vars.Clone()
	s.mu.Unlock()
	w.WriteBit(vars.Len() > 0)
	if vars.Len() > 0 {
		vars.WriteCompressed(w)
	}
}

// Serialize writes nothing; script variables only travel on construction.
func (s *Script) Serialize(*packet.Writer) {}
