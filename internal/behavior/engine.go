package behavior

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lugo/server/internal/data"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
)

// Engine builds and caches the behavior trees of one zone. Trees are
// immutable once built and shared by every cast.
type Engine struct {
	zone *world.Zone
	data data.Provider
	log  *zap.Logger

	mu       sync.Mutex
	nodes    map[uint32]Node
	building map[uint32]bool
}

type engineKey struct{}

// NewEngine creates an engine reading behavior rows from z's static data.
func NewEngine(z *world.Zone) *Engine {
	return &Engine{
		zone:     z,
		data:     z.Data(),
		log:      z.Log().Named("behavior"),
		nodes:    make(map[uint32]Node),
		building: make(map[uint32]bool),
	}
}

// EngineOf returns the engine owned by z, creating it on first use.
func EngineOf(z *world.Zone) *Engine {
	if v, ok := z.Value(engineKey{}); ok {
		return v.(*Engine)
	}
	return z.LoadOrStoreValue(engineKey{}, NewEngine(z)).(*Engine)
}

func (e *Engine) Zone() *world.Zone { return e.zone }

// Tree returns the node for behaviorID, building it and its children on
// first use. Unknown ids yield an empty node.
func (e *Engine) Tree(behaviorID uint32) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.build(behaviorID)
}

// Cached reports how many behaviors have been built.
func (e *Engine) Cached() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

func (e *Engine) build(id uint32) Node {
	if id == 0 {
		return Empty
	}
	if n, ok := e.nodes[id]; ok {
		return n
	}
	if e.building[id] {
		e.log.Warn("behavior cycle", zap.Uint32("behavior", id))
		return newEmpty(id)
	}

	row, ok := e.data.BehaviorTemplate(id)
	if !ok {
		e.log.Warn("behavior not found", zap.Uint32("behavior", id))
		n := newEmpty(id)
		e.nodes[id] = n
		return n
	}
	tpl := TemplateID(row.TemplateID)
	create, ok := templates[tpl]
	if !ok {
		e.log.Warn("unknown behavior template",
			zap.Uint32("behavior", id), zap.Uint32("template", row.TemplateID))
		n := newEmpty(id)
		e.nodes[id] = n
		return n
	}

	n := create()
	*n.node() = info{id: id, template: tpl, effect: row.EffectID}
	e.building[id] = true
	n.build(newBuilder(e, id))
	delete(e.building, id)
	e.nodes[id] = n
	return n
}

// builder hands a node its parameters while it is being built.
type builder struct {
	e      *Engine
	id     uint32
	params map[string]float32
}

func newBuilder(e *Engine, id uint32) *builder {
	rows := e.data.BehaviorParameters(id)
	params := make(map[string]float32, len(rows))
	for _, r := range rows {
		params[r.Parameter] = r.Value
	}
	return &builder{e: e, id: id, params: params}
}

func (b *builder) has(name string) bool {
	_, ok := b.params[name]
	return ok
}

// float returns a required parameter, warning and yielding 0 when absent.
func (b *builder) float(name string) float32 {
	v, ok := b.params[name]
	if !ok {
		b.e.log.Warn("behavior parameter missing",
			zap.Uint32("behavior", b.id), zap.String("parameter", name))
	}
	return v
}

func (b *builder) int(name string) int32 { return int32(b.float(name)) }

// optional returns a parameter that may legitimately be absent.
func (b *builder) optional(name string, def float32) float32 {
	if v, ok := b.params[name]; ok {
		return v
	}
	return def
}

func (b *builder) flag(name string) bool { return b.optional(name, 0) > 0 }

// behavior resolves a required child.
func (b *builder) behavior(name string) Node {
	v, ok := b.params[name]
	if !ok {
		b.e.log.Warn("behavior child missing",
			zap.Uint32("behavior", b.id), zap.String("parameter", name))
		return Empty
	}
	return b.e.build(uint32(v))
}

// optionalBehavior resolves a child that may be absent.
func (b *builder) optionalBehavior(name string) Node {
	v, ok := b.params[name]
	if !ok {
		return Empty
	}
	return b.e.build(uint32(v))
}

// numbered resolves "<prefix> 1", "<prefix> 2", ... in numeric order.
func (b *builder) numbered(prefix string) []Node {
	type child struct {
		n  int
		id uint32
	}
	var found []child
	for name, v := range b.params {
		rest, ok := strings.CutPrefix(name, prefix+" ")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		found = append(found, child{n, uint32(v)})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	out := make([]Node, 0, len(found))
	for _, c := range found {
		out = append(out, b.e.build(c.id))
	}
	return out
}
