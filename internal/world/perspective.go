package world

import (
	"reflect"
	"sync"
)

// Filter decides whether a perspective may see an object.
type Filter interface {
	View(obj *GameObject) bool
}

// Ticker is implemented by filters whose judgement changes over time.
type Ticker interface {
	Tick()
}

// Perspective is one player's view of a zone: which objects the player has
// been sent, under which network id, and the filter chain deciding what it
// may see.
type Perspective struct {
	mu      sync.Mutex
	ids     map[*GameObject]uint16
	objects map[uint16]*GameObject
	dropped []uint16
	filters []Filter
}

func NewPerspective() *Perspective {
	return &Perspective{
		ids:     make(map[*GameObject]uint16),
		objects: make(map[uint16]*GameObject),
	}
}

// Reveal allocates a network id for obj. It fails when obj is not alive or
// already has an id. Retired ids are reused most recent first; otherwise the
// id is one above the highest in use.
func (p *Perspective) Reveal(obj *GameObject) (uint16, bool) {
	if obj == nil || !obj.Alive() {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ids[obj]; ok {
		return 0, false
	}

	var id uint16
	if n := len(p.dropped); n > 0 {
		id = p.dropped[n-1]
		p.dropped = p.dropped[:n-1]
	} else {
		var highest uint16
		for other := range p.objects {
			if other > highest {
				highest = other
			}
		}
		if highest == ^uint16(0) {
			return 0, false
		}
		id = highest + 1
	}
	p.ids[obj] = id
	p.objects[id] = obj
	return id, true
}

// Drop releases obj's network id for reuse.
func (p *Perspective) Drop(obj *GameObject) (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.ids[obj]
	if !ok {
		return 0, false
	}
	delete(p.ids, obj)
	delete(p.objects, id)
	p.dropped = append(p.dropped, id)
	return id, true
}

func (p *Perspective) TryGetNetworkID(obj *GameObject) (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.ids[obj]
	return id, ok
}

func (p *Perspective) TryGetObject(id uint16) (*GameObject, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	obj, ok := p.objects[id]
	return obj, ok
}

// Objects returns every currently revealed object.
func (p *Perspective) Objects() []*GameObject {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*GameObject, 0, len(p.ids))
	for obj := range p.ids {
		out = append(out, obj)
	}
	return out
}

func (p *Perspective) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ids)
}

// View reports whether every filter accepts obj.
func (p *Perspective) View(obj *GameObject) bool {
	for _, f := range p.Filters() {
		if !f.View(obj) {
			return false
		}
	}
	return true
}

// Tick lets time-dependent filters refresh.
func (p *Perspective) Tick() {
	for _, f := range p.Filters() {
		if t, ok := f.(Ticker); ok {
			t.Tick()
		}
	}
}

// Filters returns a snapshot of the filter chain.
func (p *Perspective) Filters() []Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Filter, len(p.filters))
	copy(out, p.filters)
	return out
}

// AddFilter appends f unless a filter of the same type is already present,
// in which case the existing one is returned.
func AddFilter[T Filter](p *Perspective, f T) T {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.filters {
		if existing, ok := o.(T); ok && reflect.TypeOf(o) == reflect.TypeOf(f) {
			return existing
		}
	}
	p.filters = append(p.filters, f)
	return f
}

// GetFilter returns the filter of type T.
func GetFilter[T Filter](p *Perspective) (T, bool) {
	for _, f := range p.Filters() {
		if t, ok := f.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}
