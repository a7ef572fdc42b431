package world

import "sync"

// Transform holds an object's placement and its parent/child links.
type Transform struct {
	Base

	mu       sync.RWMutex
	position Vector3
	rotation Quaternion
	scale    float32
	parent   *GameObject
	children []*GameObject
}

func init() {
	RegisterComponent(ComponentNone, func() *Transform {
		return &Transform{rotation: IdentityRotation, scale: -1}
	})
}

func (t *Transform) Position() Vector3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.position
}

// SetPosition moves the object and keeps the zone's spatial index current.
func (t *Transform) SetPosition(p Vector3) {
	t.mu.Lock()
	t.position = p
	t.mu.Unlock()
	if obj := t.GameObject(); obj != nil && obj.Alive() {
		obj.zone.grid.Set(obj.id, p)
	}
}

func (t *Transform) Rotation() Quaternion {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rotation
}

func (t *Transform) SetRotation(q Quaternion) {
	t.mu.Lock()
	t.rotation = q
	t.mu.Unlock()
}

// Scale returns -1 when the template scale applies.
func (t *Transform) Scale() float32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scale
}

func (t *Transform) SetScale(s float32) {
	t.mu.Lock()
	t.scale = s
	t.mu.Unlock()
}

func (t *Transform) Parent() *GameObject {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.parent
}

func (t *Transform) Children() []*GameObject {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*GameObject, len(t.children))
	copy(out, t.children)
	return out
}

// SetParent links t's object under parent, unlinking any previous parent.
// A nil parent detaches.
func (t *Transform) SetParent(parent *GameObject) {
	self := t.GameObject()
	if old := t.Parent(); old != nil {
		if ot := old.Transform(); ot != nil {
			ot.removeChild(self)
		}
	}
	t.mu.Lock()
	t.parent = parent
	t.mu.Unlock()
	if parent != nil {
		if pt := parent.Transform(); pt != nil {
			pt.mu.Lock()
			pt.children = append(pt.children, self)
			pt.mu.Unlock()
		}
	}
}

func (t *Transform) removeChild(child *GameObject) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, c := range t.children {
		if c == child {
			t.children = append(t.children[:i:i], t.children[i+1:]...)
			return
		}
	}
}

// Destroy detaches the object from its parent and orphans its children.
func (t *Transform) Destroy() {
	t.SetParent(nil)
	for _, c := range t.Children() {
		if ct := c.Transform(); ct != nil {
			ct.mu.Lock()
			ct.parent = nil
			ct.mu.Unlock()
		}
	}
	t.mu.Lock()
	t.children = nil
	t.mu.Unlock()
}
