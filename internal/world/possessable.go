package world

import (
	"sync"

	"github.com/lugo/server/internal/net/packet"
)

// Possessable is an object a player can mount and drive.
type Possessable struct {
	Base

	mu     sync.Mutex
	driver *GameObject
	dirty  bool
}

func init() {
	RegisterComponent(ComponentPossessable, func() *Possessable { return &Possessable{} })
}

func (c *Possessable) ComponentID() ComponentID { return ComponentPossessable }

func (c *Possessable) Driver() *GameObject {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver
}

// Mount seats driver. It fails when someone else is driving.
func (c *Possessable) Mount(driver *GameObject) bool {
	c.mu.Lock()
	if c.driver != nil {
		c.mu.Unlock()
		return false
	}
	c.driver = driver
	c.dirty = true
	c.mu.Unlock()
	c.GameObject().Serialize()
	return true
}

func (c *Possessable) Dismount() {
	c.mu.Lock()
	if c.driver == nil {
		c.mu.Unlock()
		return
	}
	c.driver = nil
	c.dirty = true
	c.mu.Unlock()
	c.GameObject().Serialize()
}

func (c *Possessable) Destroy() { c.Dismount() }

func (c *Possessable) Construct(w *packet.Writer) {
	c.write(w, true)
}

func (c *Possessable) Serialize(w *packet.Writer) {
	c.write(w, false)
}

func (c *Possessable) write(w *packet.Writer, force bool) {
	c.mu.Lock()
	driver, dirty := c.driver, c.dirty
	if !force {
		c.dirty = false
	}
	c.mu.Unlock()

	w.WriteBit(force || dirty)
	if !force && !dirty {
		return
	}
	w.WriteBit(driver != nil)
	if driver != nil {
		w.WriteI64(int64(driver.ID()))
	}
	w.WriteBit(false) // animation flag
	w.WriteBit(false) // immediate depossess
}
