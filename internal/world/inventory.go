package world

import (
	"sort"
	"sync"

	"github.com/lugo/server/internal/core/event"
	"github.com/lugo/server/internal/net/packet"
)

const (
	defaultInventorySize = 24
	maxStack             = 999
)

// Inventory holds a character's items by slot.
type Inventory struct {
	Base

	mu    sync.Mutex
	size  uint32
	slots map[uint32]InventorySlot

	OnItemAdded   event.Event[InventorySlot]
	OnItemRemoved event.Event[InventorySlot]
}

func init() {
	RegisterComponent(ComponentInventory, func() *Inventory {
		return &Inventory{size: defaultInventorySize, slots: make(map[uint32]InventorySlot)}
	})
}

func (inv *Inventory) ComponentID() ComponentID { return ComponentInventory }

// Load replaces the slots with persisted ones.
func (inv *Inventory) Load(slots []InventorySlot) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.slots = make(map[uint32]InventorySlot, len(slots))
	for _, s := range slots {
		if s.Count > 0 {
			inv.slots[s.Slot] = s
		}
		if s.Slot >= inv.size {
			inv.size = s.Slot + 1
		}
	}
}

// Slots returns the occupied slots in slot order.
func (inv *Inventory) Slots() []InventorySlot {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]InventorySlot, 0, len(inv.slots))
	for _, s := range inv.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// Count totals the items of lot.
func (inv *Inventory) Count(lot Lot) int32 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var n int32
	for _, s := range inv.slots {
		if s.Lot == lot {
			n += s.Count
		}
	}
	return n
}

// AddItem stacks count of lot onto existing slots, then free ones. It
// returns how many could not be placed.
func (inv *Inventory) AddItem(lot Lot, count int32) int32 {
	var changed []InventorySlot
	inv.mu.Lock()
	for slot := uint32(0); slot < inv.size && count > 0; slot++ {
		s, ok := inv.slots[slot]
		if !ok || s.Lot != lot || s.Count >= maxStack {
			continue
		}
		add := min(maxStack-s.Count, count)
		s.Count += add
		count -= add
		inv.slots[slot] = s
		changed = append(changed, s)
	}
	for slot := uint32(0); slot < inv.size && count > 0; slot++ {
		if _, ok := inv.slots[slot]; ok {
			continue
		}
		add := min(int32(maxStack), count)
		s := InventorySlot{Slot: slot, Lot: lot, Count: add}
		count -= add
		inv.slots[slot] = s
		changed = append(changed, s)
	}
	inv.mu.Unlock()

	for _, s := range changed {
		inv.slotChanged(s)
		inv.GameObject().logErr("inventory listener", inv.OnItemAdded.Invoke(s))
	}
	return count
}

// RemoveItem takes count of lot, last slots first. It fails without change
// when fewer are held.
func (inv *Inventory) RemoveItem(lot Lot, count int32) bool {
	if inv.Count(lot) < count {
		return false
	}
	var changed []InventorySlot
	inv.mu.Lock()
	for slot := int64(inv.size) - 1; slot >= 0 && count > 0; slot-- {
		s, ok := inv.slots[uint32(slot)]
		if !ok || s.Lot != lot {
			continue
		}
		take := min(s.Count, count)
		s.Count -= take
		count -= take
		if s.Count == 0 {
			delete(inv.slots, s.Slot)
		} else {
			inv.slots[s.Slot] = s
		}
		changed = append(changed, s)
	}
	inv.mu.Unlock()

	for _, s := range changed {
		inv.slotChanged(s)
		inv.GameObject().logErr("inventory listener", inv.OnItemRemoved.Invoke(s))
	}
	return true
}

func (inv *Inventory) slotChanged(s InventorySlot) {
	if p, ok := inv.GameObject().Player(); ok {
		p.markSlotDirty(s)
	}
}

// Construct writes the equipped item block. Equipment is not simulated, so
// the list is always empty.
func (inv *Inventory) Construct(w *packet.Writer) {
	w.WriteBit(true)
	w.WriteU32(0)
	w.WriteBit(false)
}

func (inv *Inventory) Serialize(w *packet.Writer) {
	w.WriteBit(false)
	w.WriteBit(false)
}
