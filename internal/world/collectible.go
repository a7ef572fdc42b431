package world

import (
	"github.com/lugo/server/internal/core/event"
	"github.com/lugo/server/internal/net/packet"
	"go.uber.org/zap"
)

// Collectible is a one-time pickup. Once a player interacts with it, it is
// hidden from that player for good.
type Collectible struct {
	Base

	stats *Stats
	id    uint16

	OnCollected event.Event[*Player]
}

func init() {
	RegisterComponent(ComponentCollectible, func() *Collectible { return &Collectible{} },
		Requires[*Stats](true))
}

func (c *Collectible) ComponentID() ComponentID { return ComponentCollectible }

func (c *Collectible) Start() {
	obj := c.GameObject()
	c.stats = AddComponent[*Stats](obj)
	if v, ok := obj.Settings().Int("collectible_id"); ok {
		c.id = uint16(v)
	}
	event.Listen(&c.Listeners, &obj.OnInteract, c.collect)
}

// CollectibleID is the per-zone collectible number.
func (c *Collectible) CollectibleID() uint16 { return c.id }

// Flag is the player flag set by collecting; the zone id keeps it unique
// across zones.
func (c *Collectible) Flag() uint32 {
	return uint32(c.Zone().ID())<<8 | uint32(c.id)
}

func (c *Collectible) collect(p *Player) {
	f, ok := GetFilter[*FlagFilter](p.Perspective())
	if !ok || f.IsSet(c.Flag()) {
		return
	}
	f.Set(c.Flag())
	c.Zone().UpdateView(p, c.GameObject())
	c.Zone().log.Debug("collected",
		zap.Int64("player", int64(p.ID())),
		zap.Uint16("collectible", c.id))
	c.GameObject().logErr("collect listener", c.OnCollected.Invoke(p))
}

func (c *Collectible) Construct(w *packet.Writer) {
	c.stats.Construct(w)
	w.WriteU16(c.id)
}

func (c *Collectible) Serialize(w *packet.Writer) {
	c.stats.Serialize(w)
	w.WriteU16(c.id)
}
