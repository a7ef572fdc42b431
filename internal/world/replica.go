package world

import (
	"github.com/lugo/server/internal/net/packet"
)

// WriteConstruct writes an object's first-seen state: identity, template,
// spawner linkage, scale, hierarchy, then every replica component's full
// state in wire order.
func WriteConstruct(w *packet.Writer, obj *GameObject) {
	obj.mu.RLock()
	name := obj.name
	gm := obj.gmLevel
	ws := obj.worldState
	spawner := obj.spawner
	node, hasNode := obj.spawnerNode, obj.hasSpawnerNode
	hasTrigger := obj.hasTrigger
	obj.mu.RUnlock()

	w.WriteI64(int64(obj.id))
	w.WriteI32(int32(obj.lot))
	w.WriteWideU8(name)
	w.WriteU32(0) // time since created
	w.WriteBit(false)
	w.WriteBit(hasTrigger)

	w.WriteBit(spawner != nil)
	if spawner != nil {
		w.WriteI64(int64(spawner.id))
	}
	w.WriteBit(hasNode)
	if hasNode {
		w.WriteU32(node)
	}

	scale := float32(-1)
	if t := obj.Transform(); t != nil {
		scale = t.Scale()
	}
	w.WriteBit(scale != -1)
	if scale != -1 {
		w.WriteF32(scale)
	}

	w.WriteBit(gm != 0)
	if gm != 0 {
		w.WriteU8(gm)
	}
	w.WriteBit(ws != WorldStateWorld)
	if ws != WorldStateWorld {
		w.WriteU8(byte(ws))
	}

	WriteHierarchy(w, obj)
	for _, c := range obj.ReplicaComponents() {
		c.Construct(w)
	}
}

// WriteSerialize writes the hierarchy and each replica component's
// incremental state.
func WriteSerialize(w *packet.Writer, obj *GameObject) {
	WriteHierarchy(w, obj)
	for _, c := range obj.ReplicaComponents() {
		c.Serialize(w)
	}
}

// WriteHierarchy writes the parent and child links of obj.
func WriteHierarchy(w *packet.Writer, obj *GameObject) {
	var parent *GameObject
	var children []*GameObject
	if t := obj.Transform(); t != nil {
		parent = t.Parent()
		children = t.Children()
	}
	w.WriteBit(true)
	w.WriteBit(parent != nil)
	if parent != nil {
		w.WriteI64(int64(parent.id))
		w.WriteBit(false)
	}
	w.WriteBit(len(children) > 0)
	if len(children) > 0 {
		w.WriteU16(uint16(len(children)))
		for _, c := range children {
			w.WriteI64(int64(c.id))
		}
	}
}

func constructFrame(netID uint16, obj *GameObject) []byte {
	w := packet.NewWriterWithID(packet.IDReplicaConstruction)
	w.WriteBit(true)
	w.WriteU16(netID)
	WriteConstruct(w, obj)
	return w.Bytes()
}

// serializeFrame prefixes a serialized body with a network id. The header
// ends on a byte boundary, so one body serves every viewer.
func serializeFrame(netID uint16, body []byte) []byte {
	w := packet.NewWriterWithID(packet.IDReplicaSerialize)
	w.WriteU16(netID)
	w.WriteBytes(body)
	return w.Bytes()
}

func destructFrame(netID uint16) []byte {
	w := packet.NewWriterWithID(packet.IDReplicaDestruction)
	w.WriteU16(netID)
	return w.Bytes()
}

// ── Fan-out ───────────────────────────────────────────────────────
//
// Every frame for a player is emitted under that player's replica lock so
// a Construct always precedes Serialize and Destruct for the same id.

// SendConstruction reveals obj to each player whose perspective admits it
// and has not been sent it yet.
func (z *Zone) SendConstruction(obj *GameObject, players []*Player) {
	for _, p := range players {
		p.replicaMu.Lock()
		if p.perspective.View(obj) {
			z.construct(p, obj)
		}
		p.replicaMu.Unlock()
	}
}

// SendSerialization sends obj's incremental state to each player that has
// it revealed. The state is written once.
func (z *Zone) SendSerialization(obj *GameObject, players []*Player) {
	var body []byte
	for _, p := range players {
		p.replicaMu.Lock()
		if id, ok := p.perspective.TryGetNetworkID(obj); ok {
			if body == nil {
				w := packet.NewWriter()
				WriteSerialize(w, obj)
				body = w.Bytes()
			}
			p.send(serializeFrame(id, body))
		}
		p.replicaMu.Unlock()
	}
}

// SendDestruction removes obj from each player that has it and no longer
// admits it. force removes it regardless of the filters.
func (z *Zone) SendDestruction(obj *GameObject, players []*Player, force bool) {
	for _, p := range players {
		p.replicaMu.Lock()
		if force || !p.perspective.View(obj) {
			z.destruct(p, obj)
		}
		p.replicaMu.Unlock()
	}
}

// UpdateView reconciles one player's view of one object: reveal and
// construct when newly admitted, destruct and drop when no longer admitted.
func (z *Zone) UpdateView(p *Player, obj *GameObject) {
	p.replicaMu.Lock()
	defer p.replicaMu.Unlock()
	_, mapped := p.perspective.TryGetNetworkID(obj)
	view := obj.Alive() && p.perspective.View(obj)
	switch {
	case view && !mapped:
		z.construct(p, obj)
	case !view && mapped:
		z.destruct(p, obj)
	}
}

// RefreshView ticks p's filters and reconciles p's view of every object.
func (z *Zone) RefreshView(p *Player) {
	p.perspective.Tick()
	for _, obj := range z.Objects() {
		z.UpdateView(p, obj)
	}
	for _, obj := range p.perspective.Objects() {
		if !obj.Alive() {
			z.UpdateView(p, obj)
		}
	}
}

func (z *Zone) refreshViews(obj *GameObject) {
	for _, p := range z.Players() {
		z.UpdateView(p, obj)
	}
}

func (z *Zone) destructEverywhere(obj *GameObject) {
	z.SendDestruction(obj, z.Players(), true)
}

func (z *Zone) construct(p *Player, obj *GameObject) {
	id, ok := p.perspective.Reveal(obj)
	if !ok {
		return
	}
	p.send(constructFrame(id, obj))
}

func (z *Zone) destruct(p *Player, obj *GameObject) {
	id, ok := p.perspective.TryGetNetworkID(obj)
	if !ok {
		return
	}
	p.send(destructFrame(id))
	p.perspective.Drop(obj)
}
