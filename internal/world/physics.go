package world

import "github.com/lugo/server/internal/net/packet"

// SimplePhysics replicates the position of objects the server does not
// move, such as props and pickups.
type SimplePhysics struct {
	Base
	climbable bool
}

func init() {
	RegisterComponent(ComponentSimplePhysics, func() *SimplePhysics { return &SimplePhysics{} })
}

func (sp *SimplePhysics) ComponentID() ComponentID { return ComponentSimplePhysics }

func (sp *SimplePhysics) Start() {
	sp.climbable = sp.GameObject().Settings().Bool("is_climbable")
}

func (sp *SimplePhysics) Construct(w *packet.Writer) {
	w.WriteBit(sp.climbable)
	w.WriteI32(0)
	sp.Serialize(w)
}

func (sp *SimplePhysics) Serialize(w *packet.Writer) {
	w.WriteBit(false) // velocity
	w.WriteBit(false) // physics motion state
	t := sp.GameObject().Transform()
	w.WriteBit(t != nil)
	if t != nil {
		writeVector(w, t.Position())
		r := t.Rotation()
		w.WriteF32(r.X)
		w.WriteF32(r.Y)
		w.WriteF32(r.Z)
		w.WriteF32(r.W)
	}
}
