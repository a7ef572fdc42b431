package world

// Mask is a set of layers. An object sits on one or more layers; a
// perspective's mask filter decides which layers its player can see.
type Mask uint64

const (
	LayerDefault Mask = 1 << iota
	LayerHidden
	LayerSmashable
	LayerSpawner
	LayerPlayer
	LayerEnvironment

	LayerNone Mask = 0
	LayerAll  Mask = ^Mask(0)
)

// PlayerViewMask is what a freshly loaded player sees.
const PlayerViewMask = LayerAll &^ (LayerHidden | LayerSpawner)

func (m Mask) Has(o Mask) bool { return m&o != 0 }

func (m Mask) Add(o Mask) Mask { return m | o }

func (m Mask) Remove(o Mask) Mask { return m &^ o }
