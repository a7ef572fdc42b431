package world

import (
	"sync"

	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/net/packet"
)

// ActivityValues is the number of per-participant values of an activity.
const ActivityValues = 10

type participant struct {
	player *Player
	values [ActivityValues]float32
}

// ScriptedActivity tracks the players taking part in a minigame style
// activity and their scores.
type ScriptedActivity struct {
	Base

	mu           sync.Mutex
	participants []*participant
	dirty        bool
}

func init() {
	RegisterComponent(ComponentScriptedActivity, func() *ScriptedActivity { return &ScriptedActivity{} })
}

func (a *ScriptedActivity) ComponentID() ComponentID { return ComponentScriptedActivity }

func (a *ScriptedActivity) find(id ecs.ObjectID) *participant {
	for _, p := range a.participants {
		if p.player.ID() == id {
			return p
		}
	}
	return nil
}

// AddParticipant enters p; entering twice is a no-op.
func (a *ScriptedActivity) AddParticipant(p *Player) {
	a.mu.Lock()
	if a.find(p.ID()) != nil {
		a.mu.Unlock()
		return
	}
	a.participants = append(a.participants, &participant{player: p})
	a.dirty = true
	a.mu.Unlock()
	a.GameObject().Serialize()
}

func (a *ScriptedActivity) RemoveParticipant(p *Player) {
	a.mu.Lock()
	for i, o := range a.participants {
		if o.player == p {
			a.participants = append(a.participants[:i:i], a.participants[i+1:]...)
			a.dirty = true
			break
		}
	}
	a.mu.Unlock()
	a.GameObject().Serialize()
}

func (a *ScriptedActivity) Participants() []*Player {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Player, len(a.participants))
	for i, p := range a.participants {
		out[i] = p.player
	}
	return out
}

// SetValue stores value index of p's scores. Indexes out of range and
// non-participants are ignored.
func (a *ScriptedActivity) SetValue(p *Player, index int, v float32) {
	if index < 0 || index >= ActivityValues {
		return
	}
	a.mu.Lock()
	part := a.find(p.ID())
	if part != nil {
		part.values[index] = v
		a.dirty = true
	}
	a.mu.Unlock()
	if part != nil {
		a.GameObject().Serialize()
	}
}

func (a *ScriptedActivity) Value(p *Player, index int) float32 {
	if index < 0 || index >= ActivityValues {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if part := a.find(p.ID()); part != nil {
		return part.values[index]
	}
	return 0
}

// Reward rolls a loot matrix for p at the activity's position.
func (a *ScriptedActivity) Reward(p *Player, matrix int32) []*GameObject {
	return NewLootContainer(a.Zone(), matrix, 0, 0).Drop(a.GameObject(), p)
}

func (a *ScriptedActivity) Construct(w *packet.Writer) { a.write(w, true) }

func (a *ScriptedActivity) Serialize(w *packet.Writer) { a.write(w, false) }

func (a *ScriptedActivity) write(w *packet.Writer, force bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := force || a.dirty
	if !force {
		a.dirty = false
	}
	w.WriteBit(changed)
	if !changed {
		return
	}
	w.WriteU32(uint32(len(a.participants)))
	for _, p := range a.participants {
		w.WriteI64(int64(p.player.ID()))
		for _, v := range p.values {
			w.WriteF32(v)
		}
	}
}
