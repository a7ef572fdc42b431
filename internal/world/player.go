package world

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lugo/server/internal/core/ecs"
	"go.uber.org/zap"
)

// PlayerLot is the template every character is built from.
const PlayerLot Lot = 1

// PlayerFaction is the faction every character belongs to.
const PlayerFaction int32 = 1

// Connection is the network side of a player.
type Connection interface {
	Send(data []byte)
	Close()
}

// Dirty flags mark player state awaiting persistence.
const (
	DirtyStats uint32 = 1 << iota
	DirtyCurrency
	DirtyPosition
)

// Player is a connected character. It embeds the character's GameObject.
type Player struct {
	*GameObject

	conn        Connection
	sessionID   uint64
	perspective *Perspective

	// replicaMu orders every replica frame sent to this player.
	replicaMu sync.Mutex

	mu               sync.Mutex
	currency         int64
	entitledCurrency int64
	dirtySlots       map[uint32]InventorySlot

	dirty atomic.Uint32
}

func (p *Player) Perspective() *Perspective { return p.perspective }

func (p *Player) Connection() Connection { return p.conn }

func (p *Player) SessionID() uint64 { return p.sessionID }

func (p *Player) send(data []byte) {
	if p.conn != nil {
		p.conn.Send(data)
	}
}

// Message sends one game message to this player.
func (p *Player) Message(m GameMessage) {
	p.send(EncodeGameMessage(m))
}

// SendRaw hands an already framed packet to the connection.
func (p *Player) SendRaw(data []byte) { p.send(data) }

func (p *Player) Currency() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currency
}

// SetCurrency stores the new balance, tells the client and marks it for
// persistence. Negative balances clamp to zero.
func (p *Player) SetCurrency(v int64) {
	if v < 0 {
		v = 0
	}
	p.mu.Lock()
	p.currency = v
	p.mu.Unlock()
	p.markDirty(DirtyCurrency)
	p.Message(SetCurrencyMessage{Player: p.ID(), Currency: v, Position: p.Position()})
}

func (p *Player) AddCurrency(delta int64) {
	p.SetCurrency(p.Currency() + delta)
}

// EntitleCurrency records currency dropped for p that p may pick up.
func (p *Player) EntitleCurrency(n int64) {
	p.mu.Lock()
	p.entitledCurrency += n
	p.mu.Unlock()
}

func (p *Player) EntitledCurrency() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entitledCurrency
}

// ClaimCurrency moves n from the entitled pool into the balance. Claims
// above the entitled amount are refused.
func (p *Player) ClaimCurrency(n int64) bool {
	p.mu.Lock()
	if n <= 0 || n > p.entitledCurrency {
		p.mu.Unlock()
		return false
	}
	p.entitledCurrency -= n
	p.mu.Unlock()
	p.AddCurrency(n)
	return true
}

func (p *Player) markDirty(flags uint32) {
	for {
		old := p.dirty.Load()
		if p.dirty.CompareAndSwap(old, old|flags) {
			return
		}
	}
}

func (p *Player) markSlotDirty(slot InventorySlot) {
	p.mu.Lock()
	if p.dirtySlots == nil {
		p.dirtySlots = make(map[uint32]InventorySlot)
	}
	p.dirtySlots[slot.Slot] = slot
	p.mu.Unlock()
}

// Dirty reports whether p has state awaiting persistence.
func (p *Player) Dirty() bool {
	p.mu.Lock()
	slots := len(p.dirtySlots)
	p.mu.Unlock()
	return p.dirty.Load() != 0 || slots > 0
}

// Flush writes p's dirty state to store. Fields that fail to save stay
// dirty for the next flush.
func (p *Player) Flush(ctx context.Context, store PlayerStore) error {
	if store == nil {
		return nil
	}
	flags := p.dirty.Swap(0)
	p.mu.Lock()
	slots := p.dirtySlots
	p.dirtySlots = nil
	currency := p.currency
	p.mu.Unlock()

	var errs []error
	if flags&DirtyStats != 0 {
		if s, ok := GetComponent[*Stats](p.GameObject); ok {
			if err := store.SetStats(ctx, p.ID(), s.Record()); err != nil {
				p.markDirty(DirtyStats)
				errs = append(errs, fmt.Errorf("stats: %w", err))
			}
		}
	}
	if flags&DirtyCurrency != 0 {
		if err := store.SetCurrency(ctx, p.ID(), currency); err != nil {
			p.markDirty(DirtyCurrency)
			errs = append(errs, fmt.Errorf("currency: %w", err))
		}
	}
	if flags&DirtyPosition != 0 {
		if t := p.Transform(); t != nil {
			if err := store.SetPosition(ctx, p.ID(), p.Zone().ID(), t.Position(), t.Rotation()); err != nil {
				p.markDirty(DirtyPosition)
				errs = append(errs, fmt.Errorf("position: %w", err))
			}
		}
	}
	for _, slot := range slots {
		if err := store.SetInventorySlot(ctx, p.ID(), slot); err != nil {
			p.markSlotDirty(slot)
			errs = append(errs, fmt.Errorf("slot %d: %w", slot.Slot, err))
		}
	}
	return errors.Join(errs...)
}

// Move updates the character's position from a client report.
func (p *Player) Move(pos Vector3, rot Quaternion) {
	if t := p.Transform(); t != nil {
		t.SetPosition(pos)
		t.SetRotation(rot)
		p.markDirty(DirtyPosition)
	}
}

// ── Zone membership ───────────────────────────────────────────────

// LoadPlayer builds the character behind charID, registers it, constructs
// it for everyone who can see it and sends the new player every object its
// perspective admits.
func (z *Zone) LoadPlayer(ctx context.Context, conn Connection, sessionID uint64, charID ecs.ObjectID) (*Player, error) {
	if z.store == nil {
		return nil, errors.New("zone has no player store")
	}
	rec, err := z.store.LoadCharacter(ctx, charID)
	if err != nil {
		return nil, fmt.Errorf("load character %d: %w", charID, err)
	}
	if _, ok := z.Player(rec.ID); ok {
		return nil, fmt.Errorf("character %d already in zone", rec.ID)
	}

	pos, rot := rec.Position, rec.Rotation
	if rec.ZoneID != z.ID() || pos == (Vector3{}) {
		pos, rot = z.SpawnPoint()
	}
	obj := z.Instantiate(ObjectSpec{
		ID:       rec.ID,
		Lot:      PlayerLot,
		Name:     rec.Name,
		Position: pos,
		Rotation: rot,
		Layer:    LayerPlayer,
		Bare:     true,
	})
	obj.mu.Lock()
	obj.gmLevel = rec.GMLevel
	obj.mu.Unlock()

	p := &Player{
		GameObject:  obj,
		conn:        conn,
		sessionID:   sessionID,
		perspective: NewPerspective(),
		currency:    rec.Currency,
	}
	obj.mu.Lock()
	obj.player = p
	obj.mu.Unlock()

	AddFilter(p.perspective, NewMaskFilter(PlayerViewMask))
	AddFilter(p.perspective, NewRenderDistanceFilter(obj))
	AddFilter(p.perspective, NewFlagFilter())
	AddFilter(p.perspective, NewExcludeFilter())

	AddComponent[*Destructible](obj)
	stats := AddComponent[*Stats](obj)
	stats.Load(rec.Stats)
	stats.SetFactions([]int32{PlayerFaction})
	inv := AddComponent[*Inventory](obj)
	inv.Load(rec.Inventory)
	obj.AddComponentByID(ComponentSkill)
	p.dirty.Store(0)

	z.players.Add(p.ID(), p)
	z.sessMu.Lock()
	z.bySession[sessionID] = p
	z.sessMu.Unlock()

	obj.Start()
	z.RefreshView(p)

	z.log.Info("player loaded",
		zap.Int64("object", int64(p.ID())),
		zap.String("name", rec.Name),
		zap.Uint64("session", sessionID))
	if err := z.OnPlayerLoad.Invoke(p); err != nil {
		z.log.Error("player load listener failed", zap.Error(err))
	}
	return p, nil
}

// RemovePlayer saves and destroys p's character and forgets the session.
func (z *Zone) RemovePlayer(ctx context.Context, p *Player) {
	if !z.players.Remove(p.ID()) {
		return
	}
	z.sessMu.Lock()
	delete(z.bySession, p.sessionID)
	z.sessMu.Unlock()

	if err := p.Flush(ctx, z.store); err != nil {
		z.log.Error("save on leave failed", zap.Int64("object", int64(p.ID())), zap.Error(err))
	}
	if err := z.OnPlayerLeave.Invoke(p); err != nil {
		z.log.Error("player leave listener failed", zap.Error(err))
	}
	p.Destroy()
	for _, obj := range p.perspective.Objects() {
		p.perspective.Drop(obj)
	}
	z.log.Info("player left", zap.Int64("object", int64(p.ID())))
}
