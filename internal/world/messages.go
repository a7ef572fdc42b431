package world

import (
	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/net/packet"
	"go.uber.org/zap"
)

// Game message ids.
const (
	MsgDropClientLoot                uint16 = 30
	MsgDie                           uint16 = 37
	MsgEchoStartSkill                uint16 = 118
	MsgStartSkill                    uint16 = 119
	MsgPlayEmote                     uint16 = 121
	MsgSetCurrency                   uint16 = 133
	MsgPickupCurrency                uint16 = 137
	MsgPickupItem                    uint16 = 139
	MsgResurrect                     uint16 = 160
	MsgRequestUse                    uint16 = 364
	MsgEchoSyncSkill                 uint16 = 1144
	MsgSyncSkill                     uint16 = 1145
	MsgRequestServerProjectileImpact uint16 = 1148
	MsgDoClientProjectileImpact      uint16 = 1151
	MsgKnockback                     uint16 = 1194
)

// GameMessage is a world → client message about one object.
type GameMessage interface {
	MessageID() uint16
	Associate() ecs.ObjectID
	WriteBody(w *packet.Writer)
}

// EncodeGameMessage frames m as a server game message packet.
func EncodeGameMessage(m GameMessage) []byte {
	w := packet.NewUserPacket(packet.ServerGameMessage)
	w.WriteI64(int64(m.Associate()))
	w.WriteU16(m.MessageID())
	m.WriteBody(w)
	return w.Bytes()
}

func writeVector(w *packet.Writer, v Vector3) {
	w.WriteF32(v.X)
	w.WriteF32(v.Y)
	w.WriteF32(v.Z)
}

func readVector(r *packet.Reader) Vector3 {
	return Vector3{X: r.ReadF32(), Y: r.ReadF32(), Z: r.ReadF32()}
}

func writePayload(w *packet.Writer, b []byte) {
	w.WriteU32(uint32(len(b)))
	w.WriteBytes(b)
}

// maxPayload bounds client-declared payload lengths.
const maxPayload = 64 << 10

func readPayload(r *packet.Reader) []byte {
	n := r.ReadU32()
	if n > maxPayload || int(n)*8 > r.RemainingBits() {
		r.ReadBytes(r.RemainingBits()/8 + 1)
		return nil
	}
	return r.ReadBytes(int(n))
}

// ── World → client ────────────────────────────────────────────────

type DieMessage struct {
	Object    ecs.ObjectID
	Killer    ecs.ObjectID
	LootOwner ecs.ObjectID
	SpawnLoot bool
}

func (DieMessage) MessageID() uint16         { return MsgDie }
func (m DieMessage) Associate() ecs.ObjectID { return m.Object }
func (m DieMessage) WriteBody(w *packet.Writer) {
	w.WriteBit(false) // client death
	w.WriteBit(m.SpawnLoot)
	w.WriteWideU32("")
	w.WriteF32(0)
	w.WriteF32(0)
	w.WriteF32(0)
	w.WriteBit(false)
	w.WriteI64(int64(m.Killer))
	w.WriteI64(int64(m.LootOwner))
}

type ResurrectMessage struct {
	Object    ecs.ObjectID
	Immediate bool
}

func (ResurrectMessage) MessageID() uint16         { return MsgResurrect }
func (m ResurrectMessage) Associate() ecs.ObjectID { return m.Object }
func (m ResurrectMessage) WriteBody(w *packet.Writer) {
	w.WriteBit(m.Immediate)
}

// DropClientLootMessage tells the owner a loot object appeared.
type DropClientLootMessage struct {
	Owner         ecs.ObjectID
	Lot           Lot
	LootID        ecs.ObjectID
	Source        ecs.ObjectID
	Currency      int32
	SpawnPosition Vector3
	FinalPosition Vector3
}

func (DropClientLootMessage) MessageID() uint16         { return MsgDropClientLoot }
func (m DropClientLootMessage) Associate() ecs.ObjectID { return m.Owner }
func (m DropClientLootMessage) WriteBody(w *packet.Writer) {
	w.WriteBit(true)
	writeVector(w, m.FinalPosition)
	w.WriteI32(m.Currency)
	w.WriteI32(int32(m.Lot))
	w.WriteI64(int64(m.LootID))
	w.WriteI64(int64(m.Owner))
	w.WriteI64(int64(m.Source))
	writeVector(w, m.SpawnPosition)
}

type SetCurrencyMessage struct {
	Player   ecs.ObjectID
	Currency int64
	Position Vector3
}

func (SetCurrencyMessage) MessageID() uint16         { return MsgSetCurrency }
func (m SetCurrencyMessage) Associate() ecs.ObjectID { return m.Player }
func (m SetCurrencyMessage) WriteBody(w *packet.Writer) {
	w.WriteI64(m.Currency)
	writeVector(w, m.Position)
}

type PlayEmoteMessage struct {
	Object ecs.ObjectID
	Emote  int32
	Target ecs.ObjectID
}

func (PlayEmoteMessage) MessageID() uint16         { return MsgPlayEmote }
func (m PlayEmoteMessage) Associate() ecs.ObjectID { return m.Object }
func (m PlayEmoteMessage) WriteBody(w *packet.Writer) {
	w.WriteI32(m.Emote)
	w.WriteI64(int64(m.Target))
}

type KnockbackMessage struct {
	Target     ecs.ObjectID
	Caster     ecs.ObjectID
	Originator ecs.ObjectID
	Time       int32
	Vector     Vector3
}

func (KnockbackMessage) MessageID() uint16         { return MsgKnockback }
func (m KnockbackMessage) Associate() ecs.ObjectID { return m.Target }
func (m KnockbackMessage) WriteBody(w *packet.Writer) {
	w.WriteI64(int64(m.Caster))
	w.WriteI64(int64(m.Originator))
	w.WriteI32(m.Time)
	writeVector(w, m.Vector)
}

// EchoStartSkillMessage relays a cast to players other than the caster.
type EchoStartSkillMessage struct {
	Caster      ecs.ObjectID
	Target      ecs.ObjectID
	SkillID     uint32
	SkillHandle uint32
	Payload     []byte
}

func (EchoStartSkillMessage) MessageID() uint16         { return MsgEchoStartSkill }
func (m EchoStartSkillMessage) Associate() ecs.ObjectID { return m.Caster }
func (m EchoStartSkillMessage) WriteBody(w *packet.Writer) {
	w.WriteBit(!m.Target.IsZero())
	w.WriteI64(int64(m.Target))
	w.WriteU32(m.SkillID)
	w.WriteU32(m.SkillHandle)
	writePayload(w, m.Payload)
}

type EchoSyncSkillMessage struct {
	Caster         ecs.ObjectID
	Done           bool
	BehaviorHandle uint32
	SkillHandle    uint32
	Payload        []byte
}

func (EchoSyncSkillMessage) MessageID() uint16         { return MsgEchoSyncSkill }
func (m EchoSyncSkillMessage) Associate() ecs.ObjectID { return m.Caster }
func (m EchoSyncSkillMessage) WriteBody(w *packet.Writer) {
	w.WriteBit(m.Done)
	w.WriteU32(m.BehaviorHandle)
	w.WriteU32(m.SkillHandle)
	writePayload(w, m.Payload)
}

type DoClientProjectileImpactMessage struct {
	Object     ecs.ObjectID
	Originator ecs.ObjectID
	Projectile ecs.ObjectID
	Target     ecs.ObjectID
	Payload    []byte
}

func (DoClientProjectileImpactMessage) MessageID() uint16         { return MsgDoClientProjectileImpact }
func (m DoClientProjectileImpactMessage) Associate() ecs.ObjectID { return m.Object }
func (m DoClientProjectileImpactMessage) WriteBody(w *packet.Writer) {
	w.WriteI64(int64(m.Originator))
	w.WriteI64(int64(m.Projectile))
	w.WriteI64(int64(m.Target))
	writePayload(w, m.Payload)
}

// ── Client → world ────────────────────────────────────────────────

// StartSkillMessage is a client cast claim. Payload holds the behavior
// bits the client computed.
type StartSkillMessage struct {
	Target      ecs.ObjectID
	SkillID     uint32
	SkillHandle uint32
	Payload     []byte
}

func ReadStartSkill(r *packet.Reader) StartSkillMessage {
	var m StartSkillMessage
	if r.ReadBit() {
		m.Target = ecs.ObjectID(r.ReadI64())
	} else {
		r.ReadI64()
	}
	m.SkillID = r.ReadU32()
	m.SkillHandle = r.ReadU32()
	m.Payload = readPayload(r)
	return m
}

func (m StartSkillMessage) Write(w *packet.Writer) {
	w.WriteBit(!m.Target.IsZero())
	w.WriteI64(int64(m.Target))
	w.WriteU32(m.SkillID)
	w.WriteU32(m.SkillHandle)
	writePayload(w, m.Payload)
}

type SyncSkillMessage struct {
	Done           bool
	BehaviorHandle uint32
	SkillHandle    uint32
	Payload        []byte
}

func ReadSyncSkill(r *packet.Reader) SyncSkillMessage {
	var m SyncSkillMessage
	m.Done = r.ReadBit()
	m.BehaviorHandle = r.ReadU32()
	m.SkillHandle = r.ReadU32()
	m.Payload = readPayload(r)
	return m
}

func (m SyncSkillMessage) Write(w *packet.Writer) {
	w.WriteBit(m.Done)
	w.WriteU32(m.BehaviorHandle)
	w.WriteU32(m.SkillHandle)
	writePayload(w, m.Payload)
}

type ProjectileImpactMessage struct {
	Projectile ecs.ObjectID
	Target     ecs.ObjectID
	Payload    []byte
}

func ReadProjectileImpact(r *packet.Reader) ProjectileImpactMessage {
	return ProjectileImpactMessage{
		Projectile: ecs.ObjectID(r.ReadI64()),
		Target:     ecs.ObjectID(r.ReadI64()),
		Payload:    readPayload(r),
	}
}

func (m ProjectileImpactMessage) Write(w *packet.Writer) {
	w.WriteI64(int64(m.Projectile))
	w.WriteI64(int64(m.Target))
	writePayload(w, m.Payload)
}

type RequestUseMessage struct {
	Target    ecs.ObjectID
	Secondary bool
}

func ReadRequestUse(r *packet.Reader) RequestUseMessage {
	r.ReadBit() // multi-interact
	r.ReadU32()
	r.ReadI32()
	m := RequestUseMessage{Target: ecs.ObjectID(r.ReadI64())}
	m.Secondary = r.ReadBit()
	return m
}

type PickupCurrencyMessage struct {
	Currency uint32
	Position Vector3
}

func ReadPickupCurrency(r *packet.Reader) PickupCurrencyMessage {
	return PickupCurrencyMessage{Currency: r.ReadU32(), Position: readVector(r)}
}

type PickupItemMessage struct {
	Loot   ecs.ObjectID
	Player ecs.ObjectID
}

func ReadPickupItem(r *packet.Reader) PickupItemMessage {
	return PickupItemMessage{Loot: ecs.ObjectID(r.ReadI64()), Player: ecs.ObjectID(r.ReadI64())}
}

// ── Fan-out ───────────────────────────────────────────────────────

// BroadcastMessage sends m to every player in the zone.
func (z *Zone) BroadcastMessage(m GameMessage) {
	z.SelectiveMessage(m, z.Players())
}

// ExcludingMessage sends m to every player except excluded.
func (z *Zone) ExcludingMessage(m GameMessage, excluded *Player) {
	data := EncodeGameMessage(m)
	for _, p := range z.Players() {
		if p != excluded {
			p.send(data)
		}
	}
}

// SelectiveMessage sends m to the given players.
func (z *Zone) SelectiveMessage(m GameMessage, players []*Player) {
	if len(players) == 0 {
		return
	}
	data := EncodeGameMessage(m)
	for _, p := range players {
		p.send(data)
	}
}

// ChatPacket encodes a general chat line from sender.
func ChatPacket(channel uint8, sender string, senderID ecs.ObjectID, text string) []byte {
	w := packet.NewUserPacket(packet.ServerChat)
	w.WriteU8(channel)
	w.WriteWideU8(sender)
	w.WriteI64(int64(senderID))
	w.WriteWideU32(text)
	return w.Bytes()
}

// Chat publishes a chat line from p to the zone.
func (z *Zone) Chat(p *Player, channel uint8, text string) {
	if err := z.OnChatMessage.Invoke(ChatMessage{Player: p, Channel: channel, Text: text}); err != nil {
		z.log.Error("chat listener failed", zap.Error(err))
	}
	data := ChatPacket(channel, p.Name(), p.ID(), text)
	for _, other := range z.Players() {
		other.send(data)
	}
}
