package packet

// Leading frame identifiers.
const (
	IDReplicaConstruction byte = 0x24
	IDReplicaDestruction  byte = 0x25
	IDReplicaSerialize    byte = 0x27
	IDUserPacket          byte = 0x53
)

// Remote connection types in the user packet header.
const (
	ConnGeneral uint16 = 0
	ConnAuth    uint16 = 1
	ConnChat    uint16 = 2
	ConnServer  uint16 = 4
	ConnClient  uint16 = 5
)

// Client → world packet ids.
const (
	ClientValidation     uint32 = 0x01
	ClientLoginRequest   uint32 = 0x04
	ClientGameMessage    uint32 = 0x05
	ClientGeneralChat    uint32 = 0x0E
	ClientLevelLoaded    uint32 = 0x13
	ClientPositionUpdate uint32 = 0x16
)

// World → client packet ids.
const (
	ServerLoadZone    uint32 = 0x02
	ServerGameMessage uint32 = 0x0C
	ServerChat        uint32 = 0x01
)

// UserHeaderSize is the size of [id u8][conn u16][packet u32][pad u8].
const UserHeaderSize = 8

// GameMessageHeaderSize adds [object i64][message u16] to the user header.
const GameMessageHeaderSize = UserHeaderSize + 8 + 2

// NewUserPacket starts a world → client frame with the user packet header.
func NewUserPacket(packetID uint32) *Writer {
	w := NewWriterWithID(IDUserPacket)
	w.WriteU16(ConnClient)
	w.WriteU32(packetID)
	w.WriteU8(0)
	return w
}
