package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateConnected SessionState = iota // socket open, no character yet
	StateLoggedIn                      // character chosen, loading zone
	StateInWorld                       // player object registered in a zone
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateLoggedIn:
		return "LoggedIn"
	case StateInWorld:
		return "InWorld"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for packet handlers. The reader is
// positioned after the user packet header.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

// GameMessageFunc handles one inbound game message. The reader is positioned
// at the message body.
type GameMessageFunc func(sess any, associate int64, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps packet ids and game message ids to handlers with
// state-based access control.
type Registry struct {
	handlers map[uint32]*handlerEntry
	messages map[uint16]GameMessageFunc
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[uint32]*handlerEntry),
		messages: make(map[uint16]GameMessageFunc),
		log:      log,
	}
}

// Register maps a packet id to a handler, restricted to the given session states.
func (reg *Registry) Register(packetID uint32, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[packetID] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// RegisterGameMessage maps a game message kind to its handler. Game messages
// are only accepted from sessions that are in world.
func (reg *Registry) RegisterGameMessage(id uint16, fn GameMessageFunc) {
	reg.messages[id] = fn
}

// HasGameMessage reports whether a handler exists for the message kind.
func (reg *Registry) HasGameMessage(id uint16) bool {
	_, ok := reg.messages[id]
	return ok
}

// Dispatch parses the user packet header, validates the session state, and
// calls the handler. Game messages are routed by their 16-bit kind id.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	if len(data) < UserHeaderSize {
		return fmt.Errorf("short packet: %d bytes", len(data))
	}
	r := NewReader(data)
	if id := r.ReadU8(); id != IDUserPacket {
		reg.log.Debug("ignoring non-user packet", zap.Uint8("id", id))
		return nil
	}
	r.ReadU16() // remote connection type
	packetID := r.ReadU32()
	r.ReadU8()

	if packetID == ClientGameMessage {
		if state != StateInWorld {
			return fmt.Errorf("game message not allowed in state %s", state)
		}
		return reg.dispatchGameMessage(sess, r)
	}

	entry, ok := reg.handlers[packetID]
	if !ok {
		reg.log.Debug("unknown packet id", zap.Uint32("packet", packetID), zap.String("state", state.String()))
		return nil // silently ignore unknown packets
	}
	if !entry.allowedStates[state] {
		reg.log.Warn("packet not allowed in this state",
			zap.Uint32("packet", packetID),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("packet %d not allowed in state %s", packetID, state)
	}
	return reg.safeCall(fmt.Sprintf("packet %d", packetID), func() { entry.fn(sess, r) })
}

func (reg *Registry) dispatchGameMessage(sess any, r *Reader) error {
	associate := r.ReadI64()
	id := r.ReadU16()
	if r.Err() != nil {
		return fmt.Errorf("game message header: %w", r.Err())
	}
	fn, ok := reg.messages[id]
	if !ok {
		reg.log.Warn("no handler for game message",
			zap.Uint16("message", id),
			zap.Int64("associate", associate),
		)
		return nil
	}
	return reg.safeCall(fmt.Sprintf("game message %d", id), func() { fn(sess, associate, r) })
}

// safeCall executes a handler with panic recovery to prevent a single
// bad packet from crashing the entire zone loop.
func (reg *Registry) safeCall(what string, fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("handler", what),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", what, rec)
		}
	}()
	fn()
	return nil
}
