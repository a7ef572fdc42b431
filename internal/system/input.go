package system

import (
	"time"

	coresys "github.com/lugo/server/internal/core/system"
	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"go.uber.org/zap"
)

// InputSystem adopts sessions handed to this zone and drains their inbound
// queues through the packet registry. Phase 0 (Input).
type InputSystem struct {
	registry   *packet.Registry
	sessions   *SessionSet
	incoming   chan *net.Session
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(registry *packet.Registry, sessions *SessionSet, maxPerTick int, log *zap.Logger) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 32
	}
	return &InputSystem{
		registry:   registry,
		sessions:   sessions,
		incoming:   make(chan *net.Session, 64),
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Adopt hands sess to this zone. Safe from any goroutine; the session joins
// on the zone's next input pass.
func (s *InputSystem) Adopt(sess *net.Session) {
	select {
	case s.incoming <- sess:
	case <-sess.Done():
	}
}

// Release stops this zone from reading sess without closing it. Called from
// the zone loop when the session moves to another zone.
func (s *InputSystem) Release(sess *net.Session) {
	s.sessions.Remove(sess.ID)
}

func (s *InputSystem) Update(_ time.Duration) {
accept:
	for {
		select {
		case sess := <-s.incoming:
			s.sessions.Add(sess)
		default:
			break accept
		}
	}

	s.sessions.ForEach(s.drain)

	// Early flush so replies from this phase reach the writer while the rest
	// of the tick runs. OutputSystem flushes the remainder.
	s.sessions.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// drain dispatches up to maxPerTick packets. Packets still queued on a
// closed session are dispatched too, so a final position update is kept.
func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		var data []byte
		select {
		case data = <-sess.InQueue:
		default:
			return
		}
		if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
			s.log.Debug("packet dispatch failed",
				zap.Uint64("session", sess.ID),
				zap.Error(err),
			)
		}
		if _, owned := s.sessions.Get(sess.ID); !owned {
			return
		}
	}
}
