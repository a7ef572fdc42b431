package handler

import (
	"unicode/utf8"

	"github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"go.uber.org/zap"
)

const maxChatRunes = 512

// HandleGeneralChat relays a chat line to the zone.
//
// Layout: [channel u8][text wide u32]
func HandleGeneralChat(sess *net.Session, r *packet.Reader, deps *Deps) {
	channel := r.ReadU8()
	text := r.ReadWideU32()
	if r.Err() != nil || text == "" {
		return
	}
	if utf8.RuneCountInString(text) > maxChatRunes {
		deps.Log.Debug("chat line too long", zap.Uint64("session", sess.ID))
		return
	}
	p, ok := deps.Zone.PlayerBySession(sess.ID)
	if !ok {
		return
	}
	deps.Zone.Chat(p, channel, text)
}
