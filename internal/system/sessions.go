package system

import (
	"github.com/lugo/server/internal/net"
)

// SessionSet holds the sessions owned by one zone loop. Only that loop
// reads or writes it.
type SessionSet struct {
	m map[uint64]*net.Session
}

func NewSessionSet() *SessionSet {
	return &SessionSet{m: make(map[uint64]*net.Session)}
}

func (s *SessionSet) Add(sess *net.Session) { s.m[sess.ID] = sess }

func (s *SessionSet) Remove(id uint64) { delete(s.m, id) }

func (s *SessionSet) Get(id uint64) (*net.Session, bool) {
	sess, ok := s.m[id]
	return sess, ok
}

func (s *SessionSet) Len() int { return len(s.m) }

// ForEach calls fn for every session. fn may remove the session it is given.
func (s *SessionSet) ForEach(fn func(*net.Session)) {
	for _, sess := range s.m {
		fn(sess)
	}
}
