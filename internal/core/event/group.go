package event

import "sync"

// Group remembers subscriptions made on behalf of one owner so they can all
// be dropped together when the owner goes away.
type Group struct {
	mu    sync.Mutex
	drops []func()
}

// Listen subscribes fn to e and records the subscription in g.
func Listen[T any](g *Group, e *Event[T], fn func(T)) Token {
	t := e.Add(fn)
	g.mu.Lock()
	g.drops = append(g.drops, func() { e.Remove(t) })
	g.mu.Unlock()
	return t
}

// ListenSignal is Listen for payload-less events.
func ListenSignal(g *Group, s *Signal, fn func()) Token {
	return Listen(g, s, func(struct{}) { fn() })
}

// Clear removes every subscription recorded in g.
func (g *Group) Clear() {
	g.mu.Lock()
	drops := g.drops
	g.drops = nil
	g.mu.Unlock()
	for _, drop := range drops {
		drop()
	}
}

// Len returns the number of recorded subscriptions.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.drops)
}
