package event

import (
	"errors"
	"fmt"
	"sync"
)

// Token identifies one subscription on an Event.
type Token uint64

type listener[T any] struct {
	token Token
	fn    func(T)
}

// Event is an ordered observer list. Listeners run in subscription order;
// Invoke works on a snapshot so listeners may subscribe or unsubscribe
// (themselves included) while being dispatched.
type Event[T any] struct {
	mu        sync.Mutex
	next      Token
	listeners []listener[T]
}

// Signal is an event without a payload.
type Signal = Event[struct{}]

// Add subscribes fn and returns the token that removes it.
func (e *Event[T]) Add(fn func(T)) Token {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.listeners = append(e.listeners, listener[T]{token: e.next, fn: fn})
	return e.next
}

// Remove unsubscribes the listener behind t. Unknown tokens are ignored.
func (e *Event[T]) Remove(t Token) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.listeners {
		if l.token == t {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every listener.
func (e *Event[T]) Clear() {
	e.mu.Lock()
	e.listeners = nil
	e.mu.Unlock()
}

// Len returns the number of listeners.
func (e *Event[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Invoke calls every listener with v. A panicking listener does not stop
// the others; the recovered panics come back joined in the returned error.
func (e *Event[T]) Invoke(v T) error {
	e.mu.Lock()
	snapshot := make([]listener[T], len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()

	var errs []error
	for _, l := range snapshot {
		if err := call(l.fn, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fire invokes a Signal.
func Fire(s *Signal) error {
	return s.Invoke(struct{}{})
}

func call[T any](fn func(T), v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	fn(v)
	return nil
}
