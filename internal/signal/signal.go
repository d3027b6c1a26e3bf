// Package signal implements destroy/change notices with single-slot
// listeners. A Listener is attached to at most one Signal at a time and must
// be removed before its owner goes away.
package signal

// Listener is a subscription slot. The zero value is an empty slot.
type Listener[T any] struct {
	notify func(T)
	signal *Signal[T]
}

// Active reports whether the slot is currently attached to a signal.
func (l *Listener[T]) Active() bool {
	return l != nil && l.signal != nil
}

// Remove detaches the listener. Removing an empty slot is a no-op.
func (l *Listener[T]) Remove() {
	if l == nil || l.signal == nil {
		return
	}
	s := l.signal
	for i, other := range s.listeners {
		if other == l {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			break
		}
	}
	l.signal = nil
	l.notify = nil
}

// Signal is an ordered list of listeners.
type Signal[T any] struct {
	listeners []*Listener[T]
}

// Add attaches l to s with the given callback. If l is already attached
// somewhere it is moved.
func (s *Signal[T]) Add(l *Listener[T], notify func(T)) {
	l.Remove()
	l.notify = notify
	l.signal = s
	s.listeners = append(s.listeners, l)
}

// Emit calls every listener attached when Emit started. Listeners removed by
// an earlier callback in the same emission are skipped.
func (s *Signal[T]) Emit(v T) {
	snapshot := append([]*Listener[T](nil), s.listeners...)
	for _, l := range snapshot {
		if l.signal != s || l.notify == nil {
			continue
		}
		l.notify(v)
	}
}

// Len returns the number of attached listeners.
func (s *Signal[T]) Len() int {
	return len(s.listeners)
}
