package compositor

import "github.com/1broseidon/kioskwm/internal/signal"

// Keyboard holds keyboard focus for a seat.
type Keyboard struct {
	seat  *Seat
	focus SurfaceID

	// FocusSignal fires after the focused surface changes.
	FocusSignal signal.Signal[*Keyboard]
}

// Seat returns the owning seat.
func (k *Keyboard) Seat() *Seat { return k.seat }

// Focus returns the focused main surface, or NoSurface.
func (k *Keyboard) Focus() SurfaceID { return k.focus }

// SetFocus moves keyboard focus. Setting the current focus again is a no-op.
func (k *Keyboard) SetFocus(id SurfaceID) {
	if k.focus == id {
		return
	}
	k.focus = id
	k.FocusSignal.Emit(k)
}

// Pointer is the pointer state of a seat.
type Pointer struct {
	seat *Seat

	// Focus is the view under the pointer, or nil.
	Focus       *View
	ButtonCount int
	GrabSerial  uint32

	grabbed bool
}

// Seat returns the owning seat.
func (p *Pointer) Seat() *Seat { return p.seat }

// DefaultGrab reports whether no other grab owns the pointer.
func (p *Pointer) DefaultGrab() bool { return !p.grabbed }

// StartGrab marks a non-default grab as active.
func (p *Pointer) StartGrab() { p.grabbed = true }

// EndGrab restores the default grab.
func (p *Pointer) EndGrab() { p.grabbed = false }

// Touch is the touch state of a seat.
type Touch struct {
	seat *Seat

	Focus      *View
	GrabSerial uint32

	grabbed bool
}

// Seat returns the owning seat.
func (t *Touch) Seat() *Seat { return t.seat }

// DefaultGrab reports whether no other grab owns touch input.
func (t *Touch) DefaultGrab() bool { return !t.grabbed }

// StartGrab marks a non-default grab as active.
func (t *Touch) StartGrab() { t.grabbed = true }

// EndGrab restores the default grab.
func (t *Touch) EndGrab() { t.grabbed = false }

// Seat groups the input devices of one user.
type Seat struct {
	ID   SeatID
	Name string

	caps     Capabilities
	keyboard *Keyboard
	pointer  *Pointer
	touch    *Touch

	DestroySignal     signal.Signal[*Seat]
	UpdatedCapsSignal signal.Signal[*Seat]
}

func newSeat(id SeatID, name string) *Seat {
	s := &Seat{ID: id, Name: name}
	s.keyboard = &Keyboard{seat: s}
	s.pointer = &Pointer{seat: s}
	s.touch = &Touch{seat: s}
	return s
}

// Capabilities returns the current capability set.
func (s *Seat) Capabilities() Capabilities { return s.caps }

// SetCapabilities changes the exposed devices and notifies listeners.
// Device state survives a release so listeners attached to it stay valid.
// Releasing the keyboard clears its focus first.
func (s *Seat) SetCapabilities(caps Capabilities) {
	if s.caps == caps {
		return
	}
	if s.caps&CapKeyboard != 0 && caps&CapKeyboard == 0 {
		s.keyboard.SetFocus(NoSurface)
	}
	s.caps = caps
	s.UpdatedCapsSignal.Emit(s)
}

// Keyboard returns the keyboard, or nil when the seat has none.
func (s *Seat) Keyboard() *Keyboard {
	if s.caps&CapKeyboard == 0 {
		return nil
	}
	return s.keyboard
}

// Pointer returns the pointer, or nil when the seat has none.
func (s *Seat) Pointer() *Pointer {
	if s.caps&CapPointer == 0 {
		return nil
	}
	return s.pointer
}

// Touch returns the touch device, or nil when the seat has none.
func (s *Seat) Touch() *Touch {
	if s.caps&CapTouch == 0 {
		return nil
	}
	return s.touch
}
