package kiosk

import (
	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/signal"
)

// seatTracker mirrors keyboard focus of one seat into window activation.
type seatTracker struct {
	c       *Controller
	seat    *compositor.Seat
	focused compositor.SurfaceID

	keyboardFocus signal.Listener[*compositor.Keyboard]
	capsChanged   signal.Listener[*compositor.Seat]
	seatDestroy   signal.Listener[*compositor.Seat]
}

func (c *Controller) createSeatTracker(seat *compositor.Seat) *seatTracker {
	t := &seatTracker{c: c, seat: seat}
	seat.DestroySignal.Add(&t.seatDestroy, func(*compositor.Seat) { t.destroy() })
	seat.UpdatedCapsSignal.Add(&t.capsChanged, func(*compositor.Seat) { t.handleCapsChanged() })
	c.seats = append(c.seats, t)
	t.handleCapsChanged()

	c.logger.Debug("seat added", "seat", seat.Name)
	return t
}

func (t *seatTracker) handleCapsChanged() {
	kb := t.seat.Keyboard()
	switch {
	case kb != nil && !t.keyboardFocus.Active():
		kb.FocusSignal.Add(&t.keyboardFocus, t.handleKeyboardFocus)
	case kb == nil:
		t.release()
		t.keyboardFocus.Remove()
	}
}

func (t *seatTracker) handleKeyboardFocus(kb *compositor.Keyboard) {
	t.release()
	t.focused = kb.Focus()

	if w := t.c.windows[t.focused]; w != nil {
		if w.focusCount == 0 {
			w.surface.SetActivated(true)
		}
		w.focusCount++
	}
}

// release drops the reference held on the focused window.
func (t *seatTracker) release() {
	if w := t.c.windows[t.focused]; w != nil && w.focusCount > 0 {
		w.focusCount--
		if w.focusCount == 0 {
			w.surface.SetActivated(false)
		}
	}
	t.focused = compositor.NoSurface
}

func (t *seatTracker) destroy() {
	t.release()
	t.keyboardFocus.Remove()
	t.capsChanged.Remove()
	t.seatDestroy.Remove()
	t.c.unlinkSeatTracker(t)
	t.c.logger.Debug("seat removed", "seat", t.seat.Name)
}
