package kiosk

import (
	"fmt"

	"github.com/1broseidon/kioskwm/internal/compositor"
)

// Edge is a bitmask of window edges named in a resize request.
type Edge uint32

const (
	EdgeNone   Edge = 0
	EdgeTop    Edge = 1
	EdgeBottom Edge = 2
	EdgeLeft   Edge = 4
	EdgeRight  Edge = 8
)

func (c *Controller) lookup(op string, id compositor.SurfaceID) (*Window, error) {
	if c.destroyed {
		return nil, ErrShutdown
	}
	w := c.windows[id]
	if w == nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, ErrUnknownSurface)
	}
	return w, nil
}

// SurfaceAdded starts managing a new client surface as a fullscreen root and
// activates it on every seat. When the view cannot be created the client is
// told and nothing is kept.
func (c *Controller) SurfaceAdded(s compositor.Surface) error {
	if c.destroyed {
		return ErrShutdown
	}
	id := s.ID()
	if _, ok := c.windows[id]; ok {
		return fmt.Errorf("add surface %d: %w", id, ErrSurfaceExists)
	}

	view, err := c.comp.CreateView(s)
	if err != nil {
		c.logger.Warn("no memory to allocate shell surface", "surface", id, "error", err)
		s.PostNoMemory()
		return fmt.Errorf("add surface %d: %w", id, err)
	}

	w := &Window{c: c, surface: s, view: view}
	c.windows[id] = w
	c.windowOrder = append(c.windowOrder, w)

	w.setFullscreen(nil)

	for _, seat := range c.comp.Seats() {
		c.comp.ActivateView(view, seat, compositor.ActivateNone)
	}

	c.logger.Debug("window added",
		"surface", id,
		"app_id", s.AppID(),
		"output", w.output)
	return nil
}

// findFocusSuccessor returns the view that should take focus from w: the top
// mapped view sharing w's root, else the top mapped view of any window.
func (c *Controller) findFocusSuccessor(w *Window) *compositor.View {
	root := w.Root()
	var top *compositor.View

	for _, v := range c.normal.Views() {
		if !v.IsMapped() || v == w.view {
			continue
		}
		vw := c.windows[v.SurfaceID()]
		if vw == nil {
			continue
		}
		if top == nil {
			top = v
		}
		if vw.Root() == root {
			return v
		}
	}
	return top
}

// SurfaceRemoved hands keyboard focus held by the surface to its successor
// and destroys the window.
func (c *Controller) SurfaceRemoved(id compositor.SurfaceID) error {
	w, err := c.lookup("remove surface", id)
	if err != nil {
		return err
	}

	if next := c.findFocusSuccessor(w); next != nil {
		for _, seat := range c.comp.Seats() {
			if kb := seat.Keyboard(); kb != nil && kb.Focus() == id {
				c.comp.ActivateView(next, seat, compositor.ActivateNone)
			}
		}
	}

	w.destroy()
	return nil
}

// Committed applies a new buffer revision. sx and sy give the offset of the
// new buffer relative to the previous one.
func (c *Controller) Committed(id compositor.SurfaceID, sx, sy int) error {
	w, err := c.lookup("commit", id)
	if err != nil {
		return err
	}
	w.committed(sx, sy)
	return nil
}

// Move starts an interactive move when the request matches the seat's
// current pointer or touch grab. A failed grab is reported to the client.
func (c *Controller) Move(id compositor.SurfaceID, seat *compositor.Seat, serial uint32) error {
	w, err := c.lookup("move", id)
	if err != nil {
		return err
	}
	if c.grabber == nil {
		c.logger.Debug("move request ignored, no grab support", "surface", id)
		return nil
	}

	p := seat.Pointer()
	t := seat.Touch()
	switch {
	case p != nil && p.Focus != nil && p.ButtonCount > 0 && p.GrabSerial == serial:
		if p.Focus.SurfaceID() != id {
			return nil
		}
		if err := c.grabber.StartPointerMove(w.view, p); err != nil {
			c.logger.Warn("pointer move grab failed", "surface", id, "error", err)
			w.surface.PostNoMemory()
		}
	case t != nil && t.Focus != nil && t.GrabSerial == serial:
		if t.Focus.SurfaceID() != id {
			return nil
		}
		if err := c.grabber.StartTouchMove(w.view, t); err != nil {
			c.logger.Warn("touch move grab failed", "surface", id, "error", err)
			w.surface.PostNoMemory()
		}
	}
	return nil
}

// Resize is accepted and ignored: windows are sized by policy.
func (c *Controller) Resize(id compositor.SurfaceID, _ *compositor.Seat, _ uint32, _ Edge) error {
	_, err := c.lookup("resize", id)
	return err
}

// SetParent links a surface to a parent, or makes it a root when parent is
// NoSurface.
func (c *Controller) SetParent(id, parent compositor.SurfaceID) error {
	w, err := c.lookup("set parent", id)
	if err != nil {
		return err
	}

	var p *Window
	if parent != compositor.NoSurface {
		p = c.windows[parent]
		if p == nil {
			return fmt.Errorf("set parent of %d to %d: %w", id, parent, ErrUnknownSurface)
		}
		if p.isDescendantOf(w) {
			c.logger.Warn("rejected parent cycle", "surface", id, "parent", parent)
			return fmt.Errorf("set parent of %d to %d: %w", id, parent, ErrParentCycle)
		}
	}
	w.setParent(p)
	return nil
}

// FullscreenRequested handles a client fullscreen request. Roots are always
// put back into fullscreen; a child leaving fullscreen becomes normal.
func (c *Controller) FullscreenRequested(id compositor.SurfaceID, fullscreen bool, output compositor.OutputID) error {
	w, err := c.lookup("fullscreen", id)
	if err != nil {
		return err
	}
	if w.parent == compositor.NoSurface || fullscreen {
		w.setFullscreen(c.comp.Output(output))
	} else {
		w.setNormal()
	}
	return nil
}

// MaximizedRequested handles a client maximize request. Roots are forced back
// to fullscreen.
func (c *Controller) MaximizedRequested(id compositor.SurfaceID, maximized bool) error {
	w, err := c.lookup("maximize", id)
	if err != nil {
		return err
	}
	switch {
	case w.parent == compositor.NoSurface:
		w.setFullscreen(nil)
	case maximized:
		w.setMaximized()
	default:
		w.setNormal()
	}
	return nil
}

// MinimizedRequested is accepted and ignored.
func (c *Controller) MinimizedRequested(id compositor.SurfaceID) error {
	_, err := c.lookup("minimize", id)
	return err
}

// PingTimeout is accepted and ignored.
func (c *Controller) PingTimeout(compositor.SurfaceID) {}

// Pong is accepted and ignored.
func (c *Controller) Pong(compositor.SurfaceID) {}

// SetExplicitPosition records a client-chosen position. Normal windows that
// carry one are placed there on map instead of being centred.
func (c *Controller) SetExplicitPosition(id compositor.SurfaceID, x, y int) error {
	w, err := c.lookup("set position", id)
	if err != nil {
		return err
	}
	w.hint = placementHint{x: x, y: y, set: true}
	return nil
}

// GetPosition returns the current position of the window's view.
func (c *Controller) GetPosition(id compositor.SurfaceID) (x, y int, err error) {
	w, err := c.lookup("get position", id)
	if err != nil {
		return 0, 0, err
	}
	x, y = w.view.Position()
	return x, y, nil
}
