package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/kioskwm/internal/compositor"
)

// _NET_WM_MOVERESIZE directions that start a move.
const (
	moveResizeMove         = 8
	moveResizeMoveKeyboard = 10
)

func (h *Host) onMapRequest(xu *xgbutil.XUtil, ev xevent.MapRequestEvent) {
	if s := h.surfaces[ev.Window]; s != nil {
		xproto.MapWindow(xu.Conn(), ev.Window)
		return
	}
	if !h.conn.IsNormalWindow(ev.Window) {
		xproto.MapWindow(xu.Conn(), ev.Window)
		return
	}
	h.manage(ev.Window)
}

func (h *Host) onConfigureRequest(xu *xgbutil.XUtil, ev xevent.ConfigureRequestEvent) {
	s := h.surfaces[ev.Window]
	if s == nil {
		passThroughConfigure(xu, ev)
		return
	}

	m := ev.ValueMask
	if m&xproto.ConfigWindowWidth != 0 {
		s.prefWidth = int(ev.Width)
	}
	if m&xproto.ConfigWindowHeight != 0 {
		s.prefHeight = int(ev.Height)
	}
	if m&(xproto.ConfigWindowX|xproto.ConfigWindowY) != 0 {
		x, y := int(ev.X), int(ev.Y)
		if v := h.comp.ViewForSurface(s.ID()); v != nil {
			vx, vy := v.Position()
			if m&xproto.ConfigWindowX == 0 {
				x = vx
			}
			if m&xproto.ConfigWindowY == 0 {
				y = vy
			}
		}
		if err := h.shell.SetExplicitPosition(s.ID(), x, y); err != nil {
			h.logger.Debug("position request failed", "window", s.win, "error", err)
		}
	}

	if !s.fullscreen && !s.maximized && m&(xproto.ConfigWindowWidth|xproto.ConfigWindowHeight) != 0 {
		s.SetSize(s.prefWidth, s.prefHeight)
		return
	}

	x, y := 0, 0
	if v := h.comp.ViewForSurface(s.ID()); v != nil {
		x, y = v.Position()
	}
	s.sendConfigureNotify(x, y)
}

// passThroughConfigure applies a configure request from a window the shell
// does not manage.
func passThroughConfigure(xu *xgbutil.XUtil, ev xevent.ConfigureRequestEvent) {
	var values []uint32
	m := ev.ValueMask
	if m&xproto.ConfigWindowX != 0 {
		values = append(values, uint32(int32(ev.X)))
	}
	if m&xproto.ConfigWindowY != 0 {
		values = append(values, uint32(int32(ev.Y)))
	}
	if m&xproto.ConfigWindowWidth != 0 {
		values = append(values, uint32(ev.Width))
	}
	if m&xproto.ConfigWindowHeight != 0 {
		values = append(values, uint32(ev.Height))
	}
	if m&xproto.ConfigWindowBorderWidth != 0 {
		values = append(values, uint32(ev.BorderWidth))
	}
	if m&xproto.ConfigWindowSibling != 0 {
		values = append(values, uint32(ev.Sibling))
	}
	if m&xproto.ConfigWindowStackMode != 0 {
		values = append(values, uint32(ev.StackMode))
	}
	xproto.ConfigureWindow(xu.Conn(), ev.Window, m, values)
}

func (h *Host) onConfigureNotify(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
	s := h.surfaces[ev.Window]
	if s == nil || s.gone {
		return
	}
	width, height := int(ev.Width), int(ev.Height)
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	if err := h.shell.Committed(s.ID(), 0, 0); err != nil {
		h.logger.Debug("commit failed", "window", s.win, "error", err)
	}
}

func (h *Host) onUnmapNotify(_ *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
	h.unmanage(ev.Window)
}

func (h *Host) onDestroyNotify(_ *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	h.unmanage(ev.Window)
}

func (h *Host) onPropertyNotify(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	s := h.surfaces[ev.Window]
	if s == nil || s.gone {
		return
	}
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "WM_TRANSIENT_FOR":
		h.setParent(s, h.conn.TransientFor(s.win))
	case "_NET_WM_NAME", "WM_NAME":
		s.title = h.conn.WindowTitle(s.win)
	}
}

func (h *Host) onClientMessage(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
	s := h.surfaces[ev.Window]
	if s == nil || s.gone || ev.Format != 32 {
		return
	}
	name, err := xprop.AtomName(xu, ev.Type)
	if err != nil {
		return
	}
	data := ev.Data.Data32
	id := s.ID()

	switch name {
	case "_NET_WM_STATE":
		h.handleStateRequest(s, data)
	case "_NET_ACTIVE_WINDOW":
		err = h.shell.ActivateSurface(id)
	case "_NET_WM_MOVERESIZE":
		if dir := data[2]; dir == moveResizeMove || dir == moveResizeMoveKeyboard {
			p := h.seat.Pointer()
			err = h.shell.Move(id, h.seat, p.GrabSerial)
		}
	case "WM_CHANGE_STATE":
		if data[0] == icccm.StateIconic {
			err = h.shell.MinimizedRequested(id)
		}
	}
	if err != nil {
		h.logger.Debug("client request failed", "window", s.win, "request", name, "error", err)
	}
}

func (h *Host) handleStateRequest(s *surface, data []uint32) {
	action := data[0]
	maximize := false
	sawMax := false
	for _, atom := range data[1:3] {
		if atom == 0 {
			continue
		}
		name, err := xprop.AtomName(h.conn.XUtil, xproto.Atom(atom))
		if err != nil {
			continue
		}

		var reqErr error
		switch name {
		case stateFullscreen:
			reqErr = h.shell.FullscreenRequested(s.ID(), applyStateAction(s.fullscreen, action), compositor.NoOutput)
		case stateMaxVert, stateMaxHorz:
			// Both halves usually arrive in one message.
			sawMax = true
			maximize = applyStateAction(s.maximized, action)
		case stateHidden:
			if applyStateAction(false, action) {
				reqErr = h.shell.MinimizedRequested(s.ID())
			}
		}
		if reqErr != nil {
			h.logger.Debug("state request failed", "window", s.win, "state", name, "error", reqErr)
		}
	}
	if sawMax {
		if err := h.shell.MaximizedRequested(s.ID(), maximize); err != nil {
			h.logger.Debug("maximize request failed", "window", s.win, "error", err)
		}
	}
}

func (h *Host) onButtonPress(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
	// The grab is synchronous: replay the click to the client once the
	// bindings ran.
	defer xproto.AllowEvents(xu.Conn(), xproto.AllowReplayPointer, ev.Time)

	v := h.comp.ViewForSurface(compositor.SurfaceID(ev.Event))
	if v == nil {
		v = h.comp.ViewAt(int(ev.RootX), int(ev.RootY))
	}
	h.comp.NotifyButton(h.seat, v, uint32(ev.Detail), uint32(ev.Time))
	// Replayed presses release inside the client; the host never sees it.
	// ButtonCount is therefore back to zero before any _NET_WM_MOVERESIZE
	// arrives, and pointer move grabs cannot start under this host.
	h.comp.NotifyButtonRelease(h.seat)
}
