package x11

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/kioskwm/internal/compositor"
)

// surface adapts a managed client window to compositor.Surface. Sizes are
// the X geometry last reported by the server; X has no buffer offsets.
type surface struct {
	h   *Host
	win xproto.Window

	appID string
	title string

	width  int
	height int
	// prefWidth and prefHeight hold the size the client asked for, restored
	// when the shell lets the client choose.
	prefWidth  int
	prefHeight int

	fullscreen bool
	maximized  bool
	activated  bool

	// viewable is set once the window has been mapped by the host.
	viewable bool
	// gone is set when the window is being unmanaged; no further requests
	// are sent to it.
	gone bool
}

var _ compositor.Surface = (*surface)(nil)

func (s *surface) ID() compositor.SurfaceID { return compositor.SurfaceID(s.win) }
func (s *surface) AppID() string            { return s.appID }
func (s *surface) Title() string            { return s.title }

func (s *surface) Size() (int, int) { return s.width, s.height }

func (s *surface) Geometry() compositor.Rect {
	return compositor.Rect{Width: s.width, Height: s.height}
}

func (s *surface) BoundingBox() compositor.Rect {
	return compositor.Rect{Width: s.width, Height: s.height}
}

func (s *surface) Fullscreen() bool { return s.fullscreen }
func (s *surface) Maximized() bool  { return s.maximized }

func (s *surface) SetFullscreen(on bool) {
	if s.fullscreen == on {
		return
	}
	s.fullscreen = on
	s.pushState()
}

func (s *surface) SetMaximized(on bool) {
	if s.maximized == on {
		return
	}
	s.maximized = on
	s.pushState()
}

func (s *surface) SetActivated(on bool) {
	if s.activated == on {
		return
	}
	s.activated = on
	s.pushState()
}

// SetSize configures the window. 0x0 restores the client's own size.
func (s *surface) SetSize(width, height int) {
	if width == 0 && height == 0 {
		width, height = s.prefWidth, s.prefHeight
	}
	if s.gone || width <= 0 || height <= 0 {
		return
	}
	xproto.ConfigureWindow(s.h.conn.XUtil.Conn(), s.win,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)})
}

// PostNoMemory has no X11 equivalent; the failure is logged.
func (s *surface) PostNoMemory() {
	s.h.logger.Warn("request failed for lack of resources", "window", s.win, "app_id", s.appID)
}

func (s *surface) pushState() {
	if s.gone {
		return
	}
	err := s.h.conn.SetWindowStates(s.win, map[string]bool{
		stateFullscreen: s.fullscreen,
		stateMaxVert:    s.maximized,
		stateMaxHorz:    s.maximized,
		stateFocused:    s.activated,
	})
	if err != nil {
		s.h.logger.Debug("failed to update _NET_WM_STATE", "window", s.win, "error", err)
	}
}

// sendConfigureNotify tells the client its current geometry, as ICCCM
// requires when a configure request is not honoured.
func (s *surface) sendConfigureNotify(x, y int) {
	ev := xproto.ConfigureNotifyEvent{
		Event:            s.win,
		Window:           s.win,
		AboveSibling:     0,
		X:                int16(x),
		Y:                int16(y),
		Width:            uint16(s.width),
		Height:           uint16(s.height),
		BorderWidth:      0,
		OverrideRedirect: false,
	}
	xproto.SendEvent(s.h.conn.XUtil.Conn(), false, s.win,
		xproto.EventMaskStructureNotify, string(ev.Bytes()))
}
