package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

const (
	stateFullscreen = "_NET_WM_STATE_FULLSCREEN"
	stateMaxVert    = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaxHorz    = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateFocused    = "_NET_WM_STATE_FOCUSED"
	stateHidden     = "_NET_WM_STATE_HIDDEN"
)

// _NET_WM_STATE client message actions.
const (
	stateRemove = 0
	stateAdd    = 1
	stateToggle = 2
)

// IsNormalWindow reports whether a window should be managed by the shell.
// Docks, desktops, splash screens and notifications are mapped as-is.
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

// WindowAppID returns the WM_CLASS class name, which plays the role of an
// application identifier on X11.
func (c *Connection) WindowAppID(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// WindowTitle prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// TransientFor returns the WM_TRANSIENT_FOR window, or 0.
func (c *Connection) TransientFor(windowID xproto.Window) xproto.Window {
	parent, err := icccm.WmTransientForGet(c.XUtil, windowID)
	if err != nil || parent == windowID {
		return 0
	}
	return parent
}

// SetWindowStates rewrites _NET_WM_STATE, keeping atoms the shell does not
// own.
func (c *Connection) SetWindowStates(windowID xproto.Window, want map[string]bool) error {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		states = nil
	}
	for _, name := range []string{stateFullscreen, stateMaxVert, stateMaxHorz, stateFocused} {
		states = editStates(states, name, want[name])
	}
	return ewmh.WmStateSet(c.XUtil, windowID, states)
}

func editStates(states []string, name string, on bool) []string {
	out := make([]string, 0, len(states)+1)
	for _, s := range states {
		if s != name {
			out = append(out, s)
		}
	}
	if on {
		out = append(out, name)
	}
	return out
}

// applyStateAction resolves a _NET_WM_STATE request against the current
// value.
func applyStateAction(current bool, action uint32) bool {
	switch action {
	case stateRemove:
		return false
	case stateAdd:
		return true
	case stateToggle:
		return !current
	}
	return current
}
