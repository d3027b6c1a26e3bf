package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

var supportedAtoms = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_CLIENT_LIST",
	"_NET_CLIENT_LIST_STACKING",
	"_NET_ACTIVE_WINDOW",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_CURRENT_DESKTOP",
	"_NET_WM_STATE",
	stateFullscreen,
	stateMaxVert,
	stateMaxHorz,
	stateFocused,
	stateHidden,
	"_NET_WM_MOVERESIZE",
}

// AnnounceWM publishes the EWMH properties that identify a compliant window
// manager. The returned window must live as long as the connection.
func (c *Connection) AnnounceWM(name string) (*xwindow.Window, error) {
	win, err := xwindow.Create(c.XUtil, c.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create check window: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, c.Root, win.Id); err != nil {
		return nil, err
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, win.Id, win.Id); err != nil {
		return nil, err
	}
	if err := ewmh.WmNameSet(c.XUtil, win.Id, name); err != nil {
		return nil, err
	}
	if err := ewmh.SupportedSet(c.XUtil, supportedAtoms); err != nil {
		return nil, err
	}

	// A kiosk has exactly one desktop.
	if err := ewmh.NumberOfDesktopsSet(c.XUtil, 1); err != nil {
		return nil, err
	}
	if err := ewmh.CurrentDesktopSet(c.XUtil, 0); err != nil {
		return nil, err
	}
	return win, nil
}

// SetClientLists updates _NET_CLIENT_LIST (mapping order) and
// _NET_CLIENT_LIST_STACKING (bottom to top).
func (c *Connection) SetClientLists(mapped, stacking []xproto.Window) {
	if mapped == nil {
		mapped = []xproto.Window{}
	}
	if stacking == nil {
		stacking = []xproto.Window{}
	}
	ewmh.ClientListSet(c.XUtil, mapped)
	ewmh.ClientListStackingSet(c.XUtil, stacking)
}

// FocusWindow gives X input focus to a window and records it as active. A
// zero window returns focus to the pointer root.
func (c *Connection) FocusWindow(windowID xproto.Window) {
	if windowID == 0 {
		xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, xproto.InputFocusPointerRoot, xproto.TimeCurrentTime)
		ewmh.ActiveWindowSet(c.XUtil, 0)
		return
	}
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, windowID, xproto.TimeCurrentTime)
	ewmh.ActiveWindowSet(c.XUtil, windowID)
}

// Restack orders windows top to bottom as given.
func (c *Connection) Restack(windows []xproto.Window) {
	if len(windows) == 0 {
		return
	}
	xproto.ConfigureWindow(c.XUtil.Conn(), windows[0],
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	for _, p := range stackPairs(windows) {
		xproto.ConfigureWindow(c.XUtil.Conn(), p[0],
			xproto.ConfigWindowSibling|xproto.ConfigWindowStackMode,
			[]uint32{uint32(p[1]), xproto.StackModeBelow})
	}
}

// stackPairs returns (window, sibling) pairs placing each window directly
// below its predecessor.
func stackPairs(windows []xproto.Window) [][2]xproto.Window {
	if len(windows) < 2 {
		return nil
	}
	pairs := make([][2]xproto.Window, 0, len(windows)-1)
	for i := 1; i < len(windows); i++ {
		pairs = append(pairs, [2]xproto.Window{windows[i], windows[i-1]})
	}
	return pairs
}
