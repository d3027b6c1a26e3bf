package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// ErrOtherWM is returned when another window manager owns the root window.
var ErrOtherWM = errors.New("another window manager is already running")

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection connects to display ("" uses $DISPLAY) and initializes the
// extensions the host needs.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	// Required for click-to-activate button grabs.
	mousebind.Initialize(xu)

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// BecomeWM selects substructure redirection on the root window. Only one
// client may hold it.
func (c *Connection) BecomeWM() error {
	err := xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(),
		c.Root,
		xproto.CwEventMask,
		[]uint32{
			xproto.EventMaskSubstructureRedirect |
				xproto.EventMaskSubstructureNotify |
				xproto.EventMaskStructureNotify |
				xproto.EventMaskPropertyChange,
		},
	).Check()
	if err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return ErrOtherWM
		}
		return err
	}

	return randr.SelectInputChecked(
		c.XUtil.Conn(),
		c.Root,
		randr.NotifyMaskScreenChange|randr.NotifyMaskCrtcChange|randr.NotifyMaskOutputChange,
	).Check()
}

// Quit stops the event loop started by the host.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
