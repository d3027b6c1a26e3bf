package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/1broseidon/kioskwm/internal/compositor"
)

// backend renders compositor views onto the X server. Client views are the
// client windows themselves; coloured views get an override-redirect window
// filled with their background pixel.
type backend struct {
	h     *Host
	fills map[*compositor.View]*xwindow.Window
}

var _ compositor.Backend = (*backend)(nil)

func newBackend(h *Host) *backend {
	return &backend{h: h, fills: make(map[*compositor.View]*xwindow.Window)}
}

func (b *backend) ViewCreated(v *compositor.View) error {
	if v.Surface() != nil {
		return nil
	}

	win, err := xwindow.Generate(b.h.conn.XUtil)
	if err != nil {
		return fmt.Errorf("allocate window id: %w", err)
	}
	r := v.Rect()
	err = win.CreateChecked(b.h.conn.Root,
		r.X, r.Y, max(r.Width, 1), max(r.Height, 1),
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		pixelFor(v.Color()), 1)
	if err != nil {
		return fmt.Errorf("create fill window: %w", err)
	}
	b.fills[v] = win
	return nil
}

func (b *backend) ViewUpdated(v *compositor.View) {
	if win, ok := b.fills[v]; ok {
		r := v.Rect()
		win.MoveResize(r.X, r.Y, max(r.Width, 1), max(r.Height, 1))
		if v.IsMapped() {
			win.Map()
		} else {
			win.Unmap()
		}
		return
	}

	s := b.h.surfaces[xproto.Window(v.SurfaceID())]
	if s == nil || s.gone {
		return
	}
	x, y := v.Position()
	xproto.ConfigureWindow(b.h.conn.XUtil.Conn(), s.win,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(int32(x)), uint32(int32(y))})
}

func (b *backend) ViewDamaged(v *compositor.View) {
	if win, ok := b.fills[v]; ok {
		xproto.ClearArea(b.h.conn.XUtil.Conn(), true, win.Id, 0, 0, 0, 0)
	}
}

func (b *backend) ViewDestroyed(v *compositor.View) {
	if win, ok := b.fills[v]; ok {
		win.Destroy()
		delete(b.fills, v)
	}
}

func (b *backend) LayerChanged(*compositor.Layer) {
	stack := b.h.comp.Stack()
	windows := make([]xproto.Window, 0, len(stack))
	for _, v := range stack {
		if win, ok := b.windowFor(v); ok {
			windows = append(windows, win)
		}
	}
	b.h.conn.Restack(windows)
	b.h.updateClientLists()
}

func (b *backend) windowFor(v *compositor.View) (xproto.Window, bool) {
	if win, ok := b.fills[v]; ok {
		return win.Id, true
	}
	s := b.h.surfaces[xproto.Window(v.SurfaceID())]
	if s == nil || s.gone {
		return 0, false
	}
	return s.win, true
}

// pixelFor packs a colour for a 24-bit TrueColor visual.
func pixelFor(c compositor.Color) uint32 {
	r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
