package kiosk

import "github.com/1broseidon/kioskwm/internal/compositor"

// OutputInfo describes a live output.
type OutputInfo struct {
	ID      compositor.OutputID `json:"id"`
	Name    string              `json:"name"`
	X       int                 `json:"x"`
	Y       int                 `json:"y"`
	Width   int                 `json:"width"`
	Height  int                 `json:"height"`
	AppIDs  string              `json:"app_ids,omitempty"`
	Windows int                 `json:"windows"`
}

// WindowInfo describes a managed window.
type WindowInfo struct {
	SurfaceID  compositor.SurfaceID `json:"surface_id"`
	AppID      string               `json:"app_id,omitempty"`
	Title      string               `json:"title,omitempty"`
	Mode       string               `json:"mode"`
	Output     compositor.OutputID  `json:"output,omitempty"`
	Parent     compositor.SurfaceID `json:"parent,omitempty"`
	Root       compositor.SurfaceID `json:"root"`
	Activated  bool                 `json:"activated"`
	FocusCount int                  `json:"focus_count"`
	Mapped     bool                 `json:"mapped"`
	X          int                  `json:"x"`
	Y          int                  `json:"y"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
}

// SeatInfo describes a seat and its keyboard focus.
type SeatInfo struct {
	Name     string               `json:"name"`
	Keyboard bool                 `json:"keyboard"`
	Focus    compositor.SurfaceID `json:"focus,omitempty"`
}

// Snapshot is a point-in-time view of shell state.
type Snapshot struct {
	Outputs []OutputInfo `json:"outputs"`
	Windows []WindowInfo `json:"windows"`
	Seats   []SeatInfo   `json:"seats"`
}

// Snapshot captures outputs, windows (stacking order, topmost first, then
// unmapped windows) and seats.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Outputs: []OutputInfo{},
		Windows: []WindowInfo{},
		Seats:   []SeatInfo{},
	}

	counts := make(map[compositor.OutputID]int)
	seen := make(map[compositor.SurfaceID]bool)
	add := func(w *Window) {
		if seen[w.ID()] {
			return
		}
		seen[w.ID()] = true
		snap.Windows = append(snap.Windows, w.info())
		if w.output != compositor.NoOutput {
			counts[w.output]++
		}
	}
	for _, v := range c.normal.Views() {
		if w := c.windows[v.SurfaceID()]; w != nil {
			add(w)
		}
	}
	for _, w := range c.windowOrder {
		add(w)
	}

	for _, e := range c.outputs {
		if e.output == nil {
			continue
		}
		o := e.output
		snap.Outputs = append(snap.Outputs, OutputInfo{
			ID:      o.ID,
			Name:    o.Name,
			X:       o.X,
			Y:       o.Y,
			Width:   o.Width,
			Height:  o.Height,
			AppIDs:  e.appIDs,
			Windows: counts[o.ID],
		})
	}

	for _, t := range c.seats {
		snap.Seats = append(snap.Seats, SeatInfo{
			Name:     t.seat.Name,
			Keyboard: t.seat.Keyboard() != nil,
			Focus:    t.focused,
		})
	}
	return snap
}

func (w *Window) info() WindowInfo {
	x, y := w.view.Position()
	width, height := w.surface.Size()
	return WindowInfo{
		SurfaceID:  w.ID(),
		AppID:      w.surface.AppID(),
		Title:      w.surface.Title(),
		Mode:       w.mode.String(),
		Output:     w.output,
		Parent:     w.parent,
		Root:       w.Root().ID(),
		Activated:  w.focusCount > 0,
		FocusCount: w.focusCount,
		Mapped:     w.view.IsMapped(),
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
	}
}
