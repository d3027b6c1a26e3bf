package kiosk

import (
	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/signal"
)

// Mode is the placement state of a window.
type Mode int

const (
	ModeFullscreen Mode = iota
	ModeMaximized
	ModeNormal
)

func (m Mode) String() string {
	switch m {
	case ModeFullscreen:
		return "fullscreen"
	case ModeMaximized:
		return "maximized"
	case ModeNormal:
		return "normal"
	default:
		return "unknown"
	}
}

type placementHint struct {
	x, y int
	set  bool
}

// Window is the shell state of one client top-level or transient surface.
// Output and parent are weak: they hold IDs that are reset by destroy
// notices before the referent goes away.
type Window struct {
	c       *Controller
	surface compositor.Surface
	view    *compositor.View

	output compositor.OutputID
	parent compositor.SurfaceID
	mode   Mode

	lastWidth  int
	lastHeight int
	focusCount int
	hint       placementHint

	// successor is the child promoted to root when this root is destroyed;
	// its siblings are re-parented to it.
	successor compositor.SurfaceID

	// DestroySignal fires first thing in destruction while the window is
	// still fully linked.
	DestroySignal signal.Signal[*Window]

	outputDestroy signal.Listener[*compositor.Output]
	parentDestroy signal.Listener[*Window]
}

func (w *Window) ID() compositor.SurfaceID   { return w.surface.ID() }
func (w *Window) Surface() compositor.Surface { return w.surface }
func (w *Window) View() *compositor.View      { return w.view }
func (w *Window) Mode() Mode                  { return w.mode }
func (w *Window) Output() compositor.OutputID { return w.output }
func (w *Window) Parent() compositor.SurfaceID { return w.parent }

// FocusCount returns how many seats currently focus the window.
func (w *Window) FocusCount() int { return w.focusCount }

// Root walks the parent chain up to the window without a parent.
func (w *Window) Root() *Window {
	root := w
	for root.parent != compositor.NoSurface {
		p := w.c.windows[root.parent]
		if p == nil {
			break
		}
		root = p
	}
	return root
}

func (w *Window) isDescendantOf(ancestor *Window) bool {
	for cur := w; cur != nil; cur = w.c.windows[cur.parent] {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// findBestOutput picks the output for the window without assigning it.
func (w *Window) findBestOutput() *compositor.Output {
	comp := w.c.comp

	// Always keep the current output.
	if o := comp.Output(w.output); o != nil {
		return o
	}

	// Designated output for this application.
	if appID := w.surface.AppID(); appID != "" {
		for _, e := range w.c.outputs {
			if e.output != nil && e.HasAppID(appID) {
				return e.output
			}
		}
	}

	// Group related windows on the same output.
	if o := comp.Output(w.Root().output); o != nil {
		return o
	}

	if o := comp.FocusedOutput(); o != nil {
		return o
	}
	return comp.DefaultOutput()
}

// placementOutput is the output used to centre the view: the assigned one,
// else the one the window would be given.
func (w *Window) placementOutput() *compositor.Output {
	if o := w.c.comp.Output(w.output); o != nil {
		return o
	}
	return w.findBestOutput()
}

func (w *Window) setOutput(o *compositor.Output) {
	w.outputDestroy.Remove()
	w.output = compositor.NoOutput
	if o == nil {
		return
	}
	w.output = o.ID
	o.DestroySignal.Add(&w.outputDestroy, w.handleOutputDestroy)
}

func (w *Window) handleOutputDestroy(*compositor.Output) {
	w.setOutput(nil)
}

func (w *Window) setFullscreen(o *compositor.Output) {
	if o == nil {
		o = w.findBestOutput()
	}
	w.setOutput(o)
	w.mode = ModeFullscreen

	w.surface.SetMaximized(false)
	w.surface.SetFullscreen(true)
	if o != nil {
		w.surface.SetSize(o.Width, o.Height)
	}
}

func (w *Window) setMaximized() {
	o := w.findBestOutput()
	w.setOutput(o)
	w.mode = ModeMaximized

	w.surface.SetFullscreen(false)
	w.surface.SetMaximized(true)
	if o != nil {
		w.surface.SetSize(o.Width, o.Height)
	}
}

func (w *Window) setNormal() {
	if w.output == compositor.NoOutput {
		w.setOutput(w.findBestOutput())
	}
	w.applyNormal()
}

func (w *Window) applyNormal() {
	w.mode = ModeNormal
	w.surface.SetFullscreen(false)
	w.surface.SetMaximized(false)
	w.surface.SetSize(0, 0)
}

// setParent replaces the parent link. A child drops its output so it follows
// the chain root; a window left without a parent becomes a fullscreen root.
func (w *Window) setParent(p *Window) {
	w.parentDestroy.Remove()
	w.parent = compositor.NoSurface

	if p != nil {
		w.parent = p.ID()
		p.DestroySignal.Add(&w.parentDestroy, w.handleParentDestroy)
		w.setOutput(nil)
		w.applyNormal()
		return
	}
	w.setFullscreen(w.c.comp.Output(w.output))
}

// handleParentDestroy splices the chain: the grandparent becomes the parent.
// When the destroyed window was a root, the first child to be notified is
// promoted and its siblings hang off it.
func (w *Window) handleParentDestroy(p *Window) {
	next := w.c.windows[p.parent]
	if next == nil {
		if s := w.c.windows[p.successor]; s != nil && s != w {
			next = s
		} else {
			p.successor = w.ID()
		}
	}
	w.setParent(next)
}

func (w *Window) reconfigureForOutput() {
	o := w.c.comp.Output(w.output)
	if o == nil {
		return
	}
	if w.mode != ModeNormal {
		w.surface.SetSize(o.Width, o.Height)
	}
	w.view.CenterOnOutput(o)
	w.view.UpdateTransform()
}

// committed applies a new buffer revision. sx and sy are the offset of the
// new buffer relative to the previous one.
func (w *Window) committed(sx, sy int) {
	width, height := w.surface.Size()
	if width == 0 {
		return
	}

	resized := width != w.lastWidth || height != w.lastHeight
	fullscreen := w.mode != ModeNormal
	mapped := w.view.IsMapped()

	if !mapped || (resized && fullscreen) {
		if fullscreen || !w.hint.set {
			w.view.CenterOnOutput(w.placementOutput())
		} else {
			g := w.surface.Geometry()
			w.view.SetPosition(w.hint.x-g.X, w.hint.y-g.Y)
		}
		w.view.UpdateTransform()
	}

	if !mapped {
		w.c.normal.Insert(w.view)
		w.view.SetMapped(true)
	}

	if !fullscreen && (sx != 0 || sy != 0) {
		x, y := w.view.Position()
		w.view.SetPosition(x+sx, y+sy)
		w.view.UpdateTransform()
	}

	w.lastWidth = width
	w.lastHeight = height
}

func (w *Window) destroy() {
	w.DestroySignal.Emit(w)

	id := w.ID()
	w.c.unlinkWindow(w)
	w.c.comp.DestroyView(w.view)

	w.outputDestroy.Remove()
	w.output = compositor.NoOutput
	w.parentDestroy.Remove()
	w.parent = compositor.NoSurface

	w.c.logger.Debug("window destroyed", "surface", id)
}
