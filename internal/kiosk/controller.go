// Package kiosk implements the kiosk window policy: every top-level window
// is fullscreen on one output, transient children stack above their root,
// and keyboard focus drives window activation.
package kiosk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/signal"
)

var (
	// ErrUnknownSurface is returned for requests naming a surface the shell
	// does not manage.
	ErrUnknownSurface = errors.New("unknown surface")
	// ErrSurfaceExists is returned when a surface is added twice.
	ErrSurfaceExists = errors.New("surface already managed")
	// ErrParentCycle is returned when a parent assignment would create a loop.
	ErrParentCycle = errors.New("parent assignment would create a cycle")
	// ErrShutdown is returned once the controller has been destroyed.
	ErrShutdown = errors.New("shell is shut down")
)

// DefaultBackgroundColor is the fill of output backgrounds when none is
// configured.
var DefaultBackgroundColor = compositor.Color{R: 0.5, G: 0.5, B: 0.5}

// ConfigSection is one section of a section-based configuration store.
type ConfigSection interface {
	String(key string) (string, bool)
}

// ConfigStore looks up sections such as [output] name=HDMI-A-1. Section
// returns nil when no section matches.
type ConfigStore interface {
	Section(section, key, value string) ConfigSection
}

// Grabber starts interactive move grabs.
type Grabber interface {
	StartPointerMove(v *compositor.View, p *compositor.Pointer) error
	StartTouchMove(v *compositor.View, t *compositor.Touch) error
}

// Config holds the collaborators and options of a Controller.
type Config struct {
	Compositor *compositor.Compositor
	Store      ConfigStore
	// Grabber may be nil, in which case move requests are ignored.
	Grabber Grabber
	Logger  *slog.Logger

	// BackgroundColor defaults to DefaultBackgroundColor.
	BackgroundColor *compositor.Color
	// ClickButtons defaults to left and right button when nil.
	ClickButtons         []uint32
	DisableTouchActivate bool

	// Protocol is closed when the shell shuts down.
	Protocol io.Closer
}

// Controller is the shell. It owns the background and normal layers, the
// per-output and per-seat registries and every managed window. All methods
// must be called from the compositor's event loop.
type Controller struct {
	comp    *compositor.Compositor
	store   ConfigStore
	grabber Grabber
	logger  *slog.Logger

	backgroundColor compositor.Color
	protocol        io.Closer

	background *compositor.Layer
	normal     *compositor.Layer

	outputs []*OutputEntry
	seats   []*seatTracker

	windows     map[compositor.SurfaceID]*Window
	windowOrder []*Window

	compDestroy   signal.Listener[*compositor.Compositor]
	outputCreated signal.Listener[*compositor.Output]
	outputResized signal.Listener[*compositor.Output]
	outputMoved   signal.Listener[*compositor.Output]
	seatCreated   signal.Listener[*compositor.Seat]

	destroyed bool
}

// New wires a shell into the compositor. Existing seats and outputs are
// adopted immediately.
func New(cfg Config) (*Controller, error) {
	if cfg.Compositor == nil {
		return nil, errors.New("kiosk: compositor is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	color := DefaultBackgroundColor
	if cfg.BackgroundColor != nil {
		color = *cfg.BackgroundColor
	}

	comp := cfg.Compositor
	c := &Controller{
		comp:            comp,
		store:           cfg.Store,
		grabber:         cfg.Grabber,
		logger:          logger,
		backgroundColor: color,
		protocol:        cfg.Protocol,
		windows:         make(map[compositor.SurfaceID]*Window),
	}

	comp.DestroySignal.Add(&c.compDestroy, func(*compositor.Compositor) { c.Destroy() })

	c.background = comp.NewLayer(compositor.LayerPositionBackground)
	c.normal = comp.NewLayer(compositor.LayerPositionNormal)

	for _, seat := range comp.Seats() {
		c.createSeatTracker(seat)
	}
	comp.SeatCreatedSignal.Add(&c.seatCreated, func(s *compositor.Seat) { c.createSeatTracker(s) })

	for _, o := range comp.Outputs() {
		c.createOutputEntry(o)
	}
	comp.OutputCreatedSignal.Add(&c.outputCreated, c.handleOutputCreated)
	comp.OutputResizedSignal.Add(&c.outputResized, c.handleOutputResized)
	comp.OutputMovedSignal.Add(&c.outputMoved, c.handleOutputMoved)

	c.addBindings(cfg.ClickButtons, !cfg.DisableTouchActivate)

	logger.Info("kiosk shell started",
		"outputs", len(c.outputs),
		"seats", len(c.seats))
	return c, nil
}

// Compositor returns the compositor the shell is attached to.
func (c *Controller) Compositor() *compositor.Compositor { return c.comp }

// BackgroundLayer returns the layer holding output backgrounds.
func (c *Controller) BackgroundLayer() *compositor.Layer { return c.background }

// NormalLayer returns the layer holding client windows.
func (c *Controller) NormalLayer() *compositor.Layer { return c.normal }

// Window returns the managed window for a surface, or nil.
func (c *Controller) Window(id compositor.SurfaceID) *Window {
	return c.windows[id]
}

// Windows returns managed windows in creation order.
func (c *Controller) Windows() []*Window {
	return append([]*Window(nil), c.windowOrder...)
}

// OutputEntries returns the registry of live outputs.
func (c *Controller) OutputEntries() []*OutputEntry {
	return append([]*OutputEntry(nil), c.outputs...)
}

// OutputEntry returns the registry entry for an output, or nil.
func (c *Controller) OutputEntry(id compositor.OutputID) *OutputEntry {
	for _, e := range c.outputs {
		if e.output != nil && e.output.ID == id {
			return e
		}
	}
	return nil
}

// SetConfigStore swaps the store consulted by outputs created from now on.
// Existing outputs keep the allow-list they read when they appeared.
func (c *Controller) SetConfigStore(store ConfigStore) {
	c.store = store
}

func (c *Controller) addBindings(buttons []uint32, touch bool) {
	if buttons == nil {
		buttons = []uint32{compositor.ButtonLeft, compositor.ButtonRight}
	}
	for _, b := range buttons {
		c.comp.AddButtonBinding(b, c.clickToActivate)
	}
	if touch {
		c.comp.AddTouchBinding(c.touchToActivate)
	}
}

func (c *Controller) clickToActivate(p *compositor.Pointer, _ uint32) {
	if c.destroyed || !p.DefaultGrab() || p.Focus == nil {
		return
	}
	c.activateView(p.Focus, p.Seat(), compositor.ActivateClicked)
}

func (c *Controller) touchToActivate(t *compositor.Touch) {
	if c.destroyed || !t.DefaultGrab() || t.Focus == nil {
		return
	}
	c.activateView(t.Focus, t.Seat(), compositor.ActivateNone)
}

// activateView focuses v on seat. Child windows are raised first so they are
// never hidden behind their root.
func (c *Controller) activateView(v *compositor.View, seat *compositor.Seat, flags compositor.ActivateFlags) {
	w := c.windows[v.SurfaceID()]
	if w == nil {
		return
	}
	if w.parent != compositor.NoSurface {
		c.normal.Insert(v)
		v.Damage()
	}
	c.comp.ActivateView(v, seat, flags)
}

// ActivateSurface activates a window on every seat.
func (c *Controller) ActivateSurface(id compositor.SurfaceID) error {
	if c.destroyed {
		return ErrShutdown
	}
	w := c.windows[id]
	if w == nil {
		return fmt.Errorf("activate %d: %w", id, ErrUnknownSurface)
	}
	for _, seat := range c.comp.Seats() {
		c.activateView(w.view, seat, compositor.ActivateNone)
	}
	return nil
}

func (c *Controller) handleOutputCreated(o *compositor.Output) {
	c.createOutputEntry(o)

	// Windows that found no output earlier get one now.
	for _, w := range c.windowOrder {
		if w.output != compositor.NoOutput {
			continue
		}
		switch w.mode {
		case ModeFullscreen:
			w.setFullscreen(nil)
		case ModeMaximized:
			w.setMaximized()
		default:
			continue
		}
		if w.view.IsMapped() {
			w.reconfigureForOutput()
		}
	}
}

func (c *Controller) handleOutputResized(o *compositor.Output) {
	if e := c.OutputEntry(o.ID); e != nil {
		e.recreateBackground()
	}
	for _, v := range c.normal.Views() {
		if v.Output() != o.ID {
			continue
		}
		if w := c.windows[v.SurfaceID()]; w != nil {
			w.reconfigureForOutput()
		}
	}
}

func (c *Controller) handleOutputMoved(o *compositor.Output) {
	for _, layer := range []*compositor.Layer{c.background, c.normal} {
		for _, v := range layer.Views() {
			if v.Output() != o.ID {
				continue
			}
			x, y := v.Position()
			v.SetPosition(x+o.MoveX, y+o.MoveY)
			v.UpdateTransform()
		}
	}
}

func (c *Controller) unlinkWindow(w *Window) {
	id := w.ID()
	delete(c.windows, id)
	for i, other := range c.windowOrder {
		if other == w {
			c.windowOrder = append(c.windowOrder[:i:i], c.windowOrder[i+1:]...)
			break
		}
	}
	for _, t := range c.seats {
		if t.focused == id {
			t.focused = compositor.NoSurface
		}
	}
}

func (c *Controller) unlinkOutputEntry(e *OutputEntry) {
	for i, other := range c.outputs {
		if other == e {
			c.outputs = append(c.outputs[:i:i], c.outputs[i+1:]...)
			return
		}
	}
}

func (c *Controller) unlinkSeatTracker(t *seatTracker) {
	for i, other := range c.seats {
		if other == t {
			c.seats = append(c.seats[:i:i], c.seats[i+1:]...)
			return
		}
	}
}

// Destroy detaches the shell from the compositor, tears down every output
// entry and window and closes the protocol layer. It runs automatically when
// the compositor is destroyed and is safe to call more than once.
func (c *Controller) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true

	c.compDestroy.Remove()
	c.outputCreated.Remove()
	c.outputResized.Remove()
	c.outputMoved.Remove()
	c.seatCreated.Remove()

	for _, e := range c.OutputEntries() {
		e.destroy()
	}
	for _, t := range append([]*seatTracker(nil), c.seats...) {
		t.destroy()
	}
	for _, w := range c.Windows() {
		w.destroy()
	}
	c.comp.RemoveLayer(c.normal)
	c.comp.RemoveLayer(c.background)

	if c.protocol != nil {
		if err := c.protocol.Close(); err != nil {
			c.logger.Warn("closing window protocol", "error", err)
		}
	}
	c.logger.Info("kiosk shell stopped")
}
