package x11

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/signal"
)

// ErrClosed is returned by Do once the event loop has stopped.
var ErrClosed = errors.New("x11 host is closed")

// Shell receives window lifecycle events. *kiosk.Controller implements it.
type Shell interface {
	SurfaceAdded(s compositor.Surface) error
	SurfaceRemoved(id compositor.SurfaceID) error
	Committed(id compositor.SurfaceID, sx, sy int) error
	Move(id compositor.SurfaceID, seat *compositor.Seat, serial uint32) error
	SetParent(id, parent compositor.SurfaceID) error
	FullscreenRequested(id compositor.SurfaceID, fullscreen bool, output compositor.OutputID) error
	MaximizedRequested(id compositor.SurfaceID, maximized bool) error
	MinimizedRequested(id compositor.SurfaceID) error
	SetExplicitPosition(id compositor.SurfaceID, x, y int) error
	ActivateSurface(id compositor.SurfaceID) error
}

// Config configures a Host.
type Config struct {
	// Display is the X display to manage; "" uses $DISPLAY.
	Display string
	// ClickButtons are grabbed on client windows so clicks reach the
	// compositor's button bindings. Nil grabs left and right.
	ClickButtons []uint32
	Logger       *slog.Logger
}

// Host drives a compositor from an X server. It manages top-level client
// windows, mirrors RandR monitors as outputs and exposes one seat with a
// pointer and a keyboard.
//
// X events and functions queued with Do run on a single goroutine; the
// compositor and the shell are never touched concurrently.
type Host struct {
	conn    *Connection
	comp    *compositor.Compositor
	backend *backend
	seat    *compositor.Seat
	shell   Shell
	logger  *slog.Logger
	buttons []uint32

	checkWin *xwindow.Window

	surfaces map[xproto.Window]*surface
	order    []xproto.Window

	focusChanged signal.Listener[*compositor.Keyboard]

	tasks chan func()
	done  chan struct{}
}

// New connects to the X server, takes over window management and creates
// the compositor with the current monitors and the core seat.
func New(cfg Config) (*Host, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buttons := cfg.ClickButtons
	if buttons == nil {
		buttons = []uint32{compositor.ButtonLeft, compositor.ButtonRight}
	}

	conn, err := NewConnection(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	if err := conn.BecomeWM(); err != nil {
		conn.Close()
		return nil, err
	}

	h := &Host{
		conn:     conn,
		logger:   logger,
		buttons:  buttons,
		surfaces: make(map[xproto.Window]*surface),
		tasks:    make(chan func()),
		done:     make(chan struct{}),
	}
	h.backend = newBackend(h)
	h.comp = compositor.New(h.backend)

	h.checkWin, err = conn.AnnounceWM("kioskwm")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to announce window manager: %w", err)
	}

	h.seat = h.comp.AddSeat("seat0", compositor.CapPointer|compositor.CapKeyboard)
	h.seat.Keyboard().FocusSignal.Add(&h.focusChanged, h.applyFocus)

	if err := h.syncOutputs(); err != nil {
		conn.Close()
		return nil, err
	}
	return h, nil
}

// Compositor returns the compositor driven by this host.
func (h *Host) Compositor() *compositor.Compositor { return h.comp }

// Run adopts existing windows, then dispatches X events to shell until ctx
// is cancelled or the connection fails.
func (h *Host) Run(ctx context.Context, shell Shell) error {
	h.shell = shell
	defer close(h.done)

	xu := h.conn.XUtil
	xevent.MapRequestFun(h.onMapRequest).Connect(xu, h.conn.Root)
	xevent.ConfigureRequestFun(h.onConfigureRequest).Connect(xu, h.conn.Root)
	xevent.HookFun(h.onRawEvent).Connect(xu)

	h.adoptWindows()
	h.logger.Info("x11 host running", "windows", len(h.surfaces), "outputs", len(h.comp.Outputs()))

	pingBefore, pingAfter, pingQuit := xevent.MainPing(xu)
	for {
		select {
		case <-pingBefore:
			// Event callbacks run now; wait for them to finish.
			<-pingAfter
		case fn := <-h.tasks:
			fn()
		case <-pingQuit:
			return nil
		case <-ctx.Done():
			h.conn.Quit()
			return ctx.Err()
		}
	}
}

// Do runs fn on the event loop goroutine and waits for it to return.
func (h *Host) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case h.tasks <- task:
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down the compositor and disconnects. Call after Run returns.
func (h *Host) Close() {
	h.comp.Destroy()
	h.focusChanged.Remove()
	if h.checkWin != nil {
		h.checkWin.Destroy()
	}
	h.conn.Close()
}

// ListWindows returns the client windows the host manages.
func (h *Host) ListWindows() []compositor.SurfaceID {
	ids := make([]compositor.SurfaceID, 0, len(h.order))
	for _, win := range h.order {
		ids = append(ids, compositor.SurfaceID(win))
	}
	return ids
}

// WindowExists asks the server whether a window is still alive.
func (h *Host) WindowExists(id compositor.SurfaceID) bool {
	_, err := xproto.GetWindowAttributes(h.conn.XUtil.Conn(), xproto.Window(id)).Reply()
	return err == nil
}

// Forget unmanages a window whose destroy notification was missed.
func (h *Host) Forget(id compositor.SurfaceID) {
	h.unmanage(xproto.Window(id))
}

// SyncOutputs reconciles compositor outputs with RandR.
func (h *Host) SyncOutputs() error {
	return h.syncOutputs()
}

func (h *Host) syncOutputs() error {
	monitors, err := h.conn.GetMonitors()
	if err != nil {
		return err
	}
	plan := planOutputs(h.comp.Outputs(), monitors)
	if plan.empty() {
		return nil
	}

	for _, id := range plan.remove {
		h.logger.Info("output removed", "output", id)
		if err := h.comp.RemoveOutput(id); err != nil {
			h.logger.Warn("failed to remove output", "output", id, "error", err)
		}
	}
	for _, r := range plan.resize {
		if err := h.comp.ResizeOutput(r.id, r.width, r.height); err != nil {
			h.logger.Warn("failed to resize output", "output", r.id, "error", err)
		}
	}
	for _, m := range plan.move {
		if err := h.comp.MoveOutput(m.id, m.x, m.y); err != nil {
			h.logger.Warn("failed to move output", "output", m.id, "error", err)
		}
	}
	for _, m := range plan.add {
		o := h.comp.AddOutput(m.Name, compositor.Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height})
		h.logger.Info("output added", "output", o.ID, "name", o.Name,
			"width", o.Width, "height", o.Height)
	}
	return nil
}

func (h *Host) onRawEvent(_ *xgbutil.XUtil, ev interface{}) bool {
	switch ev.(type) {
	case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
		if err := h.syncOutputs(); err != nil {
			h.logger.Warn("failed to sync outputs", "error", err)
		}
	}
	return true
}

func (h *Host) adoptWindows() {
	tree, err := xproto.QueryTree(h.conn.XUtil.Conn(), h.conn.Root).Reply()
	if err != nil {
		h.logger.Warn("failed to query existing windows", "error", err)
		return
	}
	for _, win := range tree.Children {
		if h.checkWin != nil && win == h.checkWin.Id {
			continue
		}
		attrs, err := xproto.GetWindowAttributes(h.conn.XUtil.Conn(), win).Reply()
		if err != nil || attrs.OverrideRedirect || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		if !h.conn.IsNormalWindow(win) {
			continue
		}
		h.manage(win)
	}
}

// manage puts a client window under shell control and maps it.
func (h *Host) manage(win xproto.Window) {
	xu := h.conn.XUtil
	s := &surface{
		h:     h,
		win:   win,
		appID: h.conn.WindowAppID(win),
		title: h.conn.WindowTitle(win),
	}
	if geom, err := xproto.GetGeometry(xu.Conn(), xproto.Drawable(win)).Reply(); err == nil {
		s.width, s.height = int(geom.Width), int(geom.Height)
		s.prefWidth, s.prefHeight = s.width, s.height
	}

	h.surfaces[win] = s
	if err := h.shell.SurfaceAdded(s); err != nil {
		delete(h.surfaces, win)
		h.logger.Warn("window left unmanaged", "window", win, "error", err)
		xproto.MapWindow(xu.Conn(), win)
		return
	}
	h.order = append(h.order, win)

	xwindow.New(xu, win).Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify)
	xevent.ConfigureNotifyFun(h.onConfigureNotify).Connect(xu, win)
	xevent.UnmapNotifyFun(h.onUnmapNotify).Connect(xu, win)
	xevent.DestroyNotifyFun(h.onDestroyNotify).Connect(xu, win)
	xevent.PropertyNotifyFun(h.onPropertyNotify).Connect(xu, win)
	xevent.ClientMessageFun(h.onClientMessage).Connect(xu, win)
	for _, b := range h.buttons {
		err := mousebind.ButtonPressFun(h.onButtonPress).Connect(xu, win, strconv.Itoa(int(b)), true, true)
		if err != nil {
			h.logger.Debug("failed to grab button", "window", win, "button", b, "error", err)
		}
	}

	if parent := h.conn.TransientFor(win); parent != 0 {
		h.setParent(s, parent)
	}

	xproto.MapWindow(xu.Conn(), win)
	icccm.WmStateSet(xu, win, &icccm.WmState{State: icccm.StateNormal})
	s.viewable = true
	h.applyFocus(h.seat.Keyboard())

	if err := h.shell.Committed(s.ID(), 0, 0); err != nil {
		h.logger.Debug("commit failed", "window", win, "error", err)
	}
	h.updateClientLists()
	h.logger.Debug("window managed", "window", win, "app_id", s.appID, "title", s.title)
}

// unmanage releases a window after it was unmapped or destroyed.
func (h *Host) unmanage(win xproto.Window) {
	s := h.surfaces[win]
	if s == nil {
		return
	}
	s.gone = true
	xevent.Detach(h.conn.XUtil, win)
	mousebind.Detach(h.conn.XUtil, win)

	if err := h.shell.SurfaceRemoved(s.ID()); err != nil {
		h.logger.Debug("surface removal failed", "window", win, "error", err)
	}
	delete(h.surfaces, win)
	for i, w := range h.order {
		if w == win {
			h.order = append(h.order[:i:i], h.order[i+1:]...)
			break
		}
	}
	h.updateClientLists()
	h.logger.Debug("window unmanaged", "window", win)
}

func (h *Host) setParent(s *surface, parent xproto.Window) {
	id := compositor.NoSurface
	if _, ok := h.surfaces[parent]; ok {
		id = compositor.SurfaceID(parent)
	}
	if err := h.shell.SetParent(s.ID(), id); err != nil {
		h.logger.Debug("set parent failed", "window", s.win, "parent", parent, "error", err)
	}
}

func (h *Host) applyFocus(kb *compositor.Keyboard) {
	id := kb.Focus()
	if id == compositor.NoSurface {
		h.conn.FocusWindow(0)
		return
	}
	s := h.surfaces[xproto.Window(id)]
	if s == nil || s.gone || !s.viewable {
		return
	}
	h.conn.FocusWindow(s.win)
}

func (h *Host) updateClientLists() {
	mapped := make([]xproto.Window, 0, len(h.order))
	for _, win := range h.order {
		if s := h.surfaces[win]; s != nil && s.viewable {
			mapped = append(mapped, win)
		}
	}

	stack := h.comp.Stack()
	stacking := make([]xproto.Window, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		if s := h.surfaces[xproto.Window(stack[i].SurfaceID())]; s != nil && !s.gone {
			stacking = append(stacking, s.win)
		}
	}
	h.conn.SetClientLists(mapped, stacking)
}
