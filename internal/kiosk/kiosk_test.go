package kiosk

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/compositor/compositortest"
)

type fakeSection map[string]string

func (s fakeSection) String(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// fakeStore maps output names to app-ids values.
type fakeStore map[string]string

func (s fakeStore) Section(section, key, value string) ConfigSection {
	if section != "output" || key != "name" {
		return nil
	}
	v, ok := s[value]
	if !ok {
		return nil
	}
	return fakeSection{"app-ids": v}
}

type fakeGrabber struct {
	pointer int
	touch   int
	err     error
}

func (g *fakeGrabber) StartPointerMove(*compositor.View, *compositor.Pointer) error {
	g.pointer++
	return g.err
}

func (g *fakeGrabber) StartTouchMove(*compositor.View, *compositor.Touch) error {
	g.touch++
	return g.err
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error {
	c.n++
	return nil
}

type harness struct {
	t       *testing.T
	backend *compositortest.Backend
	comp    *compositor.Compositor
	ctl     *Controller
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	backend := compositortest.NewBackend()
	comp := compositor.New(backend)
	cfg.Compositor = comp
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctl, err := New(cfg)
	require.NoError(t, err)
	return &harness{t: t, backend: backend, comp: comp, ctl: ctl}
}

func (h *harness) addOutput(name string, x, y, w, ht int) *compositor.Output {
	return h.comp.AddOutput(name, compositor.Rect{X: x, Y: y, Width: w, Height: ht})
}

func (h *harness) addWindow(id compositor.SurfaceID, appID string) *compositortest.Surface {
	h.t.Helper()
	s := compositortest.NewSurface(id, appID)
	require.NoError(h.t, h.ctl.SurfaceAdded(s))
	return s
}

// commit attaches a buffer of the requested size, or w x ht when nothing
// was requested.
func (h *harness) commit(s *compositortest.Surface, w, ht int) {
	h.t.Helper()
	if s.RequestedW > 0 && s.RequestedH > 0 {
		s.AckSize()
	} else {
		s.Commit(w, ht)
	}
	require.NoError(h.t, h.ctl.Committed(s.ID(), 0, 0))
}

func (h *harness) window(id compositor.SurfaceID) *Window {
	h.t.Helper()
	w := h.ctl.Window(id)
	require.NotNil(h.t, w)
	return w
}

func TestHasAppID_TokenBoundaries(t *testing.T) {
	e := &OutputEntry{appIDs: "abc,abcd", hasAppIDs: true}

	assert.True(t, e.HasAppID("abc"))
	assert.False(t, e.HasAppID("ab"))
	assert.True(t, e.HasAppID("abcd"))
	assert.False(t, e.HasAppID("bcd"))
	assert.False(t, e.HasAppID(""))

	e = &OutputEntry{appIDs: "org.foobar,org.foo", hasAppIDs: true}
	assert.True(t, e.HasAppID("org.foo"))
	assert.False(t, e.HasAppID("foo"))

	assert.False(t, (&OutputEntry{}).HasAppID("abc"))
}

func TestNew_RequiresCompositor(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNew_AdoptsExistingOutputsAndSeats(t *testing.T) {
	backend := compositortest.NewBackend()
	comp := compositor.New(backend)
	o := comp.AddOutput("HDMI-A-1", compositor.Rect{Width: 800, Height: 600})
	comp.AddSeat("seat0", compositor.CapKeyboard)

	ctl, err := New(Config{
		Compositor: comp,
		Store:      fakeStore{"HDMI-A-1": "player"},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	e := ctl.OutputEntry(o.ID)
	require.NotNil(t, e)
	ids, ok := e.AppIDs()
	assert.True(t, ok)
	assert.Equal(t, "player", ids)
	assert.Len(t, ctl.seats, 1)

	bg := e.Background()
	require.NotNil(t, bg)
	assert.True(t, bg.IsMapped())
	assert.Equal(t, o.ID, bg.Output())
	assert.Equal(t, backgroundRole, bg.Role())
	assert.Equal(t, backgroundLabel, bg.Label())
	assert.Equal(t, DefaultBackgroundColor, bg.Color())
	assert.Equal(t, []*compositor.View{bg}, ctl.BackgroundLayer().Views())
}

func TestOutputEntry_MissingSectionLeavesListAbsent(t *testing.T) {
	h := newHarness(t, Config{Store: fakeStore{"other": "x"}})
	o := h.addOutput("HDMI-A-1", 0, 0, 800, 600)

	_, ok := h.ctl.OutputEntry(o.ID).AppIDs()
	assert.False(t, ok)

	h = newHarness(t, Config{})
	o = h.addOutput("HDMI-A-1", 0, 0, 800, 600)
	_, ok = h.ctl.OutputEntry(o.ID).AppIDs()
	assert.False(t, ok)
}

func TestSurfaceAdded_RootIsFullscreenOnDefaultOutput(t *testing.T) {
	h := newHarness(t, Config{})
	o := h.addOutput("HDMI-A-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapKeyboard|compositor.CapPointer)

	s := h.addWindow(1, "app")
	w := h.window(1)

	assert.Equal(t, ModeFullscreen, w.Mode())
	assert.Equal(t, o.ID, w.Output())
	assert.True(t, s.IsFullscreen)
	assert.Equal(t, 800, s.RequestedW)
	assert.Equal(t, 600, s.RequestedH)

	assert.Equal(t, compositor.SurfaceID(1), seat.Keyboard().Focus())
	assert.True(t, s.IsActivated)
	assert.Equal(t, 1, w.FocusCount())
}

func TestSurfaceAdded_Duplicate(t *testing.T) {
	h := newHarness(t, Config{})
	h.addWindow(1, "app")

	err := h.ctl.SurfaceAdded(compositortest.NewSurface(1, "app"))
	assert.ErrorIs(t, err, ErrSurfaceExists)
}

func TestSurfaceAdded_ViewFailureLeavesNothingBehind(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("HDMI-A-1", 0, 0, 800, 600)
	h.backend.FailNext = true

	s := compositortest.NewSurface(5, "app")
	err := h.ctl.SurfaceAdded(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, compositortest.ErrInjected)
	assert.Equal(t, 1, s.NoMemoryPosts)
	assert.Nil(t, h.ctl.Window(5))
	assert.Empty(t, h.ctl.Windows())
}

func TestSurfaceAdded_AppIDAffinity(t *testing.T) {
	h := newHarness(t, Config{Store: fakeStore{"DP-2": "org.example.player,org.example.clock"}})
	h.addOutput("DP-1", 0, 0, 800, 600)
	dp2 := h.addOutput("DP-2", 800, 0, 1920, 1080)

	s := h.addWindow(1, "org.example.clock")
	assert.Equal(t, dp2.ID, h.window(1).Output())
	assert.Equal(t, 1920, s.RequestedW)

	h.addWindow(2, "org.example")
	assert.NotEqual(t, dp2.ID, h.window(2).Output())
}

func TestSurfaceAdded_NoOutputLeavesWindowUnplaced(t *testing.T) {
	h := newHarness(t, Config{})
	s := h.addWindow(1, "app")

	w := h.window(1)
	assert.Equal(t, ModeFullscreen, w.Mode())
	assert.Equal(t, compositor.NoOutput, w.Output())
	assert.Equal(t, 0, s.SizeCalls)
}

func TestSetParent_ChildIsNormalWithoutOutput(t *testing.T) {
	h := newHarness(t, Config{})
	o := h.addOutput("HDMI-A-1", 0, 0, 800, 600)
	h.addWindow(1, "app")
	b := h.addWindow(2, "app")
	require.Equal(t, o.ID, h.window(2).Output())

	require.NoError(t, h.ctl.SetParent(2, 1))

	child := h.window(2)
	assert.Equal(t, ModeNormal, child.Mode())
	assert.Equal(t, compositor.NoOutput, child.Output())
	assert.Equal(t, compositor.SurfaceID(1), child.Parent())
	assert.Equal(t, h.window(1), child.Root())
	assert.False(t, b.IsFullscreen)
	assert.False(t, b.IsMaximized)
	assert.Equal(t, 0, b.RequestedW)
	assert.Equal(t, 0, b.RequestedH)

	// The child is centred on the root's output when it maps.
	h.commit(b, 400, 300)
	x, y := child.View().Position()
	assert.Equal(t, 200, x)
	assert.Equal(t, 150, y)
	assert.Equal(t, o.ID, child.View().Output())
}

func TestSetParent_NoneMakesFullscreenRootOnCurrentOutput(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("DP-1", 0, 0, 800, 600)
	dp2 := h.addOutput("DP-2", 800, 0, 1024, 768)
	h.addWindow(1, "app")
	b := h.addWindow(2, "app")
	require.NoError(t, h.ctl.SetParent(2, 1))
	require.NoError(t, h.ctl.MaximizedRequested(2, true))
	require.NoError(t, h.ctl.FullscreenRequested(2, true, dp2.ID))

	require.NoError(t, h.ctl.SetParent(2, compositor.NoSurface))

	w := h.window(2)
	assert.Equal(t, ModeFullscreen, w.Mode())
	assert.Equal(t, dp2.ID, w.Output())
	assert.Equal(t, 1024, b.RequestedW)
}

func TestSetParent_Errors(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("HDMI-A-1", 0, 0, 800, 600)
	h.addWindow(1, "app")
	h.addWindow(2, "app")
	h.addWindow(3, "app")

	assert.ErrorIs(t, h.ctl.SetParent(9, 1), ErrUnknownSurface)
	assert.ErrorIs(t, h.ctl.SetParent(1, 9), ErrUnknownSurface)

	require.NoError(t, h.ctl.SetParent(2, 1))
	require.NoError(t, h.ctl.SetParent(3, 2))
	assert.ErrorIs(t, h.ctl.SetParent(1, 3), ErrParentCycle)
	assert.ErrorIs(t, h.ctl.SetParent(1, 1), ErrParentCycle)
	assert.Equal(t, compositor.NoSurface, h.window(1).Parent())
	assert.Equal(t, h.window(1), h.window(3).Root())
}

func TestRemoveRoot_TransfersFocusAndPromotesChild(t *testing.T) {
	h := newHarness(t, Config{})
	o := h.addOutput("O1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapKeyboard)

	a := h.addWindow(1, "app")
	w := h.window(1)
	assert.Equal(t, ModeFullscreen, w.Mode())
	assert.Equal(t, o.ID, w.Output())
	assert.Equal(t, 800, a.RequestedW)
	assert.Equal(t, 600, a.RequestedH)
	h.commit(a, 0, 0)

	b := h.addWindow(2, "app")
	require.NoError(t, h.ctl.SetParent(2, 1))
	child := h.window(2)
	assert.Equal(t, ModeNormal, child.Mode())
	assert.Equal(t, compositor.NoOutput, child.Output())
	h.commit(b, 300, 200)

	require.NoError(t, h.ctl.ActivateSurface(1))
	require.Equal(t, compositor.SurfaceID(1), seat.Keyboard().Focus())

	require.NoError(t, h.ctl.SurfaceRemoved(1))

	assert.Nil(t, h.ctl.Window(1))
	assert.Equal(t, compositor.SurfaceID(2), seat.Keyboard().Focus())
	assert.True(t, b.IsActivated)
	assert.Equal(t, compositor.NoSurface, child.Parent())
	assert.Equal(t, ModeFullscreen, child.Mode())
	assert.Equal(t, o.ID, child.Output())
	assert.True(t, b.IsFullscreen)
	assert.Equal(t, 800, b.RequestedW)
	assert.Equal(t, 600, b.RequestedH)
}

func TestRemoveWindow_SuccessorPrefersSameRoot(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapKeyboard)

	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	b := h.addWindow(2, "a")
	require.NoError(t, h.ctl.SetParent(2, 1))
	h.commit(b, 200, 200)
	c := h.addWindow(3, "c")
	h.commit(c, 0, 0)

	// Activating the child raises it above c; a stays at the bottom.
	require.NoError(t, h.ctl.ActivateSurface(2))
	require.NoError(t, h.ctl.SurfaceRemoved(2))

	assert.Equal(t, compositor.SurfaceID(1), seat.Keyboard().Focus())
	assert.True(t, a.IsActivated)
	assert.False(t, c.IsActivated)
}

func TestRemoveWindow_FallsBackToTopmostAndOnlyMovesFocusedSeats(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	seat0 := h.comp.AddSeat("seat0", compositor.CapKeyboard)
	seat1 := h.comp.AddSeat("seat1", compositor.CapKeyboard)

	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	c := h.addWindow(3, "c")
	h.commit(c, 0, 0)
	d := h.addWindow(4, "d")
	h.commit(d, 0, 0)

	// seat0 focuses a, seat1 focuses c.
	h.comp.ActivateView(h.window(1).View(), seat0, compositor.ActivateNone)
	h.comp.ActivateView(h.window(3).View(), seat1, compositor.ActivateNone)

	require.NoError(t, h.ctl.SurfaceRemoved(1))
	assert.Equal(t, compositor.SurfaceID(4), seat0.Keyboard().Focus())
	assert.Equal(t, compositor.SurfaceID(3), seat1.Keyboard().Focus())
}

func TestRemoveWindow_LastWindowClearsFocus(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)

	require.NoError(t, h.ctl.SurfaceRemoved(1))
	assert.Equal(t, compositor.NoSurface, seat.Keyboard().Focus())
	assert.Empty(t, h.ctl.NormalLayer().Views())
	assert.ErrorIs(t, h.ctl.SurfaceRemoved(1), ErrUnknownSurface)
	assert.Equal(t, compositor.NoSurface, h.ctl.seats[0].focused)
}

func TestParentDestroy_SplicesToGrandparent(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	h.addWindow(1, "app")
	h.addWindow(2, "app")
	h.addWindow(3, "app")
	h.addWindow(4, "app")
	require.NoError(t, h.ctl.SetParent(2, 1))
	require.NoError(t, h.ctl.SetParent(3, 2))
	require.NoError(t, h.ctl.SetParent(4, 2))

	require.NoError(t, h.ctl.SurfaceRemoved(2))

	for _, id := range []compositor.SurfaceID{3, 4} {
		w := h.window(id)
		assert.Equal(t, compositor.SurfaceID(1), w.Parent(), "surface %d", id)
		assert.Equal(t, ModeNormal, w.Mode(), "surface %d", id)
	}
	assert.Equal(t, 2, h.window(1).DestroySignal.Len())
}

func TestRootDestroy_PromotesExactlyOneChild(t *testing.T) {
	h := newHarness(t, Config{})
	o := h.addOutput("O1", 0, 0, 800, 600)
	h.addWindow(1, "app")
	h.addWindow(2, "app")
	h.addWindow(3, "app")
	require.NoError(t, h.ctl.SetParent(2, 1))
	require.NoError(t, h.ctl.SetParent(3, 1))

	require.NoError(t, h.ctl.SurfaceRemoved(1))

	c1, c2 := h.window(2), h.window(3)
	assert.Equal(t, compositor.NoSurface, c1.Parent())
	assert.Equal(t, ModeFullscreen, c1.Mode())
	assert.Equal(t, o.ID, c1.Output())

	assert.Equal(t, compositor.SurfaceID(2), c2.Parent())
	assert.Equal(t, ModeNormal, c2.Mode())
	assert.Equal(t, c1, c2.Root())
}

func TestFocusRefCount_TwoSeats(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	seat0 := h.comp.AddSeat("seat0", compositor.CapKeyboard)
	seat1 := h.comp.AddSeat("seat1", compositor.CapKeyboard)

	a := h.addWindow(1, "a")
	b := h.addWindow(2, "b")
	wa := h.window(1)
	wb := h.window(2)
	require.False(t, a.IsActivated)
	require.Equal(t, 2, wb.FocusCount())

	h.comp.ActivateView(wa.View(), seat0, compositor.ActivateNone)
	h.comp.ActivateView(wa.View(), seat1, compositor.ActivateNone)
	assert.Equal(t, 2, wa.FocusCount())
	assert.True(t, a.IsActivated)
	assert.False(t, b.IsActivated)

	h.comp.ActivateView(wb.View(), seat0, compositor.ActivateNone)
	assert.Equal(t, 1, wa.FocusCount())
	assert.True(t, a.IsActivated)

	h.comp.ActivateView(wb.View(), seat1, compositor.ActivateNone)
	assert.Equal(t, 0, wa.FocusCount())
	assert.False(t, a.IsActivated)
	assert.True(t, b.IsActivated)
	assert.Equal(t, []bool{true, false, true, false}, a.ActivatedLog)
}

func TestSeatTracker_FollowsKeyboardCapability(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapPointer)
	a := h.addWindow(1, "a")
	assert.False(t, a.IsActivated)

	seat.SetCapabilities(compositor.CapPointer | compositor.CapKeyboard)
	require.NoError(t, h.ctl.ActivateSurface(1))
	assert.True(t, a.IsActivated)

	seat.SetCapabilities(compositor.CapPointer)
	assert.False(t, h.ctl.seats[0].keyboardFocus.Active())
	assert.False(t, a.IsActivated, "losing the keyboard drops activation")
	assert.Equal(t, 0, h.window(1).FocusCount())

	seat.SetCapabilities(compositor.CapPointer | compositor.CapKeyboard)
	assert.True(t, h.ctl.seats[0].keyboardFocus.Active())
	require.NoError(t, h.ctl.ActivateSurface(1))
	assert.True(t, a.IsActivated)
	assert.Equal(t, 1, h.window(1).FocusCount())
}

func TestSeatTracker_KeyboardLossKeepsOtherSeatsFocus(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	s1 := h.comp.AddSeat("seat0", compositor.CapKeyboard|compositor.CapPointer)
	h.comp.AddSeat("seat1", compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	require.Equal(t, 2, h.window(1).FocusCount())

	s1.SetCapabilities(compositor.CapPointer)
	assert.True(t, a.IsActivated)
	assert.Equal(t, 1, h.window(1).FocusCount())
}

func TestSeatRemoval_ReleasesFocus(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	require.True(t, a.IsActivated)

	require.NoError(t, h.comp.RemoveSeat(seat.ID))
	assert.False(t, a.IsActivated)
	assert.Equal(t, 0, h.window(1).FocusCount())
	assert.Empty(t, h.ctl.seats)
	assert.Equal(t, 0, seat.DestroySignal.Len())
	assert.Equal(t, 0, seat.UpdatedCapsSignal.Len())
}

func TestOutputRemoval_ClearsWindowsAndEntry(t *testing.T) {
	h := newHarness(t, Config{Store: fakeStore{"DP-2": "b"}})
	o1 := h.addOutput("DP-1", 0, 0, 800, 600)
	o2 := h.addOutput("DP-2", 800, 0, 800, 600)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	b := h.addWindow(2, "b")
	h.commit(b, 0, 0)
	require.Equal(t, o1.ID, h.window(1).Output())
	require.Equal(t, o2.ID, h.window(2).Output())

	bg := h.ctl.OutputEntry(o1.ID).Background()
	require.NoError(t, h.comp.RemoveOutput(o1.ID))

	assert.Equal(t, compositor.NoOutput, h.window(1).Output())
	assert.Equal(t, o2.ID, h.window(2).Output())
	assert.Nil(t, h.ctl.OutputEntry(o1.ID))
	assert.Len(t, h.ctl.OutputEntries(), 1)
	assert.Contains(t, h.backend.Destroyed, bg)
	assert.NotContains(t, h.ctl.BackgroundLayer().Views(), bg)
	assert.Equal(t, 0, o1.DestroySignal.Len())
}

func TestOutputResize_ReconfiguresFullscreenWindow(t *testing.T) {
	h := newHarness(t, Config{})
	o := h.addOutput("O1", 0, 0, 800, 600)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	view := h.window(1).View()
	oldBg := h.ctl.OutputEntry(o.ID).Background()

	require.NoError(t, h.comp.ResizeOutput(o.ID, 1024, 768))

	assert.Equal(t, 1024, a.RequestedW)
	assert.Equal(t, 768, a.RequestedH)
	x, y := view.Position()
	assert.Equal(t, 112, x)
	assert.Equal(t, 84, y)

	bg := h.ctl.OutputEntry(o.ID).Background()
	assert.NotSame(t, oldBg, bg)
	assert.Equal(t, compositor.Rect{Width: 1024, Height: 768}, bg.Rect())

	h.commit(a, 0, 0)
	x, y = view.Position()
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

func TestOutputResize_LeavesOtherOutputsAlone(t *testing.T) {
	h := newHarness(t, Config{Store: fakeStore{"DP-2": "b"}})
	o1 := h.addOutput("DP-1", 0, 0, 800, 600)
	h.addOutput("DP-2", 800, 0, 800, 600)
	b := h.addWindow(2, "b")
	h.commit(b, 0, 0)
	calls := b.SizeCalls

	require.NoError(t, h.comp.ResizeOutput(o1.ID, 1024, 768))
	assert.Equal(t, calls, b.SizeCalls)
}

func TestOutputMoved_TranslatesViews(t *testing.T) {
	h := newHarness(t, Config{})
	o := h.addOutput("O1", 0, 0, 800, 600)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)

	require.NoError(t, h.comp.MoveOutput(o.ID, 100, 50))

	x, y := h.window(1).View().Position()
	assert.Equal(t, 100, x)
	assert.Equal(t, 50, y)
	bx, by := h.ctl.OutputEntry(o.ID).Background().Position()
	assert.Equal(t, 100, bx)
	assert.Equal(t, 50, by)
}

func TestOutputCreated_ReconcilesUnplacedWindows(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.addWindow(1, "a")
	h.commit(a, 640, 480)
	w := h.window(1)
	require.Equal(t, compositor.NoOutput, w.Output())
	require.True(t, w.View().IsMapped())

	o := h.addOutput("O1", 0, 0, 800, 600)

	assert.Equal(t, o.ID, w.Output())
	assert.Equal(t, 800, a.RequestedW)
	x, y := w.View().Position()
	assert.Equal(t, 80, x)
	assert.Equal(t, 60, y)
}

func TestCommit_ZeroWidthIgnored(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	h.addWindow(1, "a")

	require.NoError(t, h.ctl.Committed(1, 0, 0))
	assert.False(t, h.window(1).View().IsMapped())
	assert.Empty(t, h.ctl.NormalLayer().Views())
}

func TestCommit_BufferOffsetMovesNormalWindow(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	h.addWindow(1, "a")
	b := h.addWindow(2, "b")
	require.NoError(t, h.ctl.SetParent(2, 1))
	h.commit(b, 200, 100)
	view := h.window(2).View()
	x0, y0 := view.Position()

	require.NoError(t, h.ctl.Committed(2, -10, 5))
	x, y := view.Position()
	assert.Equal(t, x0-10, x)
	assert.Equal(t, y0+5, y)

	// Fullscreen windows ignore buffer offsets.
	a := h.ctl.Window(1)
	h.commit(a.Surface().(*compositortest.Surface), 0, 0)
	ax, ay := a.View().Position()
	require.NoError(t, h.ctl.Committed(1, 30, 30))
	x, y = a.View().Position()
	assert.Equal(t, ax, x)
	assert.Equal(t, ay, y)
}

func TestCommit_ExplicitPositionForNormalWindow(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	h.addWindow(1, "a")
	b := h.addWindow(2, "b")
	require.NoError(t, h.ctl.SetParent(2, 1))
	require.NoError(t, h.ctl.SetExplicitPosition(2, 300, 200))
	b.Geom = compositor.Rect{X: 10, Y: 20, Width: 180, Height: 80}

	h.commit(b, 200, 100)

	x, y, err := h.ctl.GetPosition(2)
	require.NoError(t, err)
	assert.Equal(t, 290, x)
	assert.Equal(t, 180, y)

	// Fullscreen ignores the hint.
	require.NoError(t, h.ctl.SetExplicitPosition(1, 300, 200))
	a := h.ctl.Window(1).Surface().(*compositortest.Surface)
	h.commit(a, 0, 0)
	x, y, err = h.ctl.GetPosition(1)
	require.NoError(t, err)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

func TestCommit_MapStacksOnTop(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("O1", 0, 0, 800, 600)
	a := h.addWindow(1, "a")
	b := h.addWindow(2, "b")
	h.commit(a, 0, 0)
	h.commit(b, 0, 0)

	views := h.ctl.NormalLayer().Views()
	require.Len(t, views, 2)
	assert.Equal(t, compositor.SurfaceID(2), views[0].SurfaceID())
	assert.Equal(t, compositor.SurfaceID(1), views[1].SurfaceID())
}

func TestFullscreenRequested(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("DP-1", 0, 0, 800, 600)
	dp2 := h.addOutput("DP-2", 800, 0, 1280, 720)
	a := h.addWindow(1, "a")
	b := h.addWindow(2, "b")
	require.NoError(t, h.ctl.SetParent(2, 1))

	// Roots stay fullscreen even when asking to leave it.
	a.IsFullscreen = false
	require.NoError(t, h.ctl.FullscreenRequested(1, false, compositor.NoOutput))
	assert.Equal(t, ModeFullscreen, h.window(1).Mode())
	assert.True(t, a.IsFullscreen)

	require.NoError(t, h.ctl.FullscreenRequested(1, true, dp2.ID))
	assert.Equal(t, dp2.ID, h.window(1).Output())
	assert.Equal(t, 1280, a.RequestedW)

	require.NoError(t, h.ctl.FullscreenRequested(2, true, compositor.NoOutput))
	assert.Equal(t, ModeFullscreen, h.window(2).Mode())
	assert.Equal(t, dp2.ID, h.window(2).Output())
	assert.True(t, b.IsFullscreen)

	require.NoError(t, h.ctl.FullscreenRequested(2, false, compositor.NoOutput))
	assert.Equal(t, ModeNormal, h.window(2).Mode())
	assert.Equal(t, dp2.ID, h.window(2).Output())
	assert.False(t, b.IsFullscreen)
	assert.Equal(t, 0, b.RequestedW)

	assert.ErrorIs(t, h.ctl.FullscreenRequested(7, true, compositor.NoOutput), ErrUnknownSurface)
}

func TestMaximizedRequested(t *testing.T) {
	h := newHarness(t, Config{})
	o := h.addOutput("DP-1", 0, 0, 800, 600)
	a := h.addWindow(1, "a")
	b := h.addWindow(2, "b")
	require.NoError(t, h.ctl.SetParent(2, 1))

	require.NoError(t, h.ctl.MaximizedRequested(1, true))
	assert.Equal(t, ModeFullscreen, h.window(1).Mode())
	assert.False(t, a.IsMaximized)

	require.NoError(t, h.ctl.MaximizedRequested(2, true))
	assert.Equal(t, ModeMaximized, h.window(2).Mode())
	assert.Equal(t, o.ID, h.window(2).Output())
	assert.True(t, b.IsMaximized)
	assert.False(t, b.IsFullscreen)
	assert.Equal(t, 800, b.RequestedW)

	require.NoError(t, h.ctl.MaximizedRequested(2, false))
	assert.Equal(t, ModeNormal, h.window(2).Mode())
	assert.False(t, b.IsMaximized)
	assert.Equal(t, 0, b.RequestedW)
}

func TestNoopRequests(t *testing.T) {
	h := newHarness(t, Config{})
	o := h.addOutput("DP-1", 0, 0, 800, 600)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	calls := a.SizeCalls

	require.NoError(t, h.ctl.Resize(1, nil, 1, EdgeBottom|EdgeRight))
	require.NoError(t, h.ctl.MinimizedRequested(1))
	h.ctl.PingTimeout(1)
	h.ctl.Pong(1)

	w := h.window(1)
	assert.Equal(t, ModeFullscreen, w.Mode())
	assert.Equal(t, o.ID, w.Output())
	assert.Equal(t, calls, a.SizeCalls)
	assert.ErrorIs(t, h.ctl.Resize(9, nil, 1, EdgeNone), ErrUnknownSurface)
}

func TestMove_PointerGrab(t *testing.T) {
	grabber := &fakeGrabber{}
	h := newHarness(t, Config{Grabber: grabber})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapPointer|compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	view := h.window(1).View()

	// No button held.
	require.NoError(t, h.ctl.Move(1, seat, 0))
	assert.Equal(t, 0, grabber.pointer)

	h.comp.NotifyButton(seat, view, compositor.ButtonLeft, 42)
	require.NoError(t, h.ctl.Move(1, seat, 41))
	assert.Equal(t, 0, grabber.pointer)

	require.NoError(t, h.ctl.Move(1, seat, 42))
	assert.Equal(t, 1, grabber.pointer)
	assert.Equal(t, 0, a.NoMemoryPosts)

	grabber.err = errors.New("no grab")
	require.NoError(t, h.ctl.Move(1, seat, 42))
	assert.Equal(t, 1, a.NoMemoryPosts)
}

func TestMove_AfterButtonReleaseIsRejected(t *testing.T) {
	grabber := &fakeGrabber{}
	h := newHarness(t, Config{Grabber: grabber})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapPointer)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)

	h.comp.NotifyButton(seat, h.window(1).View(), compositor.ButtonLeft, 9)
	h.comp.NotifyButtonRelease(seat)
	require.NoError(t, h.ctl.Move(1, seat, 9))
	assert.Equal(t, 0, grabber.pointer)
	assert.Equal(t, 0, a.NoMemoryPosts)
}

func TestMove_PointerFocusOnOtherSurface(t *testing.T) {
	grabber := &fakeGrabber{}
	h := newHarness(t, Config{Grabber: grabber})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapPointer)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	b := h.addWindow(2, "b")
	h.commit(b, 0, 0)

	h.comp.NotifyButton(seat, h.window(2).View(), compositor.ButtonLeft, 7)
	require.NoError(t, h.ctl.Move(1, seat, 7))
	assert.Equal(t, 0, grabber.pointer)
	assert.Equal(t, 0, grabber.touch)
}

func TestMove_TouchGrab(t *testing.T) {
	grabber := &fakeGrabber{}
	h := newHarness(t, Config{Grabber: grabber})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapTouch)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)

	h.comp.NotifyTouchDown(seat, h.window(1).View(), 9)
	require.NoError(t, h.ctl.Move(1, seat, 9))
	assert.Equal(t, 1, grabber.touch)

	grabber.err = errors.New("no grab")
	require.NoError(t, h.ctl.Move(1, seat, 9))
	assert.Equal(t, 1, a.NoMemoryPosts)
}

func TestMove_WithoutGrabberIsIgnored(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapPointer)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)

	h.comp.NotifyButton(seat, h.window(1).View(), compositor.ButtonLeft, 3)
	require.NoError(t, h.ctl.Move(1, seat, 3))
	assert.Equal(t, 0, a.NoMemoryPosts)
}

func TestClickToActivate_RaisesChildOnly(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapPointer|compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	b := h.addWindow(2, "a")
	require.NoError(t, h.ctl.SetParent(2, 1))
	h.commit(b, 100, 100)
	c := h.addWindow(3, "a")
	require.NoError(t, h.ctl.SetParent(3, 1))
	h.commit(c, 100, 100)

	viewA, viewB, viewC := h.window(1).View(), h.window(2).View(), h.window(3).View()
	require.Equal(t, []*compositor.View{viewC, viewB, viewA}, h.ctl.NormalLayer().Views())

	h.comp.NotifyButton(seat, viewB, compositor.ButtonLeft, 1)
	h.comp.NotifyButtonRelease(seat)
	assert.Equal(t, []*compositor.View{viewB, viewC, viewA}, h.ctl.NormalLayer().Views())
	assert.Equal(t, compositor.SurfaceID(2), seat.Keyboard().Focus())
	assert.Contains(t, h.backend.Damaged, viewB)

	h.comp.NotifyButton(seat, viewA, compositor.ButtonRight, 2)
	h.comp.NotifyButtonRelease(seat)
	assert.Equal(t, []*compositor.View{viewB, viewC, viewA}, h.ctl.NormalLayer().Views())
	assert.Equal(t, compositor.SurfaceID(1), seat.Keyboard().Focus())

	// Middle button is not bound.
	h.comp.NotifyButton(seat, viewC, compositor.ButtonMiddle, 3)
	assert.Equal(t, compositor.SurfaceID(1), seat.Keyboard().Focus())
}

func TestClickToActivate_IgnoredDuringGrabOrWithoutFocus(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapPointer|compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	b := h.addWindow(2, "b")
	h.commit(b, 0, 0)
	require.Equal(t, compositor.SurfaceID(2), seat.Keyboard().Focus())

	seat.Pointer().StartGrab()
	h.comp.NotifyButton(seat, h.window(1).View(), compositor.ButtonLeft, 1)
	assert.Equal(t, compositor.SurfaceID(2), seat.Keyboard().Focus())
	seat.Pointer().EndGrab()

	h.comp.NotifyButton(seat, nil, compositor.ButtonLeft, 2)
	assert.Equal(t, compositor.SurfaceID(2), seat.Keyboard().Focus())

	h.comp.NotifyButton(seat, h.window(1).View(), compositor.ButtonLeft, 3)
	assert.Equal(t, compositor.SurfaceID(1), seat.Keyboard().Focus())
}

func TestTouchToActivate(t *testing.T) {
	h := newHarness(t, Config{})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat := h.comp.AddSeat("seat0", compositor.CapTouch|compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)
	b := h.addWindow(2, "b")
	h.commit(b, 0, 0)

	h.comp.NotifyTouchDown(seat, h.window(1).View(), 1)
	assert.Equal(t, compositor.SurfaceID(1), seat.Keyboard().Focus())

	h = newHarness(t, Config{DisableTouchActivate: true, ClickButtons: []uint32{}})
	h.addOutput("DP-1", 0, 0, 800, 600)
	seat = h.comp.AddSeat("seat0", compositor.CapTouch|compositor.CapPointer|compositor.CapKeyboard)
	a = h.addWindow(1, "a")
	h.commit(a, 0, 0)
	b = h.addWindow(2, "b")
	h.commit(b, 0, 0)

	h.comp.NotifyTouchDown(seat, h.window(1).View(), 1)
	h.comp.NotifyButton(seat, h.window(1).View(), compositor.ButtonLeft, 2)
	assert.Equal(t, compositor.SurfaceID(2), seat.Keyboard().Focus())
}

func TestSetConfigStore_OnlyAffectsNewOutputs(t *testing.T) {
	h := newHarness(t, Config{Store: fakeStore{"DP-1": "a"}})
	o1 := h.addOutput("DP-1", 0, 0, 800, 600)

	h.ctl.SetConfigStore(fakeStore{"DP-1": "changed", "DP-2": "b"})
	o2 := h.addOutput("DP-2", 800, 0, 800, 600)

	ids, _ := h.ctl.OutputEntry(o1.ID).AppIDs()
	assert.Equal(t, "a", ids)
	ids, _ = h.ctl.OutputEntry(o2.ID).AppIDs()
	assert.Equal(t, "b", ids)
}

func TestBackgroundColor_Configurable(t *testing.T) {
	red := compositor.Color{R: 1}
	h := newHarness(t, Config{BackgroundColor: &red})
	o := h.addOutput("DP-1", 0, 0, 800, 600)
	assert.Equal(t, red, h.ctl.OutputEntry(o.ID).Background().Color())
}

func TestBackgroundFailure_OutputStillUsable(t *testing.T) {
	h := newHarness(t, Config{})
	h.backend.FailColored = true
	o := h.addOutput("DP-1", 0, 0, 800, 600)

	e := h.ctl.OutputEntry(o.ID)
	require.NotNil(t, e)
	assert.Nil(t, e.Background())

	h.addWindow(1, "a")
	assert.Equal(t, o.ID, h.window(1).Output())
}

func TestDestroy_OnCompositorShutdown(t *testing.T) {
	closer := &closeCounter{}
	h := newHarness(t, Config{Protocol: closer})
	o := h.addOutput("DP-1", 0, 0, 800, 600)
	h.comp.AddSeat("seat0", compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	h.commit(a, 0, 0)

	h.comp.Destroy()
	h.ctl.Destroy()

	assert.Equal(t, 1, closer.n)
	assert.Empty(t, h.ctl.OutputEntries())
	assert.Empty(t, h.ctl.Windows())
	assert.Equal(t, 0, o.DestroySignal.Len())
	assert.Equal(t, 0, h.comp.OutputCreatedSignal.Len())
	assert.Equal(t, 0, h.comp.DestroySignal.Len())
	assert.Empty(t, h.comp.Stack())

	assert.ErrorIs(t, h.ctl.SurfaceAdded(compositortest.NewSurface(2, "b")), ErrShutdown)
	assert.ErrorIs(t, h.ctl.ActivateSurface(1), ErrShutdown)

	// New outputs are no longer tracked.
	h.addOutput("DP-2", 800, 0, 800, 600)
	assert.Empty(t, h.ctl.OutputEntries())
}

func TestActivateSurface_Unknown(t *testing.T) {
	h := newHarness(t, Config{})
	assert.ErrorIs(t, h.ctl.ActivateSurface(4), ErrUnknownSurface)
	_, _, err := h.ctl.GetPosition(4)
	assert.ErrorIs(t, err, ErrUnknownSurface)
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, Config{Store: fakeStore{"DP-1": "a"}})
	o := h.addOutput("DP-1", 0, 0, 800, 600)
	h.comp.AddSeat("seat0", compositor.CapKeyboard)
	a := h.addWindow(1, "a")
	a.Name = "Player"
	h.commit(a, 0, 0)
	h.addWindow(2, "b")
	require.NoError(t, h.ctl.SetParent(2, 1))

	snap := h.ctl.Snapshot()
	require.Len(t, snap.Outputs, 1)
	assert.Equal(t, OutputInfo{ID: o.ID, Name: "DP-1", Width: 800, Height: 600, AppIDs: "a", Windows: 1}, snap.Outputs[0])

	require.Len(t, snap.Windows, 2)
	assert.Equal(t, compositor.SurfaceID(1), snap.Windows[0].SurfaceID)
	assert.Equal(t, "Player", snap.Windows[0].Title)
	assert.Equal(t, "fullscreen", snap.Windows[0].Mode)
	assert.True(t, snap.Windows[0].Mapped)
	assert.Equal(t, 800, snap.Windows[0].Width)

	assert.Equal(t, compositor.SurfaceID(2), snap.Windows[1].SurfaceID)
	assert.Equal(t, "normal", snap.Windows[1].Mode)
	assert.Equal(t, compositor.SurfaceID(1), snap.Windows[1].Root)
	assert.False(t, snap.Windows[1].Mapped)
	assert.True(t, snap.Windows[1].Activated)

	require.Len(t, snap.Seats, 1)
	assert.Equal(t, SeatInfo{Name: "seat0", Keyboard: true, Focus: 2}, snap.Seats[0])
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "fullscreen", ModeFullscreen.String())
	assert.Equal(t, "maximized", ModeMaximized.String())
	assert.Equal(t, "normal", ModeNormal.String())
	assert.Equal(t, "unknown", Mode(42).String())
}
