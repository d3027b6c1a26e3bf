package compositor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/1broseidon/kioskwm/internal/signal"
)

// ErrUnknownOutput is returned for operations on an output that does not
// exist.
var ErrUnknownOutput = errors.New("unknown output")

// ErrUnknownSeat is returned for operations on a seat that does not exist.
var ErrUnknownSeat = errors.New("unknown seat")

// Backend renders compositor state. The X11 host maps views to windows; tests
// record calls.
type Backend interface {
	// ViewCreated is called for every new view. A non-nil error aborts the
	// creation.
	ViewCreated(v *View) error
	ViewUpdated(v *View)
	ViewDamaged(v *View)
	ViewDestroyed(v *View)
	LayerChanged(l *Layer)
}

// ActivateEvent is emitted when a view is activated on a seat.
type ActivateEvent struct {
	View  *View
	Seat  *Seat
	Flags ActivateFlags
}

// ButtonBinding runs when a bound pointer button is pressed.
type ButtonBinding func(p *Pointer, button uint32)

// TouchBinding runs when a touch point goes down.
type TouchBinding func(t *Touch)

type buttonBinding struct {
	button  uint32
	handler ButtonBinding
}

// Compositor owns outputs, seats, views and layers. It is not safe for
// concurrent use; hosts drive it from a single event loop.
type Compositor struct {
	backend Backend

	outputs []*Output
	seats   []*Seat
	layers  []*Layer
	views   []*View

	nextOutput OutputID
	nextSeat   SeatID

	buttonBindings []buttonBinding
	touchBindings  []TouchBinding

	OutputCreatedSignal signal.Signal[*Output]
	OutputResizedSignal signal.Signal[*Output]
	OutputMovedSignal   signal.Signal[*Output]
	SeatCreatedSignal   signal.Signal[*Seat]
	ActivateSignal      signal.Signal[ActivateEvent]
	DestroySignal       signal.Signal[*Compositor]

	destroyed bool
}

// New creates a compositor that reports to backend.
func New(backend Backend) *Compositor {
	return &Compositor{backend: backend}
}

// Outputs returns the live outputs in creation order.
func (c *Compositor) Outputs() []*Output {
	return append([]*Output(nil), c.outputs...)
}

// Output looks up a live output.
func (c *Compositor) Output(id OutputID) *Output {
	if id == NoOutput {
		return nil
	}
	for _, o := range c.outputs {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// OutputByName looks up a live output by connector name.
func (c *Compositor) OutputByName(name string) *Output {
	for _, o := range c.outputs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// AddOutput registers a new output and announces it.
func (c *Compositor) AddOutput(name string, r Rect) *Output {
	c.nextOutput++
	o := &Output{
		ID:     c.nextOutput,
		Name:   name,
		X:      r.X,
		Y:      r.Y,
		Width:  r.Width,
		Height: r.Height,
	}
	c.outputs = append(c.outputs, o)
	c.OutputCreatedSignal.Emit(o)
	return o
}

// RemoveOutput unlinks an output and fires its destroy notice. Views bound to
// it lose their output.
func (c *Compositor) RemoveOutput(id OutputID) error {
	idx := -1
	for i, o := range c.outputs {
		if o.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("remove output %d: %w", id, ErrUnknownOutput)
	}
	o := c.outputs[idx]
	c.outputs = append(c.outputs[:idx:idx], c.outputs[idx+1:]...)

	o.DestroySignal.Emit(o)

	for _, v := range c.views {
		if v.output == id {
			v.output = NoOutput
		}
	}
	return nil
}

// ResizeOutput changes the pixel size of an output.
func (c *Compositor) ResizeOutput(id OutputID, width, height int) error {
	o := c.Output(id)
	if o == nil {
		return fmt.Errorf("resize output %d: %w", id, ErrUnknownOutput)
	}
	if o.Width == width && o.Height == height {
		return nil
	}
	o.Width = width
	o.Height = height
	c.OutputResizedSignal.Emit(o)
	return nil
}

// MoveOutput repositions an output in global space. MoveX/MoveY carry the
// delta while the moved notice runs.
func (c *Compositor) MoveOutput(id OutputID, x, y int) error {
	o := c.Output(id)
	if o == nil {
		return fmt.Errorf("move output %d: %w", id, ErrUnknownOutput)
	}
	if o.X == x && o.Y == y {
		return nil
	}
	o.MoveX = x - o.X
	o.MoveY = y - o.Y
	o.X = x
	o.Y = y
	c.OutputMovedSignal.Emit(o)
	return nil
}

// Seats returns the live seats in creation order.
func (c *Compositor) Seats() []*Seat {
	return append([]*Seat(nil), c.seats...)
}

// Seat looks up a live seat.
func (c *Compositor) Seat(id SeatID) *Seat {
	for _, s := range c.seats {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// AddSeat registers a seat with the given capabilities and announces it.
func (c *Compositor) AddSeat(name string, caps Capabilities) *Seat {
	c.nextSeat++
	s := newSeat(c.nextSeat, name)
	s.caps = caps
	c.seats = append(c.seats, s)
	c.SeatCreatedSignal.Emit(s)
	return s
}

// RemoveSeat fires the seat destroy notice and unlinks it.
func (c *Compositor) RemoveSeat(id SeatID) error {
	for i, s := range c.seats {
		if s.ID != id {
			continue
		}
		s.DestroySignal.Emit(s)
		c.seats = append(c.seats[:i:i], c.seats[i+1:]...)
		return nil
	}
	return fmt.Errorf("remove seat %d: %w", id, ErrUnknownSeat)
}

// NewLayer creates an empty layer at the given stacking position.
func (c *Compositor) NewLayer(position uint32) *Layer {
	l := &Layer{c: c, position: position}
	c.layers = append(c.layers, l)
	sort.SliceStable(c.layers, func(i, j int) bool {
		return c.layers[i].position > c.layers[j].position
	})
	return l
}

// RemoveLayer detaches a layer and all of its views from the stack.
func (c *Compositor) RemoveLayer(l *Layer) {
	for _, v := range l.views {
		v.layer = nil
	}
	l.views = nil
	for i, other := range c.layers {
		if other == l {
			c.layers = append(c.layers[:i:i], c.layers[i+1:]...)
			break
		}
	}
	c.backend.LayerChanged(l)
}

// Stack returns every layered view, topmost first.
func (c *Compositor) Stack() []*View {
	var out []*View
	for _, l := range c.layers {
		out = append(out, l.views...)
	}
	return out
}

// CreateView creates an unmapped view for a client surface.
func (c *Compositor) CreateView(s Surface) (*View, error) {
	v := &View{c: c, surface: s}
	if err := c.backend.ViewCreated(v); err != nil {
		return nil, fmt.Errorf("create view for surface %d: %w", s.ID(), err)
	}
	c.views = append(c.views, v)
	return v, nil
}

// CreateColoredView creates a flat fill covering r.
func (c *Compositor) CreateColoredView(label string, col Color, r Rect) (*View, error) {
	v := &View{
		c:      c,
		label:  label,
		color:  col,
		x:      r.X,
		y:      r.Y,
		width:  r.Width,
		height: r.Height,
	}
	if err := c.backend.ViewCreated(v); err != nil {
		return nil, fmt.Errorf("create %q: %w", label, err)
	}
	c.views = append(c.views, v)
	return v, nil
}

// DestroyView unstacks and releases a view. Input focus pointing at it is
// cleared.
func (c *Compositor) DestroyView(v *View) {
	if v == nil || v.destroyed {
		return
	}
	if v.layer != nil {
		v.layer.Remove(v)
	}
	for i, other := range c.views {
		if other == v {
			c.views = append(c.views[:i:i], c.views[i+1:]...)
			break
		}
	}
	v.destroyed = true
	v.mapped = false

	for _, s := range c.seats {
		if s.pointer.Focus == v {
			s.pointer.Focus = nil
		}
		if s.touch.Focus == v {
			s.touch.Focus = nil
		}
		if id := v.SurfaceID(); id != NoSurface && s.keyboard.focus == id && c.ViewForSurface(id) == nil {
			s.keyboard.SetFocus(NoSurface)
		}
	}
	c.backend.ViewDestroyed(v)
}

// ViewForSurface returns the first live view showing the surface.
func (c *Compositor) ViewForSurface(id SurfaceID) *View {
	if id == NoSurface {
		return nil
	}
	for _, v := range c.views {
		if v.SurfaceID() == id {
			return v
		}
	}
	return nil
}

// ActivateView gives keyboard focus on seat to the view's surface.
func (c *Compositor) ActivateView(v *View, seat *Seat, flags ActivateFlags) {
	if v == nil || seat == nil || v.surface == nil {
		return
	}
	if kb := seat.Keyboard(); kb != nil {
		kb.SetFocus(v.surface.ID())
	}
	c.ActivateSignal.Emit(ActivateEvent{View: v, Seat: seat, Flags: flags})
}

// FocusedOutput returns the output holding input focus: the output of the
// first focused keyboard surface, else of a pointer focus, else of a touch
// focus.
func (c *Compositor) FocusedOutput() *Output {
	for _, s := range c.seats {
		if kb := s.Keyboard(); kb != nil {
			if v := c.ViewForSurface(kb.Focus()); v != nil {
				if o := c.Output(v.output); o != nil {
					return o
				}
			}
		}
		if p := s.Pointer(); p != nil && p.Focus != nil {
			if o := c.Output(p.Focus.output); o != nil {
				return o
			}
		}
		if t := s.Touch(); t != nil && t.Focus != nil {
			if o := c.Output(t.Focus.output); o != nil {
				return o
			}
		}
	}
	return nil
}

// DefaultOutput returns the first live output, or nil.
func (c *Compositor) DefaultOutput() *Output {
	if len(c.outputs) == 0 {
		return nil
	}
	return c.outputs[0]
}

// AddButtonBinding runs handler whenever button is pressed.
func (c *Compositor) AddButtonBinding(button uint32, handler ButtonBinding) {
	c.buttonBindings = append(c.buttonBindings, buttonBinding{button: button, handler: handler})
}

// AddTouchBinding runs handler whenever a touch point goes down.
func (c *Compositor) AddTouchBinding(handler TouchBinding) {
	c.touchBindings = append(c.touchBindings, handler)
}

// NotifyButton records a button press on seat and runs matching bindings.
// focus is the view under the pointer, or nil.
func (c *Compositor) NotifyButton(seat *Seat, focus *View, button uint32, serial uint32) {
	p := seat.Pointer()
	if p == nil {
		return
	}
	p.Focus = focus
	p.ButtonCount++
	p.GrabSerial = serial
	for _, b := range c.buttonBindings {
		if b.button == button {
			b.handler(p, button)
		}
	}
}

// NotifyButtonRelease records a button release on seat.
func (c *Compositor) NotifyButtonRelease(seat *Seat) {
	if p := seat.Pointer(); p != nil && p.ButtonCount > 0 {
		p.ButtonCount--
	}
}

// NotifyTouchDown records a touch point on seat and runs touch bindings.
func (c *Compositor) NotifyTouchDown(seat *Seat, focus *View, serial uint32) {
	t := seat.Touch()
	if t == nil {
		return
	}
	t.Focus = focus
	t.GrabSerial = serial
	for _, b := range c.touchBindings {
		b(t)
	}
}

// ViewAt returns the topmost mapped view containing the point.
func (c *Compositor) ViewAt(x, y int) *View {
	for _, v := range c.Stack() {
		if v.mapped && v.Rect().Contains(x, y) {
			return v
		}
	}
	return nil
}

// Destroy announces compositor shutdown. Safe to call more than once.
func (c *Compositor) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.DestroySignal.Emit(c)
}

func (c *Compositor) outputForRect(r Rect) OutputID {
	best := NoOutput
	bestArea := 0
	for _, o := range c.outputs {
		area := overlap(r, o.Rect())
		if area > bestArea {
			best = o.ID
			bestArea = area
		}
	}
	return best
}

func overlap(a, b Rect) int {
	x0 := max(a.X, b.X)
	y0 := max(a.Y, b.Y)
	x1 := min(a.X+a.Width, b.X+b.Width)
	y1 := min(a.Y+a.Height, b.Y+b.Height)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	return (x1 - x0) * (y1 - y0)
}
