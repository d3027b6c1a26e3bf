// Package compositortest provides in-memory surfaces and a recording backend
// for exercising shell logic without a display server.
package compositortest

import (
	"errors"

	"github.com/1broseidon/kioskwm/internal/compositor"
)

// ErrInjected is returned by Backend when FailNext is set.
var ErrInjected = errors.New("injected failure")

// Surface is a scriptable compositor.Surface.
type Surface struct {
	SurfaceID compositor.SurfaceID
	App       string
	Name      string

	Width  int
	Height int
	Geom   compositor.Rect
	Box    *compositor.Rect

	IsFullscreen bool
	IsMaximized  bool
	IsActivated  bool
	// RequestedW and RequestedH hold the last size passed to SetSize.
	RequestedW int
	RequestedH int
	SizeCalls  int

	NoMemoryPosts int
	ActivatedLog  []bool
}

// NewSurface returns a surface with the given ID and application id.
func NewSurface(id compositor.SurfaceID, appID string) *Surface {
	return &Surface{SurfaceID: id, App: appID}
}

func (s *Surface) ID() compositor.SurfaceID { return s.SurfaceID }
func (s *Surface) AppID() string            { return s.App }
func (s *Surface) Title() string            { return s.Name }
func (s *Surface) Size() (int, int)         { return s.Width, s.Height }
func (s *Surface) Geometry() compositor.Rect {
	return s.Geom
}

// BoundingBox defaults to the buffer size at the origin.
func (s *Surface) BoundingBox() compositor.Rect {
	if s.Box != nil {
		return *s.Box
	}
	return compositor.Rect{Width: s.Width, Height: s.Height}
}

func (s *Surface) Fullscreen() bool       { return s.IsFullscreen }
func (s *Surface) SetFullscreen(v bool)   { s.IsFullscreen = v }
func (s *Surface) Maximized() bool        { return s.IsMaximized }
func (s *Surface) SetMaximized(v bool)    { s.IsMaximized = v }
func (s *Surface) PostNoMemory()          { s.NoMemoryPosts++ }
func (s *Surface) SetActivated(v bool) {
	s.IsActivated = v
	s.ActivatedLog = append(s.ActivatedLog, v)
}

func (s *Surface) SetSize(w, h int) {
	s.RequestedW = w
	s.RequestedH = h
	s.SizeCalls++
}

// Commit simulates the client attaching a buffer of the given size.
func (s *Surface) Commit(w, h int) {
	s.Width = w
	s.Height = h
}

// AckSize simulates the client committing the size it was asked for.
func (s *Surface) AckSize() {
	s.Width = s.RequestedW
	s.Height = s.RequestedH
}

// Backend records backend calls.
type Backend struct {
	Created      []*compositor.View
	Updated      []*compositor.View
	Damaged      []*compositor.View
	Destroyed    []*compositor.View
	LayerChanges int
	FailNext     bool
	FailColored  bool
}

// NewBackend returns an empty recording backend.
func NewBackend() *Backend { return &Backend{} }

func (b *Backend) ViewCreated(v *compositor.View) error {
	if b.FailNext || (b.FailColored && v.Surface() == nil) {
		b.FailNext = false
		return ErrInjected
	}
	b.Created = append(b.Created, v)
	return nil
}

func (b *Backend) ViewUpdated(v *compositor.View)   { b.Updated = append(b.Updated, v) }
func (b *Backend) ViewDamaged(v *compositor.View)   { b.Damaged = append(b.Damaged, v) }
func (b *Backend) ViewDestroyed(v *compositor.View) { b.Destroyed = append(b.Destroyed, v) }
func (b *Backend) LayerChanged(*compositor.Layer)   { b.LayerChanges++ }
