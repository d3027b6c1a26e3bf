// Package compositor models the display-server objects the kiosk shell
// works against: outputs, seats, drawable views and layers. Hosts (the X11
// driver, tests) own a Compositor, feed it hotplug and input events, and
// receive drawing updates through a Backend.
package compositor

// OutputID identifies an output for the lifetime of the compositor. IDs are
// never reused.
type OutputID uint32

// NoOutput is the sentinel for "no output assigned".
const NoOutput OutputID = 0

// SeatID identifies a seat.
type SeatID uint32

// SurfaceID identifies a client surface. Hosts must report main surfaces
// (not subsurfaces) in focus and surface callbacks.
type SurfaceID uint64

// NoSurface is the sentinel for "no surface".
const NoSurface SurfaceID = 0

// Rect describes a rectangular region in global screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Color is a linear RGB colour with components in [0, 1].
type Color struct {
	R float64
	G float64
	B float64
}

// Capabilities is the set of input devices a seat currently exposes.
type Capabilities uint32

const (
	CapPointer Capabilities = 1 << iota
	CapKeyboard
	CapTouch
)

// ActivateFlags modify how a view is activated.
type ActivateFlags uint32

const (
	ActivateNone    ActivateFlags = 0
	ActivateClicked ActivateFlags = 1 << 0
)

// Pointer buttons, numbered the way X11 reports them.
const (
	ButtonLeft   uint32 = 1
	ButtonMiddle uint32 = 2
	ButtonRight  uint32 = 3
)
