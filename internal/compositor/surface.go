package compositor

// Surface is the protocol side of a client window. The host implements it
// against its windowing protocol; the shell only reads metadata and pushes
// configure state through it.
type Surface interface {
	ID() SurfaceID
	// AppID returns the application identifier, or "" when unknown.
	AppID() string
	Title() string

	// Size returns the dimensions of the most recently committed buffer.
	Size() (width, height int)
	// Geometry returns the content geometry relative to the buffer origin.
	Geometry() Rect
	// BoundingBox returns the extent of the surface and its subsurfaces
	// relative to the surface origin.
	BoundingBox() Rect

	Fullscreen() bool
	SetFullscreen(bool)
	Maximized() bool
	SetMaximized(bool)
	// SetSize requests a size from the client. 0x0 lets the client decide.
	SetSize(width, height int)
	SetActivated(bool)

	// PostNoMemory informs the owning client that a request failed for lack
	// of resources.
	PostNoMemory()
}
