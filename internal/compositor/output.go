package compositor

import "github.com/1broseidon/kioskwm/internal/signal"

// Output is a physical display with pixel geometry and a position in global
// screen space.
type Output struct {
	ID     OutputID
	Name   string
	X      int
	Y      int
	Width  int
	Height int

	// MoveX and MoveY hold the delta of the most recent move.
	MoveX int
	MoveY int

	// DestroySignal fires before the output is removed from the compositor.
	DestroySignal signal.Signal[*Output]
}

// Rect returns the output geometry.
func (o *Output) Rect() Rect {
	return Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
}
