package compositor

// View is the on-screen placement of a surface or of a flat-coloured fill.
type View struct {
	c       *Compositor
	surface Surface
	label   string
	role    string
	color   Color
	width   int
	height  int

	x      int
	y      int
	output OutputID
	mapped bool
	layer  *Layer

	destroyed bool
}

// Surface returns the client surface, or nil for coloured views.
func (v *View) Surface() Surface { return v.surface }

// SurfaceID returns the ID of the client surface, or NoSurface.
func (v *View) SurfaceID() SurfaceID {
	if v.surface == nil {
		return NoSurface
	}
	return v.surface.ID()
}

// Label returns a human-readable description used in logs and debugging.
func (v *View) Label() string {
	if v.label != "" {
		return v.label
	}
	if v.surface != nil {
		if title := v.surface.Title(); title != "" {
			return title
		}
		return v.surface.AppID()
	}
	return ""
}

// Role returns the role assigned to a coloured view.
func (v *View) Role() string { return v.role }

// SetRole assigns a role name.
func (v *View) SetRole(role string) { v.role = role }

// SetLabel overrides the description returned by Label.
func (v *View) SetLabel(label string) { v.label = label }

// Color returns the fill colour of a coloured view.
func (v *View) Color() Color { return v.color }

// Position returns the view origin in global coordinates.
func (v *View) Position() (x, y int) { return v.x, v.y }

// SetPosition moves the view. The change becomes visible after
// UpdateTransform.
func (v *View) SetPosition(x, y int) {
	v.x = x
	v.y = y
}

// Size returns the drawn size: the surface buffer size for client views, the
// fill size for coloured views.
func (v *View) Size() (width, height int) {
	if v.surface != nil {
		return v.surface.Size()
	}
	return v.width, v.height
}

// Rect returns the global rectangle covered by the view.
func (v *View) Rect() Rect {
	w, h := v.Size()
	return Rect{X: v.x, Y: v.y, Width: w, Height: h}
}

// Output returns the output the view is assigned to.
func (v *View) Output() OutputID { return v.output }

// SetOutput binds the view to an output explicitly.
func (v *View) SetOutput(id OutputID) { v.output = id }

// IsMapped reports whether the view is shown.
func (v *View) IsMapped() bool { return v.mapped }

// SetMapped marks the view shown or hidden.
func (v *View) SetMapped(mapped bool) {
	if v.mapped == mapped {
		return
	}
	v.mapped = mapped
	if v.c != nil && !v.destroyed {
		v.c.backend.ViewUpdated(v)
	}
}

// Layer returns the layer the view is stacked in, or nil.
func (v *View) Layer() *Layer { return v.layer }

// UpdateTransform assigns the output the view overlaps most and pushes the
// new geometry to the backend.
func (v *View) UpdateTransform() {
	if v.c == nil || v.destroyed {
		return
	}
	if id := v.c.outputForRect(v.Rect()); id != NoOutput {
		v.output = id
	}
	v.c.backend.ViewUpdated(v)
}

// Damage schedules a repaint of the view.
func (v *View) Damage() {
	if v.c == nil || v.destroyed {
		return
	}
	v.c.backend.ViewDamaged(v)
}

// CenterOnOutput positions the view so its bounding box is centred on o. A
// nil output places the view at the origin.
func (v *View) CenterOnOutput(o *Output) {
	if o == nil {
		v.SetPosition(0, 0)
		return
	}
	box := Rect{}
	if v.surface != nil {
		box = v.surface.BoundingBox()
	} else {
		box.Width, box.Height = v.width, v.height
	}
	x := o.X + (o.Width-box.Width)/2 - box.X/2
	y := o.Y + (o.Height-box.Height)/2 - box.Y/2
	v.SetPosition(x, y)
}
