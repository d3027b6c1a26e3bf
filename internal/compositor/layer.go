package compositor

// Layer positions. Higher layers are painted above lower ones.
const (
	LayerPositionBackground uint32 = 0x00000002
	LayerPositionNormal     uint32 = 0x50000000
)

// Layer is an ordered list of views.
type Layer struct {
	c        *Compositor
	position uint32
	// views[0] is the topmost view.
	views []*View
}

// Position returns the stacking position of the layer.
func (l *Layer) Position() uint32 { return l.position }

// Insert places v on top of the layer, removing it from any other layer
// first.
func (l *Layer) Insert(v *View) {
	if v.layer != nil {
		v.layer.remove(v)
	}
	l.views = append([]*View{v}, l.views...)
	v.layer = l
	l.changed()
}

// Remove takes v out of the layer. Removing a view that is not in l is a
// no-op.
func (l *Layer) Remove(v *View) {
	if v.layer != l {
		return
	}
	l.remove(v)
	l.changed()
}

func (l *Layer) remove(v *View) {
	for i, other := range l.views {
		if other == v {
			l.views = append(l.views[:i:i], l.views[i+1:]...)
			break
		}
	}
	v.layer = nil
}

// Views returns a copy of the stack, topmost first.
func (l *Layer) Views() []*View {
	return append([]*View(nil), l.views...)
}

func (l *Layer) changed() {
	if l.c != nil {
		l.c.backend.LayerChanged(l)
	}
}
