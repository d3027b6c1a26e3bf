package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/kioskwm/internal/compositor"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR. When RandR reports
// nothing usable the root window is returned as a single monitor.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	// Get screen resources
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		// Get output name
		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	if len(monitors) == 0 {
		geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get root geometry: %w", err)
		}
		monitors = append(monitors, Monitor{
			Name:   "default",
			Width:  int(geom.Width),
			Height: int(geom.Height),
		})
	}

	return monitors, nil
}

type outputResize struct {
	id            compositor.OutputID
	width, height int
}

type outputMove struct {
	id   compositor.OutputID
	x, y int
}

// outputPlan lists the compositor changes that bring its outputs in line
// with the monitors RandR reports. Outputs are matched by connector name.
type outputPlan struct {
	remove []compositor.OutputID
	add    []Monitor
	resize []outputResize
	move   []outputMove
}

func (p outputPlan) empty() bool {
	return len(p.remove) == 0 && len(p.add) == 0 && len(p.resize) == 0 && len(p.move) == 0
}

func planOutputs(current []*compositor.Output, monitors []Monitor) outputPlan {
	var plan outputPlan

	byName := make(map[string]Monitor, len(monitors))
	for _, m := range monitors {
		if _, dup := byName[m.Name]; dup {
			continue
		}
		byName[m.Name] = m
	}

	known := make(map[string]bool, len(current))
	for _, o := range current {
		m, ok := byName[o.Name]
		if !ok {
			plan.remove = append(plan.remove, o.ID)
			continue
		}
		known[o.Name] = true
		if m.Width != o.Width || m.Height != o.Height {
			plan.resize = append(plan.resize, outputResize{id: o.ID, width: m.Width, height: m.Height})
		}
		if m.X != o.X || m.Y != o.Y {
			plan.move = append(plan.move, outputMove{id: o.ID, x: m.X, y: m.Y})
		}
	}

	for _, m := range monitors {
		if known[m.Name] {
			continue
		}
		known[m.Name] = true
		plan.add = append(plan.add, m)
	}
	return plan
}
