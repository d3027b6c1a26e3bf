package kiosk

import (
	"strings"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/signal"
)

const (
	backgroundLabel = "kiosk shell background surface"
	backgroundRole  = "kiosk-shell-background"
)

// OutputEntry is the shell state of one live output: its background fill
// and the application ids pinned to it.
type OutputEntry struct {
	c      *Controller
	output *compositor.Output

	background *compositor.View
	appIDs     string
	hasAppIDs  bool

	outputDestroy signal.Listener[*compositor.Output]
}

func (c *Controller) createOutputEntry(o *compositor.Output) *OutputEntry {
	e := &OutputEntry{c: c, output: o}
	o.DestroySignal.Add(&e.outputDestroy, func(*compositor.Output) { e.destroy() })
	c.outputs = append(c.outputs, e)

	e.recreateBackground()
	e.configure()

	c.logger.Info("output added",
		"output", o.Name,
		"id", o.ID,
		"width", o.Width,
		"height", o.Height,
		"app_ids", e.appIDs)
	return e
}

// Output returns the output, or nil once it has been removed.
func (e *OutputEntry) Output() *compositor.Output { return e.output }

// Background returns the background view, or nil.
func (e *OutputEntry) Background() *compositor.View { return e.background }

// AppIDs returns the raw allow-list and whether one was configured.
func (e *OutputEntry) AppIDs() (string, bool) { return e.appIDs, e.hasAppIDs }

// configure reads the allow-list once, from the store current at creation.
func (e *OutputEntry) configure() {
	store := e.c.store
	if store == nil || e.output == nil {
		return
	}
	section := store.Section("output", "name", e.output.Name)
	if section == nil {
		return
	}
	if v, ok := section.String("app-ids"); ok {
		e.appIDs = v
		e.hasAppIDs = true
	}
}

// HasAppID reports whether appID is a complete comma-separated entry of the
// allow-list.
func (e *OutputEntry) HasAppID(appID string) bool {
	if !e.hasAppIDs || appID == "" {
		return false
	}
	list := e.appIDs
	for start := 0; start < len(list); {
		i := strings.Index(list[start:], appID)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(appID)
		if (i == 0 || list[i-1] == ',') && (end == len(list) || list[end] == ',') {
			return true
		}
		start = i + 1
	}
	return false
}

func (e *OutputEntry) recreateBackground() {
	comp := e.c.comp
	if e.background != nil {
		comp.DestroyView(e.background)
		e.background = nil
	}
	if e.output == nil {
		return
	}

	v, err := comp.CreateColoredView(backgroundLabel, e.c.backgroundColor, e.output.Rect())
	if err != nil {
		e.c.logger.Warn("failed to create output background", "output", e.output.Name, "error", err)
		return
	}
	v.SetRole(backgroundRole)
	v.SetOutput(e.output.ID)
	e.c.background.Insert(v)
	v.SetMapped(true)
	e.background = v
}

func (e *OutputEntry) destroy() {
	name := ""
	if e.output != nil {
		name = e.output.Name
	}
	e.output = nil
	e.outputDestroy.Remove()

	if e.background != nil {
		e.c.comp.DestroyView(e.background)
		e.background = nil
	}
	e.c.unlinkOutputEntry(e)

	e.appIDs = ""
	e.hasAppIDs = false
	e.c.logger.Info("output removed", "output", name)
}
