package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/kiosk"
)

const (
	DefaultBackgroundColor = "#808080"
	maxPointerButton       = 9
)

// OutputConfig pins applications to an output.
type OutputConfig struct {
	// Name is the connector name reported by RandR, e.g. "HDMI-A-1".
	Name string `yaml:"name" toml:"name"`
	// AppIDs is a comma-separated list of application ids (WM_CLASS class
	// names) that open on this output.
	AppIDs string `yaml:"app_ids,omitempty" toml:"app_ids"`
}

// Config is the effective kioskwm configuration.
type Config struct {
	Display         string         `yaml:"display,omitempty" toml:"display"`
	LogLevel        string         `yaml:"log_level" toml:"log_level"`
	BackgroundColor string         `yaml:"background_color" toml:"background_color"`
	ClickButtons    []uint32       `yaml:"click_buttons" toml:"click_buttons"`
	TouchToActivate bool           `yaml:"touch_to_activate" toml:"touch_to_activate"`
	Outputs         []OutputConfig `yaml:"outputs,omitempty" toml:"outputs"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		BackgroundColor: DefaultBackgroundColor,
		ClickButtons:    []uint32{compositor.ButtonLeft, compositor.ButtonRight},
		TouchToActivate: true,
	}
}

// ValidationError reports an invalid setting, with its file position when
// known.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if _, err := colorful.Hex(c.BackgroundColor); err != nil {
		return &ValidationError{Path: "background_color", Err: fmt.Errorf("background_color must be a #rrggbb colour: %w", err)}
	}
	for _, b := range c.ClickButtons {
		if b < 1 || b > maxPointerButton {
			return &ValidationError{Path: "click_buttons", Err: fmt.Errorf("button %d out of range 1-%d", b, maxPointerButton)}
		}
	}

	seen := make(map[string]struct{}, len(c.Outputs))
	for i, o := range c.Outputs {
		path := fmt.Sprintf("outputs.%d", i)
		if strings.TrimSpace(o.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("output name is required")}
		}
		if _, dup := seen[o.Name]; dup {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("output %q is configured more than once", o.Name)}
		}
		seen[o.Name] = struct{}{}
		if o.AppIDs == "" {
			continue
		}
		for _, id := range strings.Split(o.AppIDs, ",") {
			if id == "" {
				return &ValidationError{Path: path + ".app_ids", Err: fmt.Errorf("app_ids contains an empty entry")}
			}
			if strings.TrimSpace(id) != id {
				return &ValidationError{Path: path + ".app_ids", Err: fmt.Errorf("app id %q has surrounding whitespace", id)}
			}
		}
	}
	return nil
}

// Background returns the parsed background colour, falling back to the
// default grey when the setting does not parse.
func (c *Config) Background() compositor.Color {
	col, err := colorful.Hex(c.BackgroundColor)
	if err != nil {
		return kiosk.DefaultBackgroundColor
	}
	return compositor.Color{R: col.R, G: col.G, B: col.B}
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Output returns the configuration for a connector, or nil.
func (c *Config) Output(name string) *OutputConfig {
	for i := range c.Outputs {
		if c.Outputs[i].Name == name {
			return &c.Outputs[i]
		}
	}
	return nil
}

type outputSection OutputConfig

func (s outputSection) String(key string) (string, bool) {
	switch key {
	case "name":
		return s.Name, true
	case "app-ids", "app_ids":
		if s.AppIDs == "" {
			return "", false
		}
		return s.AppIDs, true
	}
	return "", false
}

// Section implements kiosk.ConfigStore for [output] sections keyed by name.
func (c *Config) Section(section, key, value string) kiosk.ConfigSection {
	if c == nil || section != "output" || key != "name" {
		return nil
	}
	o := c.Output(value)
	if o == nil {
		return nil
	}
	return outputSection(*o)
}
