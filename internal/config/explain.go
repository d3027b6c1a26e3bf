package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	display
//	log_level
//	background_color
//	click_buttons
//	touch_to_activate
//	outputs
//	outputs.<index>
//	outputs.<index>.name
//	outputs.<index>.app_ids
//
// An output may also be addressed by connector name, e.g. outputs.HDMI-A-1.app_ids.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	path, err := canonicalOutputPath(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// canonicalOutputPath rewrites outputs.<name>... to outputs.<index>... so
// the source lookup matches the file.
func canonicalOutputPath(cfg *Config, path string) (string, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] != "outputs" {
		return path, nil
	}
	if _, err := strconv.Atoi(parts[1]); err == nil {
		return path, nil
	}
	for i, o := range cfg.Outputs {
		if o.Name == parts[1] {
			parts[1] = strconv.Itoa(i)
			return strings.Join(parts, "."), nil
		}
	}
	return "", fmt.Errorf("unknown output %q", parts[1])
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	scalar := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}

	switch parts[0] {
	case "display":
		return scalar(cfg.Display)
	case "log_level":
		return scalar(cfg.LogLevel)
	case "background_color":
		return scalar(cfg.BackgroundColor)
	case "click_buttons":
		if len(parts) == 1 {
			return cfg.ClickButtons, nil
		}
		i, err := strconv.Atoi(parts[1])
		if err != nil || len(parts) != 2 || i < 0 || i >= len(cfg.ClickButtons) {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.ClickButtons[i], nil
	case "touch_to_activate":
		return scalar(cfg.TouchToActivate)
	case "outputs":
		if len(parts) == 1 {
			return cfg.Outputs, nil
		}
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 || i >= len(cfg.Outputs) {
			return nil, fmt.Errorf("unknown outputs entry %q", parts[1])
		}
		o := cfg.Outputs[i]
		if len(parts) == 2 {
			return o, nil
		}
		if len(parts) != 3 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[2] {
		case "name":
			return o.Name, nil
		case "app_ids":
			return o.AppIDs, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
