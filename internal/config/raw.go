package config

// RawConfig mirrors the file format. Pointer fields distinguish "unset" from
// zero values so defaults survive partial files.
type RawConfig struct {
	Display         *string        `yaml:"display" toml:"display"`
	LogLevel        *string        `yaml:"log_level" toml:"log_level"`
	BackgroundColor *string        `yaml:"background_color" toml:"background_color"`
	ClickButtons    *[]uint32      `yaml:"click_buttons" toml:"click_buttons"`
	TouchToActivate *bool          `yaml:"touch_to_activate" toml:"touch_to_activate"`
	Outputs         []OutputConfig `yaml:"outputs" toml:"outputs"`
}

// BuildEffectiveConfig applies raw settings on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.BackgroundColor != nil {
		cfg.BackgroundColor = *raw.BackgroundColor
	}
	if raw.ClickButtons != nil {
		cfg.ClickButtons = append([]uint32{}, (*raw.ClickButtons)...)
	}
	if raw.TouchToActivate != nil {
		cfg.TouchToActivate = *raw.TouchToActivate
	}
	if raw.Outputs != nil {
		cfg.Outputs = append([]OutputConfig(nil), raw.Outputs...)
	}
	return cfg
}
