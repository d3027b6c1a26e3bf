package mcp

import "github.com/1broseidon/kioskwm/internal/kiosk"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Running       bool   `json:"running"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Outputs       int    `json:"outputs"`
	Windows       int    `json:"windows"`
	MappedWindows int    `json:"mapped_windows"`
	Focused       uint32 `json:"focused,omitempty"`
	ConfigFile    string `json:"config_file,omitempty"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []kiosk.OutputInfo `json:"outputs"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	AppID  string `json:"app_id,omitempty" jsonschema:"Only list windows with this application id"`
	Output string `json:"output,omitempty" jsonschema:"Only list windows placed on the output with this name"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []kiosk.WindowInfo `json:"windows"`
}

// ActivateWindowInput is the input for the activate_window tool.
type ActivateWindowInput struct {
	SurfaceID uint32 `json:"surface_id" jsonschema:"Surface id of the window to activate, as reported by list_windows"`
}

// ActivateWindowOutput is the output for the activate_window tool.
type ActivateWindowOutput struct {
	SurfaceID uint32 `json:"surface_id"`
	Activated bool   `json:"activated"`
}

// ReloadConfigInput is the input for the reload_config tool.
type ReloadConfigInput struct{}

// ReloadConfigOutput is the output for the reload_config tool.
type ReloadConfigOutput struct {
	Reloaded bool `json:"reloaded"`
}
