package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/kioskwm/internal/kiosk"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing       CommandType = "PING"
	CommandGetStatus  CommandType = "GET_STATUS"
	CommandGetOutputs CommandType = "GET_OUTPUTS"
	CommandGetWindows CommandType = "GET_WINDOWS"
	CommandActivate   CommandType = "ACTIVATE"
	CommandReload     CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool   `json:"daemon_running"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Outputs       int    `json:"outputs"`
	Windows       int    `json:"windows"`
	MappedWindows int    `json:"mapped_windows"`
	Focused       uint32 `json:"focused,omitempty"`
	ConfigFile    string `json:"config_file,omitempty"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	Outputs []kiosk.OutputInfo `json:"outputs"`
}

// WindowsData represents the data returned by GET_WINDOWS
type WindowsData struct {
	Windows []kiosk.WindowInfo `json:"windows"`
}

// ActivatePayload represents the payload for the ACTIVATE command
type ActivatePayload struct {
	SurfaceID uint32 `json:"surface_id"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// statusFromSnapshot summarises a snapshot for GET_STATUS.
func statusFromSnapshot(snap kiosk.Snapshot) StatusData {
	st := StatusData{
		DaemonRunning: true,
		Outputs:       len(snap.Outputs),
		Windows:       len(snap.Windows),
	}
	for _, w := range snap.Windows {
		if w.Mapped {
			st.MappedWindows++
		}
	}
	for _, seat := range snap.Seats {
		if seat.Focus != 0 {
			st.Focused = uint32(seat.Focus)
			break
		}
	}
	return st
}
