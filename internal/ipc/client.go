package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/kioskwm/internal/kiosk"
	"github.com/1broseidon/kioskwm/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Ping checks that the daemon answers
func (c *Client) Ping() error {
	return c.call(CommandPing, nil, nil)
}

// GetStatus retrieves the daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetOutputs lists the outputs the shell knows about
func (c *Client) GetOutputs() ([]kiosk.OutputInfo, error) {
	var data OutputsData
	if err := c.call(CommandGetOutputs, nil, &data); err != nil {
		return nil, err
	}
	return data.Outputs, nil
}

// GetWindows lists managed windows, topmost first
func (c *Client) GetWindows() ([]kiosk.WindowInfo, error) {
	var data WindowsData
	if err := c.call(CommandGetWindows, nil, &data); err != nil {
		return nil, err
	}
	return data.Windows, nil
}

// Activate gives a window focus on every seat
func (c *Client) Activate(surfaceID uint32) error {
	return c.call(CommandActivate, ActivatePayload{SurfaceID: surfaceID}, nil)
}

// Reload asks the daemon to re-read its config file
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}
