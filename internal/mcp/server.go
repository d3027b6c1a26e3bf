package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/kioskwm/internal/ipc"
	"github.com/1broseidon/kioskwm/internal/kiosk"
)

const (
	ServerName    = "kioskwm"
	ServerVersion = "0.1.0"
)

// Daemon is the control surface the tools call. *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetOutputs() ([]kiosk.OutputInfo, error)
	GetWindows() ([]kiosk.WindowInfo, error)
	Activate(surfaceID uint32) error
	Reload() error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server exposing the kiosk shell to agents.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates a new MCP server that forwards tool calls to the
// running daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report whether the kioskwm daemon is running, its uptime, the number of outputs and windows, and the focused window.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List the outputs (monitors) the kiosk shell manages with their geometry, configured app_ids allow-list and window count.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List managed windows, topmost first. Each window reports its surface_id, app_id, title, mode (fullscreen, maximized or normal), output, parent and whether it is activated. Optionally filter by app_id or output name.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_window",
		Description: "Raise a window and give it keyboard focus on every seat. Use the surface_id from list_windows.",
	}, s.handleActivateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Re-read the kioskwm config file. New allow-lists apply to outputs that appear after the reload.",
	}, s.handleReloadConfig)
}
