package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/kiosk"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		Running:       st.DaemonRunning,
		UptimeSeconds: st.UptimeSeconds,
		Outputs:       st.Outputs,
		Windows:       st.Windows,
		MappedWindows: st.MappedWindows,
		Focused:       st.Focused,
		ConfigFile:    st.ConfigFile,
	}, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	outputs, err := s.daemon.GetOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, err
	}
	if outputs == nil {
		outputs = []kiosk.OutputInfo{}
	}
	return nil, ListOutputsOutput{Outputs: outputs}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.daemon.GetWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	var outputID compositor.OutputID
	if args.Output != "" {
		outputs, err := s.daemon.GetOutputs()
		if err != nil {
			return nil, ListWindowsOutput{}, err
		}
		for _, o := range outputs {
			if o.Name == args.Output {
				outputID = o.ID
				break
			}
		}
		if outputID == compositor.NoOutput {
			return nil, ListWindowsOutput{}, fmt.Errorf("unknown output %q", args.Output)
		}
	}

	filtered := make([]kiosk.WindowInfo, 0, len(windows))
	for _, w := range windows {
		if args.AppID != "" && w.AppID != args.AppID {
			continue
		}
		if outputID != compositor.NoOutput && w.Output != outputID {
			continue
		}
		filtered = append(filtered, w)
	}
	return nil, ListWindowsOutput{Windows: filtered}, nil
}

func (s *Server) handleActivateWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ActivateWindowInput) (*mcpsdk.CallToolResult, ActivateWindowOutput, error) {
	if args.SurfaceID == 0 {
		return nil, ActivateWindowOutput{}, fmt.Errorf("surface_id is required")
	}
	if err := s.daemon.Activate(args.SurfaceID); err != nil {
		return nil, ActivateWindowOutput{}, fmt.Errorf("failed to activate window %d: %w", args.SurfaceID, err)
	}
	return nil, ActivateWindowOutput{SurfaceID: args.SurfaceID, Activated: true}, nil
}

func (s *Server) handleReloadConfig(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadConfigInput) (*mcpsdk.CallToolResult, ReloadConfigOutput, error) {
	if err := s.daemon.Reload(); err != nil {
		return nil, ReloadConfigOutput{}, fmt.Errorf("failed to reload config: %w", err)
	}
	return nil, ReloadConfigOutput{Reloaded: true}, nil
}
