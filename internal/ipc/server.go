package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/kiosk"
	"github.com/1broseidon/kioskwm/internal/runtimepath"
)

// requestTimeout bounds how long a single command may wait on the daemon.
const requestTimeout = 5 * time.Second

// Provider executes IPC commands against the running shell. Implementations
// run every call on the event loop goroutine.
type Provider interface {
	Snapshot(ctx context.Context) (kiosk.Snapshot, error)
	Activate(ctx context.Context, id compositor.SurfaceID) error
	Reload(ctx context.Context) error
	ConfigFile() string
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	provider     Provider
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(provider Provider, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove a stale socket left by a crashed daemon
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		provider:   provider,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * requestTimeout))

	reader := bufio.NewReader(conn)

	// One JSON request per line
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal IPC response", "command", req.Command, "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Debug("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandPing:
		return okResponse(nil)
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandGetOutputs:
		return s.handleGetOutputs(ctx)
	case CommandGetWindows:
		return s.handleGetWindows(ctx)
	case CommandActivate:
		return s.handleActivate(ctx, req.Payload)
	case CommandReload:
		return s.handleReload(ctx)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	snap, err := s.provider.Snapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}
	status := statusFromSnapshot(snap)
	status.UptimeSeconds = int64(time.Since(s.startTime).Seconds())
	status.ConfigFile = s.provider.ConfigFile()
	return okResponse(status)
}

func (s *Server) handleGetOutputs(ctx context.Context) *Response {
	snap, err := s.provider.Snapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get outputs: %v", err))
	}
	return okResponse(OutputsData{Outputs: snap.Outputs})
}

func (s *Server) handleGetWindows(ctx context.Context) *Response {
	snap, err := s.provider.Snapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get windows: %v", err))
	}
	return okResponse(WindowsData{Windows: snap.Windows})
}

func (s *Server) handleActivate(ctx context.Context, payload json.RawMessage) *Response {
	var req ActivatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid activate payload: %v", err))
	}
	if req.SurfaceID == 0 {
		return NewErrorResponse("surface_id is required")
	}

	s.logger.Info("IPC: activate", "surface", req.SurfaceID)
	if err := s.provider.Activate(ctx, compositor.SurfaceID(req.SurfaceID)); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to activate window: %v", err))
	}
	return okResponse(nil)
}

func (s *Server) handleReload(ctx context.Context) *Response {
	s.logger.Info("IPC: reload requested")
	if err := s.provider.Reload(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return okResponse(nil)
}

func okResponse(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
