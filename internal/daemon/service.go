package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/config"
	"github.com/1broseidon/kioskwm/internal/kiosk"
)

// Loop runs functions on the compositor's event loop goroutine.
type Loop interface {
	Do(ctx context.Context, fn func()) error
}

// Shell is the part of the kiosk controller the control surface uses.
type Shell interface {
	Snapshot() kiosk.Snapshot
	ActivateSurface(id compositor.SurfaceID) error
	SetConfigStore(store kiosk.ConfigStore)
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	// ConfigPath is re-read on reload.
	ConfigPath string
	// Level, when set, follows log_level across reloads.
	Level  *slog.LevelVar
	Logger *slog.Logger
}

// Service serves IPC and MCP requests against the running shell. Every
// access to the shell goes through the event loop.
type Service struct {
	loop       Loop
	shell      Shell
	configPath string
	level      *slog.LevelVar
	logger     *slog.Logger

	mu      sync.Mutex
	current *config.Config
}

// NewService creates a service for shell, running on loop.
func NewService(cfg ServiceConfig, loop Loop, shell Shell) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loop:       loop,
		shell:      shell,
		configPath: cfg.ConfigPath,
		level:      cfg.Level,
		logger:     logger,
	}
}

// ConfigFile returns the path of the config file the daemon reloads.
func (s *Service) ConfigFile() string { return s.configPath }

// Config returns the most recently applied config, or nil before the first
// Apply.
func (s *Service) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Snapshot captures the shell state.
func (s *Service) Snapshot(ctx context.Context) (kiosk.Snapshot, error) {
	var snap kiosk.Snapshot
	if err := s.loop.Do(ctx, func() { snap = s.shell.Snapshot() }); err != nil {
		return kiosk.Snapshot{}, err
	}
	return snap, nil
}

// Activate gives a window focus on every seat.
func (s *Service) Activate(ctx context.Context, id compositor.SurfaceID) error {
	var activateErr error
	if err := s.loop.Do(ctx, func() { activateErr = s.shell.ActivateSurface(id) }); err != nil {
		return err
	}
	return activateErr
}

// Reload re-reads the config file and applies it.
func (s *Service) Reload(ctx context.Context) error {
	res, err := config.LoadFromPath(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return s.Apply(ctx, res.Config)
}

// Apply makes cfg the store for outputs created from now on. Outputs that
// already exist keep the allow-list they read when they appeared.
func (s *Service) Apply(ctx context.Context, cfg *config.Config) error {
	if err := s.loop.Do(ctx, func() { s.shell.SetConfigStore(cfg) }); err != nil {
		return err
	}
	if s.level != nil {
		s.level.Set(cfg.SlogLevel())
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	s.logger.Info("config applied", "outputs", len(cfg.Outputs), "log_level", cfg.SlogLevel())
	return nil
}
