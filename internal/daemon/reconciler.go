package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/kioskwm/internal/compositor"
)

// Host is the part of the X11 host the reconciler drives. Everything except
// Do must be called from inside Do.
type Host interface {
	Loop
	ListWindows() []compositor.SurfaceID
	WindowExists(id compositor.SurfaceID) bool
	Forget(id compositor.SurfaceID)
	SyncOutputs() error
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks for state drift and corrects it: windows
// that vanished without a destroy notification are released and outputs are
// re-read from RandR.
type Reconciler struct {
	interval time.Duration
	host     Host
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, host Host) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		host:     host,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.host.Do(ctx, r.reconcile); err != nil && ctx.Err() == nil {
				r.logger.Warn("reconciler: event loop unavailable", "error", err)
			}
		}
	}
}

// reconcile performs a single reconciliation pass on the event loop.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	for _, id := range r.host.ListWindows() {
		if r.host.WindowExists(id) {
			continue
		}
		r.logger.Info("reconciler: stale window detected", "window_id", id)
		r.host.Forget(id)
	}

	if err := r.host.SyncOutputs(); err != nil {
		r.logger.Warn("reconciler: failed to sync outputs", "error", err)
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow(ctx context.Context) error {
	return r.host.Do(ctx, r.reconcile)
}
