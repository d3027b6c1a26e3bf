package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/kioskwm/internal/config"
	"github.com/1broseidon/kioskwm/internal/daemon"
	"github.com/1broseidon/kioskwm/internal/ipc"
	"github.com/1broseidon/kioskwm/internal/kiosk"
	"github.com/1broseidon/kioskwm/internal/x11"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/kioskwm/config.yaml)")
	display := fs.String("display", "", "X display to manage (default: config display, then $DISPLAY)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kioskwm daemon [--path PATH] [--display DISPLAY]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the kiosk window manager in the foreground. SIGHUP reloads the config.")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	configPath := *path
	if configPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			log.Fatalf("Failed to resolve config path: %v", err)
		}
		configPath = p
	}

	res, err := config.LoadFromPath(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File, "outputs", len(cfg.Outputs))
	} else {
		logger.Info("no config file, using defaults", "path", configPath)
	}

	if *display == "" {
		*display = cfg.Display
	}
	host, err := x11.New(x11.Config{
		Display:      *display,
		ClickButtons: cfg.ClickButtons,
		Logger:       logger.With("component", "x11"),
	})
	if err != nil {
		if errors.Is(err, x11.ErrOtherWM) {
			log.Fatalf("Another window manager is running on this display")
		}
		log.Fatalf("Failed to start X11 host: %v", err)
	}

	background := cfg.Background()
	shell, err := kiosk.New(kiosk.Config{
		Compositor:           host.Compositor(),
		Store:                cfg,
		Logger:               logger.With("component", "kiosk"),
		BackgroundColor:      &background,
		ClickButtons:         cfg.ClickButtons,
		DisableTouchActivate: !cfg.TouchToActivate,
		// No Grabber: the X11 host releases every button as soon as the
		// click is replayed, so a pointer move request never finds a
		// button held and move requests are ignored.
	})
	if err != nil {
		host.Close()
		log.Fatalf("Failed to create kiosk shell: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := daemon.NewService(daemon.ServiceConfig{
		ConfigPath: configPath,
		Level:      level,
		Logger:     logger.With("component", "service"),
	}, host, shell)

	ipcServer, err := ipc.NewServer(svc, logger.With("component", "ipc"))
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}

	watcher, err := config.NewWatcher(configPath, logger.With("component", "config"), func(res *config.LoadResult) {
		applyCtx, applyCancel := context.WithTimeout(ctx, 5*time.Second)
		defer applyCancel()
		if err := svc.Apply(applyCtx, res.Config); err != nil {
			logger.Warn("failed to apply reloaded config", "error", err)
		}
	})
	if err == nil {
		err = watcher.Start()
	}
	if err != nil {
		logger.Warn("config hot reload disabled", "error", err)
		watcher = nil
	}

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: 10 * time.Second,
		Logger:   logger.With("component", "reconciler"),
	}, host)
	go reconciler.Run(ctx)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("received SIGHUP, reloading config")
				reloadCtx, reloadCancel := context.WithTimeout(ctx, 5*time.Second)
				if err := svc.Reload(reloadCtx); err != nil {
					logger.Warn("config reload failed", "error", err)
				}
				reloadCancel()
			}
		}
	}()

	logger.Info("kioskwm daemon started", "socket", ipcServer.SocketPath())
	runErr := host.Run(ctx, shell)

	signal.Stop(hup)
	ipcServer.Stop()
	if watcher != nil {
		watcher.Stop()
	}
	shell.Destroy()
	host.Close()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("event loop stopped", "error", runErr)
		return 1
	}
	logger.Info("kioskwm daemon stopped")
	return 0
}
