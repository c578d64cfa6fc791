package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/petems/sonos-tray/internal/app"
	"github.com/petems/sonos-tray/internal/config"
	"github.com/petems/sonos-tray/internal/devicewatcher"
	"github.com/petems/sonos-tray/internal/hotkey"
	"github.com/petems/sonos-tray/internal/intercept"
	"github.com/petems/sonos-tray/internal/logging"
	"github.com/petems/sonos-tray/internal/mediakeys"
	"github.com/petems/sonos-tray/internal/notify"
	"github.com/petems/sonos-tray/internal/permissions"
	"github.com/petems/sonos-tray/internal/registry"
	"github.com/petems/sonos-tray/internal/sonos"
	"github.com/petems/sonos-tray/internal/tray"
	"github.com/petems/sonos-tray/internal/volumectl"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// macOS requires accessibility approval before the key tap works
	if err := permissions.EnsurePermissions(); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := devicewatcher.New(devicewatcher.SystemQuery{}, cfg.PollInterval(), log)

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, cfg, notify.New(log), Version, Commit, log) // App reference set below

	// Create app with tray as event sink
	application := app.New(app.Config{
		Registry:   registry.New(),
		Volume:     volumectl.New(log),
		Discoverer: sonos.NewDiscoverer(log),
		Watcher:    watcher,
		Config:     cfg,
		Logger:     log,
		Notifier:   trayUI,
	})

	// Set app reference in tray
	trayUI.SetApp(application)

	// Install the media-key tap
	tap, err := mediakeys.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize media key tap")
	}
	if err := tap.Start(application.OnMediaKey); err != nil {
		// The F-key hotkeys still work without the tap.
		log.Warn().Err(err).Msg("Media key tap unavailable")
	}
	defer tap.Stop()

	// Register the F-key hotkeys
	hkManager, err := hotkey.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize hotkeys")
	}
	defer hkManager.Close()

	if err := hkManager.Register(cfg.HotkeyDown, func(pressed bool) {
		application.OnHotkey(intercept.ActionVolumeDown, pressed)
	}); err != nil {
		log.Error().Err(err).Str("hotkey", cfg.HotkeyDown).Msg("Failed to register hotkey")
	}
	if err := hkManager.Register(cfg.HotkeyUp, func(pressed bool) {
		application.OnHotkey(intercept.ActionVolumeUp, pressed)
	}); err != nil {
		log.Error().Err(err).Str("hotkey", cfg.HotkeyUp).Msg("Failed to register hotkey")
	}

	// Start device watching and the initial discovery round
	application.Start(ctx)

	log.Info().Msg("sonos-tray starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		if err := application.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		tap.Stop()
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}
