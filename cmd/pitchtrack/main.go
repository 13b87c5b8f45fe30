// Package main is the entry point for PitchTrack.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pitchtrack-go/application"
	"pitchtrack-go/core/eventbus"
	"pitchtrack-go/domain/analysis"
	"pitchtrack-go/infrastructure/analyzer"
	"pitchtrack-go/infrastructure/config"
	"pitchtrack-go/infrastructure/logging"
	"pitchtrack-go/infrastructure/preview"
	"pitchtrack-go/infrastructure/repository"
	"pitchtrack-go/infrastructure/workspace"
	"pitchtrack-go/presentation"
	"pitchtrack-go/resources"

	"fyne.io/fyne/v2/app"
)

func main() {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		os.Stderr.WriteString("Failed to resolve config path: " + err.Error() + "\n")
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath, resources.DefaultConfig)
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logging (dev: console only, prod: rotating file)
	logCfg, levelErr := logging.FromOverrides(logging.Overrides{
		Level:      cfg.Logging.Level,
		AddSource:  cfg.Logging.AddSource,
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	logger, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		// Fallback to stderr if logging setup fails
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("Starting PitchTrack", "config", cfgPath)
	if levelErr != nil {
		logger.Warn("Ignoring log level", "error", levelErr)
	}
	writeDefaultConfig(cfgPath, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Output directory
	ws, err := workspace.New(&workspace.Config{Dir: cfg.Output.Dir, Logger: logger})
	if err != nil {
		logger.Error("Failed to resolve output directory", "error", err)
		os.Exit(1)
	}
	if _, err := ws.Ensure(); err != nil {
		// Not fatal: every command retries and reports the error
		logger.Error("Failed to create output directory", "dir", ws.Dir(), "error", err)
	}

	// Run history
	history, closeHistory := openHistory(ctx, cfg.History, logger)
	defer closeHistory()

	// Initialize event bus
	eventBus := eventbus.New(cfg.EventBus.Buffer, eventbus.WithLogger(logger))
	defer eventBus.Close()

	launcher := analyzer.NewProcessLauncher(&analyzer.Config{
		Interpreter: cfg.Analyzer.Interpreter,
		Script:      cfg.Analyzer.Script,
		WorkDir:     ws.Dir(),
		Logger:      logger,
	})

	// Initialize coordinator
	coordinator := application.NewCoordinator(&application.CoordinatorConfig{
		Workspace: ws,
		Launcher:  launcher,
		History:   history,
		EventBus:  eventBus,
		Logger:    logger,
	})
	coordinator.Start()
	defer coordinator.Stop()

	// Preview server
	var previewURL string
	if cfg.Preview.Enabled {
		srv := preview.New(ws, &preview.Config{Addr: cfg.Preview.Addr, Logger: logger})
		previewURL = srv.VideoURL()
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("Preview server stopped", "error", err)
			}
		}()
	}

	// Initialize UI event bridge
	bridge := presentation.NewUIEventBridge(&presentation.BridgeConfig{
		Dispatcher: coordinator,
		History:    coordinator,
		EventBus:   eventBus,
		Logger:     logger,
	})
	defer bridge.Close()

	// Initialize Fyne app
	fyneApp := app.NewWithID("io.pitchtrack.desktop")
	fyneApp.SetIcon(resources.GetAppIcon())

	registry := presentation.NewWindowRegistry(&presentation.WindowRegistryConfig{
		App:        fyneApp,
		Bridge:     bridge,
		PreviewURL: previewURL,
		Logger:     logger,
	})
	coordinator.SetSaveDialog(presentation.NewFyneSaveDialog(registry.Focused, logger))

	// Initialize main window
	mainWindow := presentation.NewMainWindow(&presentation.MainWindowConfig{
		App:      fyneApp,
		Bridge:   bridge,
		Registry: registry,
		Logger:   logger,
	})
	defer mainWindow.Cleanup()

	// Show and run
	mainWindow.Show()
	fyneApp.Run()

	// Start shutdown timeout - force exit after 10 seconds if cleanup hangs
	go func() {
		time.Sleep(10 * time.Second)
		logger.Warn("Shutdown timeout, forcing exit")
		os.Exit(0)
	}()

	logger.Info("Application shutdown complete")
}

// openHistory connects the run history. Mongo failures fall back to memory.
func openHistory(ctx context.Context, cfg config.HistoryConfig, logger *slog.Logger) (*analysis.HistoryService, func()) {
	if !cfg.Enabled {
		return analysis.NewHistoryService(repository.NewMemoryAnalysisRepository()), func() {}
	}

	mongoDB, err := repository.NewMongoDB(ctx, &repository.MongoDBConfig{
		URI:                    cfg.MongoURI,
		Database:               cfg.Database,
		AppName:                logging.AppName,
		ConnectTimeout:         cfg.ConnectTimeout.Std(),
		PingTimeout:            cfg.PingTimeout.Std(),
		ServerSelectionTimeout: cfg.ServerSelectionTimeout.Std(),
	}, logger)
	if err != nil {
		logger.Warn("MongoDB unavailable, keeping history in memory", "error", err)
		return analysis.NewHistoryService(repository.NewMemoryAnalysisRepository()), func() {}
	}

	repo := repository.NewMongoAnalysisRepository(mongoDB, logger)
	return analysis.NewHistoryService(repo), func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			logger.Warn("Failed to close MongoDB", "error", err)
		}
	}
}

// writeDefaultConfig copies the embedded defaults on first start so they can be edited.
func writeDefaultConfig(path string, logger *slog.Logger) {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn("Failed to create config directory", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, resources.DefaultConfig, 0o644); err != nil {
		logger.Warn("Failed to write config file", "path", path, "error", err)
		return
	}
	logger.Info("Wrote default config", "path", path)
}
