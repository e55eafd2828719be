package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magicworkstation/workstation-server-go/internal/catalog"
	"github.com/magicworkstation/workstation-server-go/internal/config"
	"github.com/magicworkstation/workstation-server-go/internal/server"
	"github.com/magicworkstation/workstation-server-go/internal/session"
	"github.com/magicworkstation/workstation-server-go/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting workstation server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Pick the snapshot store: postgres when configured, else in-memory.
	var snapshots store.SnapshotStore
	if cfg.Database.Enabled {
		pg, err := store.NewPostgresStore(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		snapshots = pg
		logger.Info("postgres snapshot store initialized")
	} else {
		snapshots = store.NewMemoryStore()
		logger.Warn("database disabled; games will not survive a restart")
	}
	defer snapshots.Close()

	// Card catalog and deck lists
	cat, err := catalog.Load(cfg.Game.CardDatabasePath, logger)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.String("path", cfg.Game.CardDatabasePath),
		zap.Int("cards", cat.Size()),
	)
	decks := catalog.NewDeckStore(cfg.Game.DeckDir, cat, logger)

	// Game registry
	manager := session.NewManager(cfg.Game, snapshots, decks, logger)
	if err := manager.Rehydrate(ctx); err != nil {
		logger.Fatal("failed to rehydrate games", zap.Error(err))
	}

	// WebSocket fan-out
	hub := server.NewHub(manager, cfg.Server.WriteWait, cfg.Server.SendBuffer, logger)
	manager.SetPublisher(hub.Publish)

	api := server.NewAPI(manager, hub, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.HTTPAddr))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	logger.Info("workstation server initialized",
		zap.String("version", version),
		zap.String("http_address", cfg.Server.HTTPAddr),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	// Sessions flush their final snapshots on close.
	manager.CloseAll()

	logger.Info("workstation server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
