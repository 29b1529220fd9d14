package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gabo-game/gabo-server/internal/config"
	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/server"
	"github.com/gabo-game/gabo-server/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Gabo server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var opts []session.Option
	if cfg.Replay.Enabled {
		opts = append(opts, session.WithRecorder(game.NewReplayRecorder(logger, cfg.Replay.Directory)))
		logger.Info("replay recording enabled", zap.String("directory", cfg.Replay.Directory))
	}
	sessionMgr := session.NewManager(cfg.Game.Rules, cfg.Server.MaxSessions, logger, opts...)
	logger.Info("session manager initialized",
		zap.Int("max_sessions", cfg.Server.MaxSessions),
		zap.Duration("session_ttl", cfg.Server.SessionTTL),
	)
	go sessionMgr.RunCleanup(ctx, cfg.Server.CleanupInterval, cfg.Server.SessionTTL)

	hub := server.NewHub(sessionMgr, cfg.Server.HTTP.AllowedOrigins, cfg.Server.HTTP.WriteTimeout, logger)
	go hub.Run(ctx)

	httpServer := &http.Server{
		Addr:        cfg.Server.HTTP.Address,
		Handler:     server.NewHandler(sessionMgr, hub, cfg.Server.HTTP.AllowedOrigins, logger),
		ReadTimeout: cfg.Server.HTTP.ReadTimeout,
	}
	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.HTTP.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	admin := server.NewAdminServer(cfg.Server.GRPC.MaxConcurrentStreams, logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		if serveErr := admin.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	logger.Info("Gabo server initialized",
		zap.String("version", version),
		zap.String("http_address", cfg.Server.HTTP.Address),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	admin.Stop()

	logger.Info("Gabo server stopped")
}

// initLogger builds a json or console logger at the configured level.
// Unknown levels fall back to info.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level
	zapCfg.InitialFields = map[string]any{"service": "gabo-server"}
	return zapCfg.Build()
}
