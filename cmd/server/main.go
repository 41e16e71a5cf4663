package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yetria/guidance/internal/artifacts"
	"github.com/yetria/guidance/internal/auth"
	"github.com/yetria/guidance/internal/config"
	"github.com/yetria/guidance/internal/database"
	"github.com/yetria/guidance/internal/monitoring"
	"github.com/yetria/guidance/internal/predict"
	"github.com/yetria/guidance/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging setup
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(slogger)

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Model artifacts are mandatory: without them no prediction can be
	// served, so a missing bundle aborts startup.
	bundle, err := artifacts.Load(cfg.ArtifactsDir, slogger)
	if err != nil {
		slog.Error("Failed to load model artifacts", "error", err, "dir", cfg.ArtifactsDir)
		os.Exit(1)
	}

	engine := predict.FromBundle(bundle, slogger)

	authSvc, err := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		slog.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}

	appLogger := monitoring.NewLogger()
	srv := server.New(cfg, db, engine, authSvc, bundle.Sources, appLogger)

	memoryMonitor := monitoring.NewMemoryMonitor(30*time.Second, srv.Metrics(), appLogger)
	memoryMonitor.Start()

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		slog.Info("Starting server", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	memoryMonitor.Stop()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
