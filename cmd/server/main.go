package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/domain-race-backend/internal/config"
	"github.com/DoyleJ11/domain-race-backend/internal/history"
	"github.com/DoyleJ11/domain-race-backend/internal/httpapi"
	"github.com/DoyleJ11/domain-race-backend/internal/hub"
	"github.com/DoyleJ11/domain-race-backend/internal/lobby"
	"github.com/DoyleJ11/domain-race-backend/internal/ranking"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder history.Recorder = history.Nop{}
	if cfg.DatabaseURL != "" {
		store, openErr := history.Open(cfg.DatabaseURL)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, store.Close()) }()
		recorder = store
		logger.Info("round archive enabled")
	}

	h := hub.NewHub(ctx, lobby.Options{
		Rankings: ranking.Load(cfg.RankingsPath, logger),
		Logger:   logger,
		Recorder: recorder,
	})
	defer h.Close()

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: httpapi.SetupRoutes(h, logger, cfg.AllowedOrigins),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return h.Run(gctx, cfg.TickInterval, cfg.ReapInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
