package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/store"
	"github.com/JonMunkholm/catalog/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to store", "driver", cfg.Database.Driver)

	if cfg.Database.InitSchema {
		if err := db.InitSchema(ctx); err != nil {
			return err
		}
		logger.Info("schema ready")
	}

	service := core.NewService(db, logger, core.ServiceConfig{
		MaxConcurrent:    cfg.Import.MaxConcurrent,
		MaxWait:          cfg.Import.MaxWait,
		ProgressInterval: cfg.Import.ProgressInterval,
		Retention:        cfg.Import.Retention,
	})

	for _, f := range core.Formats() {
		logger.Debug("format registered", "format", f.Format, "kind", f.Kind, "rank", f.Rank)
	}

	server := web.NewServer(service, db, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting uploads first, then let running imports finish.
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}

		if st := service.LimiterStatus(); st.Active > 0 {
			logger.Info("waiting for imports to complete", "active", st.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				logger.Warn("imports did not complete in time", "error", err)
				return nil
			}
			logger.Info("all imports completed")
		}
		return nil
	})

	return g.Wait()
}
