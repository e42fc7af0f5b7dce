package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/export"
	"github.com/mfcosta/listings-tracker/internal/extract"
	"github.com/mfcosta/listings-tracker/internal/llm/openai"
	"github.com/mfcosta/listings-tracker/internal/merge"
	"github.com/mfcosta/listings-tracker/internal/repository"
	"github.com/mfcosta/listings-tracker/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tables, shares, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("open repository", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	extractor := openai.NewClient(openai.Config{
		APIKey:      cfg.Extractor.APIKey,
		BaseURL:     cfg.Extractor.BaseURL,
		Model:       cfg.Extractor.Model,
		Temperature: cfg.Extractor.Temperature,
		Timeout:     cfg.Extractor.Timeout,
	}, logger)

	orchestrator := extract.NewOrchestrator(extractor, cfg.Extractor.Timeout, logger)
	committer := merge.NewCommitter(tables, logger)
	exporter := export.NewService(logger)

	srv := server.New(tables, shares, orchestrator, committer, exporter, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

// openRepository picks the backing store from DB_DRIVER: postgres for the
// hosted deployment, sqlite for single-machine installs, memory for demos.
func openRepository(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repository.TableRepository, repository.ShareRepository, func(), error) {
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		repo := repository.NewPostgresRepository(pool, logger)
		return repo, repo, pool.Close, nil
	case "sqlite":
		repo, err := repository.OpenSQLite(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, repo, func() {
			if cerr := repo.Close(); cerr != nil {
				logger.Error("close sqlite", "error", cerr)
			}
		}, nil
	case "memory":
		repo := repository.NewMemoryRepository()
		return repo, repo, func() {}, nil
	default:
		return nil, nil, nil, common.Errorf(common.KindInvalidInput, "unknown DB_DRIVER %q", cfg.Database.Driver)
	}
}
