package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/garderie-watch/internal/bot"
	"github.com/Houeta/garderie-watch/internal/config"
	"github.com/Houeta/garderie-watch/internal/fetcher"
	"github.com/Houeta/garderie-watch/internal/parser"
	"github.com/Houeta/garderie-watch/internal/repository"
	"github.com/Houeta/garderie-watch/internal/repository/postgres"
	"github.com/Houeta/garderie-watch/internal/repository/sqlite"
	"github.com/Houeta/garderie-watch/internal/scheduler"
	"github.com/Houeta/garderie-watch/internal/server"
	"github.com/Houeta/garderie-watch/internal/services/crawler"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const shutdownTimeout = 10 * time.Second

// telegramBot is the part of bot.Bot that run drives.
type telegramBot interface {
	scheduler.Notifier
	Start()
	Stop()
}

// deps builds the outer dependencies of run.
type deps struct {
	openStore func(ctx context.Context, logger *slog.Logger, cfg config.Storage) (repository.Store, error)
	newBot    func(logger *slog.Logger, cfg *config.Config, subs repository.SubscriptionStore) (telegramBot, error)
}

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	err := run(ctx, logger, cfg, deps{openStore: openStore, newBot: newTelegramBot})
	stop()
	if err != nil {
		logger.Error("Application stopped with an error", "error", err)
		os.Exit(1)
	}
}

// run wires the application and blocks until ctx is canceled. Everything
// it opened is released before it returns, on success and on error.
func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, d deps) (err error) {
	store, err := d.openStore(ctx, logger, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("Failed to close storage", "error", closeErr)
			err = errors.Join(err, closeErr)
		}
	}()

	watchBot, err := d.newBot(logger, cfg, store)
	if err != nil {
		return fmt.Errorf("failed to init bot: %w", err)
	}

	pageFetcher := fetcher.NewFetcher(logger, fetcher.Options{
		BaseURL:   cfg.Site.BaseURL,
		IndexURL:  cfg.Site.IndexURL,
		UserAgent: cfg.Site.UserAgent,
		Timeout:   cfg.Site.Timeout,
		Query:     cfg.Crawl.Query,
	})
	listingParser := parser.NewParser(logger)
	crawlOpts := crawler.Options{MaxDistanceKM: cfg.Crawl.MaxDistanceKM, MaxInFlight: cfg.Crawl.MaxInFlight}

	sched := scheduler.New(logger, cfg.Crawl.Schedule, func() crawler.Interface {
		return crawler.NewCrawler(logger, pageFetcher, listingParser, store, crawlOpts)
	}, watchBot, cfg.Crawl.RunOnStart)

	if err = sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	metricsSrv := server.New(logger, cfg.MetricsAddr)
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "addr", cfg.MetricsAddr, "error", err)
		}
	}()

	// Start the bot in a goroutine to allow run to listen for signals.
	go watchBot.Start()

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.Info("Shutdown signal received. Stopping application...")

	// The cycle context is already canceled, so a running crawl winds down on its own.
	sched.Stop()
	watchBot.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to stop metrics server", "error", err)
	}

	// Log graceful shutdown completion.
	logger.Info("Application stopped gracefully.")
	return nil
}

func newTelegramBot(logger *slog.Logger, cfg *config.Config, subs repository.SubscriptionStore) (telegramBot, error) {
	watchBot, err := bot.NewBot(logger, cfg.Tg.Token, cfg.Tg.Timeout, subs, cfg.Site.BaseURL)
	if err != nil {
		return nil, err
	}
	return watchBot, nil
}

// openStore connects the storage backend selected in the configuration.
func openStore(ctx context.Context, logger *slog.Logger, cfg config.Storage) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, logger, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverSQLite:
		repo, err := sqlite.NewRepository(ctx, logger, cfg.Path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
