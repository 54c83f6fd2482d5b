package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadedpez/scoreboard/internal/config"
	"github.com/fadedpez/scoreboard/internal/logging"
	"github.com/fadedpez/scoreboard/pkg/commands"
	"github.com/fadedpez/scoreboard/pkg/correlation"
	"github.com/fadedpez/scoreboard/pkg/db"
	"github.com/fadedpez/scoreboard/pkg/discord"
	"github.com/fadedpez/scoreboard/pkg/metrics"
	gameRepo "github.com/fadedpez/scoreboard/pkg/repositories/game"
	"github.com/fadedpez/scoreboard/pkg/repositories/identity"
	"github.com/fadedpez/scoreboard/pkg/scheduler"
	"github.com/fadedpez/scoreboard/pkg/services/record"
	"github.com/fadedpez/scoreboard/pkg/services/statistics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if err := cfg.RequireToken(); err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Scoreboard stopped: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	games, users, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := games.Close(); err != nil {
			logger.Warn("Error closing game repository: %v", err)
		}
		if err := users.Close(); err != nil {
			logger.Warn("Error closing identity repository: %v", err)
		}
	}()

	if cfg.ElasticsearchURL != "" {
		indexed, err := gameRepo.NewIndexingRepository(ctx, games, &gameRepo.ElasticsearchConfig{
			URL:      cfg.ElasticsearchURL,
			Username: cfg.ElasticsearchUsername,
			Password: cfg.ElasticsearchPassword,
			Index:    cfg.ElasticsearchIndex,
		}, logger)
		if err != nil {
			// Indexing is optional; games are still stored without it
			logger.Warn("Elasticsearch unavailable, accepted games will not be indexed: %v", err)
		} else {
			games = indexed
			logger.Info("Indexing accepted games into %s", cfg.ElasticsearchIndex)
		}
	}

	cache, err := correlation.New(cfg.ContextTTL, correlation.WithMetrics(m), correlation.WithLogger(logger))
	if err != nil {
		return err
	}

	service := record.NewService(games, record.WithMetrics(m), record.WithLogger(logger))

	maintenance := scheduler.NewScheduler(logger)
	if err := maintenance.AddTask("context_sweep", cfg.SweepInterval, scheduler.SweepTask(cache, logger)); err != nil {
		return err
	}

	session, err := discord.NewSession(cfg.Token)
	if err != nil {
		return err
	}
	handler := commands.NewHandler(service, users, cache, discord.NewSender(session),
		commands.WithMetrics(m), commands.WithLogger(logger),
		commands.WithStandings(statistics.NewService(games)))
	bot := discord.NewBot(session, handler, logger)

	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           newRouter(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	maintenance.Start(ctx)
	defer maintenance.Stop()

	g.Go(func() error {
		logger.Info("Serving metrics on %s", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := bot.Start(); err != nil {
			return err
		}
		logger.Info("Scoreboard is running. Press Ctrl+C to exit")

		<-ctx.Done()
		logger.Info("Shutting down...")
		return bot.Shutdown()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStorage picks the repositories for cfg.StorageType, falling back to
// memory when the database cannot be opened
func openStorage(cfg *config.Config, logger *logging.Logger) (gameRepo.Repository, identity.Repository, error) {
	if cfg.StorageType == config.StorageSQLite {
		dbPath := cfg.DatabasePath()
		logger.Info("Initializing SQLite repositories at %s", dbPath)
		conn, err := db.OpenSQLite(dbPath)
		if err == nil {
			return gameRepo.NewSQLiteRepository(conn), identity.NewSQLiteRepository(conn), nil
		}
		if !cfg.IsDevelopment() {
			return nil, nil, err
		}
		logger.Warn("Failed to initialize SQLite repositories: %v", err)
		logger.Warn("Falling back to in-memory repositories")
	} else {
		logger.Info("Using in-memory repositories (data will be lost on restart)")
	}
	return gameRepo.NewMemoryRepository(), identity.NewMemoryRepository(), nil
}

func newRouter(registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}
