package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/potatochat/streamclient/internal/api"
	"github.com/potatochat/streamclient/internal/auth"
	"github.com/potatochat/streamclient/internal/config"
	"github.com/potatochat/streamclient/internal/connection"
	"github.com/potatochat/streamclient/internal/database"
	"github.com/potatochat/streamclient/internal/journal"
	"github.com/potatochat/streamclient/internal/metrics"
	"github.com/potatochat/streamclient/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/streamclient.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("streamclient exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting streamclient",
		version.LogAttrs(),
		"instance_id", cfg.Instance.ID,
		"config", configPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *auth.FileStore
	if cfg.Auth.TokenFile != "" {
		store, err = auth.OpenFileStore(cfg.Auth.TokenFile)
		if err != nil {
			return err
		}
	}

	apiClient := api.NewClient(cfg.API.RestURL, tokenChain(cfg.Auth, store),
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
	)

	tokens, err := resolveToken(ctx, cfg.Auth, store, apiClient, logger)
	if err != nil {
		return err
	}

	collector := metrics.New()
	recorders := connection.MultiRecorder{collector}

	var (
		pool   *pgxpool.Pool
		events *journal.Journal
		writer *journal.Writer
	)
	if cfg.Journal.Enabled {
		pool, events, writer, err = startJournal(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		recorders = append(recorders, events)
	}

	manager := connection.NewManager(managerConfig(cfg), logger,
		connection.WithRecorder(recorders),
	)
	manager.AddListener(collector)
	if events != nil {
		manager.AddListener(events)
	}
	manager.AddListener(newLogListener(logger))
	manager.AddListener(resubscriber(manager, cfg.Subscriptions.Symbols))

	mux := http.NewServeMux()
	mux.Handle("/health", healthHandler(cfg.Instance.ID, manager, writer))
	mux.Handle(cfg.Metrics.Path, collector.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "port", cfg.Metrics.Port, "metrics_path", cfg.Metrics.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		manager.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if writer != nil {
			if err := writer.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("journal flush: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	manager.ConnectWith(tokens)

	logger.Info("streamclient running",
		"url", cfg.API.WSURL,
		"symbols", cfg.Subscriptions.Symbols,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("streamclient stopped")
	return nil
}

// startJournal connects to the journal database and starts the writer.
// The writer runs on a background context so Stop can flush after the
// signal context is cancelled.
func startJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, *journal.Journal, *journal.Writer, error) {
	db := cfg.Journal.Database
	logger.Info("connecting to journal database",
		"host", db.Host,
		"port", db.Port,
		"database", db.Name,
	)

	pool, err := database.Connect(ctx, db, "streamclient-"+cfg.Instance.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := journal.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	queue := journal.NewQueue[journal.Event](cfg.Journal.BatchSize, cfg.Journal.BufferSize)
	events := journal.New(cfg.Instance.ID, queue, logger)
	writer := journal.NewWriter(journal.WriterConfig{
		BatchSize:     cfg.Journal.BatchSize,
		FlushInterval: cfg.Journal.FlushInterval,
	}, queue, pool, logger)
	writer.Start(context.Background())

	return pool, events, writer, nil
}

func managerConfig(cfg *config.Config) connection.ManagerConfig {
	c := cfg.Connection
	return connection.ManagerConfig{
		URL:                  cfg.API.WSURL,
		MaxReconnectAttempts: c.MaxReconnectAttempts,
		ReconnectBaseDelay:   c.ReconnectBaseDelay,
		HeartbeatInterval:    c.HeartbeatInterval,
		Client: connection.ClientConfig{
			HandshakeTimeout: c.HandshakeTimeout,
			WriteTimeout:     c.WriteTimeout,
			SendBufferSize:   c.SendBufferSize,
			ReadLimit:        c.ReadLimit,
		},
	}
}
