package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"weathersink/internal/config"
	"weathersink/internal/db"
	"weathersink/internal/httpapi"
	"weathersink/internal/metrics"
	"weathersink/internal/modules/weather/consumer"
	"weathersink/internal/rabbit"
	"weathersink/internal/retry"
)

// Run wires the ingestion pipeline and blocks until the context is
// cancelled or an unrecoverable failure occurs.
func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"postgresHost", cfg.PostgresHost,
		"postgresDB", cfg.PostgresDB,
		"rabbitHost", cfg.RabbitHost,
		"connectAttempts", cfg.ConnectAttempts,
		"connectDelay", cfg.ConnectDelay,
	)

	policy := retry.Policy{Attempts: cfg.ConnectAttempts, Delay: cfg.ConnectDelay}

	// Used at startup and again by the consumer after an operational store
	// failure.
	dialStore := newStoreDialer(policy, func(ctx context.Context) (*sql.DB, error) {
		return db.Open(ctx, cfg)
	}, slog.Default())

	repo, err := dialStore(ctx)
	if err != nil {
		return err
	}

	var broker *rabbit.Client
	err = policy.Do(ctx, slog.Default(), "rabbitmq", func() error {
		c, dialErr := rabbit.Dial(cfg, slog.Default())
		if dialErr != nil {
			return dialErr
		}
		broker = c
		return nil
	})
	if err != nil {
		_ = repo.Close()
		return err
	}

	if err := broker.DeclareTopology(); err != nil {
		broker.Close()
		_ = repo.Close()
		return err
	}

	reg := prometheus.NewRegistry()
	cons := consumer.New(repo, dialStore, slog.Default(), metrics.New(reg))

	srv := httpapi.NewServer(cfg, slog.Default(), httpapi.NewMux(cons, reg))
	srvErrCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		srvErrCh <- srv.ListenAndServe()
	}()

	deliveries, err := broker.Consume()
	if err != nil {
		broker.Close()
		cons.CloseStore()
		return err
	}

	runErr := cons.Run(ctx, deliveries)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	// Teardown in fixed order: channel, broker connection, store. Each
	// release is attempted regardless of earlier failures.
	slog.Info("shutting down consumer")
	broker.Close()
	cons.CloseStore()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	if err := <-srvErrCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server", "error", err)
	}

	return runErr
}
