// Command station publishes simulated weather readings to the broker at a
// fixed interval, mimicking a real sensor feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"weathersink/internal/config"
	"weathersink/internal/logging"
	"weathersink/internal/rabbit"
	"weathersink/internal/retry"
	"weathersink/internal/station"
)

const (
	appName = "station"
	version = "dev"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadStationFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("station stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	policy := retry.Policy{Attempts: cfg.ConnectAttempts, Delay: cfg.ConnectDelay}

	var broker *rabbit.Client
	err := policy.Do(ctx, slog.Default(), "rabbitmq", func() error {
		c, dialErr := rabbit.Dial(cfg, slog.Default())
		if dialErr != nil {
			return dialErr
		}
		broker = c
		return nil
	})
	if err != nil {
		return err
	}
	defer broker.Close()

	if err := broker.DeclareTopology(); err != nil {
		return err
	}

	sim := station.NewSimulator(time.Now().UnixNano())
	ticker := time.NewTicker(cfg.StationInterval)
	defer ticker.Stop()

	slog.Info("publishing readings", "interval", cfg.StationInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			payload := sim.Next(now)
			body, err := payload.Marshal()
			if err != nil {
				return fmt.Errorf("marshal payload: %w", err)
			}
			if err := broker.Publish(ctx, body); err != nil {
				return fmt.Errorf("publish reading: %w", err)
			}
			slog.Debug("reading published",
				"temperature", payload.Temperature,
				"humidity", payload.Humidity,
				"irradiance", payload.Irradiance,
			)
		}
	}
}
