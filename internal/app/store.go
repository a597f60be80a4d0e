package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"weathersink/internal/modules/weather/consumer"
	"weathersink/internal/modules/weather/repository"
	"weathersink/internal/retry"
)

// storeOpener opens a raw store handle. db.Open in production; tests
// substitute a mock.
type storeOpener func(ctx context.Context) (*sql.DB, error)

// newStoreDialer builds the connect-and-prepare sequence shared by startup
// and mid-run reconnection: dial under the retry policy, then run schema
// initialization on the fresh handle. Reinitializing on every reconnect
// means a reconnect landing on a fresh instance still has the table and
// index before the first insert.
func newStoreDialer(policy retry.Policy, open storeOpener, logger *slog.Logger) consumer.StoreDialer {
	return func(ctx context.Context) (repository.WeatherRepository, error) {
		var repo repository.WeatherRepository
		err := policy.Do(ctx, logger, "postgres", func() error {
			dbc, openErr := open(ctx)
			if openErr != nil {
				return openErr
			}
			repo = repository.NewRepository(dbc)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("schema verified")
		return repo, nil
	}
}
