package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathersink/internal/metrics"
	"weathersink/internal/modules/weather/consumer"
	"weathersink/internal/modules/weather/repository"
	"weathersink/internal/modules/weather/types"
	"weathersink/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expectSchema(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS weather_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_timestamp").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestStoreDialerPreparesSchemaOnFreshHandle(t *testing.T) {
	dbc, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectSchema(mock)

	dial := newStoreDialer(retry.Policy{Attempts: 1, Delay: 0},
		func(ctx context.Context) (*sql.DB, error) { return dbc, nil },
		discardLogger())

	repo, err := dial(context.Background())
	require.NoError(t, err)
	defer repo.Close()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDialerRetriesOpenFailures(t *testing.T) {
	dbc, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectSchema(mock)

	attempts := 0
	dial := newStoreDialer(retry.Policy{Attempts: 3, Delay: 0},
		func(ctx context.Context) (*sql.DB, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("connection refused")
			}
			return dbc, nil
		},
		discardLogger())

	repo, err := dial(context.Background())
	require.NoError(t, err)
	defer repo.Close()
	assert.Equal(t, 3, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDialerClosesHandleWhenSchemaFails(t *testing.T) {
	dbc, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS weather_logs").
		WillReturnError(errors.New("permission denied for schema public"))
	mock.ExpectClose()

	dial := newStoreDialer(retry.Policy{Attempts: 1, Delay: 0},
		func(ctx context.Context) (*sql.DB, error) { return dbc, nil },
		discardLogger())

	_, err = dial(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// failingRepo simulates a store whose connection died: every insert returns
// an operational error.
type failingRepo struct {
	closed bool
}

var _ repository.WeatherRepository = (*failingRepo)(nil)

func (f *failingRepo) EnsureSchema(ctx context.Context) error { return nil }
func (f *failingRepo) InsertReading(ctx context.Context, r types.Reading) error {
	return &pgconn.PgError{Code: pgerrcode.ConnectionFailure, Message: "simulated"}
}
func (f *failingRepo) Ping(ctx context.Context) error { return nil }
func (f *failingRepo) Close() error                   { f.closed = true; return nil }

// orderAcker snapshots, at the moment of the nack, whether the schema
// statements had already run on the replacement handle.
type orderAcker struct {
	requeued     bool
	schemaAtNack error
	check        func() error
}

func (a *orderAcker) Ack(tag uint64, multiple bool) error { return nil }
func (a *orderAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.requeued = requeue
	a.schemaAtNack = a.check()
	return nil
}
func (a *orderAcker) Reject(tag uint64, requeue bool) error { return nil }

func TestStoreFailureReinitializesSchemaBeforeRequeue(t *testing.T) {
	dbc, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectSchema(mock)

	dial := newStoreDialer(retry.Policy{Attempts: 1, Delay: 0},
		func(ctx context.Context) (*sql.DB, error) { return dbc, nil },
		discardLogger())

	stale := &failingRepo{}
	cons := consumer.New(stale, dial, discardLogger(), metrics.New(prometheus.NewRegistry()))

	acker := &orderAcker{check: mock.ExpectationsWereMet}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{
		Acknowledger: acker,
		DeliveryTag:  1,
		Body:         []byte(`{"timestamp":"2024-01-01T12:00:00Z","temperatura":25.5,"humedad":60}`),
	}
	close(deliveries)

	err = cons.Run(context.Background(), deliveries)
	require.ErrorIs(t, err, consumer.ErrDeliveriesClosed)

	assert.True(t, stale.closed, "stale handle must be released")
	assert.True(t, acker.requeued, "message must return to the queue")
	assert.NoError(t, acker.schemaAtNack, "schema must be reinitialized before the requeue")
}
