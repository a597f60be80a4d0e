package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"weathersink/internal/modules/weather/types"
)

//go:embed sql/create-weather-logs.sql
var createWeatherLogsSQL string

//go:embed sql/create-timestamp-index.sql
var createTimestampIndexSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

// WeatherRepository is the store side of the ingestion pipeline: idempotent
// schema preparation and insert-only persistence. There is no update or
// delete path; rows are immutable once written.
type WeatherRepository interface {
	EnsureSchema(ctx context.Context) error
	InsertReading(ctx context.Context, r types.Reading) error
	Ping(ctx context.Context) error
	Close() error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) WeatherRepository {
	return &repositoryImpl{db: db}
}

// EnsureSchema issues create-if-absent statements for the readings table and
// its timestamp index. Safe to call repeatedly; it never drops or alters
// existing structures. Re-run after every store reconnection so the
// invariants hold even if reconnection lands on a fresh instance.
func (r *repositoryImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createWeatherLogsSQL); err != nil {
		return fmt.Errorf("create weather_logs: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createTimestampIndexSQL); err != nil {
		return fmt.Errorf("create idx_timestamp: %w", err)
	}
	return nil
}

// InsertReading persists one validated reading in its own transaction. The
// transaction is released on every exit path.
func (r *repositoryImpl) InsertReading(ctx context.Context, reading types.Reading) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	if _, err := tx.ExecContext(ctx, insertReadingSQL,
		reading.Timestamp, reading.Temperature, reading.Humidity,
	); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *repositoryImpl) Close() error {
	return r.db.Close()
}
