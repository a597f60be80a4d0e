// Package db opens the PostgreSQL store connection.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/v4/stdlib"

	"weathersink/internal/config"
)

// Open dials the store and verifies connectivity with an early ping. The
// caller owns the returned handle; reconnection means closing it and opening
// a fresh one.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dbc, err := sql.Open("pgx", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	if cfg.DBMaxOpenConns > 0 {
		dbc.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns >= 0 {
		dbc.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		dbc.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}

	if err := dbc.PingContext(ctx); err != nil {
		_ = dbc.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return dbc, nil
}

func Close(dbc *sql.DB) error {
	if dbc == nil {
		return nil
	}
	return dbc.Close()
}

func buildDSN(cfg config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.PostgresUser, cfg.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", cfg.PostgresHost, cfg.PostgresPort),
		Path:   cfg.PostgresDB,
	}
	q := url.Values{}
	q.Set("sslmode", cfg.PostgresSSLMode)
	q.Set("connect_timeout", "10")
	u.RawQuery = q.Encode()
	return u.String()
}
