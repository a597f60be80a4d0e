package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	RabbitHost     string
	RabbitPort     int
	RabbitUser     string
	RabbitPassword string

	// Bounded-retry settings shared by the store and broker connections.
	ConnectAttempts uint
	ConnectDelay    time.Duration

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// StationInterval is the publish interval of the simulated station.
	StationInterval time.Duration
}

// LoadFromEnv loads the full consumer configuration. The store settings are
// required; broker credentials default to user/password.
func LoadFromEnv() (Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return Config{}, err
	}

	pgHost := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	if pgHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	pgDB := strings.TrimSpace(os.Getenv("POSTGRES_DB"))
	if pgDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	pgUser := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if pgUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	pgPassword := os.Getenv("POSTGRES_PASSWORD")

	pgPort, err := envOrInt("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	pgSSLMode := envOr("POSTGRES_SSLMODE", "disable")

	maxOpenConns, err := envOrInt("DB_MAX_OPEN_CONNS", 2)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envOrInt("DB_MAX_IDLE_CONNS", 2)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envOrDuration("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}

	cfg.PostgresHost = pgHost
	cfg.PostgresPort = pgPort
	cfg.PostgresDB = pgDB
	cfg.PostgresUser = pgUser
	cfg.PostgresPassword = pgPassword
	cfg.PostgresSSLMode = pgSSLMode
	cfg.DBMaxOpenConns = maxOpenConns
	cfg.DBMaxIdleConns = maxIdleConns
	cfg.DBConnMaxLifetime = connMaxLifetime
	return cfg, nil
}

// LoadStationFromEnv loads the subset of configuration the simulated
// station producer needs: broker access, logging, and the publish interval.
func LoadStationFromEnv() (Config, error) {
	return loadCommon()
}

func loadCommon() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	rabbitPort, err := envOrInt("RABBITMQ_PORT", 5672)
	if err != nil {
		return Config{}, err
	}

	attempts, err := envOrInt("CONNECT_ATTEMPTS", 5)
	if err != nil {
		return Config{}, err
	}
	if attempts < 1 {
		return Config{}, fmt.Errorf("invalid CONNECT_ATTEMPTS %d (must be >= 1)", attempts)
	}
	delay, err := envOrDuration("CONNECT_DELAY", 5*time.Second)
	if err != nil {
		return Config{}, err
	}

	stationInterval, err := envOrDuration("STATION_INTERVAL", time.Second)
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:   appEnv,
		LogLevel: level,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		RabbitHost:     envOr("RABBITMQ_HOST", "rabbitmq"),
		RabbitPort:     rabbitPort,
		RabbitUser:     envOr("RABBITMQ_USER", "user"),
		RabbitPassword: envOr("RABBITMQ_PASSWORD", "password"),

		ConnectAttempts: uint(attempts),
		ConnectDelay:    delay,

		StationInterval: stationInterval,
	}, nil
}

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envOrInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envOrDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
