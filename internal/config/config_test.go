package config

import (
	"log/slog"
	"testing"
	"time"
)

// setRequired sets the env vars without defaults so LoadFromEnv can succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_DB", "weather")
	t.Setenv("POSTGRES_USER", "weather")
	t.Setenv("POSTGRES_PASSWORD", "secret")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("RABBITMQ_HOST", "")
	t.Setenv("RABBITMQ_USER", "")
	t.Setenv("RABBITMQ_PASSWORD", "")
	t.Setenv("CONNECT_ATTEMPTS", "")
	t.Setenv("CONNECT_DELAY", "")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.RabbitHost != "rabbitmq" {
		t.Errorf("RabbitHost = %q, want %q", got.RabbitHost, "rabbitmq")
	}
	if got.RabbitUser != "user" {
		t.Errorf("RabbitUser = %q, want %q", got.RabbitUser, "user")
	}
	if got.RabbitPassword != "password" {
		t.Errorf("RabbitPassword = %q, want %q", got.RabbitPassword, "password")
	}
	if got.RabbitPort != 5672 {
		t.Errorf("RabbitPort = %d, want 5672", got.RabbitPort)
	}
	if got.PostgresPort != 5432 {
		t.Errorf("PostgresPort = %d, want 5432", got.PostgresPort)
	}
	if got.PostgresSSLMode != "disable" {
		t.Errorf("PostgresSSLMode = %q, want %q", got.PostgresSSLMode, "disable")
	}
	if got.ConnectAttempts != 5 {
		t.Errorf("ConnectAttempts = %d, want 5", got.ConnectAttempts)
	}
	if got.ConnectDelay != 5*time.Second {
		t.Errorf("ConnectDelay = %v, want 5s", got.ConnectDelay)
	}
	if got.StationInterval != time.Second {
		t.Errorf("StationInterval = %v, want 1s", got.StationInterval)
	}
}

func TestLoadFromEnv_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{name: "postgres host", unset: "POSTGRES_HOST"},
		{name: "postgres db", unset: "POSTGRES_DB"},
		{name: "postgres user", unset: "POSTGRES_USER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want error for unset %s", tt.unset)
			}
		})
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad app env", key: "APP_ENV", value: "staging"},
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "bad port", key: "POSTGRES_PORT", value: "not-a-port"},
		{name: "bad attempts", key: "CONNECT_ATTEMPTS", value: "0"},
		{name: "bad delay", key: "CONNECT_DELAY", value: "five seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RABBITMQ_HOST", "broker.internal")
	t.Setenv("RABBITMQ_USER", "svc")
	t.Setenv("RABBITMQ_PASSWORD", "hunter2")
	t.Setenv("CONNECT_ATTEMPTS", "3")
	t.Setenv("CONNECT_DELAY", "250ms")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.RabbitHost != "broker.internal" {
		t.Errorf("RabbitHost = %q, want %q", got.RabbitHost, "broker.internal")
	}
	if got.RabbitUser != "svc" || got.RabbitPassword != "hunter2" {
		t.Errorf("credentials = %q/%q, want svc/hunter2", got.RabbitUser, got.RabbitPassword)
	}
	if got.ConnectAttempts != 3 {
		t.Errorf("ConnectAttempts = %d, want 3", got.ConnectAttempts)
	}
	if got.ConnectDelay != 250*time.Millisecond {
		t.Errorf("ConnectDelay = %v, want 250ms", got.ConnectDelay)
	}
}
