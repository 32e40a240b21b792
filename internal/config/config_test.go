package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/school")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info log level, got %v", cfg.LogLevel)
	}
	if cfg.Auth.ActivationTTL != 72*time.Hour {
		t.Errorf("expected 72h activation ttl, got %v", cfg.Auth.ActivationTTL)
	}
	if cfg.Policy.EnforceUnenrollOwnership || cfg.Policy.AdminCanUpdateProfiles {
		t.Error("policy switches should default to off")
	}
	if cfg.Casdoor.Enabled() {
		t.Error("casdoor should be disabled without endpoint and cert")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/school")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("BASE_URL", "https://school.example.com/api/")
	t.Setenv("POLICY_ENFORCE_UNENROLL_OWNERSHIP", "true")
	t.Setenv("JWT_ACCESS_TTL", "15m")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.BaseURL != "https://school.example.com/api" {
		t.Errorf("trailing slash should be trimmed, got %s", cfg.BaseURL)
	}
	if !cfg.Policy.EnforceUnenrollOwnership {
		t.Error("expected unenroll ownership policy enabled")
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m access ttl, got %v", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing required configuration")
	}
}
