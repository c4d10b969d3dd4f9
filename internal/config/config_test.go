package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NECTOPOINT_API_URL", "https://api.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIURL)
	}
	if cfg.StorageDriver != StorageSQLite || cfg.DatabaseURL != "nectopoint.db" {
		t.Fatalf("unexpected storage defaults: %s %s", cfg.StorageDriver, cfg.DatabaseURL)
	}
	if cfg.HTTPTimeout != 15*time.Second || cfg.NotificationPageSize != 10 {
		t.Fatalf("unexpected defaults: %v %d", cfg.HTTPTimeout, cfg.NotificationPageSize)
	}
	if cfg.StaleGuard || cfg.TelegramEnabled() {
		t.Fatalf("stale guard and telegram must be off by default")
	}
	if cfg.LogLevel != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NECTOPOINT_API_URL", "https://api.example.com")
	t.Setenv("STORAGE_DRIVER", "REDIS")
	t.Setenv("HTTP_TIMEOUT", "7")
	t.Setenv("STALE_GUARD", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDriver != StorageRedis {
		t.Fatalf("expected redis driver, got %s", cfg.StorageDriver)
	}
	if cfg.HTTPTimeout != 7*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v", cfg.HTTPTimeout)
	}
	if !cfg.StaleGuard || !cfg.TelegramEnabled() || cfg.TelegramChatID != -100123 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.LogLevel != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]map[string]string{
		"missing api url":  {},
		"unknown driver":   {"NECTOPOINT_API_URL": "https://x", "STORAGE_DRIVER": "mongo"},
		"half credentials": {"NECTOPOINT_API_URL": "https://x", "NECTOPOINT_CPF": "123"},
		"bad page size":    {"NECTOPOINT_API_URL": "https://x", "NOTIFICATION_PAGE_SIZE": "0"},
		"bad log level":    {"NECTOPOINT_API_URL": "https://x", "LOG_LEVEL": "loud"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("NECTOPOINT_API_URL", "")
			for key, value := range env {
				t.Setenv(key, value)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
