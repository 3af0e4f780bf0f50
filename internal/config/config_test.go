package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CFE_BASE_URL", "")
	t.Setenv("CFE_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.APIKeyPtr() != nil {
		t.Fatalf("expected no api key by default")
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("RequestTimeout = %v, want 0", cfg.RequestTimeout)
	}
	if cfg.WatchInterval != 5*time.Minute {
		t.Fatalf("WatchInterval = %v", cfg.WatchInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CFE_BASE_URL", "https://api.example.com/")
	t.Setenv("CFE_API_KEY", "secret123")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "10")
	t.Setenv("STATUS_CHECK", "true")
	t.Setenv("WATCH_INTERVAL", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://api.example.com/" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	key := cfg.APIKeyPtr()
	if key == nil || *key != "secret123" {
		t.Fatalf("APIKeyPtr = %v", key)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if !cfg.StatusCheck {
		t.Fatalf("expected status_check true")
	}
	if cfg.WatchInterval != time.Minute {
		t.Fatalf("WatchInterval = %v", cfg.WatchInterval)
	}
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	t.Setenv("WATCH_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero watch_interval")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	v := viper.New()
	v.Set("cfe_base_url", "http://override")
	v.Set("request_timeout_seconds", -1)
	if _, err := LoadWith(v); err == nil {
		t.Fatalf("expected error for negative timeout")
	}

	v = viper.New()
	v.Set("cfe_base_url", "http://override")
	cfg, err := LoadWith(v)
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.BaseURL != "http://override" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
}
