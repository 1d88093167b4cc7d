package goBanking

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.BaseURL != "https://api.enablebanking.com" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.API.MaxTransactionPages != 20 {
		t.Fatalf("page cap = %d", cfg.API.MaxTransactionPages)
	}
	if cfg.Consent.ValidFor != 15*time.Minute {
		t.Fatalf("consent validity = %v", cfg.Consent.ValidFor)
	}
	if !cfg.Audit.Enabled || !cfg.Metrics.Enabled {
		t.Fatalf("audit and metrics default on")
	}
}

func TestApplyDefaultsFillsZeroFields(t *testing.T) {
	cfg := Config{
		API: APIConfig{BaseURL: "https://sandbox.example.com", MaxTransactionPages: -1},
	}
	cfg.applyDefaults()

	if cfg.API.BaseURL != "https://sandbox.example.com" {
		t.Fatalf("explicit base url overwritten: %q", cfg.API.BaseURL)
	}
	if cfg.API.MaxTransactionPages != 20 {
		t.Fatalf("page cap = %d, want default", cfg.API.MaxTransactionPages)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want default", cfg.API.Timeout)
	}
}

func TestConfigFromEnv(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(keyPath, testPrivateKeyPEM(t), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	t.Setenv("ENABLE_APP_ID", "app-env")
	t.Setenv("ENABLE_PRIVATE_KEY_PATH", keyPath)
	t.Setenv("ENABLE_API_BASE", "https://sandbox.example.com/")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("config from env: %v", err)
	}
	if cfg.Credentials.AppID != "app-env" {
		t.Fatalf("app id = %q", cfg.Credentials.AppID)
	}
	if len(cfg.Credentials.PrivateKeyPEM) == 0 {
		t.Fatalf("private key not loaded")
	}
	if cfg.API.BaseURL != "https://sandbox.example.com" {
		t.Fatalf("base url = %q, trailing slash must be trimmed", cfg.API.BaseURL)
	}
}

func TestConfigFromEnvMissingVars(t *testing.T) {
	t.Setenv("ENABLE_APP_ID", "")
	t.Setenv("ENABLE_PRIVATE_KEY_PATH", "")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected an error without ENABLE_APP_ID")
	}

	t.Setenv("ENABLE_APP_ID", "app-env")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected an error without ENABLE_PRIVATE_KEY_PATH")
	}

	t.Setenv("ENABLE_PRIVATE_KEY_PATH", filepath.Join(t.TempDir(), "missing.pem"))
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected an error for an unreadable key file")
	}
}
