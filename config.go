package goBanking

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config defines a public type used by goBanking APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Credentials CredentialsConfig
	API         APIConfig
	Consent     ConsentConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
CREDENTIALS CONFIG
====================================
*/

// CredentialsConfig carries the application identity. Immutable once
// loaded for a session; typically supplied by a secrets.Store.
type CredentialsConfig struct {
	AppID         string // application id (UUID) from the control panel
	PrivateKeyPEM []byte // PEM-encoded RSA key, PKCS#1 or PKCS#8
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by goBanking APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	BaseURL             string
	Timeout             time.Duration
	MaxTransactionPages int // safety bound against infinite pagination
}

/*
====================================
CONSENT CONFIG
====================================
*/

// ConsentConfig defines a public type used by goBanking APIs.
//
// ConsentConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ConsentConfig struct {
	ValidFor time.Duration // default consent validity window
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goBanking APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goBanking APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

const (
	defaultAPIBase             = "https://api.enablebanking.com"
	defaultAPITimeout          = 30 * time.Second
	defaultMaxTransactionPages = 20
	defaultConsentValidFor     = 15 * time.Minute
)

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:             defaultAPIBase,
			Timeout:             defaultAPITimeout,
			MaxTransactionPages: defaultMaxTransactionPages,
		},
		Consent: ConsentConfig{
			ValidFor: defaultConsentValidFor,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = def.API.Timeout
	}
	if c.API.MaxTransactionPages <= 0 {
		c.API.MaxTransactionPages = def.API.MaxTransactionPages
	}
	if c.Consent.ValidFor <= 0 {
		c.Consent.ValidFor = def.Consent.ValidFor
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = def.Audit.BufferSize
	}
}

// ConfigFromEnv builds a Config from the ENABLE_* environment contract,
// loading a .env file first when present: ENABLE_APP_ID,
// ENABLE_PRIVATE_KEY_PATH, and optionally ENABLE_API_BASE.
//
// ConfigFromEnv may return an error when required variables are missing or
// the key file cannot be read.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	cfg.Credentials.AppID = strings.TrimSpace(os.Getenv("ENABLE_APP_ID"))
	if cfg.Credentials.AppID == "" {
		return Config{}, errors.New("ENABLE_APP_ID is required")
	}

	keyPath := strings.TrimSpace(os.Getenv("ENABLE_PRIVATE_KEY_PATH"))
	if keyPath == "" {
		return Config{}, errors.New("ENABLE_PRIVATE_KEY_PATH is required")
	}
	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return Config{}, fmt.Errorf("read private key file: %w", err)
	}
	cfg.Credentials.PrivateKeyPEM = pemBytes

	if base := strings.TrimSpace(os.Getenv("ENABLE_API_BASE")); base != "" {
		cfg.API.BaseURL = strings.TrimRight(base, "/")
	}

	return cfg, nil
}
