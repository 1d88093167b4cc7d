package goBanking

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goBanking/consent"
	"github.com/MrEthical07/goBanking/jwt"
	"github.com/MrEthical07/goBanking/keys"
	"github.com/MrEthical07/goBanking/secrets"
	"github.com/MrEthical07/goBanking/session"
	"github.com/MrEthical07/goBanking/transport"
)

// defaultStateFile is where session state lands when no store is configured.
const defaultStateFile = ".enable_banking_state.json"

// Builder assembles an Engine step by step. A Builder is single-use: Build
// consumes it and a second call returns ErrBuilderReused.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config     Config
	hasConfig  bool
	redis      *redis.Client
	store      session.Store
	stateFile  string
	secrets    secrets.Store
	presenter  consent.Presenter
	auditSink  AuditSink
	httpClient *http.Client
	built      bool
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// WithConfig sets the engine configuration. Zero fields fall back to
// defaults during Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	b.hasConfig = true
	return b
}

// WithRedis persists session state in redis instead of a local file.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore sets an explicit session store, taking precedence over
// WithRedis and the file default.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithStateFile persists session state to the given file path.
func (b *Builder) WithStateFile(path string) *Builder {
	b.stateFile = path
	return b
}

// WithSecrets resolves missing credentials (app id, private key, api base)
// from a secret store during Build.
func (b *Builder) WithSecrets(store secrets.Store) *Builder {
	b.secrets = store
	return b
}

// WithPresenter sets how consent URLs reach the user. Required only for
// Authorize; StartConsent and Exchange work without one.
func (b *Builder) WithPresenter(p consent.Presenter) *Builder {
	b.presenter = p
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithHTTPClient overrides the HTTP client used for API calls, e.g. to
// inject a proxy or a test transport.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// Build validates the configuration and assembles the Engine.
//
// Build may return an error when input validation fails.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderReused
	}
	b.built = true

	cfg := b.config
	cfg.Credentials.PrivateKeyPEM = append([]byte(nil), cfg.Credentials.PrivateKeyPEM...)
	cfg.applyDefaults()

	if err := b.resolveCredentials(&cfg); err != nil {
		return nil, err
	}
	if cfg.Credentials.AppID == "" {
		return nil, errors.New("app id is required")
	}
	if len(cfg.Credentials.PrivateKeyPEM) == 0 {
		return nil, errors.New("private key is required")
	}

	key, err := keys.Load(cfg.Credentials.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.API.BaseURL)
	}

	signer, err := jwt.NewSigner(jwt.Config{
		AppID:    cfg.Credentials.AppID,
		Audience: base.Host,
		Key:      key,
	})
	if err != nil {
		return nil, err
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}
	api, err := transport.New(cfg.API.BaseURL, signer, httpClient)
	if err != nil {
		return nil, err
	}

	store := b.store
	if store == nil && b.stateFile != "" {
		store, err = session.NewFileStore(b.stateFile)
		if err != nil {
			return nil, err
		}
	}
	if store == nil && b.redis != nil {
		store, err = session.NewRedisStore(b.redis, "", 0)
		if err != nil {
			return nil, err
		}
	}
	if store == nil {
		store, err = session.NewFileStore(defaultStateFile)
		if err != nil {
			return nil, err
		}
	}

	return &Engine{
		config:    cfg,
		api:       api,
		store:     store,
		presenter: b.presenter,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
	}, nil
}

// resolveCredentials fills credential gaps from the secret store, when one
// is configured. Explicit Config values always win.
func (b *Builder) resolveCredentials(cfg *Config) error {
	if b.secrets == nil {
		return nil
	}

	if cfg.Credentials.AppID == "" {
		value, err := b.secrets.Get(secrets.KeyAppID)
		if err != nil {
			return fmt.Errorf("resolve app id: %w", err)
		}
		cfg.Credentials.AppID = string(value)
	}
	if len(cfg.Credentials.PrivateKeyPEM) == 0 {
		value, err := b.secrets.Get(secrets.KeyPrivateKey)
		if err != nil {
			return fmt.Errorf("resolve private key: %w", err)
		}
		cfg.Credentials.PrivateKeyPEM = value
	}
	if cfg.API.BaseURL == "" || cfg.API.BaseURL == defaultAPIBase {
		if value, err := b.secrets.Get(secrets.KeyAPIBase); err == nil {
			cfg.API.BaseURL = string(value)
		} else if !errors.Is(err, secrets.ErrNotFound) {
			return fmt.Errorf("resolve api base: %w", err)
		}
	}
	return nil
}
