package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the fixed iss claim expected by the enable banking API.
const Issuer = "enablebanking.com"

// DefaultTTL bounds token lifetime; the API rejects anything much longer.
const DefaultTTL = 5 * time.Minute

// ErrSigning is returned when token signing fails (key mismatch,
// unsupported algorithm).
var ErrSigning = errors.New("jwt signing failed")

// Config defines the signing identity used by goBanking APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AppID    string // application id from the control panel; becomes the kid header
	Audience string // API host, e.g. api.enablebanking.com
	Key      *rsa.PrivateKey
	TTL      time.Duration
}

// Signer builds the bearer credential attached to every API request.
//
// Signer instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Signer struct {
	config Config
}

// NewSigner validates the configuration and returns a ready Signer.
//
// NewSigner may return an error when input validation fails.
func NewSigner(cfg Config) (*Signer, error) {
	cfg.AppID = strings.TrimSpace(cfg.AppID)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	if cfg.AppID == "" {
		return nil, errors.New("app id is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if cfg.Key == nil {
		return nil, errors.New("signing key is required")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 || cfg.TTL > time.Hour {
		return nil, errors.New("invalid TTL configuration")
	}

	return &Signer{config: cfg}, nil
}

// Token signs a fresh RS256 JWT. Every call regenerates iat and exp;
// tokens are never cached.
//
// Token may return an error wrapping ErrSigning when the signing operation
// fails.
func (s *Signer) Token() (string, error) {
	if s == nil {
		return "", fmt.Errorf("%w: nil signer", ErrSigning)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{s.config.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.config.AppID

	signed, err := token.SignedString(s.config.Key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}
