package internal

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

const stateTokenSize = 24

// StateToken is the CSRF-binding value tying a consent request to its
// redirect callback. Tokens are single-use: one is generated per consent
// attempt and never reused.
type StateToken [stateTokenSize]byte

func NewStateToken() (StateToken, error) {
	var tok StateToken
	_, err := rand.Read(tok[:])
	return tok, err
}

func (t StateToken) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(t[:])
}

func ParseStateToken(s string) (StateToken, error) {
	var tok StateToken

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return tok, err
	}
	if len(raw) != len(tok) {
		return tok, errors.New("invalid state token size")
	}

	copy(tok[:], raw)
	return tok, nil
}

// StateEqual compares two encoded state tokens in constant time.
func StateEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
