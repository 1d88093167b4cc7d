// Package consent models the interactive half of the authorization flow:
// the capability that shows the bank's consent page, and the parsing of the
// redirect callback it produces.
//
// The engine's state machine stays free of presentation concerns — a
// [Presenter] is injected and may be a browser launcher, a webview, or a
// test stub.
package consent

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrMissingCode is returned when the redirect callback carries no code
// parameter.
var ErrMissingCode = errors.New("callback missing code parameter")

// Presenter shows the consent URL to the user and resolves with the
// redirect callback URL once the bank interaction completes. Present may
// block indefinitely (the wait is user-driven) and must honor ctx
// cancellation.
type Presenter interface {
	Present(ctx context.Context, consentURL string) (string, error)
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(ctx context.Context, consentURL string) (string, error)

// Present implements Presenter.
func (f PresenterFunc) Present(ctx context.Context, consentURL string) (string, error) {
	return f(ctx, consentURL)
}

// Callback is the parsed result of a redirect URL: the one-time
// authorization code and the echoed state token, when present.
type Callback struct {
	Code  string
	State string
}

// ParseCallback extracts code and state from a redirect callback URL.
// A missing code fails with ErrMissingCode; state is optional here and
// verified by the engine only when present.
func ParseCallback(raw string) (Callback, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Callback{}, fmt.Errorf("parse callback url: %w", err)
	}
	q := u.Query()
	code := q.Get("code")
	if code == "" {
		return Callback{}, ErrMissingCode
	}
	return Callback{Code: code, State: q.Get("state")}, nil
}
