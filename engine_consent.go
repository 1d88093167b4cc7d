package goBanking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goBanking/consent"
	"github.com/MrEthical07/goBanking/internal"
	"github.com/MrEthical07/goBanking/session"
	"github.com/MrEthical07/goBanking/transport"
)

// Flow tracks one consent attempt from request to exchanged session. A Flow
// is single-use: once Authenticated or Failed it accepts no further calls.
//
// Flow instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Flow struct {
	engine *Engine

	mu         sync.Mutex
	state      FlowState
	stateToken string
	consentURL string
	err        error
}

// State returns the flow's current state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// URL returns the bank consent page URL once the flow has reached
// StateAwaitingCallback.
func (f *Flow) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.consentURL
}

// Err returns the terminal error for a failed flow, nil otherwise.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// fail moves the flow to StateFailed and records the cause. Terminal states
// are never overwritten.
func (f *Flow) fail(ctx context.Context, err error) error {
	f.mu.Lock()
	if f.state != StateFailed && f.state != StateAuthenticated {
		f.state = StateFailed
		f.err = err
	}
	f.mu.Unlock()

	e := f.engine
	e.metrics.Inc(MetricConsentFailed)
	e.audit.emit(ctx, e.audit.event("consent.failed", err))
	return err
}

// StartConsent requests bank authorization and returns a flow holding the
// consent URL to present to the user.
//
// The flow is returned in StateAwaitingCallback; pass the redirect callback
// URL to Exchange to complete it. StartConsent may return an error wrapping
// ErrAuthRequest when the API rejects the request, or ErrProtocol when the
// response carries no consent URL.
func (e *Engine) StartConsent(ctx context.Context, params ConsentParams) (*Flow, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}

	params.ASPSPName = strings.TrimSpace(params.ASPSPName)
	params.Country = strings.TrimSpace(params.Country)
	params.RedirectURL = strings.TrimSpace(params.RedirectURL)
	if params.ASPSPName == "" || params.Country == "" {
		return nil, errors.New("aspsp name and country are required")
	}
	if params.RedirectURL == "" {
		return nil, errors.New("redirect url is required")
	}

	token, err := internal.NewStateToken()
	if err != nil {
		return nil, err
	}

	flow := &Flow{
		engine:     e,
		state:      StateAwaitingConsentURL,
		stateToken: token.String(),
	}

	validFor := params.ValidFor
	if validFor <= 0 {
		validFor = e.config.Consent.ValidFor
	}

	body := map[string]any{
		"aspsp": map[string]any{
			"name":    params.ASPSPName,
			"country": params.Country,
		},
		"redirect_url": params.RedirectURL,
		"valid_until":  time.Now().UTC().Add(validFor).Format(time.RFC3339),
		"state":        flow.stateToken,
	}
	if params.Access != nil {
		body["access"] = params.Access
	}

	e.metrics.Inc(MetricConsentStarted)
	e.audit.emit(ctx, e.audit.event("consent.started", nil))

	resp, err := e.api.Do(ctx, http.MethodPost, "/auth", nil, body, transport.WithoutSession())
	if err != nil {
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) {
			e.metrics.Inc(MetricAPIError)
		}
		return nil, flow.fail(ctx, fmt.Errorf("%w: %w", ErrAuthRequest, err))
	}

	consentURL, _ := resp["url"].(string)
	if consentURL == "" {
		return nil, flow.fail(ctx, fmt.Errorf("%w: auth response missing url", ErrProtocol))
	}

	flow.mu.Lock()
	flow.consentURL = consentURL
	flow.state = StateAwaitingCallback
	flow.mu.Unlock()

	e.audit.emit(ctx, e.audit.event("consent.url_issued", nil))
	return flow, nil
}

// Exchange completes the flow: it parses the redirect callback URL,
// verifies the state token, and trades the authorization code for a
// session. The new session replaces any previous one.
//
// Exchange may return an error wrapping ErrCallback, ErrStateMismatch,
// ErrSessionExchange, or ErrProtocol; all of them leave the flow in
// StateFailed.
func (f *Flow) Exchange(ctx context.Context, callbackURL string) (*session.Session, error) {
	f.mu.Lock()
	if f.state != StateAwaitingCallback {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: exchange called in state %s", ErrFlowState, state)
	}
	f.state = StateExchanging
	stateToken := f.stateToken
	f.mu.Unlock()

	e := f.engine
	e.audit.emit(ctx, e.audit.event("callback.received", nil))

	cb, err := consent.ParseCallback(callbackURL)
	if err != nil {
		return nil, f.fail(ctx, fmt.Errorf("%w: %w", ErrCallback, err))
	}
	// An absent state param is tolerated; a present one must match exactly.
	if cb.State != "" && !internal.StateEqual(cb.State, stateToken) {
		e.metrics.Inc(MetricStateMismatch)
		return nil, f.fail(ctx, ErrStateMismatch)
	}

	resp, err := e.api.Do(ctx, http.MethodPost, "/sessions", nil,
		map[string]any{"code": cb.Code}, transport.WithoutSession())
	if err != nil {
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) {
			e.metrics.Inc(MetricAPIError)
		}
		e.metrics.Inc(MetricExchangeFailure)
		return nil, f.fail(ctx, fmt.Errorf("%w: %w", ErrSessionExchange, err))
	}

	sessionID, _ := resp["session_id"].(string)
	if sessionID == "" {
		e.metrics.Inc(MetricExchangeFailure)
		return nil, f.fail(ctx, fmt.Errorf("%w: exchange response missing session_id", ErrProtocol))
	}

	sess := &session.Session{
		ID:       sessionID,
		Accounts: accountsFromResponse(resp["accounts"]),
	}
	e.adoptSession(ctx, sess)

	f.mu.Lock()
	f.state = StateAuthenticated
	f.mu.Unlock()

	e.metrics.Inc(MetricExchangeSuccess)
	ev := e.audit.event("session.exchanged", nil)
	ev.SessionID = sess.ID
	e.audit.emit(ctx, ev)

	return cloneSession(sess), nil
}

// Authorize runs the whole consent flow end to end: StartConsent, hand the
// URL to the configured presenter, Exchange the callback it returns.
//
// Authorize may return ErrPresenterRequired when no presenter is
// configured, or an error wrapping ErrCancelled when the presenter gives up
// (context cancellation included).
func (e *Engine) Authorize(ctx context.Context, params ConsentParams) (*session.Session, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}
	if e.presenter == nil {
		return nil, ErrPresenterRequired
	}

	flow, err := e.StartConsent(ctx, params)
	if err != nil {
		return nil, err
	}

	callbackURL, err := e.presenter.Present(ctx, flow.URL())
	if err != nil {
		return nil, flow.fail(ctx, fmt.Errorf("%w: %w", ErrCancelled, err))
	}

	return flow.Exchange(ctx, callbackURL)
}

// accountsFromResponse extracts unlocked accounts from an exchange
// response. Entries without a uid, and duplicate uids past the first, are
// dropped.
func accountsFromResponse(v any) []session.Account {
	list, _ := v.([]any)
	accounts := make([]session.Account, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		acc := session.AccountFromRaw(raw)
		if acc.UID == "" {
			continue
		}
		if _, dup := seen[acc.UID]; dup {
			continue
		}
		seen[acc.UID] = struct{}{}
		accounts = append(accounts, acc)
	}
	return accounts
}

// AuthRequestHint inspects a StartConsent error and returns remediation
// guidance for the common 422 rejection, or "" when none applies.
func AuthRequestHint(err error) string {
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
		return "the API rejected the authorization payload: check that valid_until is a future ISO 8601 timestamp with timezone, the aspsp name/country pair is listed by the API, and the redirect URL is whitelisted for this application in the control panel"
	}
	return ""
}
