package goBanking

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goBanking/session"
	"github.com/MrEthical07/goBanking/transport"
)

// Accounts returns the accounts unlocked by the active session.
//
// Accounts may return ErrNoSession when no session is active.
func (e *Engine) Accounts() ([]session.Account, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, ErrNoSession
	}
	return append([]session.Account(nil), e.session.Accounts...), nil
}

// Account looks up one unlocked account by uid.
//
// Account may return ErrNoSession or ErrAccountNotFound.
func (e *Engine) Account(uid string) (session.Account, error) {
	if e == nil {
		return session.Account{}, ErrEngineNotReady
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return session.Account{}, ErrNoSession
	}
	for _, acc := range e.session.Accounts {
		if acc.UID == uid {
			return acc, nil
		}
	}
	return session.Account{}, ErrAccountNotFound
}

// SetDefaultAccount marks one unlocked account as the default and persists
// the choice alongside the session.
//
// SetDefaultAccount may return ErrNoSession or ErrAccountNotFound.
func (e *Engine) SetDefaultAccount(ctx context.Context, uid string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return ErrNoSession
	}
	if !hasAccount(e.session.Accounts, uid) {
		e.mu.Unlock()
		return ErrAccountNotFound
	}
	e.defaultAccountUID = uid
	e.mu.Unlock()

	e.persist(ctx)
	return nil
}

// DefaultAccount returns the default account, falling back to the first
// unlocked account when none was chosen.
//
// DefaultAccount may return ErrNoSession when no session is active or the
// session unlocked no accounts.
func (e *Engine) DefaultAccount() (session.Account, error) {
	if e == nil {
		return session.Account{}, ErrEngineNotReady
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || len(e.session.Accounts) == 0 {
		return session.Account{}, ErrNoSession
	}
	for _, acc := range e.session.Accounts {
		if acc.UID == e.defaultAccountUID {
			return acc, nil
		}
	}
	return e.session.Accounts[0], nil
}

// Balances retrieves the current balances for one unlocked account. The
// response is returned undecoded beyond the JSON mapping; balance schemas
// vary per bank.
//
// Balances may return ErrNoSession, ErrAccountNotFound, or a
// *transport.APIError from the API.
func (e *Engine) Balances(ctx context.Context, uid string) (map[string]any, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}
	if _, err := e.Account(uid); err != nil {
		return nil, err
	}

	resp, err := e.api.Do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(uid)+"/balances", nil, nil)
	if err != nil {
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) {
			e.metrics.Inc(MetricAPIError)
		}
		ev := e.audit.event("balances.fetch_failed", err)
		ev.AccountUID = uid
		e.audit.emit(ctx, ev)
		return nil, err
	}

	e.metrics.Inc(MetricBalanceFetches)
	ev := e.audit.event("balances.fetched", nil)
	ev.AccountUID = uid
	e.audit.emit(ctx, ev)
	return resp, nil
}
