package goBanking

import (
	"context"
	"sync"

	"github.com/MrEthical07/goBanking/consent"
	"github.com/MrEthical07/goBanking/session"
	"github.com/MrEthical07/goBanking/transport"
)

// Engine defines a public type used by goBanking APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config    Config
	api       *transport.Client
	store     session.Store
	presenter consent.Presenter
	audit     *auditDispatcher
	metrics   *Metrics

	mu                sync.Mutex
	session           *session.Session
	defaultAccountUID string
}

// Close stops background audit dispatch and flushes queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// Restore rehydrates the session from the store. Missing, corrupt, or
// schema-invalid state returns (nil, nil): the caller proceeds straight to
// a fresh consent flow.
//
// Restore may return an error only when the store backend itself fails.
func (e *Engine) Restore(ctx context.Context) (*session.Session, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	state, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil || state.SessionID == "" {
		return nil, nil
	}

	sess := &session.Session{ID: state.SessionID, Accounts: state.Accounts}

	e.mu.Lock()
	e.session = sess
	e.defaultAccountUID = state.DefaultAccountUID
	e.mu.Unlock()
	e.api.SetSession(sess.ID)

	ev := e.audit.event("session.restored", nil)
	ev.SessionID = sess.ID
	e.audit.emit(ctx, ev)

	return e.Session(), nil
}

// Session returns a copy of the active session, or nil when none exists.
func (e *Engine) Session() *session.Session {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneSession(e.session)
}

// SignOut clears the active session and its persisted state. The remote
// session is simply abandoned; the API expires it server-side.
func (e *Engine) SignOut(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return ErrNoSession
	}
	sid := e.session.ID
	e.session = nil
	e.defaultAccountUID = ""
	e.mu.Unlock()
	e.api.ClearSession()

	// best-effort: in-memory state is already signed out
	if err := e.store.Clear(ctx); err != nil {
		e.metrics.Inc(MetricStoreSaveFailure)
		ev := e.audit.event("session.persist_failed", err)
		ev.SessionID = sid
		e.audit.emit(ctx, ev)
	}

	e.metrics.Inc(MetricSignOut)
	ev := e.audit.event("session.signout", nil)
	ev.SessionID = sid
	e.audit.emit(ctx, ev)
	return nil
}

// adoptSession installs a freshly exchanged session, overwriting any prior
// one, and persists it best-effort.
func (e *Engine) adoptSession(ctx context.Context, sess *session.Session) {
	e.mu.Lock()
	e.session = sess
	if !hasAccount(sess.Accounts, e.defaultAccountUID) {
		e.defaultAccountUID = ""
	}
	e.mu.Unlock()
	e.api.SetSession(sess.ID)

	e.persist(ctx)
}

// persist writes the current state as a full replacement. Failures are
// logged through the audit sink and counted, never fatal: the in-memory
// state stays authoritative for this process.
func (e *Engine) persist(ctx context.Context) {
	e.mu.Lock()
	state := &session.PersistedState{
		DefaultAccountUID: e.defaultAccountUID,
	}
	if e.session != nil {
		state.SessionID = e.session.ID
		state.Accounts = append([]session.Account(nil), e.session.Accounts...)
	}
	sid := state.SessionID
	e.mu.Unlock()

	if err := e.store.Save(ctx, state); err != nil {
		e.metrics.Inc(MetricStoreSaveFailure)
		ev := e.audit.event("session.persist_failed", err)
		ev.SessionID = sid
		e.audit.emit(ctx, ev)
	}
}

func cloneSession(sess *session.Session) *session.Session {
	if sess == nil {
		return nil
	}
	out := &session.Session{ID: sess.ID}
	out.Accounts = append([]session.Account(nil), sess.Accounts...)
	return out
}

func hasAccount(accounts []session.Account, uid string) bool {
	if uid == "" {
		return false
	}
	for _, acc := range accounts {
		if acc.UID == uid {
			return true
		}
	}
	return false
}
