package goBanking

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrBuilderReused is returned when Build is called twice on one Builder.
	ErrBuilderReused = errors.New("builder already used")
	// ErrPresenterRequired is returned by Authorize when no consent presenter was injected.
	ErrPresenterRequired = errors.New("consent presenter required")
	// ErrAuthRequest is returned when the bank rejects the consent request.
	ErrAuthRequest = errors.New("consent request rejected")
	// ErrProtocol is returned on an unexpected API response shape; treated as a bug signal.
	ErrProtocol = errors.New("unexpected api response shape")
	// ErrCallback is returned when the redirect callback is unusable.
	ErrCallback = errors.New("invalid consent callback")
	// ErrStateMismatch is returned when the callback state does not match the
	// one generated for the consent request. The exchange must not proceed.
	ErrStateMismatch = errors.New("consent state mismatch")
	// ErrCancelled is returned when the user aborts the consent interaction.
	ErrCancelled = errors.New("consent flow cancelled")
	// ErrSessionExchange is returned when the code exchange fails.
	ErrSessionExchange = errors.New("session exchange failed")
	// ErrFlowState is returned on an invalid flow state transition.
	ErrFlowState = errors.New("invalid flow state transition")
	// ErrNoSession is returned by data calls when no session is active.
	ErrNoSession = errors.New("no active session")
	// ErrAccountNotFound is returned when a uid is not in the session's account list.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDateFromRequired is returned by Transactions when date_from is empty.
	// Front-ends supply their own lookback defaults.
	ErrDateFromRequired = errors.New("date_from is required")
)
