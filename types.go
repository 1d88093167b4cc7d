package goBanking

import "time"

// FlowState defines a public type used by goBanking APIs.
//
// FlowState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FlowState uint8

const (
	// StateIdle is the initial flow state, before any consent request.
	StateIdle FlowState = iota
	// StateAwaitingConsentURL covers the POST /auth round-trip.
	StateAwaitingConsentURL
	// StateAwaitingCallback is the user-driven wait for the bank redirect.
	StateAwaitingCallback
	// StateExchanging covers the POST /sessions round-trip.
	StateExchanging
	// StateAuthenticated is the terminal success state.
	StateAuthenticated
	// StateFailed is the terminal error state, reachable from any
	// non-terminal state.
	StateFailed
)

// String describes the flow state for logs and audit events.
func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConsentURL:
		return "awaiting_consent_url"
	case StateAwaitingCallback:
		return "awaiting_callback"
	case StateExchanging:
		return "exchanging"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ConsentParams describes one consent attempt. A fresh state token is
// generated per attempt; callers never supply it.
type ConsentParams struct {
	ASPSPName   string         // aspsp.name, the bank's name
	Country     string         // aspsp.country, e.g. "BE"
	RedirectURL string         // must be whitelisted in the control panel
	ValidFor    time.Duration  // consent validity window; config default when zero
	Access      map[string]any // optional access scope passed through verbatim
}

// TransactionResult is the merged outcome of a paginated transaction fetch.
type TransactionResult struct {
	Items    []map[string]any
	Count    int
	DateFrom string
	DateTo   string
	// Truncated is set when the page cap stopped the fetch while the API
	// still advertised a continuation token.
	Truncated bool
}
