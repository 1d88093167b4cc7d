package session

import "time"

// Account is one bank account unlocked by a session. UID is the stable
// identifier used in all balance and transaction calls; Raw keeps the
// untyped mapping the API returned for it.
type Account struct {
	UID         string         `json:"uid"`
	DisplayName string         `json:"display_name"`
	Raw         map[string]any `json:"raw,omitempty"`
}

// Session defines a public type used by goBanking APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	ID       string
	Accounts []Account
}

// PersistedState is the on-disk schema shared by every front-end. It is
// written as a full replacement after each successful exchange or account
// refresh and read once at startup.
type PersistedState struct {
	SessionID         string    `json:"session_id,omitempty"`
	Accounts          []Account `json:"accounts"`
	DefaultAccountUID string    `json:"default_account_uid,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AccountFromRaw builds an Account from the mapping the API returned,
// deriving the display name by the fallback chain name, owner name, IBAN,
// uid. The first present field wins; the result is never empty when a uid
// exists.
func AccountFromRaw(raw map[string]any) Account {
	uid := stringField(raw, "uid")
	name := stringField(raw, "name", "owner_name", "iban")
	if name == "" {
		name = uid
	}
	return Account{UID: uid, DisplayName: name, Raw: raw}
}

// stringField returns the first non-empty string among the named keys; an
// explicit first-of-N lookup, not attribute probing.
func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
