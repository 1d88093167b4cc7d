package session

import "context"

// Store persists session state across process restarts. Writes are full
// replacements, never incremental patches, and implementations serialize
// them per instance.
//
// Load returns (nil, nil) when no usable state exists — missing, corrupt,
// or schema-invalid storage all degrade to "no session".
type Store interface {
	Save(ctx context.Context, state *PersistedState) error
	Load(ctx context.Context) (*PersistedState, error)
	Clear(ctx context.Context) error
}
