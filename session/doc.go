// Package session holds the post-exchange session model and its persistence.
//
// A [Session] is the credential proxy returned by the code exchange: a
// session id plus the account list it unlocked. [Store] implementations
// persist that state across process restarts — a JSON file for the CLI and
// desktop front-ends, Redis for the web front-end. Both honor the same
// schema so the front-ends can interoperate.
//
// # Degradation contract
//
// Load on missing, unreadable, or schema-invalid storage returns no session
// rather than an error: the engine must always be able to proceed straight
// to a fresh consent flow.
//
// # What this package must NOT do
//
//   - Import goBanking, jwt, or transport (no upward imports).
//   - Talk to the bank API; it persists what the engine hands it.
package session
