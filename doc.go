// Package goBanking is a read-only client engine for the enable banking
// open-banking API: it drives the consent/authorization flow, exchanges the
// one-time code for a session, and retrieves account balances and paginated
// transaction histories, persisting session state across restarts.
//
// The package is the shared core behind three thin front-ends (CLI, local
// web server, native desktop) that differ only in presentation. Engine
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build], though consent flows and data fetches are
// semantically sequential — one active session per Engine.
//
// # Architecture boundaries
//
// goBanking is the public surface. It exposes [Engine], [Builder],
// [Config], [Flow], and value types. Request signing lives in jwt/, the
// wire client in transport/, persistence in session/, and the interactive
// consent capability in consent/ — front-ends inject a [consent.Presenter]
// and never see protocol state.
//
// # What this package must NOT do
//
//   - Perform write operations against the bank (payments, transfers).
//   - Render HTML, parse command lines, or open browsers itself.
//   - Retry failed API calls; retry policy belongs to the caller.
package goBanking
