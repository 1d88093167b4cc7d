// Package internal contains helper utilities that are intentionally private
// to goBanking, currently the secure state-token generation used to bind a
// consent request to its redirect callback.
//
// # What this package must NOT do
//
//   - Export types that appear in the public goBanking API.
//   - Be imported by any package outside the goBanking module.
package internal
