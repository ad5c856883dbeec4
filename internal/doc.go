// Package internal holds helpers private to goEstate: session identifiers and the
// client fingerprints stored alongside each session.
//
// # Sub-packages
//
//   - rate: Redis-backed login and registration limiters
//
// # What this package must NOT do
//
//   - Export types that appear in the public goEstate API.
//   - Be imported by any package outside the goEstate module.
package internal
