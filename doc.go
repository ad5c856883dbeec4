// Package goEstate is the session and authorization layer of a web front end for a
// real-estate smart contract. Account keys live in an Ethereum node; a user proves
// ownership by unlocking the account with its password, and every later contract
// operation is signed by the node on behalf of that account.
//
// The package is designed for concurrent server workloads: Engine methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Credentials
//
// There is no process-wide "current user". Login and Register return a signed session
// token; [Engine.Authenticate] turns it back into a [Credential] per request, and every
// contract operation takes that Credential explicitly.
//
// # Architecture boundaries
//
// goEstate is the public surface. It exposes [Engine], [Builder], [Config] and value
// types. Token signing lives in jwt/, session persistence in session/, rate limiting in
// internal/rate, ABI encoding in contract/ and JSON-RPC in node/.
//
// # What this package must NOT do
//
//   - Store or log account passwords. They are forwarded to the node once.
//   - Lock the configured main address.
//   - Retry node calls. A failed call fails the request that issued it.
package goEstate
