// Package session provides Redis-backed persistence for browser sessions bound to a node
// account.
//
// # Layout
//
// Each session is stored under <prefix>:<session id> as a fixed-size binary record (see
// [Encode]) with a TTL equal to the session lifetime. A per-address set
// <prefix>a:<lowercase hex address> indexes the session IDs of one account so the engine can
// tell whether an account still has a live session before locking it on the node.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model. It does NOT
// verify tokens, talk to the node, or decide when an account is locked. Those
// responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goEstate, jwt, node or contract (no upward imports).
//   - Store passwords or raw client identifiers. IP and User-Agent are kept as hashes.
package session
