// Package node is the JSON-RPC client for the Ethereum-compatible node that owns every
// account and the deployed contract.
//
// # Namespaces
//
//   - personal_*: unlock, lock and create node-managed accounts. Passwords are forwarded
//     to the node and never retained.
//   - eth_*: submit node-signed transactions, run read-only calls, list accounts.
//
// # Architecture boundaries
//
// This package translates Go values to JSON-RPC parameters and back. It does NOT know the
// contract ABI (see contract) and does NOT track sessions (see session).
//
// # What this package must NOT do
//
//   - Retry calls. Every failure is terminal for the request that triggered it.
//   - Log passwords or raw call data.
package node
