// Package middleware adapts goEstate.Engine session checks to net/http.
//
// # Guards
//
//   - [Guard] resolves the session cookie through Engine.Authenticate and hands rejections
//     to a caller-supplied [RejectFunc].
//   - [RequireSession] rejects anonymous requests with 401.
//   - [RedirectAnonymous] sends anonymous browsers back to the login page.
//
// [ClientInfo] must run before any guard: it records the client IP, the User-Agent and a
// fresh request id on the request context, which the Engine uses for session binding,
// rate limiting and audit events.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not parse tokens,
// touch Redis or talk to the node itself.
package middleware
