// Package rate provides the Redis-backed counters that throttle password guessing
// against node accounts and bulk account creation.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  failed logins per account address (lowercase hex)
//   - ali: failed logins per client IP
//   - arg: registrations per client IP
//
// A zero maximum disables the corresponding limiter.
//
// # What this package must NOT do
//
//   - Talk to the node or decide whether a password is correct.
//   - Be imported outside the goEstate module.
package rate
