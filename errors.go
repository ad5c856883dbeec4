package goEstate

import (
	"errors"

	"github.com/MrEthical07/goEstate/password"
)

var (
	// ErrUnauthorized is returned when a request carries no usable session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrLoginRateLimited is returned once an address or client IP has spent its failed-login budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRegisterRateLimited is returned once a client IP has spent its registration budget.
	ErrRegisterRateLimited = errors.New("registration rate limited")
	// ErrSessionCreationFailed is returned when an unlocked account could not be bound to a session.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionBindingRejected is returned when a session is presented from a different client.
	ErrSessionBindingRejected = errors.New("session binding rejected")
	// ErrLockFailed wraps a node failure while locking an account on logout.
	ErrLockFailed = errors.New("account lock failed")
	// ErrNodeUnavailable wraps node transport failures outside contract calls.
	ErrNodeUnavailable = errors.New("node unavailable")
	// ErrRedisUnavailable wraps session and limiter backend failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrEngineNotReady is returned by methods called on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// AuthError reports a rejected login. Reason carries the node's own message, for
// example "could not decrypt key with given password".
type AuthError struct {
	Reason string
	// AttemptsLeft is how many more failed logins the address may make before it is
	// rate limited. -1 means no limit applies or the counter could not be read.
	AttemptsLeft int
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "invalid address or password"
	}
	return "invalid address or password: " + e.Reason
}

// ValidationError reports the first password strength rule a registration failed.
type ValidationError = password.PolicyError
