// Package jwt issues and verifies the signed session tokens carried in the session
// cookie. A token names a Redis session (sid) and the account it is bound to (addr).
package jwt
