package goEstate

import (
	"net/http"
	"time"
)

// SessionCookieName returns the configured cookie name carrying the session token.
func (e *Engine) SessionCookieName() string {
	if e == nil {
		return defaultConfig().Session.CookieName
	}
	return e.config.Session.CookieName
}

// SessionCookie builds the cookie that hands a login result to the browser. It expires
// together with the session.
func (e *Engine) SessionCookie(res *LoginResult) *http.Cookie {
	maxAge := int(time.Until(res.Credential.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     e.SessionCookieName(),
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Credential.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   e.config.Session.CookieSecure,
		SameSite: e.config.Session.SameSite,
	}
}

// ClearSessionCookie builds the cookie that removes the session token from the browser.
func (e *Engine) ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     e.SessionCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   e.config.Session.CookieSecure,
		SameSite: e.config.Session.SameSite,
	}
}
