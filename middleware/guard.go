package middleware

import (
	"errors"
	"net/http"
	"strings"

	goEstate "github.com/MrEthical07/goEstate"
)

// RejectFunc writes the response for a request whose session could not be resolved.
// err is nil when the request carried no session cookie at all.
type RejectFunc func(w http.ResponseWriter, r *http.Request, err error)

// Guard authenticates the session cookie and stores the resulting credential on the
// request context, where [goEstate.CredentialFromContext] finds it.
func Guard(engine *goEstate.Engine, reject RejectFunc) func(http.Handler) http.Handler {
	if reject == nil {
		reject = Unauthorized
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				reject(w, r, goEstate.ErrEngineNotReady)
				return
			}

			token, ok := sessionToken(r, engine.SessionCookieName())
			if !ok {
				reject(w, r, nil)
				return
			}

			cred, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				reject(w, r, err)
				return
			}

			ctx := goEstate.WithCredential(r.Context(), cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without a live session with 401, or 503 when the
// session store cannot be reached.
func RequireSession(engine *goEstate.Engine) func(http.Handler) http.Handler {
	return Guard(engine, Unauthorized)
}

// RedirectAnonymous sends requests without a live session to target with 302.
func RedirectAnonymous(engine *goEstate.Engine, target string) func(http.Handler) http.Handler {
	return Guard(engine, func(w http.ResponseWriter, r *http.Request, err error) {
		if isBackendFailure(err) {
			Unauthorized(w, r, err)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
}

// Unauthorized is the default [RejectFunc].
func Unauthorized(w http.ResponseWriter, _ *http.Request, err error) {
	if isBackendFailure(err) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func isBackendFailure(err error) bool {
	return errors.Is(err, goEstate.ErrRedisUnavailable) || errors.Is(err, goEstate.ErrEngineNotReady)
}

func sessionToken(r *http.Request, cookieName string) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(c.Value)
	if token == "" {
		return "", false
	}
	return token, true
}
