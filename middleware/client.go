package middleware

import (
	"net"
	"net/http"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

// ClientInfo records the client IP, User-Agent and a new request id on the request
// context. Run chi's RealIP first when the server sits behind a proxy.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)

		ctx := goEstate.WithRequestID(r.Context(), id)
		ctx = goEstate.WithClientIP(ctx, remoteIP(r.RemoteAddr))
		ctx = goEstate.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
