package web

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/JonMunkholm/platedesk/internal/logging"
)

// requestLogger attaches a logger carrying the request ID and client IP to
// the request context, so domain code logging through logging.FromContext
// can be correlated with the access log.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := logging.WithFields(r.Context(), "ip", clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP returns the host part of RemoteAddr, already processed by
// TrustedRealIP.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func loggerFor(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}
