package http

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"scriptvault/internal/contextutil"
	"scriptvault/internal/ratelimit"
)

// Plain-text body served to clients outside the allow-list.
const accessDeniedBody = "-- Access denied: This endpoint is for Roblox execution only"

// LoggerMiddleware adds a structured logger to the request context.
func LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.Default().With(
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		ctx := contextutil.WithLogger(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORS adds CORS headers to allow cross-origin requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects requests once the client's key has exhausted the
// limiter's window. Keys are client IPs; RealIP middleware must run
// earlier so proxied requests resolve to the originating address.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				ctx := r.Context()
				contextutil.LoggerFromContext(ctx).WarnContext(ctx, "rate limit exceeded", "remote_addr", r.RemoteAddr)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests, please try again later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientGate admits only requests whose User-Agent contains one of the
// allowed substrings. It protects the raw script endpoint from casual
// browser access; a determined client can of course spoof the header.
func ClientGate(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua := r.Header.Get("User-Agent")
			for _, substr := range allowed {
				if strings.Contains(ua, substr) {
					next.ServeHTTP(w, r)
					return
				}
			}
			ctx := r.Context()
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "client gate rejected request", "user_agent", ua)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(accessDeniedBody))
		})
	}
}

// clientIP strips the port from the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
