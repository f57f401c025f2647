// Package httpserver provides the HTTP/HTTPS server for streamcoordd.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Context keys for request-scoped values.
type contextKey string

const (
	// ContextKeyRequestID is the context key for request ID.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyStartTime is the context key for request start time.
	ContextKeyStartTime contextKey = "start_time"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID adds a unique request ID to each request.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = "req-" + ulid.Make().String()
			}

			r.Header.Set("X-Request-ID", requestID)
			w.Header().Set("X-Request-ID", requestID)

			ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit applies global rate limiting (per-IP) using a token bucket.
func RateLimit(requestsPerSecond int) Middleware {
	type bucket struct {
		tokens    float64
		lastCheck time.Time
	}

	var mu sync.RWMutex
	buckets := make(map[string]*bucket)
	rate := float64(requestsPerSecond)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			mu.RLock()
			b, ok := buckets[ip]
			mu.RUnlock()

			if !ok {
				mu.Lock()
				if b, ok = buckets[ip]; !ok {
					b = &bucket{tokens: rate, lastCheck: time.Now()}
					buckets[ip] = b
				}
				mu.Unlock()
			}

			mu.Lock()
			now := time.Now()
			elapsed := now.Sub(b.lastCheck).Seconds()
			b.tokens += elapsed * rate
			if b.tokens > rate {
				b.tokens = rate
			}
			b.lastCheck = now

			if b.tokens < 1 {
				mu.Unlock()
				w.Header().Set("Retry-After", "1")
				writeSystemError(w, "TOO_MANY_REQUESTS", "too many requests")
				return
			}

			b.tokens--
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// Audit logs request/response for every call into the admin surface.
func Audit(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			requestID, _ := r.Context().Value(ContextKeyRequestID).(string)
			startTime, _ := r.Context().Value(ContextKeyStartTime).(time.Time)
			duration := time.Since(startTime)

			attrs := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
				"client_ip", getClientIP(r),
			}

			switch {
			case wrapped.statusCode >= 500:
				logger.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				logger.Warn("request completed with client error", attrs...)
			default:
				logger.Info("request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns a 500 error.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID, _ := r.Context().Value(ContextKeyRequestID).(string)
					logger.Error("panic recovered",
						"request_id", requestID,
						"error", err,
						"path", r.URL.Path,
					)
					writeSystemError(w, "INTERNAL", "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Acting-User")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// GetRequestIDFromContext retrieves the request ID from context.
func GetRequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// writeSystemError writes a bare error response from middleware, ahead of
// the handler's own envelope.
func writeSystemError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)

	status := http.StatusInternalServerError
	if strings.Contains(code, "TOO_MANY_REQUESTS") {
		status = http.StatusTooManyRequests
	}

	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
