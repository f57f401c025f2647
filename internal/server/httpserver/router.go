// Package httpserver provides the HTTP/HTTPS server for streamcoordd.
package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/streamcoord-go/internal/cluster"
	"github.com/yndnr/streamcoord-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Client is the cluster client the handler applies commands through.
	Client *cluster.Client

	// Logger for request logging.
	Logger *slog.Logger

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// GlobalRateLimit is the global rate limit per IP (requests/second); 0 disables it.
	GlobalRateLimit int

	// EnableAudit enables audit logging for all requests.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.Client, cfg.Logger)

	middlewares := []Middleware{
		Recover(cfg.Logger),
		CORS(cfg.CORSAllowedOrigins),
		RequestID(),
	}
	if cfg.GlobalRateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.GlobalRateLimit))
	}
	if cfg.EnableAudit {
		middlewares = append(middlewares, Audit(cfg.Logger))
	}

	return Chain(h, middlewares...)
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		GlobalRateLimit: 1000,
		EnableAudit:     true,
	}
}
