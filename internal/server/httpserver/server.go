// Package httpserver provides the HTTP/HTTPS admin server for streamcoordd.
//
// It uses the Go standard library net/http for implementation, exposing
// the stream cluster lifecycle operations over a small JSON API.
package httpserver

import (
	"context"
	"net/http"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
		handler: handler,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// ListenAndServeTLS starts the HTTPS server.
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
