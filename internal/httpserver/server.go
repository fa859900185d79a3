package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long Shutdown waits for in-flight requests to
// drain before the process exits.
var ShutdownTimeout = 15 * time.Second

// Server wraps the http.Server with defaults tuned for an API that also
// accepts large multipart video uploads.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port. WriteTimeout is
// generous because publish requests stream whole video files.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      5 * time.Minute,
			IdleTimeout:       2 * time.Minute,
		},
	}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully terminates the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
