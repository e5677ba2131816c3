package http

import (
	"context"
	"net/http"
)

// Shutdownable is satisfied by anything that must finish before the HTTP
// listener itself is torn down - e.g. a *mcpsession.Multiplexer tracking
// every session this server's handler spawned. Declared here rather than
// importing mcpsession directly: mcpsession builds on top of transport,
// so transport/server/http importing it back would cycle.
type Shutdownable interface {
	Shutdown(ctx context.Context) error
}

// Server represents an HTTP server with a handler and address
type Server struct {
	server   http.Server // Embedding the http.Server struct to leverage its fields and methods
	handler  http.Handler
	addr     string // Optional address to start the server on
	sessions Shutdownable
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithSessions registers a Shutdownable (typically a *mcpsession.Multiplexer)
// whose Shutdown is awaited before the underlying http.Server.Shutdown, so
// graceful shutdown actually closes active sessions instead of only
// stopping the listener.
func WithSessions(sessions Shutdownable) ServerOption {
	return func(s *Server) { s.sessions = sessions }
}

func (s *Server) Start() error {
	s.server.Addr = s.addr       // Set the address for the server
	s.server.Handler = s.handler // Set the handler for the server
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server: if a Shutdownable session tracker
// was registered via WithSessions, its Shutdown runs first - closing every
// active session and cancelling its inbound handlers (outbound requests
// already waiting are not failed) - before the underlying http.Server.Shutdown stops accepting and
// waits out idle connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sessions != nil {
		if err := s.sessions.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.server.Shutdown(ctx)
}

func NewServer(addr string, handler http.Handler, opts ...ServerOption) *Server {
	// Create a new instance of the Server struct
	s := &Server{
		addr:    addr,
		handler: handler,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
