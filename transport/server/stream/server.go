package stream

import (
	"bufio"
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/viant/mcp/jsonrpc"
	"github.com/viant/mcp/transport"
	"github.com/viant/mcp/transport/server/base"
)

// Server serves the MCP server protocol over arbitrary duplex byte streams
// (e.g. accepted net.Conn connections or a pair of named pipes) - same
// newline-delimited JSON framing as transport/server/stdio, one
// base.Session per stream, but without assuming the stream is a spawned
// subprocess's stdin/stdout (spec's "stream transport": "same framing as
// stdio but over arbitrary supplied input/output byte streams").
type Server struct {
	base       *base.Handler
	newHandler transport.NewHandler
	options    []base.Option
	logger     jsonrpc.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger overrides the default logger used for per-connection diagnostics.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithSessionOptions appends base.Session construction options (framing,
// event buffering, etc.) applied to every connection's session.
func WithSessionOptions(opts ...base.Option) Option {
	return func(s *Server) { s.options = append(s.options, opts...) }
}

// New creates a Server whose per-connection sessions are created via
// newHandler - typically mcpsession.NewServerHandlerFactory, optionally
// wrapped in a *mcpsession.Multiplexer (via its Wrap method) so the
// connection's session can be tracked for graceful shutdown (C6).
func New(newHandler transport.NewHandler, options ...Option) *Server {
	s := &Server{
		base:       base.NewHandler(),
		newHandler: newHandler,
		logger:     jsonrpc.DefaultLogger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Serve runs one session to completion over a single duplex stream: it
// reads newline-delimited frames from r, dispatching each to the session
// this connection gets, and writes outbound frames (replies plus this
// session's own server-initiated requests/notifications) to w. Serve blocks
// until the stream reaches EOF, ctx is done, or a read error occurs; callers
// run it in its own goroutine per accepted connection, the way an HTTP
// server invokes a handler per request.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	id := uuid.New().String()
	newline := base.WithFramer(func(data []byte) []byte {
		if n := len(data); n > 0 && data[n-1] == '\n' {
			return data
		}
		return append(data, '\n')
	})
	session := base.NewSession(ctx, id, w, s.newHandler, append([]base.Option{newline}, s.options...)...)
	s.base.Sessions.Put(id, session)
	defer s.base.Sessions.Delete(id)

	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			session.SetError(err)
			return err
		}
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			s.base.HandleMessage(ctx, session, []byte(line), nil)
		}
		if err != nil {
			if err == io.EOF {
				session.SetError(io.EOF)
				return nil
			}
			session.SetError(err)
			return err
		}
	}
}
