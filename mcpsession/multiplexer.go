package mcpsession

import (
	"context"
	"sync"

	"github.com/viant/mcp/transport"
)

// Multiplexer tracks every server-role Session spawned across a server
// transport's accepted connections, closing spec §4.6's gap between
// "accept a connection" (the transport layer's job, C2) and "track the
// session task so graceful shutdown can await all of them" (C6). One
// Multiplexer is shared across however many server transports (SSE,
// streamable-HTTP, streaming, stdio, stream) a process runs, since sessions
// are tracked by the Session value itself, not by which transport spawned
// it.
type Multiplexer struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

// NewMultiplexer creates an empty Multiplexer.
func NewMultiplexer() *Multiplexer {
	return &Multiplexer{sessions: make(map[*Session]struct{})}
}

// Wrap adapts a transport.NewHandler (typically NewServerHandlerFactory's
// return value) into one that additionally registers every spawned *Session
// with m, so a later Shutdown can find and close it:
//
//	mux := mcpsession.NewMultiplexer()
//	h := sse.New(mux.Wrap(mcpsession.NewServerHandlerFactory(opts...)))
//	srv := http.NewServer(addr, h, http.WithSessions(mux))
//
// If factory returns something other than a *Session (a caller's own
// transport.Handler), it is returned unwrapped and untracked - Multiplexer
// only knows how to await Session.Close.
func (m *Multiplexer) Wrap(factory transport.NewHandler) transport.NewHandler {
	return func(ctx context.Context, t transport.Transport) transport.Handler {
		h := factory(ctx, t)
		session, ok := h.(*Session)
		if !ok {
			return h
		}
		m.track(session)
		return session
	}
}

func (m *Multiplexer) track(s *Session) {
	m.mu.Lock()
	m.sessions[s] = struct{}{}
	m.mu.Unlock()
	m.wg.Add(1)
	go func() {
		<-s.Done()
		m.mu.Lock()
		delete(m.sessions, s)
		m.mu.Unlock()
		m.wg.Done()
	}()
}

// Shutdown closes every currently tracked session - cancelling its in-flight
// inbound handlers, per Session.Close, which does not fail outbound requests
// already waiting for a response - then waits for all of them to finish closing or for ctx to be done,
// whichever comes first.
func (m *Multiplexer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		go s.Close(ctx)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count returns the number of currently tracked (not-yet-closed) sessions.
// Intended for diagnostics and tests.
func (m *Multiplexer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
