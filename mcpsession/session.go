// Package mcpsession implements the MCP session endpoint (spec §4.3, the C3
// component): the bidirectional handshake, request/response correlation,
// inbound dispatch, cancellation, progress propagation and graceful shutdown
// that sits between a wire transport (package transport) and user-supplied
// handlers (package handler).
//
// The correlation of a session's own outbound requests is delegated to the
// transport.Transport it is started with (github.com/viant/mcp/transport's
// base.Transport implementations already keep a per-connection outstanding
// table); Session adds the MCP-level state machine, capability gating, and
// the inbound cancellation/progress bookkeeping the transport layer does not
// know about.
package mcpsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/viant/mcp/handler"
	"github.com/viant/mcp/jsonrpc"
	"github.com/viant/mcp/transport"
	"sync"
	"sync/atomic"
	"time"
)

// Session is the per-connection MCP state machine. One Session is bound to
// exactly one transport.Transport for its lifetime.
type Session struct {
	role      Role
	config    *Config
	transport transport.Transport

	state int32 // atomic State

	mu                 sync.Mutex
	peerImplementation Implementation
	peerServerCaps     *ServerCapabilities
	peerClientCaps     *ClientCapabilities

	cancelMu sync.Mutex
	inflight map[jsonrpc.RequestId]context.CancelFunc

	progressMu sync.Mutex
	waiters    map[string]chan ProgressParams

	closeOnce sync.Once
	closed    chan struct{}
}

func newSession(role Role, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Session{
		role:     role,
		config:   cfg,
		inflight: make(map[jsonrpc.RequestId]context.CancelFunc),
		waiters:  make(map[string]chan ProgressParams),
		closed:   make(chan struct{}),
	}
}

// NewClientSession constructs a Session playing the client role. Callers
// build the underlying transport with the session itself as its
// transport.Handler (it implements Serve/OnNotification), then call Start
// with the constructed transport.Transport to run the handshake:
//
//	session := mcpsession.NewClientSession(opts...)
//	cl, err := stdio.New(cmd, stdio.WithHandler(session))
//	err = session.Start(ctx, cl)
func NewClientSession(opts ...Option) *Session {
	return newSession(RoleClient, opts...)
}

// NewServerSession constructs a Session playing the server role. It is
// typically wrapped by NewServerHandlerFactory so it can be used as the
// transport.NewHandler a multi-session server transport (C6) invokes per
// accepted connection.
func NewServerSession(ctx context.Context, t transport.Transport, opts ...Option) *Session {
	s := newSession(RoleServer, opts...)
	s.transport = t
	s.setState(HandshakeInProgress)
	return s
}

// NewServerHandlerFactory adapts Session construction to transport.NewHandler
// so it plugs directly into the teacher-derived server transports
// (transport/server/base.NewSession, transport/server/http/*), closing the
// gap spec §4.6 identifies between "accept a connection" and "run a session."
func NewServerHandlerFactory(opts ...Option) transport.NewHandler {
	return func(ctx context.Context, t transport.Transport) transport.Handler {
		return NewServerSession(ctx, t, opts...)
	}
}

// Registry exposes the handler registry (C4) so callers can register
// request/notification handlers before or after Start.
func (s *Session) Registry() *handler.Registry { return s.config.Registry }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(atomic.LoadInt32(&s.state)) }

func (s *Session) setState(st State) { atomic.StoreInt32(&s.state, int32(st)) }

// PeerImplementation returns the peer's advertised name/version, populated at
// the HandshakeInProgress -> Ready edge.
func (s *Session) PeerImplementation() Implementation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerImplementation
}

// PeerServerCapabilities returns the server's advertised capabilities, as
// observed by a client session after a successful handshake.
func (s *Session) PeerServerCapabilities() *ServerCapabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerServerCaps
}

// PeerClientCapabilities returns the client's advertised capabilities, as
// observed by a server session after a successful handshake.
func (s *Session) PeerClientCapabilities() *ClientCapabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerClientCaps
}

// Start binds the session to a transport and runs the handshake of spec
// §4.3.2. For a client session this sends "initialize" and blocks (up to
// InitializationTimeout) for the reply, then sends "notifications/initialized".
// For a server session the transport is simply attached; the server answers
// the peer's "initialize" request when it arrives via Serve.
func (s *Session) Start(ctx context.Context, t transport.Transport) error {
	if s.transport != nil {
		return ErrAlreadyStarted
	}
	s.transport = t
	if s.role == RoleServer {
		s.setState(HandshakeInProgress)
		return nil
	}
	return s.clientHandshake(ctx)
}

func (s *Session) clientHandshake(ctx context.Context) error {
	s.setState(HandshakeInProgress)
	hctx, cancel := context.WithTimeout(ctx, s.config.InitializationTimeout)
	defer cancel()

	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      s.config.Implementation,
		Capabilities:    s.config.ClientCapabilities,
	}
	var result InitializeResult
	if err := s.Call(hctx, "initialize", params, &result); err != nil {
		if errors.Is(hctx.Err(), context.DeadlineExceeded) {
			return ErrHandshakeTimeout
		}
		return fmt.Errorf("mcpsession: initialize failed: %w", err)
	}
	if result.ProtocolVersion != ProtocolVersion {
		s.logf("mcpsession: protocol version mismatch: peer=%s local=%s; proceeding at caller's risk", result.ProtocolVersion, ProtocolVersion)
	}
	s.mu.Lock()
	s.peerServerCaps = &result.Capabilities
	s.peerImplementation = result.ServerInfo
	s.mu.Unlock()

	if err := s.notify(ctx, "notifications/initialized", nil); err != nil {
		return fmt.Errorf("mcpsession: failed to send notifications/initialized: %w", err)
	}
	s.setState(Ready)
	return nil
}

// Call issues an outbound request and waits for its settlement (response,
// error, cancellation, or connection closure), per spec §4.3.1/§5. result, if
// non-nil, receives the unmarshalled success result.
func (s *Session) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	switch s.State() {
	case Closing, Closed:
		return ErrConnectionClosed
	}
	raw, err := asParams(params)
	if err != nil {
		return err
	}
	req := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: method, Params: raw}
	resp, err := s.transport.Send(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			s.cancelOutbound(req)
			return ErrCancelled
		}
		return fmt.Errorf("mcpsession: %s: %w", method, err)
	}
	if resp.IsError() {
		return resp.Error
	}
	if result != nil && len(resp.Result) > 0 {
		return json.Unmarshal(resp.Result, result)
	}
	return nil
}

// Notify sends a one-way notification.
func (s *Session) Notify(ctx context.Context, method string, params interface{}) error {
	return s.notify(ctx, method, params)
}

func (s *Session) notify(ctx context.Context, method string, params interface{}) error {
	raw, err := asParams(params)
	if err != nil {
		return err
	}
	return s.transport.Notify(ctx, &jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: method, Params: raw})
}

func (s *Session) cancelOutbound(req *jsonrpc.Request) {
	idJSON, err := req.Id.MarshalJSON()
	if err != nil {
		return
	}
	_ = s.notify(context.Background(), "notifications/cancelled", CancelledParams{RequestID: idJSON, Reason: "caller context done"})
}

func asParams(params interface{}) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	switch v := params.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("mcpsession: failed to marshal params: %w", err)
		}
		return data, nil
	}
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Errorf(format, args...)
	}
}

// Close transitions to Closing, cancels every dispatched inbound handler,
// then waits until DrainTimeout elapses or ctx is done, whichever comes
// first, without checking whether those handlers have returned; it then
// transitions to Closed. Idempotent. Outbound Calls already waiting for a
// response are not failed by Close; Calls started after it return
// ErrConnectionClosed.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.setState(Closing)
		s.cancelAllInbound()
		select {
		case <-ctx.Done():
		case <-time.After(s.config.DrainTimeout):
		}
		s.setState(Closed)
		close(s.closed)
	})
	return nil
}

// Done is closed once Close has completed.
func (s *Session) Done() <-chan struct{} { return s.closed }

func (s *Session) registerCancel(id jsonrpc.RequestId, cancel context.CancelFunc) {
	s.cancelMu.Lock()
	s.inflight[id] = cancel
	s.cancelMu.Unlock()
}

func (s *Session) unregisterCancel(id jsonrpc.RequestId) {
	s.cancelMu.Lock()
	delete(s.inflight, id)
	s.cancelMu.Unlock()
}

// cancelInbound cancels the inbound handler dispatched for id, if still
// running. Cancelling an unknown (already-settled) id is a no-op, per spec
// §4.3.3 / Testable Property 4.
func (s *Session) cancelInbound(id jsonrpc.RequestId) {
	s.cancelMu.Lock()
	cancel, ok := s.inflight[id]
	if ok {
		delete(s.inflight, id)
	}
	s.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Session) cancelAllInbound() {
	s.cancelMu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.inflight))
	for id, cancel := range s.inflight {
		cancels = append(cancels, cancel)
		delete(s.inflight, id)
	}
	s.cancelMu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// WaitProgress returns a channel that receives every notifications/progress
// event carrying token, until ctx is done. Callers that do not read the spec
// §4.3.4 token back out never need this; it exists so a caller blocked in
// Call can observe progress from a concurrent goroutine, matching spec
// §4.3.5's "routed to the waiter associated with the token, if any."
func (s *Session) WaitProgress(ctx context.Context, token json.RawMessage) <-chan ProgressParams {
	key := string(token)
	ch := make(chan ProgressParams, 8)
	s.progressMu.Lock()
	s.waiters[key] = ch
	s.progressMu.Unlock()
	go func() {
		<-ctx.Done()
		s.progressMu.Lock()
		if s.waiters[key] == ch {
			delete(s.waiters, key)
		}
		s.progressMu.Unlock()
	}()
	return ch
}

func (s *Session) routeProgress(raw json.RawMessage) {
	var p ProgressParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logf("mcpsession: malformed notifications/progress: %v", err)
		return
	}
	s.progressMu.Lock()
	ch, ok := s.waiters[string(p.ProgressToken)]
	s.progressMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- p:
	default:
	}
}
