// Package handler provides the C4 handler registry: a method-name indexed
// table of request and notification callbacks that the session endpoint
// (package mcpsession) dispatches inbound JSON-RPC traffic into.
package handler

import (
	"context"
	"encoding/json"
	"github.com/viant/mcp/jsonrpc"
	"sync"
)

// Caller is the reverse-call surface a request handler can use to talk back
// to the peer that invoked it (e.g. a server handler issuing
// sampling/createMessage to its client). mcpsession.Session implements it;
// it is expressed here as an interface to avoid an import cycle.
type Caller interface {
	Call(ctx context.Context, method string, params interface{}, result interface{}) error
	Notify(ctx context.Context, method string, params interface{}) error
}

// Progress lets a handler report incremental progress for a request that
// opted in via params._meta.progressToken. mcpsession.ProgressReporter
// implements it.
type Progress interface {
	Send(ctx context.Context, progress float64, total *float64, message string) error
}

// Context is handed to every RequestHandler invocation.
type Context struct {
	ctx      context.Context
	caller   Caller
	progress Progress // nil when the request carried no progress token
}

// NewContext constructs a handler Context. Intended for callers in this
// module (mcpsession); exported so other session-endpoint-shaped callers can
// reuse the registry.
func NewContext(ctx context.Context, caller Caller, progress Progress) *Context {
	return &Context{ctx: ctx, caller: caller, progress: progress}
}

// Context returns the underlying context.Context, whose Done channel is
// closed when the request is cancelled (locally or by the peer).
func (c *Context) Context() context.Context { return c.ctx }

// Done reports cancellation of the in-flight request.
func (c *Context) Done() <-chan struct{} { return c.ctx.Done() }

// Session returns the reverse-call surface, or nil if none was supplied.
func (c *Context) Session() Caller { return c.caller }

// Progress returns the progress reporter for this request, or nil if the
// request did not opt in via params._meta.progressToken.
func (c *Context) Progress() Progress { return c.progress }

// RequestHandler answers an inbound JSON-RPC request. A non-nil *jsonrpc.Error
// becomes the response's error object; otherwise result is marshalled as the
// response's result.
type RequestHandler func(ctx *Context, params json.RawMessage) (result interface{}, err *jsonrpc.Error)

// NotificationHandler handles an inbound JSON-RPC notification. Errors have
// nowhere to go on the wire (per JSON-RPC) and are only useful for logging.
type NotificationHandler func(ctx context.Context, params json.RawMessage)

// Registry maps method names to handlers for both directions of traffic
// (requests and notifications share the same Registry since a session may
// both serve tools and receive roots/sampling callbacks).
type Registry struct {
	mu          sync.RWMutex
	requests    map[string]RequestHandler
	notifies    map[string]NotificationHandler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		requests: make(map[string]RequestHandler),
		notifies: make(map[string]NotificationHandler),
	}
}

// Register installs a request handler for method. Intended to be called
// before the owning session starts; the map is mutex-guarded so later
// registration is safe but racy with an in-flight dispatch for that method.
func (r *Registry) Register(method string, h RequestHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[method] = h
}

// RegisterNotification installs a notification handler for method.
func (r *Registry) RegisterNotification(method string, h NotificationHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifies[method] = h
}

// Request looks up the handler for an inbound request method.
func (r *Registry) Request(method string) (RequestHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.requests[method]
	return h, ok
}

// Notification looks up the handler for an inbound notification method.
func (r *Registry) Notification(method string) (NotificationHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.notifies[method]
	return h, ok
}

// Methods lists every registered request method name, for diagnostics.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.requests))
	for m := range r.requests {
		out = append(out, m)
	}
	return out
}
